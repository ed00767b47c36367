// Package solver implements gradient-based optimizers over flat
// parameter vectors, wrapped so that they can be JSON serialized into
// configuration files.
package solver

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam     Type = "Adam"
	Vanilla  Type = "SGD"
	RMSProp  Type = "RMSProp"
	Adaptive Type = "Adaptive"
)

// Types returns all available solver types
func Types() []Type {
	return []Type{Adam, Vanilla, RMSProp, Adaptive}
}

// Stepper updates a parameter vector in place given the gradient of a
// loss to minimize with respect to those parameters. A Stepper keeps
// per-parameter state, so a single Stepper should only ever be used to
// update a single parameter vector.
type Stepper interface {
	Step(params, grad []float64) error
	Clone() Stepper
}

// Solver wraps Steppers so that they can be JSON marshalled and
// unmarshalled.
type Solver struct {
	Stepper `json:"-"`
	Type
	Config
}

// newSolver returns a new solver with the given type and configuration.
func newSolver(t Type, c Config) (*Solver, error) {
	if !c.ValidType(t) {
		return nil, fmt.Errorf("newSolver: invalid solver type %v for "+
			"configuration %T", t, c)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newSolver: %w", err)
	}
	solver := Solver{Type: t, Config: c}
	solver.Stepper = solver.Config.Create()

	return &solver, nil
}

// New returns a new Solver of the given type using the default
// configuration of that type. For the Adaptive solver, stepSize is the
// bound ε on the length of each step.
func New(t Type, stepSize float64) (*Solver, error) {
	switch t {
	case Adam:
		return NewDefaultAdam(stepSize)
	case Vanilla:
		return NewVanilla(stepSize, -1)
	case RMSProp:
		return NewDefaultRMSProp(stepSize)
	case Adaptive:
		return NewAdaptive(stepSize)
	}
	return nil, fmt.Errorf("new: no such solver type %q", t)
}

// Clone returns a Solver with the same configuration and a fresh
// Stepper, so that the clone shares no optimizer state with s
func (s *Solver) Clone() *Solver {
	return &Solver{Stepper: s.Config.Create(), Type: s.Type, Config: s.Config}
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (s *Solver) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(
		data,
		"Type",
		"Config",
		map[string]reflect.Type{
			string(Vanilla):  reflect.TypeOf(VanillaConfig{}),
			string(Adam):     reflect.TypeOf(AdamConfig{}),
			string(RMSProp):  reflect.TypeOf(RMSPropConfig{}),
			string(Adaptive): reflect.TypeOf(AdaptiveConfig{}),
		})
	if err != nil {
		return err
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("unmarshalJSON: %w", err)
	}

	s.Type = typeName
	s.Config = config
	s.Stepper = s.Config.Create()

	return nil
}

// unmarshalConfig uses reflection to unmarshall a Config into its
// concrete type. Both the Config and its Type are returned.
func unmarshalConfig(data []byte, typeJsonField, valueJsonField string,
	customTypes map[string]reflect.Type) (Config, Type, error) {
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}

	typeName, ok := m[typeJsonField].(string)
	if !ok {
		return nil, "", fmt.Errorf("unmarshalConfig: missing field %q",
			typeJsonField)
	}
	ty, found := customTypes[typeName]
	if !found {
		return nil, "", fmt.Errorf("unmarshalConfig: no such solver type %q",
			typeName)
	}
	ptr := reflect.New(ty)

	valueBytes, err := json.Marshal(m[valueJsonField])
	if err != nil {
		return nil, "", err
	}

	if err = json.Unmarshal(valueBytes, ptr.Interface()); err != nil {
		return nil, "", err
	}

	return ptr.Elem().Interface().(Config), Type(typeName), nil
}

// Config implements a Solver configuration and can be used to create
// the Steppers they describe.
type Config interface {
	Create() Stepper

	// ValidType returns whether a specific Solver type can be created
	// with the Config
	ValidType(Type) bool

	// Validate returns an error if the configuration is invalid
	Validate() error
}

// checkLengths returns an error if a parameter vector and its gradient
// differ in length
func checkLengths(params, grad []float64) error {
	if len(params) != len(grad) {
		return fmt.Errorf("step: %v parameters but %v gradients",
			len(params), len(grad))
	}
	return nil
}

// clip clips each gradient component to [-c, c] if c > 0
func clip(grad []float64, c float64) []float64 {
	if c <= 0 {
		return grad
	}
	clipped := make([]float64, len(grad))
	for i, g := range grad {
		switch {
		case g > c:
			clipped[i] = c
		case g < -c:
			clipped[i] = -c
		default:
			clipped[i] = g
		}
	}
	return clipped
}

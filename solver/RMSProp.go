package solver

import (
	"fmt"
	"math"
)

// RMSPropConfig implements a specific configuration of the RMSProp
// solver
type RMSPropConfig struct {
	StepSize float64
	Epsilon  float64
	Rho      float64
	Clip     float64 // <= 0 if no clipping
}

// NewDefaultRMSProp returns a new RMSProp Solver with default
// hyperparameters
func NewDefaultRMSProp(stepSize float64) (*Solver, error) {
	return NewRMSProp(stepSize, 1e-8, 0.9, -1.0)
}

// NewRMSProp returns a new RMSProp Solver
func NewRMSProp(stepSize, epsilon, rho, clip float64) (*Solver, error) {
	rmsprop := RMSPropConfig{
		StepSize: stepSize,
		Epsilon:  epsilon,
		Rho:      rho,
		Clip:     clip,
	}

	return newSolver(RMSProp, rmsprop)
}

// Create returns a new RMSProp Stepper as described by the
// RMSPropConfig
func (r RMSPropConfig) Create() Stepper {
	return &rmsprop{config: r}
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (r RMSPropConfig) ValidType(t Type) bool {
	return t == RMSProp
}

// Validate returns an error if the configuration is invalid
func (r RMSPropConfig) Validate() error {
	if r.StepSize <= 0 {
		return fmt.Errorf("validate: rmsprop step size must be positive, "+
			"got %v", r.StepSize)
	}
	if r.Rho < 0 || r.Rho >= 1 {
		return fmt.Errorf("validate: rmsprop ρ must be in [0, 1), got %v",
			r.Rho)
	}
	return nil
}

type rmsprop struct {
	config RMSPropConfig
	cache  []float64
}

func (r *rmsprop) Step(params, grad []float64) error {
	if err := checkLengths(params, grad); err != nil {
		return err
	}
	if r.cache == nil {
		r.cache = make([]float64, len(params))
	} else if len(r.cache) != len(params) {
		return fmt.Errorf("step: rmsprop state has %v parameters, got %v",
			len(r.cache), len(params))
	}

	grad = clip(grad, r.config.Clip)
	rho := r.config.Rho
	for i, g := range grad {
		r.cache[i] = rho*r.cache[i] + (1-rho)*g*g
		params[i] -= r.config.StepSize * g / (math.Sqrt(r.cache[i]) +
			r.config.Epsilon)
	}
	return nil
}

func (r *rmsprop) Clone() Stepper {
	clone := &rmsprop{config: r.config}
	if r.cache != nil {
		clone.cache = append([]float64(nil), r.cache...)
	}
	return clone
}

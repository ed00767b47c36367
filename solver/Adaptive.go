package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// AdaptiveConfig describes a configuration of the Adaptive solver. The
// Adaptive solver takes steps along the gradient whose squared length
// is exactly Epsilon, so that ε bounds the change in parameters on
// each update regardless of the gradient's magnitude.
type AdaptiveConfig struct {
	Epsilon float64
}

// NewAdaptive returns a new Adaptive Solver
func NewAdaptive(epsilon float64) (*Solver, error) {
	return newSolver(Adaptive, AdaptiveConfig{epsilon})
}

// Create returns an Adaptive Stepper as described by the AdaptiveConfig
func (a AdaptiveConfig) Create() Stepper {
	return adaptive{a}
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (a AdaptiveConfig) ValidType(t Type) bool {
	return t == Adaptive
}

// Validate returns an error if the configuration is invalid
func (a AdaptiveConfig) Validate() error {
	if a.Epsilon <= 0 {
		return fmt.Errorf("validate: adaptive ε must be positive, got %v",
			a.Epsilon)
	}
	return nil
}

type adaptive struct {
	config AdaptiveConfig
}

func (a adaptive) Step(params, grad []float64) error {
	if err := checkLengths(params, grad); err != nil {
		return err
	}

	norm := floats.Dot(grad, grad)
	if norm == 0 {
		return nil
	}
	floats.AddScaled(params, -math.Sqrt(a.config.Epsilon/norm), grad)
	return nil
}

func (a adaptive) Clone() Stepper {
	return a
}

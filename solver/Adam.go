package solver

import (
	"fmt"
	"math"
)

// AdamConfig describes a configuration of the Adam solver
type AdamConfig struct {
	StepSize float64
	Epsilon  float64 // Smoothing factor
	Beta1    float64
	Beta2    float64
	Clip     float64 // <= 0 if no clipping
}

// NewDefaultAdam returns a new Adam Solver with default hyperparameters
func NewDefaultAdam(stepSize float64) (*Solver, error) {
	return NewAdam(stepSize, 1e-8, 0.9, 0.999, -1)
}

// NewAdam returns a new Adam Solver
func NewAdam(stepSize, epsilon, beta1, beta2, clip float64) (*Solver,
	error) {
	adam := AdamConfig{
		StepSize: stepSize,
		Epsilon:  epsilon,
		Beta1:    beta1,
		Beta2:    beta2,
		Clip:     clip,
	}

	return newSolver(Adam, adam)
}

// Create returns a new Adam Stepper as described by the AdamConfig
func (a AdamConfig) Create() Stepper {
	return &adam{config: a}
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (a AdamConfig) ValidType(t Type) bool {
	return t == Adam
}

// Validate returns an error if the configuration is invalid
func (a AdamConfig) Validate() error {
	if a.StepSize <= 0 {
		return fmt.Errorf("validate: adam step size must be positive, "+
			"got %v", a.StepSize)
	}
	if a.Beta1 < 0 || a.Beta1 >= 1 || a.Beta2 < 0 || a.Beta2 >= 1 {
		return fmt.Errorf("validate: adam betas must be in [0, 1), got "+
			"(%v, %v)", a.Beta1, a.Beta2)
	}
	return nil
}

// adam implements the Adam update with bias-corrected moment
// estimates
type adam struct {
	config AdamConfig
	m, v   []float64
	t      int
}

func (a *adam) Step(params, grad []float64) error {
	if err := checkLengths(params, grad); err != nil {
		return err
	}
	if a.m == nil {
		a.m = make([]float64, len(params))
		a.v = make([]float64, len(params))
	} else if len(a.m) != len(params) {
		return fmt.Errorf("step: adam state has %v parameters, got %v",
			len(a.m), len(params))
	}

	grad = clip(grad, a.config.Clip)
	a.t++
	b1, b2 := a.config.Beta1, a.config.Beta2
	correction1 := 1 - math.Pow(b1, float64(a.t))
	correction2 := 1 - math.Pow(b2, float64(a.t))

	for i, g := range grad {
		a.m[i] = b1*a.m[i] + (1-b1)*g
		a.v[i] = b2*a.v[i] + (1-b2)*g*g

		mHat := a.m[i] / correction1
		vHat := a.v[i] / correction2
		params[i] -= a.config.StepSize * mHat / (math.Sqrt(vHat) +
			a.config.Epsilon)
	}
	return nil
}

func (a *adam) Clone() Stepper {
	clone := &adam{config: a.config, t: a.t}
	if a.m != nil {
		clone.m = append([]float64(nil), a.m...)
		clone.v = append([]float64(nil), a.v...)
	}
	return clone
}

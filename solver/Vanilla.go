package solver

import "fmt"

// VanillaConfig describes a configuration of the vanilla gradient
// descent solver.
type VanillaConfig struct {
	StepSize float64
	Clip     float64 // <= 0 if no clipping
}

// NewVanilla returns a new Vanilla Solver
func NewVanilla(stepSize float64, clip float64) (*Solver, error) {
	vanilla := VanillaConfig{
		StepSize: stepSize,
		Clip:     clip,
	}

	return newSolver(Vanilla, vanilla)
}

// Create returns a Vanilla Stepper as described by the VanillaConfig
func (v VanillaConfig) Create() Stepper {
	return vanilla{v}
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (v VanillaConfig) ValidType(t Type) bool {
	return t == Vanilla
}

// Validate returns an error if the configuration is invalid
func (v VanillaConfig) Validate() error {
	if v.StepSize <= 0 {
		return fmt.Errorf("validate: step size must be positive, got %v",
			v.StepSize)
	}
	return nil
}

// vanilla is stateless, so it may be copied freely
type vanilla struct {
	config VanillaConfig
}

func (v vanilla) Step(params, grad []float64) error {
	if err := checkLengths(params, grad); err != nil {
		return err
	}
	grad = clip(grad, v.config.Clip)
	for i, g := range grad {
		params[i] -= v.config.StepSize * g
	}
	return nil
}

func (v vanilla) Clone() Stepper {
	return v
}

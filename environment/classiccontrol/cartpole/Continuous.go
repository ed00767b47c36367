package cartpole

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/autolearn/environment"
	ts "github.com/samuelfneumann/autolearn/timestep"
	"github.com/samuelfneumann/autolearn/utils/floatutils"
)

const (
	MinContinuousAction float64 = -1.0
	MaxContinuousAction float64 = 1.0
)

// Continuous implements Cartpole with continuous actions. Actions are
// 1-dimensional and are the signed proportion of the maximum force to
// apply to the cart. Actions outside [-1, 1] are clipped.
//
// Continuous implements the environment.Cloner interface
type Continuous struct {
	*base
}

// NewContinuous constructs a new Cartpole environment with continuous
// actions
func NewContinuous(t *Balance, discount float64) (*Continuous, error) {
	base, err := newBase(t, discount)
	if err != nil {
		return nil, fmt.Errorf("newContinuous: %w", err)
	}
	return &Continuous{base}, nil
}

// Clone returns a copy of the environment whose starting states are
// drawn using a new seed
func (c *Continuous) Clone(seed uint64) (env.Environment, error) {
	clone, err := NewContinuous(c.task.Clone(seed), c.discount)
	if err != nil {
		return nil, err
	}
	return clone, nil
}

// ActionSpec returns the action specification of the environment
func (c *Continuous) ActionSpec() env.Spec {
	return env.NewBoundedSpec(env.Action, []float64{MinContinuousAction},
		[]float64{MaxContinuousAction}, env.Continuous)
}

// Step takes one environmental step given action a and returns the next
// timestep and a bool indicating whether or not the episode has ended.
func (c *Continuous) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if a.Len() != ActionDims {
		return ts.TimeStep{}, false, fmt.Errorf("step: actions should be "+
			"%v-dimensional", ActionDims)
	}

	direction := floatutils.Clip(a.AtVec(0), MinContinuousAction,
		MaxContinuousAction)

	nextState, err := c.nextState(direction)
	if err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}
	return c.update(a, nextState)
}

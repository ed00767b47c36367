package cartpole

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/autolearn/environment"
	ts "github.com/samuelfneumann/autolearn/timestep"
)

const (
	// Discrete actions
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 1
)

// Discrete implements Cartpole with discrete actions. Actions consist
// of the direction to apply horizontal force to the cart:
//
//	Action		Meaning
//	  0			Apply force left
//	  1			Apply force right
//
// Illegal actions result in an error.
//
// Discrete implements the environment.Cloner interface
type Discrete struct {
	*base
}

// NewDiscrete constructs a new Cartpole environment with discrete
// actions
func NewDiscrete(t *Balance, discount float64) (*Discrete, error) {
	base, err := newBase(t, discount)
	if err != nil {
		return nil, fmt.Errorf("newDiscrete: %w", err)
	}
	return &Discrete{base}, nil
}

// Clone returns a copy of the environment whose starting states are
// drawn using a new seed
func (c *Discrete) Clone(seed uint64) (env.Environment, error) {
	clone, err := NewDiscrete(c.task.Clone(seed), c.discount)
	if err != nil {
		return nil, err
	}
	return clone, nil
}

// ActionSpec returns the action specification of the environment
func (c *Discrete) ActionSpec() env.Spec {
	return env.NewBoundedSpec(env.Action,
		[]float64{float64(MinDiscreteAction)},
		[]float64{float64(MaxDiscreteAction)}, env.Discrete)
}

// Step takes one environmental step given action a and returns the next
// timestep and a bool indicating whether or not the episode has ended.
func (c *Discrete) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if a.Len() != ActionDims {
		return ts.TimeStep{}, false, fmt.Errorf("step: actions should be "+
			"%v-dimensional", ActionDims)
	}

	intAction := int(a.AtVec(0))
	if intAction < MinDiscreteAction || intAction > MaxDiscreteAction {
		return ts.TimeStep{}, false, fmt.Errorf("step: illegal action %v "+
			"∉ {0, 1}", a.AtVec(0))
	}

	// Convert action (0, 1) to a direction (-1, 1)
	direction := float64(2*intAction - 1)

	nextState, err := c.nextState(direction)
	if err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}
	return c.update(a, nextState)
}

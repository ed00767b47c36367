package acrobot

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/autolearn/environment"
	ts "github.com/samuelfneumann/autolearn/timestep"
)

const (
	MinDiscreteAction int = 0 // Applies -MaxTorque
	MaxDiscreteAction int = 2 // Applies MaxTorque
)

// Discrete implements Acrobot with discrete actions in {0, 1, 2},
// applying torques of -1, 0, and 1 respectively.
//
// Discrete implements the environment.Cloner interface
type Discrete struct {
	*base
}

// NewDiscrete returns a new Acrobot environment with discrete actions
func NewDiscrete(t *SwingUp, discount float64) (*Discrete, error) {
	base, err := newBase(t, discount)
	if err != nil {
		return nil, fmt.Errorf("newDiscrete: %w", err)
	}
	return &Discrete{base}, nil
}

// Clone returns a copy of the environment whose starting states are
// drawn using a new seed
func (d *Discrete) Clone(seed uint64) (env.Environment, error) {
	clone, err := NewDiscrete(d.task.Clone(seed), d.discount)
	if err != nil {
		return nil, err
	}
	return clone, nil
}

// ActionSpec returns the action specification of the environment
func (d *Discrete) ActionSpec() env.Spec {
	return env.NewBoundedSpec(env.Action,
		[]float64{float64(MinDiscreteAction)},
		[]float64{float64(MaxDiscreteAction)}, env.Discrete)
}

// Step takes one environmental step given action a
func (d *Discrete) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if a.Len() != ActionDims {
		return ts.TimeStep{}, false, fmt.Errorf("step: actions should be "+
			"%v-dimensional", ActionDims)
	}

	action := int(a.AtVec(0))
	if action < MinDiscreteAction || action > MaxDiscreteAction {
		return ts.TimeStep{}, false, fmt.Errorf("step: illegal action %v "+
			"∉ {0, 1, 2}", a.AtVec(0))
	}

	nextState, err := d.nextState(float64(action - 1))
	if err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}
	return d.update(a, nextState)
}

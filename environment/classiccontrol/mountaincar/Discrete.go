package mountaincar

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/autolearn/environment"
	ts "github.com/samuelfneumann/autolearn/timestep"
)

const (
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 2
)

// Discrete implements Mountain Car with discrete actions:
//
//	Action	Meaning
//	  0		Accelerate left
//	  1		Do nothing
//	  2		Accelerate right
//
// Discrete implements the environment.Cloner interface
type Discrete struct {
	*base
}

// NewDiscrete returns a new Mountain Car environment with discrete
// actions
func NewDiscrete(t *Goal, discount float64) (*Discrete, error) {
	base, err := newBase(t, discount)
	if err != nil {
		return nil, fmt.Errorf("newDiscrete: %w", err)
	}
	return &Discrete{base}, nil
}

// Clone returns a copy of the environment whose starting states are
// drawn using a new seed
func (m *Discrete) Clone(seed uint64) (env.Environment, error) {
	clone, err := NewDiscrete(m.task.Clone(seed), m.discount)
	if err != nil {
		return nil, err
	}
	return clone, nil
}

// ActionSpec returns the action specification of the environment
func (m *Discrete) ActionSpec() env.Spec {
	return env.NewBoundedSpec(env.Action,
		[]float64{float64(MinDiscreteAction)},
		[]float64{float64(MaxDiscreteAction)}, env.Discrete)
}

// Step takes one environmental step given action a
func (m *Discrete) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if a.Len() != ActionDims {
		return ts.TimeStep{}, false, fmt.Errorf("step: actions should be "+
			"%v-dimensional", ActionDims)
	}

	action := int(a.AtVec(0))
	if action < MinDiscreteAction || action > MaxDiscreteAction {
		return ts.TimeStep{}, false, fmt.Errorf("step: illegal action %v "+
			"∉ {0, 1, 2}", a.AtVec(0))
	}

	nextState, err := m.nextState(float64(action - 1))
	if err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}
	return m.update(a, nextState)
}

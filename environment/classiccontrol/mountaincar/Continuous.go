package mountaincar

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

// Continuous implements Mountain Car with continuous actions. Actions
// are the signed proportion of the engine power to apply, and are
// clipped to [-1, 1].
//
// Continuous implements the environment.Cloner interface
type Continuous struct {
	*base
}

// NewContinuous returns a new Mountain Car environment with continuous
// actions
func NewContinuous(t *Goal, discount float64) (*Continuous, error) {
	base, err := newBase(t, discount)
	if err != nil {
		return nil, fmt.Errorf("newContinuous: %w", err)
	}
	return &Continuous{base}, nil
}

// Clone returns a copy of the environment whose starting states are
// drawn using a new seed
func (m *Continuous) Clone(seed uint64) (env.Environment, error) {
	clone, err := NewContinuous(m.task.Clone(seed), m.discount)
	if err != nil {
		return nil, err
	}
	return clone, nil
}

// ActionSpec returns the action specification of the environment
func (m *Continuous) ActionSpec() env.Spec {
	return env.NewBoundedSpec(env.Action, []float64{MinContinuousAction},
		[]float64{MaxContinuousAction}, env.Continuous)
}

// Step takes one environmental step given action a
func (m *Continuous) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if a.Len() != ActionDims {
		return ts.TimeStep{}, false, fmt.Errorf("step: actions should be "+
			"%v-dimensional", ActionDims)
	}

	force := floatutils.Clip(a.AtVec(0), MinContinuousAction,
		MaxContinuousAction)
	nextState, err := m.nextState(force)
	if err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}
	return m.update(a, nextState)
}

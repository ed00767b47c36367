package acrobot

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/autolearn/environment"
	ts "github.com/samuelfneumann/autolearn/timestep"
)

// Continuous implements Acrobot with continuous actions. Actions are
// the torque applied to the actuated joint and are clipped to
// [-MaxTorque, MaxTorque].
//
// Continuous implements the environment.Cloner interface
type Continuous struct {
	*base
}

// NewContinuous returns a new Acrobot environment with continuous
// actions
func NewContinuous(t *SwingUp, discount float64) (*Continuous, error) {
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
	return env.NewBoundedSpec(env.Action, []float64{-MaxTorque},
		[]float64{MaxTorque}, env.Continuous)
}

// Step takes one environmental step given action a
func (c *Continuous) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if a.Len() != ActionDims {
		return ts.TimeStep{}, false, fmt.Errorf("step: actions should be "+
			"%v-dimensional", ActionDims)
	}

	nextState, err := c.nextState(a.AtVec(0))
	if err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}
	return c.update(a, nextState)
}

package pendulum

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/autolearn/environment"
	ts "github.com/samuelfneumann/autolearn/timestep"
)

// Continuous implements Pendulum with continuous actions. Actions are
// 1-dimensional and determine the torque applied to the pendulum at its
// fixed base. Actions outside of [-2, 2] are clipped.
//
// Continuous implements the environment.Cloner interface
type Continuous struct {
	*base
}

// NewContinuous creates and returns a new Continuous environment
func NewContinuous(t *SwingUp, discount float64) (*Continuous, error) {
	baseEnv, err := newBase(t, discount)
	if err != nil {
		return nil, fmt.Errorf("newContinuous: %w", err)
	}
	return &Continuous{baseEnv}, nil
}

// Clone returns a copy of the environment whose starting states are
// drawn using a new seed
func (p *Continuous) Clone(seed uint64) (env.Environment, error) {
	clone, err := NewContinuous(p.task.Clone(seed), p.discount)
	if err != nil {
		return nil, err
	}
	return clone, nil
}

// Step takes one environmental step given action a and returns the next
// timestep and whether or not the episode has ended
func (p *Continuous) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	if action.Len() != ActionDims {
		return ts.TimeStep{}, false, fmt.Errorf("step: actions should be "+
			"%v-dimensional", ActionDims)
	}

	nextState, err := p.nextState(action.AtVec(0))
	if err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}
	return p.update(action, nextState)
}

// ActionSpec returns the action specification of the environment
func (p *Continuous) ActionSpec() env.Spec {
	return env.NewBoundedSpec(env.Action, []float64{p.torqueBounds.Min},
		[]float64{p.torqueBounds.Max}, env.Continuous)
}

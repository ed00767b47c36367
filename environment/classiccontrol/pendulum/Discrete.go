package pendulum

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/autolearn/environment"
	ts "github.com/samuelfneumann/autolearn/timestep"
)

// discreteTorques maps each discrete action to the torque it applies
var discreteTorques = []float64{
	MinContinuousAction,
	MinContinuousAction / 2.0,
	0.0,
	MaxContinuousAction / 2.0,
	MaxContinuousAction,
}

// Discrete implements Pendulum with discrete actions. Actions are in
// {0, 1, 2, 3, 4} and apply torques of -2, -1, 0, 1, and 2 to the
// fixed base of the pendulum.
//
// Discrete implements the environment.Cloner interface
type Discrete struct {
	*base
}

// NewDiscrete creates and returns a new Discrete environment
func NewDiscrete(t *SwingUp, discount float64) (*Discrete, error) {
	baseEnv, err := newBase(t, discount)
	if err != nil {
		return nil, fmt.Errorf("newDiscrete: %w", err)
	}
	return &Discrete{baseEnv}, nil
}

// Clone returns a copy of the environment whose starting states are
// drawn using a new seed
func (p *Discrete) Clone(seed uint64) (env.Environment, error) {
	clone, err := NewDiscrete(p.task.Clone(seed), p.discount)
	if err != nil {
		return nil, err
	}
	return clone, nil
}

// Step takes one environmental step given action a and returns the next
// timestep and whether or not the episode has ended
func (p *Discrete) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	if action.Len() != ActionDims {
		return ts.TimeStep{}, false, fmt.Errorf("step: actions should be "+
			"%v-dimensional", ActionDims)
	}

	a := int(action.AtVec(0))
	if a < 0 || a >= len(discreteTorques) {
		return ts.TimeStep{}, false, fmt.Errorf("step: illegal action %v",
			action.AtVec(0))
	}

	nextState, err := p.nextState(discreteTorques[a])
	if err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}
	return p.update(action, nextState)
}

// ActionSpec returns the action specification of the environment
func (p *Discrete) ActionSpec() env.Spec {
	return env.NewBoundedSpec(env.Action, []float64{0},
		[]float64{float64(len(discreteTorques) - 1)}, env.Discrete)
}

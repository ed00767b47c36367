package pendulum

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/autolearn/environment"
	ts "github.com/samuelfneumann/autolearn/timestep"
)

// SwingUp implements a task where the agent must swing the pendulum up
// and hold it in a vertical position. Rewards are the cosine of the
// pendulum angle measured from the positive y-axis, so that the agent
// receives a reward of 1.0 on each timestep the pendulum points
// straight up. Episodes end only at the step limit.
type SwingUp struct {
	*env.UniformStarter
	*env.StepLimit
}

// NewSwingUp creates and returns a new SwingUp task whose starting
// angles are uniform in [-π, π] and starting velocities uniform in
// [-1, 1]
func NewSwingUp(seed uint64, maxSteps int) *SwingUp {
	bounds := []r1.Interval{
		{Min: -AngleBound, Max: AngleBound},
		{Min: -1, Max: 1},
	}
	return &SwingUp{env.NewUniformStarter(bounds, seed),
		env.NewStepLimit(maxSteps)}
}

// Clone returns a copy of the task which samples starting states with
// a new seed
func (s *SwingUp) Clone(seed uint64) *SwingUp {
	return &SwingUp{s.Reseed(seed), env.NewStepLimit(s.Limit())}
}

// GetReward gets the reward for transitioning to nextState
func (s *SwingUp) GetReward(_, _, nextState mat.Vector) float64 {
	return math.Cos(nextState.AtVec(0))
}

// End ends the episode at the step limit
func (s *SwingUp) End(t *ts.TimeStep) bool {
	return s.StepLimit.End(t)
}

// Horizon returns the maximum number of steps in an episode
func (s *SwingUp) Horizon() int {
	return s.Limit()
}

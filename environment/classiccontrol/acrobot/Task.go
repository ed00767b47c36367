package acrobot

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/autolearn/environment"
	ts "github.com/samuelfneumann/autolearn/timestep"
)

const (
	// GoalHeight is the height above the fixed joint that the tip of
	// the second link must reach
	GoalHeight float64 = LinkLength1

	// StartBound bounds (+/-) every feature of the starting state
	StartBound float64 = 0.1
)

// SwingUp implements the task of swinging the tip of the second link
// above a goal height. Rewards are -1 on every timestep except the one
// reaching the goal, which is rewarded 0. Episodes end at the goal or
// after a step limit.
type SwingUp struct {
	*env.UniformStarter
	stepEnder  *env.StepLimit
	goalHeight float64
}

// NewSwingUp returns a new SwingUp task whose starting states are
// sampled uniformly from [-0.1, 0.1] in each feature
func NewSwingUp(seed uint64, episodeSteps int, goalHeight float64) *SwingUp {
	bounds := make([]r1.Interval, ObservationDims)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -StartBound, Max: StartBound}
	}
	return &SwingUp{env.NewUniformStarter(bounds, seed),
		env.NewStepLimit(episodeSteps), goalHeight}
}

// Clone returns a copy of the task which samples starting states with
// a new seed
func (s *SwingUp) Clone(seed uint64) *SwingUp {
	return &SwingUp{s.Reseed(seed), env.NewStepLimit(s.stepEnder.Limit()),
		s.goalHeight}
}

// AtGoal returns whether the tip of the second link is above the goal
// height in state
func (s *SwingUp) AtGoal(state mat.Vector) bool {
	theta1, theta2 := state.AtVec(0), state.AtVec(1)
	return -math.Cos(theta1)-math.Cos(theta1+theta2) > s.goalHeight
}

// GetReward returns 0 if nextState is a goal state and -1 otherwise
func (s *SwingUp) GetReward(_, _, nextState mat.Vector) float64 {
	if s.AtGoal(nextState) {
		return 0.0
	}
	return -1.0
}

// End ends the episode at the goal or the step limit
func (s *SwingUp) End(t *ts.TimeStep) bool {
	if s.AtGoal(t.Observation) {
		t.StepType = ts.Last
		t.SetEnd(ts.TerminalStateReached)
		return true
	}
	return s.stepEnder.End(t)
}

// Horizon returns the maximum number of steps in an episode
func (s *SwingUp) Horizon() int {
	return s.stepEnder.Limit()
}

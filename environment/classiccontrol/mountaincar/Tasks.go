package mountaincar

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/autolearn/environment"
	ts "github.com/samuelfneumann/autolearn/timestep"
)

const (
	GoalPosition float64 = 0.45

	// Starting positions are drawn from [StartMin, StartMax] with zero
	// velocity
	StartMin float64 = -0.6
	StartMax float64 = -0.4
)

// Goal implements the task of driving the car up the right hill to a
// goal position. Rewards are -1 on each timestep and 0 on the step
// which reaches the goal. Episodes end at the goal or after a step
// limit.
type Goal struct {
	*env.UniformStarter
	goalEnder *env.IntervalLimit
	stepEnder *env.StepLimit
	goalX     float64
}

// NewGoal returns a new Goal task with goal position goalX
func NewGoal(seed uint64, episodeSteps int, goalX float64) *Goal {
	starter := env.NewUniformStarter([]r1.Interval{
		{Min: StartMin, Max: StartMax},
		{Min: 0, Max: 0},
	}, seed)
	return newGoal(starter, episodeSteps, goalX)
}

func newGoal(s *env.UniformStarter, episodeSteps int, goalX float64) *Goal {
	goalEnder := env.NewIntervalLimit(
		[]r1.Interval{{Min: math.Inf(-1), Max: goalX}}, []int{0},
		ts.TerminalStateReached)

	return &Goal{s, goalEnder, env.NewStepLimit(episodeSteps), goalX}
}

// Clone returns a copy of the task which samples starting states with
// a new seed
func (g *Goal) Clone(seed uint64) *Goal {
	return newGoal(g.Reseed(seed), g.stepEnder.Limit(), g.goalX)
}

// GetReward returns 0 if nextState is at the goal and -1 otherwise
func (g *Goal) GetReward(_, _, nextState mat.Vector) float64 {
	if nextState.AtVec(0) >= g.goalX {
		return 0.0
	}
	return -1.0
}

// End ends the episode at the goal or the step limit
func (g *Goal) End(t *ts.TimeStep) bool {
	if end := g.goalEnder.End(t); end {
		return true
	}
	return g.stepEnder.End(t)
}

// Horizon returns the maximum number of steps in an episode
func (g *Goal) Horizon() int {
	return g.stepEnder.Limit()
}

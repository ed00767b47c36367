package cartpole

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/autolearn/environment"
	ts "github.com/samuelfneumann/autolearn/timestep"
)

const (
	FailAngle    float64 = 12 * 2 * math.Pi / 360
	FailPosition float64 = 2.4

	// StartBound bounds (+/-) every feature of the starting state
	StartBound float64 = 0.05
)

// Balance implements the classic control Cartpole Balance task. In this
// Task, the goal of the agent is to balance the pole on the cart in
// an upright position for as long as possible.
//
// The rewards are +1 for every timestep and -1 when the pole has fallen
// below the fail angle θ.
//
// Episodes end after a step limit, after the pole has fallen below the
// fail angle, or after the cart leaves the track.
type Balance struct {
	*env.UniformStarter
	stepLimiter  *env.StepLimit
	stateLimiter *env.IntervalLimit
	failAngle    float64
}

// NewBalance creates and returns a new Balance task whose starting
// states are sampled uniformly from [-0.05, 0.05] in each feature
func NewBalance(seed uint64, episodeSteps int, failAngle float64) *Balance {
	bounds := make([]r1.Interval, ObservationDims)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -StartBound, Max: StartBound}
	}
	starter := env.NewUniformStarter(bounds, seed)

	return newBalance(starter, episodeSteps, failAngle)
}

func newBalance(s *env.UniformStarter, episodeSteps int,
	failAngle float64) *Balance {
	stepLimiter := env.NewStepLimit(episodeSteps)

	legal := []r1.Interval{
		{Min: -FailPosition, Max: FailPosition},
		{Min: -failAngle, Max: failAngle},
	}
	stateLimiter := env.NewIntervalLimit(legal, []int{0, 2},
		ts.TerminalStateReached)

	return &Balance{s, stepLimiter, stateLimiter, failAngle}
}

// Clone returns a copy of the task which samples starting states with
// a new seed
func (b *Balance) Clone(seed uint64) *Balance {
	return newBalance(b.Reseed(seed), b.stepLimiter.Limit(), b.failAngle)
}

// End checks if a TimeStep is the last in an episode. If so, it adjusts
// the TimeStep's StepType to timestep.Last and returns true. Otherwise,
// the function does not adjust the TimeStep and returns false.
func (b *Balance) End(t *ts.TimeStep) bool {
	if end := b.stateLimiter.End(t); end {
		return true
	}
	return b.stepLimiter.End(t)
}

// GetReward returns the reward for an action taken in some state,
// resulting in a transition to the next state nextState.
func (b *Balance) GetReward(_, _, nextState mat.Vector) float64 {
	angle := math.Abs(nextState.AtVec(2))

	// Angle of 0 is pointing straight up, so we want angles to be
	// less than the failAngle
	if angle < b.failAngle {
		return 1.0
	}
	return -1.0
}

// Horizon returns the maximum number of steps in an episode
func (b *Balance) Horizon() int {
	return b.stepLimiter.Limit()
}

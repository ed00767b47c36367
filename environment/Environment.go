// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/autolearn/timestep"
)

// Starter implements a distribution of starting states and samples starting
// states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes should end
type Ender interface {
	// End checks whether t ends the episode. If it does, End adjusts
	// the StepType and EndType of t and returns true.
	End(t *ts.TimeStep) bool
}

// Task implements the reward scheme and episode termination for taking
// actions in some environment
type Task interface {
	Starter
	Ender

	// GetReward returns the reward for taking action a in state,
	// leading to nextState
	GetReward(state, a, nextState mat.Vector) float64

	// Horizon returns the maximum number of steps in an episode
	Horizon() int
}

// Environment implements a simulated environment, which includes a Task
// to complete
type Environment interface {
	// Reset resets the environment between episodes and returns the
	// first TimeStep of the new episode
	Reset() (ts.TimeStep, error)

	// Step takes one step in the environment with the given action,
	// returning the next TimeStep and whether the episode has ended
	Step(action *mat.VecDense) (ts.TimeStep, bool, error)

	ObservationSpec() Spec
	ActionSpec() Spec
	DiscountSpec() Spec

	// Horizon returns the maximum number of steps in an episode
	Horizon() int
}

// Cloner is an Environment which can produce independent copies of
// itself. Each copy draws its starting states from a new seed, so that
// copies can be stepped concurrently.
type Cloner interface {
	Environment
	Clone(seed uint64) (Environment, error)
}

// Namer is an Environment which reports its name
type Namer interface {
	Name() string
}

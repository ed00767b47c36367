package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transition is a single (s, a, r, s') tuple collected from an
// environment. A dataset handed to a learner is a slice of Transitions
// in the order they were experienced.
type Transition struct {
	State     *mat.VecDense
	Action    *mat.VecDense
	Reward    float64
	Discount  float64
	NextState *mat.VecDense

	// Absorbing is true if NextState is a terminal state
	Absorbing bool

	// Last is true if the transition ended its episode, either by
	// reaching a terminal state or by a timeout
	Last bool
}

// NewTransition builds the Transition that led from step to next
// when taking action a
func NewTransition(step TimeStep, a *mat.VecDense, next TimeStep) Transition {
	return Transition{
		State:     step.Observation,
		Action:    a,
		Reward:    next.Reward,
		Discount:  next.Discount,
		NextState: next.Observation,
		Absorbing: next.Absorbing(),
		Last:      next.Last(),
	}
}

func (t Transition) String() string {
	return fmt.Sprintf("Transition | Reward: %.2f  |  Discount: %.2f  |  "+
		"Absorbing: %v  |  Last: %v", t.Reward, t.Discount, t.Absorbing,
		t.Last)
}

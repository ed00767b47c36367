// Package mountaincar implements the Mountain Car classic control
// environment
package mountaincar

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/autolearn/environment"
	ts "github.com/samuelfneumann/autolearn/timestep"
	"github.com/samuelfneumann/autolearn/utils/floatutils"
)

const (
	MinPosition float64 = -1.2
	MaxPosition float64 = 0.6
	MaxSpeed    float64 = 0.07
	Power       float64 = 0.0015 // Engine power
	Gravity     float64 = 0.0025

	ObservationDims int = 2
	ActionDims      int = 1
)

var errNotReset = errors.New("step called before reset")

// base implements the physics shared by the discrete and continuous
// action versions of Mountain Car. The agent controls an underpowered
// car in a valley between two hills and must rock back and forth to
// build up the momentum needed to drive up the right hill.
//
// State features are the car's x position and velocity. A negative
// velocity means the car travels left. Upon reaching the left wall
// the car stops.
type base struct {
	task     *Goal
	lastStep ts.TimeStep
	discount float64

	positionBounds r1.Interval
	speedBounds    r1.Interval
}

func newBase(t *Goal, discount float64) (*base, error) {
	if t == nil {
		return nil, errors.New("newBase: task cannot be nil")
	}
	if discount < 0 || discount > 1 {
		return nil, fmt.Errorf("newBase: discount %v ∉ [0, 1]", discount)
	}

	return &base{
		task:           t,
		discount:       discount,
		positionBounds: r1.Interval{Min: MinPosition, Max: MaxPosition},
		speedBounds:    r1.Interval{Min: -MaxSpeed, Max: MaxSpeed},
	}, nil
}

// Name returns the name of the environment
func (m *base) Name() string {
	return "ClassicControl_MountainCar"
}

// Reset resets the environment and returns a starting state drawn from
// the task
func (m *base) Reset() (ts.TimeStep, error) {
	state := m.task.Start()
	if err := m.validateState(state); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	m.lastStep = ts.New(ts.First, 0, m.discount, state, 0)
	return m.lastStep, nil
}

// Horizon returns the maximum number of steps in an episode
func (m *base) Horizon() int {
	return m.task.Horizon()
}

// ObservationSpec returns the observation specification of the
// environment
func (m *base) ObservationSpec() env.Spec {
	return env.NewBoundedSpec(env.Observation,
		[]float64{m.positionBounds.Min, m.speedBounds.Min},
		[]float64{m.positionBounds.Max, m.speedBounds.Max}, env.Continuous)
}

// DiscountSpec returns the discounting specification of the environment
func (m *base) DiscountSpec() env.Spec {
	return env.NewBoundedSpec(env.Discount, []float64{m.discount},
		[]float64{m.discount}, env.Continuous)
}

// nextState calculates the next state of the environment when force in
// [-1, 1] is applied to the car
func (m *base) nextState(force float64) (*mat.VecDense, error) {
	state := m.lastStep.Observation
	if state == nil {
		return nil, errNotReset
	}
	position, velocity := state.AtVec(0), state.AtVec(1)

	velocity += force*Power - Gravity*math.Cos(3*position)
	velocity = floatutils.ClipInterval(velocity, m.speedBounds)

	position += velocity
	position = floatutils.ClipInterval(position, m.positionBounds)
	if position <= m.positionBounds.Min && velocity < 0 {
		velocity = 0
	}

	return mat.NewVecDense(ObservationDims, []float64{position, velocity}),
		nil
}

// update advances the environment to nextState after taking action a
func (m *base) update(a, nextState *mat.VecDense) (ts.TimeStep, bool,
	error) {
	reward := m.task.GetReward(m.lastStep.Observation, a, nextState)
	nextStep := ts.New(ts.Mid, reward, m.discount, nextState,
		m.lastStep.Number+1)
	m.task.End(&nextStep)

	m.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

func (m *base) validateState(obs mat.Vector) error {
	if obs.Len() != ObservationDims {
		return fmt.Errorf("state must have %v features, got %v",
			ObservationDims, obs.Len())
	}
	if p := obs.AtVec(0); p < m.positionBounds.Min || p > m.positionBounds.Max {
		return fmt.Errorf("position %v ∉ %v", p, m.positionBounds)
	}
	if s := obs.AtVec(1); s < m.speedBounds.Min || s > m.speedBounds.Max {
		return fmt.Errorf("speed %v ∉ %v", s, m.speedBounds)
	}
	return nil
}

func (m *base) String() string {
	state := m.lastStep.Observation
	if state == nil {
		return "Mountain Car  |  not started"
	}
	return fmt.Sprintf("Mountain Car  |  Position: %v  |  Speed: %v",
		state.AtVec(0), state.AtVec(1))
}

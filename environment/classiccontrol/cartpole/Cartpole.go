// Package cartpole implements the Cartpole classic control environment
package cartpole

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
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	HalfPoleLength float64 = 0.5  // half of pole length
	ForceMag       float64 = 10.0 // Magnification of force applied
	Dt             float64 = 0.02 // seconds between state updates

	// Bounds (+/-) on state variables
	PositionBounds        float64 = 4.8
	SpeedBounds           float64 = math.MaxFloat64
	AngleBounds           float64 = math.Pi
	AngularVelocityBounds float64 = math.MaxFloat64

	ObservationDims int = 4
	ActionDims      int = 1
)

var errNotReset = errors.New("step called before reset")

// base implements the physics shared by the discrete and continuous
// action versions of Cartpole. A pole is attached to a cart, which can
// move horizontally. Gravity pulls the pole downwards so that balancing
// it in an upright position is difficult.
//
// The state features are continuous and consist of the cart's x
// position and speed, as well as the pole's angle from the positive
// y-axis and the pole's angular velocity. The position is clipped to
// the legal range and the angle is normalized to stay in (-π, π].
type base struct {
	task     *Balance
	lastStep ts.TimeStep
	discount float64

	positionBounds        r1.Interval
	speedBounds           r1.Interval
	angleBounds           r1.Interval
	angularVelocityBounds r1.Interval
}

// newBase constructs the shared Cartpole physics
func newBase(t *Balance, discount float64) (*base, error) {
	if t == nil {
		return nil, errors.New("newBase: task cannot be nil")
	}
	if discount < 0 || discount > 1 {
		return nil, fmt.Errorf("newBase: discount %v ∉ [0, 1]", discount)
	}

	return &base{
		task:           t,
		discount:       discount,
		positionBounds: r1.Interval{Min: -PositionBounds, Max: PositionBounds},
		speedBounds:    r1.Interval{Min: -SpeedBounds, Max: SpeedBounds},
		angleBounds:    r1.Interval{Min: -AngleBounds, Max: AngleBounds},
		angularVelocityBounds: r1.Interval{Min: -AngularVelocityBounds,
			Max: AngularVelocityBounds},
	}, nil
}

// Name returns the name of the environment
func (c *base) Name() string {
	return "ClassicControl_Cartpole"
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (c *base) Reset() (ts.TimeStep, error) {
	state := c.task.Start()
	if err := c.validateState(state); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	startStep := ts.New(ts.First, 0, c.discount, state, 0)
	c.lastStep = startStep

	return startStep, nil
}

// Horizon returns the maximum number of steps in an episode
func (c *base) Horizon() int {
	return c.task.Horizon()
}

// ObservationSpec returns the observation specification of the
// environment
func (c *base) ObservationSpec() env.Spec {
	lower := []float64{c.positionBounds.Min, c.speedBounds.Min,
		c.angleBounds.Min, c.angularVelocityBounds.Min}
	upper := []float64{c.positionBounds.Max, c.speedBounds.Max,
		c.angleBounds.Max, c.angularVelocityBounds.Max}

	return env.NewBoundedSpec(env.Observation, lower, upper, env.Continuous)
}

// DiscountSpec returns the discounting specification of the environment
func (c *base) DiscountSpec() env.Spec {
	return env.NewBoundedSpec(env.Discount, []float64{c.discount},
		[]float64{c.discount}, env.Continuous)
}

// nextState calculates the next state of the environment when force is
// applied in the given direction, which should be in [-1, 1]
func (c *base) nextState(direction float64) (*mat.VecDense, error) {
	state := c.lastStep.Observation
	if state == nil {
		return nil, errNotReset
	}
	x, xDot := state.AtVec(0), state.AtVec(1)
	th, thDot := state.AtVec(2), state.AtVec(3)

	force := direction * ForceMag

	// Calculate physical variables to determine next state
	cosTheta := math.Cos(th)
	sinTheta := math.Sin(th)

	totalMass := PoleMass + CartMass
	poleMassLength := PoleMass * HalfPoleLength

	temp := (force + poleMassLength*thDot*thDot*sinTheta) / totalMass
	thAcc := (Gravity*sinTheta - cosTheta*temp) / (HalfPoleLength *
		(4.0/3.0 - PoleMass*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLength*thAcc*cosTheta/totalMass

	// Update state variables using Euler kinematic integration
	x += Dt * xDot
	xDot += Dt * xAcc
	if x < c.positionBounds.Min || x > c.positionBounds.Max {
		xDot = 0
	}
	x = floatutils.ClipInterval(x, c.positionBounds)

	th += Dt * thDot
	th = floatutils.NormalizeAngle(th)
	thDot += Dt * thAcc

	return mat.NewVecDense(ObservationDims, []float64{x, xDot, th, thDot}),
		nil
}

// update advances the environment to nextState after taking action a
func (c *base) update(a, nextState *mat.VecDense) (ts.TimeStep, bool,
	error) {
	reward := c.task.GetReward(c.lastStep.Observation, a, nextState)
	nextStep := ts.New(ts.Mid, reward, c.discount, nextState,
		c.lastStep.Number+1)

	// Check if the step ends the episode
	c.task.End(&nextStep)

	c.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// validateState ensures that a state observation is valid and between
// the physical bounds of the Cartpole environment
func (c *base) validateState(obs mat.Vector) error {
	if obs.Len() != ObservationDims {
		return fmt.Errorf("state must have %v features, got %v",
			ObservationDims, obs.Len())
	}
	bounds := []r1.Interval{c.positionBounds, c.speedBounds, c.angleBounds,
		c.angularVelocityBounds}
	names := []string{"position", "speed", "angle", "angular velocity"}

	for i := range bounds {
		if obs.AtVec(i) < bounds[i].Min || obs.AtVec(i) > bounds[i].Max {
			return fmt.Errorf("%v is not within bounds %v", names[i],
				bounds[i])
		}
	}
	return nil
}

func (c *base) String() string {
	msg := "Cartpole  |  Position: %v  | Speed: %v  |  Angle: %v" +
		"  |  Angular Velocity: %v"

	state := c.lastStep.Observation
	if state == nil {
		return "Cartpole  |  not started"
	}
	position, speed := state.AtVec(0), state.AtVec(1)
	angle, velocity := state.AtVec(2), state.AtVec(3)

	return fmt.Sprintf(msg, position, speed, angle, velocity)
}

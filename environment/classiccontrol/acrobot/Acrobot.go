// Package acrobot implements the Acrobot classic control environment
package acrobot

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/autolearn/environment"
	ts "github.com/samuelfneumann/autolearn/timestep"
	"github.com/samuelfneumann/autolearn/utils/floatutils"
)

const (
	dt float64 = 0.2

	// Physical constants
	LinkLength1 float64 = 1.0 // Metres, length of link 1
	LinkLength2 float64 = 1.0 // Metres, length of link 2
	LinkMass1   float64 = 1.0 // Kg, mass of link 1
	LinkMass2   float64 = 1.0 // Kg, mass of link 2
	LinkCOMPos1 float64 = 0.5 // Metres, centre of mass of link 1
	LinkCOMPos2 float64 = 0.5 // Metres, centre of mass of link 2
	LinkMOI     float64 = 1.0 // Moment of inertia of both links
	MaxVel1     float64 = 4 * math.Pi
	MaxVel2     float64 = 9 * math.Pi
	Gravity     float64 = 9.8
	MaxTorque   float64 = 1.0

	ObservationDims int = 4
	ActionDims      int = 1
)

var errNotReset = errors.New("step called before reset")

// base implements the physics shared by the discrete and continuous
// action versions of Acrobot. A double pendulum hangs from an actuated
// joint, and torque applied at the joint swings the links around.
//
// State features are
//
//	[θ1, θ2, θ̇1, θ̇2]
//
// where θ1 is the angle of the first link from the negative y-axis and
// θ2 is the angle of the second link relative to the first. Angles are
// wrapped into (-π, π] and angular velocities are clipped to
// [-MaxVel1, MaxVel1] and [-MaxVel2, MaxVel2]. Dynamics follow the RL
// book.
type base struct {
	task     *SwingUp
	lastStep ts.TimeStep
	discount float64

	velocity1Bounds r1.Interval
	velocity2Bounds r1.Interval
}

func newBase(t *SwingUp, discount float64) (*base, error) {
	if t == nil {
		return nil, errors.New("newBase: task cannot be nil")
	}
	if discount < 0 || discount > 1 {
		return nil, fmt.Errorf("newBase: discount %v ∉ [0, 1]", discount)
	}

	return &base{
		task:            t,
		discount:        discount,
		velocity1Bounds: r1.Interval{Min: -MaxVel1, Max: MaxVel1},
		velocity2Bounds: r1.Interval{Min: -MaxVel2, Max: MaxVel2},
	}, nil
}

// Name returns the name of the environment
func (a *base) Name() string {
	return "ClassicControl_Acrobot"
}

// Reset resets the environment and returns a starting state drawn from
// the task
func (a *base) Reset() (ts.TimeStep, error) {
	state := a.task.Start()
	if err := a.validateState(state); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	a.lastStep = ts.New(ts.First, 0, a.discount, state, 0)
	return a.lastStep, nil
}

// Horizon returns the maximum number of steps in an episode
func (a *base) Horizon() int {
	return a.task.Horizon()
}

// ObservationSpec returns the observation specification of the
// environment
func (a *base) ObservationSpec() env.Spec {
	return env.NewBoundedSpec(env.Observation,
		[]float64{-math.Pi, -math.Pi, -MaxVel1, -MaxVel2},
		[]float64{math.Pi, math.Pi, MaxVel1, MaxVel2}, env.Continuous)
}

// DiscountSpec returns the discounting specification of the environment
func (a *base) DiscountSpec() env.Spec {
	return env.NewBoundedSpec(env.Discount, []float64{a.discount},
		[]float64{a.discount}, env.Continuous)
}

// nextState integrates the dynamics over one timestep with torque
// applied to the actuated joint
func (a *base) nextState(torque float64) (*mat.VecDense, error) {
	state := a.lastStep.Observation
	if state == nil {
		return nil, errNotReset
	}
	torque = floatutils.Clip(torque, -MaxTorque, MaxTorque)

	s := make([]float64, ObservationDims)
	for i := range s {
		s[i] = state.AtVec(i)
	}
	ns := rk4(func(s []float64) []float64 { return dsDt(s, torque) }, s, dt)

	ns[0] = floatutils.NormalizeAngle(ns[0])
	ns[1] = floatutils.NormalizeAngle(ns[1])
	ns[2] = floatutils.ClipInterval(ns[2], a.velocity1Bounds)
	ns[3] = floatutils.ClipInterval(ns[3], a.velocity2Bounds)

	return mat.NewVecDense(ObservationDims, ns), nil
}

// update advances the environment to nextState after taking action act
func (a *base) update(act, nextState *mat.VecDense) (ts.TimeStep, bool,
	error) {
	reward := a.task.GetReward(a.lastStep.Observation, act, nextState)
	nextStep := ts.New(ts.Mid, reward, a.discount, nextState,
		a.lastStep.Number+1)
	a.task.End(&nextStep)

	a.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

func (a *base) validateState(obs mat.Vector) error {
	if obs.Len() != ObservationDims {
		return fmt.Errorf("state must have %v features, got %v",
			ObservationDims, obs.Len())
	}
	for i := 0; i < 2; i++ {
		if th := obs.AtVec(i); th < -math.Pi || th > math.Pi {
			return fmt.Errorf("angle %v ∉ [-π, π]", th)
		}
	}
	if v := obs.AtVec(2); v < a.velocity1Bounds.Min ||
		v > a.velocity1Bounds.Max {
		return fmt.Errorf("angular velocity %v ∉ %v", v, a.velocity1Bounds)
	}
	if v := obs.AtVec(3); v < a.velocity2Bounds.Min ||
		v > a.velocity2Bounds.Max {
		return fmt.Errorf("angular velocity %v ∉ %v", v, a.velocity2Bounds)
	}
	return nil
}

func (a *base) String() string {
	state := a.lastStep.Observation
	if state == nil {
		return "Acrobot  |  not started"
	}
	return fmt.Sprintf("Acrobot  |  θ1: %v  |  θ2: %v  |  θ̇1: %v  |  θ̇2: %v",
		state.AtVec(0), state.AtVec(1), state.AtVec(2), state.AtVec(3))
}

// dsDt returns the time derivative of state s when torque is applied
func dsDt(s []float64, torque float64) []float64 {
	const (
		m1, m2   = LinkMass1, LinkMass2
		l1       = LinkLength1
		lc1, lc2 = LinkCOMPos1, LinkCOMPos2
		i1, i2   = LinkMOI, LinkMOI
		g        = Gravity
	)
	theta1, theta2, dtheta1, dtheta2 := s[0], s[1], s[2], s[3]

	d1 := m1*lc1*lc1 + m2*(l1*l1+lc2*lc2+2*l1*lc2*math.Cos(theta2)) + i1 + i2
	d2 := m2*(lc2*lc2+l1*lc2*math.Cos(theta2)) + i2

	phi2 := m2 * lc2 * g * math.Cos(theta1+theta2-math.Pi/2)
	phi1 := -m2*l1*lc2*dtheta2*dtheta2*math.Sin(theta2) -
		2*m2*l1*lc2*dtheta2*dtheta1*math.Sin(theta2) +
		(m1*lc1+m2*l1)*g*math.Cos(theta1-math.Pi/2) + phi2

	ddtheta2 := (torque + d2/d1*phi1 -
		m2*l1*lc2*dtheta1*dtheta1*math.Sin(theta2) - phi2) /
		(m2*lc2*lc2 + i2 - d2*d2/d1)
	ddtheta1 := -(d2*ddtheta2 + phi1) / d1

	return []float64{dtheta1, dtheta2, ddtheta1, ddtheta2}
}

// rk4 integrates y' = f(y) from y0 over one step of length h using
// 4th order Runge-Kutta
func rk4(f func([]float64) []float64, y0 []float64, h float64) []float64 {
	at := func(k []float64, scale float64) []float64 {
		y := append([]float64(nil), y0...)
		floats.AddScaled(y, scale, k)
		return y
	}

	k1 := f(y0)
	k2 := f(at(k1, h/2))
	k3 := f(at(k2, h/2))
	k4 := f(at(k3, h))

	y := append([]float64(nil), y0...)
	for i := range y {
		y[i] += h / 6 * (k1[i] + 2*k2[i] + 2*k3[i] + k4[i])
	}
	return y
}

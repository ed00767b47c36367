// Package pendulum implements the pendulum classic control environment
package pendulum

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

// default physical constants
const (
	AngleBound  float64 = math.Pi // +/- Angle bounds
	SpeedBound  float64 = 8.0     // +/- Speed bounds
	TorqueBound float64 = 2.0     // +/- Torque bounds

	MaxContinuousAction float64 = TorqueBound
	MinContinuousAction float64 = -MaxContinuousAction

	dt              float64 = 0.05
	Gravity         float64 = 9.8
	Mass            float64 = 1.0
	Length          float64 = 1.0
	ActionDims      int     = 1
	ObservationDims int     = 2
)

// base implements the pendulum dynamics shared by the discrete and
// continuous action versions of the environment. A pendulum is attached
// to a fixed base and the swinging torque is underpowered, so the
// pendulum must be rocked back and forth to swing it upright.
//
// State features consist of the angle of the pendulum from the positive
// y-axis and its angular velocity. The angular velocity is clipped to
// [-SpeedBound, SpeedBound] and angles are normalized to (-π, π].
type base struct {
	task         *SwingUp
	speedBounds  r1.Interval
	torqueBounds r1.Interval
	lastStep     ts.TimeStep
	discount     float64
}

func newBase(t *SwingUp, discount float64) (*base, error) {
	if t == nil {
		return nil, errors.New("newBase: task cannot be nil")
	}
	if discount < 0 || discount > 1 {
		return nil, fmt.Errorf("newBase: discount %v ∉ [0, 1]", discount)
	}

	return &base{
		task:         t,
		speedBounds:  r1.Interval{Min: -SpeedBound, Max: SpeedBound},
		torqueBounds: r1.Interval{Min: -TorqueBound, Max: TorqueBound},
		discount:     discount,
	}, nil
}

// Name returns the name of the environment
func (p *base) Name() string {
	return "ClassicControl_Pendulum"
}

// Reset resets the environment and returns a starting state drawn from
// the Starter
func (p *base) Reset() (ts.TimeStep, error) {
	state := p.task.Start()
	if state.Len() != ObservationDims {
		return ts.TimeStep{}, fmt.Errorf("reset: state must have %v "+
			"features, got %v", ObservationDims, state.Len())
	}

	state.SetVec(0, floatutils.NormalizeAngle(state.AtVec(0)))
	state.SetVec(1, floatutils.ClipInterval(state.AtVec(1), p.speedBounds))

	startStep := ts.New(ts.First, 0, p.discount, state, 0)
	p.lastStep = startStep

	return startStep, nil
}

// Horizon returns the maximum number of steps in an episode
func (p *base) Horizon() int {
	return p.task.Horizon()
}

// nextState computes the next state of the environment given an amount
// of torque to apply to the fixed base of the pendulum. The torque is
// first clipped to the appropriate torque bounds.
func (p *base) nextState(torque float64) (*mat.VecDense, error) {
	obs := p.lastStep.Observation
	if obs == nil {
		return nil, errors.New("step called before reset")
	}
	th, thdot := obs.AtVec(0), obs.AtVec(1)

	torque = floatutils.ClipInterval(torque, p.torqueBounds)

	newthdot := thdot + (-3*Gravity/(2*Length)*math.Sin(th+math.Pi)+
		3.0/(Mass*math.Pow(Length, 2))*torque)*dt
	newth := th + newthdot*dt

	newthdot = floatutils.ClipInterval(newthdot, p.speedBounds)
	newth = floatutils.NormalizeAngle(newth)

	return mat.NewVecDense(ObservationDims, []float64{newth, newthdot}), nil
}

func (p *base) update(action, newState *mat.VecDense) (ts.TimeStep, bool,
	error) {
	reward := p.task.GetReward(p.lastStep.Observation, action, newState)
	nextStep := ts.New(ts.Mid, reward, p.discount, newState,
		p.lastStep.Number+1)

	p.task.End(&nextStep)

	p.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// DiscountSpec returns the discount specification of the environment
func (p *base) DiscountSpec() env.Spec {
	return env.NewBoundedSpec(env.Discount, []float64{p.discount},
		[]float64{p.discount}, env.Continuous)
}

// ObservationSpec returns the observation specification of the
// environment
func (p *base) ObservationSpec() env.Spec {
	return env.NewBoundedSpec(env.Observation,
		[]float64{-AngleBound, p.speedBounds.Min},
		[]float64{AngleBound, p.speedBounds.Max}, env.Continuous)
}

// String converts the environment to a string representation
func (p *base) String() string {
	if p.lastStep.Observation == nil {
		return "Pendulum  |  not started"
	}
	str := "Pendulum  |  theta: %v  |  theta dot: %v"
	return fmt.Sprintf(str, p.lastStep.Observation.AtVec(0),
		p.lastStep.Observation.AtVec(1))
}

// Package envconfig provides configuration structs for configuring
// environments with default physical parameters and tasks. Environment
// configurations in this package are JSON and YAML serializable.
package envconfig

import (
	"fmt"

	env "github.com/samuelfneumann/autolearn/environment"
	"github.com/samuelfneumann/autolearn/environment/classiccontrol/acrobot"
	"github.com/samuelfneumann/autolearn/environment/classiccontrol/cartpole"
	"github.com/samuelfneumann/autolearn/environment/classiccontrol/mountaincar"
	"github.com/samuelfneumann/autolearn/environment/classiccontrol/pendulum"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	Pendulum    EnvName = "Pendulum"
	Cartpole    EnvName = "Cartpole"
	MountainCar EnvName = "MountainCar"
	Acrobot     EnvName = "Acrobot"
)

// TaskName stores the tasks that can be configured with this package.
// Not all tasks can be used with all environments:
//
//	Environment			Task
//	Cartpole			Balance
//	Pendulum			SwingUp
//	Acrobot				SwingUp
//	MountainCar			Goal
type TaskName string

// Tasks available for configuration
const (
	SwingUp TaskName = "SwingUp"
	Balance TaskName = "Balance"
	Goal    TaskName = "Goal"
)

// DefaultTask returns the task used for an environment when none is
// configured
func DefaultTask(name EnvName) TaskName {
	switch name {
	case Pendulum, Acrobot:
		return SwingUp
	case MountainCar:
		return Goal
	}
	return Balance
}

// Config implements a specific configuration of a specific environment
// and specific task. Not all environments can have all tasks.
type Config struct {
	Environment       EnvName  `json:"environment" yaml:"environment" validate:"required,oneof=Cartpole Pendulum MountainCar Acrobot"`
	Task              TaskName `json:"task" yaml:"task"`
	ContinuousActions bool     `json:"continuous_actions" yaml:"continuous_actions"`
	EpisodeCutoff     int      `json:"episode_cutoff" yaml:"episode_cutoff" validate:"gte=1"`
	Discount          float64  `json:"discount" yaml:"discount" validate:"gte=0,lte=1"`
}

// NewConfig returns a new environment Config
func NewConfig(envName EnvName, taskName TaskName, continuousActions bool,
	episodeCutoff int, discount float64) Config {
	return Config{
		Environment:       envName,
		Task:              taskName,
		ContinuousActions: continuousActions,
		EpisodeCutoff:     episodeCutoff,
		Discount:          discount,
	}
}

// Create returns the environment described by the Config
func (c Config) Create(seed uint64) (env.Environment, error) {
	task := c.Task
	if task == "" {
		task = DefaultTask(c.Environment)
	}

	switch c.Environment {
	case Cartpole:
		return CreateCartpole(c.ContinuousActions, task, c.EpisodeCutoff,
			seed, c.Discount)

	case Pendulum:
		return CreatePendulum(c.ContinuousActions, task, c.EpisodeCutoff,
			seed, c.Discount)

	case MountainCar:
		return CreateMountainCar(c.ContinuousActions, task, c.EpisodeCutoff,
			seed, c.Discount)

	case Acrobot:
		return CreateAcrobot(c.ContinuousActions, task, c.EpisodeCutoff,
			seed, c.Discount)
	}

	return nil, fmt.Errorf("create: cannot create environment %v, no such "+
		"environment", c.Environment)
}

// CreateCartpole is a factory for creating the Cartpole environment
// with default physical parameters and default task parameters.
func CreateCartpole(continuousActions bool, taskName TaskName, cutoff int,
	seed uint64, discount float64) (env.Environment, error) {
	if taskName != Balance {
		return nil, fmt.Errorf("createCartpole: Cartpole environment has "+
			"no task %v", taskName)
	}
	task := cartpole.NewBalance(seed, cutoff, cartpole.FailAngle)

	if continuousActions {
		return wrap(cartpole.NewContinuous(task, discount))
	}
	return wrap(cartpole.NewDiscrete(task, discount))
}

// CreatePendulum is a factory for creating the Pendulum environment
// with default physical parameters and default task parameters.
func CreatePendulum(continuousActions bool, taskName TaskName,
	cutoff int, seed uint64, discount float64) (env.Environment, error) {
	if taskName != SwingUp {
		return nil, fmt.Errorf("createPendulum: Pendulum environment has "+
			"no task %v", taskName)
	}
	task := pendulum.NewSwingUp(seed, cutoff)

	if continuousActions {
		return wrap(pendulum.NewContinuous(task, discount))
	}
	return wrap(pendulum.NewDiscrete(task, discount))
}

// CreateMountainCar is a factory for creating the Mountain Car
// environment with default physical parameters and default task
// parameters.
func CreateMountainCar(continuousActions bool, taskName TaskName,
	cutoff int, seed uint64, discount float64) (env.Environment, error) {
	if taskName != Goal {
		return nil, fmt.Errorf("createMountainCar: Mountain Car "+
			"environment has no task %v", taskName)
	}
	task := mountaincar.NewGoal(seed, cutoff, mountaincar.GoalPosition)

	if continuousActions {
		return wrap(mountaincar.NewContinuous(task, discount))
	}
	return wrap(mountaincar.NewDiscrete(task, discount))
}

// CreateAcrobot is a factory for creating the Acrobot environment with
// default physical parameters and default task parameters.
func CreateAcrobot(continuousActions bool, taskName TaskName,
	cutoff int, seed uint64, discount float64) (env.Environment, error) {
	if taskName != SwingUp {
		return nil, fmt.Errorf("createAcrobot: Acrobot environment has "+
			"no task %v", taskName)
	}
	task := acrobot.NewSwingUp(seed, cutoff, acrobot.GoalHeight)

	if continuousActions {
		return wrap(acrobot.NewContinuous(task, discount))
	}
	return wrap(acrobot.NewDiscrete(task, discount))
}

// wrap converts a concrete environment constructor result into an
// Environment, so that failed constructions return a nil interface
func wrap[E env.Environment](e E, err error) (env.Environment, error) {
	if err != nil {
		return nil, err
	}
	return e, nil
}

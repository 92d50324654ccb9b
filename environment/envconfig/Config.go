// Package envconfig provides configuration structs for configuring
// environments with default physical parameters and tasks. Environment
// configurations in this package are JSON serializable.
package envconfig

import (
	"fmt"
	"math"

	env "github.com/samuelfneumann/energyac/environment"
	"github.com/samuelfneumann/energyac/environment/classiccontrol/cartpole"
	"github.com/samuelfneumann/energyac/environment/classiccontrol/pendulum"
	"github.com/samuelfneumann/energyac/environment/gym"
	ts "github.com/samuelfneumann/energyac/timestep"
	"gonum.org/v1/gonum/spatial/r1"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	Pendulum              EnvName = "Pendulum"
	Cartpole              EnvName = "Cartpole"
	MountainCar           EnvName = "MountainCar"
	MountainCarContinuous EnvName = "MountainCarContinuous"
)

// TaskName stores the tasks that can be configured with this package.
// Tasks only apply to native environments, Gym environments always
// use their default task:
//
//	Environment			Task
//	Cartpole			Balance
//	Pendulum			SwingUp
type TaskName string

// Tasks available for configuration
const (
	SwingUp TaskName = "SwingUp"
	Balance TaskName = "Balance"
)

// Config implements a specific configuration of a specific environment
// and specific task. If Gym is true, the environment is created
// through OpenAI Gym rather than the native simulator.
type Config struct {
	Environment   EnvName
	Task          TaskName
	EpisodeCutoff int
	Discount      float64
	Gym           bool
}

// Validate returns an error if the Config cannot create an environment
func (c Config) Validate() error {
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1], have %v",
			c.Discount)
	}

	if c.Gym {
		switch c.Environment {
		case Pendulum, Cartpole, MountainCar, MountainCarContinuous:
			return nil
		}
		return fmt.Errorf("validate: no such gym environment %v",
			c.Environment)
	}

	if c.EpisodeCutoff < 1 {
		return fmt.Errorf("validate: episode cutoff must be >= 1, have %v",
			c.EpisodeCutoff)
	}
	switch {
	case c.Environment == Cartpole && c.Task == Balance:
	case c.Environment == Pendulum && c.Task == SwingUp:
	default:
		return fmt.Errorf("validate: no native environment %v with task %v",
			c.Environment, c.Task)
	}
	return nil
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment
func (c Config) Create(seed uint64) (env.Environment, ts.TimeStep, error) {
	if err := c.Validate(); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %v", err)
	}

	if c.Gym {
		return CreateGym(c.Environment, seed, c.Discount)
	}

	switch c.Environment {
	case Cartpole:
		return CreateCartpole(c.EpisodeCutoff, seed, c.Discount)

	case Pendulum:
		return CreatePendulum(c.EpisodeCutoff, seed, c.Discount)
	}

	return nil, ts.TimeStep{}, fmt.Errorf("create: cannot create "+
		"environment %v, no such environment", c.Environment)
}

// CreateCartpole is a factory for creating the discrete-action Cartpole
// environment with default physical parameters and the Balance task
func CreateCartpole(cutoff int, seed uint64, discount float64) (
	env.Environment, ts.TimeStep, error) {
	bounds := r1.Interval{Min: -0.05, Max: 0.05}
	s := env.NewUniformStarter([]r1.Interval{
		bounds,
		bounds,
		bounds,
		bounds,
	}, seed)

	task := cartpole.NewBalance(s, cutoff, cartpole.FailAngle)
	e, step, err := cartpole.NewDiscrete(task, discount)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("createCartpole: %v", err)
	}
	return e, step, nil
}

// CreatePendulum is a factory for creating the Pendulum environment
// with default physical parameters and the SwingUp task
func CreatePendulum(cutoff int, seed uint64, discount float64) (
	env.Environment, ts.TimeStep, error) {
	angle := r1.Interval{Min: -math.Pi, Max: math.Pi}
	speed := r1.Interval{Min: -1.0, Max: 1.0}
	s := env.NewUniformStarter([]r1.Interval{angle, speed}, seed)

	task := pendulum.NewSwingUp(s, cutoff)
	e, step, err := pendulum.NewContinuous(task, discount)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("createPendulum: %v", err)
	}
	return e, step, nil
}

// CreateGym creates the named environment through OpenAI Gym
func CreateGym(name EnvName, seed uint64, discount float64) (
	env.Environment, ts.TimeStep, error) {
	var create func(float64, uint64) (*gym.GymEnv, ts.TimeStep, error)
	switch name {
	case Cartpole:
		create = gym.CartPole

	case Pendulum:
		create = gym.Pendulum

	case MountainCar:
		create = gym.MountainCar

	case MountainCarContinuous:
		create = gym.MountainCarContinuous

	default:
		return nil, ts.TimeStep{}, fmt.Errorf("createGym: no such gym "+
			"environment %v", name)
	}

	e, step, err := create(discount, seed)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("createGym: %v", err)
	}
	return e, step, nil
}

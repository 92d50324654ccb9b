// Package gym provides access to OpenAI Gym environments through the Go
// bindings found at https://github.com/samuelfneumann/GoGym.
//
// Environments only work with their default tasks and episode cutoffs.
// The Python runtime is shared by all environments of a process and
// should be released with CloseAll once no more environments are
// needed.
package gym

import (
	"fmt"
	"math"

	env "github.com/samuelfneumann/energyac/environment"
	ts "github.com/samuelfneumann/energyac/timestep"
	"github.com/samuelfneumann/gogym"
	"gonum.org/v1/gonum/mat"
)

// Names of the supported Gym environments
const (
	CartPoleV1              string = "CartPole-v1"
	PendulumV0              string = "Pendulum-v0"
	MountainCarV0           string = "MountainCar-v0"
	MountainCarContinuousV0 string = "MountainCarContinuous-v0"
)

// GymEnv adapts an OpenAI Gym environment to the
// environment.Environment interface
type GymEnv struct {
	gogym.Environment

	currentStep ts.TimeStep
	discount    float64
}

// New returns a new GymEnv with the given name, which must be a legal
// name from the OpenAI Gym suite
func New(name string, discount float64, seed uint64) (*GymEnv, ts.TimeStep,
	error) {
	goGymEnv, err := gogym.Make(name)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: could not create "+
			"environment %v: %v", name, err)
	}
	goGymEnv.Seed(int(seed))

	gymEnv := &GymEnv{
		Environment: goGymEnv,
		discount:    discount,
	}

	t, err := gymEnv.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}
	return gymEnv, t, nil
}

// CartPole returns the discrete-action Gym CartPole environment
func CartPole(discount float64, seed uint64) (*GymEnv, ts.TimeStep, error) {
	return New(CartPoleV1, discount, seed)
}

// Pendulum returns the continuous-action Gym Pendulum environment
func Pendulum(discount float64, seed uint64) (*GymEnv, ts.TimeStep, error) {
	return New(PendulumV0, discount, seed)
}

// MountainCar returns the discrete-action Gym Mountain Car environment
func MountainCar(discount float64, seed uint64) (*GymEnv, ts.TimeStep,
	error) {
	return New(MountainCarV0, discount, seed)
}

// MountainCarContinuous returns the continuous-action Gym Mountain Car
// environment
func MountainCarContinuous(discount float64, seed uint64) (*GymEnv,
	ts.TimeStep, error) {
	return New(MountainCarContinuousV0, discount, seed)
}

// Step takes a single environmental step. For discrete action spaces
// only the first action dimension is used, rounded to the nearest
// category.
func (g *GymEnv) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	action := a
	if g.discrete() {
		if a.Len() < 1 {
			return ts.TimeStep{}, false, fmt.Errorf("step: empty action")
		}
		action = mat.NewVecDense(1, []float64{math.Round(a.AtVec(0))})
	}

	obs, reward, done, err := g.Environment.Step(action)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not step "+
			"GoGym environment: %v", err)
	}

	t := ts.New(ts.Mid, reward, g.discount, obs, g.currentStep.Number+1)
	if done {
		t.StepType = ts.Last
	}
	g.currentStep = t

	return t, done, nil
}

// Reset resets the environment to some starting state
func (g *GymEnv) Reset() (ts.TimeStep, error) {
	obs, err := g.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset "+
			"environment: %v", err)
	}

	t := ts.New(ts.First, 0, g.discount, obs, 0)
	g.currentStep = t

	return t, nil
}

// CurrentTimeStep returns the current timestep in the environment
func (g *GymEnv) CurrentTimeStep() ts.TimeStep {
	return g.currentStep
}

// ObservationSpec returns the observation spec of the environment
func (g *GymEnv) ObservationSpec() env.Spec {
	space := g.ObservationSpace()

	var discrete bool
	switch space.(type) {
	case *gogym.BoxSpace:
	case *gogym.DiscreteSpace:
		discrete = true
	default:
		panic("observationSpec: invalid space type, package gym supports " +
			"only GoGym's BoxSpace or DiscreteSpace")
	}

	return newSpec(space.Low()[0], space.High()[0], env.Observation, discrete)
}

// ActionSpec returns the action specification of the environment
func (g *GymEnv) ActionSpec() env.Spec {
	space := g.ActionSpace()

	var discrete bool
	switch space.(type) {
	case *gogym.BoxSpace:
	case *gogym.DiscreteSpace:
		discrete = true
	default:
		panic("actionSpec: invalid space type, package gym supports " +
			"only GoGym's BoxSpace or DiscreteSpace")
	}

	return newSpec(space.Low()[0], space.High()[0], env.Action, discrete)
}

// DiscountSpec returns the discount specification of the environment
func (g *GymEnv) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	low := mat.NewVecDense(1, []float64{g.discount})

	return env.NewSpec(shape, env.Discount, low, low, env.Continuous)
}

// Close performs resource cleanup after the environment is no longer
// needed
func (g *GymEnv) Close() error {
	g.Environment.Close()
	return nil
}

// CloseAll releases the Python runtime shared by all environments
func CloseAll() {
	gogym.Close()
}

func (g *GymEnv) discrete() bool {
	_, ok := g.ActionSpace().(*gogym.DiscreteSpace)
	return ok
}

// newSpec returns a Spec with the bounds of a GoGym space
func newSpec(low, high *mat.VecDense, t env.SpecType, discrete bool) env.Spec {
	cardinality := env.Continuous
	if discrete {
		cardinality = env.Discrete
	}
	shape := mat.NewVecDense(low.Len(), nil)

	return env.NewSpec(shape, t, low, high, cardinality)
}

package gym_test

import (
	"testing"

	"github.com/samuelfneumann/energyac/environment"
	"github.com/samuelfneumann/energyac/environment/gym"
	ts "github.com/samuelfneumann/energyac/timestep"
	"gonum.org/v1/gonum/mat"
)

func TestNamedConstructors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test requiring a Python Gym runtime")
	}
	defer gym.CloseAll()

	constructors := map[string]func(float64, uint64) (*gym.GymEnv,
		ts.TimeStep, error){
		gym.CartPoleV1:              gym.CartPole,
		gym.PendulumV0:              gym.Pendulum,
		gym.MountainCarV0:           gym.MountainCar,
		gym.MountainCarContinuousV0: gym.MountainCarContinuous,
	}

	for name, create := range constructors {
		env, step, err := create(0.99, 123)
		if err != nil {
			t.Errorf("env %v: %v", name, err)
			continue
		}
		if !step.First() {
			t.Errorf("env %v: first step type %v", name, step.StepType)
		}

		obsSpec := env.ObservationSpec()
		if step.Observation.Len() != obsSpec.Dims() {
			t.Errorf("env %v: observation dims want(%v) have(%v)", name,
				obsSpec.Dims(), step.Observation.Len())
		}

		// Take a bunch of steps in the environment to ensure it works
		size := env.ActionSpec().Dims()
		for i := 1; i <= 15; i++ {
			next, done, err := env.Step(mat.NewVecDense(size, nil))
			if err != nil {
				t.Fatalf("env %v: %v", name, err)
			}
			if done {
				if _, err := env.Reset(); err != nil {
					t.Errorf("env %v: %v", name, err)
				}
				continue
			}
			if next.Number != env.CurrentTimeStep().Number {
				t.Errorf("env %v: current timestep not updated", name)
			}
		}

		if name == gym.CartPoleV1 || name == gym.MountainCarV0 {
			if env.ActionSpec().Cardinality != environment.Discrete {
				t.Errorf("env %v: action spec should be discrete", name)
			}
		}
		env.Close()
	}
}

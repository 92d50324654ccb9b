// Package pendulum implements the pendulum classic control environment
package pendulum

import (
	"fmt"
	"math"

	env "github.com/samuelfneumann/energyac/environment"
	ts "github.com/samuelfneumann/energyac/timestep"
	"github.com/samuelfneumann/energyac/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
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

// Continuous implements the classic control environment Pendulum. In
// this environment, a pendulum is attached to a fixed base. An agent
// can swing the pendulum back and forth, but the torque is
// underpowered. In order to swing the pendulum straight up, it must
// first be rocked back and forth, using the momentum to gradually
// climb higher.
//
// State features consist of the angle of the pendulum from the
// positive y-axis and the angular velocity of the pendulum. The
// angular velocity is clipped to [-SpeedBound, SpeedBound] and angles
// are normalized to stay within [-π, π).
//
// Actions are continuous and 1-dimensional, the torque applied at the
// fixed base. Actions outside of [-2, 2] are clipped.
//
// Continuous implements the environment.Environment interface
type Continuous struct {
	env.Task
	angleBounds  r1.Interval
	speedBounds  r1.Interval
	torqueBounds r1.Interval
	lastStep     ts.TimeStep
	discount     float64
}

// NewContinuous creates and returns a new Continuous environment and
// its first TimeStep
func NewContinuous(t env.Task, discount float64) (*Continuous, ts.TimeStep,
	error) {
	p := &Continuous{
		Task:         t,
		angleBounds:  r1.Interval{Min: -AngleBound, Max: AngleBound},
		speedBounds:  r1.Interval{Min: -SpeedBound, Max: SpeedBound},
		torqueBounds: r1.Interval{Min: -TorqueBound, Max: TorqueBound},
		discount:     discount,
	}

	step, err := p.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newContinuous: %v", err)
	}
	return p, step, nil
}

// Reset resets the environment and returns a starting state drawn
// from the Starter
func (p *Continuous) Reset() (ts.TimeStep, error) {
	state := p.Start()
	if err := p.validateState(state); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	p.lastStep = ts.New(ts.First, 0, p.discount, state, 0)
	return p.lastStep, nil
}

// Step takes one environmental step given action a and returns the next
// timestep and whether or not the episode has ended
func (p *Continuous) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if a.Len() != ActionDims {
		return ts.TimeStep{}, false, fmt.Errorf("step: actions should be "+
			"%v-dimensional", ActionDims)
	}
	torque := floatutils.ClipInterval(a.AtVec(0), p.torqueBounds)

	obs := p.lastStep.Observation
	th, thdot := obs.AtVec(0), obs.AtVec(1)

	newthdot := thdot + (-3*Gravity/(2*Length)*math.Sin(th+math.Pi)+
		3.0/(Mass*Length*Length)*torque)*dt
	newth := th + newthdot*dt

	newthdot = floatutils.ClipInterval(newthdot, p.speedBounds)
	newth = floatutils.Wrap(newth, p.angleBounds.Min, p.angleBounds.Max)
	nextState := mat.NewVecDense(ObservationDims, []float64{newth, newthdot})

	action := mat.NewVecDense(ActionDims, []float64{torque})
	reward := p.GetReward(obs, action, nextState)
	nextStep := ts.New(ts.Mid, reward, p.discount, nextState,
		p.lastStep.Number+1)

	p.End(&nextStep)
	p.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// ActionSpec returns the action specification of the environment
func (p *Continuous) ActionSpec() env.Spec {
	return env.NewSpec(mat.NewVecDense(ActionDims, nil), env.Action,
		mat.NewVecDense(ActionDims, []float64{p.torqueBounds.Min}),
		mat.NewVecDense(ActionDims, []float64{p.torqueBounds.Max}),
		env.Continuous)
}

// DiscountSpec returns the discount specification of the environment
func (p *Continuous) DiscountSpec() env.Spec {
	return env.NewSpec(mat.NewVecDense(1, nil), env.Discount,
		mat.NewVecDense(1, []float64{p.discount}),
		mat.NewVecDense(1, []float64{p.discount}), env.Continuous)
}

// ObservationSpec returns the observation specification of the
// environment
func (p *Continuous) ObservationSpec() env.Spec {
	lower := []float64{p.angleBounds.Min, p.speedBounds.Min}
	upper := []float64{p.angleBounds.Max, p.speedBounds.Max}

	return env.NewSpec(mat.NewVecDense(ObservationDims, nil), env.Observation,
		mat.NewVecDense(ObservationDims, lower),
		mat.NewVecDense(ObservationDims, upper), env.Continuous)
}

// validateState ensures the angle and angular velocity are within the
// environmental limits
func (p *Continuous) validateState(obs mat.Vector) error {
	if obs.Len() != ObservationDims {
		return fmt.Errorf("state must have %v features, have %v",
			ObservationDims, obs.Len())
	}
	if th := obs.AtVec(0); th < p.angleBounds.Min || th > p.angleBounds.Max {
		return fmt.Errorf("theta %v is not within bounds %v", th,
			p.angleBounds)
	}
	if thdot := obs.AtVec(1); thdot < p.speedBounds.Min ||
		thdot > p.speedBounds.Max {
		return fmt.Errorf("theta dot %v is not within bounds %v", thdot,
			p.speedBounds)
	}
	return nil
}

// String converts the environment to a string representation
func (p *Continuous) String() string {
	return fmt.Sprintf("Pendulum  |  theta: %v  |  theta dot: %v",
		p.lastStep.Observation.AtVec(0), p.lastStep.Observation.AtVec(1))
}

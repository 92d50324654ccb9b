// Package cartpole implements the Cartpole classic control environment
package cartpole

import (
	"fmt"
	"math"

	env "github.com/samuelfneumann/energyac/environment"
	ts "github.com/samuelfneumann/energyac/timestep"
	"github.com/samuelfneumann/energyac/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
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
	PositionBounds        float64 = 2.4
	SpeedBounds           float64 = math.MaxFloat64
	AngleBounds           float64 = math.Pi
	AngularVelocityBounds float64 = math.MaxFloat64

	ObservationDims int = 4
	ActionDims      int = 1
)

// base implements the dynamics shared by all Cartpole environments. In
// this environment, a pole is attached to a cart, which can move
// horizontally. Gravity pulls the pole downwards so that balancing it
// in an upright position is very difficult.
//
// The state features are continuous and consist of the cart's x
// position and speed, as well as the pole's angle from the positive
// y-axis and the pole's angular velocity. The position is clipped to
// its bounds, and upon reaching a position boundary the velocity of
// the cart is set to 0. Angles are normalized to stay in [-π, π).
type base struct {
	env.Task
	lastStep ts.TimeStep
	discount float64

	positionBounds        r1.Interval
	speedBounds           r1.Interval
	angleBounds           r1.Interval
	angularVelocityBounds r1.Interval
}

// newBase constructs the base Cartpole environment and returns its
// first TimeStep
func newBase(t env.Task, discount float64) (*base, ts.TimeStep, error) {
	c := &base{
		Task:                  t,
		discount:              discount,
		positionBounds:        r1.Interval{Min: -PositionBounds, Max: PositionBounds},
		speedBounds:           r1.Interval{Min: -SpeedBounds, Max: SpeedBounds},
		angleBounds:           r1.Interval{Min: -AngleBounds, Max: AngleBounds},
		angularVelocityBounds: r1.Interval{Min: -AngularVelocityBounds, Max: AngularVelocityBounds},
	}

	step, err := c.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newBase: %v", err)
	}
	return c, step, nil
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (c *base) Reset() (ts.TimeStep, error) {
	state := c.Start()
	if err := c.validateState(state); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	c.lastStep = ts.New(ts.First, 0, c.discount, state, 0)
	return c.lastStep, nil
}

// ObservationSpec returns the observation specification of the
// environment
func (c *base) ObservationSpec() env.Spec {
	lower := []float64{c.positionBounds.Min, c.speedBounds.Min,
		c.angleBounds.Min, c.angularVelocityBounds.Min}
	upper := []float64{c.positionBounds.Max, c.speedBounds.Max,
		c.angleBounds.Max, c.angularVelocityBounds.Max}

	return env.NewSpec(mat.NewVecDense(ObservationDims, nil), env.Observation,
		mat.NewVecDense(ObservationDims, lower),
		mat.NewVecDense(ObservationDims, upper), env.Continuous)
}

// DiscountSpec returns the discounting specification of the environment
func (c *base) DiscountSpec() env.Spec {
	return env.NewSpec(mat.NewVecDense(1, nil), env.Discount,
		mat.NewVecDense(1, []float64{c.discount}),
		mat.NewVecDense(1, []float64{c.discount}), env.Continuous)
}

// nextState computes the state following the current state when force
// is applied to the cart in the given direction, scaled to [-1, 1]
func (c *base) nextState(direction float64) *mat.VecDense {
	state := c.lastStep.Observation
	x, xDot := state.AtVec(0), state.AtVec(1)
	th, thDot := state.AtVec(2), state.AtVec(3)

	force := direction * ForceMag
	cosTheta, sinTheta := math.Cos(th), math.Sin(th)

	totalMass := PoleMass + CartMass
	poleMassLength := PoleMass * HalfPoleLength

	temp := (force + poleMassLength*thDot*thDot*sinTheta) / totalMass
	thAcc := (Gravity*sinTheta - cosTheta*temp) / (HalfPoleLength *
		(4.0/3.0 - PoleMass*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLength*thAcc*cosTheta/totalMass

	// Euler integration
	x += Dt * xDot
	xDot += Dt * xAcc
	if x <= c.positionBounds.Min || x >= c.positionBounds.Max {
		xDot = 0
	}
	x = floatutils.ClipInterval(x, c.positionBounds)

	th = floatutils.Wrap(th+Dt*thDot, c.angleBounds.Min, c.angleBounds.Max)
	thDot += Dt * thAcc

	return mat.NewVecDense(ObservationDims, []float64{x, xDot, th, thDot})
}

// update moves the environment to nextState after action a was taken
func (c *base) update(a *mat.VecDense, nextState *mat.VecDense) (ts.TimeStep,
	bool, error) {
	reward := c.GetReward(c.lastStep.Observation, a, nextState)
	nextStep := ts.New(ts.Mid, reward, c.discount, nextState,
		c.lastStep.Number+1)

	c.End(&nextStep)
	c.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// validateState ensures that a state observation is between the
// physical bounds of the Cartpole environment
func (c *base) validateState(obs mat.Vector) error {
	if obs.Len() != ObservationDims {
		return fmt.Errorf("state must have %v features, have %v",
			ObservationDims, obs.Len())
	}

	bounds := []r1.Interval{c.positionBounds, c.speedBounds, c.angleBounds,
		c.angularVelocityBounds}
	names := []string{"position", "speed", "angle", "angular velocity"}
	for i, b := range bounds {
		if v := obs.AtVec(i); v < b.Min || v > b.Max {
			return fmt.Errorf("%v %v is not within bounds %v", names[i], v, b)
		}
	}
	return nil
}

func (c *base) String() string {
	state := c.lastStep.Observation
	return fmt.Sprintf("Cartpole  |  Position: %v  |  Speed: %v  |  "+
		"Angle: %v  |  Angular Velocity: %v", state.AtVec(0), state.AtVec(1),
		state.AtVec(2), state.AtVec(3))
}

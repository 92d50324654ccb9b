package cartpole

import (
	"math"

	env "github.com/samuelfneumann/energyac/environment"
	ts "github.com/samuelfneumann/energyac/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// FailAngle is the default angle from upright at which the pole has
// fallen
const FailAngle float64 = 12 * 2 * math.Pi / 360

// Balance implements the classic control Cartpole Balance task. In this
// Task, the goal of the agent is to balance the pole on the cart in
// an upright position for as long as possible.
//
// The reward is +1 for every timestep the pole is within failAngle of
// upright and -1 otherwise. Episodes end after a step limit or after
// the pole has fallen past failAngle.
type Balance struct {
	env.Starter
	stepLimiter  *env.StepLimit
	angleLimiter *env.IntervalLimit
	failAngle    float64
}

// NewBalance creates and returns a new Balance task
func NewBalance(s env.Starter, episodeSteps int, failAngle float64) *Balance {
	legalAngles := []r1.Interval{{Min: -failAngle, Max: failAngle}}
	angleLimiter := env.NewIntervalLimit(legalAngles, []int{2})

	return &Balance{s, env.NewStepLimit(episodeSteps), angleLimiter,
		failAngle}
}

// End checks if a TimeStep is the last in an episode. If so, it adjusts
// the TimeStep's StepType to timestep.Last and returns true.
func (b *Balance) End(t *ts.TimeStep) bool {
	return b.angleLimiter.End(t) || b.stepLimiter.End(t)
}

// GetReward returns the reward for the transition to nextState
func (b *Balance) GetReward(_, _, nextState mat.Vector) float64 {
	if math.Abs(nextState.AtVec(2)) < b.failAngle {
		return 1.0
	}
	return -1.0
}

// RewardSpec returns the reward specification for the environment
func (b *Balance) RewardSpec() env.Spec {
	return env.NewSpec(mat.NewVecDense(1, nil), env.Reward,
		mat.NewVecDense(1, []float64{-1}), mat.NewVecDense(1, []float64{1}),
		env.Continuous)
}

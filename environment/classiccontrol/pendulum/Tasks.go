package pendulum

import (
	"math"

	env "github.com/samuelfneumann/energyac/environment"
	"gonum.org/v1/gonum/mat"
)

// SwingUp implements a task where the agent must swing the pendulum up
// and hold it in a vertical position. Rewards are the cosine of the
// pendulum angle measured from the positive y-axis, so the goal state
// of the pendulum pointing straight up earns 1.0 on each timestep.
type SwingUp struct {
	env.Starter
	*env.StepLimit
}

// NewSwingUp creates and returns a new SwingUp task
func NewSwingUp(s env.Starter, maxSteps int) *SwingUp {
	return &SwingUp{s, env.NewStepLimit(maxSteps)}
}

// GetReward returns the reward for the transition to nextState
func (s *SwingUp) GetReward(_, _, nextState mat.Vector) float64 {
	return math.Cos(nextState.AtVec(0))
}

// RewardSpec returns the reward specification of the Task
func (s *SwingUp) RewardSpec() env.Spec {
	return env.NewSpec(mat.NewVecDense(1, nil), env.Reward,
		mat.NewVecDense(1, []float64{-1}), mat.NewVecDense(1, []float64{1}),
		env.Continuous)
}

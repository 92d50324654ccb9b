// Package agent defines the capability interfaces that actor-critic
// agents are assembled from
package agent

import (
	"github.com/samuelfneumann/energyac/memory"
	"gonum.org/v1/gonum/mat"
)

// Agent acts in an environment and learns from the transitions it
// observes. Each Agent owns exactly one Memory.
type Agent interface {
	// Act returns an action of shape (1, action dimensions) for a raw,
	// unscaled observation
	Act(obs mat.Vector) (*mat.Dense, error)

	// Learn performs a single update using a batch of transitions
	// with leading sample dimension and returns the combined loss of
	// the update
	Learn(obs, actions, rewards, nextObs *mat.Dense) (float64, error)

	// Memory returns the experience memory of the Agent
	Memory() *memory.Memory
}

// Actor is a policy approximator. Both methods take batched inputs
// with a leading sample dimension.
type Actor interface {
	// GetAction samples one action for each row of state from the
	// current policy. The second matrix holds auxiliary information on
	// the sampled actions, the log-probability of each action under
	// the policy.
	GetAction(state *mat.Dense) (action, aux *mat.Dense, err error)

	// Improve performs a policy gradient update using advantage as the
	// weighting of each (observation, action) pair and returns the
	// policy loss before the update.
	Improve(obs, actions *mat.Dense, advantage *mat.VecDense) (float64,
		error)
}

// Critic is a state-value function approximator. Both methods take
// batched inputs with a leading sample dimension.
type Critic interface {
	// Predict returns the predicted value of each row of obs
	Predict(obs *mat.Dense) (*mat.VecDense, error)

	// Improve moves the predictions for obs toward target. It returns
	// the temporal difference error target - Predict(obs) computed
	// before the update along with the loss.
	Improve(obs *mat.Dense, target *mat.VecDense) (tdError *mat.VecDense,
		loss float64, err error)
}

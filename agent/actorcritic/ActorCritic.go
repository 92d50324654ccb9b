// Package actorcritic implements the one-step Actor-Critic algorithm.
//
// The critic learns a state-value function with TD(0) targets and the
// actor is updated with the policy gradient, using the critic's TD
// error as the advantage of each action.
package actorcritic

import (
	"fmt"
	"log/slog"

	"github.com/samuelfneumann/energyac/agent"
	"github.com/samuelfneumann/energyac/environment"
	"github.com/samuelfneumann/energyac/memory"
	"gonum.org/v1/gonum/mat"
)

// ActorCritic couples an Actor and a Critic. It owns a single Memory
// into which the diagnostics of each update are recorded.
//
// ActorCritic is not safe for concurrent use. Acting and learning must
// be performed sequentially.
type ActorCritic struct {
	actor  agent.Actor
	critic agent.Critic
	memory *memory.Memory

	obsSpec environment.Spec
	actSpec environment.Spec

	logger *slog.Logger
}

// New returns a new ActorCritic. The discount of the bootstrapped
// targets is the discount of the Memory.
func New(actor agent.Actor, critic agent.Critic, m *memory.Memory,
	obsSpec, actSpec environment.Spec) (*ActorCritic, error) {
	if actor == nil || critic == nil || m == nil {
		return nil, fmt.Errorf("new: actor, critic, and memory must be set")
	}

	return &ActorCritic{
		actor:   actor,
		critic:  critic,
		memory:  m,
		obsSpec: obsSpec,
		actSpec: actSpec,
		logger:  slog.Default().With("component", "actorcritic"),
	}, nil
}

// Memory returns the Memory owned by the agent
func (a *ActorCritic) Memory() *memory.Memory {
	return a.memory
}

// Act scales a raw observation into the range expected by the actor
// and returns an action of shape (1, action dimensions) sampled from
// the actor's current policy
func (a *ActorCritic) Act(obs mat.Vector) (*mat.Dense, error) {
	scaled, err := environment.Scale(obs, a.obsSpec)
	if err != nil {
		return nil, fmt.Errorf("act: could not scale observation: %v", err)
	}
	state := mat.NewDense(1, a.obsSpec.Dims(), scaled.RawVector().Data)

	action, _, err := a.actor.GetAction(state)
	if err != nil {
		return nil, fmt.Errorf("act: could not get action: %v", err)
	}

	r, c := action.Dims()
	if r*c != a.actSpec.Dims() {
		return nil, fmt.Errorf("act: actor returned action of shape (%v, %v) "+
			"for %v action dimensions", r, c, a.actSpec.Dims())
	}
	if r == 1 {
		return action, nil
	}
	return mat.NewDense(1, r*c, mat.DenseCopyOf(action).RawMatrix().Data), nil
}

// Learn performs one Actor-Critic update on a batch of transitions
// with leading sample dimension, in the scaled range expected by the
// approximators. Rewards have shape (N, 1).
//
// The critic is first moved toward the TD(0) targets
//
//	target = reward + ℽ v(next observation)
//
// and the TD errors it returns are then used as the advantages of the
// actor's policy gradient update. Terminal transitions are not masked.
// The targets, TD errors, and both losses are recorded in the Memory.
// The returned loss is the sum of the critic and actor losses.
func (a *ActorCritic) Learn(obs, actions, rewards, nextObs *mat.Dense) (
	float64, error) {
	nextValues, err := a.critic.Predict(nextObs)
	if err != nil {
		return 0, fmt.Errorf("learn: could not predict next values: %v", err)
	}
	if r, _ := rewards.Dims(); r != nextValues.Len() {
		return 0, fmt.Errorf("learn: %v rewards for %v next observations",
			r, nextValues.Len())
	}

	ℽ := a.memory.Discount()
	target := mat.NewVecDense(nextValues.Len(), nil)
	for i := 0; i < target.Len(); i++ {
		target.SetVec(i, rewards.At(i, 0)+ℽ*nextValues.AtVec(i))
	}
	if err := a.memory.Record(memory.ValueTarget,
		target.RawVector().Data...); err != nil {
		return 0, fmt.Errorf("learn: %v", err)
	}

	tdError, criticLoss, err := a.critic.Improve(obs, target)
	if err != nil {
		return 0, fmt.Errorf("learn: could not improve critic: %v", err)
	}

	actorLoss, err := a.actor.Improve(obs, actions, tdError)
	if err != nil {
		return 0, fmt.Errorf("learn: could not improve actor: %v", err)
	}

	records := []struct {
		metric memory.Metric
		values []float64
	}{
		{memory.TDError, tdError.RawVector().Data},
		{memory.CriticLoss, []float64{criticLoss}},
		{memory.ActorLoss, []float64{actorLoss}},
	}
	for _, r := range records {
		if err := a.memory.Record(r.metric, r.values...); err != nil {
			return 0, fmt.Errorf("learn: %v", err)
		}
	}

	a.logger.Debug("learned", "critic_loss", criticLoss,
		"actor_loss", actorLoss)

	return criticLoss + actorLoss, nil
}

package actorcritic

import (
	"fmt"

	"github.com/samuelfneumann/energyac/agent"
	linearpolicy "github.com/samuelfneumann/energyac/agent/linear/policy"
	linearvaluefn "github.com/samuelfneumann/energyac/agent/linear/valuefn"
	mlpvaluefn "github.com/samuelfneumann/energyac/agent/nonlinear/valuefn"
	"github.com/samuelfneumann/energyac/environment"
	"github.com/samuelfneumann/energyac/initwfn"
	"github.com/samuelfneumann/energyac/memory"
	"github.com/samuelfneumann/energyac/network"
	"github.com/samuelfneumann/energyac/solver"
)

// Config represents a configuration for an Actor-Critic agent
type Config struct {
	// Policy is the type of the actor. If empty, a Gaussian policy is
	// used for continuous actions and a Softmax policy for discrete
	// actions.
	Policy agent.PolicyType
	Critic agent.CriticType

	Discount     float64
	MemoryLength int

	ActorLearningRate  float64
	CriticLearningRate float64 // Linear critics only

	// MLP critics only
	HiddenSizes []int
	Activations []*network.Activation
	Solver      *solver.Solver

	// InitWFn initializes the weights of all approximators. Linear
	// approximators are zero-initialized if nil.
	InitWFn *initwfn.InitWFn
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1]")
	}
	if c.MemoryLength < 1 {
		return fmt.Errorf("validate: memory length must be >= 1")
	}
	if c.ActorLearningRate <= 0 {
		return fmt.Errorf("validate: actor learning rate must be positive")
	}

	switch c.Policy {
	case "", agent.Gaussian, agent.Softmax:
	default:
		return fmt.Errorf("validate: unknown policy type %q", c.Policy)
	}

	switch c.Critic {
	case agent.Linear:
		if c.CriticLearningRate <= 0 {
			return fmt.Errorf("validate: critic learning rate must be " +
				"positive")
		}

	case agent.MLP:
		if len(c.HiddenSizes) != len(c.Activations) {
			return fmt.Errorf("validate: %v hidden layers with %v "+
				"activations", len(c.HiddenSizes), len(c.Activations))
		}
		if c.Solver == nil {
			return fmt.Errorf("validate: MLP critic requires a solver")
		}
		if c.InitWFn == nil {
			return fmt.Errorf("validate: MLP critic requires a weight " +
				"initializer")
		}

	default:
		return fmt.Errorf("validate: unknown critic type %q", c.Critic)
	}

	return nil
}

// CreateAgent creates the agent described by the Config for the
// environment env
func (c Config) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("createAgent: %v", err)
	}
	obsSpec, actSpec := env.ObservationSpec(), env.ActionSpec()

	actor, err := c.actor(obsSpec, actSpec, seed)
	if err != nil {
		return nil, fmt.Errorf("createAgent: could not create actor: %v", err)
	}

	critic, err := c.critic(obsSpec)
	if err != nil {
		return nil, fmt.Errorf("createAgent: could not create critic: %v",
			err)
	}

	m, err := memory.New(obsSpec, actSpec, c.Discount, c.MemoryLength, seed)
	if err != nil {
		return nil, fmt.Errorf("createAgent: could not create memory: %v",
			err)
	}

	return New(actor, critic, m, obsSpec, actSpec)
}

func (c Config) actor(obsSpec, actSpec environment.Spec,
	seed uint64) (agent.Actor, error) {
	policy := c.Policy
	if policy == "" {
		policy = agent.Gaussian
		if actSpec.Cardinality == environment.Discrete {
			policy = agent.Softmax
		}
	}

	if policy == agent.Softmax {
		return linearpolicy.NewSoftmax(obsSpec, actSpec, c.ActorLearningRate,
			c.InitWFn, seed)
	}
	return linearpolicy.NewGaussian(obsSpec, actSpec, c.ActorLearningRate,
		c.InitWFn, seed)
}

func (c Config) critic(obsSpec environment.Spec) (agent.Critic, error) {
	if c.Critic == agent.MLP {
		// Each critic steps its own solver
		s, err := c.Solver.Clone()
		if err != nil {
			return nil, err
		}
		return mlpvaluefn.NewMLP(obsSpec, c.HiddenSizes, c.Activations,
			c.InitWFn, s)
	}
	return linearvaluefn.NewLinear(obsSpec, c.CriticLearningRate, c.InitWFn)
}

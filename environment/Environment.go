// Package environment outlines the interfaces and structs needed to
// implement concrete environments, as well as the space descriptors
// (Specs) and the scaling function that agents use to normalize the
// data they receive.
package environment

import (
	ts "github.com/samuelfneumann/energyac/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when an episode should end. If End returns true,
// then the TimeStep will have been changed to a timestep.Last.
type Ender interface {
	End(*ts.TimeStep) bool
}

// Task implements the reward scheme for taking actions in some
// environment as well as the start state distribution and the episode
// termination criteria
type Task interface {
	Starter
	Ender
	GetReward(state, action, nextState mat.Vector) float64
	RewardSpec() Spec
}

// Environment implements a uniform step/reset contract over some
// simulator. Reset starts a new episode and Step takes an action,
// returning the resulting TimeStep and whether the episode ended.
type Environment interface {
	Reset() (ts.TimeStep, error)
	Step(action *mat.VecDense) (ts.TimeStep, bool, error)
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}

package cartpole

import (
	"fmt"

	env "github.com/samuelfneumann/energyac/environment"
	ts "github.com/samuelfneumann/energyac/timestep"
	"gonum.org/v1/gonum/mat"
)

const (
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 2
)

// Discrete implements the classic control environment Cartpole with
// discrete actions. Actions are the direction to apply horizontal
// force to the cart:
//
//	Action		Meaning
//	  0			Apply force left
//	  1			Do nothing
//	  2			Apply force right
//
// Discrete implements the environment.Environment interface
type Discrete struct {
	*base
}

// NewDiscrete constructs a new Cartpole environment with discrete
// actions
func NewDiscrete(t env.Task, discount float64) (*Discrete, ts.TimeStep,
	error) {
	base, firstStep, err := newBase(t, discount)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newDiscrete: %v", err)
	}
	return &Discrete{base}, firstStep, nil
}

// ActionSpec returns the action specification of the environment
func (c *Discrete) ActionSpec() env.Spec {
	return env.NewSpec(mat.NewVecDense(ActionDims, nil), env.Action,
		mat.NewVecDense(ActionDims, []float64{float64(MinDiscreteAction)}),
		mat.NewVecDense(ActionDims, []float64{float64(MaxDiscreteAction)}),
		env.Discrete)
}

// Step takes one environmental step given action a and returns the next
// timestep and whether or not the episode has ended. Actions outside
// {0, 1, 2} result in an error.
func (c *Discrete) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if a.Len() != ActionDims {
		return ts.TimeStep{}, false, fmt.Errorf("step: actions should be "+
			"%v-dimensional", ActionDims)
	}

	action := int(a.AtVec(0))
	if float64(action) != a.AtVec(0) || action < MinDiscreteAction ||
		action > MaxDiscreteAction {
		return ts.TimeStep{}, false, fmt.Errorf("step: illegal action %v "+
			"∉ {0, 1, 2}", a.AtVec(0))
	}

	// Convert action (0, 1, 2) to a direction (-1, 0, 1)
	return c.update(a, c.nextState(float64(action-1)))
}

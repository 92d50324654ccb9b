package cartpole

import (
	"fmt"

	env "github.com/samuelfneumann/energyac/environment"
	ts "github.com/samuelfneumann/energyac/timestep"
	"github.com/samuelfneumann/energyac/utils/matutils"
	"gonum.org/v1/gonum/mat"
)

const (
	MinContinuousAction float64 = -1.0
	MaxContinuousAction float64 = 1.0
)

// Continuous implements the classic control environment Cartpole with
// continuous actions. Actions are the force applied to the cart as a
// fraction of ForceMag in [-1, 1]. Actions outside this range are
// clipped.
//
// Continuous implements the environment.Environment interface
type Continuous struct {
	*base
}

// NewContinuous constructs a new Cartpole environment with continuous
// actions
func NewContinuous(t env.Task, discount float64) (*Continuous, ts.TimeStep,
	error) {
	base, firstStep, err := newBase(t, discount)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newContinuous: %v", err)
	}
	return &Continuous{base}, firstStep, nil
}

// ActionSpec returns the action specification of the environment
func (c *Continuous) ActionSpec() env.Spec {
	return env.NewSpec(mat.NewVecDense(ActionDims, nil), env.Action,
		mat.NewVecDense(ActionDims, []float64{MinContinuousAction}),
		mat.NewVecDense(ActionDims, []float64{MaxContinuousAction}),
		env.Continuous)
}

// Step takes one environmental step given action a and returns the next
// timestep and whether or not the episode has ended
func (c *Continuous) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if a.Len() != ActionDims {
		return ts.TimeStep{}, false, fmt.Errorf("step: actions should be "+
			"%v-dimensional", ActionDims)
	}

	spec := c.ActionSpec()
	action := mat.VecDenseCopyOf(a)
	matutils.VecClip(action, spec.LowerBound, spec.UpperBound)

	return c.update(action, c.nextState(action.AtVec(0)))
}

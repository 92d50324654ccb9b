// Package policy implements linear policies that select actions by
// sampling from a distribution parameterized by linear functions of
// the observation
package policy

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/energyac/environment"
	"github.com/samuelfneumann/energyac/initwfn"
	"github.com/samuelfneumann/energyac/utils/matutils"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// StdOffset is added to each standard deviation so that it stays
// positive
const StdOffset float64 = 1e-3

const (
	// Keys for weights map: map[string]*mat.Dense
	MeanWeightsKey string = "mean"
	StdWeightsKey  string = "standard deviation"
)

// Gaussian implements a multi-dimensional linear Gaussian policy.
// Each action dimension is drawn independently from a Normal whose
// mean is a linear function of the observation and whose standard
// deviation is the exponential of a linear function of the
// observation. A bias unit is appended to every observation.
type Gaussian struct {
	meanWeights  *mat.Dense
	stdWeights   *mat.Dense
	features     int
	actionDims   int
	learningRate float64
	source       rand.Source
}

// NewGaussian creates a new Gaussian policy for observations described
// by obsSpec and continuous actions described by actSpec. If init is
// nil, all weights are initialized to zero.
func NewGaussian(obsSpec, actSpec environment.Spec, learningRate float64,
	init *initwfn.InitWFn, seed uint64) (*Gaussian, error) {
	if actSpec.Cardinality != environment.Continuous {
		return nil, fmt.Errorf("newGaussian: actions must be continuous")
	}
	if learningRate <= 0 {
		return nil, fmt.Errorf("newGaussian: learning rate must be positive")
	}

	features := obsSpec.Dims() + 1
	actionDims := actSpec.Dims()

	meanWeights := mat.NewDense(actionDims, features, nil)
	stdWeights := mat.NewDense(actionDims, features, nil)
	if init != nil {
		init.InitDense(meanWeights)
		init.InitDense(stdWeights)
	}

	return &Gaussian{
		meanWeights:  meanWeights,
		stdWeights:   stdWeights,
		features:     features,
		actionDims:   actionDims,
		learningRate: learningRate,
		source:       rand.NewSource(seed),
	}, nil
}

// Mean gets the mean of the policy given some observation x that
// includes the bias unit
func (g *Gaussian) Mean(x mat.Vector) *mat.VecDense {
	mean := mat.NewVecDense(g.actionDims, nil)
	mean.MulVec(g.meanWeights, x)
	return mean
}

// Std gets the standard deviation of the policy given some observation
// x that includes the bias unit
func (g *Gaussian) Std(x mat.Vector) *mat.VecDense {
	std := mat.NewVecDense(g.actionDims, nil)
	std.MulVec(g.stdWeights, x)
	for i := 0; i < std.Len(); i++ {
		std.SetVec(i, math.Exp(std.AtVec(i))+StdOffset)
	}
	return std
}

// GetAction samples an action for each row of state. The log
// probability of each sampled action is returned as a column vector.
func (g *Gaussian) GetAction(state *mat.Dense) (*mat.Dense, *mat.Dense,
	error) {
	x, err := g.withBias(state)
	if err != nil {
		return nil, nil, fmt.Errorf("getAction: %v", err)
	}
	rows, _ := x.Dims()

	action := mat.NewDense(rows, g.actionDims, nil)
	logProb := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		row := x.RowView(i)
		mean, std := g.Mean(row), g.Std(row)

		lp := 0.0
		for j := 0; j < g.actionDims; j++ {
			dist := distuv.Normal{
				Mu:    mean.AtVec(j),
				Sigma: std.AtVec(j),
				Src:   g.source,
			}
			a := dist.Rand()
			action.Set(i, j, a)
			lp += dist.LogProb(a)
		}
		logProb.Set(i, 0, lp)
	}

	return action, logProb, nil
}

// Improve performs one step of gradient ascent on the mean over the
// batch of advantage × log π(action | obs) and returns the negated
// objective, computed before the update, as the loss.
func (g *Gaussian) Improve(obs, actions *mat.Dense,
	advantage *mat.VecDense) (float64, error) {
	x, err := g.withBias(obs)
	if err != nil {
		return 0, fmt.Errorf("improve: %v", err)
	}
	rows, _ := x.Dims()
	if r, c := actions.Dims(); r != rows || c != g.actionDims {
		return 0, fmt.Errorf("improve: invalid action shape (%v, %v)", r, c)
	}
	if advantage.Len() != rows {
		return 0, fmt.Errorf("improve: %v advantages for %v samples",
			advantage.Len(), rows)
	}

	meanGrad := mat.NewDense(g.actionDims, g.features, nil)
	stdGrad := mat.NewDense(g.actionDims, g.features, nil)
	loss := 0.0
	for i := 0; i < rows; i++ {
		row := x.RawRowView(i)
		rowVec := x.RowView(i)
		mean, std := g.Mean(rowVec), g.Std(rowVec)
		δ := advantage.AtVec(i)

		for j := 0; j < g.actionDims; j++ {
			a, μ, σ := actions.At(i, j), mean.AtVec(j), std.AtVec(j)
			loss -= δ * distuv.Normal{Mu: μ, Sigma: σ}.LogProb(a)

			z := (a - μ) / σ
			floats.AddScaled(meanGrad.RawRowView(j), δ*(a-μ)/(σ*σ), row)
			floats.AddScaled(stdGrad.RawRowView(j), δ*(z*z-1), row)
		}
	}

	step := g.learningRate / float64(rows)
	meanGrad.Scale(step, meanGrad)
	stdGrad.Scale(step, stdGrad)
	g.meanWeights.Add(g.meanWeights, meanGrad)
	g.stdWeights.Add(g.stdWeights, stdGrad)

	return loss / float64(rows), nil
}

// Weights gets and returns the weights of the policy
func (g *Gaussian) Weights() map[string]*mat.Dense {
	return map[string]*mat.Dense{
		MeanWeightsKey: g.meanWeights,
		StdWeightsKey:  g.stdWeights,
	}
}

// withBias appends the bias unit to each row of state
func (g *Gaussian) withBias(state *mat.Dense) (*mat.Dense, error) {
	if state == nil {
		return nil, fmt.Errorf("nil state")
	}
	if _, c := state.Dims(); c != g.features-1 {
		return nil, fmt.Errorf("invalid number of features \n\twant(%v)"+
			"\n\thave(%v)", g.features-1, c)
	}
	return matutils.AddBias(state), nil
}

// Package valuefn implements linear state-value function critics
package valuefn

import (
	"fmt"

	"github.com/samuelfneumann/energyac/environment"
	"github.com/samuelfneumann/energyac/initwfn"
	"github.com/samuelfneumann/energyac/utils/matutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Linear implements a linear state-value function v(s) = wᵀ[s, 1]
// learned by semi-gradient descent on the mean squared TD error
type Linear struct {
	weights      *mat.VecDense
	features     int
	learningRate float64
}

// NewLinear returns a new Linear critic for observations described by
// obsSpec. If init is nil, the weights are initialized to zero.
func NewLinear(obsSpec environment.Spec, learningRate float64,
	init *initwfn.InitWFn) (*Linear, error) {
	if obsSpec.Dims() == 0 {
		return nil, fmt.Errorf("newLinear: observations must have at " +
			"least one dimension")
	}
	if learningRate <= 0 {
		return nil, fmt.Errorf("newLinear: learning rate must be positive")
	}

	features := obsSpec.Dims() + 1
	weights := mat.NewDense(1, features, nil)
	if init != nil {
		init.InitDense(weights)
	}

	return &Linear{
		weights:      mat.NewVecDense(features, weights.RawMatrix().Data),
		features:     features,
		learningRate: learningRate,
	}, nil
}

// Predict returns the predicted value of each row of obs
func (l *Linear) Predict(obs *mat.Dense) (*mat.VecDense, error) {
	x, err := l.withBias(obs)
	if err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}
	rows, _ := x.Dims()

	values := mat.NewVecDense(rows, nil)
	values.MulVec(x, l.weights)
	return values, nil
}

// Improve takes one gradient step on the mean squared error between
// the predictions for obs and target. The TD errors and the loss are
// computed before the step.
func (l *Linear) Improve(obs *mat.Dense, target *mat.VecDense) (
	*mat.VecDense, float64, error) {
	x, err := l.withBias(obs)
	if err != nil {
		return nil, 0, fmt.Errorf("improve: %v", err)
	}
	rows, _ := x.Dims()
	if target.Len() != rows {
		return nil, 0, fmt.Errorf("improve: %v targets for %v samples",
			target.Len(), rows)
	}

	values := mat.NewVecDense(rows, nil)
	values.MulVec(x, l.weights)

	tdError := mat.NewVecDense(rows, nil)
	tdError.SubVec(target, values)

	squared := mat.NewVecDense(rows, nil)
	squared.MulElemVec(tdError, tdError)
	loss := stat.Mean(squared.RawVector().Data, nil)

	// w ← w + α/N Xᵀδ
	grad := mat.NewVecDense(l.features, nil)
	grad.MulVec(x.T(), tdError)
	l.weights.AddScaledVec(l.weights, l.learningRate/float64(rows), grad)

	return tdError, loss, nil
}

// Weights returns the weights of the critic, the bias last
func (l *Linear) Weights() *mat.VecDense {
	return l.weights
}

func (l *Linear) withBias(obs *mat.Dense) (*mat.Dense, error) {
	if obs == nil {
		return nil, fmt.Errorf("nil observations")
	}
	if _, c := obs.Dims(); c != l.features-1 {
		return nil, fmt.Errorf("invalid number of features \n\twant(%v)"+
			"\n\thave(%v)", l.features-1, c)
	}
	return matutils.AddBias(obs), nil
}

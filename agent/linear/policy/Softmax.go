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

// PreferenceWeightsKey is the key of the action preference weights
const PreferenceWeightsKey string = "preferences"

// Softmax implements a linear softmax policy over a single dimensional
// discrete action. The preference of each action is a linear function
// of the observation with an appended bias unit. Actions are
// represented by their value, the lower bound of the action Spec plus
// the index of the action.
type Softmax struct {
	weights      *mat.Dense
	features     int
	actions      int
	lowAction    float64
	learningRate float64
	source       rand.Source
}

// NewSoftmax creates a new Softmax policy for observations described
// by obsSpec and discrete actions described by actSpec. If init is
// nil, all weights are initialized to zero.
func NewSoftmax(obsSpec, actSpec environment.Spec, learningRate float64,
	init *initwfn.InitWFn, seed uint64) (*Softmax, error) {
	actions, err := actSpec.Categories()
	if err != nil {
		return nil, fmt.Errorf("newSoftmax: %v", err)
	}
	if learningRate <= 0 {
		return nil, fmt.Errorf("newSoftmax: learning rate must be positive")
	}

	features := obsSpec.Dims() + 1
	weights := mat.NewDense(actions, features, nil)
	if init != nil {
		init.InitDense(weights)
	}

	return &Softmax{
		weights:      weights,
		features:     features,
		actions:      actions,
		lowAction:    actSpec.LowerBound.AtVec(0),
		learningRate: learningRate,
		source:       rand.NewSource(seed),
	}, nil
}

// LogProbabilities returns the log probability of each action given
// some observation x that includes the bias unit
func (s *Softmax) LogProbabilities(x mat.Vector) []float64 {
	prefs := mat.NewVecDense(s.actions, nil)
	prefs.MulVec(s.weights, x)

	logProbs := make([]float64, s.actions)
	copy(logProbs, prefs.RawVector().Data)
	floats.AddConst(-floats.LogSumExp(logProbs), logProbs)
	return logProbs
}

// GetAction samples an action for each row of state. The log
// probability of each sampled action is returned as a column vector.
func (s *Softmax) GetAction(state *mat.Dense) (*mat.Dense, *mat.Dense,
	error) {
	x, err := s.withBias(state)
	if err != nil {
		return nil, nil, fmt.Errorf("getAction: %v", err)
	}
	rows, _ := x.Dims()

	action := mat.NewDense(rows, 1, nil)
	logProb := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		logProbs := s.LogProbabilities(x.RowView(i))
		probs := make([]float64, len(logProbs))
		for k, lp := range logProbs {
			probs[k] = math.Exp(lp)
		}

		index := int(distuv.NewCategorical(probs, s.source).Rand())
		action.Set(i, 0, s.lowAction+float64(index))
		logProb.Set(i, 0, logProbs[index])
	}

	return action, logProb, nil
}

// Improve performs one step of gradient ascent on the mean over the
// batch of advantage × log π(action | obs) and returns the negated
// objective, computed before the update, as the loss.
func (s *Softmax) Improve(obs, actions *mat.Dense,
	advantage *mat.VecDense) (float64, error) {
	x, err := s.withBias(obs)
	if err != nil {
		return 0, fmt.Errorf("improve: %v", err)
	}
	rows, _ := x.Dims()
	if r, c := actions.Dims(); r != rows || c != 1 {
		return 0, fmt.Errorf("improve: invalid action shape (%v, %v)", r, c)
	}
	if advantage.Len() != rows {
		return 0, fmt.Errorf("improve: %v advantages for %v samples",
			advantage.Len(), rows)
	}

	grad := mat.NewDense(s.actions, s.features, nil)
	loss := 0.0
	for i := 0; i < rows; i++ {
		index := int(math.Round(actions.At(i, 0) - s.lowAction))
		if index < 0 || index >= s.actions {
			return 0, fmt.Errorf("improve: illegal action %v",
				actions.At(i, 0))
		}

		row := x.RawRowView(i)
		logProbs := s.LogProbabilities(x.RowView(i))
		δ := advantage.AtVec(i)
		loss -= δ * logProbs[index]

		// ∇ log π(a|s) = (1{k = a} - π(k|s)) x for the weights of action k
		for k := 0; k < s.actions; k++ {
			scale := -math.Exp(logProbs[k])
			if k == index {
				scale += 1
			}
			floats.AddScaled(grad.RawRowView(k), δ*scale, row)
		}
	}

	grad.Scale(s.learningRate/float64(rows), grad)
	s.weights.Add(s.weights, grad)

	return loss / float64(rows), nil
}

// Weights gets and returns the weights of the policy
func (s *Softmax) Weights() map[string]*mat.Dense {
	return map[string]*mat.Dense{PreferenceWeightsKey: s.weights}
}

func (s *Softmax) withBias(state *mat.Dense) (*mat.Dense, error) {
	if state == nil {
		return nil, fmt.Errorf("nil state")
	}
	if _, c := state.Dims(); c != s.features-1 {
		return nil, fmt.Errorf("invalid number of features \n\twant(%v)"+
			"\n\thave(%v)", s.features-1, c)
	}
	return matutils.AddBias(state), nil
}

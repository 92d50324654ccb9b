package valuefn

import (
	"math"
	"testing"

	"github.com/samuelfneumann/energyac/environment"
	"gonum.org/v1/gonum/mat"
)

func newLinear(t *testing.T) *Linear {
	t.Helper()
	obs := environment.NewSpec(mat.NewVecDense(2, nil), environment.Observation,
		mat.NewVecDense(2, []float64{0, 0}), mat.NewVecDense(2, []float64{1, 1}),
		environment.Continuous)

	l, err := NewLinear(obs, 0.5, nil)
	if err != nil {
		t.Fatalf("newLinear: %v", err)
	}
	return l
}

func TestLinearImprove(t *testing.T) {
	l := newLinear(t)
	obs := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	target := mat.NewVecDense(2, []float64{1, 2})

	pred, err := l.Predict(obs)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if pred.AtVec(0) != 0 || pred.AtVec(1) != 0 {
		t.Errorf("predict: zero weights predicted %v", pred.RawVector().Data)
	}

	tdError, loss, err := l.Improve(obs, target)
	if err != nil {
		t.Fatalf("improve: %v", err)
	}
	if !mat.Equal(tdError, target) {
		t.Errorf("improve: td error want(%v) have(%v)",
			target.RawVector().Data, tdError.RawVector().Data)
	}
	if loss != 2.5 {
		t.Errorf("improve: loss want(2.5) have(%v)", loss)
	}

	want := []float64{0.25, 0.5, 0.75}
	for i, w := range want {
		if have := l.Weights().AtVec(i); math.Abs(have-w) > 1e-12 {
			t.Errorf("improve: weight %v want(%v) have(%v)", i, w, have)
		}
	}

	pred, err = l.Predict(obs)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if pred.AtVec(0) != 1.0 || pred.AtVec(1) != 1.25 {
		t.Errorf("predict: want([1 1.25]) have(%v)", pred.RawVector().Data)
	}
}

func TestLinearInvalid(t *testing.T) {
	l := newLinear(t)
	if _, err := l.Predict(mat.NewDense(1, 3, nil)); err == nil {
		t.Error("predict: expected error for wrong number of features")
	}
	if _, _, err := l.Improve(mat.NewDense(2, 2, nil),
		mat.NewVecDense(3, nil)); err == nil {
		t.Error("improve: expected error for mismatched targets")
	}
}

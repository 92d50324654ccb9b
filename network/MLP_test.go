package network

import (
	"encoding/json"
	"testing"

	G "gorgonia.org/gorgonia"
)

func TestNewMLPInvalid(t *testing.T) {
	g := G.NewGraph()
	if _, err := NewMLP(2, 1, 1, g, []int{4}, []bool{true}, G.Zeroes(),
		nil); err == nil {
		t.Error("newMLP: expected error for missing activations")
	}
	if _, err := NewMLP(2, 1, 1, g, []int{4}, nil, G.Zeroes(),
		[]*Activation{ReLU()}); err == nil {
		t.Error("newMLP: expected error for missing biases")
	}
}

func TestMLPForward(t *testing.T) {
	g := G.NewGraph()
	net, err := NewSingleHeadMLP(3, 2, g, []int{4, 4}, []bool{true, true},
		G.Ones(), []*Activation{ReLU(), ReLU()})
	if err != nil {
		t.Fatalf("newSingleHeadMLP: %v", err)
	}

	// Weights of ones and zero biases: each hidden unit holds the sum of
	// its inputs
	if err := net.SetInput([]float64{1, 1, 1, 0, 1, 2}); err != nil {
		t.Fatalf("setInput: %v", err)
	}
	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatalf("runAll: %v", err)
	}

	out := net.Output().Data().([]float64)
	want := []float64{48, 48}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("output: want(%v) have(%v)", want, out)
			break
		}
	}

	if n := len(net.Learnables()); n != 6 {
		t.Errorf("learnables: want(6) have(%v)", n)
	}
	if err := net.SetInput([]float64{1}); err == nil {
		t.Error("setInput: expected error for wrong input size")
	}
}

func TestActivationJSON(t *testing.T) {
	acts := []*Activation{}
	if err := json.Unmarshal([]byte(`["relu", "tanh", "sigmoid"]`),
		&acts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for i, want := range []string{"relu", "tanh", "sigmoid"} {
		if acts[i].String() != want {
			t.Errorf("unmarshal: want(%v) have(%v)", want, acts[i])
		}
	}

	var act Activation
	if err := json.Unmarshal([]byte(`"softplus"`), &act); err == nil {
		t.Error("unmarshal: expected error for unknown activation")
	}
}

func TestSet(t *testing.T) {
	src, err := NewSingleHeadMLP(3, 2, G.NewGraph(), []int{4}, []bool{true},
		G.Ones(), []*Activation{ReLU()})
	if err != nil {
		t.Fatalf("newSingleHeadMLP: %v", err)
	}
	dst, err := NewSingleHeadMLP(3, 1, G.NewGraph(), []int{4}, []bool{true},
		G.Zeroes(), []*Activation{ReLU()})
	if err != nil {
		t.Fatalf("newSingleHeadMLP: %v", err)
	}

	if err := Set(dst, src); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := dst.SetInput([]float64{1, 1, 1}); err != nil {
		t.Fatalf("setInput: %v", err)
	}
	vm := G.NewTapeMachine(dst.Graph())
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatalf("runAll: %v", err)
	}

	// Weights of ones: each hidden unit holds 3, and the output 4 * 3
	if out := dst.Output().Data().([]float64)[0]; out != 12 {
		t.Errorf("set: want(12) have(%v)", out)
	}

	// Copies do not alias the source weights
	w := src.Learnables()[0].Value().Data().([]float64)
	w[0] = 100
	if have := dst.Learnables()[0].Value().Data().([]float64)[0]; have != 1 {
		t.Errorf("set: weights alias the source, have %v", have)
	}

	other, err := NewSingleHeadMLP(3, 1, G.NewGraph(), []int{5}, []bool{true},
		G.Zeroes(), []*Activation{ReLU()})
	if err != nil {
		t.Fatalf("newSingleHeadMLP: %v", err)
	}
	if err := Set(other, src); err == nil {
		t.Error("set: expected error for mismatched architecture")
	}
}

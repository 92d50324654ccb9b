// Package valuefn implements state-value function critics that use
// neural network function approximation
package valuefn

import (
	"fmt"

	"github.com/samuelfneumann/energyac/environment"
	"github.com/samuelfneumann/energyac/initwfn"
	"github.com/samuelfneumann/energyac/network"
	"github.com/samuelfneumann/energyac/solver"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// MLP implements a state-value function approximated by a multi-layered
// perceptron, learned by minimizing the squared error between its
// predictions and given targets.
//
// Predictions and updates use separate networks with the same
// architecture. Only the training network has gradients bound to its
// VM, and the prediction network is synced to it after each update.
// Both networks are built for a single sample: batches are predicted
// row by row, and updates step the solver once per sample.
type MLP struct {
	net network.NeuralNet
	vm  G.VM

	trainNet network.NeuralNet
	trainVM  G.VM
	solver   *solver.Solver
	target   *G.Node

	features int
}

// NewMLP returns a new MLP critic for observations described by
// obsSpec. Every hidden layer has a bias unit. The weights are
// initialized with init and updated with s, which must be configured
// with a batch size of 1.
func NewMLP(obsSpec environment.Spec, hiddenSizes []int,
	activations []*network.Activation, init *initwfn.InitWFn,
	s *solver.Solver) (*MLP, error) {
	if init == nil || s == nil {
		return nil, fmt.Errorf("newMLP: initializer and solver must be set")
	}

	features := obsSpec.Dims()
	biases := make([]bool, len(hiddenSizes))
	for i := range biases {
		biases[i] = true
	}

	// Create the prediction value function
	net, err := network.NewSingleHeadMLP(features, 1, G.NewGraph(),
		hiddenSizes, biases, init.InitWFn(), activations)
	if err != nil {
		return nil, fmt.Errorf("newMLP: could not create network: %v", err)
	}
	vm := G.NewTapeMachine(net.Graph())

	// Create the training value function
	trainNet, err := network.NewSingleHeadMLP(features, 1, G.NewGraph(),
		hiddenSizes, biases, init.InitWFn(), activations)
	if err != nil {
		vm.Close()
		return nil, fmt.Errorf("newMLP: could not create train network: %v",
			err)
	}

	// Squared error loss
	target := G.NewMatrix(
		trainNet.Graph(),
		tensor.Float64,
		G.WithShape(trainNet.Prediction().Shape()...),
		G.WithName("ValueFunctionTarget"),
		G.WithInit(G.Zeroes()),
	)
	loss := G.Must(G.Sub(trainNet.Prediction(), target))
	loss = G.Must(G.Square(loss))
	loss = G.Must(G.Mean(loss))

	if _, err := G.Grad(loss, trainNet.Learnables()...); err != nil {
		vm.Close()
		return nil, fmt.Errorf("newMLP: could not compute value function "+
			"gradient: %v", err)
	}
	trainVM := G.NewTapeMachine(trainNet.Graph(),
		G.BindDualValues(trainNet.Learnables()...))

	if err := network.Set(net, trainNet); err != nil {
		vm.Close()
		trainVM.Close()
		return nil, fmt.Errorf("newMLP: %v", err)
	}

	return &MLP{
		net:      net,
		vm:       vm,
		trainNet: trainNet,
		trainVM:  trainVM,
		solver:   s,
		target:   target,
		features: features,
	}, nil
}

// Predict returns the predicted value of each row of obs
func (m *MLP) Predict(obs *mat.Dense) (*mat.VecDense, error) {
	if obs == nil {
		return nil, fmt.Errorf("predict: nil observations")
	}
	rows, cols := obs.Dims()
	if cols != m.features {
		return nil, fmt.Errorf("predict: invalid number of features "+
			"\n\twant(%v)\n\thave(%v)", m.features, cols)
	}

	values := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		v, err := m.predict(obs.RawRowView(i))
		if err != nil {
			return nil, fmt.Errorf("predict: %v", err)
		}
		values.SetVec(i, v)
	}
	return values, nil
}

// Improve moves the predictions for obs toward target. The TD errors
// and the mean squared error loss are computed before any update.
func (m *MLP) Improve(obs *mat.Dense, target *mat.VecDense) (*mat.VecDense,
	float64, error) {
	values, err := m.Predict(obs)
	if err != nil {
		return nil, 0, fmt.Errorf("improve: %v", err)
	}
	rows := values.Len()
	if target.Len() != rows {
		return nil, 0, fmt.Errorf("improve: %v targets for %v samples",
			target.Len(), rows)
	}

	tdError := mat.NewVecDense(rows, nil)
	tdError.SubVec(target, values)
	squared := mat.NewVecDense(rows, nil)
	squared.MulElemVec(tdError, tdError)
	loss := stat.Mean(squared.RawVector().Data, nil)

	for i := 0; i < rows; i++ {
		err := m.train(obs.RawRowView(i), target.AtVec(i))
		m.trainVM.Reset()
		if err != nil {
			return nil, 0, fmt.Errorf("improve: %v", err)
		}
	}

	if err := network.Set(m.net, m.trainNet); err != nil {
		return nil, 0, fmt.Errorf("improve: could not sync prediction "+
			"network: %v", err)
	}

	return tdError, loss, nil
}

// Close releases the resources held by the VMs
func (m *MLP) Close() error {
	trainErr := m.trainVM.Close()
	if err := m.vm.Close(); err != nil {
		return err
	}
	return trainErr
}

// predict runs the prediction network on a single observation
func (m *MLP) predict(obs []float64) (float64, error) {
	defer m.vm.Reset()

	if err := m.net.SetInput(copyObs(obs)); err != nil {
		return 0, err
	}
	if err := m.vm.RunAll(); err != nil {
		return 0, err
	}
	return m.net.Output().Data().([]float64)[0], nil
}

// train runs the training network on a single observation with the
// given target and steps the solver along the resulting gradient
func (m *MLP) train(obs []float64, target float64) error {
	if err := m.trainNet.SetInput(copyObs(obs)); err != nil {
		return err
	}

	targetTensor := tensor.New(
		tensor.WithShape(m.target.Shape()...),
		tensor.WithBacking([]float64{target}),
	)
	if err := G.Let(m.target, targetTensor); err != nil {
		return err
	}

	if err := m.trainVM.RunAll(); err != nil {
		return err
	}
	if err := m.solver.Step(m.trainNet.Model()); err != nil {
		return fmt.Errorf("could not step solver: %v", err)
	}
	return nil
}

// copyObs copies obs so the network input does not alias the caller's
// matrix
func copyObs(obs []float64) []float64 {
	input := make([]float64, len(obs))
	copy(input, obs)
	return input
}

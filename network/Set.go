package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Set sets the weights of dst to a copy of the weights of src. The two
// networks must have the same architecture but may live on different
// graphs and use different batch sizes.
func Set(dst, src NeuralNet) error {
	dstLearnables := dst.Learnables()
	srcLearnables := src.Learnables()
	if len(dstLearnables) != len(srcLearnables) {
		return fmt.Errorf("set: invalid number of learnables\n\twant(%v)"+
			"\n\thave(%v)", len(srcLearnables), len(dstLearnables))
	}

	for i := range dstLearnables {
		if !dstLearnables[i].Shape().Eq(srcLearnables[i].Shape()) {
			return fmt.Errorf("set: learnable %v has shape %v, want %v", i,
				dstLearnables[i].Shape(), srcLearnables[i].Shape())
		}
		weights, ok := srcLearnables[i].Value().(tensor.Tensor)
		if !ok {
			return fmt.Errorf("set: learnable %v has no tensor value", i)
		}
		if err := G.Let(dstLearnables[i], weights.Clone()); err != nil {
			return fmt.Errorf("set: could not set learnable %v: %v", i, err)
		}
	}
	return nil
}

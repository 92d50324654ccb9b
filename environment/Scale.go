package environment

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Scale maps the raw values of x into the normalized range [0, 1]
// expected by approximators, using the bounds of the Spec s:
//
//	scaled[i] = (x[i] - low[i]) / (high[i] - low[i])
//
// For discrete Specs the bounds are the first and last category, so
// categories are spread evenly over [0, 1]. Dimensions whose bounds
// do not define a finite, non-zero span (e.g. unbounded velocities)
// are passed through unchanged.
func Scale(x mat.Vector, s Spec) (*mat.VecDense, error) {
	if x.Len() != s.Dims() {
		return nil, fmt.Errorf("scale: invalid number of dimensions "+
			"\n\twant(%v)\n\thave(%v)", s.Dims(), x.Len())
	}

	scaled := mat.NewVecDense(x.Len(), nil)
	for i := 0; i < x.Len(); i++ {
		scaled.SetVec(i, scaleValue(x.AtVec(i), s.LowerBound.AtVec(i),
			s.UpperBound.AtVec(i)))
	}
	return scaled, nil
}

// ScaleRows scales each row of a batch with leading sample dimension
// using Scale
func ScaleRows(x mat.Matrix, s Spec) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if cols != s.Dims() {
		return nil, fmt.Errorf("scaleRows: invalid number of columns "+
			"\n\twant(%v)\n\thave(%v)", s.Dims(), cols)
	}

	scaled := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			scaled.Set(r, c, scaleValue(x.At(r, c), s.LowerBound.AtVec(c),
				s.UpperBound.AtVec(c)))
		}
	}
	return scaled, nil
}

func scaleValue(value, low, high float64) float64 {
	span := high - low
	if math.IsInf(span, 0) || math.IsNaN(span) || span == 0 {
		return value
	}
	return (value - low) / span
}

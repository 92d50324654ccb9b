// Package matutils implements utility function for working with mat.Matrix
// structs
package matutils

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Format formats a matrix for printing
func Format(X mat.Matrix) string {
	fa := mat.Formatted(X, mat.Prefix(""), mat.Squeeze())
	return fmt.Sprintf("%v", fa)
}

// AddBias returns a copy of X with a column of ones appended, so that
// the last weight of a linear function of the rows acts as a bias
func AddBias(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	out := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(i, j))
		}
		out.Set(i, c, 1.0)
	}
	return out
}

// RowVector returns a (1, n) matrix holding a copy of the data of v
func RowVector(v mat.Vector) *mat.Dense {
	data := make([]float64, v.Len())
	for i := range data {
		data[i] = v.AtVec(i)
	}
	return mat.NewDense(1, len(data), data)
}

// VecClip performs an element-wise clipping of a vector's values such
// that each value of a is within the bounds given by min and max
func VecClip(a *mat.VecDense, min, max mat.Vector) {
	for i := 0; i < a.Len(); i++ {
		value := a.AtVec(i)

		if value < min.AtVec(i) {
			a.SetVec(i, min.AtVec(i))
		} else if value > max.AtVec(i) {
			a.SetVec(i, max.AtVec(i))
		}
	}
}

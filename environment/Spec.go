package environment

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an action, an observation, a discount, or a
// reward
type SpecType int

const (
	Action SpecType = iota
	Observation
	Discount
	Reward
)

// Cardinality determines the cardinality of a number (discrete or continuous)
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec implements an environment specification, which tells the type,
// shape, and bounds of an action, observation, discount, or reward in
// an environment. Specs are the space descriptors that approximators
// and scaling functions use to learn about the data they are given.
type Spec struct {
	Shape      mat.Vector
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality
}

// NewSpec constructs a new environment specification
// The shape argument outlines the shape of the data described by the
// specification. The argument t outlines what the specification is
// describing (e.g. actions, observations, etc.). The cardinality
// arguments describes whether the values that the spec describes are
// continuous or discrete.
func NewSpec(shape mat.Vector, t SpecType, lowerBound,
	upperBound mat.Vector, cardinality Cardinality) Spec {
	if shape.Len() != lowerBound.Len() {
		panic(fmt.Sprintf("shape length %v must match lower bounds length %v",
			shape.Len(), lowerBound.Len()))
	}
	if shape.Len() != upperBound.Len() {
		panic(fmt.Sprintf("shape length %v must match upper bounds length %v",
			shape.Len(), upperBound.Len()))
	}
	return Spec{shape, t, lowerBound, upperBound, cardinality}
}

// Dims returns the dimensionality of the data described by the Spec
func (s Spec) Dims() int {
	if s.Shape == nil {
		return 0
	}
	return s.Shape.Len()
}

// Categories returns the number of distinct values that a single
// dimensional discrete Spec can take on. For example, a Spec with
// lower bound 0 and upper bound 2 has the 3 categories {0, 1, 2}.
func (s Spec) Categories() (int, error) {
	if s.Cardinality != Discrete {
		return 0, fmt.Errorf("categories: spec is not discrete")
	}
	if s.Dims() != 1 {
		return 0, fmt.Errorf("categories: only 1-dimensional discrete "+
			"specs are supported, have %v dimensions", s.Dims())
	}

	low, high := s.LowerBound.AtVec(0), s.UpperBound.AtVec(0)
	if math.IsInf(low, 0) || math.IsInf(high, 0) || high < low {
		return 0, fmt.Errorf("categories: illegal bounds [%v, %v]", low, high)
	}
	return int(high-low) + 1, nil
}

package memory

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ReturnStats summarizes a sequence of returns
type ReturnStats struct {
	Sum  float64
	Mean float64
	Std  float64 // Population standard deviation
}

// SummarizeReturns computes the sum, mean, and population standard
// deviation of a sequence of returns. The zero ReturnStats is
// returned for an empty sequence.
func SummarizeReturns(returns []float64) ReturnStats {
	if len(returns) == 0 {
		return ReturnStats{}
	}
	return ReturnStats{
		Sum:  floats.Sum(returns),
		Mean: stat.Mean(returns, nil),
		Std:  math.Sqrt(stat.Moment(2, returns, nil)),
	}
}

// CalculateReturns computes the discounted Monte Carlo return of each
// reward in a sequence of rewards using the recurrence
//
//	R_t = r_t + ℽ R_(t+1)
//
// starting from R = 0 after the last reward. The returned slice is
// aligned with rewards. Statistics of the returns are logged before
// any scaling is applied by callers.
func (m *Memory) CalculateReturns(rewards []float64) []float64 {
	returns := make([]float64, len(rewards))

	R := 0.0
	for t := len(rewards) - 1; t >= 0; t-- {
		R = rewards[t] + m.discount*R
		returns[t] = R
	}

	if len(returns) > 0 {
		stats := SummarizeReturns(returns)
		m.logger.Info("returns before scaling", "total", stats.Sum,
			"mean", stats.Mean)
		m.logger.Debug("returns before scaling", "std", stats.Std)
	}

	return returns
}

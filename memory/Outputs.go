package memory

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// RollingFraction is the fraction of the number of episodes used as
// the window of the rolling statistics in an EpisodeTable
const RollingFraction float64 = 0.1

// StepTable holds all stored experience, one row per step, column by
// column
type StepTable struct {
	Episode         []int
	Step            []int
	Observation     [][]float64
	Action          [][]float64
	Reward          []float64
	NextObservation [][]float64
	Terminal        []bool
}

// Len returns the number of rows in the table
func (s StepTable) Len() int {
	return len(s.Episode)
}

// EpisodeTable aggregates a StepTable by episode, in ascending order of
// episode. Reward, Terminal, and Step are sums over the steps of each
// episode and Steps is the number of steps. CumMaxReward is the
// running maximum of Reward, and RollingMean and RollingStd are
// rolling statistics of Reward over a window of
// max(1, ⌊0.1 × episodes⌋) episodes, using as many episodes as are
// available at the start of the table.
type EpisodeTable struct {
	Episode  []int
	Steps    []int
	Reward   []float64
	Terminal []int
	Step     []int

	CumMaxReward []float64
	RollingMean  []float64
	RollingStd   []float64
}

// Len returns the number of rows in the table
func (e EpisodeTable) Len() int {
	return len(e.Episode)
}

// Outputs is the aggregation of the contents of a Memory
type Outputs struct {
	Info     *Info
	Steps    StepTable
	Episodes EpisodeTable
}

// Outputs returns the outputs last computed by OutputResults
func (m *Memory) Outputs() *Outputs {
	return m.outputs
}

// OutputResults aggregates the Memory into a step level table and an
// episode level table. The outputs are recomputed from scratch on
// each call, so calling OutputResults repeatedly without adding
// experience produces identical outputs.
func (m *Memory) OutputResults() *Outputs {
	steps := stepTable(m.experiences)
	m.outputs = &Outputs{
		Info:     m.info.clone(),
		Steps:    steps,
		Episodes: episodeTable(steps),
	}
	return m.outputs
}

func stepTable(experiences []Experience) StepTable {
	n := len(experiences)
	table := StepTable{
		Episode:         make([]int, n),
		Step:            make([]int, n),
		Observation:     make([][]float64, n),
		Action:          make([][]float64, n),
		Reward:          make([]float64, n),
		NextObservation: make([][]float64, n),
		Terminal:        make([]bool, n),
	}

	for i, exp := range experiences {
		table.Episode[i] = exp.Episode
		table.Step[i] = exp.Step
		table.Observation[i] = append([]float64(nil), exp.Observation...)
		table.Action[i] = append([]float64(nil), exp.Action...)
		table.Reward[i] = exp.Reward
		table.NextObservation[i] = append([]float64(nil),
			exp.NextObservation...)
		table.Terminal[i] = exp.Terminal
	}
	return table
}

func episodeTable(steps StepTable) EpisodeTable {
	// Group rows by episode in ascending episode order
	index := make(map[int]int)
	var episodes []int
	for _, ep := range steps.Episode {
		if _, ok := index[ep]; !ok {
			index[ep] = 0
			episodes = append(episodes, ep)
		}
	}
	sort.Ints(episodes)
	for i, ep := range episodes {
		index[ep] = i
	}

	n := len(episodes)
	table := EpisodeTable{
		Episode:  episodes,
		Steps:    make([]int, n),
		Reward:   make([]float64, n),
		Terminal: make([]int, n),
		Step:     make([]int, n),
	}
	for i := 0; i < steps.Len(); i++ {
		row := index[steps.Episode[i]]
		table.Steps[row]++
		table.Reward[row] += steps.Reward[i]
		table.Step[row] += steps.Step[i]
		if steps.Terminal[i] {
			table.Terminal[row]++
		}
	}

	table.CumMaxReward = cumMax(table.Reward)

	window := int(math.Floor(RollingFraction * float64(n)))
	if window < 1 {
		window = 1
	}
	table.RollingMean, table.RollingStd = rolling(table.Reward, window)

	return table
}

// cumMax returns the running maximum of x
func cumMax(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		if i > 0 && out[i-1] > v {
			v = out[i-1]
		}
		out[i] = v
	}
	return out
}

// rolling computes the rolling mean and sample standard deviation of x
// with a trailing window of the given size. Windows at the start of x
// use the values available. A window holding a single value has a
// standard deviation of 0.
func rolling(x []float64, window int) (mean, std []float64) {
	mean = make([]float64, len(x))
	std = make([]float64, len(x))

	for i := range x {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		values := x[start : i+1]

		if len(values) == 1 {
			mean[i] = values[0]
			continue
		}
		mean[i], std[i] = stat.MeanStdDev(values, nil)
	}
	return mean, std
}

package memory

import "gonum.org/v1/gonum/mat"

// Experience is a single step of interaction with an environment:
// the agent observed Observation, took Action, received Reward and
// moved to NextObservation. Step and Episode index the step within
// its episode and the episode within the run.
type Experience struct {
	Observation     []float64
	Action          []float64
	Reward          float64
	NextObservation []float64
	Terminal        bool
	Step            int
	Episode         int
}

// width returns the number of values in the flattened Experience
func (e Experience) width() int {
	return 2*len(e.Observation) + len(e.Action) + 4
}

// flatten returns the Experience as a single row laid out as:
//
//	[observation..., action..., reward, next observation..., terminal,
//	step, episode]
//
// with terminal encoded as 1 for true and 0 for false.
func (e Experience) flatten() []float64 {
	row := make([]float64, 0, e.width())
	row = append(row, e.Observation...)
	row = append(row, e.Action...)
	row = append(row, e.Reward)
	row = append(row, e.NextObservation...)
	row = append(row, boolToFloat(e.Terminal), float64(e.Step),
		float64(e.Episode))
	return row
}

// RowWidth returns the width of a flattened Experience with
// observations of obsDim dimensions and actions of actDim dimensions
func RowWidth(obsDim, actDim int) int {
	return 2*obsDim + actDim + 4
}

// ParseRow is the inverse of the flattening used by RawBatch rows.
// The returned Experience does not share memory with row.
func ParseRow(row []float64, obsDim, actDim int) Experience {
	obs := make([]float64, obsDim)
	copy(obs, row[:obsDim])
	act := make([]float64, actDim)
	copy(act, row[obsDim:obsDim+actDim])

	pos := obsDim + actDim
	reward := row[pos]
	pos++

	next := make([]float64, obsDim)
	copy(next, row[pos:pos+obsDim])
	pos += obsDim

	return Experience{
		Observation:     obs,
		Action:          act,
		Reward:          reward,
		NextObservation: next,
		Terminal:        row[pos] != 0,
		Step:            int(row[pos+1]),
		Episode:         int(row[pos+2]),
	}
}

// vecData copies the data of a vector into a new slice
func vecData(v mat.Vector) []float64 {
	if v == nil {
		return []float64{}
	}
	data := make([]float64, v.Len())
	for i := range data {
		data[i] = v.AtVec(i)
	}
	return data
}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

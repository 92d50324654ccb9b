package memory

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Batch is a view of the experience of a single episode decomposed
// into parallel arrays with a leading sample dimension:
//
//	Observations	(N × observation dimensions)
//	Actions		(N × action dimensions)
//	Rewards		(N × 1)
//
// All three arrays have the same number of rows and contain no NaN.
type Batch struct {
	Observations *mat.Dense
	Actions      *mat.Dense
	Rewards      *mat.Dense
}

// Len returns the number of samples in the Batch
func (b *Batch) Len() int {
	if b == nil || b.Rewards == nil {
		return 0
	}
	r, _ := b.Rewards.Dims()
	return r
}

// newBatch reshapes the concatenated observations, actions, and
// rewards of a number of experiences into a Batch, validating the
// Batch invariants
func newBatch(obs, act, rew []float64, obsDim, actDim int) (*Batch, error) {
	if obsDim <= 0 || len(obs)%obsDim != 0 {
		return nil, fmt.Errorf("observations: %w: %v values do not "+
			"reshape into rows of %v", errRowMismatch, len(obs), obsDim)
	}
	if actDim <= 0 || len(act)%actDim != 0 {
		return nil, fmt.Errorf("actions: %w: %v values do not reshape "+
			"into rows of %v", errRowMismatch, len(act), actDim)
	}

	obsRows := len(obs) / obsDim
	actRows := len(act) / actDim
	if obsRows != actRows || obsRows != len(rew) {
		return nil, fmt.Errorf("%w: observations(%v) actions(%v) "+
			"rewards(%v)", errRowMismatch, obsRows, actRows, len(rew))
	}

	if floats.HasNaN(obs) {
		return nil, fmt.Errorf("observations: %w", errNaN)
	}
	if floats.HasNaN(act) {
		return nil, fmt.Errorf("actions: %w", errNaN)
	}
	if floats.HasNaN(rew) {
		return nil, fmt.Errorf("rewards: %w", errNaN)
	}

	return &Batch{
		Observations: mat.NewDense(obsRows, obsDim, obs),
		Actions:      mat.NewDense(actRows, actDim, act),
		Rewards:      mat.NewDense(len(rew), 1, rew),
	}, nil
}

// RawBatch is a batch of flattened experience rows of shape
// (samples, width), as drawn by Memory.GetRandomBatch. Each row is
// laid out as:
//
//	[observation..., action..., reward, next observation..., terminal,
//	step, episode]
//
// Unlike a Batch, a RawBatch may be empty.
type RawBatch struct {
	data   []float64
	rows   int
	obsDim int
	actDim int
}

// Len returns the number of rows in the RawBatch
func (r *RawBatch) Len() int {
	return r.rows
}

// Width returns the number of columns of the RawBatch
func (r *RawBatch) Width() int {
	return RowWidth(r.obsDim, r.actDim)
}

// Data returns the row-major backing data of the RawBatch
func (r *RawBatch) Data() []float64 {
	return r.data
}

// Dense returns the RawBatch as a matrix, or nil if the RawBatch is
// empty
func (r *RawBatch) Dense() *mat.Dense {
	if r.rows == 0 {
		return nil
	}
	return mat.NewDense(r.rows, r.Width(), r.data)
}

// Row returns row i of the RawBatch
func (r *RawBatch) Row(i int) []float64 {
	w := r.Width()
	return r.data[i*w : (i+1)*w]
}

// Experience decodes row i of the RawBatch
func (r *RawBatch) Experience(i int) Experience {
	return ParseRow(r.Row(i), r.obsDim, r.actDim)
}

// Split decomposes a non-empty RawBatch into observations, actions,
// rewards, and next observations with a leading sample dimension, in
// the form consumed by learning algorithms.
func (r *RawBatch) Split() (obs, act, rew, nextObs *mat.Dense, err error) {
	if r.rows == 0 {
		return nil, nil, nil, nil, fmt.Errorf("split: empty batch")
	}

	obs = mat.NewDense(r.rows, r.obsDim, nil)
	act = mat.NewDense(r.rows, r.actDim, nil)
	rew = mat.NewDense(r.rows, 1, nil)
	nextObs = mat.NewDense(r.rows, r.obsDim, nil)

	for i := 0; i < r.rows; i++ {
		exp := r.Experience(i)
		obs.SetRow(i, exp.Observation)
		act.SetRow(i, exp.Action)
		rew.Set(i, 0, exp.Reward)
		nextObs.SetRow(i, exp.NextObservation)
	}
	return obs, act, rew, nextObs, nil
}

// rawBatchGob is the exported form of a RawBatch used for gob encoding
type rawBatchGob struct {
	Data   []float64
	Rows   int
	ObsDim int
	ActDim int
}

// GobEncode implements the gob.GobEncoder interface
func (r *RawBatch) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	err := enc.Encode(rawBatchGob{r.data, r.rows, r.obsDim, r.actDim})
	if err != nil {
		return nil, fmt.Errorf("gobEncode: %v", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (r *RawBatch) GobDecode(data []byte) error {
	var g rawBatchGob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return fmt.Errorf("gobDecode: %v", err)
	}
	if len(g.Data) != g.Rows*RowWidth(g.ObsDim, g.ActDim) {
		return &MemoryError{
			Op: "gobDecode",
			Err: fmt.Errorf("%w: %v values do not reshape into %v rows",
				errRowMismatch, len(g.Data), g.Rows),
		}
	}

	r.data, r.rows, r.obsDim, r.actDim = g.Data, g.Rows, g.ObsDim, g.ActDim
	return nil
}

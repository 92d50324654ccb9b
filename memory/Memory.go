// Package memory implements the experience memory of an agent. A
// Memory stores each step of experience an agent has with its
// environment, computes discounted Monte Carlo returns, extracts
// batches of experience to learn from, and aggregates its contents
// into step and episode level tables for reporting.
package memory

import (
	"fmt"
	"log/slog"

	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/energyac/environment"
	"gonum.org/v1/gonum/mat"
)

// BatchSaver persists batches drawn from a Memory
type BatchSaver interface {
	SaveBatch(*RawBatch) error
}

// Memory stores the experience of an agent along with any metrics
// the agent records while learning.
//
// Experience is never truncated when added. Instead, random batches
// are only ever drawn from the most recent maxLength experiences, a
// sliding window over the full history.
type Memory struct {
	obsSpec   environment.Spec
	actSpec   environment.Spec
	discount  float64
	maxLength int

	experiences []Experience
	info        *Info
	outputs     *Outputs

	rng    *rand.Rand
	saver  BatchSaver
	logger *slog.Logger
}

// New returns a new Memory for experience with observations described
// by obsSpec and actions described by actSpec. The discount is used
// to compute returns and maxLength is the size of the window that
// random batches are drawn from.
func New(obsSpec, actSpec environment.Spec, discount float64, maxLength int,
	seed uint64) (*Memory, error) {
	if maxLength < 1 {
		return nil, fmt.Errorf("new: maxLength must be >= 1, have %v",
			maxLength)
	}
	if discount < 0 || discount > 1 {
		return nil, fmt.Errorf("new: discount must be in [0, 1], have %v",
			discount)
	}
	if obsSpec.Dims() == 0 || actSpec.Dims() == 0 {
		return nil, fmt.Errorf("new: observation and action specs must " +
			"have at least one dimension")
	}

	m := &Memory{
		obsSpec:   obsSpec,
		actSpec:   actSpec,
		discount:  discount,
		maxLength: maxLength,
		rng:       rand.New(rand.NewSource(seed)),
		logger:    slog.Default().With("component", "memory"),
	}
	m.Reset()

	return m, nil
}

// Reset discards all experience, recorded metrics, and outputs
func (m *Memory) Reset() {
	m.experiences = []Experience{}
	m.info = newInfo()
	m.outputs = &Outputs{Info: newInfo()}
}

// SetBatchSaver sets the BatchSaver that random batches are sent to
// when GetRandomBatch is asked to save its batch
func (m *Memory) SetBatchSaver(s BatchSaver) {
	m.saver = s
}

// Discount returns the discount factor of the Memory
func (m *Memory) Discount() float64 {
	return m.discount
}

// MaxLength returns the size of the window that random batches are
// drawn from
func (m *Memory) MaxLength() int {
	return m.maxLength
}

// Len returns the number of stored experiences
func (m *Memory) Len() int {
	return len(m.experiences)
}

// Experiences returns the stored experiences in insertion order
func (m *Memory) Experiences() []Experience {
	out := make([]Experience, len(m.experiences))
	copy(out, m.experiences)
	return out
}

// Info returns the metric registry of the Memory
func (m *Memory) Info() *Info {
	return m.info
}

// Record appends a record to the metric's sequence
func (m *Memory) Record(metric Metric, values ...float64) error {
	return m.info.Append(metric, values...)
}

// AddExperience adds a single step of experience. The vectors are
// copied, so later changes to them are not reflected in the Memory.
func (m *Memory) AddExperience(obs, action mat.Vector, reward float64,
	nextObs mat.Vector, terminal bool, step, episode int) {
	m.logger.Debug("adding experience", "episode", episode, "step", step)

	m.experiences = append(m.experiences, Experience{
		Observation:     vecData(obs),
		Action:          vecData(action),
		Reward:          reward,
		NextObservation: vecData(nextObs),
		Terminal:        terminal,
		Step:            step,
		Episode:         episode,
	})
}

// GetEpisodeBatch returns the experience of a single episode, in the
// order it was added, as a Batch. If the Batch would contain NaN or
// arrays of differing row counts, an error satisfying
// IsInvariantViolation is returned. If no experience is stored for
// the episode, an error satisfying IsEpisodeNotFound is returned.
func (m *Memory) GetEpisodeBatch(episode int) (*Batch, error) {
	var obs, act, rew []float64
	for _, exp := range m.experiences {
		if exp.Episode != episode {
			continue
		}
		obs = append(obs, exp.Observation...)
		act = append(act, exp.Action...)
		rew = append(rew, exp.Reward)
	}

	if len(rew) == 0 {
		return nil, &MemoryError{
			Op:  "getEpisodeBatch",
			Err: fmt.Errorf("%w %v", errEpisodeNotFound, episode),
		}
	}

	batch, err := newBatch(obs, act, rew, m.obsSpec.Dims(), m.actSpec.Dims())
	if err != nil {
		return nil, &MemoryError{Op: "getEpisodeBatch", Err: err}
	}
	return batch, nil
}

// GetRandomBatch draws min(batchSize, window) experiences uniformly at
// random with replacement from the window of the most recent
// maxLength experiences. The experiences are returned as flattened
// rows. If the Memory is empty, an empty RawBatch is returned.
//
// If saveBatch is true and a BatchSaver has been set, the batch is
// passed to the BatchSaver before being returned.
func (m *Memory) GetRandomBatch(batchSize int, saveBatch bool) (*RawBatch,
	error) {
	start := len(m.experiences) - m.maxLength
	if start < 0 {
		start = 0
	}
	window := m.experiences[start:]

	sampleSize := batchSize
	if sampleSize > len(window) {
		sampleSize = len(window)
	}
	if sampleSize < 0 {
		sampleSize = 0
	}
	m.logger.Debug("getting random batch", "size", sampleSize)

	obsDim, actDim := m.obsSpec.Dims(), m.actSpec.Dims()
	width := RowWidth(obsDim, actDim)
	data := make([]float64, 0, sampleSize*width)
	for i := 0; i < sampleSize; i++ {
		exp := window[m.rng.Intn(len(window))]
		if exp.width() != width {
			err := fmt.Errorf("%w: experience (episode %v, step %v) has "+
				"width %v, want %v", errRowMismatch, exp.Episode, exp.Step,
				exp.width(), width)
			return nil, &MemoryError{Op: "getRandomBatch", Err: err}
		}
		data = append(data, exp.flatten()...)
	}

	batch := &RawBatch{
		data:   data,
		rows:   sampleSize,
		obsDim: obsDim,
		actDim: actDim,
	}

	if saveBatch && m.saver != nil {
		if err := m.saver.SaveBatch(batch); err != nil {
			return nil, fmt.Errorf("getRandomBatch: could not save batch: %v",
				err)
		}
	}
	return batch, nil
}

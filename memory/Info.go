package memory

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Metric names a diagnostic quantity recorded by an agent while
// learning
type Metric string

// Registered metrics. Every Info tracks exactly these.
const (
	ValueTarget Metric = "value_target"
	TDError     Metric = "td_error"
	CriticLoss  Metric = "critic_loss"
	ActorLoss   Metric = "actor_loss"
)

// Metrics lists all registered metrics in the order they are reported
var Metrics = []Metric{ValueTarget, TDError, CriticLoss, ActorLoss}

// Info is an append-only registry of recorded metric values. Each
// call to Append adds one record to a metric's sequence. A record is
// a vector so that batch-shaped quantities, such as the TD error of
// each sample in a batch, are kept whole.
type Info struct {
	records map[Metric][][]float64
}

// newInfo returns an Info with every registered metric initialized to
// an empty sequence
func newInfo() *Info {
	records := make(map[Metric][][]float64, len(Metrics))
	for _, m := range Metrics {
		records[m] = [][]float64{}
	}
	return &Info{records: records}
}

// Append adds a record to the sequence of the metric m. The values are
// copied.
func (i *Info) Append(m Metric, values ...float64) error {
	seq, ok := i.records[m]
	if !ok {
		return &MemoryError{
			Op:  "append",
			Err: fmt.Errorf("%w: %q", errUnknownMetric, m),
		}
	}

	record := make([]float64, len(values))
	copy(record, values)
	i.records[m] = append(seq, record)
	return nil
}

// Records returns a copy of all records of metric m
func (i *Info) Records(m Metric) [][]float64 {
	seq := i.records[m]
	out := make([][]float64, len(seq))
	for j := range seq {
		out[j] = make([]float64, len(seq[j]))
		copy(out[j], seq[j])
	}
	return out
}

// Last returns the most recent record of metric m
func (i *Info) Last(m Metric) ([]float64, bool) {
	seq := i.records[m]
	if len(seq) == 0 {
		return nil, false
	}
	last := make([]float64, len(seq[len(seq)-1]))
	copy(last, seq[len(seq)-1])
	return last, true
}

// Len returns the number of records of metric m
func (i *Info) Len(m Metric) int {
	return len(i.records[m])
}

// Empty returns whether no metric has any records
func (i *Info) Empty() bool {
	for _, seq := range i.records {
		if len(seq) > 0 {
			return false
		}
	}
	return true
}

// clone returns a deep copy of the Info
func (i *Info) clone() *Info {
	c := newInfo()
	for m := range i.records {
		c.records[m] = i.Records(m)
	}
	return c
}

// GobEncode implements the gob.GobEncoder interface
func (i *Info) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(i.records); err != nil {
		return nil, fmt.Errorf("gobEncode: %v", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. Registered metrics
// missing from the encoding are decoded as empty sequences, and
// metrics that are not registered are an error.
func (i *Info) GobDecode(data []byte) error {
	var records map[Metric][][]float64
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&records); err != nil {
		return fmt.Errorf("gobDecode: %v", err)
	}

	decoded := newInfo()
	for m, seq := range records {
		if _, ok := decoded.records[m]; !ok {
			return &MemoryError{
				Op:  "gobDecode",
				Err: fmt.Errorf("%w: %q", errUnknownMetric, m),
			}
		}
		decoded.records[m] = append(decoded.records[m], seq...)
	}
	i.records = decoded.records
	return nil
}

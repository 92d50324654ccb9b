// Package savers persists the data produced by an experiment: the
// aggregated outputs of an agent's memory and the random batches it
// learns from.
package savers

import (
	"encoding/csv"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/samuelfneumann/energyac/memory"
)

// Filenames of the files written by an Outputs saver
const (
	StepsFile    = "steps.csv"
	EpisodesFile = "episodes.csv"
	InfoFile     = "info.gob"
)

// Outputs saves memory.Outputs to a directory as a step-level CSV
// table, an episode-level CSV table, and the gob-encoded metric
// registry
type Outputs struct {
	dir string
}

// NewOutputs returns a new Outputs saver which saves to dir
func NewOutputs(dir string) *Outputs {
	return &Outputs{dir}
}

// Dir returns the directory saved to
func (o *Outputs) Dir() string {
	return o.dir
}

// Save saves out to the directory of the Outputs saver, creating the
// directory if needed
func (o *Outputs) Save(out *memory.Outputs) error {
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return fmt.Errorf("save: could not create output directory: %v", err)
	}

	if err := writeCSV(filepath.Join(o.dir, StepsFile),
		stepRecords(out.Steps)); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	if err := writeCSV(filepath.Join(o.dir, EpisodesFile),
		episodeRecords(out.Episodes)); err != nil {
		return fmt.Errorf("save: %v", err)
	}

	err := writeFile(filepath.Join(o.dir, InfoFile), func(w io.Writer) error {
		return gob.NewEncoder(w).Encode(out.Info)
	})
	if err != nil {
		return fmt.Errorf("save: could not save info: %v", err)
	}
	return nil
}

// LoadInfo loads the metric registry saved by an Outputs saver
func LoadInfo(filename string) (*memory.Info, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadInfo: could not open data file: %v", err)
	}
	defer file.Close()

	info := new(memory.Info)
	if err := gob.NewDecoder(file).Decode(info); err != nil {
		return nil, fmt.Errorf("loadInfo: could not decode data: %v", err)
	}
	return info, nil
}

func writeCSV(filename string, records [][]string) error {
	return writeFile(filename, func(w io.Writer) error {
		return csv.NewWriter(w).WriteAll(records)
	})
}

// writeFile creates filename and fills it with write. The file is
// always closed, and a failure to close it is reported.
func writeFile(filename string, write func(io.Writer) error) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not open %v: %v", filename, err)
	}

	if err := write(file); err != nil {
		file.Close()
		return fmt.Errorf("could not write %v: %v", filename, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("could not close %v: %v", filename, err)
	}
	return nil
}

// stepRecords converts a StepTable to CSV records, with a header row.
// Vector columns are expanded into one column per dimension.
func stepRecords(s memory.StepTable) [][]string {
	var obsDim, actDim int
	if s.Len() > 0 {
		obsDim, actDim = len(s.Observation[0]), len(s.Action[0])
	}

	header := []string{"episode", "step"}
	header = append(header, columns("observation", obsDim)...)
	header = append(header, columns("action", actDim)...)
	header = append(header, "reward")
	header = append(header, columns("next_observation", obsDim)...)
	header = append(header, "terminal")

	records := [][]string{header}
	for i := 0; i < s.Len(); i++ {
		row := []string{strconv.Itoa(s.Episode[i]), strconv.Itoa(s.Step[i])}
		row = append(row, formatFloats(s.Observation[i])...)
		row = append(row, formatFloats(s.Action[i])...)
		row = append(row, formatFloat(s.Reward[i]))
		row = append(row, formatFloats(s.NextObservation[i])...)
		row = append(row, strconv.FormatBool(s.Terminal[i]))
		records = append(records, row)
	}
	return records
}

// episodeRecords converts an EpisodeTable to CSV records, with a
// header row
func episodeRecords(e memory.EpisodeTable) [][]string {
	records := [][]string{{"episode", "steps", "reward", "terminal", "step",
		"cum_max_reward", "rolling_mean", "rolling_std"}}

	for i := 0; i < e.Len(); i++ {
		records = append(records, []string{
			strconv.Itoa(e.Episode[i]),
			strconv.Itoa(e.Steps[i]),
			formatFloat(e.Reward[i]),
			strconv.Itoa(e.Terminal[i]),
			strconv.Itoa(e.Step[i]),
			formatFloat(e.CumMaxReward[i]),
			formatFloat(e.RollingMean[i]),
			formatFloat(e.RollingStd[i]),
		})
	}
	return records
}

func columns(name string, n int) []string {
	cols := make([]string, n)
	for i := range cols {
		cols[i] = fmt.Sprintf("%v_%v", name, i)
	}
	return cols
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func formatFloats(x []float64) []string {
	out := make([]string, len(x))
	for i := range x {
		out[i] = formatFloat(x[i])
	}
	return out
}

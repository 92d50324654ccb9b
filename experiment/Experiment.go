// Package experiment implements functionality for running an experiment
package experiment

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/samuelfneumann/energyac/agent/actorcritic"
	"github.com/samuelfneumann/energyac/environment/envconfig"
	"github.com/samuelfneumann/energyac/experiment/savers"
)

// Config represents a configuration of an experiment: the environment,
// the agent, and how long the agent interacts with the environment.
type Config struct {
	Env   envconfig.Config
	Agent actorcritic.Config

	// Episodes is the number of episodes to run. MaxSteps caps the
	// total number of steps over all episodes, 0 meaning no cap.
	Episodes int
	MaxSteps int

	// BatchSize is the size of the random batches drawn from the
	// agent's memory to learn from. If 0, the agent learns online from
	// the most recent transition only.
	BatchSize   int
	SaveBatches bool

	OutputDir string
	Seed      uint64
	Progress  bool
}

// Validate returns an error if the Config is invalid
func (c Config) Validate() error {
	if err := c.Env.Validate(); err != nil {
		return fmt.Errorf("validate: env: %v", err)
	}
	if err := c.Agent.Validate(); err != nil {
		return fmt.Errorf("validate: agent: %v", err)
	}
	if c.Episodes < 1 {
		return fmt.Errorf("validate: episodes must be >= 1, have %v",
			c.Episodes)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("validate: max steps must be >= 0, have %v",
			c.MaxSteps)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("validate: batch size must be >= 0, have %v",
			c.BatchSize)
	}
	if c.SaveBatches && (c.BatchSize == 0 || c.OutputDir == "") {
		return fmt.Errorf("validate: saving batches requires a batch size " +
			"and an output directory")
	}
	return nil
}

// LoadConfig reads a JSON Config from the file filename
func LoadConfig(filename string) (Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return Config{}, fmt.Errorf("loadConfig: could not open config "+
			"file: %v", err)
	}
	defer file.Close()

	c, err := ReadConfig(file)
	if err != nil {
		return Config{}, fmt.Errorf("loadConfig: %v", err)
	}
	return c, nil
}

// ReadConfig decodes and validates a JSON Config. Unknown fields are an
// error.
func ReadConfig(r io.Reader) (Config, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var c Config
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("readConfig: could not decode: %v", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("readConfig: %v", err)
	}
	return c, nil
}

// CreateExp creates the environment and agent described by the Config
// and returns an Online experiment running them
func (c Config) CreateExp() (*Online, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("createExp: %v", err)
	}

	env, _, err := c.Env.Create(c.Seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create environment: %v",
			err)
	}

	agent, err := c.Agent.CreateAgent(env, c.Seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create agent: %v", err)
	}

	if c.SaveBatches {
		saver, err := savers.NewBatches(filepath.Join(c.OutputDir, "batches"))
		if err != nil {
			return nil, fmt.Errorf("createExp: %v", err)
		}
		agent.Memory().SetBatchSaver(saver)
	}

	o := NewOnline(env, agent, c.Episodes, c.MaxSteps, c.BatchSize)
	o.SaveBatches(c.SaveBatches)
	if c.Progress {
		o.SetProgressBar(os.Stderr)
	}
	return o, nil
}

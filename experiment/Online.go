package experiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/samuelfneumann/energyac/agent"
	env "github.com/samuelfneumann/energyac/environment"
	"github.com/samuelfneumann/energyac/memory"
	"github.com/samuelfneumann/energyac/utils/matutils"
	"github.com/samuelfneumann/energyac/utils/progressbar"
	"gonum.org/v1/gonum/mat"
)

// Online is an experiment that runs an agent online only. On each
// step the agent acts, the transition is added to the agent's memory,
// and the agent learns. No offline evaluation is performed.
type Online struct {
	env.Environment
	agent.Agent

	episodes    int
	maxSteps    int
	batchSize   int
	saveBatches bool
	totalSteps  int

	bar    *progressbar.ProgressBar
	logger *slog.Logger
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent, running for the given number of
// episodes. If maxSteps > 0, the experiment also ends once maxSteps
// total steps have been taken. If batchSize > 0, the agent learns from
// random batches of its memory rather than the latest transition.
func NewOnline(e env.Environment, a agent.Agent, episodes, maxSteps,
	batchSize int) *Online {
	return &Online{
		Environment: e,
		Agent:       a,
		episodes:    episodes,
		maxSteps:    maxSteps,
		batchSize:   batchSize,
		logger:      slog.Default().With("component", "experiment"),
	}
}

// SaveBatches sets whether random batches are passed to the BatchSaver
// of the agent's memory
func (o *Online) SaveBatches(save bool) {
	o.saveBatches = save
}

// SetProgressBar displays the progress of the experiment over episodes
// on out
func (o *Online) SetProgressBar(out io.Writer) {
	o.bar = progressbar.New(out, 40, o.episodes)
}

// TotalSteps returns the number of steps taken over all episodes
func (o *Online) TotalSteps() int {
	return o.totalSteps
}

// Run runs the entire experiment and returns the outputs of the agent's
// memory. If ctx is cancelled, Run stops between steps and returns the
// outputs gathered so far along with the context's error.
func (o *Online) Run(ctx context.Context) (*memory.Outputs, error) {
	if o.bar != nil {
		o.bar.Display()
		defer o.bar.Close()
	}

	for episode := 0; episode < o.episodes; episode++ {
		capped, err := o.RunEpisode(ctx, episode)
		if err != nil {
			return o.Memory().OutputResults(), fmt.Errorf("run: %w", err)
		}

		if o.bar != nil {
			o.bar.Increment()
			o.bar.Display()
		}
		if capped {
			o.logger.Info("step limit reached", "steps", o.totalSteps)
			break
		}
	}

	return o.Memory().OutputResults(), nil
}

// RunEpisode runs a single episode of the experiment and returns
// whether or not the total step limit has been reached
func (o *Online) RunEpisode(ctx context.Context, episode int) (bool, error) {
	step, err := o.Environment.Reset()
	if err != nil {
		return false, fmt.Errorf("runEpisode: %v", err)
	}

	var rewards []float64
	for n := 0; !step.Last() && !o.capped(); n++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		act, err := o.Act(step.Observation)
		if err != nil {
			return false, fmt.Errorf("runEpisode: could not act: %v", err)
		}
		action := mat.VecDenseCopyOf(act.RowView(0))

		next, done, err := o.Environment.Step(action)
		if err != nil {
			return false, fmt.Errorf("runEpisode: could not step: %v", err)
		}
		o.totalSteps++

		o.Memory().AddExperience(step.Observation, action, next.Reward,
			next.Observation, done, n, episode)
		rewards = append(rewards, next.Reward)

		if err := o.learn(step.Observation, action, next.Reward,
			next.Observation); err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}
		step = next
	}

	if len(rewards) > 0 {
		returns := o.Memory().CalculateReturns(rewards)
		o.logger.Info("episode complete", "episode", episode,
			"steps", len(rewards), "return", returns[0])
	}
	return o.capped(), nil
}

func (o *Online) capped() bool {
	return o.maxSteps > 0 && o.totalSteps >= o.maxSteps
}

// learn performs a single learning step, either from the latest
// transition or from a random batch of memory
func (o *Online) learn(obs, action mat.Vector, reward float64,
	nextObs mat.Vector) error {
	var states, actions, rewards, nextStates *mat.Dense

	if o.batchSize == 0 {
		states = matutils.RowVector(obs)
		actions = matutils.RowVector(action)
		rewards = mat.NewDense(1, 1, []float64{reward})
		nextStates = matutils.RowVector(nextObs)
	} else {
		batch, err := o.Memory().GetRandomBatch(o.batchSize, o.saveBatches)
		if err != nil {
			return fmt.Errorf("learn: %v", err)
		}
		if batch.Len() == 0 {
			return nil
		}

		states, actions, rewards, nextStates, err = batch.Split()
		if err != nil {
			return fmt.Errorf("learn: %v", err)
		}
	}

	obsSpec := o.ObservationSpec()
	states, err := env.ScaleRows(states, obsSpec)
	if err != nil {
		return fmt.Errorf("learn: %v", err)
	}
	nextStates, err = env.ScaleRows(nextStates, obsSpec)
	if err != nil {
		return fmt.Errorf("learn: %v", err)
	}

	if _, err := o.Learn(states, actions, rewards, nextStates); err != nil {
		return fmt.Errorf("learn: %v", err)
	}
	return nil
}

// Close releases the environment if it holds resources
func (o *Online) Close() error {
	if c, ok := o.Environment.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/samuelfneumann/energyac/environment/gym"
	"github.com/samuelfneumann/energyac/experiment"
	"github.com/samuelfneumann/energyac/experiment/savers"
	"github.com/spf13/cobra"
)

type trainFlags struct {
	config   string
	seed     uint64
	out      string
	progress bool
}

// TrainCommand returns the command that runs a training experiment
// from a JSON configuration file
func TrainCommand() *cobra.Command {
	flags := &trainFlags{}

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Run a training experiment",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := experiment.LoadConfig(flags.config)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				c.Seed = flags.seed
			}
			if flags.out != "" {
				c.OutputDir = flags.out
			}
			if flags.progress {
				c.Progress = true
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)
			defer signal.Stop(sigCh)

			doneCh := make(chan struct{})
			defer close(doneCh)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() {
				select {
				case <-sigCh:
				case <-doneCh:
				}
				cancel()
			}()

			return train(ctx, c)
		},
	}

	cmd.Flags().StringVarP(&flags.config, "config", "c", "",
		"path to the JSON experiment configuration")
	cmd.Flags().Uint64Var(&flags.seed, "seed", 0,
		"seed overriding the configuration's seed")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "",
		"output directory overriding the configuration's")
	cmd.Flags().BoolVar(&flags.progress, "progress", false,
		"display a progress bar")
	cmd.MarkFlagRequired("config")

	return cmd
}

// train runs the experiment described by c and saves its outputs. An
// interrupted experiment still saves the outputs gathered so far.
func train(ctx context.Context, c experiment.Config) error {
	logger := slog.Default().With("component", "train")

	if c.Env.Gym {
		defer gym.CloseAll()
	}

	o, err := c.CreateExp()
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}
	defer o.Close()

	logger.Info("starting experiment", "env", c.Env.Environment,
		"critic", c.Agent.Critic, "episodes", c.Episodes, "seed", c.Seed)

	out, runErr := o.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("train: %v", runErr)
	}
	if runErr != nil {
		logger.Warn("experiment interrupted", "steps", o.TotalSteps())
	}

	if n := out.Episodes.Len(); n > 0 {
		logger.Info("experiment complete", "episodes", n,
			"steps", o.TotalSteps(),
			"best_reward", out.Episodes.CumMaxReward[n-1],
			"rolling_mean", out.Episodes.RollingMean[n-1])
	}

	if c.OutputDir == "" {
		return nil
	}
	if err := savers.NewOutputs(c.OutputDir).Save(out); err != nil {
		return fmt.Errorf("train: %v", err)
	}
	logger.Info("saved outputs", "dir", c.OutputDir)
	return nil
}

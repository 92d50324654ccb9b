// Package cmd implements the energyac command line interface
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootCommand returns the energyac root command
func RootCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:          "energyac",
		Short:        "Train actor-critic agents on control environments",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogger(verbose)
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"log at debug level")

	cmd.AddCommand(
		TrainCommand(),
	)

	return cmd
}

// setupLogger sets the default logger to a text handler on stderr
func setupLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

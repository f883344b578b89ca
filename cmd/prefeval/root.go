package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefeval",
		Short: "prefeval - pairwise human preference evaluation for LLM outputs",
		Long: `prefeval runs human preference evaluation sessions over model outputs.

A study spec names the prompt corpus, the candidate models, and the
destination sheet. Evaluators judge every (prompt, model-pair) cell as a
win for one side or a tie, and a completed session is appended to the
destination in one batch.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newCheckCommand())
	cmd.AddCommand(newExportCommand())
	cmd.AddCommand(newSessionCommand())

	return cmd
}

func execute() error {
	// A .env beside the binary can hold the sheet credentials path and the
	// evaluator handle; absence is fine.
	_ = godotenv.Load() //nolint:errcheck

	rootCmd := newRootCommand()
	return rootCmd.Execute()
}

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kotoba-bench/prefeval/internal/config"
	"github.com/kotoba-bench/prefeval/internal/corpus"
	"github.com/kotoba-bench/prefeval/internal/orchestration"
	"github.com/kotoba-bench/prefeval/internal/session"
	"github.com/kotoba-bench/prefeval/internal/spinner"
	"github.com/kotoba-bench/prefeval/internal/study"
	"github.com/kotoba-bench/prefeval/internal/tui"
)

func newRunCommand() *cobra.Command {
	var (
		evaluatorID string
		outputPath  string
		logDir      string
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "run <study.yaml>",
		Short: "Run an evaluation session in the terminal",
		Long: `Run an evaluation session in the terminal.

The study spec defines the prompt corpus, the candidate models, the sample
size, and the destination sheet. The sampled prompts are fixed by the
study's seed; the order of model pairs is shuffled once per session.

Judgments go to the configured Google Sheets worksheet on submit, or to a
local NDJSON file when --output is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := study.Load(args[0])
			if err != nil {
				return err
			}

			cfg := config.NewRunConfig(spec,
				config.WithEvaluatorID(evaluatorID),
				config.WithOutputPath(outputPath),
				config.WithLogDir(logDir),
				config.WithVerbose(verbose),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var (
				sess  *session.Session
				facts []corpus.PersonaFact
			)
			err = spinner.While(os.Stderr, "Preparing session...", func() error {
				sess, facts, err = orchestration.BuildSession(cfg)
				return err
			})
			if err != nil {
				return err
			}
			sink, err := orchestration.NewSink(ctx, cfg)
			if err != nil {
				return err
			}

			runner := tui.NewRunner(sess, facts, sink, spec.Location(), os.Stdin, os.Stdout)
			return runner.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&evaluatorID, "evaluator", "e", os.Getenv("PREFEVAL_EVALUATOR"), "Evaluator identifier (skips the interactive prompt)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Append submissions to a local NDJSON file instead of the sheet")
	cmd.Flags().StringVar(&logDir, "log-dir", "", "Directory for session event logs (overrides the spec)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output with detailed progress")

	return cmd
}

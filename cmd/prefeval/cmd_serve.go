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
	"github.com/kotoba-bench/prefeval/internal/webapi"
	"github.com/kotoba-bench/prefeval/internal/webserver"
)

func newServeCommand() *cobra.Command {
	var (
		port         int
		noBrowser    bool
		allowOrigins []string
		evaluatorID  string
		outputPath   string
		logDir       string
	)

	cmd := &cobra.Command{
		Use:   "serve <study.yaml>",
		Short: "Serve an evaluation session over HTTP for a browser display layer",
		Long: `Serve an evaluation session over HTTP.

The server exposes one live session under /api on the loopback interface.
A browser-based display layer drives it: reading cells, toggling
judgments, and submitting once every cell is judged. Candidate models
stay anonymous on the wire; cells are addressed by pair index.`,
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

			srv, err := webserver.New(webserver.Config{
				Port:           port,
				Handlers:       webapi.NewHandlers(sess, facts, sink, spec.Location()),
				AllowedOrigins: allowOrigins,
				NoBrowser:      noBrowser,
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3000, "Port to listen on (loopback only)")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Do not open a browser automatically")
	cmd.Flags().StringArrayVar(&allowOrigins, "allow-origin", nil, "Origin allowed to call the API cross-origin (can be repeated)")
	cmd.Flags().StringVarP(&evaluatorID, "evaluator", "e", os.Getenv("PREFEVAL_EVALUATOR"), "Evaluator identifier")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Append submissions to a local NDJSON file instead of the sheet")
	cmd.Flags().StringVar(&logDir, "log-dir", "", "Directory for session event logs (overrides the spec)")

	return cmd
}

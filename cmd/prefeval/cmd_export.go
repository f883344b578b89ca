package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kotoba-bench/prefeval/internal/session"
	"github.com/kotoba-bench/prefeval/internal/submit"
)

func newExportCommand() *cobra.Command {
	var (
		evaluatorID string
		outputPath  string
		timezone    string
	)

	cmd := &cobra.Command{
		Use:   "export <session.jsonl>",
		Short: "Replay a session log into submission rows as CSV",
		Long: `Replay a session event log into submission rows.

Judgment events apply in order, so cells the evaluator toggled back to
unjudged stay absent. This recovers a session that completed but failed
to persist, without re-judging anything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := session.ReadEvents(args[0])
			if err != nil {
				return err
			}
			if len(events) == 0 {
				return fmt.Errorf("%s: no events to replay", args[0])
			}

			ledger, indices := session.Replay(events)
			if len(indices) == 0 {
				return fmt.Errorf("%s: no session start event; cannot map pages to prompts", args[0])
			}

			if evaluatorID == "" {
				evaluatorID = loggedEvaluatorID(events)
			}
			if evaluatorID == "" {
				return fmt.Errorf("evaluator unknown: pass --evaluator")
			}

			loc, err := time.LoadLocation(timezone)
			if err != nil {
				return fmt.Errorf("invalid timezone %q: %w", timezone, err)
			}

			// Rows carry the time the session actually ended, not the
			// time of the export.
			ts := events[len(events)-1].Timestamp.In(loc)
			rows := submit.Encode(evaluatorID, ts, indices, ledger.Cells())

			var out io.Writer = cmd.OutOrStdout()
			if outputPath != "" {
				f, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer f.Close() //nolint:errcheck
				out = f
			}

			if err := submit.WriteCSV(out, rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d rows\n", len(rows))
			return nil
		},
	}

	cmd.Flags().StringVarP(&evaluatorID, "evaluator", "e", "", "Evaluator identifier (default: the one recorded in the log)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output CSV file (default: stdout)")
	cmd.Flags().StringVar(&timezone, "timezone", "Asia/Tokyo", "Timezone for the exported timestamps")

	return cmd
}

// loggedEvaluatorID finds the evaluator recorded by the latest submission
// attempt, if the session got that far.
func loggedEvaluatorID(events []session.Event) string {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type != session.EventSubmitAttempt {
			continue
		}
		if id, ok := events[i].Data["evaluator_id"].(string); ok && id != "" {
			return id
		}
	}
	return ""
}

// Package orchestration wires a study spec into a live session: it loads
// the corpora, draws the deterministic sample, fixes the shuffled pair
// order, and picks the submission sink.
package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/kotoba-bench/prefeval/internal/config"
	"github.com/kotoba-bench/prefeval/internal/corpus"
	"github.com/kotoba-bench/prefeval/internal/pairs"
	"github.com/kotoba-bench/prefeval/internal/sampling"
	"github.com/kotoba-bench/prefeval/internal/session"
	"github.com/kotoba-bench/prefeval/internal/submit"
)

// BuildSession assembles a session from the configured study.
//
// Prompt sampling uses the spec's fixed seed, so the same study over the
// same corpora yields the same pages on every run. Pair order is
// deliberately only session-stable: it comes from a time-seeded source,
// so each session sees the pairs in its own fixed shuffle.
func BuildSession(cfg *config.RunConfig) (*session.Session, []corpus.PersonaFact, error) {
	spec := cfg.Spec()

	prompts, skipped, err := corpus.LoadPrompts(spec.Data.Prompts)
	if err != nil {
		return nil, nil, fmt.Errorf("loading prompts: %w", err)
	}
	if skipped > 0 {
		slog.Warn("prompt corpus contained malformed records", "skipped", skipped)
	}

	responses, err := corpus.LoadResponses(spec.Data.OutputsDir, spec.Models)
	if err != nil {
		return nil, nil, err
	}

	var facts []corpus.PersonaFact
	if spec.Data.Persona != "" {
		facts, _, err = corpus.LoadPersona(spec.Data.Persona)
		if err != nil {
			// Persona facts only feed the display layer; a session can
			// run without them.
			slog.Warn("persona corpus unavailable", "path", spec.Data.Persona, "error", err)
		}
	}

	sample, err := sampling.Draw(rand.New(rand.NewSource(spec.Seed)), prompts, responses, spec.SampleSize)
	if err != nil {
		return nil, nil, fmt.Errorf("study %s: %w", spec.Name, err)
	}

	pairList := pairs.Generate(rand.New(rand.NewSource(time.Now().UnixNano())), spec.Models)

	opts := []session.Option{session.WithEvaluatorID(cfg.EvaluatorID())}
	if dir := cfg.LogDir(); dir != "" {
		logger, err := session.NewJSONLogger(session.DefaultLogPath(dir))
		if err != nil {
			return nil, nil, fmt.Errorf("opening session log: %w", err)
		}
		opts = append(opts, session.WithLogger(logger))
	}

	sess := session.New(sample, pairList, opts...)
	slog.Info("session ready",
		"session", sess.ID(),
		"pages", sess.PageCount(),
		"pairs", sess.PairCount(),
		"cells", sess.TotalCells())

	return sess, facts, nil
}

// NewSink returns the submission sink for this run: a local NDJSON file
// when an output path is set, otherwise the study's Google Sheets
// worksheet.
func NewSink(ctx context.Context, cfg *config.RunConfig) (submit.Sink, error) {
	if path := cfg.OutputPath(); path != "" {
		return submit.NewFileSink(path)
	}

	sheet := cfg.Spec().Sheet
	if sheet.SpreadsheetID == "" {
		return nil, fmt.Errorf("no submission target: set sheet.spreadsheet_id in the study spec or pass --output")
	}
	return submit.NewSheetsSink(ctx, sheet.Credentials, sheet.SpreadsheetID, sheet.Worksheet)
}

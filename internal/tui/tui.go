// Package tui drives an evaluation session from the terminal: one huh
// form per cell, cursor navigation, and a confirmed submit at the end.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/kotoba-bench/prefeval/internal/corpus"
	"github.com/kotoba-bench/prefeval/internal/ledger"
	"github.com/kotoba-bench/prefeval/internal/session"
	"github.com/kotoba-bench/prefeval/internal/submit"
)

// form actions beyond the three outcomes
const (
	actionNextPair = "next_pair"
	actionPrevPair = "prev_pair"
	actionNextPage = "next_page"
	actionPrevPage = "prev_page"
	actionClear    = "clear"
	actionSubmit   = "submit"
	actionQuit     = "quit"
)

// Runner drives one session to completion over a terminal.
type Runner struct {
	sess  *session.Session
	facts []corpus.PersonaFact
	sink  submit.Sink
	loc   *time.Location
	in    io.Reader
	out   io.Writer

	// last submission error that left judgments unpersisted; reported
	// when the evaluator quits without a successful submit
	persistErr error
}

// NewRunner creates a terminal runner for the session.
func NewRunner(sess *session.Session, facts []corpus.PersonaFact, sink submit.Sink, loc *time.Location, in io.Reader, out io.Writer) *Runner {
	if loc == nil {
		loc = time.UTC
	}
	return &Runner{sess: sess, facts: facts, sink: sink, loc: loc, in: in, out: out}
}

// Run loops until the evaluator submits or quits. A quit before submit
// leaves the event log behind; nothing is persisted to the sink.
func (r *Runner) Run(ctx context.Context) error {
	if strings.TrimSpace(r.sess.EvaluatorID()) == "" {
		if err := r.askEvaluatorID(); err != nil {
			return err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := renderCell(r.out, r.sess, r.facts); err != nil {
			return err
		}

		choice, err := r.askChoice()
		if err != nil {
			return err
		}

		switch choice {
		case string(ledger.OutcomeModelA), string(ledger.OutcomeModelB), string(ledger.OutcomeTie):
			// Selecting the active outcome again clears it; a fresh
			// judgment moves on to the next cell.
			if r.sess.Toggle(r.sess.CurrentCell(), ledger.Outcome(choice)) {
				r.advance()
			}
		case actionClear:
			r.sess.ClearCell(r.sess.CurrentCell())
		case actionNextPair:
			r.sess.NextPair()
		case actionPrevPair:
			r.sess.PrevPair()
		case actionNextPage:
			r.sess.NextPage()
		case actionPrevPage:
			r.sess.PrevPage()
		case actionSubmit:
			done, err := r.trySubmit(ctx)
			if err != nil {
				return err
			}
			if done {
				fmt.Fprintln(r.out, "Submission recorded. Thank you!")
				return nil
			}
		case actionQuit:
			judged, total := r.sess.Progress()
			fmt.Fprintf(r.out, "Leaving without submitting (%d/%d judged).\n", judged, total)
			// A persist that failed earlier must not vanish into a
			// clean exit.
			return r.persistErr
		}
	}
}

// advance moves to the next unvisited cell: next pair on this prompt,
// then the first pair of the next prompt. At the very last cell it stays
// put so the evaluator can review and submit.
func (r *Runner) advance() {
	if r.sess.PairIndex() < r.sess.PairCount()-1 {
		r.sess.NextPair()
		return
	}
	if r.sess.Page() < r.sess.PageCount()-1 {
		r.sess.NextPage()
	}
}

func (r *Runner) askEvaluatorID() error {
	id := r.sess.EvaluatorID()
	form := r.accessible(huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Evaluator ID").
				Description("Your name or handle, recorded with every judgment").
				Placeholder("yamada").
				Value(&id).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("evaluator ID is required")
					}
					return nil
				}),
		),
	))
	if err := form.Run(); err != nil {
		return fmt.Errorf("evaluator prompt failed: %w", err)
	}
	r.sess.SetEvaluatorID(strings.TrimSpace(id))
	return nil
}

func (r *Runner) askChoice() (string, error) {
	var choice string
	form := r.accessible(huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which response is better?").
				Options(
					huh.NewOption("Response A", string(ledger.OutcomeModelA)),
					huh.NewOption("Response B", string(ledger.OutcomeModelB)),
					huh.NewOption("Tie", string(ledger.OutcomeTie)),
					huh.NewOption("Clear judgment", actionClear),
					huh.NewOption("Next pair", actionNextPair),
					huh.NewOption("Previous pair", actionPrevPair),
					huh.NewOption("Next prompt", actionNextPage),
					huh.NewOption("Previous prompt", actionPrevPage),
					huh.NewOption("Submit results", actionSubmit),
					huh.NewOption("Quit", actionQuit),
				).
				Value(&choice),
		),
	))
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("selection failed: %w", err)
	}
	return choice, nil
}

// trySubmit confirms and submits. Gating errors are reported and leave
// the loop running; only persistence errors after confirmation abort.
func (r *Runner) trySubmit(ctx context.Context) (bool, error) {
	judged, total := r.sess.Progress()
	if judged < total {
		fmt.Fprintf(r.out, "Not done yet: %d of %d pairs judged.\n", judged, total)
		return false, nil
	}

	confirmed := true
	form := r.accessible(huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Submit all %d judgments?", total)).
				Description("Results are appended to the configured destination and cannot be edited afterwards").
				Value(&confirmed),
		),
	))
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("confirmation failed: %w", err)
	}
	if !confirmed {
		return false, nil
	}

	return r.submitNow(ctx)
}

// submitNow performs the submission. A persistence failure keeps the loop
// running for a retry but is remembered, so quitting afterwards still
// reports the unpersisted session.
func (r *Runner) submitNow(ctx context.Context) (bool, error) {
	err := r.sess.Submit(ctx, r.sink, time.Now().In(r.loc))
	switch {
	case err == nil:
		r.persistErr = nil
		return true, nil
	case errors.Is(err, session.ErrPersistenceFailure):
		// Keep the session alive so the evaluator can retry.
		r.persistErr = err
		fmt.Fprintf(r.out, "Submission failed: %v\nYour judgments are intact; try again.\n", err)
		return false, nil
	default:
		return false, err
	}
}

// accessible switches huh to accessible mode when input is not a TTY
// (tests, piped input).
func (r *Runner) accessible(form *huh.Form) *huh.Form {
	form = form.WithInput(r.in).WithOutput(r.out)
	if f, ok := r.in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}
	return form
}

// Package session drives one evaluator's pass over the (prompt × pair)
// judgment grid. The session owns the sampled prompt universe, the
// shuffled pair order, the navigation cursors, and the ledger; every
// mutation goes through an explicit transition method so the engine stays
// UI-agnostic.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kotoba-bench/prefeval/internal/corpus"
	"github.com/kotoba-bench/prefeval/internal/ledger"
	"github.com/kotoba-bench/prefeval/internal/pairs"
	"github.com/kotoba-bench/prefeval/internal/sampling"
	"github.com/kotoba-bench/prefeval/internal/submit"
)

// Session is the state machine for one single-user evaluation run. Not
// safe for concurrent use; callers with multiple goroutines (the HTTP
// surface) serialize access themselves.
type Session struct {
	id        string
	createdAt time.Time

	sample   *sampling.Sample
	pairList []pairs.Pair

	page      int
	pairIndex int

	ledger      *ledger.Ledger
	evaluatorID string
	submitted   bool

	log Logger
}

// Option configures a Session at creation time.
type Option func(*Session)

// WithLogger attaches a session event logger. The default discards events.
func WithLogger(log Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithEvaluatorID pre-populates the evaluator identifier.
func WithEvaluatorID(id string) Option {
	return func(s *Session) { s.evaluatorID = id }
}

// New creates a session over an established sample and pair order. Both
// are fixed for the session's lifetime: re-sampling never happens once a
// session exists.
func New(sample *sampling.Sample, pairList []pairs.Pair, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		createdAt: time.Now().UTC(),
		sample:    sample,
		pairList:  pairList,
		ledger:    ledger.New(),
		log:       NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.emit(EventSessionStart, SessionStartData(s.id, s.PageCount(), s.PairCount(), sample.Indices))
	return s
}

func (s *Session) emit(t EventType, data map[string]any) {
	_ = s.log.Log(NewEvent(t, data)) //nolint:errcheck // audit log only
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Page returns the current page cursor.
func (s *Session) Page() int { return s.page }

// PairIndex returns the current pair cursor.
func (s *Session) PairIndex() int { return s.pairIndex }

// PageCount returns the number of sampled prompts.
func (s *Session) PageCount() int { return s.sample.PageCount() }

// PairCount returns the number of model pairs.
func (s *Session) PairCount() int { return len(s.pairList) }

// TotalCells returns the size of the judgment grid.
func (s *Session) TotalCells() int { return s.PageCount() * s.PairCount() }

// Prompt returns the prompt for the current page.
func (s *Session) Prompt() corpus.Prompt {
	return s.sample.Prompts[s.page]
}

// Pair returns the model pair at the current pair cursor.
func (s *Session) Pair() pairs.Pair {
	return s.pairList[s.pairIndex]
}

// PairAt returns the pair at index i.
func (s *Session) PairAt(i int) pairs.Pair {
	return s.pairList[i]
}

// Responses returns the current cell's two candidate outputs, in the
// pair's canonical (A, B) orientation.
func (s *Session) Responses() (a, b string) {
	p := s.Pair()
	return s.responseFor(p.A), s.responseFor(p.B)
}

func (s *Session) responseFor(model string) string {
	recs := s.sample.Responses[model]
	if s.page >= len(recs) {
		return ""
	}
	return recs[s.page].Output
}

// OriginalIndex resolves the current page to its position in the
// unsampled corpus.
func (s *Session) OriginalIndex() int {
	return s.sample.OriginalIndex(s.page)
}

// CurrentCell returns the ledger key for the active (page, pair) cell.
func (s *Session) CurrentCell() ledger.CellKey {
	p := s.Pair()
	return ledger.CellKey{Page: s.page, ModelA: p.A, ModelB: p.B}
}

// NextPage advances the page cursor and resets the pair cursor. No-op at
// the upper boundary.
func (s *Session) NextPage() {
	if s.page < s.PageCount()-1 {
		s.page++
		s.pairIndex = 0
		s.emit(EventNavigation, NavigationData("next_page", s.page, s.pairIndex))
	}
}

// PrevPage retreats the page cursor and resets the pair cursor. No-op at
// the lower boundary.
func (s *Session) PrevPage() {
	if s.page > 0 {
		s.page--
		s.pairIndex = 0
		s.emit(EventNavigation, NavigationData("prev_page", s.page, s.pairIndex))
	}
}

// NextPair advances the pair cursor, leaving the page untouched. No-op at
// the upper boundary.
func (s *Session) NextPair() {
	if s.pairIndex < s.PairCount()-1 {
		s.pairIndex++
		s.emit(EventNavigation, NavigationData("next_pair", s.page, s.pairIndex))
	}
}

// PrevPair retreats the pair cursor, leaving the page untouched. No-op at
// the lower boundary.
func (s *Session) PrevPair() {
	if s.pairIndex > 0 {
		s.pairIndex--
		s.emit(EventNavigation, NavigationData("prev_pair", s.page, s.pairIndex))
	}
}

// JumpToPage moves directly to page p and resets the pair cursor.
func (s *Session) JumpToPage(p int) error {
	if p < 0 || p >= s.PageCount() {
		return fmt.Errorf("%w: page %d of %d", ErrInvalidNavigation, p, s.PageCount())
	}
	s.page = p
	s.pairIndex = 0
	s.emit(EventNavigation, NavigationData("jump_page", s.page, s.pairIndex))
	return nil
}

// JumpToPair moves directly to pair index i without resetting the page.
func (s *Session) JumpToPair(i int) error {
	if i < 0 || i >= s.PairCount() {
		return fmt.Errorf("%w: pair %d of %d", ErrInvalidNavigation, i, s.PairCount())
	}
	s.pairIndex = i
	s.emit(EventNavigation, NavigationData("jump_pair", s.page, s.pairIndex))
	return nil
}

// validCell reports whether key addresses a cell inside the session's
// grid: an existing page and one of the session's pairs in canonical
// orientation. Only in-grid cells may enter the ledger; anything else
// would inflate the judged count and defeat the completion gate.
func (s *Session) validCell(key ledger.CellKey) bool {
	if key.Page < 0 || key.Page >= s.PageCount() {
		return false
	}
	for _, p := range s.pairList {
		if p.A == key.ModelA && p.B == key.ModelB {
			return true
		}
	}
	return false
}

// Toggle applies the tri-state radio semantics to a cell: selecting the
// active outcome clears the cell, selecting another replaces it. The
// returned bool reports whether the cell is judged afterwards. Keys
// outside the session grid are rejected without touching the ledger.
func (s *Session) Toggle(key ledger.CellKey, o ledger.Outcome) bool {
	if !s.validCell(key) {
		return false
	}
	recorded := s.ledger.Toggle(key, o)
	s.emit(EventJudgment, JudgmentData(key.Page, key.ModelA, key.ModelB, string(o), recorded))
	return recorded
}

// record sets a cell's outcome unconditionally, overwriting any prior
// outcome. Out-of-grid keys are ignored.
func (s *Session) record(key ledger.CellKey, o ledger.Outcome) {
	if !s.validCell(key) {
		return
	}
	s.ledger.Set(key, o)
	s.emit(EventJudgment, JudgmentData(key.Page, key.ModelA, key.ModelB, string(o), true))
}

// ClearCell returns a cell to the unjudged state. Out-of-grid keys are
// ignored.
func (s *Session) ClearCell(key ledger.CellKey) {
	if !s.validCell(key) {
		return
	}
	s.ledger.Clear(key)
	s.emit(EventJudgment, JudgmentData(key.Page, key.ModelA, key.ModelB, "", false))
}

// OutcomeFor returns the recorded outcome for a cell, if any.
func (s *Session) OutcomeFor(key ledger.CellKey) (ledger.Outcome, bool) {
	return s.ledger.Get(key)
}

// EvaluatorID returns the evaluator identifier.
func (s *Session) EvaluatorID() string { return s.evaluatorID }

// SetEvaluatorID updates the evaluator identifier.
func (s *Session) SetEvaluatorID(id string) { s.evaluatorID = id }

// Submitted reports whether a submission has succeeded.
func (s *Session) Submitted() bool { return s.submitted }

// Progress returns the number of judged cells and the grid total. It is
// recomputed on every call; completion is never cached.
func (s *Session) Progress() (judged, total int) {
	return s.ledger.Len(), s.TotalCells()
}

// Complete reports whether every cell has been judged.
func (s *Session) Complete() bool {
	judged, total := s.Progress()
	return judged == total
}

// Submit encodes the ledger and hands all rows to the sink in one call.
// It is guarded by the completion and evaluator-ID invariants, and a sink
// failure leaves the session untouched so the evaluator can retry without
// re-entering anything.
func (s *Session) Submit(ctx context.Context, sink submit.Sink, now time.Time) error {
	judged, total := s.Progress()

	if s.submitted {
		return ErrAlreadySubmitted
	}
	if judged < total {
		s.emit(EventSubmitAttempt, SubmitAttemptData(s.evaluatorID, judged, total, false, "incomplete"))
		return fmt.Errorf("%w: %d of %d judged", ErrIncompleteEvaluation, judged, total)
	}
	if strings.TrimSpace(s.evaluatorID) == "" {
		s.emit(EventSubmitAttempt, SubmitAttemptData(s.evaluatorID, judged, total, false, "missing evaluator ID"))
		return ErrMissingEvaluatorID
	}

	rows := submit.Encode(s.evaluatorID, now, s.sample.Indices, s.ledger.Cells())
	if err := sink.Append(ctx, rows); err != nil {
		s.emit(EventSubmitAttempt, SubmitAttemptData(s.evaluatorID, judged, total, false, err.Error()))
		return fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	s.submitted = true
	s.emit(EventSubmitAttempt, SubmitAttemptData(s.evaluatorID, judged, total, true, ""))
	s.emit(EventSessionEnd, SessionEndData(judged, total, len(rows), time.Since(s.createdAt).Milliseconds()))
	return nil
}

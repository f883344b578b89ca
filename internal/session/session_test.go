package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotoba-bench/prefeval/internal/corpus"
	"github.com/kotoba-bench/prefeval/internal/ledger"
	"github.com/kotoba-bench/prefeval/internal/pairs"
	"github.com/kotoba-bench/prefeval/internal/sampling"
	"github.com/kotoba-bench/prefeval/internal/submit"
)

// fakeSink records appended batches and can be primed to fail.
type fakeSink struct {
	batches [][]submit.Row
	err     error
}

func (f *fakeSink) Append(_ context.Context, rows []submit.Row) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, rows)
	return nil
}

func newTestSession(t *testing.T, corpusSize, sampleSize int, models []string, opts ...Option) *Session {
	t.Helper()

	prompts := make([]corpus.Prompt, corpusSize)
	responses := make(map[string][]corpus.Response, len(models))
	for i := range prompts {
		prompts[i] = corpus.Prompt{Title: fmt.Sprintf("t%d", i), Speaker: "s", Response: "gold"}
	}
	for _, m := range models {
		recs := make([]corpus.Response, corpusSize)
		for i := range recs {
			recs[i] = corpus.Response{Output: fmt.Sprintf("%s-%d", m, i)}
		}
		responses[m] = recs
	}

	sample, err := sampling.Draw(rand.New(rand.NewSource(42)), prompts, responses, sampleSize)
	require.NoError(t, err)

	pairList := pairs.Generate(rand.New(rand.NewSource(7)), models)
	return New(sample, pairList, opts...)
}

func judgeAll(s *Session) {
	for page := 0; page < s.PageCount(); page++ {
		for i := 0; i < s.PairCount(); i++ {
			p := s.PairAt(i)
			s.record(ledger.CellKey{Page: page, ModelA: p.A, ModelB: p.B}, ledger.OutcomeTie)
		}
	}
}

func TestNavigation_BoundaryIdempotence(t *testing.T) {
	s := newTestSession(t, 10, 3, []string{"m1", "m2"})
	require.Equal(t, 3, s.PageCount())

	s.PrevPage()
	assert.Equal(t, 0, s.Page(), "retreat at lower boundary is a no-op")

	s.NextPage()
	s.NextPage()
	assert.Equal(t, 2, s.Page())
	s.NextPage()
	assert.Equal(t, 2, s.Page(), "advance at upper boundary is a no-op")
}

func TestNavigation_PageResetsPairCursor(t *testing.T) {
	s := newTestSession(t, 10, 3, []string{"m1", "m2", "m3"})
	require.Equal(t, 3, s.PairCount())

	s.NextPair()
	s.NextPair()
	assert.Equal(t, 2, s.PairIndex())

	s.NextPage()
	assert.Equal(t, 0, s.PairIndex(), "page change resets pair cursor")

	s.NextPair()
	s.PrevPage()
	assert.Equal(t, 0, s.PairIndex())
}

func TestNavigation_PairKeepsPage(t *testing.T) {
	s := newTestSession(t, 10, 3, []string{"m1", "m2", "m3"})

	s.NextPage()
	s.NextPair()
	assert.Equal(t, 1, s.Page(), "pair movement leaves the page alone")

	s.PrevPair()
	s.PrevPair()
	assert.Equal(t, 0, s.PairIndex())
	assert.Equal(t, 1, s.Page())
}

func TestNavigation_Jumps(t *testing.T) {
	s := newTestSession(t, 10, 4, []string{"m1", "m2", "m3"})

	require.NoError(t, s.JumpToPair(2))
	require.NoError(t, s.JumpToPage(3))
	assert.Equal(t, 3, s.Page())
	assert.Equal(t, 0, s.PairIndex(), "page jump resets pair cursor")

	require.NoError(t, s.JumpToPair(1))
	assert.Equal(t, 3, s.Page(), "pair jump keeps the page")

	assert.ErrorIs(t, s.JumpToPage(4), ErrInvalidNavigation)
	assert.ErrorIs(t, s.JumpToPage(-1), ErrInvalidNavigation)
	assert.ErrorIs(t, s.JumpToPair(3), ErrInvalidNavigation)

	// Rejected jumps never corrupt the cursors.
	assert.Equal(t, 3, s.Page())
	assert.Equal(t, 1, s.PairIndex())
}

func TestToggle_ThroughSession(t *testing.T) {
	s := newTestSession(t, 10, 2, []string{"m1", "m2"})
	key := s.CurrentCell()

	assert.True(t, s.Toggle(key, ledger.OutcomeModelA))
	got, ok := s.OutcomeFor(key)
	require.True(t, ok)
	assert.Equal(t, ledger.OutcomeModelA, got)

	assert.False(t, s.Toggle(key, ledger.OutcomeModelA))
	_, ok = s.OutcomeFor(key)
	assert.False(t, ok)
}

func TestJudgment_RejectsOutOfGridCells(t *testing.T) {
	s := newTestSession(t, 1, 1, []string{"m1", "m2"}, WithEvaluatorID("eval007"))
	require.Equal(t, 1, s.TotalCells())
	realKey := s.CurrentCell()
	p := s.PairAt(0)

	ghosts := []ledger.CellKey{
		{Page: 99, ModelA: "ghost", ModelB: "ghost2"},
		{Page: 99, ModelA: p.A, ModelB: p.B},
		{Page: -1, ModelA: p.A, ModelB: p.B},
		{Page: 0, ModelA: "ghost", ModelB: "ghost2"},
		{Page: 0, ModelA: p.B, ModelB: p.A}, // non-canonical orientation
	}
	for _, key := range ghosts {
		assert.False(t, s.Toggle(key, ledger.OutcomeTie), "key %+v", key)
		s.record(key, ledger.OutcomeTie)
		_, ok := s.OutcomeFor(key)
		assert.False(t, ok, "key %+v must not enter the ledger", key)
	}

	// A ghost judgment must not satisfy the completion gate while the
	// real cell is unjudged.
	judged, total := s.Progress()
	assert.Equal(t, 0, judged)
	assert.False(t, s.Complete())

	sink := &fakeSink{}
	err := s.Submit(context.Background(), sink, time.Now())
	assert.ErrorIs(t, err, ErrIncompleteEvaluation)
	assert.Empty(t, sink.batches)

	require.True(t, s.Toggle(realKey, ledger.OutcomeTie))
	judged, total = s.Progress()
	assert.Equal(t, 1, judged)
	assert.Equal(t, 1, total)

	require.NoError(t, s.Submit(context.Background(), sink, time.Now()))
	require.Len(t, sink.batches, 1)
	require.Len(t, sink.batches[0], 1, "only the real cell is persisted")
	row := sink.batches[0][0]
	assert.Equal(t, 0, row.Page)
	assert.Equal(t, p.A, row.ModelA)
	assert.Equal(t, p.B, row.ModelB)
	assert.NotEqual(t, -1, row.OriginalIndex)
}

func TestSubmit_Gating(t *testing.T) {
	s := newTestSession(t, 10, 2, []string{"m1", "m2"})
	sink := &fakeSink{}

	// Nothing judged yet.
	err := s.Submit(context.Background(), sink, time.Now())
	assert.ErrorIs(t, err, ErrIncompleteEvaluation)
	assert.Empty(t, sink.batches)

	// Everything judged but no evaluator ID.
	judgeAll(s)
	err = s.Submit(context.Background(), sink, time.Now())
	assert.ErrorIs(t, err, ErrMissingEvaluatorID)

	s.SetEvaluatorID("   ")
	err = s.Submit(context.Background(), sink, time.Now())
	assert.ErrorIs(t, err, ErrMissingEvaluatorID, "whitespace-only ID is rejected")

	s.SetEvaluatorID("eval007")
	require.NoError(t, s.Submit(context.Background(), sink, time.Now()))
	assert.True(t, s.Submitted())
	require.Len(t, sink.batches, 1, "all rows go in one call")
}

func TestSubmit_SinkFailureIsRetryable(t *testing.T) {
	s := newTestSession(t, 10, 2, []string{"m1", "m2"}, WithEvaluatorID("eval007"))
	judgeAll(s)

	boom := errors.New("quota exceeded")
	sink := &fakeSink{err: boom}

	err := s.Submit(context.Background(), sink, time.Now())
	assert.ErrorIs(t, err, ErrPersistenceFailure)
	assert.ErrorIs(t, err, boom)
	assert.False(t, s.Submitted())

	judged, total := s.Progress()
	assert.Equal(t, total, judged, "ledger intact after failure")

	// Retry with a healthy sink succeeds without re-entering judgments.
	sink.err = nil
	require.NoError(t, s.Submit(context.Background(), sink, time.Now()))
	assert.True(t, s.Submitted())

	// A second successful submission is refused; the store is append-only.
	err = s.Submit(context.Background(), sink, time.Now())
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Len(t, sink.batches, 1)
}

func TestSubmit_ConcreteScenario(t *testing.T) {
	// 100 prompts, 5 models, sample size 5: 10 pairs, 50 cells, 50 rows.
	models := []string{"gpt4o", "gpt4o_mini", "nekomata", "sarashina", "swallow"}
	s := newTestSession(t, 100, 5, models, WithEvaluatorID("eval007"))

	assert.Equal(t, 5, s.PageCount())
	assert.Equal(t, 10, s.PairCount())
	assert.Equal(t, 50, s.TotalCells())

	judgeAll(s)
	sink := &fakeSink{}
	require.NoError(t, s.Submit(context.Background(), sink, time.Now()))

	require.Len(t, sink.batches, 1)
	rows := sink.batches[0]
	require.Len(t, rows, 50)

	valid := map[string]bool{"tie": true}
	for _, m := range models {
		valid[m] = true
	}
	for _, row := range rows {
		assert.Equal(t, "eval007", row.EvaluatorID)
		assert.True(t, valid[row.Winner], "winner %q", row.Winner)
		assert.GreaterOrEqual(t, row.OriginalIndex, 0)
		assert.Less(t, row.OriginalIndex, 100)
	}
}

func TestProgress(t *testing.T) {
	s := newTestSession(t, 10, 2, []string{"m1", "m2", "m3"})

	judged, total := s.Progress()
	assert.Equal(t, 0, judged)
	assert.Equal(t, 6, total)
	assert.False(t, s.Complete())

	judgeAll(s)
	judged, total = s.Progress()
	assert.Equal(t, total, judged)
	assert.True(t, s.Complete())
}

func TestEventLog_Replay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "20250601T000000Z-session.jsonl")
	logger, err := NewJSONLogger(path)
	require.NoError(t, err)

	s := newTestSession(t, 10, 2, []string{"m1", "m2"}, WithLogger(logger), WithEvaluatorID("eval007"))
	key := s.CurrentCell()

	s.Toggle(key, ledger.OutcomeModelA)
	s.Toggle(key, ledger.OutcomeModelA) // toggled off
	s.NextPage()
	judgeAll(s)
	require.NoError(t, s.Submit(context.Background(), &fakeSink{}, time.Now()))
	require.NoError(t, logger.Close())

	events, err := ReadEvents(path)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, EventSessionStart, events[0].Type)
	assert.Equal(t, EventSessionEnd, events[len(events)-1].Type)

	replayed, indices := Replay(events)
	assert.Equal(t, s.TotalCells(), replayed.Len(), "replay matches the final ledger")
	assert.Len(t, indices, s.PageCount())

	got, ok := replayed.Get(key)
	require.True(t, ok)
	assert.Equal(t, ledger.OutcomeTie, got, "judgeAll overwrote the toggled cell")
}

func TestListLogs(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewJSONLogger(filepath.Join(dir, "20250601T000000Z-session.jsonl"))
	require.NoError(t, err)
	require.NoError(t, logger.Log(NewEvent(EventSessionStart, nil)))
	require.NoError(t, logger.Close())

	files, err := ListLogs(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, 1, files[0].NumEvents)
}

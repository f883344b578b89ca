package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotoba-bench/prefeval/internal/session"
)

func writeSessionLog(t *testing.T, events []session.Event) string {
	t.Helper()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, ev := range events {
		require.NoError(t, enc.Encode(ev))
	}
	path := filepath.Join(t.TempDir(), "20250601T000000Z-session.jsonl")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestExportCommand(t *testing.T) {
	base := time.Date(2025, 6, 1, 3, 30, 0, 0, time.UTC)
	at := func(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }

	events := []session.Event{
		{Timestamp: at(0), Type: session.EventSessionStart,
			Data: session.SessionStartData("sess-1", 2, 1, []int{4, 7})},
		{Timestamp: at(1), Type: session.EventJudgment,
			Data: session.JudgmentData(0, "m1", "m2", "model_a", true)},
		// Toggled back off, then re-judged as a tie.
		{Timestamp: at(2), Type: session.EventJudgment,
			Data: session.JudgmentData(0, "m1", "m2", "model_a", false)},
		{Timestamp: at(3), Type: session.EventJudgment,
			Data: session.JudgmentData(0, "m1", "m2", "tie", true)},
		{Timestamp: at(4), Type: session.EventJudgment,
			Data: session.JudgmentData(1, "m1", "m2", "model_b", true)},
		{Timestamp: at(5), Type: session.EventSubmitAttempt,
			Data: session.SubmitAttemptData("tanaka", 2, 2, false, "persistence failure")},
	}
	path := writeSessionLog(t, events)

	cmd := newExportCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{path, "--timezone", "UTC"})

	require.NoError(t, cmd.Execute())

	csv := out.String()
	assert.Contains(t, csv, "evaluator_id,timestamp,page,original_index,model_a,model_b,winner")
	assert.Contains(t, csv, "tanaka,2025-06-01 03:35:00 +00:00,0,4,m1,m2,tie")
	assert.Contains(t, csv, "tanaka,2025-06-01 03:35:00 +00:00,1,7,m1,m2,m2")
	assert.Contains(t, errOut.String(), "exported 2 rows")
}

func TestExportCommandEvaluatorFlagWins(t *testing.T) {
	events := []session.Event{
		{Timestamp: time.Now().UTC(), Type: session.EventSessionStart,
			Data: session.SessionStartData("sess-2", 1, 1, []int{0})},
		{Timestamp: time.Now().UTC(), Type: session.EventJudgment,
			Data: session.JudgmentData(0, "m1", "m2", "model_a", true)},
	}
	path := writeSessionLog(t, events)

	outPath := filepath.Join(t.TempDir(), "rows.csv")
	cmd := newExportCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{path, "--evaluator", "suzuki", "--output", outPath, "--timezone", "UTC"})

	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "suzuki")
}

func TestExportCommandNoEvaluator(t *testing.T) {
	events := []session.Event{
		{Timestamp: time.Now().UTC(), Type: session.EventSessionStart,
			Data: session.SessionStartData("sess-3", 1, 1, []int{0})},
	}
	path := writeSessionLog(t, events)

	cmd := newExportCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--evaluator")
}

func TestExportCommandEmptyLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty-session.jsonl")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cmd := newExportCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{path})

	assert.Error(t, cmd.Execute())
}

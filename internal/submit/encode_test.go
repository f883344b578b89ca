package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotoba-bench/prefeval/internal/ledger"
)

var testTime = time.Date(2025, 6, 1, 12, 30, 0, 0, time.FixedZone("JST", 9*60*60))

func TestEncode_WinnerResolution(t *testing.T) {
	cells := []ledger.Cell{
		{CellKey: ledger.CellKey{Page: 0, ModelA: "m1", ModelB: "m2"}, Outcome: ledger.OutcomeModelA},
		{CellKey: ledger.CellKey{Page: 0, ModelA: "m1", ModelB: "m3"}, Outcome: ledger.OutcomeModelB},
		{CellKey: ledger.CellKey{Page: 1, ModelA: "m2", ModelB: "m3"}, Outcome: ledger.OutcomeTie},
	}

	rows := Encode("eval007", testTime, []int{42, 7}, cells)
	require.Len(t, rows, 3)

	assert.Equal(t, "m1", rows[0].Winner)
	assert.Equal(t, "m3", rows[1].Winner)
	assert.Equal(t, "tie", rows[2].Winner)

	for _, row := range rows {
		assert.Equal(t, "eval007", row.EvaluatorID)
		assert.Equal(t, "2025-06-01 12:30:00 +09:00", row.Timestamp)
	}
}

func TestEncode_OriginalIndex(t *testing.T) {
	cells := []ledger.Cell{
		{CellKey: ledger.CellKey{Page: 0, ModelA: "a", ModelB: "b"}, Outcome: ledger.OutcomeTie},
		{CellKey: ledger.CellKey{Page: 1, ModelA: "a", ModelB: "b"}, Outcome: ledger.OutcomeTie},
		{CellKey: ledger.CellKey{Page: 5, ModelA: "a", ModelB: "b"}, Outcome: ledger.OutcomeTie},
	}

	rows := Encode("u", testTime, []int{42, 7}, cells)
	require.Len(t, rows, 3)
	assert.Equal(t, 42, rows[0].OriginalIndex)
	assert.Equal(t, 7, rows[1].OriginalIndex)
	// Page beyond the sampled sequence carries the sentinel, not an error.
	assert.Equal(t, -1, rows[2].OriginalIndex)
}

func TestEncode_Repeatable(t *testing.T) {
	l := ledger.New()
	l.Set(ledger.CellKey{Page: 1, ModelA: "x", ModelB: "y"}, ledger.OutcomeModelB)
	l.Set(ledger.CellKey{Page: 0, ModelA: "x", ModelB: "y"}, ledger.OutcomeModelA)

	first := Encode("u", testTime, []int{3, 9}, l.Cells())
	second := Encode("u", testTime, []int{3, 9}, l.Cells())
	assert.Equal(t, first, second)
	assert.Equal(t, 2, l.Len())
}

func TestRow_Values(t *testing.T) {
	row := Row{
		EvaluatorID:   "e",
		Timestamp:     "ts",
		Page:          3,
		OriginalIndex: 17,
		ModelA:        "a",
		ModelB:        "b",
		Winner:        "a",
	}
	assert.Equal(t, []any{"e", "ts", 3, 17, "a", "b", "a"}, row.Values())
}

func TestFileSink_AppendsNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "rows.jsonl")
	sink, err := NewFileSink(path)
	require.NoError(t, err)

	rows := []Row{
		{EvaluatorID: "e", Page: 0, OriginalIndex: 4, ModelA: "a", ModelB: "b", Winner: "a"},
		{EvaluatorID: "e", Page: 1, OriginalIndex: 9, ModelA: "a", ModelB: "b", Winner: "tie"},
	}
	require.NoError(t, sink.Append(context.Background(), rows))
	require.NoError(t, sink.Append(context.Background(), rows[:1]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)

	var decoded Row
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &decoded))
	assert.Equal(t, "tie", decoded.Winner)
	assert.Equal(t, 9, decoded.OriginalIndex)
}

func TestFileSink_CancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.jsonl")
	sink, err := NewFileSink(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = sink.Append(ctx, []Row{{EvaluatorID: "e"}})
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "nothing should be written after cancellation")
}

func TestWriteCSV(t *testing.T) {
	rows := []Row{
		{EvaluatorID: "e1", Timestamp: "2025-06-01 12:30:00 +09:00", Page: 0, OriginalIndex: 42, ModelA: "a", ModelB: "b", Winner: "a"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "evaluator_id,timestamp,page,original_index,model_a,model_b,winner", lines[0])
	assert.Equal(t, "e1,2025-06-01 12:30:00 +09:00,0,42,a,b,a", lines[1])
}

// Package submit converts a session's judgment ledger into flat rows and
// appends them to a durable external store. Encoding is pure and
// repeatable; the sinks are the only place a submission can fail.
package submit

import (
	"time"

	"github.com/kotoba-bench/prefeval/internal/ledger"
)

// timeLayout matches the human-readable timestamps the collection sheet
// has always carried.
const timeLayout = "2006-01-02 15:04:05 -07:00"

// WinnerTie is the literal recorded when neither model wins.
const WinnerTie = "tie"

// Row is one persisted judgment. Field order mirrors the sheet columns.
type Row struct {
	EvaluatorID   string `json:"evaluator_id"`
	Timestamp     string `json:"timestamp"`
	Page          int    `json:"page"`
	OriginalIndex int    `json:"original_index"`
	ModelA        string `json:"model_a"`
	ModelB        string `json:"model_b"`
	Winner        string `json:"winner"`
}

// Values returns the row as an ordered tuple, the shape append-style
// stores take.
func (r Row) Values() []any {
	return []any{r.EvaluatorID, r.Timestamp, r.Page, r.OriginalIndex, r.ModelA, r.ModelB, r.Winner}
}

// Encode produces one row per judged cell. The winner column carries the
// winning model's identifier, or "tie". OriginalIndex resolves each page
// through the session's sampled-index sequence; a page outside that
// sequence encodes the sentinel -1 rather than failing.
//
// Encode never mutates its inputs, so calling it again before a
// successful persist yields identical output.
func Encode(evaluatorID string, ts time.Time, sampledIndices []int, cells []ledger.Cell) []Row {
	stamp := ts.Format(timeLayout)

	rows := make([]Row, 0, len(cells))
	for _, c := range cells {
		winner := WinnerTie
		switch c.Outcome {
		case ledger.OutcomeModelA:
			winner = c.ModelA
		case ledger.OutcomeModelB:
			winner = c.ModelB
		}

		originalIndex := -1
		if c.Page >= 0 && c.Page < len(sampledIndices) {
			originalIndex = sampledIndices[c.Page]
		}

		rows = append(rows, Row{
			EvaluatorID:   evaluatorID,
			Timestamp:     stamp,
			Page:          c.Page,
			OriginalIndex: originalIndex,
			ModelA:        c.ModelA,
			ModelB:        c.ModelB,
			Winner:        winner,
		})
	}
	return rows
}

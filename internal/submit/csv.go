package submit

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// csvHeader mirrors the sheet column order.
var csvHeader = []string{"evaluator_id", "timestamp", "page", "original_index", "model_a", "model_b", "winner"}

// WriteCSV writes rows as CSV with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("csv: writing header: %w", err)
	}
	for i, row := range rows {
		record := []string{
			row.EvaluatorID,
			row.Timestamp,
			strconv.Itoa(row.Page),
			strconv.Itoa(row.OriginalIndex),
			row.ModelA,
			row.ModelB,
			row.Winner,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("csv: writing row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

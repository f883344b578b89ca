package submit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Sink appends a batch of judgment rows to a durable store. The whole
// batch is handed over in one call; implementations must not leave the
// store partially written on error, since the caller treats a failure as
// "nothing was persisted" and retries the full batch.
type Sink interface {
	Append(ctx context.Context, rows []Row) error
}

// FileSink appends rows as newline-delimited JSON to a local file. It is
// the offline alternative to the spreadsheet sink.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink creates a sink writing NDJSON to path. Parent directories
// are created automatically.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating submission directory: %w", err)
	}
	return &FileSink{path: path}, nil
}

// Append writes all rows, one JSON object per line. Rows are buffered and
// written in a single OS write so a failure cannot leave a partial batch
// behind.
func (s *FileSink) Append(ctx context.Context, rows []Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var buf []byte
	for _, row := range rows {
		line, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encoding row: %w", err)
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", s.path, err)
	}
	defer f.Close() //nolint:errcheck

	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("appending to %s: %w", s.path, err)
	}
	return f.Sync()
}

// Path returns the file the sink appends to.
func (s *FileSink) Path() string {
	return s.path
}

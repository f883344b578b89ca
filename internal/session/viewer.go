package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kotoba-bench/prefeval/internal/ledger"
)

// File represents a session log file on disk.
type File struct {
	Path      string
	Name      string
	Size      int64
	ModTime   time.Time
	NumEvents int
}

// ListLogs finds .jsonl session log files in dir, newest first.
func ListLogs(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading session directory: %w", err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), "-session.jsonl") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		path := filepath.Join(dir, e.Name())
		n, _ := countLines(path) //nolint:errcheck
		files = append(files, File{
			Path:      path,
			Name:      e.Name(),
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			NumEvents: n,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files, nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close() //nolint:errcheck
	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}

// ReadEvents parses all events from a session log file.
func ReadEvents(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening session file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	var events []Event
	scanner := bufio.NewScanner(f)
	// Increase buffer for large lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue // skip malformed lines
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	return events, nil
}

// Replay reconstructs the final ledger and the sampled-index sequence from
// a session's event stream. Judgment events apply in order, so toggles that
// cleared a cell leave it absent, exactly as the live session ended up.
func Replay(events []Event) (*ledger.Ledger, []int) {
	l := ledger.New()
	var indices []int

	for _, ev := range events {
		switch ev.Type {
		case EventSessionStart:
			if raw, ok := ev.Data["sampled_indices"].([]any); ok {
				indices = make([]int, 0, len(raw))
				for _, v := range raw {
					indices = append(indices, jsonNumber(v))
				}
			}
		case EventJudgment:
			key := ledger.CellKey{
				Page:   jsonNumber(ev.Data["page"]),
				ModelA: str(ev.Data["model_a"]),
				ModelB: str(ev.Data["model_b"]),
			}
			recorded, _ := ev.Data["recorded"].(bool) //nolint:errcheck
			if recorded {
				l.Set(key, ledger.Outcome(str(ev.Data["outcome"])))
			} else {
				l.Clear(key)
			}
		}
	}
	return l, indices
}

// RenderTimeline writes a human-readable session timeline to w.
//
//nolint:errcheck // display-only writes; errors are not actionable
func RenderTimeline(w io.Writer, events []Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return
	}

	start := events[0].Timestamp
	for _, ev := range events {
		ts := formatDuration(ev.Timestamp.Sub(start))

		switch ev.Type {
		case EventSessionStart:
			fmt.Fprintf(w, "[%s] session started  pages=%d pairs=%d\n",
				ts, jsonNumber(ev.Data["page_count"]), jsonNumber(ev.Data["pair_count"]))

		case EventNavigation:
			fmt.Fprintf(w, "[%s]   %s -> page %d, pair %d\n",
				ts, str(ev.Data["action"]), jsonNumber(ev.Data["page"]), jsonNumber(ev.Data["pair_index"]))

		case EventJudgment:
			mark := "cleared"
			if recorded, _ := ev.Data["recorded"].(bool); recorded { //nolint:errcheck
				mark = str(ev.Data["outcome"])
			}
			fmt.Fprintf(w, "[%s]   page %d  %s vs %s: %s\n",
				ts, jsonNumber(ev.Data["page"]), str(ev.Data["model_a"]), str(ev.Data["model_b"]), mark)

		case EventSubmitAttempt:
			verdict := "rejected"
			if accepted, _ := ev.Data["accepted"].(bool); accepted { //nolint:errcheck
				verdict = "accepted"
			}
			fmt.Fprintf(w, "[%s] submit %s  %d/%d judged\n",
				ts, verdict, jsonNumber(ev.Data["judged"]), jsonNumber(ev.Data["total"]))

		case EventSessionEnd:
			fmt.Fprintf(w, "[%s] session complete  %d rows persisted (%dms)\n",
				ts, jsonNumber(ev.Data["rows"]), jsonNumber(ev.Data["duration_ms"]))

		default:
			fmt.Fprintf(w, "[%s] %s %v\n", ts, ev.Type, ev.Data)
		}
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%6dms", d.Milliseconds())
	}
	return fmt.Sprintf("%6.1fs", d.Seconds())
}

func str(v any) string {
	s, _ := v.(string) //nolint:errcheck
	return s
}

// jsonNumber extracts a number from a JSON-decoded interface{} (float64 or json.Number).
func jsonNumber(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		i, _ := n.Int64() //nolint:errcheck
		return int(i)
	}
	return 0
}

package corpus

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// maxLineBytes bounds a single JSONL record. Conversation contexts can get
// long, so this is generous.
const maxLineBytes = 4 * 1024 * 1024

// readJSONL reads newline-delimited JSON records from path. Blank lines are
// ignored. A line that fails to parse is skipped with a warning rather than
// aborting the read; the number of skipped lines is returned so callers can
// report it.
func readJSONL[T any](path string) (records []T, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("jsonl: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec T
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			slog.Warn("skipping malformed record", "path", path, "line", lineNum, "error", err)
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("jsonl: read %s: %w", path, err)
	}

	return records, skipped, nil
}

// LoadPrompts reads the prompt corpus from a JSONL file. A missing or
// unreadable file is an error: no session can be formed without prompts.
func LoadPrompts(path string) ([]Prompt, int, error) {
	return readJSONL[Prompt](path)
}

// LoadPersona reads persona facts from a JSONL file.
func LoadPersona(path string) ([]PersonaFact, int, error) {
	return readJSONL[PersonaFact](path)
}

// LoadResponses loads <dir>/<model>.jsonl for every candidate model,
// concurrently. A missing file yields an empty sequence for that model
// (the sampler's min-length computation propagates the degenerate case),
// so only genuine read failures are returned as errors.
func LoadResponses(dir string, models []string) (map[string][]Response, error) {
	responses := make(map[string][]Response, len(models))

	var g errgroup.Group
	results := make([][]Response, len(models))

	for i, model := range models {
		path := filepath.Join(dir, model+".jsonl")
		g.Go(func() error {
			recs, skipped, err := readJSONL[Response](path)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					slog.Warn("no response file for model", "model", model, "path", path)
					return nil
				}
				return fmt.Errorf("loading responses for %s: %w", model, err)
			}
			if skipped > 0 {
				slog.Warn("model responses contained malformed records",
					"model", model, "skipped", skipped)
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, model := range models {
		responses[model] = results[i]
	}
	return responses, nil
}

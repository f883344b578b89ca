// Package study loads and validates the YAML specification describing one
// evaluation study: the candidate models, the sampling parameters, and
// where the corpora and the collection sheet live.
package study

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Spec represents a complete study specification.
type Spec struct {
	Name       string      `yaml:"name"`
	Models     []string    `yaml:"models"`
	SampleSize int         `yaml:"sample_size"`
	Seed       int64       `yaml:"seed"`
	Data       DataPaths   `yaml:"data"`
	Sheet      SheetConfig `yaml:"sheet"`
	Timezone   string      `yaml:"timezone,omitempty"`
	LogDir     string      `yaml:"session_log_dir,omitempty"`
}

// DataPaths locates the JSONL corpora, relative to the spec file unless
// absolute.
type DataPaths struct {
	Prompts    string `yaml:"prompts"`
	OutputsDir string `yaml:"outputs_dir"`
	Persona    string `yaml:"persona,omitempty"`
}

// SheetConfig identifies the Google Sheets worksheet submissions append to.
type SheetConfig struct {
	SpreadsheetID string `yaml:"spreadsheet_id,omitempty"`
	Worksheet     string `yaml:"worksheet,omitempty"`
	Credentials   string `yaml:"credentials,omitempty"`
}

// Defaults applied when the spec leaves a field unset.
const (
	DefaultSeed       = 42
	DefaultSampleSize = 5
	DefaultTimezone   = "Asia/Tokyo"
	DefaultWorksheet  = "Sheet1"
)

// Load reads a spec from a YAML file, applies defaults, resolves data
// paths relative to the spec's directory, and validates.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing study spec: %w", err)
	}

	spec.applyDefaults()
	spec.resolvePaths(filepath.Dir(path))

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

func (s *Spec) applyDefaults() {
	if s.Seed == 0 {
		s.Seed = DefaultSeed
	}
	if s.SampleSize == 0 {
		s.SampleSize = DefaultSampleSize
	}
	if s.Timezone == "" {
		s.Timezone = DefaultTimezone
	}
	if s.Sheet.Worksheet == "" {
		s.Sheet.Worksheet = DefaultWorksheet
	}
}

func (s *Spec) resolvePaths(baseDir string) {
	s.Data.Prompts = resolve(s.Data.Prompts, baseDir)
	s.Data.OutputsDir = resolve(s.Data.OutputsDir, baseDir)
	s.Data.Persona = resolve(s.Data.Persona, baseDir)
	s.Sheet.Credentials = resolve(s.Sheet.Credentials, baseDir)
	s.LogDir = resolve(s.LogDir, baseDir)
}

func resolve(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Validate checks that the spec is usable.
func (s *Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("study name is required")
	}
	if len(s.Models) < 2 {
		return fmt.Errorf("at least 2 candidate models are required, got %d", len(s.Models))
	}
	seen := make(map[string]bool, len(s.Models))
	for _, m := range s.Models {
		if m == "" {
			return fmt.Errorf("candidate model names must be non-empty")
		}
		if seen[m] {
			return fmt.Errorf("duplicate candidate model %q", m)
		}
		seen[m] = true
	}
	if s.SampleSize < 1 {
		return fmt.Errorf("sample_size must be at least 1, got %d", s.SampleSize)
	}
	if s.Data.Prompts == "" {
		return fmt.Errorf("data.prompts is required")
	}
	if s.Data.OutputsDir == "" {
		return fmt.Errorf("data.outputs_dir is required")
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}
	return nil
}

// Location returns the timezone submissions are timestamped in.
func (s *Spec) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// PairCount returns the number of unordered model pairs the study yields.
func (s *Spec) PairCount() int {
	m := len(s.Models)
	return m * (m - 1) / 2
}

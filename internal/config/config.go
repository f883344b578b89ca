// Package config carries the runtime settings for one study run: the
// loaded spec plus everything decided at the command line rather than in
// the spec file.
package config

import "github.com/kotoba-bench/prefeval/internal/study"

// RunConfig wraps a study spec with per-invocation settings.
type RunConfig struct {
	spec        *study.Spec
	evaluatorID string
	outputPath  string
	logDir      string
	verbose     bool
}

// Option mutates a RunConfig during construction.
type Option func(*RunConfig)

// NewRunConfig creates a config for the given spec with all options applied.
func NewRunConfig(spec *study.Spec, opts ...Option) *RunConfig {
	cfg := &RunConfig{spec: spec, logDir: spec.LogDir}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithEvaluatorID sets the evaluator identifier up front, skipping the
// interactive prompt.
func WithEvaluatorID(id string) Option {
	return func(c *RunConfig) { c.evaluatorID = id }
}

// WithOutputPath routes submissions to a local NDJSON file instead of the
// configured sheet.
func WithOutputPath(path string) Option {
	return func(c *RunConfig) { c.outputPath = path }
}

// WithLogDir overrides the session event log directory.
func WithLogDir(dir string) Option {
	return func(c *RunConfig) {
		if dir != "" {
			c.logDir = dir
		}
	}
}

// WithVerbose enables verbose progress output.
func WithVerbose(v bool) Option {
	return func(c *RunConfig) { c.verbose = v }
}

// Spec returns the loaded study spec.
func (c *RunConfig) Spec() *study.Spec { return c.spec }

// EvaluatorID returns the pre-set evaluator identifier, if any.
func (c *RunConfig) EvaluatorID() string { return c.evaluatorID }

// OutputPath returns the local submission file path, empty when the sheet
// sink is in use.
func (c *RunConfig) OutputPath() string { return c.outputPath }

// LogDir returns the session event log directory, empty when logging is
// disabled.
func (c *RunConfig) LogDir() string { return c.logDir }

// Verbose reports whether verbose output is enabled.
func (c *RunConfig) Verbose() bool { return c.verbose }

package config

import (
	"testing"

	"github.com/kotoba-bench/prefeval/internal/study"
)

func TestNewRunConfig_DefaultValues(t *testing.T) {
	spec := &study.Spec{Name: "test-study", LogDir: "logs"}

	cfg := NewRunConfig(spec)

	if cfg.Spec() != spec {
		t.Fatalf("Spec() = %p, want %p", cfg.Spec(), spec)
	}
	if cfg.EvaluatorID() != "" {
		t.Fatalf("EvaluatorID() = %q, want empty", cfg.EvaluatorID())
	}
	if cfg.OutputPath() != "" {
		t.Fatalf("OutputPath() = %q, want empty", cfg.OutputPath())
	}
	if cfg.LogDir() != "logs" {
		t.Fatalf("LogDir() = %q, want %q (inherited from spec)", cfg.LogDir(), "logs")
	}
	if cfg.Verbose() {
		t.Fatalf("Verbose() = true, want false")
	}
}

func TestNewRunConfig_AppliesFunctionalOptions(t *testing.T) {
	spec := &study.Spec{Name: "test-study"}

	cfg := NewRunConfig(
		spec,
		WithEvaluatorID("eval007"),
		WithOutputPath("rows.jsonl"),
		WithLogDir("/tmp/session-logs"),
		WithVerbose(true),
	)

	if cfg.EvaluatorID() != "eval007" {
		t.Fatalf("EvaluatorID() = %q, want %q", cfg.EvaluatorID(), "eval007")
	}
	if cfg.OutputPath() != "rows.jsonl" {
		t.Fatalf("OutputPath() = %q, want %q", cfg.OutputPath(), "rows.jsonl")
	}
	if cfg.LogDir() != "/tmp/session-logs" {
		t.Fatalf("LogDir() = %q, want %q", cfg.LogDir(), "/tmp/session-logs")
	}
	if !cfg.Verbose() {
		t.Fatalf("Verbose() = false, want true")
	}
}

func TestWithLogDir_EmptyKeepsSpecValue(t *testing.T) {
	spec := &study.Spec{Name: "test-study", LogDir: "from-spec"}

	cfg := NewRunConfig(spec, WithLogDir(""))
	if cfg.LogDir() != "from-spec" {
		t.Fatalf("LogDir() = %q, want %q", cfg.LogDir(), "from-spec")
	}
}

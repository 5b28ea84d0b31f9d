package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"uppercase INFO", "INFO", slog.LevelInfo},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"uppercase TRACE", "TRACE", LevelTrace},
		{"mixed case Debug", "Debug", slog.LevelDebug},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"info level", "info"},
		{"debug level", "debug"},
		{"trace level", "trace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)
			if logger == nil {
				t.Fatal("NewLogger returned nil")
			}
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		logAtDebug bool
		logAtInfo  bool
	}{
		{"info filters debug", "info", false, true},
		{"debug passes debug", "debug", true, true},
		{"trace passes debug", "trace", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Debug("debug message")
			hasDebug := strings.Contains(buf.String(), "debug message")
			if hasDebug != tt.logAtDebug {
				t.Errorf("debug message visible = %v, want %v (buf: %q)", hasDebug, tt.logAtDebug, buf.String())
			}

			buf.Reset()
			logger.Info("info message")
			hasInfo := strings.Contains(buf.String(), "info message")
			if hasInfo != tt.logAtInfo {
				t.Errorf("info message visible = %v, want %v (buf: %q)", hasInfo, tt.logAtInfo, buf.String())
			}
		})
	}
}

func TestLevelTrace(t *testing.T) {
	// Trace should be below debug (more verbose)
	if LevelTrace >= slog.LevelDebug {
		t.Errorf("LevelTrace (%d) should be less than LevelDebug (%d)", LevelTrace, slog.LevelDebug)
	}
}

func TestNewStepLogger_InfoLevel(t *testing.T) {
	dir := t.TempDir()
	sl := NewStepLogger(dir, "info", "run-1")

	// At info level, step logger should be nil
	if sl != nil {
		t.Error("expected nil StepLogger at info level")
	}

	// Nil logger should still be safe to use
	sl.Log(map[string]any{"step": 1})

	path := filepath.Join(dir, "steps.jsonl")
	if _, err := os.Stat(path); err == nil {
		t.Error("steps.jsonl should not exist at info level")
	}
}

func TestNewStepLogger_DebugLevel(t *testing.T) {
	dir := t.TempDir()
	sl := NewStepLogger(dir, "debug", "run-1")
	defer sl.Close()

	sl.Log(map[string]any{"step": 3, "infectious": 12})

	path := filepath.Join(dir, "steps.jsonl")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read steps.jsonl: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("failed to parse JSONL entry: %v", err)
	}

	if entry["step"] != 3.0 {
		t.Errorf("step = %v, want 3", entry["step"])
	}
	if entry["infectious"] != 12.0 {
		t.Errorf("infectious = %v, want 12", entry["infectious"])
	}
	if entry["run"] != "run-1" {
		t.Errorf("run = %v, want run-1", entry["run"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected 'time' field in step log entry")
	}
}

func TestNewStepLogger_TraceLevel(t *testing.T) {
	dir := t.TempDir()
	sl := NewStepLogger(dir, "trace", "")
	defer sl.Close()

	sl.Log(map[string]any{"event": "trace_step"})

	data, err := os.ReadFile(filepath.Join(dir, "steps.jsonl"))
	if err != nil {
		t.Fatalf("failed to read steps.jsonl: %v", err)
	}

	if !strings.Contains(string(data), "trace_step") {
		t.Error("expected trace_step in steps.jsonl")
	}
	if strings.Contains(string(data), `"run"`) {
		t.Error("run field should be omitted when no run id is set")
	}
}

func TestStepLogger_MultipleWrites(t *testing.T) {
	dir := t.TempDir()
	sl := NewStepLogger(dir, "debug", "run-2")
	defer sl.Close()

	sl.Log(map[string]any{"step": 1})
	sl.Log(map[string]any{"step": 2})

	data, err := os.ReadFile(filepath.Join(dir, "steps.jsonl"))
	if err != nil {
		t.Fatalf("failed to read steps.jsonl: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), string(data))
	}

	var first, second map[string]any
	json.Unmarshal([]byte(lines[0]), &first)
	json.Unmarshal([]byte(lines[1]), &second)

	if first["step"] != 1.0 {
		t.Errorf("first step = %v, want 1", first["step"])
	}
	if second["step"] != 2.0 {
		t.Errorf("second step = %v, want 2", second["step"])
	}
}

func TestStepLogger_NilSafety(t *testing.T) {
	var sl *StepLogger
	sl.Log(map[string]any{"step": 0})
	sl.Close()
}

func TestStepLogger_DoesNotMutateCallerMap(t *testing.T) {
	dir := t.TempDir()
	sl := NewStepLogger(dir, "debug", "run-3")
	defer sl.Close()

	event := map[string]any{"step": 5}
	sl.Log(event)

	if _, hasTime := event["time"]; hasTime {
		t.Error("Log() should not mutate caller's map, but 'time' was injected")
	}
	if _, hasRun := event["run"]; hasRun {
		t.Error("Log() should not mutate caller's map, but 'run' was injected")
	}
}

func TestStepLogger_LogAfterClose(t *testing.T) {
	dir := t.TempDir()
	sl := NewStepLogger(dir, "debug", "")

	sl.Log(map[string]any{"step": 1})
	sl.Close()

	// Should be a no-op, not panic or error
	sl.Log(map[string]any{"step": 2})
}

func TestNewStepLogger_CreatesDir(t *testing.T) {
	base := t.TempDir()
	nestedDir := filepath.Join(base, "sub", "dir")

	sl := NewStepLogger(nestedDir, "debug", "")
	if sl == nil {
		t.Fatal("expected non-nil StepLogger when dir needs creation")
	}
	defer sl.Close()

	sl.Log(map[string]any{"step": 0})

	if _, err := os.Stat(filepath.Join(nestedDir, "steps.jsonl")); err != nil {
		t.Fatalf("steps.jsonl should exist after dir creation: %v", err)
	}
}

func TestStepLogger_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	sl := NewStepLogger(dir, "debug", "")
	defer sl.Close()

	sl.Log(map[string]any{"step": 0})

	info, err := os.Stat(filepath.Join(dir, "steps.jsonl"))
	if err != nil {
		t.Fatalf("failed to stat steps.jsonl: %v", err)
	}

	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

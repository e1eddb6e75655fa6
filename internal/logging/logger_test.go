package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"meditate/internal/config"
	"meditate/internal/logging"
	"meditate/internal/services"
)

func TestNewFromConfigWritesJSONLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(t.TempDir(), "state")
	cfg.Logging.Level = "error"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("filtered out")
	logger.Error("render failed", logging.Int(logging.FieldEntryID, 7))

	content, err := os.ReadFile(cfg.LogPath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %d: %q", len(lines), content)
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if record["msg"] != "render failed" || record["level"] != "error" {
		t.Fatalf("unexpected record %v", record)
	}
	if record["entry_id"] != float64(7) {
		t.Fatalf("expected entry_id 7, got %v", record["entry_id"])
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerFormatsSubjectFromContext(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "subject.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithEntryID(ctx, 3)
	ctx = services.WithStage(ctx, "fade")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "batch")).Info("fade applied", logging.String("outcome", "full"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "batch · Entry #03 (fade): fade applied") {
		t.Fatalf("expected subject prefix, got %q", line)
	}
	if !strings.Contains(line, "run_id=run-1") || !strings.Contains(line, "outcome=full") {
		t.Fatalf("expected trailing fields, got %q", line)
	}
	if strings.Contains(line, "entry_id=") {
		t.Fatalf("entry_id should fold into the subject, got %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "cleanup skipped", "cleanup_failed", logging.String(logging.FieldImpact, "scratch remains"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(content, &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldEventType] != "cleanup_failed" {
		t.Fatalf("missing event type: %v", record)
	}
	if record[logging.FieldErrorHint] == nil {
		t.Fatalf("missing error hint: %v", record)
	}
	if record[logging.FieldImpact] != "scratch remains" {
		t.Fatalf("impact should not be overwritten: %v", record)
	}
}

func TestFormatSubject(t *testing.T) {
	tests := []struct {
		component, entry, stage, want string
	}{
		{"", "", "", ""},
		{"batch", "", "", "batch"},
		{"", "5", "", "Entry #05"},
		{"synth", "12", "synthesize", "synth · Entry #12 (synthesize)"},
		{"", "", "finalize", "finalize"},
	}
	for _, tt := range tests {
		if got := logging.FormatSubject(tt.component, tt.entry, tt.stage); got != tt.want {
			t.Fatalf("FormatSubject(%q,%q,%q) = %q, want %q", tt.component, tt.entry, tt.stage, got, tt.want)
		}
	}
}

func TestTeeHandlerSkipsNil(t *testing.T) {
	if _, ok := logging.TeeHandler(nil, nil).(logging.NoopHandler); !ok {
		t.Fatal("expected noop handler when all inputs are nil")
	}
}

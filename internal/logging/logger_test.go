package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dubber/internal/config"
	"dubber/internal/logging"
	"dubber/internal/services"
)

func newFileLogger(t *testing.T, format, level string) (*slog.Logger, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	logger, err := logging.New(logging.Options{Format: format, Level: level, OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return logger, logPath
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello")
	if content := readLog(t, filepath.Join(cfg.Paths.LogDir, "dubber.log")); !strings.Contains(content, "hello") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logger, path := newFileLogger(t, "console", "info")
	logger.Info("message without caller")
	if content := readLog(t, path); strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logger, path := newFileLogger(t, "console", "debug")
	logger.Info("message with caller")
	if content := readLog(t, path); !strings.Contains(content, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerRendersComponentAndStage(t *testing.T) {
	logger, path := newFileLogger(t, "console", "info")
	ctx := services.WithStage(context.Background(), "muxing")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "muxer")).Info("done", logging.String("output", "a b.mp4"))

	content := readLog(t, path)
	if !strings.Contains(content, "INFO muxer [muxing]: done") {
		t.Fatalf("unexpected header: %q", content)
	}
	if !strings.Contains(content, `output="a b.mp4"`) {
		t.Fatalf("expected quoted attribute, got %q", content)
	}
	if strings.Contains(content, "\x1b[") {
		t.Fatalf("expected no colour codes for file output, got %q", content)
	}
}

func TestJSONLoggerFields(t *testing.T) {
	logger, path := newFileLogger(t, "json", "info")
	ctx := services.WithRunID(context.Background(), "run-xyz")
	ctx = services.WithSegment(ctx, 3)
	logging.WithContext(ctx, logger).Info("json message", logging.String("k", "v"))

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, path))), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["level"] != "info" || record["msg"] != "json message" {
		t.Fatalf("unexpected record: %v", record)
	}
	if record[logging.FieldRunID] != "run-xyz" {
		t.Fatalf("expected run id, got %v", record[logging.FieldRunID])
	}
	if record[logging.FieldSegment] != float64(3) {
		t.Fatalf("expected segment index, got %v", record[logging.FieldSegment])
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WarnWithContext(logger, "separator failed", "separation_failed", logging.String(logging.FieldImpact, "silent background"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldEventType] != "separation_failed" {
		t.Fatalf("missing event type: %v", record)
	}
	if record[logging.FieldErrorHint] == nil {
		t.Fatalf("missing error hint: %v", record)
	}
	if record[logging.FieldImpact] != "silent background" {
		t.Fatalf("impact overwritten: %v", record)
	}
}

func TestJSONLoggerRendersDurationsInSeconds(t *testing.T) {
	logger, path := newFileLogger(t, "json", "info")
	logger.Info("stage done", logging.Duration("elapsed", 1500*time.Millisecond))

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, path))), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["elapsed"] != 1.5 {
		t.Fatalf("expected elapsed=1.5, got %v", record["elapsed"])
	}
}

func TestConsoleLoggerKeepsMultilineErrorsOnOneLine(t *testing.T) {
	logger, path := newFileLogger(t, "console", "info")
	logger.Info("ffmpeg failed", logging.Error(errors.New("exit status 1\nInvalid data found")))

	content := strings.TrimSuffix(readLog(t, path), "\n")
	if strings.Contains(content, "\n") {
		t.Fatalf("expected a single line, got %q", content)
	}
	if !strings.Contains(content, `error="exit status 1 …"`) {
		t.Fatalf("expected truncated error, got %q", content)
	}
}

func TestWarnWithContextDefaultsImpact(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WarnWithContext(logger, "stretch failed", "stretch_failed")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record["level"] != "WARN" || record[logging.FieldImpact] == nil {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestNilLoggerHelpersAreSafe(t *testing.T) {
	logging.WarnWithContext(nil, "ignored", "noop")
	logging.ErrorWithContext(nil, "ignored", "noop")
	logging.WithContext(context.Background(), nil).Info("dropped")
	logging.NewComponentLogger(nil, "x").Info("dropped")
}

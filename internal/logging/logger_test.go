package logging_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"accentscope/internal/config"
	"accentscope/internal/logging"
	"accentscope/internal/services"
)

func TestConsoleLoggerFormatsComponentAndAttrs(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "langid")
	logger.Info("strategy succeeded", logging.String("strategy", "embedding"), logging.Float64("confidence", 91.5))
	logger.Debug("hidden")

	content := readFile(t, logPath)
	if !strings.Contains(content, " INFO langid: strategy succeeded") {
		t.Fatalf("expected component prefix, got %q", content)
	}
	if !strings.Contains(content, "strategy=embedding") || !strings.Contains(content, "confidence=91.5") {
		t.Fatalf("expected attributes, got %q", content)
	}
	if strings.Contains(content, "hidden") {
		t.Fatalf("debug line should be filtered at info level, got %q", content)
	}
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("with caller")

	if content := readFile(t, logPath); !strings.Contains(content, "logger_test.go:") {
		t.Fatalf("expected caller in debug output, got %q", content)
	}
}

func TestConsoleLoggerQuotesValuesWithSpaces(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "quote.log")
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("accent", logging.String("label", "British (England)"))

	if content := readFile(t, logPath); !strings.Contains(content, `label="British (England)"`) {
		t.Fatalf("expected quoted value, got %q", content)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("fallback used", logging.String(logging.FieldEventType, "accent_fallback"))

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readFile(t, logPath))), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if entry["level"] != "warn" || entry["msg"] != "fallback used" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
	if entry[logging.FieldEventType] != "accent_fallback" {
		t.Fatalf("expected event_type attr, got %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesJSONLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "info"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("file entry", logging.String("k", "v"))

	content := readFile(t, filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if !strings.Contains(content, `"msg":"file entry"`) {
		t.Fatalf("expected json entry in log file, got %q", content)
	}
}

func TestWithContextAddsRequestAndStage(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "ctx.log")
	base, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRequestID(context.Background(), "req-1")
	ctx = services.WithStage(ctx, "extract")
	logging.WithContext(ctx, base).Info("hello")

	content := readFile(t, logPath)
	if !strings.Contains(content, "correlation_id=req-1") || !strings.Contains(content, "stage=extract") {
		t.Fatalf("expected context fields, got %q", content)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "strategy failed", "strategy_failed", logging.String(logging.FieldImpact, "next strategy used"))

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readFile(t, logPath))), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if entry[logging.FieldEventType] != "strategy_failed" {
		t.Fatalf("expected event type, got %v", entry)
	}
	if entry[logging.FieldErrorHint] == nil {
		t.Fatalf("expected default error hint, got %v", entry)
	}
	if entry[logging.FieldImpact] != "next strategy used" {
		t.Fatalf("expected caller impact to be preserved, got %v", entry)
	}
}

func TestTeeHandlerDeliversToAll(t *testing.T) {
	dir := t.TempDir()
	a, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{filepath.Join(dir, "a.log")}})
	if err != nil {
		t.Fatal(err)
	}
	b, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{filepath.Join(dir, "b.log")}})
	if err != nil {
		t.Fatal(err)
	}

	tee := logging.TeeHandler(a.Handler(), nil, b.Handler())
	logging.NewComponentLogger(slog.New(tee), "tee").Info("both")

	if !strings.Contains(readFile(t, filepath.Join(dir, "a.log")), "tee: both") {
		t.Fatal("expected console handler output")
	}
	if !strings.Contains(readFile(t, filepath.Join(dir, "b.log")), `"component":"tee"`) {
		t.Fatal("expected json handler output")
	}
}

func TestPruneOldLogsKeepsActiveAndRecentFiles(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "accentscope-2024.log")
	recent := filepath.Join(dir, "accentscope-2026.log")
	active := filepath.Join(dir, logging.LogFileName)
	for _, path := range []string{old, recent, active} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	stale := time.Now().Add(-30 * 24 * time.Hour)
	for _, path := range []string{old, active} {
		if err := os.Chtimes(path, stale, stale); err != nil {
			t.Fatal(err)
		}
	}

	removed := logging.PruneOldLogs(logging.NewNop(), dir, "*.log", 7*24*time.Hour)
	if len(removed) != 1 || removed[0] != old {
		t.Fatalf("expected only %q removed, got %v", old, removed)
	}
	for _, path := range []string{recent, active} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %q to remain: %v", path, err)
		}
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

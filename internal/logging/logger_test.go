package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mapwatch/internal/config"
	"mapwatch/internal/logging"
	"mapwatch/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello file")

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Fatalf("expected message in log file, got %q", data)
	}
	if strings.Contains(string(data), "\x1b[") {
		t.Fatalf("expected no ANSI colour in file output, got %q", data)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
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
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
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

func TestConsoleLoggerFormatsComponentAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "poller").Info("map detected",
		logging.String("map", "Royale Palace Bifrost Garden"),
		logging.Int("score", 130),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	for _, want := range []string{"INFO poller: map detected", `map="Royale Palace Bifrost Garden"`, "score=130"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestJSONLoggerIncludesContextFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithStreamer(context.Background(), "shroud")
	ctx = services.WithCycleID(ctx, "cycle-9")
	ctx = services.WithStage(ctx, "capture")
	logging.WithContext(ctx, logger).Info("captured")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &record); err != nil {
		t.Fatalf("decode json record: %v (%q)", err, content)
	}
	if record["streamer"] != "shroud" || record["cycle_id"] != "cycle-9" || record["stage"] != "capture" {
		t.Fatalf("missing context fields: %v", record)
	}
	if record["level"] != "info" {
		t.Fatalf("unexpected level: %v", record["level"])
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts field: %v", record)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "capture failed", "capture_failed",
		logging.String(logging.FieldImpact, "streamer skipped this cycle"),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(content, &record); err != nil {
		t.Fatalf("decode json record: %v", err)
	}
	if record[logging.FieldEventType] != "capture_failed" {
		t.Fatalf("unexpected event type: %v", record)
	}
	if record[logging.FieldErrorHint] == "" || record[logging.FieldErrorHint] == nil {
		t.Fatalf("expected default error hint: %v", record)
	}
	if record[logging.FieldImpact] != "streamer skipped this cycle" {
		t.Fatalf("expected caller impact preserved: %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml", OutputPaths: []string{filepath.Join(t.TempDir(), "x.log")}}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestCleanupOldFilesRemovesExpired(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "shroud_2024-01-01_00-00-00.png")
	fresh := filepath.Join(dir, "shroud_2099-01-01_00-00-00.png")
	keep := filepath.Join(dir, "notes.txt")
	excluded := filepath.Join(dir, "pinned.png")
	for _, p := range []string{old, fresh, keep, excluded} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	past := time.Now().AddDate(0, 0, -30)
	for _, p := range []string{old, keep, excluded} {
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := logging.CleanupOldFiles(logging.NewNop(), 7, logging.RetentionTarget{
		Dir:     dir,
		Pattern: "*.png",
		Exclude: []string{excluded},
	})
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old frame removed, err=%v", err)
	}
	for _, p := range []string{fresh, keep, excluded} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s to remain: %v", p, err)
		}
	}
}

func TestCleanupOldFilesDisabled(t *testing.T) {
	if got := logging.CleanupOldFiles(nil, 0, logging.RetentionTarget{Dir: t.TempDir()}); got != 0 {
		t.Fatalf("expected no removals, got %d", got)
	}
}

func TestTeeHandlerWritesEveryEnabledOutput(t *testing.T) {
	var info, warn bytes.Buffer
	h := logging.TeeHandler(
		slog.NewJSONHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		nil,
		slog.NewJSONHandler(&warn, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	logger := slog.New(h).With(logging.String("streamer", "necros"))

	logger.Info("cycle complete")
	logger.Warn("capture failed")

	if got := strings.Count(info.String(), "\n"); got != 2 {
		t.Fatalf("info output has %d records: %s", got, info.String())
	}
	if strings.Contains(warn.String(), "cycle complete") || !strings.Contains(warn.String(), "capture failed") {
		t.Fatalf("warn output not level filtered: %s", warn.String())
	}
	if !strings.Contains(warn.String(), `"streamer":"necros"`) {
		t.Fatalf("expected attrs on every output: %s", warn.String())
	}
}

func TestTeeHandlerCollapses(t *testing.T) {
	if _, ok := logging.TeeHandler(nil, nil).(logging.NoopHandler); !ok {
		t.Fatal("expected no-op handler when every output is nil")
	}
	single := slog.NewTextHandler(io.Discard, nil)
	if got := logging.TeeHandler(nil, single); got != slog.Handler(single) {
		t.Fatalf("expected single handler unwrapped, got %T", got)
	}
}

func TestStringsAttr(t *testing.T) {
	if got := logging.Strings("sinks", []string{"redis", "nats"}).Value.String(); got != "redis,nats" {
		t.Fatalf("Strings = %q", got)
	}
	if got := logging.Strings("sinks", nil).Value.String(); got != "none" {
		t.Fatalf("Strings(nil) = %q", got)
	}
}

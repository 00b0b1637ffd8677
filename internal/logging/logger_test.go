package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"beatframe/internal/config"
	"beatframe/internal/logging"
	"beatframe/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("file message", logging.Int("beats", 3))

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "beatframe.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", data, err)
	}
	if record["msg"] != "file message" {
		t.Fatalf("unexpected msg: %v", record["msg"])
	}
	if record["level"] != "info" {
		t.Fatalf("unexpected level: %v", record["level"])
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
}

func TestConsoleLoggerFormatsComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.NewComponentLogger(logger, "detector").Info("beats detected",
		logging.Int("count", 12),
		logging.String("method", "energy"),
		logging.String("path", "my song.mp3"),
	)

	line := buf.String()
	for _, fragment := range []string{"INFO", "detector: beats detected", "count=12", "method=energy", `path="my song.mp3"`} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should be rendered as prefix, got %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("with caller")
	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("expected caller information, got %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "warn", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsSessionFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithSessionID(context.Background(), "sess-1")
	ctx = services.WithStage(ctx, "export")
	logging.WithContext(ctx, logger).Info("stage started")

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldSessionID] != "sess-1" || record[logging.FieldStage] != "export" {
		t.Fatalf("missing context fields: %v", record)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "cache unavailable", "cache_open_failed",
		logging.String(logging.FieldImpact, "beats will be re-detected"))

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldEventType] != "cache_open_failed" {
		t.Fatalf("unexpected event type: %v", record[logging.FieldEventType])
	}
	if record[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error hint")
	}
	if record[logging.FieldImpact] != "beats will be re-detected" {
		t.Fatalf("explicit impact must win, got %v", record[logging.FieldImpact])
	}
}

func TestNopLoggerIsSilent(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("noop logger must not be enabled")
	}
	logging.WarnWithContext(nil, "ignored", "none")
}

func TestSecondsAndPathAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("slide", logging.Seconds("start", 1.23456), logging.Path("/tmp/a.png"))

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record["start"] != 1.235 {
		t.Fatalf("expected millisecond rounding, got %v", record["start"])
	}
	if record[logging.FieldPath] != "/tmp/a.png" {
		t.Fatalf("unexpected path: %v", record[logging.FieldPath])
	}
}

func TestFileLoggerKeepsWarningsWhenConsoleFiltersThem(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	logger, err := logging.New(logging.Options{
		Format:   "console",
		Level:    "warn",
		Console:  &console,
		FilePath: filepath.Join(dir, "nested", "beatframe.log"),
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("both sinks")
	if !strings.Contains(console.String(), "both sinks") {
		t.Fatalf("console missing record: %q", console.String())
	}
	data, err := os.ReadFile(filepath.Join(dir, "nested", "beatframe.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"both sinks"`) {
		t.Fatalf("file missing record: %s", data)
	}
}

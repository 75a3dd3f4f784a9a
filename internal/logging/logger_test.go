package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cardscan/internal/config"
	"cardscan/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "debug"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Debug("debug message")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "cardscan.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "debug message") {
		t.Fatalf("expected debug message in log file, got %q", content)
	}
	if !strings.Contains(string(content), "logger_test.go:") {
		t.Fatalf("expected source location at debug level, got %q", content)
	}
}

func TestConsoleLoggerPrefixesComponentScanAndFace(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "scan").
		With(logging.String(logging.FieldScanID, "0123456789abcdef"))
	logger.Info("face analyzed",
		logging.String(logging.FieldFace, "front"),
		logging.Float64("lr_ratio", 0.5),
		logging.String("detail", "two words"))
	logger.WithGroup("match").Info("scored", logging.Int("faces", 2))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	for _, want := range []string{
		"INFO scan[01234567/front]: face analyzed",
		"lr_ratio=0.5",
		`detail="two words"`,
	} {
		if !strings.Contains(lines[0], want) {
			t.Fatalf("expected %q in %q", want, lines[0])
		}
	}
	if strings.Contains(lines[0], "component=") || strings.Contains(lines[0], ".go:") {
		t.Fatalf("unexpected prefix fields or source at info level: %q", lines[0])
	}
	if !strings.Contains(lines[1], "scan[01234567]: scored match.faces=2") {
		t.Fatalf("expected grouped key, got %q", lines[1])
	}
}

func TestConsoleLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Error("shown", logging.Error(errors.New("disk full")))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered, got %q", out)
	}
	if !strings.Contains(out, `ERROR shown error="disk full"`) {
		t.Fatalf("expected error line, got %q", out)
	}
}

func TestJSONLoggerRenamesStandardKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "hash skipped", "hash_failed",
		logging.Error(errors.New("boom")),
		logging.String(logging.FieldImpact, "face excluded"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, buf.String())
	}
	if entry["level"] != "warn" || entry["msg"] != "hash skipped" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
	if entry[logging.FieldEventType] != "hash_failed" || entry[logging.FieldErrorHint] == nil {
		t.Fatalf("expected defaults to be injected, got %v", entry)
	}
	if entry[logging.FieldImpact] != "face excluded" {
		t.Fatalf("caller impact should win over the default, got %v", entry[logging.FieldImpact])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(t.Context(), slog.LevelError) {
		t.Fatal("expected nop logger to be disabled")
	}
	if logging.NewComponentLogger(nil, "scan").Enabled(t.Context(), slog.LevelError) {
		t.Fatal("expected component logger over nil base to discard")
	}
	logging.WarnWithContext(nil, "ignored", "noop")
}

package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"platen/internal/config"
	"platen/internal/logging"
	"platen/internal/services"
)

func TestNewConsoleFormatsComponentLine(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "platen.log")
	logger, err := logging.New(logging.Options{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	monitor := logging.NewComponentLogger(logger, "monitor")
	monitor.Info("cycle complete", "items", 3)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := strings.TrimSpace(string(data))
	if !strings.Contains(line, "INFO monitor: cycle complete") {
		t.Fatalf("unexpected console line: %q", line)
	}
	if !strings.Contains(line, "items=3") {
		t.Fatalf("expected items attribute in %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("did not expect caller info at info level: %q", line)
	}
}

func TestNewConsoleDebugIncludesCaller(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "platen.log")
	logger, err := logging.New(logging.Options{
		Level:       "debug",
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("inspecting archive")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := strings.TrimSpace(string(data))
	if !strings.Contains(line, "DEBUG") {
		t.Fatalf("expected debug entry, got %q", line)
	}
	if !strings.Contains(line, ".go:") {
		t.Fatalf("expected caller info at debug level: %q", line)
	}
}

func TestNewJSONNormalizesKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "platen.log")
	logger, err := logging.New(logging.Options{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("sheet written", "sheet", 2)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("unmarshal log entry: %v", err)
	}
	if entry["level"] != "info" {
		t.Fatalf("expected lowercase level, got %v", entry["level"])
	}
	if entry["msg"] != "sheet written" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatal("expected ts key in JSON entry")
	}
	if entry["sheet"] != float64(2) {
		t.Fatalf("unexpected sheet attribute: %v", entry["sheet"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "logfmt"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewLevelFiltersOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "platen.log")
	logger, err := logging.New(logging.Options{
		Level:       "warn",
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("should be filtered")
	logger.Warn("kept")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	contents := string(data)
	if strings.Contains(contents, "should be filtered") {
		t.Fatalf("info entry leaked past warn level: %q", contents)
	}
	if !strings.Contains(contents, "WARN kept") {
		t.Fatalf("expected warn entry, got %q", contents)
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("daemon booted")

	logPath := filepath.Join(cfg.Paths.LogDir, "platen.log")
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("expected log file at %s: %v", logPath, err)
	}
	if !strings.Contains(string(data), "daemon booted") {
		t.Fatalf("expected boot entry in log file, got %q", string(data))
	}
}

func TestWithContextAddsStandardFields(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := services.WithItemID(context.Background(), "P_20250908_0001")
	ctx = services.WithStage(ctx, "impose")
	ctx = services.WithAttempt(ctx, 2)

	logging.WithContext(ctx, base).Info("stage started")

	line := buf.String()
	if !strings.Contains(line, "item_id=P_20250908_0001") {
		t.Fatalf("expected item_id field, got %q", line)
	}
	if !strings.Contains(line, "stage=impose") {
		t.Fatalf("expected stage field, got %q", line)
	}
	if !strings.Contains(line, "attempt=2") {
		t.Fatalf("expected attempt field, got %q", line)
	}
}

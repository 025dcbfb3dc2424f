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

	"sitepix/internal/config"
	"sitepix/internal/logging"
)

func TestNewFromConfigConsoleWithFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "sitepix.log")

	var console bytes.Buffer
	logger, err := logging.NewFromConfig(&cfg, &console)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("pass complete", logging.Int("optimized", 3))

	if !strings.Contains(console.String(), "INFO pass complete optimized=3") {
		t.Fatalf("unexpected console output %q", console.String())
	}
	content, err := os.ReadFile(cfg.Logging.File)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &record); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", content, err)
	}
	if record["msg"] != "pass complete" || record["level"] != "info" {
		t.Fatalf("unexpected file record %v", record)
	}
}

func TestConsoleLoggerSourceDependsOnLevel(t *testing.T) {
	for _, tc := range []struct {
		level      string
		wantCaller bool
	}{
		{"info", false},
		{"debug", true},
	} {
		var buf bytes.Buffer
		logger, err := logging.New(logging.Options{Format: "console", Level: tc.level, Writer: &buf})
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		logger.Info("message")
		if got := strings.Contains(buf.String(), ".go:"); got != tc.wantCaller {
			t.Fatalf("level %s: caller present=%v in %q", tc.level, got, buf.String())
		}
	}
}

func TestConsoleLoggerComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.NewComponentLogger(logger, "optimize").Info("encoded", logging.Path("/photos/a.webp"), logging.Int("quality", 60))
	if !strings.Contains(buf.String(), "INFO optimize: a.webp: encoded quality=60") {
		t.Fatalf("unexpected console line %q", buf.String())
	}
}

func TestConsoleLoggerPrefersStageAndHidesRunID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := logging.WithRunID(context.Background(), "run-1")
	staged := logging.NewComponentLogger(logger, "pipeline").With(logging.String(logging.FieldStage, "convert"))
	logging.WithContext(ctx, staged).Warn("slow", logging.String("note", "two words"))

	line := buf.String()
	if !strings.Contains(line, `WARN convert: slow note="two words"`) {
		t.Fatalf("unexpected console line %q", line)
	}
	if strings.Contains(line, "run-1") {
		t.Fatalf("run id should stay out of console output: %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "invalid", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected info level, got %q", buf.String())
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := logging.WithRunID(context.Background(), "run-123")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WithContext(ctx, logger).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record[logging.FieldRunID] != "run-123" {
		t.Fatalf("run_id = %v", record[logging.FieldRunID])
	}
	if _, ok := logging.RunIDFromContext(context.Background()); ok {
		t.Fatal("expected no run id on a bare context")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WarnWithContext(logger, "budget unreachable", "budget_unreachable",
		logging.String(logging.FieldImpact, "original kept"),
		logging.Error(errors.New("too big")),
	)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record[logging.FieldEventType] != "budget_unreachable" {
		t.Fatalf("event_type = %v", record[logging.FieldEventType])
	}
	if record[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error_hint")
	}
	if record[logging.FieldImpact] != "original kept" {
		t.Fatalf("impact should keep caller value, got %v", record[logging.FieldImpact])
	}
}

func TestWithLevelOverride(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	quiet := logging.WithLevelOverride(base, slog.LevelError)
	quiet.Warn("suppressed")
	quiet.Error("kept")
	if strings.Contains(buf.String(), "suppressed") || !strings.Contains(buf.String(), "kept") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should not be enabled")
	}
	logging.NewComponentLogger(nil, "scan").Info("ignored")
}

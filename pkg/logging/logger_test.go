package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{"unknown", zerolog.InfoLevel},
		{"DEBUG", zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSetup_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Config{Level: LevelInfo, Output: &buf})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	logger.Info().Str("tag", "56240").Msg("job started")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["tag"] != "56240" {
		t.Errorf("tag = %v, want 56240", entry["tag"])
	}
	if entry["message"] != "job started" {
		t.Errorf("message = %v", entry["message"])
	}
}

func TestSetup_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(Config{Level: LevelWarn, Output: &buf})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	logger.Info().Msg("filtered out")
	logger.Warn().Msg("kept")

	out := buf.String()
	if strings.Contains(out, "filtered out") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("warn message missing")
	}
}

func TestSetup_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	for i := 0; i < 2; i++ {
		var buf bytes.Buffer
		logger, err := Setup(Config{Level: LevelInfo, Output: &buf, File: path})
		if err != nil {
			t.Fatalf("Setup: %v", err)
		}
		logger.Info().Int("run", i).Msg("run complete")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if got := strings.Count(string(data), "run complete"); got != 2 {
		t.Errorf("log lines = %d, want 2 (append mode)", got)
	}
}

func TestNewLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Setup(Config{Level: LevelDebug, Output: &buf}); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	logger := NewLogger("export")
	logger.Info().Msg("hello")

	if !strings.Contains(buf.String(), `"component":"export"`) {
		t.Errorf("component field missing: %q", buf.String())
	}
}

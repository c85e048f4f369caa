package logging

import (
	"bufio"
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
		{name: "info", input: "info", want: slog.LevelInfo},
		{name: "debug", input: "debug", want: slog.LevelDebug},
		{name: "trace", input: "trace", want: LevelTrace},
		{name: "case insensitive", input: "DEBUG", want: slog.LevelDebug},
		{name: "empty defaults to info", input: "", want: slog.LevelInfo},
		{name: "unknown defaults to info", input: "verbose", want: slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", &buf)

	logger.Debug("hidden")
	logger.Info("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug message logged at info level")
	}
	if !strings.Contains(out, "visible") {
		t.Error("info message missing")
	}
}

func TestNewLoggerTraceLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", &buf)

	logger.Log(nil, LevelTrace, "charge update", "id", 1)

	if !strings.Contains(buf.String(), "TRACE") {
		t.Errorf("trace output missing TRACE label: %q", buf.String())
	}
}

func TestTraceLoggerInfoLevelIsNil(t *testing.T) {
	dir := t.TempDir()
	tl := NewTraceLogger(dir, "info")
	if tl != nil {
		t.Fatal("NewTraceLogger at info level should return nil")
	}

	// Nil receiver is safe.
	tl.Log(map[string]any{"event": "fire"})
	tl.Close()

	if _, err := os.Stat(filepath.Join(dir, "events.jsonl")); !os.IsNotExist(err) {
		t.Error("events.jsonl created at info level")
	}
}

func TestTraceLoggerWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	tl := NewTraceLogger(dir, "debug")
	if tl == nil {
		t.Fatal("NewTraceLogger at debug level returned nil")
	}
	defer tl.Close()

	tl.Log(map[string]any{"event": "fire", "id": 1})
	tl.Log(map[string]any{"event": "signal", "source": 1, "target": 2})
	tl.Close()

	f, err := os.Open(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		t.Fatalf("open events.jsonl: %v", err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
		if _, ok := entry["time"]; !ok {
			t.Errorf("line %d missing time field", lines)
		}
	}
	if lines != 2 {
		t.Errorf("events.jsonl has %d lines, want 2", lines)
	}
}

func TestTraceLoggerDoesNotMutateCaller(t *testing.T) {
	tl := NewTraceLogger(t.TempDir(), "trace")
	defer tl.Close()

	event := map[string]any{"event": "fire"}
	tl.Log(event)
	if _, ok := event["time"]; ok {
		t.Error("Log mutated the caller's map")
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunHeadlessSummary(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	netPath := writeTestNetwork(t)

	var out bytes.Buffer
	rootCmd := newTestRootCmd()
	rootCmd.AddCommand(newRunCmd())
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"run", "--duration", "500ms", netPath})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	// Neuron 1 has full drive: it must fire at least once in 500ms.
	if !strings.Contains(out.String(), "fires") {
		t.Errorf("summary missing fire counts: %q", out.String())
	}
}

func TestRunJSONSummary(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	netPath := writeTestNetwork(t)

	var out bytes.Buffer
	rootCmd := newTestRootCmd()
	rootCmd.AddCommand(newRunCmd())
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"run", "--duration", "500ms", "--json", netPath})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var summary struct {
		DurationMS int64         `json:"duration_ms"`
		Fires      int           `json:"fires"`
		Signals    int           `json:"signals"`
		ByNeuron   map[int64]int `json:"by_neuron"`
	}
	if err := json.Unmarshal(out.Bytes(), &summary); err != nil {
		t.Fatalf("summary is not JSON: %v\n%s", err, out.String())
	}
	if summary.DurationMS != 500 {
		t.Errorf("duration_ms = %d, want 500", summary.DurationMS)
	}
	if summary.Fires < 1 {
		t.Errorf("fires = %d, want at least one from the driven neuron", summary.Fires)
	}
	if summary.Signals < 1 {
		t.Errorf("signals = %d, want at least one along the edge", summary.Signals)
	}
}

func TestRunRecordsToSQLite(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	netPath := writeTestNetwork(t)
	recordDir := t.TempDir()

	rootCmd := newTestRootCmd()
	rootCmd.AddCommand(newRunCmd())
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"run", "--duration", "300ms", "--record", "--record-dir", recordDir, netPath})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(recordDir, "pulse.db")); err != nil {
		t.Errorf("recording database missing: %v", err)
	}
}

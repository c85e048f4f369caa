package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/pulse/internal/engine"
	"github.com/nvandessel/pulse/internal/neuron"
	"github.com/nvandessel/pulse/internal/recorder"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <network.yaml>",
		Short: "Run a network headless for a fixed duration",
		Long: `Load a network description, drive the simulation in real time for
the requested duration, and print an activity summary. With --record,
fire and signal events are persisted to a SQLite database for later
analysis.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			duration, _ := cmd.Flags().GetDuration("duration")
			record, _ := cmd.Flags().GetBool("record")
			recordDir, _ := cmd.Flags().GetString("record-dir")
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if record {
				cfg.Recording.Enabled = true
			}
			if recordDir != "" {
				cfg.Recording.Dir = recordDir
			}

			logger := newLogger(cfg)
			eng := buildEngine(cfg, logger)
			defer eng.Dispose()

			if err := loadNetworkInto(eng, args[0]); err != nil {
				return err
			}

			stats := &runStats{}
			listeners := []engine.Listener{stats}

			var rec *recorder.Recorder
			if cfg.Recording.Enabled {
				rec, err = recorder.New(cfg.Recording.Dir)
				if err != nil {
					return fmt.Errorf("open recorder: %w", err)
				}
				defer rec.Close()
				listeners = append(listeners, rec)
			}
			trace, tl := newTraceListener(cfg)
			defer tl.Close()
			listeners = append(listeners, trace)
			eng.SetListener(fanout(listeners))

			logger.Info("running network",
				"path", args[0],
				"neurons", len(eng.Snapshot()),
				"duration", duration)

			eng.Start()
			time.Sleep(duration)
			eng.Stop()

			fires, signals := stats.totals()
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"duration_ms": duration.Milliseconds(),
					"fires":       fires,
					"signals":     signals,
					"by_neuron":   stats.byNeuron(),
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ran %s: %d fires, %d signals\n", duration, fires, signals)
			for _, line := range stats.summaryLines() {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().Duration("duration", 5*time.Second, "How long to run the simulation")
	cmd.Flags().Bool("record", false, "Persist fire and signal events to SQLite")
	cmd.Flags().String("record-dir", "", "Directory for the recording database")
	cmd.Flags().Bool("json", false, "Output the summary as JSON")
	return cmd
}

// runStats counts fire and signal events during a headless run.
type runStats struct {
	mu          sync.Mutex
	fires       map[int64]int
	signalCount int
}

func (s *runStats) OnFire(n *neuron.Neuron) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fires == nil {
		s.fires = make(map[int64]int)
	}
	s.fires[n.ID]++
}

func (s *runStats) OnSignal(sig engine.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signalCount++
}

func (s *runStats) OnUpdate(n *neuron.Neuron) {}

func (s *runStats) totals() (fires, signals int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.fires {
		fires += c
	}
	return fires, s.signalCount
}

func (s *runStats) byNeuron() map[int64]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]int, len(s.fires))
	for id, c := range s.fires {
		out[id] = c
	}
	return out
}

func (s *runStats) summaryLines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.fires))
	for id := range s.fires {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, fmt.Sprintf("  neuron %d: %d fires", id, s.fires[id]))
	}
	return lines
}

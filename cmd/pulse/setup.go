package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/pulse/internal/config"
	"github.com/nvandessel/pulse/internal/engine"
	"github.com/nvandessel/pulse/internal/logging"
	"github.com/nvandessel/pulse/internal/neuron"
	"github.com/nvandessel/pulse/internal/sched"
)

// loadConfig resolves the effective configuration for a command: defaults,
// then the config file (explicit --config path or the user's ~/.pulse one),
// then environment, then the --log-level flag on top.
func loadConfig(cmd *cobra.Command) (*config.PulseConfig, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.PulseConfig
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newLogger(cfg *config.PulseConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, os.Stderr)
}

// buildEngine wires a store, scheduler, and engine from config. The engine
// is not started; callers decide when the clock begins.
func buildEngine(cfg *config.PulseConfig, logger *slog.Logger) *engine.Engine {
	store := neuron.NewStore()
	scheduler := sched.NewTimerScheduler(cfg.Engine.TickInterval, cfg.Engine.MaxTickDelta)
	eng := engine.New(store, scheduler, engine.Config{
		ChargeRatePerSecond: cfg.Engine.ChargeRate,
		FiringPulseDuration: cfg.Engine.FiringPulse,
		RefractoryWindow:    cfg.Engine.Refractory,
	})
	eng.SetLogger(logger)
	return eng
}

// loadNetworkInto reads a network description and applies it to the engine.
func loadNetworkInto(eng *engine.Engine, path string) error {
	net, err := config.LoadNetwork(path)
	if err != nil {
		return err
	}
	if err := net.Apply(eng); err != nil {
		return fmt.Errorf("apply network %q: %w", net.Name, err)
	}
	return nil
}

// fanout delivers each engine event to every listener in order.
type fanout []engine.Listener

func (f fanout) OnFire(n *neuron.Neuron) {
	for _, l := range f {
		l.OnFire(n)
	}
}

func (f fanout) OnSignal(sig engine.Signal) {
	for _, l := range f {
		l.OnSignal(sig)
	}
}

func (f fanout) OnUpdate(n *neuron.Neuron) {
	for _, l := range f {
		l.OnUpdate(n)
	}
}

// traceListener forwards engine events to the JSONL event trace. The
// underlying TraceLogger is nil at info level, which makes every call a
// no-op.
type traceListener struct {
	tl *logging.TraceLogger
}

// newTraceListener opens the event trace next to the recording database.
// Callers should Close the returned logger on shutdown; closing a nil
// logger is safe.
func newTraceListener(cfg *config.PulseConfig) (traceListener, *logging.TraceLogger) {
	tl := logging.NewTraceLogger(cfg.Recording.Dir, cfg.Logging.Level)
	return traceListener{tl: tl}, tl
}

func (t traceListener) OnFire(n *neuron.Neuron) {
	t.tl.Log(map[string]any{"event": "fire", "id": n.ID})
}

func (t traceListener) OnSignal(sig engine.Signal) {
	t.tl.Log(map[string]any{
		"event":    "signal",
		"source":   sig.Source.ID,
		"target":   sig.Target.ID,
		"weight":   sig.Weight,
		"speed":    sig.Speed,
		"delay_ms": sig.Delay.Milliseconds(),
		"instant":  sig.Instant,
	})
}

func (t traceListener) OnUpdate(n *neuron.Neuron) {
	t.tl.Log(map[string]any{"event": "update", "id": n.ID, "charge": n.CurrentCharge})
}

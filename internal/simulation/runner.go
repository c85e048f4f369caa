package simulation

import (
	"sync"
	"testing"
	"time"

	"github.com/nvandessel/pulse/internal/engine"
	"github.com/nvandessel/pulse/internal/neuron"
	"github.com/nvandessel/pulse/internal/sched"
)

// epoch is the virtual-time origin for every scenario. The absolute value is
// arbitrary; assertions only ever look at durations relative to it.
var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Runner drives a real engine over a manual scheduler and records every
// fire and signal event with its virtual timestamp.
type Runner struct {
	t     *testing.T
	sched *sched.ManualScheduler
	eng   *engine.Engine

	ids   map[string]int64
	names map[int64]string

	mu      sync.Mutex
	fires   []FireEvent
	signals []SignalEvent
}

// NewRunner creates a runner with default engine timing over a fresh store.
func NewRunner(t *testing.T) *Runner {
	t.Helper()
	return NewRunnerWithConfig(t, engine.Config{})
}

// NewRunnerWithConfig creates a runner with explicit engine timing. Zero
// config fields take the engine defaults.
func NewRunnerWithConfig(t *testing.T, cfg engine.Config) *Runner {
	t.Helper()

	ms := sched.NewManualScheduler(epoch, 0)
	eng := engine.New(neuron.NewStore(), ms, cfg)

	r := &Runner{
		t:     t,
		sched: ms,
		eng:   eng,
		ids:   make(map[string]int64),
		names: make(map[int64]string),
	}
	eng.SetListener(r)
	t.Cleanup(eng.Dispose)
	return r
}

// Build creates the scenario's neurons and edges. Call before Start.
func (r *Runner) Build(s Scenario) {
	r.t.Helper()

	for _, ns := range s.Neurons {
		n := r.eng.CreateNeuron(neuron.Neuron{
			Position:  ns.Position,
			Threshold: ns.Threshold,
			DCInput:   ns.DC,
		})
		r.ids[ns.Name] = n.ID
		r.names[n.ID] = ns.Name
	}

	for _, es := range s.Edges {
		src, ok := r.ids[es.Source]
		if !ok {
			r.t.Fatalf("Build: edge references unknown neuron %q", es.Source)
		}
		tgt, ok := r.ids[es.Target]
		if !ok {
			r.t.Fatalf("Build: edge references unknown neuron %q", es.Target)
		}
		if !r.eng.CreateConnection(src, tgt, es.Weight, es.Speed) {
			r.t.Fatalf("Build: connect %s->%s failed", es.Source, es.Target)
		}
	}
}

// Start begins frame-driven ticking on the virtual clock.
func (r *Runner) Start() {
	r.eng.Start()
}

// Advance moves virtual time forward, dispatching ticks and deliveries in
// due order.
func (r *Runner) Advance(d time.Duration) {
	r.sched.Advance(d)
}

// Engine exposes the engine for direct calls mid-scenario.
func (r *Runner) Engine() *engine.Engine {
	return r.eng
}

// Now returns the current virtual time.
func (r *Runner) Now() time.Time {
	return r.sched.Now()
}

// ID resolves a scenario name to its engine id.
func (r *Runner) ID(name string) int64 {
	r.t.Helper()
	id, ok := r.ids[name]
	if !ok {
		r.t.Fatalf("ID: unknown neuron %q", name)
	}
	return id
}

// Fire requests a manual fire of the named neuron.
func (r *Runner) Fire(name string) bool {
	r.t.Helper()
	return r.eng.FireNeuron(r.ID(name))
}

// SetDC sets the named neuron's drive level.
func (r *Runner) SetDC(name string, value float64, resetCharge bool) {
	r.t.Helper()
	if !r.eng.SetDCInput(r.ID(name), value, resetCharge) {
		r.t.Fatalf("SetDC: neuron %q not found", name)
	}
}

// AddCharge injects charge directly into the named neuron.
func (r *Runner) AddCharge(name string, amount float64) bool {
	r.t.Helper()
	return r.eng.AddCharge(r.ID(name), amount)
}

// State returns a snapshot of the named neuron's current simulation state.
func (r *Runner) State(name string) neuron.Neuron {
	r.t.Helper()
	id := r.ID(name)
	for _, n := range r.eng.Snapshot() {
		if n.ID == id {
			return n
		}
	}
	r.t.Fatalf("State: neuron %q missing from snapshot", name)
	return neuron.Neuron{}
}

// Fires returns every recorded firing of the named neuron, in order.
func (r *Runner) Fires(name string) []FireEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []FireEvent
	for _, f := range r.fires {
		if f.Name == name {
			out = append(out, f)
		}
	}
	return out
}

// AllFires returns every recorded firing in dispatch order.
func (r *Runner) AllFires() []FireEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]FireEvent, len(r.fires))
	copy(out, r.fires)
	return out
}

// Signals returns every recorded signal on the named edge, in order.
func (r *Runner) Signals(source, target string) []SignalEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []SignalEvent
	for _, s := range r.signals {
		if s.Source == source && s.Target == target {
			out = append(out, s)
		}
	}
	return out
}

// OnFire implements engine.Listener.
func (r *Runner) OnFire(n *neuron.Neuron) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fires = append(r.fires, FireEvent{
		Name: r.names[n.ID],
		At:   r.sched.Now(),
	})
}

// OnSignal implements engine.Listener.
func (r *Runner) OnSignal(sig engine.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	evt := SignalEvent{
		Weight:  sig.Weight,
		Speed:   sig.Speed,
		Delay:   sig.Delay,
		Instant: sig.Instant,
		At:      r.sched.Now(),
	}
	if sig.Source != nil {
		evt.Source = r.names[sig.Source.ID]
	}
	if sig.Target != nil {
		evt.Target = r.names[sig.Target.ID]
	}
	r.signals = append(r.signals, evt)
}

// OnUpdate implements engine.Listener.
func (r *Runner) OnUpdate(n *neuron.Neuron) {}

// Package engine implements the simulation core: the centralized update
// loop that accumulates DC charge, decides firing order and refractory
// eligibility, and propagates signals across time-delayed connections.
//
// Every public operation and every timer callback is serialized behind one
// mutex; individual operations are not atomic-safe on their own (charge
// updates are read-then-write), so the whole of the store, loop, and
// delivery runs under that single exclusive boundary.
package engine

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/nvandessel/pulse/internal/constants"
	"github.com/nvandessel/pulse/internal/neuron"
	"github.com/nvandessel/pulse/internal/sched"
)

// Config holds tunable timing and scaling parameters for the engine.
// Defaults come from the constants package; the set is internally
// consistent (full DC drive fires in threshold/ChargeRatePerSecond seconds).
type Config struct {
	// ChargeRatePerSecond is charge accumulated per second at dcInput=1.
	ChargeRatePerSecond float64

	// FiringPulseDuration is how long IsFiring stays set after a fire.
	FiringPulseDuration time.Duration

	// RefractoryWindow is how long after the pulse ends a neuron refuses
	// charge and re-firing.
	RefractoryWindow time.Duration

	// MinRefireInterval suppresses firing attempts closer than this to
	// the neuron's previous executed fire.
	MinRefireInterval time.Duration
}

// DefaultConfig returns the documented reference configuration.
func DefaultConfig() Config {
	return Config{
		ChargeRatePerSecond: constants.ChargeRatePerSecond,
		FiringPulseDuration: constants.FiringPulseDuration,
		RefractoryWindow:    constants.RefractoryWindow,
		MinRefireInterval:   constants.MinRefireInterval,
	}
}

// Engine advances the neuron network under a single coherent time base.
// Construct with New; all collaborators are injected, never ambient.
type Engine struct {
	mu       sync.Mutex
	cfg      Config
	store    *neuron.Store
	sched    sched.Scheduler
	listener Listener
	logger   *slog.Logger

	// pending tracks at most one undelivered delayed delivery per edge.
	pending map[edgeRef]sched.Token

	events []event

	frameToken sched.Token
	running    bool
	paused     bool
	disposed   bool
}

// engineGroup is the scheduler group for the frame driver.
const engineGroup = "engine"

// neuronGroup returns the scheduler group for callbacks referencing a
// neuron. Removing the neuron clears the whole group.
func neuronGroup(id int64) string {
	return "neuron:" + strconv.FormatInt(id, 10)
}

// New creates an engine over the given store and scheduler.
func New(store *neuron.Store, scheduler sched.Scheduler, cfg Config) *Engine {
	if cfg.ChargeRatePerSecond <= 0 {
		cfg.ChargeRatePerSecond = constants.ChargeRatePerSecond
	}
	if cfg.FiringPulseDuration <= 0 {
		cfg.FiringPulseDuration = constants.FiringPulseDuration
	}
	if cfg.RefractoryWindow <= 0 {
		cfg.RefractoryWindow = constants.RefractoryWindow
	}
	if cfg.MinRefireInterval <= 0 {
		cfg.MinRefireInterval = constants.MinRefireInterval
	}
	return &Engine{
		cfg:     cfg,
		store:   store,
		sched:   scheduler,
		logger:  slog.Default(),
		pending: make(map[edgeRef]sched.Token),
	}
}

// SetListener installs the notification sink. Pass nil to silence.
func (e *Engine) SetListener(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener = l
}

// SetLogger replaces the engine's logger.
func (e *Engine) SetLogger(l *slog.Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l != nil {
		e.logger = l
	}
}

// Snapshot returns deep copies of every neuron in insertion order, taken
// under the engine lock. The copies share nothing with live records, so
// read-side adapters (visualization, DOT rendering) may hold or marshal
// them while the simulation keeps running.
func (e *Engine) Snapshot() []neuron.Neuron {
	e.mu.Lock()
	defer e.mu.Unlock()
	live := e.store.All()
	out := make([]neuron.Neuron, 0, len(live))
	for _, n := range live {
		out = append(out, n.Clone())
	}
	return out
}

// Connections returns the denormalized view of every edge.
func (e *Engine) Connections() []neuron.Connection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Connections()
}

//
// Neuron CRUD
//

// CreateNeuron stores a neuron, assigning an ID and defaults, and notifies
// adapters so they can render it.
func (e *Engine) CreateNeuron(initial neuron.Neuron) *neuron.Neuron {
	e.mu.Lock()
	n := e.store.Create(initial)
	e.queueUpdateLocked(n)
	evts := e.takeEventsLocked()
	e.mu.Unlock()

	e.dispatch(evts)
	return n
}

// RemoveNeuron deletes a neuron, every connection touching it, and every
// pending callback referencing it. No-op returning false on unknown ID.
func (e *Engine) RemoveNeuron(id int64) bool {
	e.mu.Lock()
	_, ok := e.store.Remove(id)
	if !ok {
		e.mu.Unlock()
		e.logger.Debug("remove of unknown neuron", "id", id)
		return false
	}

	// Cancel delayed deliveries on any edge touching this neuron, then
	// drop the neuron's own group (firing-pulse timeout, outbound
	// delivery timers).
	for ref := range e.pending {
		if ref.source == id || ref.target == id {
			e.cancelPendingLocked(ref)
		}
	}
	e.sched.ClearGroup(neuronGroup(id))
	e.mu.Unlock()
	return true
}

// Neuron returns the stored record for id, or nil. The record is live;
// mutate it only through engine methods.
func (e *Engine) Neuron(id int64) *neuron.Neuron {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Get(id)
}

// Neurons returns every neuron in insertion order.
func (e *Engine) Neurons() []*neuron.Neuron {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.All()
}

// DCNeurons returns the neurons currently under continuous drive.
func (e *Engine) DCNeurons() []*neuron.Neuron {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.DCNeurons()
}

//
// Connection CRUD
//

// CreateConnection upserts the directed edge source->target. Weight and
// speed clamp to [0, 1]; unknown endpoints fail with no side effect.
func (e *Engine) CreateConnection(source, target int64, weight, speed float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ok := e.store.Connect(source, target, weight, speed)
	if !ok {
		e.logger.Debug("connection endpoints unknown", "source", source, "target", target)
	}
	return ok
}

// RemoveConnection removes an edge and cancels its pending delivery.
func (e *Engine) RemoveConnection(source, target int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.Disconnect(source, target) {
		return false
	}
	e.cancelPendingLocked(edgeRef{source: source, target: target})
	return true
}

// UpdateConnectionWeight mutates an edge's weight in place. In-flight
// deliveries keep the charge they were scheduled with.
func (e *Engine) UpdateConnectionWeight(source, target int64, weight float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.SetWeight(source, target, weight)
}

// UpdateConnectionSpeed mutates an edge's speed in place, leaving already
// computed delivery timing undisturbed.
func (e *Engine) UpdateConnectionSpeed(source, target int64, speed float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.SetSpeed(source, target, speed)
}

//
// Stimulation
//

// SetDCInput sets a neuron's continuous drive, clamped to [0, 1].
// When resetCharge is true the accumulated charge is cleared too.
func (e *Engine) SetDCInput(id int64, value float64, resetCharge bool) bool {
	e.mu.Lock()
	n := e.store.Get(id)
	if n == nil {
		e.mu.Unlock()
		return false
	}
	n.DCInput = neuron.Clamp01(value)
	if resetCharge {
		n.CurrentCharge = 0
		n.ShouldFire = false
	}
	e.queueUpdateLocked(n)
	evts := e.takeEventsLocked()
	e.mu.Unlock()

	e.dispatch(evts)
	return true
}

// AddCharge adds charge to a neuron, clamped to its threshold, flagging it
// to fire when the threshold is reached. Fails with no state change on an
// unknown neuron or one that is firing or refractory. This is the single
// path by which external stimulation and signal delivery increase charge.
func (e *Engine) AddCharge(id int64, amount float64) bool {
	e.mu.Lock()
	n := e.store.Get(id)
	var ok bool
	if n != nil {
		ok = e.addChargeLocked(n, amount, e.sched.Now())
	}
	evts := e.takeEventsLocked()
	e.mu.Unlock()

	e.dispatch(evts)
	return ok
}

// addChargeLocked applies the charge-accumulation state machine step.
// Caller holds e.mu.
func (e *Engine) addChargeLocked(n *neuron.Neuron, amount float64, now time.Time) bool {
	if n.IsFiring {
		e.logger.Debug("charge rejected: firing", "id", n.ID)
		return false
	}
	if n.InRefractory(now) {
		e.logger.Debug("charge rejected: refractory", "id", n.ID)
		return false
	}

	n.CurrentCharge = neuron.ClampCharge(n.CurrentCharge+amount, n.Threshold)
	if n.CurrentCharge >= n.Threshold {
		n.ShouldFire = true
	}
	e.queueUpdateLocked(n)
	return true
}

// FireNeuron latches a neuron to fire on the next firing pass, subject to
// the same firing/refractory guards as charge delivery. Used for externally
// triggered firing (manual stimulus).
func (e *Engine) FireNeuron(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := e.store.Get(id)
	if n == nil {
		return false
	}
	now := e.sched.Now()
	if n.IsFiring || n.InRefractory(now) {
		e.logger.Debug("fire rejected", "id", id, "firing", n.IsFiring)
		return false
	}
	n.ShouldFire = true
	return true
}

// ResetNeuron clears a neuron's charge and firing flags without touching
// DC input or connections.
func (e *Engine) ResetNeuron(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Reset(id)
}

// ResetAllNeurons clears charge and firing flags on every neuron.
func (e *Engine) ResetAllNeurons() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.ResetAll()
}

//
// Simulation loop
//

// Tick advances the simulation by the elapsed wall-clock delta. Correct for
// any non-negative delta; clamping of suspension spikes is the scheduler's
// job. Safe to call directly when the engine is not running under Start.
func (e *Engine) Tick(delta time.Duration) {
	e.mu.Lock()
	e.tickLocked(delta)
	evts := e.takeEventsLocked()
	e.mu.Unlock()

	e.dispatch(evts)
}

func (e *Engine) tickLocked(delta time.Duration) {
	if delta < 0 {
		delta = 0
	}
	now := e.sched.Now()

	// Pass 1: DC charge accumulation, insertion order.
	for _, n := range e.store.All() {
		if n.DCInput <= 0 || n.IsFiring || n.InRefractory(now) {
			continue
		}
		amount := delta.Seconds() * n.DCInput * e.cfg.ChargeRatePerSecond
		if amount <= 0 {
			continue
		}
		n.CurrentCharge = neuron.ClampCharge(n.CurrentCharge+amount, n.Threshold)
		if n.CurrentCharge >= n.Threshold {
			n.ShouldFire = true
		}
		e.queueUpdateLocked(n)
	}

	// Pass 2: execute firings over a snapshot of flagged neurons. Charge
	// delivered during this pass may flag further neurons; those fire on
	// the next tick, never twice inside one pass.
	var flagged []int64
	for _, n := range e.store.All() {
		if n.ShouldFire {
			flagged = append(flagged, n.ID)
		}
	}
	for _, id := range flagged {
		if n := e.store.Get(id); n != nil {
			e.fireLocked(n, now)
		}
	}
}

// fireLocked executes one firing: pulse on, charge reset, notification,
// signal delivery, pulse-end timer. Caller holds e.mu.
func (e *Engine) fireLocked(n *neuron.Neuron, now time.Time) {
	n.ShouldFire = false

	if n.IsFiring || n.InRefractory(now) {
		return
	}
	if !n.LastFireAttempt.IsZero() && now.Sub(n.LastFireAttempt) < e.cfg.MinRefireInterval {
		e.logger.Debug("fire suppressed: too soon", "id", n.ID)
		return
	}

	n.LastFireAttempt = now
	n.IsFiring = true
	n.CurrentCharge = 0
	n.LastFired = now

	e.queueFireLocked(n)
	e.deliverLocked(n, now)

	id := n.ID
	e.sched.Schedule(neuronGroup(id), e.cfg.FiringPulseDuration, func() {
		e.endPulse(id)
	})
}

// endPulse runs when a firing pulse expires: the neuron leaves the firing
// state and enters its refractory window. The neuron may have been removed
// since scheduling; the group cancellation normally prevents that, but the
// existence re-check keeps the callback a safe no-op regardless.
func (e *Engine) endPulse(id int64) {
	e.mu.Lock()
	n := e.store.Get(id)
	if n == nil {
		e.mu.Unlock()
		return
	}
	n.IsFiring = false
	n.RefractoryEnd = e.sched.Now().Add(e.cfg.RefractoryWindow)
	e.queueUpdateLocked(n)
	evts := e.takeEventsLocked()
	e.mu.Unlock()

	e.dispatch(evts)
}

//
// Lifecycle
//

// Start begins frame-driven ticking. No-op if already running.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running || e.disposed {
		return
	}
	e.running = true
	e.paused = false
	e.frameToken = e.sched.DriveFrame(engineGroup, e.frame)
}

// frame is the DriveFrame callback; it must not be called with e.mu held.
func (e *Engine) frame(delta time.Duration) bool {
	e.mu.Lock()
	if e.disposed || !e.running {
		e.mu.Unlock()
		return false
	}
	if !e.paused {
		e.tickLocked(delta)
	}
	evts := e.takeEventsLocked()
	e.mu.Unlock()

	e.dispatch(evts)
	return true
}

// Pause stops advancing simulation time; pending timers keep running.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = true
}

// Resume continues ticking from "now"; the gap is not replayed.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = false
}

// Stop halts the frame driver. Neuron state is preserved.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	e.sched.Cancel(engineGroup, e.frameToken)
}

// Dispose stops the engine, cancels all scheduling, and clears all state.
// The engine cannot be restarted afterwards.
func (e *Engine) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	e.disposed = true
	e.running = false
	e.sched.Stop()
	e.pending = make(map[edgeRef]sched.Token)
	e.store.Clear()
	e.events = nil
}

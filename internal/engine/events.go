package engine

import (
	"time"

	"github.com/nvandessel/pulse/internal/neuron"
)

// EventType labels an outbound notification from the engine.
type EventType string

const (
	// EventFire - a neuron crossed threshold and entered its firing pulse.
	EventFire EventType = "fire"
	// EventSignal - a fired neuron's effect is travelling toward a target.
	EventSignal EventType = "signal"
	// EventUpdate - a neuron's charge or state changed; adapters should
	// re-render its appearance.
	EventUpdate EventType = "update"
)

// Signal is the payload of an EventSignal notification. Adapters may render
// a travelling particle; the engine does not wait for that to complete.
type Signal struct {
	Source *neuron.Neuron `json:"source"`
	Target *neuron.Neuron `json:"target"`
	Weight float64        `json:"weight"`
	Speed  float64        `json:"speed"`

	// Delay is when the charge arrives relative to the firing instant.
	// Zero for the synchronous speed tiers.
	Delay time.Duration `json:"delay"`

	// Instant marks edges at full speed, which deliver with no visual
	// travel at all. Fast edges deliver synchronously too but still want
	// a zero-delay travel animation, so they carry Instant=false.
	Instant bool `json:"instant"`
}

// Listener receives engine notifications. Calls are synchronous: they run on
// the goroutine that caused the event, after the engine has finished the
// mutation that produced it. A panicking listener is recovered and logged;
// it cannot corrupt simulation state or stop the loop. Listeners may call
// back into the engine.
type Listener interface {
	OnFire(n *neuron.Neuron)
	OnSignal(sig Signal)
	OnUpdate(n *neuron.Neuron)
}

// ListenerFuncs adapts plain functions to the Listener interface. Nil
// fields are skipped.
type ListenerFuncs struct {
	Fire   func(n *neuron.Neuron)
	Signal func(sig Signal)
	Update func(n *neuron.Neuron)
}

func (l ListenerFuncs) OnFire(n *neuron.Neuron) {
	if l.Fire != nil {
		l.Fire(n)
	}
}

func (l ListenerFuncs) OnSignal(sig Signal) {
	if l.Signal != nil {
		l.Signal(sig)
	}
}

func (l ListenerFuncs) OnUpdate(n *neuron.Neuron) {
	if l.Update != nil {
		l.Update(n)
	}
}

// event is one queued notification awaiting dispatch outside the engine
// lock. Payloads are deep-copied at queue time, so listeners never observe
// fields or edge maps mid-mutation by a later tick.
type event struct {
	kind   EventType
	neuron *neuron.Neuron
	signal Signal
}

func (e *Engine) queueFireLocked(n *neuron.Neuron) {
	snap := n.Clone()
	e.events = append(e.events, event{kind: EventFire, neuron: &snap})
}

func (e *Engine) queueSignalLocked(sig Signal) {
	src := sig.Source.Clone()
	tgt := sig.Target.Clone()
	sig.Source = &src
	sig.Target = &tgt
	e.events = append(e.events, event{kind: EventSignal, signal: sig})
}

func (e *Engine) queueUpdateLocked(n *neuron.Neuron) {
	snap := n.Clone()
	e.events = append(e.events, event{kind: EventUpdate, neuron: &snap})
}

// batch pairs drained events with the listener installed when they were
// drained, so dispatch never reads e.listener off-lock and a listener
// swapped mid-dispatch applies from the next batch on.
type batch struct {
	listener Listener
	events   []event
}

// takeEventsLocked hands the queued events to the caller for dispatch after
// the lock is released.
func (e *Engine) takeEventsLocked() batch {
	b := batch{listener: e.listener, events: e.events}
	e.events = nil
	return b
}

// dispatch delivers a drained batch to its listener, isolating panics so
// one bad adapter callback cannot halt the simulation.
func (e *Engine) dispatch(b batch) {
	if b.listener == nil {
		return
	}
	for _, evt := range b.events {
		e.dispatchOne(b.listener, evt)
	}
}

func (e *Engine) dispatchOne(l Listener, evt event) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("listener panicked", "event", string(evt.kind), "panic", r)
		}
	}()

	switch evt.kind {
	case EventFire:
		l.OnFire(evt.neuron)
	case EventSignal:
		l.OnSignal(evt.signal)
	case EventUpdate:
		l.OnUpdate(evt.neuron)
	}
}

package engine

import (
	"time"

	"github.com/nvandessel/pulse/internal/constants"
	"github.com/nvandessel/pulse/internal/neuron"
)

// edgeRef identifies a directed edge with a pending delayed delivery.
type edgeRef struct {
	source int64
	target int64
}

// deliverLocked propagates a just-fired neuron's effect across each of its
// outgoing connections, honoring the speed tiers:
//
//	speed >= 1.0          instant: synchronous delivery, no travel visual
//	0.95 <= speed < 1.0   fast: synchronous delivery, zero-delay travel visual
//	speed < 0.95          delayed by max(MinSignalDelay, (1-speed)^2 * 1s)
//
// Caller holds e.mu.
func (e *Engine) deliverLocked(src *neuron.Neuron, now time.Time) {
	for _, conn := range e.store.OutgoingConnections(src.ID) {
		target := e.store.Get(conn.Target)
		if target == nil {
			// Raced with a concurrent removal; skip this edge.
			e.logger.Debug("delivery target missing", "source", conn.Source, "target", conn.Target)
			continue
		}

		// Delivered charge is not the raw weight; the quadratic makes
		// weight differences more pronounced downstream.
		scaled := conn.Weight * conn.Weight * constants.ChargeScale

		// Supersede, don't queue: a new firing replaces any undelivered
		// one on the edge, whatever tier the edge is in now. An edge
		// sped up past the fast threshold mid-transit must not land the
		// stale delayed charge on top of the synchronous one.
		ref := edgeRef{source: conn.Source, target: conn.Target}
		e.cancelPendingLocked(ref)

		switch {
		case conn.Speed >= constants.InstantSpeedThreshold:
			e.queueSignalLocked(Signal{
				Source: src, Target: target,
				Weight: conn.Weight, Speed: conn.Speed,
				Instant: true,
			})
			e.addChargeLocked(target, scaled, now)

		case conn.Speed >= constants.FastSpeedThreshold:
			e.queueSignalLocked(Signal{
				Source: src, Target: target,
				Weight: conn.Weight, Speed: conn.Speed,
			})
			e.addChargeLocked(target, scaled, now)

		default:
			delay := SignalDelay(conn.Speed)
			e.queueSignalLocked(Signal{
				Source: src, Target: target,
				Weight: conn.Weight, Speed: conn.Speed,
				Delay: delay,
			})
			e.pending[ref] = e.sched.Schedule(neuronGroup(src.ID), delay, func() {
				e.completeDelivery(ref, scaled)
			})
		}
	}
}

// completeDelivery runs when a delayed signal arrives. The edge or either
// endpoint may have been removed since scheduling; the delivery then
// becomes a no-op.
func (e *Engine) completeDelivery(ref edgeRef, amount float64) {
	e.mu.Lock()
	delete(e.pending, ref)
	target := e.store.Get(ref.target)
	if target == nil {
		e.mu.Unlock()
		e.logger.Debug("delivery dropped: target removed", "source", ref.source, "target", ref.target)
		return
	}
	e.addChargeLocked(target, amount, e.sched.Now())
	evts := e.takeEventsLocked()
	e.mu.Unlock()

	e.dispatch(evts)
}

// cancelPendingLocked cancels the pending delivery on an edge, if any.
// Caller holds e.mu.
func (e *Engine) cancelPendingLocked(ref edgeRef) {
	token, ok := e.pending[ref]
	if !ok {
		return
	}
	e.sched.Cancel(neuronGroup(ref.source), token)
	delete(e.pending, ref)
}

// PendingDeliveries reports how many delayed deliveries are in flight.
func (e *Engine) PendingDeliveries() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// SignalDelay computes the transmission delay for a connection speed below
// the fast threshold: delay shrinks quadratically as speed rises, floored
// so even near-instant edges stay visually perceptible.
func SignalDelay(speed float64) time.Duration {
	rem := 1 - speed
	d := time.Duration(rem * rem * float64(time.Second))
	if d < constants.MinSignalDelay {
		d = constants.MinSignalDelay
	}
	return d
}

package simulation_test

import (
	"testing"
	"time"

	"github.com/nvandessel/pulse/internal/simulation"
)

// TestDelayedDeliveryArrivesOnSchedule validates the end-to-end slow-signal
// path: weight 0.5, speed 0.3 yields a 490ms transit and a 0.375 charge
// deposit, not enough to fire the target.
func TestDelayedDeliveryArrivesOnSchedule(t *testing.T) {
	r := simulation.NewRunner(t)
	r.Build(simulation.Scenario{
		Neurons: []simulation.NeuronSpec{
			{Name: "a"},
			{Name: "b"},
		},
		Edges: []simulation.EdgeSpec{
			{Source: "a", Target: "b", Weight: 0.5, Speed: 0.3},
		},
	})
	r.Start()

	if !r.Fire("a") {
		t.Fatal("manual fire rejected")
	}
	// The fire latches on the next tick at +16ms; transit is 490ms.
	r.Advance(500 * time.Millisecond)
	simulation.AssertChargeNear(t, r, "b", 0, 1e-9)
	if got := r.Engine().PendingDeliveries(); got != 1 {
		t.Fatalf("PendingDeliveries = %d, want 1 in flight", got)
	}

	r.Advance(10 * time.Millisecond)
	simulation.AssertChargeNear(t, r, "b", 0.375, 1e-9)
	simulation.AssertNoFires(t, r, "b")
	if got := r.Engine().PendingDeliveries(); got != 0 {
		t.Fatalf("PendingDeliveries = %d after arrival, want 0", got)
	}
}

// TestRefireSupersedesPendingDelivery validates the one-signal-per-edge
// rule: firing the source again while a signal is in transit replaces the
// pending delivery, so the target is charged exactly once.
func TestRefireSupersedesPendingDelivery(t *testing.T) {
	r := simulation.NewRunner(t)
	r.Build(simulation.Scenario{
		Neurons: []simulation.NeuronSpec{
			{Name: "a"},
			{Name: "b"},
		},
		Edges: []simulation.EdgeSpec{
			{Source: "a", Target: "b", Weight: 0.5, Speed: 0.3},
		},
	})
	r.Start()

	r.Fire("a")
	r.Advance(300 * time.Millisecond) // fired at +16ms; delivery due +506ms
	r.Fire("a")                       // past refractory, fires at +304ms
	r.Advance(700 * time.Millisecond) // covers the superseding delivery at +794ms

	simulation.AssertSignalCount(t, r, "a", "b", 2)
	simulation.AssertChargeNear(t, r, "b", 0.375, 1e-9)
}

// TestDisconnectCancelsInFlightSignal validates that removing a connection
// cancels its pending delivery.
func TestDisconnectCancelsInFlightSignal(t *testing.T) {
	r := simulation.NewRunner(t)
	r.Build(simulation.Scenario{
		Neurons: []simulation.NeuronSpec{
			{Name: "a"},
			{Name: "b"},
		},
		Edges: []simulation.EdgeSpec{
			{Source: "a", Target: "b", Weight: 0.5, Speed: 0.3},
		},
	})
	r.Start()

	r.Fire("a")
	r.Advance(100 * time.Millisecond)
	if !r.Engine().RemoveConnection(r.ID("a"), r.ID("b")) {
		t.Fatal("RemoveConnection failed")
	}
	r.Advance(1 * time.Second)

	simulation.AssertChargeNear(t, r, "b", 0, 1e-9)
	if got := r.Engine().PendingDeliveries(); got != 0 {
		t.Fatalf("PendingDeliveries = %d after disconnect, want 0", got)
	}
}

// TestFastTierDeliversSameTick validates the fast tier: speeds at or above
// 0.95 skip the transit timer entirely.
func TestFastTierDeliversSameTick(t *testing.T) {
	r := simulation.NewRunner(t)
	r.Build(simulation.Scenario{
		Neurons: []simulation.NeuronSpec{
			{Name: "a"},
			{Name: "b"},
		},
		Edges: []simulation.EdgeSpec{
			{Source: "a", Target: "b", Weight: 0.5, Speed: 0.95},
		},
	})
	r.Start()

	r.Fire("a")
	r.Advance(16 * time.Millisecond)

	simulation.AssertChargeNear(t, r, "b", 0.375, 1e-9)
	if got := r.Engine().PendingDeliveries(); got != 0 {
		t.Fatalf("PendingDeliveries = %d for fast tier, want 0", got)
	}
}

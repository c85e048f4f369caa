package simulation_test

import (
	"testing"
	"time"

	"github.com/nvandessel/pulse/internal/simulation"
)

// TestChargeRejectedWhileFiring validates that a neuron in its firing pulse
// absorbs no charge at all.
func TestChargeRejectedWhileFiring(t *testing.T) {
	r := simulation.NewRunner(t)
	r.Build(simulation.Scenario{
		Neurons: []simulation.NeuronSpec{{Name: "a"}},
	})
	r.Start()

	r.Fire("a")
	r.Advance(20 * time.Millisecond) // inside the 150ms pulse

	if r.AddCharge("a", 0.5) {
		t.Error("AddCharge accepted during firing pulse")
	}
	simulation.AssertChargeNear(t, r, "a", 0, 1e-9)
}

// TestChargeRejectedDuringRefractory validates the refractory window that
// follows the pulse.
func TestChargeRejectedDuringRefractory(t *testing.T) {
	r := simulation.NewRunner(t)
	r.Build(simulation.Scenario{
		Neurons: []simulation.NeuronSpec{{Name: "a"}},
	})
	r.Start()

	r.Fire("a")
	r.Advance(180 * time.Millisecond) // pulse over at +166ms, refractory until +216ms

	if r.State("a").IsFiring {
		t.Fatal("pulse should have ended")
	}
	if r.AddCharge("a", 0.5) {
		t.Error("AddCharge accepted during refractory window")
	}

	r.Advance(50 * time.Millisecond) // past the refractory window
	if !r.AddCharge("a", 0.5) {
		t.Error("AddCharge rejected after refractory ended")
	}
	simulation.AssertChargeNear(t, r, "a", 0.5, 1e-9)
}

// TestManualFireRejectedWhileFiring validates the manual-fire guard.
func TestManualFireRejectedWhileFiring(t *testing.T) {
	r := simulation.NewRunner(t)
	r.Build(simulation.Scenario{
		Neurons: []simulation.NeuronSpec{{Name: "a"}},
	})
	r.Start()

	r.Fire("a")
	r.Advance(20 * time.Millisecond)

	if r.Fire("a") {
		t.Error("FireNeuron accepted while already firing")
	}
	r.Advance(1 * time.Second)
	simulation.AssertFireCount(t, r, "a", 1, 1)
}

// TestThresholdOverflowFiresOnce validates that charge far beyond the
// threshold still produces a single firing with charge fully drained.
func TestThresholdOverflowFiresOnce(t *testing.T) {
	r := simulation.NewRunner(t)
	r.Build(simulation.Scenario{
		Neurons: []simulation.NeuronSpec{{Name: "a"}},
	})
	r.Start()

	r.AddCharge("a", 10.0)
	r.Advance(100 * time.Millisecond)

	simulation.AssertFireCount(t, r, "a", 1, 1)
	if c := r.State("a").CurrentCharge; c != 0 {
		t.Errorf("charge after firing = %v, want 0", c)
	}
}

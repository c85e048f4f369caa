package simulation_test

import (
	"testing"
	"time"

	"github.com/nvandessel/pulse/internal/simulation"
)

// TestSteadyDriveFiresNearChargeTime validates the core charge-to-fire
// timing: at full drive and the default charge rate, a neuron crosses its
// threshold about 200ms after time starts, quantized to the tick interval.
func TestSteadyDriveFiresNearChargeTime(t *testing.T) {
	r := simulation.NewRunner(t)
	r.Build(simulation.Scenario{
		Neurons: []simulation.NeuronSpec{{Name: "a", DC: 1.0}},
	})
	r.Start()
	r.Advance(300 * time.Millisecond)

	simulation.AssertFiredWithin(t, r, "a", 200*time.Millisecond, 220*time.Millisecond)
}

// TestSteadyDriveFireRate validates the sustained rate under full drive:
// a full pulse-refractory-recharge cycle is about 400ms, so two seconds
// holds five firings.
func TestSteadyDriveFireRate(t *testing.T) {
	r := simulation.NewRunner(t)
	r.Build(simulation.Scenario{
		Neurons: []simulation.NeuronSpec{{Name: "a", DC: 1.0}},
	})
	r.Start()
	r.Advance(2 * time.Second)

	simulation.AssertFireCount(t, r, "a", 4, 6)
	simulation.AssertMinFireSpacing(t, r, "a", 200*time.Millisecond)
}

// TestHalfDriveFiresSlower validates drive proportionality: at half drive
// the charge phase takes twice as long.
func TestHalfDriveFiresSlower(t *testing.T) {
	r := simulation.NewRunner(t)
	r.Build(simulation.Scenario{
		Neurons: []simulation.NeuronSpec{
			{Name: "fast", DC: 1.0},
			{Name: "slow", DC: 0.5},
		},
	})
	r.Start()
	r.Advance(500 * time.Millisecond)

	simulation.AssertFireOrder(t, r, "fast", "slow")
	simulation.AssertFiredWithin(t, r, "slow", 400*time.Millisecond, 420*time.Millisecond)
}

// TestZeroDriveNeverFires validates that a neuron with no drive and no
// inputs stays silent indefinitely.
func TestZeroDriveNeverFires(t *testing.T) {
	r := simulation.NewRunner(t)
	r.Build(simulation.Scenario{
		Neurons: []simulation.NeuronSpec{{Name: "a"}},
	})
	r.Start()
	r.Advance(5 * time.Second)

	simulation.AssertNoFires(t, r, "a")
	simulation.AssertChargeNear(t, r, "a", 0, 1e-9)
}

// TestPauseFreezesAccumulation validates that pausing stops charge
// accumulation while the clock keeps moving, and resuming picks up where
// the charge left off.
func TestPauseFreezesAccumulation(t *testing.T) {
	r := simulation.NewRunner(t)
	r.Build(simulation.Scenario{
		Neurons: []simulation.NeuronSpec{{Name: "a", DC: 1.0}},
	})
	r.Start()
	r.Advance(100 * time.Millisecond)

	r.Engine().Pause()
	r.Advance(5 * time.Second)
	simulation.AssertNoFires(t, r, "a")

	r.Engine().Resume()
	r.Advance(200 * time.Millisecond)
	simulation.AssertFireCount(t, r, "a", 1, 1)
}

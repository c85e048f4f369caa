package simulation_test

import (
	"testing"
	"time"

	"github.com/nvandessel/pulse/internal/simulation"
)

// TestDriveClampsToUnit validates that out-of-range drive levels clamp
// instead of erroring: a drive of 5 behaves exactly like full drive.
func TestDriveClampsToUnit(t *testing.T) {
	r := simulation.NewRunner(t)
	r.Build(simulation.Scenario{
		Neurons: []simulation.NeuronSpec{{Name: "a"}},
	})
	r.SetDC("a", 5.0, false)
	if got := r.State("a").DCInput; got != 1.0 {
		t.Fatalf("DCInput = %v, want clamped to 1.0", got)
	}

	r.Start()
	r.Advance(300 * time.Millisecond)
	simulation.AssertFiredWithin(t, r, "a", 200*time.Millisecond, 220*time.Millisecond)
}

// TestNegativeDriveClampsToZero validates the lower bound.
func TestNegativeDriveClampsToZero(t *testing.T) {
	r := simulation.NewRunner(t)
	r.Build(simulation.Scenario{
		Neurons: []simulation.NeuronSpec{{Name: "a"}},
	})
	r.SetDC("a", -0.5, false)
	if got := r.State("a").DCInput; got != 0 {
		t.Fatalf("DCInput = %v, want clamped to 0", got)
	}

	r.Start()
	r.Advance(1 * time.Second)
	simulation.AssertNoFires(t, r, "a")
}

// TestSetDCResetClearsCharge validates the reset-charge variant of setting
// drive.
func TestSetDCResetClearsCharge(t *testing.T) {
	r := simulation.NewRunner(t)
	r.Build(simulation.Scenario{
		Neurons: []simulation.NeuronSpec{{Name: "a", DC: 1.0}},
	})
	r.Start()
	r.Advance(100 * time.Millisecond) // partway to threshold

	r.SetDC("a", 0, true)
	simulation.AssertChargeNear(t, r, "a", 0, 1e-9)

	r.Advance(1 * time.Second)
	simulation.AssertNoFires(t, r, "a")
}

// TestConnectionParamsClamp validates weight and speed clamping on connect.
func TestConnectionParamsClamp(t *testing.T) {
	r := simulation.NewRunner(t)
	r.Build(simulation.Scenario{
		Neurons: []simulation.NeuronSpec{
			{Name: "a"},
			{Name: "b"},
		},
	})

	if !r.Engine().CreateConnection(r.ID("a"), r.ID("b"), 3.0, -1.0) {
		t.Fatal("CreateConnection failed")
	}
	conns := r.Engine().Connections()
	if len(conns) != 1 {
		t.Fatalf("connections = %d, want 1", len(conns))
	}
	if conns[0].Weight != 1.0 {
		t.Errorf("weight = %v, want clamped to 1.0", conns[0].Weight)
	}
	if conns[0].Speed != 0 {
		t.Errorf("speed = %v, want clamped to 0", conns[0].Speed)
	}
}

// Package simulation provides a deterministic test harness for validating
// emergent dynamics of the neuron engine.
//
// The harness exercises the real Engine, Store, and delivery pipeline over a
// ManualScheduler, with no mocks and no wall clock. Scenarios are Go builders
// that
// construct networks by name, then advance virtual time and make
// property-based assertions about the fire and signal traces the engine
// emitted.
//
// Usage:
//
//	func TestSteadyDrive(t *testing.T) {
//	    r := simulation.NewRunner(t)
//	    r.Build(simulation.Scenario{
//	        Neurons: []simulation.NeuronSpec{{Name: "a", DC: 1.0}},
//	    })
//	    r.Start()
//	    r.Advance(1 * time.Second)
//	    simulation.AssertFireCount(t, r, "a", 4, 5)
//	}
package simulation

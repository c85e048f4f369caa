package simulation

import (
	"time"
)

// Scenario defines the network a Runner builds before time starts moving.
type Scenario struct {
	Name    string
	Neurons []NeuronSpec
	Edges   []EdgeSpec
}

// NeuronSpec declares one neuron by name. Names are harness-local handles;
// the engine assigns numeric ids.
type NeuronSpec struct {
	Name      string
	Threshold float64 // 0 = engine default
	DC        float64
	Position  [3]float64
}

// EdgeSpec declares a connection between two named neurons.
type EdgeSpec struct {
	Source string
	Target string
	Weight float64 // 0 = engine default
	Speed  float64 // 0 = engine default
}

// FireEvent is one observed firing, stamped with virtual time.
type FireEvent struct {
	Name string
	At   time.Time
}

// SignalEvent is one observed signal emission, stamped with virtual time.
type SignalEvent struct {
	Source  string
	Target  string
	Weight  float64
	Speed   float64
	Delay   time.Duration
	Instant bool
	At      time.Time
}

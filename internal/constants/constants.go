// Package constants provides named simulation constants used throughout the
// pulse codebase. This centralizes magic numbers for better maintainability
// and documentation: the engine, delivery, and scheduler packages all read
// their timing and scaling parameters from here so the set stays internally
// consistent.
package constants

import "time"

// Charge accumulation constants
const (
	// DefaultThreshold is the firing boundary for a neuron's accumulated
	// charge. Charge is always clamped to [0, threshold].
	DefaultThreshold = 1.0

	// ChargeRatePerSecond is the charge accumulated per second at full DC
	// drive (dcInput=1). With DefaultThreshold=1.0 a fully driven neuron
	// fires every ~200ms plus its firing pulse and refractory window.
	ChargeRatePerSecond = 5.0
)

// Firing timing constants
const (
	// FiringPulseDuration is how long a neuron stays in the firing state
	// after threshold crossing. Long enough to be visually perceptible,
	// short relative to typical DC charge times.
	FiringPulseDuration = 150 * time.Millisecond

	// RefractoryWindow is how long a neuron refuses charge and re-firing
	// after its firing pulse ends. Minimum spacing between two fires of
	// the same neuron is FiringPulseDuration + RefractoryWindow.
	RefractoryWindow = 50 * time.Millisecond

	// MinRefireInterval suppresses firing attempts arriving within this
	// window of the previous attempt. Guards against double-fire from
	// duplicate triggers in one tick or re-entrant calls.
	MinRefireInterval = 50 * time.Millisecond
)

// Connection defaults and signal delivery constants
const (
	// DefaultWeight is the synaptic weight used when a connection has no
	// explicit weight entry.
	DefaultWeight = 0.1

	// DefaultSpeed is the transmission speed used when a connection has no
	// explicit speed entry.
	DefaultSpeed = 0.5

	// InstantSpeedThreshold marks edges that deliver synchronously with no
	// visual travel at all.
	InstantSpeedThreshold = 1.0

	// FastSpeedThreshold marks edges that deliver synchronously but still
	// render a zero-delay travelling signal.
	FastSpeedThreshold = 0.95

	// ChargeScale converts a connection weight into delivered charge:
	// delivered = weight^2 * ChargeScale. The quadratic makes weight
	// differences more pronounced downstream.
	ChargeScale = 1.5
)

// MinSignalDelay floors the transmission delay of non-synchronous edges so
// even near-instant signals remain visually perceptible. Delay for an edge
// with speed s < FastSpeedThreshold is max(MinSignalDelay, (1-s)^2 * 1s).
const MinSignalDelay = 50 * time.Millisecond

// Tick scheduling constants
const (
	// DefaultTickInterval is the frame-driver interval for the production
	// scheduler, roughly 60 ticks per second.
	DefaultTickInterval = 16 * time.Millisecond

	// MaxTickDelta caps the elapsed wall-clock delta handed to a single
	// tick. After the host suspends the process (backgrounded tab, laptop
	// sleep) the scheduler resumes forward from now; without this cap one
	// huge delta would dump minutes of DC charge into every neuron at once.
	MaxTickDelta = 250 * time.Millisecond
)

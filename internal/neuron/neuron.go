// Package neuron defines the neuron record and the Store that owns all
// neuron and connection state for the simulation.
package neuron

import (
	"maps"
	"slices"
	"time"

	"github.com/nvandessel/pulse/internal/constants"
)

// Appearance is presentation payload carried on a neuron for adapter layers
// (renderers, sound mappers). The simulation core preserves these fields but
// never interprets them.
type Appearance struct {
	PresetColor   string  `json:"preset_color,omitempty" yaml:"preset_color,omitempty"`
	PresetName    string  `json:"preset_name,omitempty" yaml:"preset_name,omitempty"`
	BaseScale     float64 `json:"base_scale,omitempty" yaml:"base_scale,omitempty"`
	MaxScale      float64 `json:"max_scale,omitempty" yaml:"max_scale,omitempty"`
	HarmonyAnchor bool    `json:"harmony_anchor,omitempty" yaml:"harmony_anchor,omitempty"`
	Envelope      string  `json:"envelope,omitempty" yaml:"envelope,omitempty"`
}

// Neuron is a plain data record holding one neuron's simulation state.
// All mutation of simulation fields (charge, flags, timestamps) is
// serialized by the engine; the Store guards only graph topology.
type Neuron struct {
	// ID is a stable unique identifier assigned at creation. IDs are never
	// reused while any live connection references them.
	ID int64 `json:"id"`

	// Position is consumed only by adapter layers (visibility, culling).
	Position [3]float64 `json:"position"`

	// Threshold is the firing boundary. CurrentCharge is clamped to
	// [0, Threshold].
	Threshold float64 `json:"threshold"`

	// CurrentCharge is the accumulated excitation, reset to 0 on firing.
	CurrentCharge float64 `json:"current_charge"`

	// DCInput in [0, 1] is continuous drive adding charge every tick.
	DCInput float64 `json:"dc_input"`

	// IsFiring is true for the firing-pulse window after threshold crossing.
	IsFiring bool `json:"is_firing"`

	// ShouldFire is a one-tick latch set when charge crosses threshold,
	// consumed by the engine's firing pass.
	ShouldFire bool `json:"should_fire"`

	// RefractoryEnd is when the post-pulse refractory window ends. The
	// neuron accepts no charge and cannot re-fire before this instant.
	RefractoryEnd time.Time `json:"refractory_end,omitzero"`

	// LastFired is when the neuron last entered the firing state.
	LastFired time.Time `json:"last_fired,omitzero"`

	// LastFireAttempt is when a firing attempt (successful or suppressed)
	// last occurred; attempts within MinRefireInterval are dropped.
	LastFireAttempt time.Time `json:"-"`

	// Outgoing is the ordered list of downstream neuron IDs. Weights and
	// Speeds always hold exactly this key set.
	Outgoing []int64           `json:"outgoing,omitempty"`
	Weights  map[int64]float64 `json:"weights,omitempty"`
	Speeds   map[int64]float64 `json:"speeds,omitempty"`

	// Appearance is opaque presentation payload for adapters.
	Appearance Appearance `json:"appearance,omitzero"`
}

// Clone returns a deep copy of the neuron. The outgoing list and the
// weight/speed maps are duplicated, so the copy can be read, mutated, or
// marshaled while the engine keeps updating the original.
func (n *Neuron) Clone() Neuron {
	c := *n
	c.Outgoing = slices.Clone(n.Outgoing)
	c.Weights = maps.Clone(n.Weights)
	c.Speeds = maps.Clone(n.Speeds)
	return c
}

// InRefractory reports whether the neuron is inside its refractory window
// at the given instant.
func (n *Neuron) InRefractory(now time.Time) bool {
	return now.Before(n.RefractoryEnd)
}

// Weight returns the synaptic weight toward target, falling back to the
// documented default when no entry exists.
func (n *Neuron) Weight(target int64) float64 {
	if w, ok := n.Weights[target]; ok {
		return w
	}
	return constants.DefaultWeight
}

// Speed returns the transmission speed toward target, falling back to the
// documented default when no entry exists.
func (n *Neuron) Speed(target int64) float64 {
	if s, ok := n.Speeds[target]; ok {
		return s
	}
	return constants.DefaultSpeed
}

// Connection is a denormalized view of one directed edge. The Store keeps a
// flat table of these for O(1) existence and removal checks; the per-neuron
// weight/speed maps remain the source of truth.
type Connection struct {
	Source int64   `json:"source"`
	Target int64   `json:"target"`
	Weight float64 `json:"weight"`
	Speed  float64 `json:"speed"`
}

// Clamp01 clamps v to [0, 1]. Range violations on DC input, weights, and
// speeds clamp rather than reject.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampCharge clamps charge to [0, threshold].
func ClampCharge(charge, threshold float64) float64 {
	if charge < 0 {
		return 0
	}
	if charge > threshold {
		return threshold
	}
	return charge
}

// Package mcp provides an MCP (Model Context Protocol) server for pulse.
package mcp

import (
	"github.com/nvandessel/pulse/internal/neuron"
)

// CreateNeuronInput defines the input for the pulse_create_neuron tool.
type CreateNeuronInput struct {
	Position  [3]float64 `json:"position,omitempty" jsonschema:"World position of the neuron (consumed by visuals only)"`
	Threshold float64    `json:"threshold,omitempty" jsonschema:"Firing threshold (default 1.0)"`
	DC        float64    `json:"dc,omitempty" jsonschema:"Continuous drive level 0-1 (values outside the range are clamped)"`
	Preset    string     `json:"preset,omitempty" jsonschema:"Sound/visual preset name carried for adapters"`
}

// CreateNeuronOutput defines the output for the pulse_create_neuron tool.
type CreateNeuronOutput struct {
	ID      int64  `json:"id" jsonschema:"Assigned neuron id"`
	Message string `json:"message" jsonschema:"Human-readable result message"`
}

// RemoveNeuronInput defines the input for the pulse_remove_neuron tool.
type RemoveNeuronInput struct {
	ID int64 `json:"id" jsonschema:"Neuron id to remove"`
}

// RemoveNeuronOutput defines the output for the pulse_remove_neuron tool.
type RemoveNeuronOutput struct {
	Removed bool   `json:"removed" jsonschema:"Whether the neuron existed and was removed"`
	Message string `json:"message"`
}

// ConnectInput defines the input for the pulse_connect tool.
type ConnectInput struct {
	Source int64   `json:"source" jsonschema:"Source neuron id"`
	Target int64   `json:"target" jsonschema:"Target neuron id"`
	Weight float64 `json:"weight,omitempty" jsonschema:"Synaptic weight 0-1 (clamped)"`
	Speed  float64 `json:"speed,omitempty" jsonschema:"Transmission speed 0-1 (clamped); 1 delivers instantly"`
}

// ConnectOutput defines the output for the pulse_connect tool.
type ConnectOutput struct {
	Created bool   `json:"created" jsonschema:"Whether the connection was created or updated"`
	Message string `json:"message"`
}

// DisconnectInput defines the input for the pulse_disconnect tool.
type DisconnectInput struct {
	Source int64 `json:"source" jsonschema:"Source neuron id"`
	Target int64 `json:"target" jsonschema:"Target neuron id"`
}

// DisconnectOutput defines the output for the pulse_disconnect tool.
type DisconnectOutput struct {
	Removed bool   `json:"removed"`
	Message string `json:"message"`
}

// FireInput defines the input for the pulse_fire tool.
type FireInput struct {
	ID int64 `json:"id" jsonschema:"Neuron id to fire"`
}

// FireOutput defines the output for the pulse_fire tool.
type FireOutput struct {
	Fired   bool   `json:"fired" jsonschema:"False when the neuron is unknown or refractory"`
	Message string `json:"message"`
}

// SetDCInput defines the input for the pulse_set_dc tool.
type SetDCInput struct {
	ID          int64   `json:"id" jsonschema:"Neuron id"`
	Value       float64 `json:"value" jsonschema:"Drive level 0-1 (clamped)"`
	ResetCharge bool    `json:"reset_charge,omitempty" jsonschema:"Also clear accumulated charge"`
}

// SetDCOutput defines the output for the pulse_set_dc tool.
type SetDCOutput struct {
	OK      bool    `json:"ok"`
	Value   float64 `json:"value" jsonschema:"Stored (clamped) drive level"`
	Message string  `json:"message"`
}

// NetworkInput defines the input for the pulse_network tool.
type NetworkInput struct{}

// NetworkOutput defines the output for the pulse_network tool.
type NetworkOutput struct {
	Neurons     []neuron.Neuron     `json:"neurons" jsonschema:"Every neuron with its live simulation state"`
	Connections []neuron.Connection `json:"connections"`
	NeuronCount int                 `json:"neuron_count"`
	EdgeCount   int                 `json:"edge_count"`
}

// ResetInput defines the input for the pulse_reset tool.
type ResetInput struct {
	ID  int64 `json:"id,omitempty" jsonschema:"Neuron to reset; omit with all=true to reset everything"`
	All bool  `json:"all,omitempty" jsonschema:"Reset every neuron's charge and firing flags"`
}

// ResetOutput defines the output for the pulse_reset tool.
type ResetOutput struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

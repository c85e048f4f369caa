package config

import (
	"fmt"
	"os"

	"github.com/nvandessel/pulse/internal/engine"
	"github.com/nvandessel/pulse/internal/neuron"
	"gopkg.in/yaml.v3"
)

// Network describes a neuron network in a YAML file, loaded by `pulse run`
// and `pulse serve`. Weight, speed, and DC values outside [0, 1] are
// clamped when applied, matching the engine's clamp-never-reject contract.
type Network struct {
	Name        string           `yaml:"name,omitempty"`
	Neurons     []NetworkNeuron  `yaml:"neurons"`
	Connections []NetworkConnect `yaml:"connections,omitempty"`
}

// NetworkNeuron is one neuron entry in a network file.
type NetworkNeuron struct {
	ID        int64             `yaml:"id,omitempty"`
	Position  [3]float64        `yaml:"position,omitempty"`
	Threshold float64           `yaml:"threshold,omitempty"`
	DC        float64           `yaml:"dc,omitempty"`
	Look      neuron.Appearance `yaml:"look,omitempty"`
}

// NetworkConnect is one connection entry in a network file.
type NetworkConnect struct {
	Source int64   `yaml:"source"`
	Target int64   `yaml:"target"`
	Weight float64 `yaml:"weight"`
	Speed  float64 `yaml:"speed"`
}

// LoadNetwork reads and validates a network YAML file.
func LoadNetwork(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading network file: %w", err)
	}

	var net Network
	if err := yaml.Unmarshal(data, &net); err != nil {
		return nil, fmt.Errorf("parsing network file: %w", err)
	}
	if err := net.Validate(); err != nil {
		return nil, err
	}
	return &net, nil
}

// Validate checks the network for duplicate IDs and dangling connections.
func (n *Network) Validate() error {
	if len(n.Neurons) == 0 {
		return fmt.Errorf("network has no neurons")
	}

	ids := make(map[int64]bool, len(n.Neurons))
	for i, nn := range n.Neurons {
		if nn.ID != 0 {
			if ids[nn.ID] {
				return fmt.Errorf("duplicate neuron id %d", nn.ID)
			}
			ids[nn.ID] = true
		} else if len(n.Connections) > 0 {
			// Auto-assigned IDs can't be referenced by connections.
			return fmt.Errorf("neuron %d needs an explicit id because the network declares connections", i)
		}
	}

	for _, c := range n.Connections {
		if !ids[c.Source] {
			return fmt.Errorf("connection references unknown source %d", c.Source)
		}
		if !ids[c.Target] {
			return fmt.Errorf("connection references unknown target %d", c.Target)
		}
		if c.Source == c.Target {
			return fmt.Errorf("connection %d->%d is a self-loop", c.Source, c.Target)
		}
	}

	return nil
}

// Apply builds the network inside the engine: neurons first, connections
// after, so every endpoint exists when its edges are created.
func (n *Network) Apply(eng *engine.Engine) error {
	for _, nn := range n.Neurons {
		created := eng.CreateNeuron(neuron.Neuron{
			ID:         nn.ID,
			Position:   nn.Position,
			Threshold:  nn.Threshold,
			DCInput:    nn.DC,
			Appearance: nn.Look,
		})
		if created == nil {
			return fmt.Errorf("creating neuron %d", nn.ID)
		}
	}

	for _, c := range n.Connections {
		if !eng.CreateConnection(c.Source, c.Target, c.Weight, c.Speed) {
			return fmt.Errorf("creating connection %d->%d", c.Source, c.Target)
		}
	}

	return nil
}

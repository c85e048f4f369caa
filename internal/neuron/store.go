package neuron

import (
	"sync"

	"github.com/nvandessel/pulse/internal/constants"
)

// edgeKey identifies a directed connection in the flat table.
type edgeKey struct {
	source int64
	target int64
}

// Store is the authoritative owner of neuron identity and graph topology.
// Neurons are kept in insertion order; connections live both in the source
// neuron's per-edge maps and in a flat table for O(1) existence checks.
//
// The Store's mutex guards the maps and the insertion-order slice. Mutation
// of an individual neuron's simulation state happens through the engine,
// which serializes all of it behind its own lock.
type Store struct {
	mu      sync.RWMutex
	neurons map[int64]*Neuron
	order   []int64
	edges   map[edgeKey]struct{}
	nextID  int64
}

// NewStore creates an empty neuron store.
func NewStore() *Store {
	return &Store{
		neurons: make(map[int64]*Neuron),
		edges:   make(map[edgeKey]struct{}),
		nextID:  1,
	}
}

// Create stores a neuron, assigning a fresh ID when the initial record has
// none, and filling documented defaults for absent numeric fields. The
// returned pointer is the stored record, not a copy.
func (s *Store) Create(initial Neuron) *Neuron {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := initial
	if n.ID == 0 {
		n.ID = s.nextID
	}
	if n.ID >= s.nextID {
		s.nextID = n.ID + 1
	}
	if n.Threshold <= 0 {
		n.Threshold = constants.DefaultThreshold
	}
	n.DCInput = Clamp01(n.DCInput)
	n.CurrentCharge = ClampCharge(n.CurrentCharge, n.Threshold)
	if n.Weights == nil {
		n.Weights = make(map[int64]float64)
	}
	if n.Speeds == nil {
		n.Speeds = make(map[int64]float64)
	}

	// Re-creating an existing ID replaces the record in place, keeping
	// its insertion-order slot.
	if _, exists := s.neurons[n.ID]; !exists {
		s.order = append(s.order, n.ID)
	}
	s.neurons[n.ID] = &n
	return &n
}

// Get retrieves a neuron by ID. Returns nil when not found.
func (s *Store) Get(id int64) *Neuron {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.neurons[id]
}

// Remove deletes a neuron and every connection where it is source or
// target. It returns the removed connections so callers can cancel any
// in-flight deliveries, and false when the ID is unknown.
func (s *Store) Remove(id int64) ([]Connection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.neurons[id]
	if !exists {
		return nil, false
	}

	var removed []Connection

	// Outbound edges.
	for _, target := range n.Outgoing {
		removed = append(removed, Connection{
			Source: id,
			Target: target,
			Weight: n.Weight(target),
			Speed:  n.Speed(target),
		})
		delete(s.edges, edgeKey{source: id, target: target})
	}

	// Inbound edges from every other neuron.
	for _, other := range s.neurons {
		if other.ID == id {
			continue
		}
		if _, ok := s.edges[edgeKey{source: other.ID, target: id}]; !ok {
			continue
		}
		removed = append(removed, Connection{
			Source: other.ID,
			Target: id,
			Weight: other.Weight(id),
			Speed:  other.Speed(id),
		})
		s.detachLocked(other, id)
		delete(s.edges, edgeKey{source: other.ID, target: id})
	}

	delete(s.neurons, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	return removed, true
}

// All returns every neuron in insertion order.
func (s *Store) All() []*Neuron {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Neuron, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.neurons[id])
	}
	return out
}

// DCNeurons returns the neurons with a positive DC drive, in insertion order.
func (s *Store) DCNeurons() []*Neuron {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Neuron
	for _, id := range s.order {
		if n := s.neurons[id]; n.DCInput > 0 {
			out = append(out, n)
		}
	}
	return out
}

// Count returns the number of stored neurons.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.neurons)
}

// Connect creates or updates the directed edge source->target. Weight and
// speed clamp to [0, 1]. Returns false, with no side effect, when either
// endpoint is unknown. An existing edge is upserted in place.
func (s *Store) Connect(source, target int64, weight, speed float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.neurons[source]
	if !ok {
		return false
	}
	if _, ok := s.neurons[target]; !ok {
		return false
	}

	key := edgeKey{source: source, target: target}
	if _, exists := s.edges[key]; !exists {
		src.Outgoing = append(src.Outgoing, target)
		s.edges[key] = struct{}{}
	}
	src.Weights[target] = Clamp01(weight)
	src.Speeds[target] = Clamp01(speed)
	return true
}

// Disconnect removes the edge source->target from both the source neuron's
// maps and the flat table. Returns false when the edge does not exist.
func (s *Store) Disconnect(source, target int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := edgeKey{source: source, target: target}
	if _, exists := s.edges[key]; !exists {
		return false
	}
	src := s.neurons[source]
	if src != nil {
		s.detachLocked(src, target)
	}
	delete(s.edges, key)
	return true
}

// HasConnection reports whether the edge source->target exists.
func (s *Store) HasConnection(source, target int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.edges[edgeKey{source: source, target: target}]
	return exists
}

// GetConnection returns the denormalized view of an edge.
func (s *Store) GetConnection(source, target int64) (Connection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.edges[edgeKey{source: source, target: target}]; !exists {
		return Connection{}, false
	}
	src := s.neurons[source]
	return Connection{
		Source: source,
		Target: target,
		Weight: src.Weight(target),
		Speed:  src.Speed(target),
	}, true
}

// SetWeight updates an existing edge's weight in place, clamped to [0, 1].
// In-flight deliveries keep the weight they were scheduled with; the change
// affects future firings only.
func (s *Store) SetWeight(source, target int64, weight float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.edges[edgeKey{source: source, target: target}]; !exists {
		return false
	}
	s.neurons[source].Weights[target] = Clamp01(weight)
	return true
}

// SetSpeed updates an existing edge's speed in place, clamped to [0, 1].
// Delivery timing already computed for in-flight signals is not disturbed.
func (s *Store) SetSpeed(source, target int64, speed float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.edges[edgeKey{source: source, target: target}]; !exists {
		return false
	}
	s.neurons[source].Speeds[target] = Clamp01(speed)
	return true
}

// Connections returns the denormalized view of every edge, ordered by
// source insertion order and then source-local edge order.
func (s *Store) Connections() []Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Connection
	for _, id := range s.order {
		src := s.neurons[id]
		for _, target := range src.Outgoing {
			out = append(out, Connection{
				Source: id,
				Target: target,
				Weight: src.Weight(target),
				Speed:  src.Speed(target),
			})
		}
	}
	return out
}

// OutgoingConnections returns the source neuron's edges in their stored
// order, with defaults applied. Returns nil for an unknown source.
func (s *Store) OutgoingConnections(source int64) []Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src, ok := s.neurons[source]
	if !ok {
		return nil
	}
	out := make([]Connection, 0, len(src.Outgoing))
	for _, target := range src.Outgoing {
		out = append(out, Connection{
			Source: source,
			Target: target,
			Weight: src.Weight(target),
			Speed:  src.Speed(target),
		})
	}
	return out
}

// Reset clears a neuron's transient firing state (charge, flags) without
// touching DC input or connections. Returns false for an unknown ID.
func (s *Store) Reset(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.neurons[id]
	if !exists {
		return false
	}
	resetNeuron(n)
	return true
}

// ResetAll clears transient firing state on every neuron.
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.neurons {
		resetNeuron(n)
	}
}

// Clear removes every neuron and connection. Used by engine disposal.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.neurons = make(map[int64]*Neuron)
	s.edges = make(map[edgeKey]struct{})
	s.order = nil
}

func resetNeuron(n *Neuron) {
	n.CurrentCharge = 0
	n.IsFiring = false
	n.ShouldFire = false
}

// detachLocked removes target from src's outgoing list and per-edge maps.
// Caller holds s.mu.
func (s *Store) detachLocked(src *Neuron, target int64) {
	for i, t := range src.Outgoing {
		if t == target {
			src.Outgoing = append(src.Outgoing[:i], src.Outgoing[i+1:]...)
			break
		}
	}
	delete(src.Weights, target)
	delete(src.Speeds, target)
}

// Package recorder persists spike trains to SQLite for offline analysis.
// It implements the engine's Listener interface and appends fire and signal
// events as they happen; the live simulation state itself is never saved.
package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/pulse/internal/engine"
	"github.com/nvandessel/pulse/internal/neuron"
)

// Recorder writes fire and signal events to pulse.db. It is safe for
// concurrent use; SQLite runs with a single writer connection.
type Recorder struct {
	mu      sync.Mutex
	db      *sql.DB
	nowFunc func() time.Time // injectable clock for testing
}

// FireRecord is one recorded firing.
type FireRecord struct {
	NeuronID int64
	FiredAt  time.Time
}

// SignalRecord is one recorded signal dispatch.
type SignalRecord struct {
	SourceID int64
	TargetID int64
	Weight   float64
	Speed    float64
	Delay    time.Duration
	SentAt   time.Time
}

// New opens (creating if needed) dir/pulse.db and initializes the schema.
func New(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create recording directory: %w", err)
	}

	dbPath := filepath.Join(dir, "pulse.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Recorder{db: db, nowFunc: time.Now}, nil
}

func initSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS fires (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	neuron_id INTEGER NOT NULL,
	fired_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fires_neuron ON fires(neuron_id, fired_at);

CREATE TABLE IF NOT EXISTS signals (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	source_id INTEGER NOT NULL,
	target_id INTEGER NOT NULL,
	weight    REAL NOT NULL,
	speed     REAL NOT NULL,
	delay_ns  INTEGER NOT NULL,
	sent_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_signals_source ON signals(source_id, sent_at);
`
	_, err := db.Exec(schema)
	return err
}

// OnFire records a firing at the neuron's LastFired instant (the engine's
// time base, not the recorder's clock).
func (r *Recorder) OnFire(n *neuron.Neuron) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = r.db.Exec(
		`INSERT INTO fires (neuron_id, fired_at) VALUES (?, ?)`,
		n.ID, n.LastFired.UnixNano(),
	)
}

// OnSignal records a signal dispatch.
func (r *Recorder) OnSignal(sig engine.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = r.db.Exec(
		`INSERT INTO signals (source_id, target_id, weight, speed, delay_ns, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sig.Source.ID, sig.Target.ID, sig.Weight, sig.Speed,
		int64(sig.Delay), r.nowFunc().UnixNano(),
	)
}

// OnUpdate is a no-op; per-tick charge updates are far too chatty to persist.
func (r *Recorder) OnUpdate(n *neuron.Neuron) {}

// CountFires returns the number of recorded firings for a neuron.
func (r *Recorder) CountFires(neuronID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM fires WHERE neuron_id = ?`, neuronID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count fires: %w", err)
	}
	return count, nil
}

// Fires returns the recorded firings for a neuron at or after since,
// oldest first.
func (r *Recorder) Fires(neuronID int64, since time.Time) ([]FireRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(
		`SELECT neuron_id, fired_at FROM fires
		 WHERE neuron_id = ? AND fired_at >= ? ORDER BY fired_at`,
		neuronID, since.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query fires: %w", err)
	}
	defer rows.Close()

	var out []FireRecord
	for rows.Next() {
		var id, nanos int64
		if err := rows.Scan(&id, &nanos); err != nil {
			return nil, fmt.Errorf("failed to scan fire: %w", err)
		}
		out = append(out, FireRecord{NeuronID: id, FiredAt: time.Unix(0, nanos)})
	}
	return out, rows.Err()
}

// InterFireIntervals returns the gaps between consecutive recorded firings
// of a neuron, oldest first. Useful for verifying refractory spacing from
// recorded data.
func (r *Recorder) InterFireIntervals(neuronID int64) ([]time.Duration, error) {
	fires, err := r.Fires(neuronID, time.Time{})
	if err != nil {
		return nil, err
	}
	if len(fires) < 2 {
		return nil, nil
	}

	intervals := make([]time.Duration, 0, len(fires)-1)
	for i := 1; i < len(fires); i++ {
		intervals = append(intervals, fires[i].FiredAt.Sub(fires[i-1].FiredAt))
	}
	return intervals, nil
}

// Signals returns the recorded signal dispatches from a source neuron,
// oldest first.
func (r *Recorder) Signals(sourceID int64) ([]SignalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(
		`SELECT source_id, target_id, weight, speed, delay_ns, sent_at
		 FROM signals WHERE source_id = ? ORDER BY sent_at`,
		sourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var out []SignalRecord
	for rows.Next() {
		var rec SignalRecord
		var delayNS, sentNanos int64
		if err := rows.Scan(&rec.SourceID, &rec.TargetID, &rec.Weight, &rec.Speed, &delayNS, &sentNanos); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		rec.Delay = time.Duration(delayNS)
		rec.SentAt = time.Unix(0, sentNanos)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.Close()
}

// compile-time check that Recorder satisfies the engine listener contract.
var _ engine.Listener = (*Recorder)(nil)

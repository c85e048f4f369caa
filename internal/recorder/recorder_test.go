package recorder

import (
	"testing"
	"time"

	"github.com/nvandessel/pulse/internal/engine"
	"github.com/nvandessel/pulse/internal/neuron"
	"github.com/nvandessel/pulse/internal/sched"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRecorderFires(t *testing.T) {
	r := newTestRecorder(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	r.OnFire(&neuron.Neuron{ID: 1, LastFired: base})
	r.OnFire(&neuron.Neuron{ID: 1, LastFired: base.Add(400 * time.Millisecond)})
	r.OnFire(&neuron.Neuron{ID: 2, LastFired: base.Add(100 * time.Millisecond)})

	count, err := r.CountFires(1)
	if err != nil {
		t.Fatalf("CountFires() = %v", err)
	}
	if count != 2 {
		t.Errorf("CountFires(1) = %d, want 2", count)
	}

	fires, err := r.Fires(1, time.Time{})
	if err != nil {
		t.Fatalf("Fires() = %v", err)
	}
	if len(fires) != 2 {
		t.Fatalf("Fires(1) = %d records, want 2", len(fires))
	}
	if !fires[0].FiredAt.Equal(base) {
		t.Errorf("first fire at %v, want %v", fires[0].FiredAt, base)
	}

	// The since filter excludes earlier fires.
	recent, err := r.Fires(1, base.Add(200*time.Millisecond))
	if err != nil {
		t.Fatalf("Fires(since) = %v", err)
	}
	if len(recent) != 1 {
		t.Errorf("Fires(1, since) = %d records, want 1", len(recent))
	}
}

func TestRecorderInterFireIntervals(t *testing.T) {
	r := newTestRecorder(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, offset := range []time.Duration{0, 400 * time.Millisecond, 800 * time.Millisecond} {
		r.OnFire(&neuron.Neuron{ID: 1, LastFired: base.Add(offset)})
	}

	intervals, err := r.InterFireIntervals(1)
	if err != nil {
		t.Fatalf("InterFireIntervals() = %v", err)
	}
	if len(intervals) != 2 {
		t.Fatalf("intervals = %d, want 2", len(intervals))
	}
	for i, iv := range intervals {
		if iv != 400*time.Millisecond {
			t.Errorf("interval %d = %v, want 400ms", i, iv)
		}
	}

	// Fewer than two fires yields no intervals.
	if ivs, err := r.InterFireIntervals(99); err != nil || ivs != nil {
		t.Errorf("InterFireIntervals(empty) = %v, %v", ivs, err)
	}
}

func TestRecorderSignals(t *testing.T) {
	r := newTestRecorder(t)
	sent := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r.nowFunc = func() time.Time { return sent }

	r.OnSignal(engine.Signal{
		Source: &neuron.Neuron{ID: 1},
		Target: &neuron.Neuron{ID: 2},
		Weight: 0.5,
		Speed:  0.3,
		Delay:  490 * time.Millisecond,
	})

	signals, err := r.Signals(1)
	if err != nil {
		t.Fatalf("Signals() = %v", err)
	}
	if len(signals) != 1 {
		t.Fatalf("Signals(1) = %d records, want 1", len(signals))
	}
	sig := signals[0]
	if sig.TargetID != 2 || sig.Weight != 0.5 || sig.Speed != 0.3 {
		t.Errorf("signal = %+v", sig)
	}
	if sig.Delay != 490*time.Millisecond {
		t.Errorf("Delay = %v, want 490ms", sig.Delay)
	}
	if !sig.SentAt.Equal(sent) {
		t.Errorf("SentAt = %v, want %v", sig.SentAt, sent)
	}
}

func TestRecorderCapturesLiveEngine(t *testing.T) {
	r := newTestRecorder(t)

	ms := sched.NewManualScheduler(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), 0)
	eng := engine.New(neuron.NewStore(), ms, engine.Config{})
	defer eng.Dispose()
	eng.SetListener(r)

	n := eng.CreateNeuron(neuron.Neuron{DCInput: 1.0})
	eng.Start()
	ms.Advance(1 * time.Second)

	count, err := r.CountFires(n.ID)
	if err != nil {
		t.Fatalf("CountFires() = %v", err)
	}
	if count < 2 {
		t.Errorf("recorded %d fires over 1s of full drive, want >= 2", count)
	}

	intervals, err := r.InterFireIntervals(n.ID)
	if err != nil {
		t.Fatalf("InterFireIntervals() = %v", err)
	}
	for i, iv := range intervals {
		if iv < 200*time.Millisecond {
			t.Errorf("interval %d = %v, want >= 200ms pulse+refractory spacing", i, iv)
		}
	}
}

package sched

import (
	"testing"
	"time"
)

var testEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManualScheduleFiresAtDueTime(t *testing.T) {
	s := NewManualScheduler(testEpoch, 0)

	var firedAt time.Time
	s.Schedule("g", 100*time.Millisecond, func() {
		firedAt = s.Now()
	})

	s.Advance(99 * time.Millisecond)
	if !firedAt.IsZero() {
		t.Fatal("callback ran before its due time")
	}

	s.Advance(1 * time.Millisecond)
	if got := firedAt.Sub(testEpoch); got != 100*time.Millisecond {
		t.Errorf("fired at +%v, want +100ms", got)
	}
}

func TestManualAdvanceDispatchesInDueOrder(t *testing.T) {
	s := NewManualScheduler(testEpoch, 0)

	var order []string
	s.Schedule("g", 30*time.Millisecond, func() { order = append(order, "c") })
	s.Schedule("g", 10*time.Millisecond, func() { order = append(order, "a") })
	s.Schedule("g", 20*time.Millisecond, func() { order = append(order, "b") })

	s.Advance(50 * time.Millisecond)

	want := []string{"a", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("dispatched %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("dispatched %v, want %v", order, want)
		}
	}
}

func TestManualTiesBreakByRegistration(t *testing.T) {
	s := NewManualScheduler(testEpoch, 0)

	var order []string
	s.Schedule("g", 10*time.Millisecond, func() { order = append(order, "first") })
	s.Schedule("g", 10*time.Millisecond, func() { order = append(order, "second") })

	s.Advance(10 * time.Millisecond)
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("tie order = %v", order)
	}
}

func TestManualCancel(t *testing.T) {
	s := NewManualScheduler(testEpoch, 0)

	ran := false
	tok := s.Schedule("g", 10*time.Millisecond, func() { ran = true })

	if !s.Cancel("g", tok) {
		t.Fatal("Cancel() = false for pending token")
	}
	if s.Cancel("g", tok) {
		t.Error("second Cancel() = true")
	}

	s.Advance(time.Second)
	if ran {
		t.Error("cancelled callback still ran")
	}
}

func TestManualRepeat(t *testing.T) {
	s := NewManualScheduler(testEpoch, 0)

	count := 0
	tok := s.Repeat("g", 100*time.Millisecond, func() { count++ })

	s.Advance(350 * time.Millisecond)
	if count != 3 {
		t.Errorf("repeat ran %d times in 350ms, want 3", count)
	}

	s.CancelRepeat("g", tok)
	s.Advance(time.Second)
	if count != 3 {
		t.Errorf("repeat ran after CancelRepeat: %d", count)
	}
}

func TestManualFrameDeltas(t *testing.T) {
	s := NewManualScheduler(testEpoch, 16*time.Millisecond)

	var deltas []time.Duration
	s.DriveFrame("g", func(delta time.Duration) bool {
		deltas = append(deltas, delta)
		return true
	})

	s.Advance(48 * time.Millisecond)
	if len(deltas) != 3 {
		t.Fatalf("got %d frames in 48ms, want 3", len(deltas))
	}
	for i, d := range deltas {
		if d != 16*time.Millisecond {
			t.Errorf("frame %d delta = %v, want 16ms", i, d)
		}
	}
}

func TestManualFrameStopOnFalse(t *testing.T) {
	s := NewManualScheduler(testEpoch, 16*time.Millisecond)

	count := 0
	s.DriveFrame("g", func(delta time.Duration) bool {
		count++
		return count < 2
	})

	s.Advance(time.Second)
	if count != 2 {
		t.Errorf("frame ran %d times, want 2 (stopped by false return)", count)
	}
}

func TestManualClearGroup(t *testing.T) {
	s := NewManualScheduler(testEpoch, 0)

	var ran []string
	s.Schedule("keep", 10*time.Millisecond, func() { ran = append(ran, "keep") })
	s.Schedule("drop", 10*time.Millisecond, func() { ran = append(ran, "drop") })
	s.Schedule("drop", 20*time.Millisecond, func() { ran = append(ran, "drop2") })

	s.ClearGroup("drop")
	s.Advance(time.Second)

	if len(ran) != 1 || ran[0] != "keep" {
		t.Errorf("ran = %v, want only the kept group", ran)
	}
}

func TestManualCallbackReentry(t *testing.T) {
	s := NewManualScheduler(testEpoch, 0)

	var secondAt time.Time
	s.Schedule("g", 10*time.Millisecond, func() {
		s.Schedule("g", 5*time.Millisecond, func() {
			secondAt = s.Now()
		})
	})

	s.Advance(20 * time.Millisecond)
	if got := secondAt.Sub(testEpoch); got != 15*time.Millisecond {
		t.Errorf("chained callback at +%v, want +15ms", got)
	}
}

func TestManualStop(t *testing.T) {
	s := NewManualScheduler(testEpoch, 0)

	ran := false
	s.Schedule("g", 10*time.Millisecond, func() { ran = true })
	s.Stop()
	s.Advance(time.Second)
	if ran {
		t.Error("callback ran after Stop")
	}
}

package sched

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerScheduleRuns(t *testing.T) {
	s := NewTimerScheduler(0, 0)
	defer s.Stop()

	done := make(chan struct{})
	s.Schedule("g", 5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled callback never ran")
	}
}

func TestTimerCancelPreventsRun(t *testing.T) {
	s := NewTimerScheduler(0, 0)
	defer s.Stop()

	var ran atomic.Bool
	tok := s.Schedule("g", 50*time.Millisecond, func() { ran.Store(true) })

	if !s.Cancel("g", tok) {
		t.Fatal("Cancel() = false for pending token")
	}
	time.Sleep(100 * time.Millisecond)
	if ran.Load() {
		t.Error("cancelled callback ran")
	}
	if s.Cancel("g", tok) {
		t.Error("second Cancel() = true")
	}
}

func TestTimerRepeatTicks(t *testing.T) {
	s := NewTimerScheduler(0, 0)
	defer s.Stop()

	var count atomic.Int32
	tok := s.Repeat("g", 10*time.Millisecond, func() { count.Add(1) })

	deadline := time.Now().Add(2 * time.Second)
	for count.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if count.Load() < 3 {
		t.Fatalf("repeat ticked %d times, want >= 3", count.Load())
	}

	s.CancelRepeat("g", tok)
	settled := count.Load()
	time.Sleep(50 * time.Millisecond)
	// One in-flight tick may land after cancellation.
	if count.Load() > settled+1 {
		t.Errorf("repeat kept ticking after cancel: %d -> %d", settled, count.Load())
	}
}

func TestTimerDriveFrameDeltas(t *testing.T) {
	s := NewTimerScheduler(5*time.Millisecond, 0)
	defer s.Stop()

	type frame struct{ delta time.Duration }
	frames := make(chan frame, 16)
	s.DriveFrame("g", func(delta time.Duration) bool {
		select {
		case frames <- frame{delta}:
		default:
		}
		return true
	})

	for i := 0; i < 3; i++ {
		select {
		case f := <-frames:
			if f.delta <= 0 {
				t.Errorf("frame %d delta = %v, want > 0", i, f.delta)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("frame driver stalled")
		}
	}
}

func TestTimerDriveFrameStopsOnFalse(t *testing.T) {
	s := NewTimerScheduler(time.Millisecond, 0)
	defer s.Stop()

	var count atomic.Int32
	s.DriveFrame("g", func(delta time.Duration) bool {
		return count.Add(1) < 2
	})

	deadline := time.Now().Add(2 * time.Second)
	for count.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	if got := count.Load(); got != 2 {
		t.Errorf("frame ran %d times, want exactly 2", got)
	}
}

func TestTimerClearGroup(t *testing.T) {
	s := NewTimerScheduler(0, 0)
	defer s.Stop()

	var dropped atomic.Bool
	kept := make(chan struct{})
	s.Schedule("drop", 30*time.Millisecond, func() { dropped.Store(true) })
	s.Schedule("keep", 30*time.Millisecond, func() { close(kept) })

	s.ClearGroup("drop")

	select {
	case <-kept:
	case <-time.After(2 * time.Second):
		t.Fatal("kept group never ran")
	}
	if dropped.Load() {
		t.Error("cleared group callback ran")
	}
}

func TestTimerStopIsTerminal(t *testing.T) {
	s := NewTimerScheduler(0, 0)

	var ran atomic.Bool
	s.Schedule("g", 20*time.Millisecond, func() { ran.Store(true) })
	s.Stop()

	time.Sleep(60 * time.Millisecond)
	if ran.Load() {
		t.Error("callback ran after Stop")
	}
	if tok := s.Schedule("g", time.Millisecond, func() { ran.Store(true) }); tok != 0 {
		t.Errorf("Schedule after Stop returned live token %d", tok)
	}
}

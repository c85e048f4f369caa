package simulation

import (
	"math"
	"testing"
	"time"
)

// AssertFireCount asserts the named neuron fired between min and max times.
func AssertFireCount(t *testing.T, r *Runner, name string, min, max int) {
	t.Helper()
	got := len(r.Fires(name))
	if got < min || got > max {
		t.Errorf("AssertFireCount: neuron %q fired %d times, want [%d, %d]", name, got, min, max)
	}
}

// AssertNoFires asserts the named neuron never fired.
func AssertNoFires(t *testing.T, r *Runner, name string) {
	t.Helper()
	if fires := r.Fires(name); len(fires) != 0 {
		t.Errorf("AssertNoFires: neuron %q fired %d times, first at %v", name, len(fires), fires[0].At)
	}
}

// AssertMinFireSpacing asserts consecutive firings of the named neuron are
// separated by at least min of virtual time.
func AssertMinFireSpacing(t *testing.T, r *Runner, name string, min time.Duration) {
	t.Helper()
	fires := r.Fires(name)
	for i := 1; i < len(fires); i++ {
		gap := fires[i].At.Sub(fires[i-1].At)
		if gap < min {
			t.Errorf("AssertMinFireSpacing: neuron %q fires %d and %d only %v apart, want >= %v", name, i-1, i, gap, min)
		}
	}
}

// AssertFiredWithin asserts the named neuron's first firing landed inside
// [earliest, latest] measured from the scenario epoch.
func AssertFiredWithin(t *testing.T, r *Runner, name string, earliest, latest time.Duration) {
	t.Helper()
	fires := r.Fires(name)
	if len(fires) == 0 {
		t.Errorf("AssertFiredWithin: neuron %q never fired", name)
		return
	}
	offset := fires[0].At.Sub(epoch)
	if offset < earliest || offset > latest {
		t.Errorf("AssertFiredWithin: neuron %q first fired at +%v, want [%v, %v]", name, offset, earliest, latest)
	}
}

// AssertSignalCount asserts the edge carried exactly want signals.
func AssertSignalCount(t *testing.T, r *Runner, source, target string, want int) {
	t.Helper()
	if got := len(r.Signals(source, target)); got != want {
		t.Errorf("AssertSignalCount: edge %s->%s carried %d signals, want %d", source, target, got, want)
	}
}

// AssertChargeNear asserts the named neuron's current charge is within eps
// of want.
func AssertChargeNear(t *testing.T, r *Runner, name string, want, eps float64) {
	t.Helper()
	got := r.State(name).CurrentCharge
	if math.Abs(got-want) > eps {
		t.Errorf("AssertChargeNear: neuron %q charge %.6f, want %.4f ± %.4f", name, got, want, eps)
	}
}

// AssertFireOrder asserts the first firings of the named neurons happened in
// the given order.
func AssertFireOrder(t *testing.T, r *Runner, names ...string) {
	t.Helper()
	var prev time.Time
	for i, name := range names {
		fires := r.Fires(name)
		if len(fires) == 0 {
			t.Errorf("AssertFireOrder: neuron %q never fired", name)
			return
		}
		if i > 0 && !fires[0].At.After(prev) {
			t.Errorf("AssertFireOrder: neuron %q fired at %v, not after %q at %v", name, fires[0].At, names[i-1], prev)
		}
		prev = fires[0].At
	}
}

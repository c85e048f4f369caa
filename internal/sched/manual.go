package sched

import (
	"sync"
	"time"
)

// manualEntry is one registered callback in the ManualScheduler.
type manualEntry struct {
	seq       uint64
	group     string
	token     Token
	kind      entryKind
	due       time.Time
	interval  time.Duration
	fn        func()
	frameFn   FrameFunc
	lastFrame time.Time
}

// ManualScheduler is a deterministic Scheduler for tests. Time only moves
// when Advance is called; due callbacks are dispatched in virtual-time order
// (ties broken by registration order) on the calling goroutine. Callbacks may
// re-enter the scheduler to register or cancel work.
type ManualScheduler struct {
	mu            sync.Mutex
	now           time.Time
	entries       map[Token]*manualEntry
	nextToken     Token
	nextSeq       uint64
	frameInterval time.Duration
}

// NewManualScheduler creates a manual scheduler whose virtual clock starts
// at start and whose frame driver ticks every frameInterval of virtual time.
func NewManualScheduler(start time.Time, frameInterval time.Duration) *ManualScheduler {
	if frameInterval <= 0 {
		frameInterval = 16 * time.Millisecond
	}
	return &ManualScheduler{
		now:           start,
		entries:       make(map[Token]*manualEntry),
		frameInterval: frameInterval,
	}
}

// Schedule runs fn once after delay of virtual time.
func (s *ManualScheduler) Schedule(group string, delay time.Duration, fn func()) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(&manualEntry{
		group: group,
		kind:  kindOneShot,
		due:   s.now.Add(delay),
		fn:    fn,
	})
}

// Cancel removes a pending callback.
func (s *ManualScheduler) Cancel(group string, token Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[token]
	if !ok || entry.group != group {
		return false
	}
	delete(s.entries, token)
	return true
}

// Repeat runs fn every interval of virtual time.
func (s *ManualScheduler) Repeat(group string, interval time.Duration, fn func()) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(&manualEntry{
		group:    group,
		kind:     kindRepeat,
		due:      s.now.Add(interval),
		interval: interval,
		fn:       fn,
	})
}

// CancelRepeat removes a periodic callback.
func (s *ManualScheduler) CancelRepeat(group string, token Token) bool {
	return s.Cancel(group, token)
}

// DriveFrame invokes fn every virtual frame interval. Each invocation
// receives exactly the virtual time elapsed since its previous one.
func (s *ManualScheduler) DriveFrame(group string, fn FrameFunc) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(&manualEntry{
		group:     group,
		kind:      kindFrame,
		due:       s.now.Add(s.frameInterval),
		interval:  s.frameInterval,
		frameFn:   fn,
		lastFrame: s.now,
	})
}

// ClearGroup removes every callback registered under group.
func (s *ManualScheduler) ClearGroup(group string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, entry := range s.entries {
		if entry.group == group {
			delete(s.entries, token)
		}
	}
}

// Now returns the current virtual time.
func (s *ManualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Stop removes every registered callback.
func (s *ManualScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[Token]*manualEntry)
}

// Advance moves virtual time forward by d, dispatching every callback that
// comes due, in due-time order. Callbacks scheduled during dispatch are
// themselves dispatched if they fall within the window.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)

	for {
		next := s.earliestLocked(target)
		if next == nil {
			break
		}
		s.now = next.due

		switch next.kind {
		case kindOneShot:
			delete(s.entries, next.token)
			fn := next.fn
			s.mu.Unlock()
			fn()
			s.mu.Lock()

		case kindRepeat:
			next.due = next.due.Add(next.interval)
			fn := next.fn
			s.mu.Unlock()
			fn()
			s.mu.Lock()

		case kindFrame:
			delta := next.due.Sub(next.lastFrame)
			next.lastFrame = next.due
			next.due = next.due.Add(next.interval)
			fn := next.frameFn
			s.mu.Unlock()
			keep := fn(delta)
			s.mu.Lock()
			if !keep {
				delete(s.entries, next.token)
			}
		}
	}

	s.now = target
	s.mu.Unlock()
}

// earliestLocked returns the entry with the earliest due time not after
// target, ties broken by registration order, or nil when nothing is due.
func (s *ManualScheduler) earliestLocked(target time.Time) *manualEntry {
	var best *manualEntry
	for _, entry := range s.entries {
		if entry.due.After(target) {
			continue
		}
		if best == nil || entry.due.Before(best.due) ||
			(entry.due.Equal(best.due) && entry.seq < best.seq) {
			best = entry
		}
	}
	return best
}

func (s *ManualScheduler) addLocked(entry *manualEntry) Token {
	s.nextToken++
	s.nextSeq++
	entry.token = s.nextToken
	entry.seq = s.nextSeq
	s.entries[entry.token] = entry
	return entry.token
}

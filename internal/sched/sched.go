// Package sched provides the group-scoped scheduling facility underlying the
// simulation: one-shot delays, periodic intervals, and frame-driven callbacks,
// with bulk cancellation by group.
//
// Groups exist so that removing a simulation entity can cancel every pending
// callback that references it in one call (ClearGroup), guaranteeing no
// orphaned callback touches freed state. After host suspension the facility
// resumes forward from "now" rather than replaying missed intervals; frame
// callbacks receive the elapsed wall-clock delta, clamped to a maximum, so a
// long gap becomes one large tick instead of many replayed small ones.
package sched

import (
	"sync"
	"time"

	"github.com/nvandessel/pulse/internal/constants"
)

// Token identifies a scheduled callback within its group.
type Token uint64

// FrameFunc is invoked once per frame with the elapsed time since its
// previous invocation. Returning false stops the frame driver.
type FrameFunc func(delta time.Duration) bool

// Scheduler is the scheduling contract the engine depends on. Production
// code uses TimerScheduler; tests inject a ManualScheduler with a virtual
// clock.
type Scheduler interface {
	// Schedule runs fn once after delay, registered under group.
	Schedule(group string, delay time.Duration, fn func()) Token

	// Cancel stops a pending one-shot. Returns false if the token is no
	// longer registered (already fired or cancelled).
	Cancel(group string, token Token) bool

	// Repeat runs fn every interval until cancelled.
	Repeat(group string, interval time.Duration, fn func()) Token

	// CancelRepeat stops a periodic callback.
	CancelRepeat(group string, token Token) bool

	// DriveFrame invokes fn every display frame until it returns false or
	// is cancelled via Cancel/ClearGroup.
	DriveFrame(group string, fn FrameFunc) Token

	// ClearGroup cancels everything registered under group.
	ClearGroup(group string)

	// Now returns the scheduler's notion of the current time.
	Now() time.Time

	// Stop cancels every registered callback in every group.
	Stop()
}

// entryKind distinguishes the three callback flavors in the registry.
type entryKind int

const (
	kindOneShot entryKind = iota
	kindRepeat
	kindFrame
)

type timerEntry struct {
	kind  entryKind
	timer *time.Timer   // one-shot
	done  chan struct{} // repeat, frame
}

// TimerScheduler is the production Scheduler built on time.AfterFunc and
// time.Ticker. Callbacks run on timer goroutines; callers that need mutual
// exclusion (the engine does) must take their own lock inside the callback.
type TimerScheduler struct {
	mu            sync.Mutex
	groups        map[string]map[Token]*timerEntry
	nextToken     Token
	frameInterval time.Duration
	maxFrameDelta time.Duration
	stopped       bool
}

// NewTimerScheduler creates a scheduler whose frame driver ticks at
// frameInterval and clamps per-frame deltas to maxFrameDelta. Zero values
// take the documented defaults.
func NewTimerScheduler(frameInterval, maxFrameDelta time.Duration) *TimerScheduler {
	if frameInterval <= 0 {
		frameInterval = constants.DefaultTickInterval
	}
	if maxFrameDelta <= 0 {
		maxFrameDelta = constants.MaxTickDelta
	}
	return &TimerScheduler{
		groups:        make(map[string]map[Token]*timerEntry),
		frameInterval: frameInterval,
		maxFrameDelta: maxFrameDelta,
	}
}

// Schedule runs fn once after delay.
func (s *TimerScheduler) Schedule(group string, delay time.Duration, fn func()) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0
	}

	token := s.allocTokenLocked()
	entry := &timerEntry{kind: kindOneShot}
	entry.timer = time.AfterFunc(delay, func() {
		// Deregister before running so the callback can reschedule
		// under the same group without colliding with itself.
		if !s.remove(group, token) {
			return // cancelled after the timer fired but before we ran
		}
		fn()
	})
	s.registerLocked(group, token, entry)
	return token
}

// Cancel stops a pending one-shot or frame driver.
func (s *TimerScheduler) Cancel(group string, token Token) bool {
	s.mu.Lock()
	entry := s.takeLocked(group, token)
	s.mu.Unlock()
	if entry == nil {
		return false
	}
	stopEntry(entry)
	return true
}

// Repeat runs fn every interval until cancelled.
func (s *TimerScheduler) Repeat(group string, interval time.Duration, fn func()) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0
	}

	token := s.allocTokenLocked()
	entry := &timerEntry{kind: kindRepeat, done: make(chan struct{})}
	s.registerLocked(group, token, entry)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-entry.done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return token
}

// CancelRepeat stops a periodic callback.
func (s *TimerScheduler) CancelRepeat(group string, token Token) bool {
	return s.Cancel(group, token)
}

// DriveFrame invokes fn every frame with the clamped wall-clock delta since
// the previous invocation.
func (s *TimerScheduler) DriveFrame(group string, fn FrameFunc) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0
	}

	token := s.allocTokenLocked()
	entry := &timerEntry{kind: kindFrame, done: make(chan struct{})}
	s.registerLocked(group, token, entry)

	go func() {
		ticker := time.NewTicker(s.frameInterval)
		defer ticker.Stop()
		last := time.Now()
		for {
			select {
			case <-entry.done:
				return
			case now := <-ticker.C:
				delta := now.Sub(last)
				last = now
				if delta < 0 {
					delta = 0
				}
				if delta > s.maxFrameDelta {
					delta = s.maxFrameDelta
				}
				if !fn(delta) {
					s.Cancel(group, token)
					return
				}
			}
		}
	}()
	return token
}

// ClearGroup cancels everything registered under group.
func (s *TimerScheduler) ClearGroup(group string) {
	s.mu.Lock()
	entries := s.groups[group]
	delete(s.groups, group)
	s.mu.Unlock()

	for _, entry := range entries {
		stopEntry(entry)
	}
}

// Now returns the current wall-clock time.
func (s *TimerScheduler) Now() time.Time {
	return time.Now()
}

// Stop cancels every registered callback and rejects new registrations.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	groups := s.groups
	s.groups = make(map[string]map[Token]*timerEntry)
	s.stopped = true
	s.mu.Unlock()

	for _, entries := range groups {
		for _, entry := range entries {
			stopEntry(entry)
		}
	}
}

func (s *TimerScheduler) allocTokenLocked() Token {
	s.nextToken++
	return s.nextToken
}

func (s *TimerScheduler) registerLocked(group string, token Token, entry *timerEntry) {
	entries, ok := s.groups[group]
	if !ok {
		entries = make(map[Token]*timerEntry)
		s.groups[group] = entries
	}
	entries[token] = entry
}

// takeLocked removes and returns the entry for (group, token), or nil.
func (s *TimerScheduler) takeLocked(group string, token Token) *timerEntry {
	entries, ok := s.groups[group]
	if !ok {
		return nil
	}
	entry, ok := entries[token]
	if !ok {
		return nil
	}
	delete(entries, token)
	if len(entries) == 0 {
		delete(s.groups, group)
	}
	return entry
}

// remove deregisters (group, token), reporting whether it was present.
func (s *TimerScheduler) remove(group string, token Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.takeLocked(group, token) != nil
}

func stopEntry(entry *timerEntry) {
	switch entry.kind {
	case kindOneShot:
		entry.timer.Stop()
	case kindRepeat, kindFrame:
		close(entry.done)
	}
}

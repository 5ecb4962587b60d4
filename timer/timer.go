// Package timer implements a single-shot resettable countdown whose
// remaining time can be recomputed by any reader from a {start, duration}
// snapshot instead of being pushed by the timer.
package timer

import (
	"sync"
	"time"
)

// State is the observable snapshot of a running countdown. Readers
// compute time left as Duration - (now - StartTime).
type State struct {
	StartTime time.Time
	Duration  time.Duration
}

// Left returns the remaining time at the given instant. It can be
// negative once the deadline has passed.
func (s State) Left(now time.Time) time.Duration {
	return s.Duration - now.Sub(s.StartTime)
}

// Timer is either idle or running. All operations are total: starting a
// running timer stops the previous run, stopping an idle timer does
// nothing.
type Timer struct {
	mu        sync.Mutex
	scheduler Scheduler
	gen       uint64
	state     *State
	cancel    func()
}

// New returns an idle timer. A nil scheduler means the system clock.
func New(scheduler Scheduler) *Timer {
	if scheduler == nil {
		scheduler = systemScheduler{}
	}
	return &Timer{scheduler: scheduler}
}

// Start arms the countdown for d and schedules onExpire to run exactly
// once. The timer transitions to idle before onExpire is invoked, so the
// callback may call Start again.
func (t *Timer) Start(d time.Duration, onExpire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	gen := t.gen
	t.state = &State{StartTime: t.scheduler.Now(), Duration: d}
	t.cancel = t.scheduler.Schedule(d, func() { t.expire(gen, onExpire) })
}

// Stop cancels a pending expiry, if any.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Timer) stopLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	// A fire that already slipped past cancellation finds a stale gen
	// and drops itself.
	t.gen++
	t.state = nil
}

func (t *Timer) expire(gen uint64, onExpire func()) {
	t.mu.Lock()
	if gen != t.gen || t.state == nil {
		t.mu.Unlock()
		return
	}
	t.state = nil
	t.cancel = nil
	t.mu.Unlock()

	onExpire()
}

// Snapshot returns nil when idle, else a copy of the running state.
func (t *Timer) Snapshot() *State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == nil {
		return nil
	}
	state := *t.state
	return &state
}

// IsRunning reports whether a deadline is pending.
func (t *Timer) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state != nil
}

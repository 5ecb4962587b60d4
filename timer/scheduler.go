package timer

import "time"

// Scheduler abstracts the clock and one-shot scheduling so the timer can
// be driven by real wall-clock time or by a manual clock in tests.
type Scheduler interface {
	Now() time.Time
	// Schedule runs fn on its own goroutine after delay and returns a
	// cancel capability. Cancelling after the fire started is a no-op.
	Schedule(delay time.Duration, fn func()) (cancel func())
}

type systemScheduler struct{}

func (systemScheduler) Now() time.Time { return time.Now() }

func (systemScheduler) Schedule(delay time.Duration, fn func()) func() {
	t := time.AfterFunc(delay, fn)
	return func() { t.Stop() }
}

// SystemScheduler returns the wall-clock scheduler backed by time.AfterFunc.
func SystemScheduler() Scheduler { return systemScheduler{} }

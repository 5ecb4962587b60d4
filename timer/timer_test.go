package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualJob struct {
	delay    time.Duration
	fn       func()
	canceled bool
}

// manualScheduler records scheduled jobs; tests fire them explicitly.
type manualScheduler struct {
	now  time.Time
	jobs []*manualJob
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{now: time.Unix(1700000000, 0)}
}

func (s *manualScheduler) Now() time.Time { return s.now }

func (s *manualScheduler) Schedule(delay time.Duration, fn func()) func() {
	job := &manualJob{delay: delay, fn: fn}
	s.jobs = append(s.jobs, job)
	return func() { job.canceled = true }
}

// fireLast runs the most recently scheduled job even if it was canceled,
// imitating a fire that raced the cancellation.
func (s *manualScheduler) fireLast() {
	s.jobs[len(s.jobs)-1].fn()
}

func (s *manualScheduler) lastJob() *manualJob { return s.jobs[len(s.jobs)-1] }

func TestTimer_StartExposesSnapshot(t *testing.T) {
	s := newManualScheduler()
	tm := New(s)

	assert.Nil(t, tm.Snapshot())
	assert.False(t, tm.IsRunning())

	tm.Start(time.Minute, func() {})

	state := tm.Snapshot()
	require.NotNil(t, state)
	assert.Equal(t, s.now, state.StartTime)
	assert.Equal(t, time.Minute, state.Duration)
	assert.True(t, tm.IsRunning())

	assert.Equal(t, 40*time.Second, state.Left(s.now.Add(20*time.Second)))
}

func TestTimer_ExpiryGoesIdleBeforeCallback(t *testing.T) {
	s := newManualScheduler()
	tm := New(s)

	var observed bool
	tm.Start(time.Second, func() {
		observed = tm.IsRunning()
	})

	s.fireLast()

	assert.False(t, observed, "timer must be idle inside the expiry callback")
	assert.Nil(t, tm.Snapshot())
}

func TestTimer_CallbackMayRestart(t *testing.T) {
	s := newManualScheduler()
	tm := New(s)

	tm.Start(time.Second, func() {
		tm.Start(2*time.Second, func() {})
	})
	s.fireLast()

	state := tm.Snapshot()
	require.NotNil(t, state)
	assert.Equal(t, 2*time.Second, state.Duration)
}

func TestTimer_StopIsIdempotent(t *testing.T) {
	s := newManualScheduler()
	tm := New(s)

	tm.Stop()
	assert.Nil(t, tm.Snapshot())

	fired := false
	tm.Start(time.Second, func() { fired = true })
	tm.Stop()
	tm.Stop()

	assert.True(t, s.lastJob().canceled)
	assert.False(t, fired)
	assert.Nil(t, tm.Snapshot())
}

func TestTimer_StaleFireAfterStopIsDropped(t *testing.T) {
	s := newManualScheduler()
	tm := New(s)

	fired := false
	tm.Start(time.Second, func() { fired = true })
	tm.Stop()

	s.fireLast()

	assert.False(t, fired)
}

func TestTimer_RestartReplacesPreviousRun(t *testing.T) {
	s := newManualScheduler()
	tm := New(s)

	var first, second bool
	tm.Start(time.Second, func() { first = true })
	tm.Start(time.Minute, func() { second = true })

	require.Len(t, s.jobs, 2)
	assert.True(t, s.jobs[0].canceled)

	// the superseded run firing anyway must be a no-op
	s.jobs[0].fn()
	assert.False(t, first)

	s.jobs[1].fn()
	assert.True(t, second)

	state := tm.Snapshot()
	assert.Nil(t, state)
}

func TestTimer_FireIsExactlyOnce(t *testing.T) {
	s := newManualScheduler()
	tm := New(s)

	fires := 0
	tm.Start(time.Second, func() { fires++ })

	s.fireLast()
	s.fireLast()

	assert.Equal(t, 1, fires)
}

package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(ticks chan time.Time) *Service {
	source := &stubSource{}
	source.set(func(context.Context) (*Answer, error) { return answerX(), nil })

	opts := ServiceOptions{
		RoomOptions: Options{Rand: fixedRand{}, Scheduler: newFakeScheduler()},
	}
	if ticks != nil {
		opts.NewTicker = func(time.Duration) (<-chan time.Time, func()) {
			return ticks, func() {}
		}
	}
	return NewService(source, opts)
}

func TestService_CreateAndResolve(t *testing.T) {
	service := newTestService(nil)

	room := service.CreateRoom()
	require.NotEmpty(t, room.ID())

	resolved, ok := service.Room(room.ID())
	require.True(t, ok)
	assert.Same(t, room, resolved)

	_, ok = service.Room("missing")
	assert.False(t, ok)

	other := service.CreateRoom()
	assert.NotEqual(t, room.ID(), other.ID())
}

func TestService_SweepDeletesAfterThreeEmptyChecks(t *testing.T) {
	service := newTestService(nil)
	room := service.CreateRoom()

	var joins int
	room.On(EventUserJoined, func(any) { joins++ })

	service.sweep()
	service.sweep()
	if _, ok := service.Room(room.ID()); !ok {
		t.Fatal("room reclaimed too early")
	}

	service.sweep()
	_, ok := service.Room(room.ID())
	assert.False(t, ok)

	// reclamation unsubscribed everything
	room.Join(User{ID: "a", Login: "Alice"})
	assert.Zero(t, joins)
}

func TestService_OccupiedRoomResetsTheCounter(t *testing.T) {
	service := newTestService(nil)
	room := service.CreateRoom()

	service.sweep()
	service.sweep()

	room.Join(User{ID: "a", Login: "Alice"})
	service.sweep() // occupied, counter resets
	room.Leave("a")

	service.sweep()
	service.sweep()
	if _, ok := service.Room(room.ID()); !ok {
		t.Fatal("consecutive-empty counter was not reset")
	}

	service.sweep()
	_, ok := service.Room(room.ID())
	assert.False(t, ok)
}

func TestService_RunSweeperConsumesTicks(t *testing.T) {
	ticks := make(chan time.Time)
	service := newTestService(ticks)
	room := service.CreateRoom()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go service.RunSweeper(ctx)

	for i := 0; i < emptyChecksBeforeDelete; i++ {
		select {
		case ticks <- time.Now():
		case <-time.After(2 * time.Second):
			t.Fatal("sweeper is not consuming ticks")
		}
	}

	require.Eventually(t, func() bool {
		_, ok := service.Room(room.ID())
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

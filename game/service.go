package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

const (
	defaultSweepInterval = 10 * time.Minute

	// a room empty for this many consecutive sweeps is reclaimed
	emptyChecksBeforeDelete = 3
)

// TickerFactory produces a periodic tick channel and its stop function.
// Injected so tests can drive the sweeper by hand.
type TickerFactory func(interval time.Duration) (<-chan time.Time, func())

func systemTicker(interval time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(interval)
	return t.C, t.Stop
}

// Service is the room directory: it creates rooms, resolves ids and
// reclaims rooms that stay empty.
type Service struct {
	mu          deadlock.RWMutex
	rooms       map[string]*Room
	emptyChecks map[string]int

	answers       AnswerSource
	roomOpts      Options
	sweepInterval time.Duration
	newTicker     TickerFactory
}

// ServiceOptions tune the directory. Zero values fall back to defaults.
type ServiceOptions struct {
	RoomOptions   Options
	SweepInterval time.Duration
	NewTicker     TickerFactory
}

func NewService(answers AnswerSource, opts ServiceOptions) *Service {
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaultSweepInterval
	}
	if opts.NewTicker == nil {
		opts.NewTicker = systemTicker
	}
	return &Service{
		rooms:         make(map[string]*Room),
		emptyChecks:   make(map[string]int),
		answers:       answers,
		roomOpts:      opts.RoomOptions,
		sweepInterval: opts.SweepInterval,
		newTicker:     opts.NewTicker,
	}
}

// CreateRoom registers a fresh empty room under a new id.
func (s *Service) CreateRoom() *Room {
	room := NewRoom(uuid.NewString(), s.answers, s.roomOpts)

	s.mu.Lock()
	s.rooms[room.ID()] = room
	s.emptyChecks[room.ID()] = 0
	s.mu.Unlock()

	log.Debug().Str("room", room.ID()).Msg("room created")
	return room
}

// Room resolves a room by id.
func (s *Service) Room(id string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	return room, ok
}

// RunSweeper periodically reclaims idle rooms until ctx is done.
func (s *Service) RunSweeper(ctx context.Context) {
	ticks, stop := s.newTicker(s.sweepInterval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			s.sweep()
		}
	}
}

func (s *Service) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, room := range s.rooms {
		if !room.IsEmpty() {
			s.emptyChecks[id] = 0
			continue
		}
		s.emptyChecks[id]++
		if s.emptyChecks[id] < emptyChecksBeforeDelete {
			continue
		}
		room.Destroy()
		delete(s.rooms, id)
		delete(s.emptyChecks, id)
		log.Debug().Str("room", id).Msg("idle room reclaimed")
	}
}

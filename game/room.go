package game

import (
	"context"
	"sort"
	"time"

	"github.com/sasha-s/go-deadlock"

	"github.com/qwe3qwe3lott/Qwerty-crocodile-back/emitter"
	"github.com/qwe3qwe3lott/Qwerty-crocodile-back/timer"
)

const (
	CanvasWidth  = 100
	CanvasHeight = 141
	MaxUsers     = 16

	defaultRoundDuration   = 120 * time.Second
	defaultTimeoutDuration = 5 * time.Second

	answerFetchTimeout = 10 * time.Second
)

// Options tune a room. Zero values fall back to production defaults.
type Options struct {
	RoundDuration   time.Duration
	TimeoutDuration time.Duration
	MaxUsers        int
	Rand            Randomizer
	Scheduler       timer.Scheduler
}

func (o Options) withDefaults() Options {
	if o.RoundDuration <= 0 {
		o.RoundDuration = defaultRoundDuration
	}
	if o.TimeoutDuration <= 0 {
		o.TimeoutDuration = defaultTimeoutDuration
	}
	if o.MaxUsers <= 0 {
		o.MaxUsers = MaxUsers
	}
	if o.Rand == nil {
		o.Rand = SystemRandomizer()
	}
	return o
}

// Room is one game session: a user roster, an optional running game and
// a shared drawing surface. The transport layer serializes command
// dispatch per room; the internal mutex additionally serializes timer
// expiries and answer-fetch completions, which arrive on their own
// goroutines, against those commands.
//
// Event handlers run synchronously under the room lock and must not call
// back into the room; every payload carries the data its subscribers
// need.
type Room struct {
	mu deadlock.Mutex

	id      string
	users   map[string]User
	ownerID string
	state   RoomState
	answer  *Answer

	playersQueue []Player
	roundNumber  int

	// epoch invalidates in-flight async work: every transition bumps it,
	// timer callbacks and answer fetches re-check it under the lock and
	// drop themselves when it moved.
	epoch uint64

	events  *emitter.Emitter[RoomEvent]
	timer   *timer.Timer
	answers AnswerSource
	canvas  *canvas
	rand    Randomizer

	opts Options
}

func NewRoom(id string, answers AnswerSource, opts Options) *Room {
	opts = opts.withDefaults()
	return &Room{
		id:      id,
		users:   make(map[string]User),
		state:   StateIdle,
		events:  emitter.New[RoomEvent](),
		timer:   timer.New(opts.Scheduler),
		answers: answers,
		canvas:  newCanvas(CanvasWidth, CanvasHeight),
		rand:    opts.Rand,
		opts:    opts,
	}
}

// On subscribes to a room event and returns the unsubscribe capability.
func (r *Room) On(event RoomEvent, handler func(payload any)) func() {
	return r.events.Subscribe(event, handler)
}

// Join registers the user and assigns ownership if the room had none.
// Capacity and duplicate-id checks are the caller's responsibility.
func (r *Room) Join(user User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[user.ID] = user
	r.events.Emit(EventUserJoined, user)

	if r.ownerID == "" {
		r.ownerID = user.ID
		r.events.Emit(EventOwnerIDIsChanged, user.ID)
	}
}

// Leave removes the user if present and reassigns ownership when the
// owner left. Returns false for an unknown id. The frozen player queue
// is intentionally untouched.
func (r *Room) Leave(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return false
	}
	delete(r.users, userID)
	r.events.Emit(EventUserLeaved, user)

	if userID == r.ownerID {
		if len(r.users) == 0 {
			r.ownerID = ""
		} else {
			ids := make([]string, 0, len(r.users))
			for id := range r.users {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			r.ownerID = ids[r.rand.Intn(len(ids))]
		}
		r.events.Emit(EventOwnerIDIsChanged, r.ownerID)
	}
	return true
}

// Draw applies the batch to the canvas in order and announces it.
// Rejected unless a game is running and artistID is a known player.
func (r *Room) Draw(events []DrawEvent, artistID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRunningLocked() || r.playerIndex(artistID) < 0 {
		return false
	}
	r.applyDraw(events, artistID)
	return true
}

func (r *Room) applyDraw(events []DrawEvent, artistID string) {
	for _, event := range events {
		r.canvas.apply(event)
	}
	r.events.Emit(EventDrawEventsAreAdded, DrawEventsBatch{Events: events, ArtistID: artistID})
}

// Start begins a game. Preconditions (at least two users, not already
// running, caller is owner) are enforced by the transport layer. The
// round becomes visible only once the answer fetch resolves; on
// unavailability the room falls back to idle instead of erroring.
func (r *Room) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toRound()
}

// Stop forces an immediate return to idle from any state.
func (r *Room) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toIdle()
}

func (r *Room) toIdle() {
	r.timer.Stop()
	r.epoch++
	r.answer = nil
	r.playersQueue = nil
	r.roundNumber = 0
	r.applyDraw([]DrawEvent{{Type: DrawFill, Color: "white"}}, "")
	r.state = StateIdle
	r.emitState()
}

func (r *Room) toRound() {
	r.timer.Stop()
	r.epoch++
	epoch := r.epoch

	if r.roundNumber == 0 {
		ids := make([]string, 0, len(r.users))
		for id := range r.users {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		queue := make([]Player, 0, len(ids))
		for _, id := range ids {
			user := r.users[id]
			queue = append(queue, Player{ID: user.ID, Login: user.Login})
		}
		r.rand.Shuffle(len(queue), func(i, j int) {
			queue[i], queue[j] = queue[j], queue[i]
		})
		r.playersQueue = queue
	}
	for i := range r.playersQueue {
		r.playersQueue[i].HasRightAnswer = false
	}
	r.roundNumber++
	r.applyDraw([]DrawEvent{{Type: DrawFill, Color: "white"}}, "")

	// The state formally stays as it was until the fetch resolves;
	// callers observe the outcome through the next stateIsChanged.
	go r.completeRoundStart(epoch)
}

func (r *Room) completeRoundStart(epoch uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), answerFetchTimeout)
	defer cancel()
	answer, err := r.answers.FetchAnswer(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.epoch != epoch {
		// The room moved on while the fetch was in flight; a stale
		// answer must not clobber the newer state.
		return
	}
	if err != nil || answer == nil {
		r.toIdle()
		return
	}

	r.answer = answer
	r.state = StateRound
	r.timer.Start(r.opts.RoundDuration, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.epoch != epoch {
			return
		}
		r.toTimeout()
	})
	r.emitState()
}

func (r *Room) toTimeout() {
	r.timer.Stop()
	r.epoch++
	epoch := r.epoch

	r.state = StateTimeout
	r.timer.Start(r.opts.TimeoutDuration, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.epoch != epoch {
			return
		}
		if r.roundNumber >= len(r.playersQueue) {
			r.toIdle()
		} else {
			r.toRound()
		}
	})
	r.emitState()
}

func (r *Room) emitState() {
	snapshot := StateSnapshot{State: r.state}
	switch r.state {
	case StateRound:
		snapshot.Players = clonePlayers(r.playersQueue)
		if artist := r.artistLocked(); artist != nil {
			snapshot.ArtistID = artist.ID
		}
		snapshot.Timer = r.timer.Snapshot()
		snapshot.Answer = cloneAnswer(r.answer)
	case StateTimeout:
		snapshot.Timer = r.timer.Snapshot()
		snapshot.Answer = cloneAnswer(r.answer)
	}
	r.events.Emit(EventStateIsChanged, snapshot)
}

// ApplyAnswer scores a correct guess. It returns false when there is no
// active answer, the guess does not match case-sensitively, the caller
// is the artist or not a player of this game, or the caller already
// answered correctly this round. A correct guess by every non-artist
// player ends the round early.
func (r *Room) ApplyAnswer(guess, playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.answer == nil || guess != r.answer.Value {
		return false
	}
	if artist := r.artistLocked(); artist != nil && artist.ID == playerID {
		return false
	}
	idx := r.playerIndex(playerID)
	if idx < 0 || r.playersQueue[idx].HasRightAnswer {
		return false
	}

	r.playersQueue[idx].HasRightAnswer = true
	r.playersQueue[idx].Points++
	r.events.Emit(EventPlayersAreChanged, clonePlayers(r.playersQueue))

	correct := 0
	for _, player := range r.playersQueue {
		if player.HasRightAnswer {
			correct++
		}
	}
	if correct >= len(r.playersQueue)-1 {
		r.toTimeout()
	}
	return true
}

// Destroy cancels pending work and drops every subscription so a
// reclaimed room does not keep references into the transport layer.
func (r *Room) Destroy() {
	r.mu.Lock()
	r.timer.Stop()
	r.epoch++
	r.mu.Unlock()
	r.events.UnsubscribeAll()
}

func (r *Room) ID() string { return r.id }

func (r *Room) Users() []User {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	return users
}

func (r *Room) Players() []Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clonePlayers(r.playersQueue)
}

func (r *Room) OwnerID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ownerID
}

func (r *Room) State() RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Room) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isRunningLocked()
}

// Artist returns a copy of the player whose turn it is, or nil.
func (r *Room) Artist() *Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	if artist := r.artistLocked(); artist != nil {
		player := *artist
		return &player
	}
	return nil
}

func (r *Room) TimerState() *timer.State { return r.timer.Snapshot() }

// Answer returns the full current target; the caller must gate
// visibility to the artist while a round is running.
func (r *Room) Answer() *Answer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneAnswer(r.answer)
}

// CanvasImageData snapshots the canvas pixels for viewer catch-up.
func (r *Room) CanvasImageData() CanvasImage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.canvas.imageData()
}

func (r *Room) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users) == 0
}

func (r *Room) IsFull() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users) >= r.opts.MaxUsers
}

func (r *Room) HasUser(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[userID]
	return ok
}

func (r *Room) HasPlayer(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playerIndex(playerID) >= 0
}

func (r *Room) isRunningLocked() bool {
	return r.state == StateRound || r.state == StateTimeout
}

func (r *Room) artistLocked() *Player {
	if r.roundNumber < 1 || r.roundNumber > len(r.playersQueue) {
		return nil
	}
	return &r.playersQueue[r.roundNumber-1]
}

func (r *Room) playerIndex(playerID string) int {
	for i := range r.playersQueue {
		if r.playersQueue[i].ID == playerID {
			return i
		}
	}
	return -1
}

func clonePlayers(players []Player) []Player {
	return append([]Player(nil), players...)
}

func cloneAnswer(answer *Answer) *Answer {
	if answer == nil {
		return nil
	}
	copied := *answer
	return &copied
}

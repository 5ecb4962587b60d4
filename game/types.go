package game

import "context"

// User identifies a connected participant, regardless of game role.
type User struct {
	ID    string `json:"id"`
	Login string `json:"login"`
}

// Player is a user snapshot extended with round-scoped game state. The
// queue of players is frozen when a game starts; only Points and
// HasRightAnswer mutate afterwards.
type Player struct {
	ID             string `json:"id"`
	Login          string `json:"login"`
	Points         int    `json:"points"`
	HasRightAnswer bool   `json:"hasRightAnswer"`
}

// Answer is one round's target, supplied by the answer source.
type Answer struct {
	Label     string `json:"label"`
	PosterURL string `json:"posterUrl"`
	Value     string `json:"value"`
}

// AnswerSource asynchronously produces one answer or reports
// unavailability. Safe to call repeatedly.
type AnswerSource interface {
	FetchAnswer(ctx context.Context) (*Answer, error)
}

// RoomState is the room's lifecycle phase.
type RoomState string

const (
	StateIdle    RoomState = "idle"
	StateRound   RoomState = "round"
	StateTimeout RoomState = "timeout"
)

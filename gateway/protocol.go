package gateway

import (
	"encoding/json"

	"github.com/qwe3qwe3lott/Qwerty-crocodile-back/game"
	"github.com/qwe3qwe3lott/Qwerty-crocodile-back/timer"
)

// Client commands.
const (
	cmdCreateRoom = "createRoom"
	cmdJoinRoom   = "joinRoom"
	cmdLeaveRoom  = "leaveRoom"
	cmdStartGame  = "startGame"
	cmdStopGame   = "stopGame"
	cmdDraw       = "draw"
	cmdAnswer     = "answer"
)

// Server messages.
const (
	msgResponse   = "response"
	msgUsers      = "users"
	msgOwnerID    = "ownerId"
	msgDrawEvents = "drawEvents"
	msgPlayers    = "players"
	msgState      = "state"
)

const (
	statusOK    = "OK"
	statusError = "ERROR"
)

// envelope is the inbound frame: a command name, an optional
// client-chosen sequence number echoed back in the response, and a
// command-specific payload.
type envelope struct {
	Type    string          `json:"type"`
	Seq     int64           `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outEnvelope struct {
	Type    string `json:"type"`
	Seq     int64  `json:"seq,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

type joinRoomPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
	Login  string `json:"login"`
}

type drawPayload struct {
	Events []game.DrawEvent `json:"events"`
}

type answerPayload struct {
	Value string `json:"value"`
}

type timerPayload struct {
	StartTimeMs int64 `json:"startTimeMs"`
	DurationMs  int64 `json:"durationMs"`
}

func newTimerPayload(state *timer.State) *timerPayload {
	if state == nil {
		return nil
	}
	return &timerPayload{
		StartTimeMs: state.StartTime.UnixMilli(),
		DurationMs:  state.Duration.Milliseconds(),
	}
}

type statePayload struct {
	State    game.RoomState `json:"state"`
	Players  []game.Player  `json:"players,omitempty"`
	ArtistID string         `json:"artistId,omitempty"`
	Timer    *timerPayload  `json:"timer,omitempty"`
	Answer   *game.Answer   `json:"answer,omitempty"`
}

type drawEventsPayload struct {
	Events   []game.DrawEvent `json:"events"`
	ArtistID string           `json:"artistId"`
}

func responseOK(fields map[string]any) map[string]any {
	body := map[string]any{"_status": statusOK}
	for key, value := range fields {
		body[key] = value
	}
	return body
}

func responseError(reason string) map[string]any {
	return map[string]any{"_status": statusError, "reason": reason}
}

// statePayloadFor renders a room state snapshot for one recipient: while
// a round runs the answer is visible to the artist only; in timeout it
// is revealed to everyone.
func statePayloadFor(snapshot game.StateSnapshot, userID string) statePayload {
	payload := statePayload{
		State:    snapshot.State,
		Players:  snapshot.Players,
		ArtistID: snapshot.ArtistID,
		Timer:    newTimerPayload(snapshot.Timer),
	}
	switch snapshot.State {
	case game.StateRound:
		if userID == snapshot.ArtistID {
			payload.Answer = snapshot.Answer
		}
	case game.StateTimeout:
		payload.Answer = snapshot.Answer
	}
	return payload
}

package gateway

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/qwe3qwe3lott/Qwerty-crocodile-back/game"
)

// roomHub owns the single set of subscriptions to one room's events and
// fans them out to the room's connected clients. It mirrors the user
// roster in join order so handlers never read the room back while a
// mutation is still being applied (room event handlers run under the
// room's lock).
type roomHub struct {
	room *game.Room

	mu          sync.Mutex
	clients     map[*client]struct{}
	roster      []game.User
	unsubscribe []func()
}

func newRoomHub(room *game.Room) *roomHub {
	hub := &roomHub{
		room:    room,
		clients: make(map[*client]struct{}),
		roster:  room.Users(),
	}

	hub.unsubscribe = []func(){
		room.On(game.EventUserJoined, hub.onUserJoined),
		room.On(game.EventUserLeaved, hub.onUserLeaved),
		room.On(game.EventOwnerIDIsChanged, hub.onOwnerIDChanged),
		room.On(game.EventDrawEventsAreAdded, hub.onDrawEvents),
		room.On(game.EventPlayersAreChanged, hub.onPlayersChanged),
		room.On(game.EventStateIsChanged, hub.onStateChanged),
	}
	return hub
}

func (h *roomHub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// remove detaches the client; returns true when the hub became empty.
func (h *roomHub) remove(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	return len(h.clients) == 0
}

// release drops the hub's room subscriptions.
func (h *roomHub) release() {
	for _, unsubscribe := range h.unsubscribe {
		unsubscribe()
	}
}

func (h *roomHub) onUserJoined(payload any) {
	user := payload.(game.User)
	h.mu.Lock()
	h.roster = append(h.roster, user)
	roster := append([]game.User(nil), h.roster...)
	h.mu.Unlock()

	h.broadcast(msgUsers, roster, nil)
}

func (h *roomHub) onUserLeaved(payload any) {
	user := payload.(game.User)
	h.mu.Lock()
	for i := range h.roster {
		if h.roster[i].ID == user.ID {
			h.roster = append(h.roster[:i], h.roster[i+1:]...)
			break
		}
	}
	roster := append([]game.User(nil), h.roster...)
	h.mu.Unlock()

	h.broadcast(msgUsers, roster, nil)
}

func (h *roomHub) onOwnerIDChanged(payload any) {
	h.broadcast(msgOwnerID, payload.(string), nil)
}

func (h *roomHub) onDrawEvents(payload any) {
	batch := payload.(game.DrawEventsBatch)
	// the author already has these strokes locally
	h.broadcast(msgDrawEvents, drawEventsPayload(batch), func(c *client) bool {
		return batch.ArtistID != "" && c.userID == batch.ArtistID
	})
}

func (h *roomHub) onPlayersChanged(payload any) {
	h.broadcast(msgPlayers, payload.([]game.Player), nil)
}

func (h *roomHub) onStateChanged(payload any) {
	snapshot := payload.(game.StateSnapshot)

	// rendered per recipient: answer visibility depends on who reads it
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.enqueue(outEnvelope{Type: msgState, Payload: statePayloadFor(snapshot, c.userID)})
	}
}

// broadcast marshals once and enqueues to every client except those the
// skip predicate rejects. Slow consumers drop frames instead of blocking
// the room.
func (h *roomHub) broadcast(msgType string, payload any, skip func(*client) bool) {
	data, err := json.Marshal(outEnvelope{Type: msgType, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("message", msgType).Msg("broadcast marshal failed")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if skip != nil && skip(c) {
			continue
		}
		c.enqueueRaw(data)
	}
}

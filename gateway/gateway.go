// Package gateway is the websocket transport in front of the game core:
// it maps connections to a room/user pair, checks command preconditions
// and fans room events back out to clients. Game rules live in the game
// package; the gateway only rejects what must never reach it.
package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/text/unicode/norm"

	"github.com/qwe3qwe3lott/Qwerty-crocodile-back/game"
)

var errEmptyPayload = errors.New("empty payload")

type Gateway struct {
	service  *game.Service
	upgrader websocket.Upgrader

	mu   deadlock.Mutex
	hubs map[string]*roomHub
}

func New(service *game.Service) *Gateway {
	return &Gateway{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origins are filtered by the engine's allow-list middleware
			CheckOrigin: func(*http.Request) bool { return true },
		},
		hubs: make(map[string]*roomHub),
	}
}

// Register mounts the gateway's routes.
func (g *Gateway) Register(r *gin.Engine) {
	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })
	r.GET("/ws", g.handleWS)
}

func (g *Gateway) handleWS(ctx *gin.Context) {
	conn, err := g.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	c := newClient(g, conn)
	go c.writePump()
	c.readPump()
}

func (g *Gateway) dispatch(c *client, msg envelope) {
	switch msg.Type {
	case cmdCreateRoom:
		room := g.service.CreateRoom()
		c.respond(msg.Seq, responseOK(map[string]any{"roomId": room.ID()}))

	case cmdJoinRoom:
		g.handleJoin(c, msg)

	case cmdLeaveRoom:
		if c.hub == nil {
			c.respond(msg.Seq, responseError("not-in-room"))
			return
		}
		g.unbind(c)
		c.respond(msg.Seq, responseOK(nil))

	case cmdStartGame:
		g.handleStart(c, msg)

	case cmdStopGame:
		g.handleStop(c, msg)

	case cmdDraw:
		g.handleDraw(c, msg)

	case cmdAnswer:
		g.handleAnswer(c, msg)

	default:
		c.respond(msg.Seq, responseError("unknown-command"))
	}
}

func (g *Gateway) handleJoin(c *client, msg envelope) {
	var payload joinRoomPayload
	if err := unmarshalPayload(msg, &payload); err != nil {
		c.respond(msg.Seq, responseError("invalid-payload"))
		return
	}

	login := norm.NFC.String(strings.TrimSpace(payload.Login))
	switch {
	case c.hub != nil:
		c.respond(msg.Seq, responseError("already-in-room"))
		return
	case payload.RoomID == "" || login == "":
		c.respond(msg.Seq, responseError("invalid-payload"))
		return
	}

	room, ok := g.service.Room(payload.RoomID)
	if !ok {
		c.respond(msg.Seq, responseError("room-not-found"))
		return
	}

	userID := payload.UserID
	if userID != "" && room.HasUser(userID) {
		c.respond(msg.Seq, responseError("user-already-joined"))
		return
	}
	if room.IsFull() {
		c.respond(msg.Seq, responseError("room-full"))
		return
	}
	if userID == "" {
		userID = uuid.NewString()
	}

	c.roomID = room.ID()
	c.userID = userID
	g.bind(c, room)
	room.Join(game.User{ID: userID, Login: login})

	c.respond(msg.Seq, responseOK(map[string]any{
		"userId": userID,
		"users":  room.Users(),
	}))
	g.catchUp(c, room)
}

// catchUp brings a fresh viewer to the current game state: the state
// snapshot and a single synthetic image event with the canvas pixels.
func (g *Gateway) catchUp(c *client, room *game.Room) {
	snapshot := game.StateSnapshot{State: room.State()}
	switch snapshot.State {
	case game.StateRound:
		snapshot.Players = room.Players()
		if artist := room.Artist(); artist != nil {
			snapshot.ArtistID = artist.ID
		}
		snapshot.Timer = room.TimerState()
		snapshot.Answer = room.Answer()
	case game.StateTimeout:
		snapshot.Timer = room.TimerState()
		snapshot.Answer = room.Answer()
	}
	c.enqueue(outEnvelope{Type: msgState, Payload: statePayloadFor(snapshot, c.userID)})

	img := room.CanvasImageData()
	c.enqueue(outEnvelope{Type: msgDrawEvents, Payload: drawEventsPayload{
		Events: []game.DrawEvent{{
			Type:   game.DrawImage,
			Data:   img.Data,
			Width:  float64(img.Width),
			Height: float64(img.Height),
		}},
	}})
}

func (g *Gateway) handleStart(c *client, msg envelope) {
	room, ok := g.boundRoom(c, msg)
	if !ok {
		return
	}
	switch {
	case room.OwnerID() != c.userID:
		c.respond(msg.Seq, responseError("not-owner"))
	case len(room.Users()) < 2:
		c.respond(msg.Seq, responseError("not-enough-users"))
	case room.IsRunning():
		c.respond(msg.Seq, responseError("already-running"))
	default:
		room.Start()
		c.respond(msg.Seq, responseOK(nil))
	}
}

func (g *Gateway) handleStop(c *client, msg envelope) {
	room, ok := g.boundRoom(c, msg)
	if !ok {
		return
	}
	switch {
	case room.OwnerID() != c.userID:
		c.respond(msg.Seq, responseError("not-owner"))
	case !room.IsRunning():
		c.respond(msg.Seq, responseError("not-running"))
	default:
		room.Stop()
		c.respond(msg.Seq, responseOK(nil))
	}
}

func (g *Gateway) handleDraw(c *client, msg envelope) {
	room, ok := g.boundRoom(c, msg)
	if !ok {
		return
	}
	var payload drawPayload
	if err := unmarshalPayload(msg, &payload); err != nil || len(payload.Events) == 0 {
		c.respond(msg.Seq, responseError("invalid-payload"))
		return
	}

	artist := room.Artist()
	switch {
	case !room.IsRunning():
		c.respond(msg.Seq, responseError("not-running"))
	case artist == nil || artist.ID != c.userID:
		c.respond(msg.Seq, responseError("not-artist"))
	case !room.Draw(payload.Events, c.userID):
		c.respond(msg.Seq, responseError("rejected"))
	default:
		c.respond(msg.Seq, responseOK(nil))
	}
}

func (g *Gateway) handleAnswer(c *client, msg envelope) {
	room, ok := g.boundRoom(c, msg)
	if !ok {
		return
	}
	var payload answerPayload
	if err := unmarshalPayload(msg, &payload); err != nil {
		c.respond(msg.Seq, responseError("invalid-payload"))
		return
	}

	artist := room.Artist()
	switch {
	case !room.IsRunning():
		c.respond(msg.Seq, responseError("not-running"))
	case !room.HasPlayer(c.userID):
		c.respond(msg.Seq, responseError("not-a-player"))
	case artist != nil && artist.ID == c.userID:
		c.respond(msg.Seq, responseError("artist-cannot-guess"))
	default:
		correct := room.ApplyAnswer(payload.Value, c.userID)
		c.respond(msg.Seq, responseOK(map[string]any{"correct": correct}))
	}
}

func (g *Gateway) boundRoom(c *client, msg envelope) (*game.Room, bool) {
	if c.hub == nil {
		c.respond(msg.Seq, responseError("not-in-room"))
		return nil, false
	}
	return c.hub.room, true
}

// bind attaches the client to the room's hub, creating the hub and its
// room subscriptions on first use.
func (g *Gateway) bind(c *client, room *game.Room) {
	g.mu.Lock()
	hub, ok := g.hubs[room.ID()]
	if !ok {
		hub = newRoomHub(room)
		g.hubs[room.ID()] = hub
	}
	hub.add(c)
	g.mu.Unlock()

	c.hub = hub
}

// unbind detaches the client, leaves the room on its behalf and releases
// the hub once its last client is gone.
func (g *Gateway) unbind(c *client) {
	hub := c.hub
	if hub == nil {
		return
	}

	g.mu.Lock()
	empty := hub.remove(c)
	if empty {
		delete(g.hubs, c.roomID)
	}
	g.mu.Unlock()

	hub.room.Leave(c.userID)
	if empty {
		hub.release()
	}

	c.hub = nil
	c.roomID = ""
	c.userID = ""
}

func unmarshalPayload(msg envelope, target any) error {
	if len(msg.Payload) == 0 {
		return errEmptyPayload
	}
	return json.Unmarshal(msg.Payload, target)
}

package gateway

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = time.Minute
	pingPeriod     = 50 * time.Second
	maxMessageSize = 256 * 1024 // image catch-up frames are the largest

	sendBufferSize = 256
)

// client is one websocket connection. roomID and userID are owned by the
// read goroutine; other goroutines observe userID only through the hub,
// which synchronizes on membership.
type client struct {
	gateway *Gateway
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	roomID string
	userID string
	hub    *roomHub
}

func newClient(g *Gateway, conn *websocket.Conn) *client {
	return &client{
		gateway: g,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		limiter: rate.NewLimiter(rate.Limit(25), 50),
	}
}

// enqueue marshals and queues one frame for this client.
func (c *client) enqueue(msg outEnvelope) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("message", msg.Type).Msg("enqueue marshal failed")
		return
	}
	c.enqueueRaw(data)
}

func (c *client) enqueueRaw(data []byte) {
	select {
	case c.send <- data:
	default:
		log.Warn().Str("user", c.userID).Msg("send buffer full, dropping frame")
	}
}

func (c *client) respond(seq int64, body map[string]any) {
	c.enqueue(outEnvelope{Type: msgResponse, Seq: seq, Payload: body})
}

func (c *client) readPump() {
	defer c.teardown()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("websocket closed unexpectedly")
			}
			return
		}
		if !c.limiter.Allow() {
			continue
		}

		var msg envelope
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		c.gateway.dispatch(c, msg)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// teardown runs once, from the read goroutine, when the connection dies.
// A dropped connection implies leaving the room.
func (c *client) teardown() {
	c.gateway.unbind(c)
	close(c.send)
	_ = c.conn.Close()
}

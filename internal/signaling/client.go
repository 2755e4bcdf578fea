package signaling

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait = 1 * time.Second

	// sendQueueSize bounds the per-connection outbound queue. The router never
	// blocks on a slow reader; frames beyond the queue are dropped and counted.
	sendQueueSize = 32
)

// client is one live socket. The ws handle is owned here exclusively; every
// other collection refers to the client by id only.
type client struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
}

func newClient(ws *websocket.Conn) *client {
	return &client{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, sendQueueSize),
	}
}

// writePump is the only goroutine that writes to the socket. It drains the
// send queue until the router closes it on disconnect, then writes a close
// frame.
func (c *client) writePump() {
	broken := false
	for payload := range c.send {
		if broken {
			continue
		}
		_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
			// Keep draining so queued sends never pile up; the read loop notices
			// the broken socket and triggers cleanup.
			broken = true
		}
	}
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(wsWriteWait))
}

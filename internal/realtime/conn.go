package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const sendTimeout = 5 * time.Second

// Conn wraps a websocket connection as a hub Subscriber. A per-connection
// mutex serializes writes (gorilla allows one concurrent writer) and a write
// deadline bounds how long a broadcast can stall on a dead peer.
type Conn struct {
	id string
	mu sync.Mutex
	ws *websocket.Conn
}

// NewConn adopts an upgraded websocket connection.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{id: uuid.NewString(), ws: ws}
}

// ID identifies the connection in logs.
func (c *Conn) ID() string { return c.id }

// Send writes one text message to the peer.
func (c *Conn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(sendTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

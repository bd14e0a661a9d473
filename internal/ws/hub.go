package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Hub manages the active WebSocket connections of local UI clients and
// broadcasts store events to all of them.
type Hub struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Register adds a connection.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

// Unregister removes a connection.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// Broadcast sends the payload to every connected client. Connections that
// fail are closed; actual removal happens on their read-loop exit. The lock
// is exclusive: gorilla connections support one concurrent writer, so
// broadcasters must be serialized.
func (h *Hub) Broadcast(payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(payload); err != nil {
			conn.Close()
		}
	}
}

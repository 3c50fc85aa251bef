package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

const TypeViewInvalidated = "view_invalidated"

// Message tells browsers that the view at Path is stale and should be refetched.
type Message struct {
	Type string    `json:"type"`
	Path string    `json:"path"`
	At   time.Time `json:"at"`
}

// Hub tracks connected clients and fans invalidations out to the clients
// subscribed to the affected path.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
// Calling it twice is safe.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Invalidate broadcasts a view_invalidated message for path.
func (h *Hub) Invalidate(_ context.Context, path string) {
	h.Broadcast(Message{Type: TypeViewInvalidated, Path: path, At: time.Now().UTC()})
}

// Broadcast sends msg to every client watching msg.Path. A client whose
// buffer is full misses the message rather than stalling the sender.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err.Error())
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for c := range h.clients {
		if !c.watches(msg.Path) {
			continue
		}
		select {
		case c.send <- data:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("dropped invalidation", "path", msg.Path, "clients", dropped)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// BalanceUpdate is the authoritative balance notification pushed to every
// connected view of a session. Views that applied an optimistic delta
// reconcile against it (see package doc).
type BalanceUpdate struct {
	Type        string    `json:"type"`
	PrincipalID int64     `json:"principal_id"`
	NewBalance  int       `json:"new_balance"`
	Timestamp   time.Time `json:"timestamp"`
}

// Hub maintains the set of active WebSocket clients and fans out balance
// updates.
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

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// BalanceUpdated broadcasts the new authoritative balance for a principal.
// Satisfies engine.Broadcaster.
func (h *Hub) BalanceUpdated(principalID int64, newBalance int) {
	h.broadcast(BalanceUpdate{
		Type:        "balance_updated",
		PrincipalID: principalID,
		NewBalance:  newBalance,
		Timestamp:   time.Now().UTC(),
	})
}

func (h *Hub) broadcast(msg BalanceUpdate) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop rather than block the engine
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

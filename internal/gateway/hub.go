package gateway

import (
	"log/slog"
	"sync"
	"time"

	"github.com/searchparty-game/searchparty/internal/model"
)

// Hub fans events out to every connection in a single room. Fan-out is
// synchronous under the hub lock so an event broadcast before a
// teardown is enqueued before it.
type Hub struct {
	roomID model.RoomID
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub creates a new Hub for a room
func NewHub(roomID model.RoomID, logger *slog.Logger) *Hub {
	return &Hub{
		roomID:  roomID,
		logger:  logger.With(slog.String("room_id", string(roomID))),
		clients: make(map[*Client]bool),
	}
}

// Register adds a connection to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("connection registered",
		slog.String("connection_id", string(client.id)),
		slog.Int("total_connections", count))
}

// Unregister removes a connection from the hub
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.logger.Info("connection unregistered",
			slog.String("connection_id", string(client.id)),
			slog.Duration("connection_duration", time.Since(client.connectedAt)),
			slog.Int("total_connections", count))
	}
}

// Broadcast enqueues a frame on every connection in the room
func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.enqueue(message)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HubManager maps live rooms to their hubs
type HubManager struct {
	logger *slog.Logger

	mu   sync.RWMutex
	hubs map[model.RoomID]*Hub
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		logger: logger.With(slog.String("component", "hub")),
		hubs:   make(map[model.RoomID]*Hub),
	}
}

// GetOrCreateHub returns the hub for a room, creating one if needed
func (m *HubManager) GetOrCreateHub(roomID model.RoomID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[roomID]; ok {
		return hub
	}
	hub := NewHub(roomID, m.logger)
	m.hubs[roomID] = hub
	return hub
}

// GetHub returns the hub for a room, or nil if it doesn't exist
func (m *HubManager) GetHub(roomID model.RoomID) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[roomID]
}

// RemoveHub drops a room's hub
func (m *HubManager) RemoveHub(roomID model.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.hubs[roomID]; ok {
		delete(m.hubs, roomID)
		m.logger.Info("hub removed", slog.String("room_id", string(roomID)))
	}
}

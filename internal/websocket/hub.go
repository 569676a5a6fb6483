// Package websocket pushes dashboard events to connected browsers. Each
// client subscribes to one session; the hub routes dataset and filter
// updates to the clients of that session only.
package websocket

import (
	"log/slog"
	"sync"

	"doorstroom/internal/config"
	"doorstroom/internal/infrastructure"
)

// Message type constants.
const (
	TypeConnection     = "connection"
	TypeDatasetUpdated = "dataset_updated"
	TypeFiltersUpdated = "filters_updated"
)

type message struct {
	sessionID string
	payload   []byte
}

// Hub maintains the set of active clients and routes session events.
type Hub struct {
	cfg config.WebSocketConfig

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan message

	mu      sync.RWMutex
	running bool
	quit    chan struct{}

	logger *slog.Logger
}

// NewHub creates a new Hub instance.
func NewHub(cfg config.WebSocketConfig, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		cfg:        cfg,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 64),
		quit:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "websocket.hub")),
	}
}

// Start runs the hub loop in its own goroutine. Safe to call once.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("hub shut down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("client registered",
				slog.String("client_id", client.id),
				slog.String("session_id", client.sessionID),
				slog.Int("total_clients", count))

			client.enqueue(mustMarshalEvent(TypeConnection, map[string]string{
				"status":    "connected",
				"client_id": client.id,
			}))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("client unregistered",
				slog.String("client_id", client.id),
				slog.Int("total_clients", count))

		case msg := <-h.broadcast:
			h.mu.RLock()
			targets := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				if client.sessionID == msg.sessionID {
					targets = append(targets, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range targets {
				if !client.enqueue(msg.payload) {
					// Slow client, drop the connection.
					h.mu.Lock()
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
					h.mu.Unlock()
					h.logger.Warn("dropped slow client",
						slog.String("client_id", client.id))
				}
			}
		}
	}
}

// Broadcast queues a payload for every client of the given session.
func (h *Hub) Broadcast(sessionID string, payload []byte) {
	select {
	case h.broadcast <- message{sessionID: sessionID, payload: payload}:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown stops the hub loop and disconnects every client.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()
	close(h.quit)
}

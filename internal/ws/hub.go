package ws

import (
	"log/slog"
	"sync"

	"github.com/mcoot/spinwheel-go/internal/model"
	"github.com/mcoot/spinwheel-go/internal/notify"
)

// Hub fans broadcast events out to all connected WebSocket clients. It
// implements the core's notification port; events are delivered in publish
// order through a single buffered channel.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
}

// Ensure Hub implements the notification port
var _ notify.Notifier = (*Hub)(nil)

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "ws")),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("ws hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client registered",
				slog.String("connection_id", string(client.connectionID)),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
				clientCount := len(h.clients)
				h.mu.Unlock()
				h.logger.Info("ws client unregistered",
					slog.String("connection_id", string(client.connectionID)),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			dropped := 0
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					dropped++
				}
			}
			h.mu.RUnlock()
			if dropped > 0 {
				h.logger.Warn("ws broadcast dropped for slow clients",
					slog.Int("dropped", dropped))
			}

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				client.closeSend()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("ws hub stopped")
			return
		}
	}
}

// Broadcast publishes an event to all connected clients
func (h *Hub) Broadcast(event model.Event) {
	data, err := encodeEvent(event)
	if err != nil {
		h.logger.Error("failed to encode event",
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("ws broadcast dropped - hub buffer full",
			slog.String("type", string(event.Type)))
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Close shuts down the hub
func (h *Hub) Close() {
	close(h.done)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

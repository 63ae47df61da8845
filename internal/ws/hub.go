// Package ws pushes dashboard state to browser pages and feeds their
// pointer, resize, and legend events back into the dashboard.
package ws

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Handler applies page events to a dashboard. HandleEvent returns the
// state to push to every page of that dashboard, or nil for none.
type Handler interface {
	Exists(dashboard string) bool
	HandleEvent(dashboard string, ev Event) (any, error)
}

// Hub manages WebSocket connections grouped by dashboard.
type Hub struct {
	handler    Handler
	clients    map[*Client]bool
	groups     map[string]map[*Client]bool // dashboard -> clients
	register   chan *Client
	unregister chan *Client
	broadcast  chan *GroupMessage
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zap.Logger
}

// GroupMessage represents a message to broadcast to a group.
type GroupMessage struct {
	Group   string
	Payload []byte
}

func NewHub(handler Handler, logger *zap.Logger) *Hub {
	return &Hub{
		handler:    handler,
		clients:    make(map[*Client]bool),
		groups:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *GroupMessage, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes hub events. Call this in a goroutine.
// Returns when context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("hub shutting down")
			h.shutdown()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if h.groups[client.dashboard] == nil {
				h.groups[client.dashboard] = make(map[*Client]bool)
			}
			h.groups[client.dashboard][client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered",
				zap.String("dashboard", client.dashboard),
				zap.String("connID", client.connID),
			)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				if clients, ok := h.groups[client.dashboard]; ok {
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.groups, client.dashboard)
					}
				}
				client.closeSend()
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered",
				zap.String("dashboard", client.dashboard),
				zap.String("connID", client.connID),
			)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.groups[msg.Group] {
				select {
				case client.send <- msg.Payload:
				default:
					// Buffer full, schedule disconnect
					go h.drop(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// drop hands a client to Run for unregistering unless the hub has stopped.
func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// shutdown gracefully closes all client connections.
func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	close(h.done)
	for client := range h.clients {
		client.closeSend()
		delete(h.clients, client)
	}
	h.groups = make(map[string]map[*Client]bool)
}

// Clients returns the number of pages connected to a dashboard.
func (h *Hub) Clients(dashboard string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[dashboard])
}

// Publish pushes state to every page of a dashboard.
func (h *Hub) Publish(dashboard string, state any) {
	select {
	case h.broadcast <- &GroupMessage{Group: dashboard, Payload: stateMessage(dashboard, state)}:
	case <-h.done:
	}
}

package gateway

import (
	"sync"

	"anitrack-bot/internal/pkg/logger"
)

// Hub tracks connected stream clients. Surface renders fan out to every
// connection (surfaces are shared chat messages); ephemeral notices go to one
// user's connections only (multi-device).
type Hub struct {
	// Registered clients map: UserId -> List of Clients (multi-device)
	clients map[string][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		logger:     log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserId] = append(h.clients[client.UserId], client)
			h.mu.Unlock()
			h.logger.Info("hub", "client registered", map[string]interface{}{"user_id": client.UserId})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserId]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserId] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserId]) == 0 {
					delete(h.clients, client.UserId)
					h.logger.Info("hub", "client completely unregistered", map[string]interface{}{"user_id": client.UserId})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a frame to ALL connected clients.
func (h *Hub) Broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.clients {
		for _, client := range clients {
			h.push(client, data)
		}
	}
}

// SendToUser sends a frame to every connection of one user.
func (h *Hub) SendToUser(userId string, data []byte) {
	h.mu.RLock()
	clients, ok := h.clients[userId]
	h.mu.RUnlock()
	if !ok {
		h.logger.Debug("hub", "no live connection for user", map[string]interface{}{"user_id": userId})
		return
	}
	for _, client := range clients {
		h.push(client, data)
	}
}

func (h *Hub) push(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		h.logger.Warn("hub", "client send buffer full, dropping connection", map[string]interface{}{"user_id": client.UserId})
		go func() { h.unregister <- client }()
	}
}

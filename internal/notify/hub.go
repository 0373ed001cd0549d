package notify

import (
	"encoding/json"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Hub maintains the set of connected workflow watchers and broadcasts
// events to them.
type Hub struct {
	// Registered clients per user; a user may have several tabs open.
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[string]map[*Client]bool),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			h.mu.Unlock()
			log.Debugf("workflow watcher connected: %s", client.UserID)

		case client := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[client.UserID]; ok && set[client] {
				delete(set, client)
				close(client.send)
				if len(set) == 0 {
					delete(h.clients, client.UserID)
				}
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, set := range h.clients {
				for client := range set {
					select {
					case client.send <- message:
					default:
						// Buffer full or client dead; drop the event.
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues a message for every connected watcher.
func (h *Hub) Broadcast(message interface{}) {
	raw, err := json.Marshal(message)
	if err != nil {
		log.Warnf("could not marshal broadcast message: %v", err)
		return
	}
	select {
	case h.broadcast <- raw:
	default:
		log.Warn("broadcast queue full, dropping workflow event")
	}
}

// SendToUser sends a message to all of one user's connections.
func (h *Hub) SendToUser(userID string, message interface{}) bool {
	h.mu.RLock()
	set, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok || len(set) == 0 {
		return false
	}

	raw, err := json.Marshal(message)
	if err != nil {
		log.Warnf("could not marshal message for %s: %v", userID, err)
		return false
	}

	delivered := false
	h.mu.RLock()
	for client := range set {
		select {
		case client.send <- raw:
			delivered = true
		default:
		}
	}
	h.mu.RUnlock()
	return delivered
}

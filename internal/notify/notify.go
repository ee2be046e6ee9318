// Package notify delivers per-user processing notifications to connected
// SSE clients.
package notify

import (
	"log"
	"sync"
)

// Notification types emitted by the ingestion pipeline.
const (
	TypeUploadComplete = "UPLOAD_COMPLETE"
	TypeUploadError    = "UPLOAD_ERROR"
)

// Notification is one event pushed to a user's stream.
type Notification struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Client is one connected subscriber. Events is closed on unsubscribe.
type Client struct {
	Events chan Notification
}

// NewClient creates a subscriber with a small buffer so a slow reader does
// not block the pipeline.
func NewClient() *Client {
	return &Client{
		Events: make(chan Notification, 10),
	}
}

// Hub fans notifications out to every client subscribed to a user. Delivery
// is best-effort: a client whose buffer is full misses the event rather than
// blocking the sender.
type Hub struct {
	mu      sync.RWMutex
	clients map[string][]*Client
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string][]*Client),
	}
}

// Subscribe registers a new client for the user's notifications.
func (h *Hub) Subscribe(userID string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	client := NewClient()
	h.clients[userID] = append(h.clients[userID], client)
	log.Printf("INFO: client subscribed for user %s, total clients: %d", userID, len(h.clients[userID]))
	return client
}

// Unsubscribe removes the client and closes its channel. The user's entry is
// dropped when its last client leaves.
func (h *Hub) Unsubscribe(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[userID]
	for i, c := range clients {
		if c == client {
			h.clients[userID] = append(clients[:i], clients[i+1:]...)
			close(c.Events)
			break
		}
	}
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
		log.Printf("INFO: last client for user %s disconnected", userID)
	}
}

// NotifyUser pushes a notification to every client subscribed to the user.
// A user with no subscribers drops the notification silently.
func (h *Hub) NotifyUser(userID string, n Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[userID] {
		select {
		case client.Events <- n:
		default:
			log.Printf("WARN: client channel full for user %s, dropping %s notification", userID, n.Type)
		}
	}
}

// ClientCount returns the number of clients subscribed to a user.
func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

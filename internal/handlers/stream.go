package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/tomin-mx/tomin/internal/middleware"
	"github.com/tomin-mx/tomin/internal/notify"
)

// StreamHandler serves the per-user notification stream over SSE.
type StreamHandler struct {
	hub *notify.Hub
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(hub *notify.Hub) *StreamHandler {
	return &StreamHandler{hub: hub}
}

// Stream handles GET /api/notifications/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := h.hub.Subscribe(userID)
	defer h.hub.Unsubscribe(userID, client)

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case n, open := <-client.Events:
			if !open {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				log.Printf("ERROR: Failed to encode notification for user %s: %v", userID, err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

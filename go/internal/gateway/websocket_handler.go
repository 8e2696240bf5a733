package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/mcdev12/auctionroom/go/internal/directory"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for the room
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	code              string
}

// NewWebSocketHandler creates a new WebSocket handler for the room with code.
func NewWebSocketHandler(cm *ConnectionManager, code string) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		code:              code,
	}
}

// HandleRoomConnection handles GET /ws/room?code=CODE
func (h *WebSocketHandler) HandleRoomConnection(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("code")
	if raw == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}
	code, err := directory.NormalizeCode(raw)
	if err != nil {
		http.Error(w, "invalid code format", http.StatusBadRequest)
		return
	}
	if code != h.code {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	// Upgrade the connection
	if err := h.connectionManager.UpgradeConnection(w, r); err != nil {
		// The upgrader has already replied to the client.
		log.Error().
			Err(err).
			Str("room_code", code).
			Msg("failed to upgrade WebSocket connection")
		return
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"room_code":         h.code,
		"total_connections": h.connectionManager.ConnectionCount(),
	}); err != nil {
		log.Error().Err(err).Msg("failed to encode connection stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/room", h.HandleRoomConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}

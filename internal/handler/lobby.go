package handler

import (
	"encoding/json"
	"net/http"

	"github.com/SriramKomma/collaborative-canvas/internal/room"
)

// LobbyHandler serves the pre-join room listing over plain HTTP so the
// lobby can render before a websocket exists.
type LobbyHandler struct {
	Rooms *room.Registry
}

// ListRooms returns {id, userCount} for every known room.
func (h *LobbyHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Rooms.Summaries())
}

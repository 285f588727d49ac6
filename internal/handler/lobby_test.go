package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SriramKomma/collaborative-canvas/internal/room"
)

func TestListRooms(t *testing.T) {
	rooms := room.NewRegistry()
	rooms.Create("r1").AddMember("u1", "alice", "#FF0000")
	lobby := &LobbyHandler{Rooms: rooms}

	rec := httptest.NewRecorder()
	lobby.ListRooms(rec, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}

	var sums []room.Summary
	if err := json.NewDecoder(rec.Body).Decode(&sums); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("rooms = %v", sums)
	}
	if sums[1].ID != "r1" || sums[1].UserCount != 1 {
		t.Fatalf("r1 summary = %+v", sums[1])
	}
}

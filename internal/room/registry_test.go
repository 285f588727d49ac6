package room

import (
	"testing"
	"time"

	"github.com/SriramKomma/collaborative-canvas/internal/canvas"
)

func testAction(id string) canvas.Action {
	return canvas.Action{ID: id, AuthorID: "u1", Kind: canvas.KindBrush, Points: []canvas.Point{{X: 1, Y: 1}}}
}

func TestRegistryCreateIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	r1 := reg.Create("r1")
	r1.Commit(testAction("a1"))

	again := reg.Create("r1")
	if again != r1 {
		t.Fatalf("second create returned a different room")
	}
	if len(again.History()) != 1 {
		t.Fatalf("second create reset room history")
	}
}

func TestRegistryAlwaysHasGlobalRoom(t *testing.T) {
	reg := NewRegistry()
	if !reg.Has(GlobalRoomID) {
		t.Fatalf("global room missing after construction")
	}
}

func TestSummariesOrderedByID(t *testing.T) {
	reg := NewRegistry()
	reg.Create("zebra")
	reg.Create("alpha")
	reg.Create("alpha").AddMember("u1", "alice", "#FF0000")

	sums := reg.Summaries()
	if len(sums) != 3 {
		t.Fatalf("expected 3 rooms, got %d", len(sums))
	}
	if sums[0].ID != "alpha" || sums[1].ID != GlobalRoomID || sums[2].ID != "zebra" {
		t.Fatalf("unexpected order: %v", sums)
	}
	if sums[0].UserCount != 1 {
		t.Fatalf("alpha user count = %d", sums[0].UserCount)
	}
}

func TestReclaimIdleRemovesOnlyStaleEmptyRooms(t *testing.T) {
	reg := NewRegistry()

	stale := reg.Create("stale")
	stale.mu.Lock()
	stale.lastActive = time.Now().Add(-time.Hour)
	stale.mu.Unlock()

	occupied := reg.Create("occupied")
	occupied.AddMember("u1", "alice", "#FF0000")
	occupied.mu.Lock()
	occupied.lastActive = time.Now().Add(-time.Hour)
	occupied.mu.Unlock()

	reg.Create("fresh")

	// The global room is aged too; it must survive regardless.
	g, _ := reg.Get(GlobalRoomID)
	g.mu.Lock()
	g.lastActive = time.Now().Add(-time.Hour)
	g.mu.Unlock()

	if got := reg.ReclaimIdle(30 * time.Minute); got != 1 {
		t.Fatalf("expected 1 room reclaimed, got %d", got)
	}
	if reg.Has("stale") {
		t.Fatalf("stale room survived reclamation")
	}
	if !reg.Has("occupied") || !reg.Has("fresh") || !reg.Has(GlobalRoomID) {
		t.Fatalf("reclamation removed a room it should have kept")
	}
}

package room

import (
	"testing"

	"github.com/SriramKomma/collaborative-canvas/internal/canvas"
)

func TestMembershipLifecycle(t *testing.T) {
	r := New("r1")
	r.AddMember("u1", "alice", "#FF0000")
	r.AddMember("u2", "bob", "#00FF00")

	if !r.HasMember("u1") || !r.HasMember("u2") {
		t.Fatalf("members missing after add")
	}
	if got := r.MemberCount(); got != 2 {
		t.Fatalf("expected 2 members, got %d", got)
	}

	members := r.Members()
	if members[0].ID != "u1" || members[1].ID != "u2" {
		t.Fatalf("members not ordered by id: %v", members)
	}

	r.RemoveMember("u1")
	if r.HasMember("u1") {
		t.Fatalf("u1 still present after remove")
	}
	if r.IsEmpty() {
		t.Fatalf("room reported empty with u2 still in it")
	}
}

func TestUpdateCursorIgnoresUnknownMember(t *testing.T) {
	r := New("r1")
	r.AddMember("u1", "alice", "#FF0000")

	if !r.UpdateCursor("u1", canvas.Point{X: 3, Y: 4}) {
		t.Fatalf("cursor update for member rejected")
	}
	if r.UpdateCursor("ghost", canvas.Point{X: 0, Y: 0}) {
		t.Fatalf("cursor update accepted for unknown member")
	}

	members := r.Members()
	if members[0].Cursor == nil || members[0].Cursor.X != 3 {
		t.Fatalf("cursor not recorded: %+v", members[0].Cursor)
	}
}

func TestStreamStrokeTwoPointKeepsTwoPoints(t *testing.T) {
	r := New("r1")
	r.AddMember("u1", "alice", "#FF0000")
	r.StageStroke("u1", canvas.KindLine, "#000000", 2)

	r.StreamStroke("u1", []canvas.Point{{X: 1, Y: 1}})
	r.StreamStroke("u1", []canvas.Point{{X: 9, Y: 9}})

	staged, ok := r.StagedStroke("u1")
	if !ok {
		t.Fatalf("staged stroke missing")
	}
	if len(staged.Points) != 2 {
		t.Fatalf("expected 2 points for a line, got %d", len(staged.Points))
	}
	if staged.Points[1].X != 9 {
		t.Fatalf("endpoint not replaced: %v", staged.Points)
	}
}

func TestStreamStrokeFreeFormAccumulates(t *testing.T) {
	r := New("r1")
	r.AddMember("u1", "alice", "#FF0000")
	r.StageStroke("u1", canvas.KindBrush, "#000000", 2)

	r.StreamStroke("u1", []canvas.Point{{X: 0, Y: 0}, {X: 1, Y: 1}})
	r.StreamStroke("u1", []canvas.Point{{X: 2, Y: 2}, {X: 3, Y: 3}, {X: 4, Y: 4}})

	staged, _ := r.StagedStroke("u1")
	if len(staged.Points) != 5 {
		t.Fatalf("expected 5 points for a brush stroke, got %d", len(staged.Points))
	}
}

func TestStreamStrokeWithoutStagedIsNoOp(t *testing.T) {
	r := New("r1")
	r.AddMember("u1", "alice", "#FF0000")
	if r.StreamStroke("u1", []canvas.Point{{X: 1, Y: 1}}) {
		t.Fatalf("stream accepted with no staged stroke")
	}
}

func TestRemoveMemberDropsStagedStroke(t *testing.T) {
	r := New("r1")
	r.AddMember("u1", "alice", "#FF0000")
	r.StageStroke("u1", canvas.KindBrush, "#000000", 2)
	r.RemoveMember("u1")
	if _, ok := r.StagedStroke("u1"); ok {
		t.Fatalf("staged stroke survived member removal")
	}
}

func TestCommitUndoRedoThroughRoom(t *testing.T) {
	r := New("r1")
	a := canvas.Action{ID: "a1", AuthorID: "u1", Kind: canvas.KindBrush, Points: []canvas.Point{{X: 1, Y: 1}}}
	if !r.Commit(a) {
		t.Fatalf("commit rejected")
	}
	if r.Commit(a) {
		t.Fatalf("replayed commit accepted")
	}

	undone, ok := r.Undo()
	if !ok || undone.ID != "a1" {
		t.Fatalf("undo: got %v ok=%v", undone.ID, ok)
	}
	if _, ok := r.Redo(); !ok {
		t.Fatalf("redo failed")
	}
	if len(r.History()) != 1 {
		t.Fatalf("history length %d after redo", len(r.History()))
	}
}

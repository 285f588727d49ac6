package canvas

import "testing"

func action(id string) Action {
	return Action{ID: id, AuthorID: "u1", Kind: KindBrush, Color: "#000000", Width: 2}
}

func TestCommitPreservesOrder(t *testing.T) {
	l := NewLog()
	ids := []string{"a1", "a2", "a3"}
	for _, id := range ids {
		if !l.Commit(action(id)) {
			t.Fatalf("commit %q rejected", id)
		}
	}

	snap := l.Snapshot()
	if len(snap) != len(ids) {
		t.Fatalf("expected %d committed actions, got %d", len(ids), len(snap))
	}
	for i, id := range ids {
		if snap[i].ID != id {
			t.Fatalf("position %d: expected %q, got %q", i, id, snap[i].ID)
		}
	}
}

func TestCommitIsIdempotentOnID(t *testing.T) {
	l := NewLog()
	if !l.Commit(action("a1")) {
		t.Fatalf("first commit rejected")
	}
	if l.Commit(action("a1")) {
		t.Fatalf("replayed commit was not ignored")
	}
	if got := l.Len(); got != 1 {
		t.Fatalf("expected 1 committed action after replay, got %d", got)
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	l := NewLog()
	l.Commit(action("a1"))
	l.Commit(action("a2"))
	before := l.Snapshot()

	undone, ok := l.Undo()
	if !ok || undone.ID != "a2" {
		t.Fatalf("expected undo to remove a2, got %v ok=%v", undone.ID, ok)
	}

	redone, ok := l.Redo()
	if !ok || redone.ID != "a2" {
		t.Fatalf("expected redo to restore a2, got %v ok=%v", redone.ID, ok)
	}

	after := l.Snapshot()
	if len(after) != len(before) {
		t.Fatalf("round trip changed history length: %d != %d", len(after), len(before))
	}
	for i := range before {
		if after[i].ID != before[i].ID {
			t.Fatalf("round trip changed history at %d: %q != %q", i, after[i].ID, before[i].ID)
		}
	}
}

func TestCommitClearsRedoStack(t *testing.T) {
	l := NewLog()
	l.Commit(action("a1"))
	if _, ok := l.Undo(); !ok {
		t.Fatalf("undo failed")
	}
	l.Commit(action("a2"))
	if _, ok := l.Redo(); ok {
		t.Fatalf("redo succeeded after a new commit invalidated it")
	}
}

func TestUndoRedoOnEmptyAreNoOps(t *testing.T) {
	l := NewLog()
	if _, ok := l.Undo(); ok {
		t.Fatalf("undo on empty log returned an action")
	}
	if _, ok := l.Redo(); ok {
		t.Fatalf("redo on empty stack returned an action")
	}
}

func TestReplaceClearsRedoAndSwapsHistory(t *testing.T) {
	l := NewLog()
	l.Commit(action("a1"))
	l.Commit(action("a2"))
	l.Undo()

	l.Replace([]Action{action("b1")})

	snap := l.Snapshot()
	if len(snap) != 1 || snap[0].ID != "b1" {
		t.Fatalf("unexpected history after replace: %v", snap)
	}
	if _, ok := l.Redo(); ok {
		t.Fatalf("redo stack survived replace")
	}
}

func TestReplaceWithEmptyClearsEverything(t *testing.T) {
	l := NewLog()
	l.Commit(action("a1"))
	l.Replace(nil)
	if got := l.Len(); got != 0 {
		t.Fatalf("expected empty log, got %d actions", got)
	}
	// An id that existed pre-replace can be committed again.
	if !l.Commit(action("a1")) {
		t.Fatalf("commit after clear rejected as replay")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	l := NewLog()
	l.Commit(action("a1"))
	snap := l.Snapshot()
	snap[0].ID = "mutated"
	if l.Snapshot()[0].ID != "a1" {
		t.Fatalf("snapshot mutation leaked into the log")
	}
}

package canvas

import "sync"

// Log is the authoritative ordered history of committed actions for
// one room, plus the stack of undone actions available for redo. The
// hub's event loop is the only writer during normal operation; the
// mutex covers snapshot reads from the HTTP side.
type Log struct {
	mu        sync.Mutex
	committed []Action
	undone    []Action
	ids       map[string]struct{}
}

func NewLog() *Log {
	return &Log{ids: make(map[string]struct{})}
}

// Commit appends an action and clears the redo stack. Committing an id
// the log has already seen is treated as a replay and ignored; the
// return value reports whether the action was actually appended.
func (l *Log) Commit(a Action) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, seen := l.ids[a.ID]; seen {
		return false
	}
	l.ids[a.ID] = struct{}{}
	l.committed = append(l.committed, a)
	l.undone = nil
	return true
}

// Undo moves the most recent committed action onto the redo stack and
// returns it. The second return value is false when there is nothing
// to undo.
func (l *Log) Undo() (Action, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.committed) == 0 {
		return Action{}, false
	}
	last := l.committed[len(l.committed)-1]
	l.committed = l.committed[:len(l.committed)-1]
	l.undone = append(l.undone, last)
	return last, true
}

// Redo moves the most recently undone action back onto the committed
// history and returns it.
func (l *Log) Redo() (Action, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.undone) == 0 {
		return Action{}, false
	}
	last := l.undone[len(l.undone)-1]
	l.undone = l.undone[:len(l.undone)-1]
	l.committed = append(l.committed, last)
	return last, true
}

// Replace swaps the entire committed history atomically (bulk history
// load) and unconditionally clears the redo stack.
func (l *Log) Replace(actions []Action) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.committed = make([]Action, len(actions))
	copy(l.committed, actions)
	l.undone = nil
	l.ids = make(map[string]struct{}, len(actions))
	for _, a := range actions {
		l.ids[a.ID] = struct{}{}
	}
}

// Snapshot returns a copy of the committed history in commit order.
func (l *Log) Snapshot() []Action {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Action, len(l.committed))
	copy(out, l.committed)
	return out
}

// Len reports the number of committed actions.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.committed)
}

package room

import (
	"sort"
	"sync"
	"time"

	"github.com/SriramKomma/collaborative-canvas/internal/canvas"
)

// Member is a participant's presence inside one room. Identity-level
// attributes (name, color) are derived from the session; cursor and
// drawing state are room-local.
type Member struct {
	ID        string        `json:"id"`
	Username  string        `json:"username"`
	Color     string        `json:"color"`
	Cursor    *canvas.Point `json:"cursor,omitempty"`
	IsDrawing bool          `json:"isDrawing,omitempty"`
}

// Room is an isolated collaboration namespace: a member set, the
// authoritative action log, and the in-progress strokes currently
// being streamed by members.
type Room struct {
	ID string

	mu         sync.RWMutex
	members    map[string]*Member
	pending    map[string]*canvas.Action
	log        *canvas.Log
	createdAt  time.Time
	lastActive time.Time
}

func New(id string) *Room {
	now := time.Now()
	return &Room{
		ID:         id,
		members:    make(map[string]*Member),
		pending:    make(map[string]*canvas.Action),
		log:        canvas.NewLog(),
		createdAt:  now,
		lastActive: now,
	}
}

// AddMember registers (or refreshes) a member and returns its presence
// record.
func (r *Room) AddMember(id, username, color string) Member {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := &Member{ID: id, Username: username, Color: color}
	r.members[id] = m
	r.lastActive = time.Now()
	return *m
}

// RemoveMember drops a member along with any stroke it was streaming.
func (r *Room) RemoveMember(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.members, id)
	delete(r.pending, id)
	r.lastActive = time.Now()
}

// HasMember reports whether the identity is currently in the room.
func (r *Room) HasMember(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[id]
	return ok
}

// Members returns the presence list ordered by identity for stable
// output.
func (r *Room) Members() []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *Room) IsEmpty() bool {
	return r.MemberCount() == 0
}

// UpdateCursor records a member's last cursor position. Unknown
// members are ignored.
func (r *Room) UpdateCursor(id string, p canvas.Point) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[id]
	if !ok {
		return false
	}
	pos := p
	m.Cursor = &pos
	r.lastActive = time.Now()
	return true
}

// SetDrawing flips a member's "currently drawing" presence flag.
func (r *Room) SetDrawing(id string, drawing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.members[id]; ok {
		m.IsDrawing = drawing
	}
}

// StageStroke opens an in-progress action for the author, replacing
// any stroke it was already streaming. The point buffer starts empty;
// streamed batches fill it and the final commit carries the complete
// sequence captured client-side.
func (r *Room) StageStroke(authorID string, kind canvas.Kind, color string, width float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending[authorID] = &canvas.Action{
		AuthorID: authorID,
		Kind:     kind,
		Color:    color,
		Width:    width,
	}
	r.lastActive = time.Now()
}

// StreamStroke merges a point batch into the author's staged stroke.
// A stream with no staged stroke is a no-op; stray stream events after
// commit are expected and degrade silently.
func (r *Room) StreamStroke(authorID string, points []canvas.Point) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.pending[authorID]
	if !ok {
		return false
	}
	a.AppendStream(points)
	r.lastActive = time.Now()
	return true
}

// StagedStroke returns a copy of the author's in-progress action.
func (r *Room) StagedStroke(authorID string) (canvas.Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.pending[authorID]
	if !ok {
		return canvas.Action{}, false
	}
	cp := *a
	cp.Points = append([]canvas.Point(nil), a.Points...)
	return cp, true
}

// FinishStroke drops the author's staged stroke.
func (r *Room) FinishStroke(authorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, authorID)
}

// Commit appends a completed action to the log. Replayed ids are
// ignored; the return value reports whether the log changed.
func (r *Room) Commit(a canvas.Action) bool {
	ok := r.log.Commit(a)
	r.touch()
	return ok
}

func (r *Room) Undo() (canvas.Action, bool) {
	a, ok := r.log.Undo()
	if ok {
		r.touch()
	}
	return a, ok
}

func (r *Room) Redo() (canvas.Action, bool) {
	a, ok := r.log.Redo()
	if ok {
		r.touch()
	}
	return a, ok
}

// ReplaceHistory atomically swaps the committed history (bulk load or
// clear) and drops the redo stack.
func (r *Room) ReplaceHistory(actions []canvas.Action) {
	r.log.Replace(actions)
	r.touch()
}

// History returns a read-only copy of the committed action sequence.
func (r *Room) History() []canvas.Action {
	return r.log.Snapshot()
}

func (r *Room) LastActive() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastActive
}

func (r *Room) touch() {
	r.mu.Lock()
	r.lastActive = time.Now()
	r.mu.Unlock()
}

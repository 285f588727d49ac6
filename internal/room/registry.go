package room

import (
	"sort"
	"sync"
	"time"
)

// GlobalRoomID names the distinguished room that always exists and is
// never reclaimed.
const GlobalRoomID = "global"

// Summary is the lobby view of one room.
type Summary struct {
	ID        string `json:"id"`
	UserCount int    `json:"userCount"`
}

// Registry owns the set of live rooms. It is constructed once at
// startup and handed to the hub and the HTTP lobby; there is no
// ambient global instance.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	reg := &Registry{rooms: make(map[string]*Room)}
	reg.Create(GlobalRoomID)
	return reg
}

// Create returns the room with the given id, creating it if needed.
// Creating an existing id returns it unchanged; history and membership
// are never reset by a second create.
func (reg *Registry) Create(id string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if r, ok := reg.rooms[id]; ok {
		return r
	}
	r := New(id)
	reg.rooms[id] = r
	return r
}

func (reg *Registry) Get(id string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[id]
	return r, ok
}

func (reg *Registry) Has(id string) bool {
	_, ok := reg.Get(id)
	return ok
}

// Summaries lists every known room with its member count, ordered by
// id for stable lobby output.
func (reg *Registry) Summaries() []Summary {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	out := make([]Summary, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		out = append(out, Summary{ID: r.ID, UserCount: r.MemberCount()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ReclaimIdle removes rooms that are empty and have been inactive for
// longer than maxIdle. The global room is exempt and a room with
// members is never removed regardless of age. Returns the number of
// rooms reclaimed.
func (reg *Registry) ReclaimIdle(maxIdle time.Duration) int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	now := time.Now()
	reclaimed := 0
	for id, r := range reg.rooms {
		if id == GlobalRoomID {
			continue
		}
		if r.IsEmpty() && now.Sub(r.LastActive()) > maxIdle {
			delete(reg.rooms, id)
			reclaimed++
		}
	}
	return reclaimed
}

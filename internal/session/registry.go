package session

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Session is one durable participant. The identity token is supplied
// by the client and trusted as stable across reconnects; it is not
// cryptographically verified. A stricter design would mint a server
// token on first connect and require it on reconnect; the current
// scheme is a known weakness kept for compatibility with the client.
type Session struct {
	Identity        string
	Username        string
	Color           string
	ConnID          string
	CurrentRoomID   string
	LastActive      time.Time
	LastRoomCreated time.Time
}

// Registry owns all sessions. It maps durable identities to sessions
// and live connection ids back to identities. Constructed once at
// startup and passed to the hub.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	connToID map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		connToID: make(map[string]string),
	}
}

// Identify creates a session on first sight of an identity. On
// reconnect it preserves the assigned color, the last room, and the
// room-creation timestamp, re-points the identity at the new
// connection, and refreshes the display name if one was supplied.
func (reg *Registry) Identify(identity, connID, username string) *Session {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	s, ok := reg.sessions[identity]
	if !ok {
		s = &Session{
			Identity: identity,
			Color:    randomColor(),
		}
		reg.sessions[identity] = s
	}

	if username != "" {
		s.Username = username
	} else if s.Username == "" {
		s.Username = defaultUsername(identity)
	}

	if s.ConnID != "" {
		delete(reg.connToID, s.ConnID)
	}
	s.ConnID = connID
	s.LastActive = time.Now()
	reg.connToID[connID] = identity
	return s
}

// ResolveByConn returns the session owning a live connection.
func (reg *Registry) ResolveByConn(connID string) (*Session, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	identity, ok := reg.connToID[connID]
	if !ok {
		return nil, false
	}
	s, ok := reg.sessions[identity]
	return s, ok
}

func (reg *Registry) Get(identity string) (*Session, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	s, ok := reg.sessions[identity]
	return s, ok
}

func (reg *Registry) JoinRoom(identity, roomID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if s, ok := reg.sessions[identity]; ok {
		s.CurrentRoomID = roomID
		s.LastActive = time.Now()
	}
}

func (reg *Registry) LeaveRoom(identity string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if s, ok := reg.sessions[identity]; ok {
		s.CurrentRoomID = ""
		s.LastActive = time.Now()
	}
}

// Forget drops only the connection mapping. The session itself is
// retained indefinitely so the identity can resume on reconnect.
func (reg *Registry) Forget(connID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	identity, ok := reg.connToID[connID]
	if !ok {
		return
	}
	delete(reg.connToID, connID)
	if s, ok := reg.sessions[identity]; ok && s.ConnID == connID {
		s.ConnID = ""
	}
}

// CanCreateRoom reports whether the identity may create a room given
// the minimum interval between creations. It does not consume the
// allowance; RecordRoomCreate stamps it once a room is actually made.
func (reg *Registry) CanCreateRoom(identity string, minInterval time.Duration) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	s, ok := reg.sessions[identity]
	if !ok {
		return false
	}
	return s.LastRoomCreated.IsZero() || time.Since(s.LastRoomCreated) >= minInterval
}

// RecordRoomCreate stamps the identity's last room creation.
func (reg *Registry) RecordRoomCreate(identity string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if s, ok := reg.sessions[identity]; ok {
		s.LastRoomCreated = time.Now()
	}
}

func defaultUsername(identity string) string {
	short := identity
	if len(short) > 4 {
		short = short[:4]
	}
	return "User " + short
}

func randomColor() string {
	return fmt.Sprintf("#%06X", rand.Intn(0x1000000))
}

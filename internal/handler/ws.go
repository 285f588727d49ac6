package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/SriramKomma/collaborative-canvas/internal/metrics"
	"github.com/SriramKomma/collaborative-canvas/internal/protocol"
	"github.com/SriramKomma/collaborative-canvas/internal/room"
	"github.com/SriramKomma/collaborative-canvas/internal/session"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMessageSize  = 1 << 20 // image commits carry data URLs
	maxEventsPerSec = 240
	eventBurst      = 480
	sendBufferSize  = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Identity is client-asserted and unauthenticated; the origin
	// check gates nothing meaningful here.
	CheckOrigin: func(*http.Request) bool { return true },
}

// WSClient is one live websocket connection. RoomID and Username are
// owned by the hub's event loop; the pumps never touch them.
type WSClient struct {
	ConnID   string
	Conn     *websocket.Conn
	Identity string
	Username string
	RoomID   string
	Send     chan []byte
	limiter  *rate.Limiter
}

type hubEventKind int

const (
	hubConnect hubEventKind = iota
	hubMessage
	hubDisconnect
)

type hubEvent struct {
	kind   hubEventKind
	client *WSClient
	env    protocol.Envelope
}

// Options tunes the hub's room lifecycle policy.
type Options struct {
	// RoomCreateInterval is the minimum time between room creations
	// per identity.
	RoomCreateInterval time.Duration
	// SweepInterval is how often idle rooms are reclaimed.
	SweepInterval time.Duration
	// RoomMaxIdle is how long an empty room survives before the sweep
	// removes it.
	RoomMaxIdle time.Duration
}

func (o *Options) withDefaults() Options {
	out := Options{
		RoomCreateInterval: 10 * time.Second,
		SweepInterval:      5 * time.Minute,
		RoomMaxIdle:        30 * time.Minute,
	}
	if o == nil {
		return out
	}
	if o.RoomCreateInterval > 0 {
		out.RoomCreateInterval = o.RoomCreateInterval
	}
	if o.SweepInterval > 0 {
		out.SweepInterval = o.SweepInterval
	}
	if o.RoomMaxIdle > 0 {
		out.RoomMaxIdle = o.RoomMaxIdle
	}
	return out
}

// Hub owns all websocket connections and linearizes every mutation of
// room and session state through a single event loop: read pumps post
// inbound frames to one channel, and Run processes them in strict
// arrival order. Fan-out happens synchronously inside the same loop,
// so every room member observes an identical committed sequence.
type Hub struct {
	Rooms    *room.Registry
	Sessions *session.Registry

	opts    Options
	events  chan hubEvent
	clients map[string]*WSClient // connID -> client; loop-owned
}

func NewHub(rooms *room.Registry, sessions *session.Registry, opts *Options) *Hub {
	return &Hub{
		Rooms:    rooms,
		Sessions: sessions,
		opts:     opts.withDefaults(),
		events:   make(chan hubEvent, 1024),
		clients:  make(map[string]*WSClient),
	}
}

// Run processes hub events until the context is cancelled. It must be
// running before any websocket is accepted.
func (h *Hub) Run(ctx context.Context) {
	sweep := time.NewTicker(h.opts.SweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-h.events:
			switch ev.kind {
			case hubConnect:
				h.handleConnect(ev.client)
			case hubMessage:
				h.dispatch(ev.client, ev.env)
			case hubDisconnect:
				h.handleDisconnect(ev.client)
			}
		case <-sweep.C:
			h.reclaimIdleRooms()
		}
	}
}

func (h *Hub) reclaimIdleRooms() {
	if n := h.Rooms.ReclaimIdle(h.opts.RoomMaxIdle); n > 0 {
		slog.Info("Reclaimed idle rooms", "count", n)
		metrics.RoomsReclaimed.Add(float64(n))
		h.broadcastAll(protocol.EventRoomList, h.Rooms.Summaries())
	}
	metrics.Rooms.Set(float64(len(h.Rooms.Summaries())))
}

// HandleWebSocket upgrades the connection and runs the identity
// handshake. A missing identity token is a protocol violation: the
// socket is closed immediately with no error event.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity := r.URL.Query().Get("identity")
	username := r.URL.Query().Get("username")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade error", "error", err)
		return
	}

	if identity == "" {
		slog.Warn("Connection without identity rejected", "remote_addr", r.RemoteAddr)
		deadline := time.Now().Add(writeWait)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "identity required"), deadline)
		_ = conn.Close()
		return
	}

	client := &WSClient{
		ConnID:   uuid.New().String(),
		Conn:     conn,
		Identity: identity,
		Username: username,
		Send:     make(chan []byte, sendBufferSize),
		limiter:  rate.NewLimiter(rate.Limit(maxEventsPerSec), eventBurst),
	}

	h.events <- hubEvent{kind: hubConnect, client: client}

	go h.writePump(client)
	h.readPump(client)
}

func (h *Hub) readPump(client *WSClient) {
	defer func() {
		h.events <- hubEvent{kind: hubDisconnect, client: client}
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			return
		}

		if !client.limiter.Allow() {
			slog.Warn("WebSocket event rate limit exceeded", "identity", client.Identity)
			return
		}

		env, err := protocol.DecodeInbound(message)
		if err != nil {
			slog.Warn("Rejected inbound frame", "identity", client.Identity, "error", err)
			h.send(client, protocol.EventError, protocol.ErrorEvent{
				Error: err.Error(),
				Code:  protocol.CodeInvalidPayload,
			})
			continue
		}

		h.events <- hubEvent{kind: hubMessage, client: client, env: env}
	}
}

func (h *Hub) writePump(client *WSClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleConnect runs inside the event loop.
func (h *Hub) handleConnect(client *WSClient) {
	sess := h.Sessions.Identify(client.Identity, client.ConnID, client.Username)
	client.Username = sess.Username
	h.clients[client.ConnID] = client
	metrics.Connections.Inc()

	slog.Info("WebSocket connected",
		"conn_id", client.ConnID,
		"identity", client.Identity,
		"username", client.Username,
	)

	// Seed the lobby view.
	h.send(client, protocol.EventRoomList, h.Rooms.Summaries())
}

// handleDisconnect runs inside the event loop. Per-connection FIFO
// ordering guarantees this is the last event seen for the client.
func (h *Hub) handleDisconnect(client *WSClient) {
	if _, ok := h.clients[client.ConnID]; !ok {
		return
	}
	h.leaveCurrentRoom(client)
	h.Sessions.Forget(client.ConnID)
	delete(h.clients, client.ConnID)
	close(client.Send)
	metrics.Connections.Dec()

	slog.Info("WebSocket disconnected",
		"conn_id", client.ConnID,
		"identity", client.Identity,
	)
}

// send marshals an outbound event and queues it for one client. The
// Send channel makes this safe from the read pump as well, which uses
// it for error replies to the sender.
func (h *Hub) send(client *WSClient, t protocol.EventType, v any) {
	data, err := protocol.Encode(t, v)
	if err != nil {
		slog.Error("Failed to marshal outbound event", "type", t, "error", err)
		return
	}
	select {
	case client.Send <- data:
	default:
		// Slow consumer; drop rather than stall the loop.
	}
}

func (h *Hub) sendError(client *WSClient, message, code string) {
	h.send(client, protocol.EventError, protocol.ErrorEvent{Error: message, Code: code})
}

// broadcastAll fans an event out to every connection.
func (h *Hub) broadcastAll(t protocol.EventType, v any) {
	data, err := protocol.Encode(t, v)
	if err != nil {
		slog.Error("Failed to marshal broadcast", "type", t, "error", err)
		return
	}
	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// broadcastRoom fans an event out to every member connection of a
// room, optionally excluding the sender's connection.
func (h *Hub) broadcastRoom(roomID string, t protocol.EventType, v any, excludeConnID string) {
	data, err := protocol.Encode(t, v)
	if err != nil {
		slog.Error("Failed to marshal room broadcast", "room_id", roomID, "type", t, "error", err)
		return
	}
	for _, client := range h.clients {
		if client.RoomID != roomID || client.ConnID == excludeConnID {
			continue
		}
		select {
		case client.Send <- data:
		default:
		}
	}
}

// currentRoom resolves the sender's room, if any.
func (h *Hub) currentRoom(client *WSClient) (*room.Room, bool) {
	if client.RoomID == "" {
		return nil, false
	}
	return h.Rooms.Get(client.RoomID)
}

// leaveCurrentRoom detaches the client from its room and tells the
// remaining members. No-op when the client is not in a room.
func (h *Hub) leaveCurrentRoom(client *WSClient) {
	r, ok := h.currentRoom(client)
	if !ok {
		client.RoomID = ""
		return
	}
	r.RemoveMember(client.Identity)
	h.broadcastRoom(r.ID, protocol.EventUserLeft, protocol.UserLeft{UserID: client.Identity}, client.ConnID)
	h.Sessions.LeaveRoom(client.Identity)
	client.RoomID = ""
}

package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/SriramKomma/collaborative-canvas/internal/canvas"
	"github.com/SriramKomma/collaborative-canvas/internal/room"
)

// EventType tags one message on the wire. The inbound set is closed;
// the hub dispatches over it exhaustively and anything outside it is a
// validation error.
type EventType string

// Inbound events.
const (
	EventCreateRoom     EventType = "create-room"
	EventJoinRoom       EventType = "join-room"
	EventLeaveRoom      EventType = "leave-room"
	EventDrawStart      EventType = "draw-start"
	EventDrawStream     EventType = "draw-stream"
	EventDrawEnd        EventType = "draw-end"
	EventUndo           EventType = "undo"
	EventRedo           EventType = "redo"
	EventClear          EventType = "clear"
	EventCursorMove     EventType = "cursor-move"
	EventHistoryReplace EventType = "history-replace"
	EventStateSync      EventType = "state-sync"
	EventPing           EventType = "ping"
)

// Outbound events.
const (
	EventRoomList       EventType = "room-list"
	EventInitRoom       EventType = "init-room"
	EventUserJoined     EventType = "user-joined"
	EventUserLeft       EventType = "user-left"
	EventLeftRoom       EventType = "left-room"
	EventActionAdded    EventType = "action-added"
	EventUserDrawing    EventType = "user-drawing"
	EventUserDrawingEnd EventType = "user-drawing-end"
	EventUndoAction     EventType = "undo-action"
	EventCursorUpdate   EventType = "cursor-update"
	EventPong           EventType = "pong"
	EventError          EventType = "error"
)

var inbound = map[EventType]bool{
	EventCreateRoom:     true,
	EventJoinRoom:       true,
	EventLeaveRoom:      true,
	EventDrawStart:      true,
	EventDrawStream:     true,
	EventDrawEnd:        true,
	EventUndo:           true,
	EventRedo:           true,
	EventClear:          true,
	EventCursorMove:     true,
	EventHistoryReplace: true,
	EventStateSync:      true,
	EventPing:           true,
}

// Inbound reports whether a client may send this event type.
func (t EventType) Inbound() bool {
	return inbound[t]
}

// Envelope is the wire frame: a tag plus the event payload.
type Envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

var ErrUnknownEvent = errors.New("unknown event type")

// DecodeInbound parses a raw frame and rejects anything outside the
// inbound vocabulary.
func DecodeInbound(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("malformed envelope: %w", err)
	}
	if !env.Type.Inbound() {
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
	return env, nil
}

// Encode marshals an outbound event.
func Encode(t EventType, v any) ([]byte, error) {
	var data json.RawMessage
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return json.Marshal(Envelope{Type: t, Data: data})
}

var roomIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidRoomID reports whether a caller-chosen room id matches the
// restricted character set.
func ValidRoomID(id string) bool {
	return roomIDPattern.MatchString(id)
}

// RoomRequest carries the target room of create-room and join-room.
type RoomRequest struct {
	RoomID string `json:"roomId"`
}

// DrawStart announces a new in-progress stroke.
type DrawStart struct {
	Point canvas.Point `json:"point"`
	Kind  canvas.Kind  `json:"tool"`
	Color string       `json:"color"`
	Width float64      `json:"width"`
}

// DrawStream is a throttled batch of points for the sender's staged
// stroke.
type DrawStream struct {
	Points []canvas.Point `json:"points"`
	Kind   canvas.Kind    `json:"tool"`
	Color  string         `json:"color"`
	Width  float64        `json:"width"`
}

// CursorMove is the sender's latest pointer position.
type CursorMove struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Ping carries the client's send timestamp in Unix milliseconds.
type Ping struct {
	Sent int64 `json:"sent"`
}

// InitRoom is the full-state payload delivered to a joining member.
type InitRoom struct {
	RoomID  string          `json:"roomId"`
	Users   []room.Member   `json:"users"`
	History []canvas.Action `json:"history"`
}

// StateSync is the resynchronization payload; Users is omitted when
// only the history changed (history-replace broadcast).
type StateSync struct {
	RoomID  string          `json:"roomId,omitempty"`
	Users   []room.Member   `json:"users,omitempty"`
	History []canvas.Action `json:"history"`
}

// DrawStartBroadcast relays a draw-start to other members with the
// author attached.
type DrawStartBroadcast struct {
	UserID string `json:"userId"`
	DrawStart
}

// DrawStreamBroadcast relays a stream batch with the author attached.
type DrawStreamBroadcast struct {
	UserID string `json:"userId"`
	DrawStream
}

// UserDrawing flags a member as actively drawing.
type UserDrawing struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Color    string `json:"color"`
}

// UserDrawingEnd clears the drawing flag for a member.
type UserDrawingEnd struct {
	UserID string `json:"userId"`
}

// UserLeft names the identity that left the room.
type UserLeft struct {
	UserID string `json:"userId"`
}

// CursorUpdate relays a member's cursor position.
type CursorUpdate struct {
	UserID string       `json:"userId"`
	Pos    canvas.Point `json:"pos"`
}

// UndoAction names the committed action removed by an undo.
type UndoAction struct {
	ActionID string `json:"actionId"`
}

// ErrorEvent is a named validation error surfaced only to the
// originating connection.
type ErrorEvent struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error codes for validation failures.
const (
	CodeInvalidRoomID  = "INVALID_ROOM_ID"
	CodeRoomExists     = "ROOM_EXISTS"
	CodeRoomNotFound   = "ROOM_NOT_FOUND"
	CodeRateLimited    = "RATE_LIMITED"
	CodeInvalidPayload = "INVALID_PAYLOAD"
	CodeInvalidAction  = "INVALID_ACTION"
	CodeNotInRoom      = "NOT_IN_ROOM"
)

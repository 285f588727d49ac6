package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/SriramKomma/collaborative-canvas/internal/canvas"
	"github.com/SriramKomma/collaborative-canvas/internal/metrics"
	"github.com/SriramKomma/collaborative-canvas/internal/protocol"
)

// dispatch handles one inbound event inside the hub loop. Exactly one
// event is processed per frame; all effects and fan-out happen
// synchronously here, which is what gives the room its ordering
// guarantee.
func (h *Hub) dispatch(client *WSClient, env protocol.Envelope) {
	if _, ok := h.clients[client.ConnID]; !ok {
		return
	}
	metrics.EventsTotal.WithLabelValues(string(env.Type)).Inc()

	switch env.Type {
	case protocol.EventCreateRoom:
		h.handleCreateRoom(client, env.Data)
	case protocol.EventJoinRoom:
		h.handleJoinRoom(client, env.Data)
	case protocol.EventLeaveRoom:
		h.leaveCurrentRoom(client)
		h.send(client, protocol.EventLeftRoom, nil)
	case protocol.EventDrawStart:
		h.handleDrawStart(client, env.Data)
	case protocol.EventDrawStream:
		h.handleDrawStream(client, env.Data)
	case protocol.EventDrawEnd:
		h.handleDrawEnd(client, env.Data)
	case protocol.EventUndo:
		h.handleUndo(client)
	case protocol.EventRedo:
		h.handleRedo(client)
	case protocol.EventClear:
		h.handleClear(client)
	case protocol.EventCursorMove:
		h.handleCursorMove(client, env.Data)
	case protocol.EventHistoryReplace:
		h.handleHistoryReplace(client, env.Data)
	case protocol.EventStateSync:
		h.handleStateSync(client)
	case protocol.EventPing:
		h.handlePing(client, env.Data)
	}
}

func (h *Hub) handleCreateRoom(client *WSClient, data json.RawMessage) {
	var req protocol.RoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendError(client, "Invalid create-room payload", protocol.CodeInvalidPayload)
		return
	}
	if !protocol.ValidRoomID(req.RoomID) {
		h.sendError(client, "Invalid room ID", protocol.CodeInvalidRoomID)
		return
	}
	if !h.Sessions.CanCreateRoom(client.Identity, h.opts.RoomCreateInterval) {
		h.sendError(client, "Please wait before creating another room", protocol.CodeRateLimited)
		return
	}
	if h.Rooms.Has(req.RoomID) {
		h.sendError(client, "Room already exists", protocol.CodeRoomExists)
		return
	}

	h.Rooms.Create(req.RoomID)
	h.Sessions.RecordRoomCreate(client.Identity)
	slog.Info("Room created", "room_id", req.RoomID, "identity", client.Identity)
	metrics.Rooms.Set(float64(len(h.Rooms.Summaries())))
	h.broadcastAll(protocol.EventRoomList, h.Rooms.Summaries())
}

func (h *Hub) handleJoinRoom(client *WSClient, data json.RawMessage) {
	var req protocol.RoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendError(client, "Invalid join-room payload", protocol.CodeInvalidPayload)
		return
	}
	r, ok := h.Rooms.Get(req.RoomID)
	if !ok {
		h.sendError(client, "Room not found", protocol.CodeRoomNotFound)
		return
	}

	h.leaveCurrentRoom(client)

	h.Sessions.JoinRoom(client.Identity, r.ID)
	client.RoomID = r.ID

	sess, _ := h.Sessions.Get(client.Identity)
	member := r.AddMember(client.Identity, sess.Username, sess.Color)

	h.send(client, protocol.EventInitRoom, protocol.InitRoom{
		RoomID:  r.ID,
		Users:   r.Members(),
		History: r.History(),
	})
	h.broadcastRoom(r.ID, protocol.EventUserJoined, member, client.ConnID)
	slog.Debug("User joined room", "room_id", r.ID, "identity", client.Identity)
}

func (h *Hub) handleDrawStart(client *WSClient, data json.RawMessage) {
	r, ok := h.currentRoom(client)
	if !ok {
		return
	}
	var req protocol.DrawStart
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendError(client, "Invalid draw-start payload", protocol.CodeInvalidPayload)
		return
	}
	if !req.Kind.Valid() {
		h.sendError(client, "Unknown tool", protocol.CodeInvalidPayload)
		return
	}

	r.StageStroke(client.Identity, req.Kind, req.Color, req.Width)
	r.SetDrawing(client.Identity, true)

	h.broadcastRoom(r.ID, protocol.EventDrawStart, protocol.DrawStartBroadcast{
		UserID:    client.Identity,
		DrawStart: req,
	}, client.ConnID)

	sess, _ := h.Sessions.Get(client.Identity)
	h.broadcastRoom(r.ID, protocol.EventUserDrawing, protocol.UserDrawing{
		UserID:   client.Identity,
		Username: sess.Username,
		Color:    sess.Color,
	}, "")
}

func (h *Hub) handleDrawStream(client *WSClient, data json.RawMessage) {
	r, ok := h.currentRoom(client)
	if !ok {
		return
	}
	var req protocol.DrawStream
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendError(client, "Invalid draw-stream payload", protocol.CodeInvalidPayload)
		return
	}

	// A stream with no staged stroke is a stray event racing a commit;
	// drop it without alarming anyone.
	if !r.StreamStroke(client.Identity, req.Points) {
		return
	}

	h.broadcastRoom(r.ID, protocol.EventDrawStream, protocol.DrawStreamBroadcast{
		UserID:     client.Identity,
		DrawStream: req,
	}, client.ConnID)
}

func (h *Hub) handleDrawEnd(client *WSClient, data json.RawMessage) {
	r, ok := h.currentRoom(client)
	if !ok {
		return
	}
	var action canvas.Action
	if err := json.Unmarshal(data, &action); err != nil {
		h.sendError(client, "Invalid draw-end payload", protocol.CodeInvalidPayload)
		return
	}
	action.AuthorID = client.Identity
	if err := action.Validate(); err != nil {
		h.sendError(client, err.Error(), protocol.CodeInvalidAction)
		return
	}

	committed := r.Commit(action)
	r.FinishStroke(client.Identity)
	r.SetDrawing(client.Identity, false)

	if committed {
		metrics.ActionsCommitted.Inc()
		h.broadcastRoom(r.ID, protocol.EventActionAdded, action, "")
	}
	h.broadcastRoom(r.ID, protocol.EventUserDrawingEnd, protocol.UserDrawingEnd{UserID: client.Identity}, "")
}

func (h *Hub) handleUndo(client *WSClient) {
	r, ok := h.currentRoom(client)
	if !ok {
		return
	}
	if a, ok := r.Undo(); ok {
		h.broadcastRoom(r.ID, protocol.EventUndoAction, protocol.UndoAction{ActionID: a.ID}, "")
	}
}

func (h *Hub) handleRedo(client *WSClient) {
	r, ok := h.currentRoom(client)
	if !ok {
		return
	}
	if a, ok := r.Redo(); ok {
		h.broadcastRoom(r.ID, protocol.EventActionAdded, a, "")
	}
}

func (h *Hub) handleClear(client *WSClient) {
	r, ok := h.currentRoom(client)
	if !ok {
		return
	}
	r.ReplaceHistory(nil)
	h.broadcastRoom(r.ID, protocol.EventClear, nil, "")
}

func (h *Hub) handleCursorMove(client *WSClient, data json.RawMessage) {
	r, ok := h.currentRoom(client)
	if !ok {
		return
	}
	var req protocol.CursorMove
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendError(client, "Invalid cursor-move payload", protocol.CodeInvalidPayload)
		return
	}

	pos := canvas.Point{X: req.X, Y: req.Y}
	if !r.UpdateCursor(client.Identity, pos) {
		return
	}
	h.broadcastRoom(r.ID, protocol.EventCursorUpdate, protocol.CursorUpdate{
		UserID: client.Identity,
		Pos:    pos,
	}, client.ConnID)
}

func (h *Hub) handleHistoryReplace(client *WSClient, data json.RawMessage) {
	r, ok := h.currentRoom(client)
	if !ok {
		return
	}
	var actions []canvas.Action
	if err := json.Unmarshal(data, &actions); err != nil {
		h.sendError(client, "History must be an array of actions", protocol.CodeInvalidPayload)
		return
	}

	r.ReplaceHistory(actions)
	h.broadcastRoom(r.ID, protocol.EventStateSync, protocol.StateSync{History: r.History()}, "")
	slog.Info("Room history replaced", "room_id", r.ID, "identity", client.Identity, "actions", len(actions))
}

func (h *Hub) handleStateSync(client *WSClient) {
	r, ok := h.currentRoom(client)
	if !ok {
		return
	}
	h.send(client, protocol.EventStateSync, protocol.StateSync{
		RoomID:  r.ID,
		Users:   r.Members(),
		History: r.History(),
	})
}

func (h *Hub) handlePing(client *WSClient, data json.RawMessage) {
	var req protocol.Ping
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			h.sendError(client, "Invalid ping payload", protocol.CodeInvalidPayload)
			return
		}
	}
	h.send(client, protocol.EventPong, protocol.Ping{Sent: req.Sent})
}

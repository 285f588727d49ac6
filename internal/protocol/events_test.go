package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeInboundAcceptsKnownEvents(t *testing.T) {
	env, err := DecodeInbound([]byte(`{"type":"join-room","data":{"roomId":"r1"}}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if env.Type != EventJoinRoom {
		t.Fatalf("type = %q", env.Type)
	}
	var req RoomRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		t.Fatalf("payload unmarshal: %v", err)
	}
	if req.RoomID != "r1" {
		t.Fatalf("roomId = %q", req.RoomID)
	}
}

func TestDecodeInboundRejectsUnknownType(t *testing.T) {
	_, err := DecodeInbound([]byte(`{"type":"format-disk"}`))
	if !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestDecodeInboundRejectsOutboundType(t *testing.T) {
	// Server-only events must not be accepted from clients.
	_, err := DecodeInbound([]byte(`{"type":"action-added"}`))
	if !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
}

func TestDecodeInboundRejectsMalformedJSON(t *testing.T) {
	if _, err := DecodeInbound([]byte(`{"type":`)); err == nil {
		t.Fatalf("malformed frame accepted")
	}
}

func TestEncodeProducesTaggedEnvelope(t *testing.T) {
	b, err := Encode(EventPong, Ping{Sent: 42})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != EventPong {
		t.Fatalf("type = %q", env.Type)
	}
	var p Ping
	if err := json.Unmarshal(env.Data, &p); err != nil || p.Sent != 42 {
		t.Fatalf("payload round trip failed: %v %v", p, err)
	}
}

func TestEncodeNilPayloadOmitsData(t *testing.T) {
	b, err := Encode(EventLeftRoom, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(b) != `{"type":"left-room"}` {
		t.Fatalf("frame = %s", b)
	}
}

func TestValidRoomID(t *testing.T) {
	for _, id := range []string{"global", "room-1", "Room_2", "a"} {
		if !ValidRoomID(id) {
			t.Fatalf("%q rejected", id)
		}
	}
	for _, id := range []string{"", "room 1", "room/1", "sala!", "röom"} {
		if ValidRoomID(id) {
			t.Fatalf("%q accepted", id)
		}
	}
}

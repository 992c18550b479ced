package control

import (
	"encoding/json"
	"testing"
)

// TestProtocol_Spotlight verifies decoding a spotlight message.
func TestProtocol_Spotlight(t *testing.T) {
	var msg Message
	if err := json.Unmarshal([]byte(`{"t":"spotlight","id":4,"names":"\\\\.\\DISPLAY1,\\\\.\\DISPLAY3"}`), &msg); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if msg.T != TypeSpotlight || msg.ID != 4 || msg.Names != `\\.\DISPLAY1,\\.\DISPLAY3` {
		t.Fatalf("unexpected message: %+v", msg)
	}
	names := messageNames(msg)
	if len(names) != 2 || names[1] != `\\.\DISPLAY3` {
		t.Fatalf("unexpected names: %q", names)
	}
}

// TestProtocol_List verifies an explicit list wins over the CSV form.
func TestProtocol_List(t *testing.T) {
	var msg Message
	if err := json.Unmarshal([]byte(`{"t":"spotlight","names":"X","list":["DP-1","DP-2"]}`), &msg); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	names := messageNames(msg)
	if len(names) != 2 || names[0] != "DP-1" {
		t.Fatalf("unexpected names: %q", names)
	}
}

// TestProtocol_EmptyNames verifies an empty spotlight keeps nothing.
func TestProtocol_EmptyNames(t *testing.T) {
	if names := messageNames(Message{T: TypeSpotlight}); names != nil {
		t.Fatalf("expected no names, got %q", names)
	}
}

// TestProtocol_ReplyOmitsEmptyError verifies ok replies stay compact.
func TestProtocol_ReplyOmitsEmptyError(t *testing.T) {
	data, err := json.Marshal(Reply{T: TypeOK})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"t":"ok"}` {
		t.Fatalf("unexpected reply: %s", data)
	}
}

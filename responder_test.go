package inspectbridge

import (
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestResponder_Success(t *testing.T) {
	transport := NewInMemoryTransport()
	r := newResponder(3, transport, zaptest.NewLogger(t))

	r.Success(map[string]any{"plugins": []any{"p1"}})

	last := transport.LastSent()
	if last == nil || last["id"] != int64(3) {
		t.Fatalf("sent = %v, want reply with id 3", last)
	}
	if _, ok := last["success"]; !ok {
		t.Errorf("sent = %v, want success key", last)
	}
}

func TestResponder_Error(t *testing.T) {
	transport := NewInMemoryTransport()
	r := newResponder(4, transport, zaptest.NewLogger(t))

	r.Error(map[string]any{"message": "nope"})

	last := transport.LastSent()
	if last == nil || last["id"] != int64(4) {
		t.Fatalf("sent = %v, want reply with id 4", last)
	}
	if _, ok := last["error"]; !ok {
		t.Errorf("sent = %v, want error key", last)
	}
}

func TestResponder_SecondCompletionIsDropped(t *testing.T) {
	transport := NewInMemoryTransport()
	r := newResponder(5, transport, zaptest.NewLogger(t))

	r.Success("first")
	r.Success("again")
	r.Error("and again")

	sent := transport.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want exactly 1", len(sent))
	}
	if sent[0]["success"] != "first" {
		t.Errorf("sent = %v, want the first completion only", sent[0])
	}
}

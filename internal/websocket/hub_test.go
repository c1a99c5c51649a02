package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage(7, "ingredient", "added", 42)
	if msg.Type != "ingredient_added" {
		t.Errorf("type = %q, want %q", msg.Type, "ingredient_added")
	}
	if msg.HouseholdID != 7 || msg.ID != 42 {
		t.Errorf("msg = %+v", msg)
	}
}

func TestBroadcastScopedToHousehold(t *testing.T) {
	hub := testHub()

	inHousehold := NewClient(hub, nil, 1)
	otherHousehold := NewClient(hub, nil, 2)
	hub.Register(inHousehold)
	hub.Register(otherHousehold)

	hub.Broadcast(NewMessage(1, "member", "added", 5))

	select {
	case data := <-inHousehold.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.HouseholdID != 1 {
			t.Errorf("household id = %d, want 1", msg.HouseholdID)
		}
	default:
		t.Fatal("client in household 1 should have received the message")
	}

	select {
	case <-otherHousehold.send:
		t.Fatal("client in household 2 should not receive household 1 messages")
	default:
	}
}

func TestBroadcastFullBufferDrops(t *testing.T) {
	hub := testHub()
	c := NewClient(hub, nil, 1)
	hub.Register(c)

	// Overfill the buffer; extra messages are dropped, never blocking
	for i := 0; i < sendBufferSize+5; i++ {
		hub.Broadcast(NewMessage(1, "ingredient", "added", int64(i)))
	}

	if got := len(c.send); got != sendBufferSize {
		t.Errorf("buffered = %d, want %d", got, sendBufferSize)
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	hub := testHub()
	c := NewClient(hub, nil, 1)
	hub.Register(c)

	hub.Unregister(c)

	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed after unregister")
	}

	// Unregistering twice must not panic on a closed channel
	hub.Unregister(c)
}

func TestClientCount(t *testing.T) {
	hub := testHub()

	a := NewClient(hub, nil, 1)
	b := NewClient(hub, nil, 1)
	c := NewClient(hub, nil, 2)
	hub.Register(a)
	hub.Register(b)
	hub.Register(c)

	if got := hub.ClientCount(1); got != 2 {
		t.Errorf("count(1) = %d, want 2", got)
	}
	if got := hub.ClientCount(2); got != 1 {
		t.Errorf("count(2) = %d, want 1", got)
	}
	if got := hub.ClientCount(3); got != 0 {
		t.Errorf("count(3) = %d, want 0", got)
	}
}

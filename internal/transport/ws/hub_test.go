package ws

import (
	"sync"
	"testing"
)

type fakeConn struct {
	id     string
	userID int64
	alias  string

	mu     sync.Mutex
	sent   []Message
	closed bool
}

func (c *fakeConn) ID() string    { return c.id }
func (c *fakeConn) UserID() int64 { return c.userID }
func (c *fakeConn) Alias() string { return c.alias }

func (c *fakeConn) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.sent))
	copy(out, c.sent)
	return out
}

func TestHubBroadcastExceptSkipsSender(t *testing.T) {
	h := NewHub()
	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}
	c := &fakeConn{id: "c"}
	for _, conn := range []*fakeConn{a, b, c} {
		h.Register(conn)
		h.Join("room-1", conn)
	}

	h.BroadcastExcept("room-1", "a", Message{Type: TypeNewMessage})

	if got := len(a.messages()); got != 0 {
		t.Fatalf("sender received %d messages, want 0", got)
	}
	for _, conn := range []*fakeConn{b, c} {
		if got := len(conn.messages()); got != 1 {
			t.Fatalf("conn %s received %d messages, want 1", conn.id, got)
		}
	}
}

func TestHubBroadcastScopedToRoom(t *testing.T) {
	h := NewHub()
	in := &fakeConn{id: "in"}
	out := &fakeConn{id: "out"}
	h.Register(in)
	h.Register(out)
	h.Join("room-1", in)
	h.Join("room-2", out)

	h.Broadcast("room-1", Message{Type: TypeReaction})

	if len(in.messages()) != 1 {
		t.Fatalf("room member did not receive broadcast")
	}
	if len(out.messages()) != 0 {
		t.Fatalf("broadcast leaked to another room")
	}
}

func TestHubSendTo(t *testing.T) {
	h := NewHub()
	a := &fakeConn{id: "a"}
	h.Register(a)

	if !h.SendTo("a", Message{Type: TypeOffer}) {
		t.Fatalf("SendTo known conn = false")
	}
	if h.SendTo("gone", Message{Type: TypeOffer}) {
		t.Fatalf("SendTo unknown conn = true")
	}
	if len(a.messages()) != 1 {
		t.Fatalf("direct message not delivered")
	}
}

func TestHubLeaveAndEvict(t *testing.T) {
	h := NewHub()
	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}
	h.Register(a)
	h.Register(b)
	h.Join("room-1", a)
	h.Join("room-1", b)

	h.Leave("room-1", a)
	if got := h.RoomSize("room-1"); got != 1 {
		t.Fatalf("RoomSize after leave = %d, want 1", got)
	}

	h.Evict("room-1")
	if got := h.RoomSize("room-1"); got != 0 {
		t.Fatalf("RoomSize after evict = %d, want 0", got)
	}

	// evicted conns stay addressable for direct frames
	if !h.SendTo("b", Message{Type: TypeRoomEnded}) {
		t.Fatalf("evicted conn no longer addressable")
	}
}

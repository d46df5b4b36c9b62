package ws

import (
	"sync"
)

type Conn interface {
	ID() string
	UserID() int64
	Alias() string
	Send(msg Message) error
	Close() error
}

// Hub indexes live connections by room (broadcast groups) and by connection
// id (direct signaling). Rooms are independent; there is no cross-room state.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Conn // roomID -> connID -> conn
	byID  map[string]Conn
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[string]Conn),
		byID:  make(map[string]Conn),
	}
}

// Register makes the connection addressable by id. Room membership is
// separate: it starts at Join and ends at Leave or Evict.
func (h *Hub) Register(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byID[c.ID()] = c
}

func (h *Hub) Unregister(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.byID, c.ID())
}

func (h *Hub) Join(roomID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rs, ok := h.rooms[roomID]
	if !ok {
		rs = make(map[string]Conn)
		h.rooms[roomID] = rs
	}
	rs[c.ID()] = c
}

func (h *Hub) Leave(roomID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rs, ok := h.rooms[roomID]; ok {
		delete(rs, c.ID())
		if len(rs) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) Broadcast(roomID string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.rooms[roomID] {
		_ = c.Send(msg) // best-effort
	}
}

// BroadcastExcept delivers to every room member but the originating
// connection. This is the delivery rule that keeps senders from receiving
// their own fan-out.
func (h *Hub) BroadcastExcept(roomID, exceptID string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, c := range h.rooms[roomID] {
		if id == exceptID {
			continue
		}
		_ = c.Send(msg)
	}
}

// Member reports whether the connection is in the room's broadcast group.
func (h *Hub) Member(roomID, connID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[roomID][connID]
	return ok
}

// SendTo delivers to one connection. Returns false when the destination is
// gone; the message is dropped, never queued.
func (h *Hub) SendTo(connID string, msg Message) bool {
	h.mu.RLock()
	c, ok := h.byID[connID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	_ = c.Send(msg)
	return true
}

// Evict clears the room's broadcast group. Connections stay registered by id
// so in-flight direct messages still resolve until they disconnect.
func (h *Hub) Evict(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, roomID)
}

func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

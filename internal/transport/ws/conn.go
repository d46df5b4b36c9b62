package ws

import (
	"time"

	"github.com/gorilla/websocket"
)

// wsConn wraps one websocket connection. The user id is fixed at
// authentication time; roomID/alias are set by the connection's own read
// loop when it joins a room, as are the chat-guard fields. Nothing outside
// that loop writes to them.
type wsConn struct {
	conn   *websocket.Conn
	id     string
	userID int64

	roomID string
	alias  string

	// chat relay guards
	lastMsgAt time.Time
	lastMsg   string

	sendMu chan struct{}
	closed chan struct{}
}

func newWsConn(c *websocket.Conn, id string, userID int64) *wsConn {
	return &wsConn{
		conn:   c,
		id:     id,
		userID: userID,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(msg Message) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}

func (c *wsConn) ID() string    { return c.id }
func (c *wsConn) UserID() int64 { return c.userID }
func (c *wsConn) Alias() string { return c.alias }

package rtc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/abhishekkumarcoder21/random-meet/internal/transport/ws"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
)

// Events are the application-facing callbacks. All of them are optional
// and are invoked from the client's read loop (or a call timer), so they
// must not block. OnIncomingCall may call Accept or Decline; the others
// must not call back into the call session.
type Events struct {
	OnRoomState  func(ws.RoomStatePayload)
	OnUserJoined func(alias string, participantCount int)
	OnUserLeft   func(alias string)
	OnMessage    func(ws.NewMessagePayload)
	OnReaction   func(alias, emoji string)
	OnWarning    func(message string, secondsLeft int)
	OnRoomEnded  func(message, prompt string)
	OnNotice     func(text string) // server-sent error-message frames

	OnCallState    func(CallState)
	OnCallError    func(reason string)
	OnIncomingCall func(IncomingCall)
	OnRemoteTrack  func(peerID, alias string, track *webrtc.TrackRemote)
	OnPeerGone     func(peerID string)
	OnMediaToggle  func(peerID, kind string, enabled bool)

	OnDisconnect func(err error)
}

// Client is one authenticated connection to the session orchestrator. It
// joins a single room, relays chat, and owns the call session for that
// room.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu       sync.Mutex
	socketID string
	roomID   string

	events *Events
	call   *CallSession

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects and authenticates in one step: the access token rides the
// query string and is verified before the upgrade completes.
func Dial(ctx context.Context, baseURL, token string, media Media, events *Events) (*Client, error) {
	if events == nil {
		events = &Events{}
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial: %w", err)
	}

	c := &Client{
		conn:   conn,
		events: events,
		done:   make(chan struct{}),
	}
	c.call = newCallSession(c, media, events, c.SocketID, c.RoomID)

	go c.readLoop()
	return c, nil
}

// SocketID is the server-assigned connection id, known after the first
// room-state snapshot.
func (c *Client) SocketID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.socketID
}

func (c *Client) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

// Call exposes the room's call session.
func (c *Client) Call() *CallSession {
	return c.call
}

func (c *Client) JoinRoom(roomID string) error {
	c.mu.Lock()
	c.roomID = roomID
	c.mu.Unlock()
	return c.Emit(ws.TypeJoinRoom, ws.JoinRoomPayload{RoomID: roomID})
}

func (c *Client) SendMessage(content string) error {
	return c.Emit(ws.TypeSendMessage, ws.SendMessagePayload{RoomID: c.RoomID(), Content: content})
}

func (c *Client) SendReaction(emoji string) error {
	return c.Emit(ws.TypeSendReaction, ws.SendReactionPayload{RoomID: c.RoomID(), Emoji: emoji})
}

// Emit writes one event frame. Writes are serialized; gorilla allows a
// single concurrent writer.
func (c *Client) Emit(eventType string, payload any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(ws.Message{Type: eventType, Payload: payload})
}

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.call.teardown()
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// inboundFrame mirrors ws.Message but defers payload decoding until the
// event type is known.
type inboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (c *Client) readLoop() {
	defer func() {
		c.call.teardown()
	}()
	for {
		var frame inboundFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			select {
			case <-c.done:
				return // closed locally
			default:
			}
			if c.events.OnDisconnect != nil {
				c.events.OnDisconnect(err)
			}
			return
		}
		c.dispatch(frame)
	}
}

func (c *Client) dispatch(frame inboundFrame) {
	switch frame.Type {
	case ws.TypeRoomState:
		var p ws.RoomStatePayload
		if !decodeFrame(frame, &p) {
			return
		}
		c.mu.Lock()
		c.socketID = p.SocketID
		c.mu.Unlock()
		if c.events.OnRoomState != nil {
			c.events.OnRoomState(p)
		}

	case ws.TypeUserJoined:
		var p ws.UserJoinedPayload
		if decodeFrame(frame, &p) && c.events.OnUserJoined != nil {
			c.events.OnUserJoined(p.Alias, p.ParticipantCount)
		}

	case ws.TypeUserLeft:
		var p ws.UserLeftPayload
		if decodeFrame(frame, &p) && c.events.OnUserLeft != nil {
			c.events.OnUserLeft(p.Alias)
		}

	case ws.TypeNewMessage:
		var p ws.NewMessagePayload
		if decodeFrame(frame, &p) && c.events.OnMessage != nil {
			c.events.OnMessage(p)
		}

	case ws.TypeReaction:
		var p ws.ReactionPayload
		if decodeFrame(frame, &p) && c.events.OnReaction != nil {
			c.events.OnReaction(p.Alias, p.Emoji)
		}

	case ws.TypeRoomWarning:
		var p ws.RoomWarningPayload
		if decodeFrame(frame, &p) && c.events.OnWarning != nil {
			c.events.OnWarning(p.Message, p.SecondsLeft)
		}

	case ws.TypeRoomEnded:
		var p ws.RoomEndedPayload
		if decodeFrame(frame, &p) {
			c.call.teardown()
			if c.events.OnRoomEnded != nil {
				c.events.OnRoomEnded(p.Message, p.Prompt)
			}
		}

	case ws.TypeError:
		var p ws.ErrorPayload
		if decodeFrame(frame, &p) && c.events.OnNotice != nil {
			c.events.OnNotice(p.Error)
		}

	case ws.TypeCallInvite:
		var p ws.CallInviteEvent
		if decodeFrame(frame, &p) {
			c.call.HandleInvite(p)
		}

	case ws.TypeCallAccepted:
		var p ws.CallSignalEvent
		if decodeFrame(frame, &p) {
			c.call.HandleAccepted(p)
		}

	case ws.TypeCallDeclined:
		var p ws.CallSignalEvent
		if decodeFrame(frame, &p) {
			c.call.HandleDeclined(p)
		}

	case ws.TypeCallCancelled:
		var p ws.CallSignalEvent
		if decodeFrame(frame, &p) {
			c.call.HandleCancelled(p)
		}

	case ws.TypeCallEnd:
		var p ws.CallSignalEvent
		if decodeFrame(frame, &p) {
			c.call.HandleEnded(p)
		}

	case ws.TypeOffer:
		var p ws.OfferEvent
		if decodeFrame(frame, &p) {
			c.call.HandleOffer(p)
		}

	case ws.TypeAnswer:
		var p ws.AnswerEvent
		if decodeFrame(frame, &p) {
			c.call.HandleAnswer(p)
		}

	case ws.TypeICECandidate:
		var p ws.ICECandidateEvent
		if decodeFrame(frame, &p) {
			c.call.HandleCandidate(p)
		}

	case ws.TypePeerMediaToggle:
		var p ws.PeerMediaToggleEvent
		if decodeFrame(frame, &p) {
			c.call.HandleMediaToggle(p)
		}

	case ws.TypePeerDisconnected:
		var p ws.PeerDisconnectedEvent
		if decodeFrame(frame, &p) {
			c.call.HandlePeerDisconnected(p.FromSocketID)
		}

	default:
		slog.Debug("unhandled event", "type", frame.Type)
	}
}

func decodeFrame(frame inboundFrame, dst any) bool {
	if err := json.Unmarshal(frame.Payload, dst); err != nil {
		slog.Debug("decode payload", "type", frame.Type, "err", err)
		return false
	}
	return true
}

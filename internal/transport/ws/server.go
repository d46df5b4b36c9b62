package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/abhishekkumarcoder21/random-meet/internal/domain"
	"github.com/abhishekkumarcoder21/random-meet/internal/security"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type MemberSvc interface {
	Participant(ctx context.Context, roomID string, userID int64) (*domain.Participant, error)
	ListParticipants(ctx context.Context, roomID string) ([]domain.Participant, error)
	RewardParticipants(ctx context.Context, roomID string) error
}

type ChatSvc interface {
	Save(ctx context.Context, roomID string, userID int64, content string) (*domain.ChatMessage, error)
	Recent(ctx context.Context, roomID string) ([]domain.ChatMessage, error)
}

type RoomSvc interface {
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	CloseRoom(ctx context.Context, id string) (bool, error)
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	timers   *TimerRegistry
	verifier *security.Verifier

	roomSvc   RoomSvc
	memberSvc MemberSvc
	chatSvc   ChatSvc

	pingEvery time.Duration
}

func NewServer(hub *Hub, verifier *security.Verifier, room RoomSvc, member MemberSvc, chat ChatSvc) *Server {
	return &Server{
		hub:       hub,
		timers:    NewTimerRegistry(),
		verifier:  verifier,
		roomSvc:   room,
		memberSvc: member,
		chatSvc:   chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint: GET /ws?token=...
// The token is verified before the upgrade; a connection that fails here
// never reaches any room or call handling.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	claims, err := s.verifier.ParseAndValidate(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	uid, err := security.SubjectAsUserID(claims)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn, uuid.New().String(), uid)
	s.hub.Register(c)
	slog.Debug("ws connected", "conn", c.id, "user", uid)

	go s.writeLoop(r.Context(), c)
	s.readLoop(r.Context(), c)

	s.disconnect(c)
	slog.Debug("ws disconnected", "conn", c.id, "user", uid)
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue // malformed frames are dropped, never fatal
		}
		s.dispatch(ctx, c, msg)
	}
}

func (s *Server) dispatch(ctx context.Context, c *wsConn, msg Message) {
	switch msg.Type {
	case TypeJoinRoom:
		var p JoinRoomPayload
		if decode(msg.Payload, &p) == nil {
			s.handleJoinRoom(ctx, c, p)
		}
	case TypeSendMessage:
		var p SendMessagePayload
		if decode(msg.Payload, &p) == nil {
			s.handleSendMessage(ctx, c, p)
		}
	case TypeSendReaction:
		var p SendReactionPayload
		if decode(msg.Payload, &p) == nil {
			s.handleSendReaction(c, p)
		}
	case TypeCallInvite:
		var p CallInvitePayload
		if decode(msg.Payload, &p) == nil {
			s.handleCallInvite(c, p)
		}
	case TypeCallAccept, TypeCallDecline, TypeCallCancel, TypeCallEnd:
		var p CallSignalPayload
		if decode(msg.Payload, &p) == nil {
			s.handleCallSignal(c, msg.Type, p)
		}
	case TypeOffer, TypeOfferDirect:
		var p OfferPayload
		if decode(msg.Payload, &p) == nil {
			s.handleOffer(c, msg.Type, p)
		}
	case TypeAnswer:
		var p AnswerPayload
		if decode(msg.Payload, &p) == nil {
			s.handleAnswer(c, p)
		}
	case TypeICECandidate:
		var p ICECandidatePayload
		if decode(msg.Payload, &p) == nil {
			s.handleICECandidate(c, p)
		}
	case TypeToggleMedia:
		var p ToggleMediaPayload
		if decode(msg.Payload, &p) == nil {
			s.handleToggleMedia(c, p)
		}
	default:
		// ignore
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

// --- helpers ---

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/abhishekkumarcoder21/random-meet/internal/domain"
	"github.com/abhishekkumarcoder21/random-meet/internal/service"
	httpmw "github.com/abhishekkumarcoder21/random-meet/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

// TimerArmer is the session manager's hook for the one REST action that can
// activate a room: when the second join flips it active, the timer must be
// armed even before anyone opens a websocket.
type TimerArmer interface {
	ArmRoomTimer(room *domain.Room)
}

type ChatReader interface {
	Recent(ctx context.Context, roomID string) ([]domain.ChatMessage, error)
}

type Handler struct {
	roomSvc   *service.RoomService
	memberSvc *service.MemberService
	chat      ChatReader
	timers    TimerArmer
}

func NewHandler(room *service.RoomService, member *service.MemberService, chat ChatReader, timers TimerArmer) *Handler {
	return &Handler{
		roomSvc:   room,
		memberSvc: member,
		chat:      chat,
		timers:    timers,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /api/rooms
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.roomSvc.ListOpen(r.Context())
	if err != nil {
		slog.Error("handler.ListRooms:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to list rooms"})
		return
	}

	resp := RoomsListResponse{Rooms: make([]RoomItem, 0, len(rooms))}
	for _, rm := range rooms {
		parts, err := h.memberSvc.ListParticipants(r.Context(), rm.ID)
		if err != nil {
			slog.Error("handler.ListRooms participants:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to list rooms"})
			return
		}
		aliases := make([]string, 0, len(parts))
		for _, p := range parts {
			aliases = append(aliases, p.Alias)
		}
		resp.Rooms = append(resp.Rooms, RoomItem{
			ID:                  rm.ID,
			Type:                string(rm.Type),
			Title:               rm.Title,
			Prompt:              rm.Prompt,
			Rules:               rm.Rules,
			MaxParticipants:     rm.MaxParticipants,
			CurrentParticipants: len(parts),
			DurationMinutes:     rm.DurationMinutes,
			Status:              string(rm.Status),
			IsPremium:           rm.IsPremium,
			Participants:        aliases,
			StartedAt:           rm.StartedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// POST /api/rooms/{id}/join
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	userID := httpmw.UserIDFromCtx(r.Context())
	if userID == 0 {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing user id"})
		return
	}

	room, err := h.roomSvc.GetRoom(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Room not found"})
			return
		}
		slog.Error("handler.JoinRoom get:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to join room"})
		return
	}
	if room.Status == domain.StatusClosed {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Room is no longer available"})
		return
	}

	p, activated, err := h.memberSvc.JoinRoom(r.Context(), roomID, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomFull):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Room is full"})
		case errors.Is(err, domain.ErrRoomClosed):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Room is no longer available"})
		case errors.Is(err, domain.ErrRoomNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Room not found"})
		default:
			slog.Error("handler.JoinRoom:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to join room"})
		}
		return
	}

	if activated {
		// re-read for the startedAt the activation just set
		if fresh, err := h.roomSvc.GetRoom(r.Context(), roomID); err == nil {
			h.timers.ArmRoomTimer(fresh)
		} else {
			slog.Error("handler.JoinRoom refetch:", slog.Any("err", err))
		}
	}

	writeJSON(w, http.StatusOK, JoinRoomResponse{
		Message:         "Joined room",
		Alias:           p.Alias,
		RoomID:          room.ID,
		RoomType:        string(room.Type),
		Prompt:          room.Prompt,
		Rules:           room.Rules,
		DurationMinutes: room.DurationMinutes,
	})
}

// GET /api/rooms/{id}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	userID := httpmw.UserIDFromCtx(r.Context())

	room, err := h.roomSvc.GetRoom(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Room not found"})
			return
		}
		slog.Error("handler.GetRoom:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to get room"})
		return
	}

	parts, err := h.memberSvc.ListParticipants(r.Context(), roomID)
	if err != nil {
		slog.Error("handler.GetRoom participants:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to get room"})
		return
	}
	msgs, err := h.chat.Recent(r.Context(), roomID)
	if err != nil {
		slog.Error("handler.GetRoom messages:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to get room"})
		return
	}

	aliases := make(map[int64]string, len(parts))
	var myAlias *string
	pItems := make([]ParticipantDTO, 0, len(parts))
	for _, p := range parts {
		aliases[p.UserID] = p.Alias
		if p.UserID == userID {
			a := p.Alias
			myAlias = &a
		}
		pItems = append(pItems, ParticipantDTO{Alias: p.Alias, IsMe: p.UserID == userID})
	}

	mItems := make([]MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		alias, ok := aliases[m.UserID]
		if !ok {
			alias = "Unknown"
		}
		mItems = append(mItems, MessageDTO{
			ID:        m.ID,
			Content:   m.Content,
			Alias:     alias,
			IsMe:      m.UserID == userID,
			CreatedAt: m.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, RoomDetailResponse{
		ID:              room.ID,
		Type:            string(room.Type),
		Title:           room.Title,
		Prompt:          room.Prompt,
		Rules:           room.Rules,
		MaxParticipants: room.MaxParticipants,
		DurationMinutes: room.DurationMinutes,
		Status:          string(room.Status),
		StartedAt:       room.StartedAt,
		Participants:    pItems,
		Messages:        mItems,
		MyAlias:         myAlias,
	})
}

// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

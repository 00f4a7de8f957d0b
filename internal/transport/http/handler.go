package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/presence-relay/internal/domain"
	httpmw "github.com/cwrk-planet/presence-relay/internal/transport/http/middleware"
)

type ParticipantLister interface {
	Participants(ctx context.Context) ([]domain.Participant, error)
}

type Handler struct {
	relay ParticipantLister
}

func NewHandler(relay ParticipantLister) *Handler {
	return &Handler{relay: relay}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /api/participants
func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	ps, err := h.relay.Participants(r.Context())
	if err != nil {
		httpmw.L(r.Context()).Error("handler.ListParticipants:", slog.Any("err", err))
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "relay unavailable"})
		return
	}

	resp := ParticipantsResponse{Items: make([]ParticipantItem, 0, len(ps)), Count: len(ps)}
	for _, p := range ps {
		resp.Items = append(resp.Items, ParticipantItem{
			ID:       p.ChannelID,
			Name:     p.DisplayName,
			Status:   string(p.Status),
			JoinedAt: p.JoinedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/companionlabs/companion/internal/api/respond"
	"github.com/companionlabs/companion/internal/chat"
	"github.com/companionlabs/companion/internal/model"
	"github.com/companionlabs/companion/internal/profile"
	"github.com/companionlabs/companion/internal/services"
)

// ChatHandler exposes the dialogue turn orchestrator and the conversation log.
type ChatHandler struct {
	orch     *chat.Orchestrator
	history  *services.HistoryService
	profiles *profile.Assembler
}

func NewChatHandler(orch *chat.Orchestrator, history *services.HistoryService, profiles *profile.Assembler) *ChatHandler {
	return &ChatHandler{orch: orch, history: history, profiles: profiles}
}

// Chat POST /v0/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "unauthenticated")
		return
	}

	var req struct {
		Message       string `json:"message"`
		MediaAnalysis string `json:"media_analysis"`
		MediaType     string `json:"media_type"`
		Avatar        string `json:"avatar"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	res, err := h.orch.HandleTurn(r.Context(), chat.TurnRequest{
		UserID:           p.UserID,
		Message:          req.Message,
		MediaDescription: req.MediaAnalysis,
		MediaKind:        model.MediaKind(req.MediaType),
		Avatar:           chat.Avatar(req.Avatar),
	})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}

// History GET /v0/chat/history?limit=N
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "unauthenticated")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respond.WriteBadRequest(w, "invalid limit")
			return
		}
		limit = n
	}

	turns, err := h.history.ListTurns(r.Context(), p.UserID, limit)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"turns": turns, "count": len(turns)})
}

// ClearHistory POST /v0/chat/history/clear
func (h *ChatHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "unauthenticated")
		return
	}
	if err := h.history.ClearHistory(r.Context(), p.UserID); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Profile GET /v0/profile
func (h *ChatHandler) Profile(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "unauthenticated")
		return
	}
	text := h.profiles.Build(r.Context(), p.UserID)
	respond.WriteJSON(w, http.StatusOK, map[string]string{"profile": text})
}

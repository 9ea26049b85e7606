package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/companionlabs/companion/internal/api/respond"
	"github.com/companionlabs/companion/internal/api/validate"
	"github.com/companionlabs/companion/internal/model"
	"github.com/companionlabs/companion/internal/services"
)

const journalContentMax = 10000

// JournalHandler is the thin HTTP transport over JournalService.
type JournalHandler struct {
	svc *services.JournalService
}

func NewJournalHandler(svc *services.JournalService) *JournalHandler {
	return &JournalHandler{svc: svc}
}

// CreateEntry POST /v0/journal
func (h *JournalHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "unauthenticated")
		return
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Mood    string `json:"mood"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.NonEmpty("content", req.Content); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.MaxLen("content", req.Content, journalContentMax); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	entry := &model.JournalEntry{UserID: p.UserID, Title: req.Title, Content: req.Content}
	if req.Mood != "" {
		m := model.Mood(req.Mood)
		if !model.ValidMood(m) {
			respond.WriteBadRequest(w, "unknown mood")
			return
		}
		entry.Mood = &m
	}
	out, err := h.svc.CreateEntry(r.Context(), entry)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListEntries GET /v0/journal
func (h *JournalHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "unauthenticated")
		return
	}
	entries, err := h.svc.ListEntries(r.Context(), p.UserID, 0)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"entries": entries, "count": len(entries)})
}

// DeleteEntry DELETE /v0/journal/{entryId}
func (h *JournalHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "unauthenticated")
		return
	}
	if err := h.svc.DeleteEntry(r.Context(), p.UserID, mux.Vars(r)["entryId"]); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

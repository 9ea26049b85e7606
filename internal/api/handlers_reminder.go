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

// ReminderHandler is the thin HTTP transport over ReminderService.
type ReminderHandler struct {
	svc *services.ReminderService
}

func NewReminderHandler(svc *services.ReminderService) *ReminderHandler {
	return &ReminderHandler{svc: svc}
}

// CreateReminder POST /v0/reminders
func (h *ReminderHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "unauthenticated")
		return
	}

	var req struct {
		Title  string `json:"title"`
		Date   string `json:"date"`
		Time   string `json:"time"`
		Repeat string `json:"repeat"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.NonEmpty("title", req.Title); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Date(req.Date); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.TimeOfDay(req.Time); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	out, err := h.svc.CreateReminder(r.Context(), &model.Reminder{
		UserID: p.UserID,
		Title:  req.Title,
		Date:   req.Date,
		Time:   req.Time,
		Repeat: req.Repeat,
	})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListReminders GET /v0/reminders
func (h *ReminderHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "unauthenticated")
		return
	}
	reminders, err := h.svc.ListActive(r.Context(), p.UserID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"reminders": reminders, "count": len(reminders)})
}

// DeleteReminder DELETE /v0/reminders/{reminderId}
func (h *ReminderHandler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "unauthenticated")
		return
	}
	if err := h.svc.DeleteReminder(r.Context(), p.UserID, mux.Vars(r)["reminderId"]); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

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

// UserHandler is the thin HTTP transport over UserService.
type UserHandler struct {
	svc *services.UserService
}

func NewUserHandler(svc *services.UserService) *UserHandler { return &UserHandler{svc: svc} }

// CreateUser POST /v0/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Avatar   string `json:"avatar"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.UserID(req.UserID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.NonEmpty("username", req.Username); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Email(req.Email); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	out, err := h.svc.CreateUser(r.Context(), &model.User{
		UserID:   req.UserID,
		Username: req.Username,
		Email:    req.Email,
		Avatar:   req.Avatar,
	})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// GetUser GET /v0/users/{userId}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetUser(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeleteUser DELETE /v0/users/{userId}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteUser(r.Context(), mux.Vars(r)["userId"]); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/companionlabs/companion/internal/api/respond"
	"github.com/companionlabs/companion/internal/model"
	"github.com/companionlabs/companion/internal/vision"
)

// 10 MB decoded; anything bigger goes through out-of-band upload plumbing.
const maxMediaBytes = 10 << 20

// MediaHandler bridges base64 media payloads to the vision model.
type MediaHandler struct {
	describer vision.Describer
}

func NewMediaHandler(d vision.Describer) *MediaHandler { return &MediaHandler{describer: d} }

// Describe POST /v0/media/describe
func (h *MediaHandler) Describe(w http.ResponseWriter, r *http.Request) {
	if _, ok := PrincipalFrom(r.Context()); !ok {
		respond.WriteUnauthorized(w, "unauthenticated")
		return
	}

	var req struct {
		Data     string `json:"data"`
		MimeType string `json:"mime_type"`
		Kind     string `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.Data == "" {
		respond.WriteBadRequest(w, "data is required")
		return
	}
	if req.MimeType == "" {
		respond.WriteBadRequest(w, "mime_type is required")
		return
	}

	payload, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		respond.WriteBadRequest(w, "data is not valid base64")
		return
	}
	if len(payload) > maxMediaBytes {
		respond.WriteError(w, http.StatusRequestEntityTooLarge, "media too large")
		return
	}

	hint := ""
	if model.MediaKind(req.Kind) == model.MediaVideo {
		hint = vision.VideoFramePrompt("")
	}

	description, err := h.describer.Describe(r.Context(), payload, req.MimeType, hint)
	if err != nil {
		respond.WriteError(w, http.StatusBadGateway, "could not describe media")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"description": description})
}

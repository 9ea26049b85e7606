package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/companionlabs/companion/internal/api/respond"
	"github.com/companionlabs/companion/internal/services"
)

// MemoryHandler exposes the stored facts for inspection and removal.
type MemoryHandler struct {
	svc *services.MemoryService
}

func NewMemoryHandler(svc *services.MemoryService) *MemoryHandler { return &MemoryHandler{svc: svc} }

// ListFacts GET /v0/memories?limit=N
func (h *MemoryHandler) ListFacts(w http.ResponseWriter, r *http.Request) {
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

	facts, err := h.svc.ListFacts(r.Context(), p.UserID, limit)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"memories": facts, "count": len(facts)})
}

// DeleteFact DELETE /v0/memories/{factId}
func (h *MemoryHandler) DeleteFact(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		respond.WriteUnauthorized(w, "unauthenticated")
		return
	}
	if err := h.svc.DeleteFact(r.Context(), p.UserID, mux.Vars(r)["factId"]); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

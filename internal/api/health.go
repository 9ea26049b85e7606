package api

import (
	"net/http"

	"github.com/companionlabs/companion/internal/api/respond"
	"github.com/companionlabs/companion/internal/health"
)

// HealthHandler reports the aggregated service health flag.
type HealthHandler struct {
	checker *health.ServiceHealthChecker
}

func NewHealthHandler(c *health.ServiceHealthChecker) *HealthHandler {
	return &HealthHandler{checker: c}
}

// CheckHealth GET /v0/health
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	if h.checker != nil && !h.checker.IsHealthy() {
		respond.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

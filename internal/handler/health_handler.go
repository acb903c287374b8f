package handler

import (
	"net/http"

	"birthdays/internal/service"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	health *service.HealthChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(health *service.HealthChecker) *HealthHandler {
	return &HealthHandler{health: health}
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	status, err := h.health.CheckHealth()
	if err != nil {
		WriteInternalError(w)
		return
	}

	code := http.StatusOK
	if status.Status == service.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	WriteJSON(w, code, status)
}

package service

import (
	"context"
	"database/sql"
	"time"
)

// Health status constants
const (
	StatusHealthy      = "healthy"
	StatusDegraded     = "degraded"
	StatusUnhealthy    = "unhealthy"
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// HealthStatus represents the overall health status of the application
type HealthStatus struct {
	Status    string            `json:"status"`
	Services  map[string]string `json:"services"`
	Breaker   string            `json:"delivery_breaker,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version,omitempty"`
}

// BreakerStater reports the delivery circuit breaker state
type BreakerStater interface {
	BreakerState() string
}

// HealthChecker handles health check operations
type HealthChecker struct {
	db       *sql.DB
	delivery BreakerStater
	version  string
}

// NewHealthService creates a new HealthChecker instance. delivery may be nil
// for processes that do not own a delivery client.
func NewHealthService(db *sql.DB, delivery BreakerStater, version string) *HealthChecker {
	return &HealthChecker{
		db:       db,
		delivery: delivery,
		version:  version,
	}
}

// checkDatabase verifies PostgreSQL connectivity with a timeout
func (h *HealthChecker) checkDatabase() string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		return StatusDisconnected
	}

	return StatusConnected
}

// CheckHealth performs health checks and returns the overall status.
// The database is the only hard dependency; an open delivery breaker
// degrades the status without making the process unhealthy.
func (h *HealthChecker) CheckHealth() (*HealthStatus, error) {
	services := map[string]string{
		"database": h.checkDatabase(),
	}

	status := StatusHealthy
	if services["database"] == StatusDisconnected {
		status = StatusUnhealthy
	}

	breaker := ""
	if h.delivery != nil {
		breaker = h.delivery.BreakerState()
		if status == StatusHealthy && breaker == "open" {
			status = StatusDegraded
		}
	}

	return &HealthStatus{
		Status:    status,
		Services:  services,
		Breaker:   breaker,
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	}, nil
}

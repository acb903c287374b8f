package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"birthdays/internal/service"
)

type staticBreaker string

func (s staticBreaker) BreakerState() string { return string(s) }

func TestHealthCheck_Healthy(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	mock.ExpectPing()

	h := NewHealthHandler(service.NewHealthService(db, staticBreaker("closed"), "1.0.0"))

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var status service.HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if status.Status != service.StatusHealthy {
		t.Errorf("status = %q, want healthy", status.Status)
	}
	if status.Services["database"] != service.StatusConnected {
		t.Errorf("database = %q, want connected", status.Services["database"])
	}
}

func TestHealthCheck_DatabaseDown(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	h := NewHealthHandler(service.NewHealthService(db, nil, "1.0.0"))

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHealthCheck_OpenBreakerDegrades(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	mock.ExpectPing()

	h := NewHealthHandler(service.NewHealthService(db, staticBreaker("open"), "1.0.0"))

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	// Degraded is still a 200: the process serves, delivery is impaired
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var status service.HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if status.Status != service.StatusDegraded {
		t.Errorf("status = %q, want degraded", status.Status)
	}
	if status.Breaker != "open" {
		t.Errorf("delivery_breaker = %q, want open", status.Breaker)
	}
}

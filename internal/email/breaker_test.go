package email

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	b := NewCircuitBreaker(3, time.Minute)

	for i := 0; i < 2; i++ {
		b.RecordFailure()
		if !b.Allow() {
			t.Fatalf("breaker opened after %d failures, threshold is 3", i+1)
		}
	}

	b.RecordFailure()
	if b.State() != "open" {
		t.Fatalf("state = %q after 3 failures, want open", b.State())
	}
	if b.Allow() {
		t.Error("open breaker must reject calls")
	}
}

func TestCircuitBreaker_SuccessResetsCounter(t *testing.T) {
	b := NewCircuitBreaker(3, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()

	if b.State() != "closed" {
		t.Errorf("state = %q, want closed; failures are not consecutive", b.State())
	}
}

func TestCircuitBreaker_HalfOpenTrial(t *testing.T) {
	b := NewCircuitBreaker(1, time.Minute)
	clock := time.Date(2026, 5, 15, 9, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }

	b.RecordFailure()
	if b.Allow() {
		t.Fatal("breaker should be open")
	}

	// Reset window elapses: exactly one trial is admitted
	clock = clock.Add(time.Minute)
	if !b.Allow() {
		t.Fatal("expected half-open trial after reset window")
	}
	if b.State() != "half-open" {
		t.Fatalf("state = %q, want half-open", b.State())
	}
	if b.Allow() {
		t.Error("second call during half-open trial must be rejected")
	}

	b.RecordSuccess()
	if b.State() != "closed" {
		t.Errorf("state = %q after trial success, want closed", b.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := NewCircuitBreaker(1, time.Minute)
	clock := time.Date(2026, 5, 15, 9, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }

	b.RecordFailure()
	clock = clock.Add(time.Minute)
	if !b.Allow() {
		t.Fatal("expected half-open trial")
	}

	b.RecordFailure()
	if b.State() != "open" {
		t.Errorf("state = %q after trial failure, want open", b.State())
	}
	// The window restarts from the failed trial
	clock = clock.Add(30 * time.Second)
	if b.Allow() {
		t.Error("breaker re-opened 30s ago, call must be rejected")
	}
}

func TestCircuitBreaker_ZeroThresholdDisables(t *testing.T) {
	b := NewCircuitBreaker(0, time.Minute)

	for i := 0; i < 50; i++ {
		b.RecordFailure()
	}
	if !b.Allow() {
		t.Error("threshold 0 must never open the breaker")
	}
}

func TestClient_BreakerShortCircuitsWithoutIO(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetries = 0 // one attempt per Send call
	cfg.BreakerThreshold = 3
	client := NewClient(cfg, zap.NewNop())

	// Three failing sends trip the breaker
	for i := 0; i < 3; i++ {
		if err := client.Send(context.Background(), "a@example.com", "hi"); err == nil {
			t.Fatalf("send %d should have failed", i+1)
		}
	}
	if client.BreakerState() != "open" {
		t.Fatalf("breaker state = %q after 3 failures, want open", client.BreakerState())
	}

	// The fourth send is rejected before any HTTP I/O
	err := client.Send(context.Background(), "a@example.com", "hi")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server saw %d requests, want 3 (no I/O while open)", got)
	}

	m := client.Metrics()
	if m.TotalAttempts != 3 {
		t.Errorf("TotalAttempts = %d, want 3; breaker rejections are not attempts", m.TotalAttempts)
	}
}

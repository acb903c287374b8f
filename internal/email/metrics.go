package email

import (
	"sync"
	"time"
)

// Metrics is a snapshot of the client's process-wide delivery counters
type Metrics struct {
	TotalAttempts       int64      `json:"total_attempts"`
	SuccessCount        int64      `json:"success_count"`
	ConsecutiveFailures int64      `json:"consecutive_failures"`
	TimeoutCount        int64      `json:"timeout_count"`
	LastError           string     `json:"last_error,omitempty"`
	LastSuccess         *time.Time `json:"last_success,omitempty"`
}

type metrics struct {
	mu sync.Mutex
	Metrics
}

func (m *metrics) recordAttempt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalAttempts++
}

func (m *metrics) recordSuccess(at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SuccessCount++
	m.ConsecutiveFailures = 0
	m.LastSuccess = &at
}

func (m *metrics) recordFailure(err error, timeout bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ConsecutiveFailures++
	if timeout {
		m.TimeoutCount++
	}
	m.LastError = err.Error()
}

func (m *metrics) snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Metrics
}

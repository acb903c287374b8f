package email

import (
	"sync"
	"time"
)

// breaker states
const (
	stateClosed = iota
	stateOpen
	stateHalfOpen
)

// CircuitBreaker gates calls to the delivery API. It counts consecutive
// failures; at threshold it opens for resetTimeout, during which calls are
// rejected without I/O. After the window a single trial call is let through:
// success closes the breaker, failure re-opens it. State is process-local.
type CircuitBreaker struct {
	mu           sync.Mutex
	threshold    int
	resetTimeout time.Duration
	failures     int
	state        int
	openedAt     time.Time
	now          func() time.Time
}

// NewCircuitBreaker creates a closed breaker. A threshold <= 0 disables it.
func NewCircuitBreaker(threshold int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		threshold:    threshold,
		resetTimeout: resetTimeout,
		now:          time.Now,
	}
}

// Allow reports whether a call may proceed. When the open window has elapsed
// the caller is admitted as the half-open trial.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed:
		return true
	case stateOpen:
		if b.now().Sub(b.openedAt) >= b.resetTimeout {
			b.state = stateHalfOpen
			return true
		}
		return false
	default: // half-open: trial already in flight
		return false
	}
}

// RecordSuccess closes the breaker and zeroes the consecutive failure counter
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.state = stateClosed
}

// RecordFailure bumps the consecutive failure counter and opens the breaker
// at threshold, or immediately when the half-open trial fails
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.state == stateHalfOpen || (b.threshold > 0 && b.failures >= b.threshold) {
		b.state = stateOpen
		b.openedAt = b.now()
	}
}

// State returns a label for logs and tests
func (b *CircuitBreaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

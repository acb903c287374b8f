package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"birthdays/internal/config"
)

// ErrCircuitOpen is returned without contacting the remote while the breaker
// is open. Callers treat it as a transient failure but can log it apart.
var ErrCircuitOpen = errors.New("delivery circuit breaker open")

// StatusError is a non-2xx response from the delivery API
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("delivery api returned %d: %s", e.StatusCode, e.Body)
}

// Retryable classifies the response status: 5xx, 408 and 429 are transient,
// every other non-2xx status is terminal.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusTooManyRequests
}

// Retryable reports whether a send error is worth another attempt.
// Transport-level failures (timeout, refused connection, DNS) are always
// retryable; HTTP statuses follow StatusError.Retryable.
func Retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	if errors.Is(err, ErrCircuitOpen) {
		return false
	}
	return true
}

// sendRequest is the JSON body of POST /send-email
type sendRequest struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Client talks to the external email delivery API. One Send call performs up
// to 1+MaxRetries attempts with exponential backoff; the backoff never
// persists across calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	breaker    *CircuitBreaker
	metrics    *metrics
	log        *zap.Logger
}

// NewClient creates a delivery client from configuration
func NewClient(cfg config.EmailConfig, log *zap.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.RetryDelay,
		breaker:    NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerReset),
		metrics:    &metrics{},
		log:        log,
	}
}

// Send delivers one message. It returns nil after any successful attempt and
// an error once the attempt budget is exhausted or a terminal failure occurs.
func (c *Client) Send(ctx context.Context, recipient, body string) error {
	payload, err := json.Marshal(sendRequest{Email: recipient, Message: body})
	if err != nil {
		return fmt.Errorf("failed to marshal send request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// delay_n = baseDelay * 2^n for the n-th retry
			delay := c.baseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if !c.breaker.Allow() {
			return ErrCircuitOpen
		}

		err := c.attempt(ctx, payload)
		if err == nil {
			c.breaker.RecordSuccess()
			c.metrics.recordSuccess(time.Now().UTC())
			return nil
		}

		c.breaker.RecordFailure()
		c.metrics.recordFailure(err, isTimeout(err))
		lastErr = err

		if !Retryable(err) {
			c.log.Warn("delivery failed terminally",
				zap.String("recipient", recipient),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			return err
		}

		c.log.Warn("delivery attempt failed",
			zap.String("recipient", recipient),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", c.maxRetries+1),
			zap.Error(err))
	}

	return fmt.Errorf("delivery failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// attempt performs a single HTTP exchange
func (c *Client) attempt(ctx context.Context, payload []byte) error {
	c.metrics.recordAttempt()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send-email", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Body is truncated: it only feeds error_message and logs
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
}

// Metrics returns a snapshot of the delivery counters
func (c *Client) Metrics() Metrics {
	return c.metrics.snapshot()
}

// BreakerState exposes the breaker state for health reporting and tests
func (c *Client) BreakerState() string {
	return c.breaker.State()
}

// isTimeout reports whether an attempt failed on a deadline
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

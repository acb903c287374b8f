package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"birthdays/internal/config"
	"birthdays/internal/email"
	"birthdays/internal/models"
	"birthdays/internal/repository"
)

// Sender delivers one rendered message to one recipient
type Sender interface {
	Send(ctx context.Context, recipient, body string) error
}

// ProcessorService drives due records to a terminal state. Each record is
// lease-locked before delivery so that replicas never double-send; the lease
// expiry is the safety net for crashed holders.
type ProcessorService struct {
	messages      repository.MessageRepository
	users         repository.UserRepository
	sender        Sender
	leaseDuration time.Duration
	batchLimit    int
	maxRetries    int
	log           *zap.Logger
	now           func() time.Time
	newLockID     func() string
}

// NewProcessorService creates a new due-message processor
func NewProcessorService(
	messages repository.MessageRepository,
	users repository.UserRepository,
	sender Sender,
	cfg config.SchedulerConfig,
	log *zap.Logger,
) *ProcessorService {
	return &ProcessorService{
		messages:      messages,
		users:         users,
		sender:        sender,
		leaseDuration: cfg.LeaseDuration,
		batchLimit:    cfg.BatchLimit,
		maxRetries:    cfg.MaxRetries,
		log:           log,
		now:           time.Now,
		newLockID:     func() string { return uuid.NewString() },
	}
}

// ProcessDue selects due records in scheduledAt order and processes each one.
// Per-record failures are absorbed; only store-level selection errors bubble
// up to the tick driver.
func (s *ProcessorService) ProcessDue(ctx context.Context) error {
	records, err := s.messages.SelectDue(ctx, s.now(), s.batchLimit)
	if err != nil {
		return fmt.Errorf("failed to select due messages: %w", err)
	}

	for _, record := range records {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		s.processRecord(ctx, record)
	}

	return nil
}

// RecoverMissed runs once on startup and pushes records whose send instant
// passed while the process was down through the same per-record pipeline.
func (s *ProcessorService) RecoverMissed(ctx context.Context) error {
	records, err := s.messages.ListMissed(ctx, s.now())
	if err != nil {
		return fmt.Errorf("failed to list missed messages: %w", err)
	}

	if len(records) > 0 {
		s.log.Info("recovering missed messages", zap.Int("count", len(records)))
	}

	for _, record := range records {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		s.processRecord(ctx, record)
	}

	return nil
}

// processRecord runs the lock → send → transition pipeline for one record
func (s *ProcessorService) processRecord(ctx context.Context, record *models.ScheduledMessage) {
	lockID := s.newLockID()
	leaseUntil := s.now().Add(s.leaseDuration)

	acquired, err := s.messages.AcquireLease(ctx, record.ID, lockID, leaseUntil)
	if err != nil {
		s.log.Error("failed to acquire lease", zap.Int("message_id", record.ID), zap.Error(err))
		return
	}
	if !acquired {
		// Another worker owns it; not an error.
		s.log.Debug("lease held elsewhere, skipping", zap.Int("message_id", record.ID))
		return
	}

	// Re-read under the held lease to pick up the latest state.
	fresh, err := s.messages.GetByID(ctx, record.ID)
	if err != nil {
		s.log.Error("failed to re-read message under lease", zap.Int("message_id", record.ID), zap.Error(err))
		s.releaseLease(ctx, record.ID, lockID)
		return
	}
	if fresh == nil || fresh.IsTerminal() {
		s.releaseLease(ctx, record.ID, lockID)
		return
	}

	user, err := s.users.GetByID(ctx, fresh.UserID)
	if err != nil {
		s.log.Error("failed to load user", zap.Int("message_id", fresh.ID), zap.Int("user_id", fresh.UserID), zap.Error(err))
		s.releaseLease(ctx, fresh.ID, lockID)
		return
	}
	if user == nil {
		// The record is not deleted here; the user cascade owns its removal.
		s.log.Warn("user vanished, releasing lease",
			zap.Int("message_id", fresh.ID),
			zap.Int("user_id", fresh.UserID))
		s.releaseLease(ctx, fresh.ID, lockID)
		return
	}

	if sendErr := s.sender.Send(ctx, user.Email, fresh.MessageBody); sendErr != nil {
		if errors.Is(sendErr, context.Canceled) {
			// Shutdown mid-pipeline: release rather than burn a retry. The
			// cleanup gets its own deadline since ctx is already dead.
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.releaseLease(cleanupCtx, fresh.ID, lockID)
			return
		}
		s.handleFailure(ctx, fresh, sendErr)
		return
	}

	if err := s.messages.MarkSent(ctx, fresh.ID); err != nil {
		s.log.Error("failed to mark message sent", zap.Int("message_id", fresh.ID), zap.Error(err))
		s.releaseLease(ctx, fresh.ID, lockID)
		return
	}

	s.log.Info("message sent",
		zap.Int("message_id", fresh.ID),
		zap.Int("user_id", fresh.UserID),
		zap.String("type", string(fresh.MessageType)),
		zap.String("scheduled_date", fresh.ScheduledDate))
}

// handleFailure records one terminal-failed processor attempt. The persisted
// counter moves at most once per invocation; a record whose counter already
// reached the budget goes to failed and stays there.
func (s *ProcessorService) handleFailure(ctx context.Context, record *models.ScheduledMessage, sendErr error) {
	nextStatus := models.MessageStatusRetry
	if record.RetryCount >= s.maxRetries {
		nextStatus = models.MessageStatusFailed
	}

	if err := s.messages.MarkFailure(ctx, record.ID, sendErr.Error(), nextStatus); err != nil {
		s.log.Error("failed to mark message failure", zap.Int("message_id", record.ID), zap.Error(err))
		return
	}

	s.log.Warn("delivery failed",
		zap.Int("message_id", record.ID),
		zap.Int("user_id", record.UserID),
		zap.Int("attempt", record.RetryCount+1),
		zap.String("next_status", string(nextStatus)),
		zap.String("classification", classifySendError(sendErr)),
		zap.Error(sendErr))
}

// releaseLease is the best-effort unlock on error paths; expiry remains the
// ultimate safety net when even this fails.
func (s *ProcessorService) releaseLease(ctx context.Context, id int, lockID string) {
	if err := s.messages.ReleaseLease(ctx, id, lockID); err != nil {
		s.log.Error("failed to release lease", zap.Int("message_id", id), zap.Error(err))
	}
}

// classifySendError labels failures for the structured logs
func classifySendError(err error) string {
	switch {
	case errors.Is(err, email.ErrCircuitOpen):
		return "breaker-open"
	case email.Retryable(err):
		return "transient"
	default:
		return "terminal"
	}
}

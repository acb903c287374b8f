package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"birthdays/internal/models"
)

const messageColumns = `id, user_id, message_type, message_body, status, scheduled_date, scheduled_at, sent_at, retry_count, error_message, lock_id, locked_until, created_at`

type messageRepository struct {
	db         *sql.DB
	maxRetries int
}

// NewMessageRepository creates a new scheduled message repository.
// maxRetries caps the persisted retry counter; a failed record always
// carries exactly maxRetries.
func NewMessageRepository(db *sql.DB, maxRetries int) MessageRepository {
	return &messageRepository{db: db, maxRetries: maxRetries}
}

// CreateIfAbsent inserts a pending record or no-ops on the unique
// (user_id, message_type, scheduled_date) identity
func (r *messageRepository) CreateIfAbsent(ctx context.Context, msg *models.ScheduledMessage) (bool, error) {
	query := `
		INSERT INTO scheduled_messages (user_id, message_type, message_body, status, scheduled_date, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, message_type, scheduled_date) DO NOTHING
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		msg.UserID,
		msg.MessageType,
		msg.MessageBody,
		models.MessageStatusPending,
		msg.ScheduledDate,
		msg.ScheduledAt,
	).Scan(&msg.ID, &msg.CreatedAt)

	// DO NOTHING suppresses the RETURNING row, so a conflict surfaces as
	// ErrNoRows: the occurrence was already materialised.
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create scheduled message: %w", err)
	}

	msg.Status = models.MessageStatusPending
	return true, nil
}

// SelectDue retrieves due, unlocked records ordered by send instant
func (r *messageRepository) SelectDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledMessage, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM scheduled_messages
		WHERE status IN ('pending', 'retry')
		  AND scheduled_at <= $1
		  AND (lock_id IS NULL OR locked_until <= $1)
		ORDER BY scheduled_at ASC, id ASC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select due messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// AcquireLease performs the compare-and-set that makes concurrent processors
// safe: the update only lands when the record is unlocked or the previous
// lease has expired.
func (r *messageRepository) AcquireLease(ctx context.Context, id int, lockID string, leaseUntil time.Time) (bool, error) {
	query := `
		UPDATE scheduled_messages
		SET lock_id = $1, locked_until = $2
		WHERE id = $3
		  AND status IN ('pending', 'retry')
		  AND (lock_id IS NULL OR locked_until <= NOW())
	`

	result, err := r.db.ExecContext(ctx, query, lockID, leaseUntil, id)
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows == 1, nil
}

// ReleaseLease clears the lease, but only for its current holder
func (r *messageRepository) ReleaseLease(ctx context.Context, id int, lockID string) error {
	query := `
		UPDATE scheduled_messages
		SET lock_id = NULL, locked_until = NULL
		WHERE id = $1 AND lock_id = $2
	`

	_, err := r.db.ExecContext(ctx, query, id, lockID)
	if err != nil {
		return fmt.Errorf("failed to release lease: %w", err)
	}

	return nil
}

// MarkSent moves the record to its terminal sent state and clears the lease
func (r *messageRepository) MarkSent(ctx context.Context, id int) error {
	query := `
		UPDATE scheduled_messages
		SET status = 'sent', sent_at = NOW(), error_message = NULL, lock_id = NULL, locked_until = NULL
		WHERE id = $1 AND status <> 'sent'
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark message sent: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("message %d not found or already sent", id)
	}

	return nil
}

// MarkFailure records the error and the capped retry increment, moves the
// record to nextStatus and clears the lease
func (r *messageRepository) MarkFailure(ctx context.Context, id int, errMsg string, nextStatus models.MessageStatus) error {
	query := `
		UPDATE scheduled_messages
		SET status = $1,
			retry_count = LEAST(retry_count + 1, $2),
			error_message = $3,
			lock_id = NULL,
			locked_until = NULL
		WHERE id = $4 AND status <> 'sent'
	`

	_, err := r.db.ExecContext(ctx, query, nextStatus, r.maxRetries, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to mark message failure: %w", err)
	}

	return nil
}

// ListMissed returns pending/retry records whose send instant already passed.
// Used by the startup recovery pass after downtime.
func (r *messageRepository) ListMissed(ctx context.Context, now time.Time) ([]*models.ScheduledMessage, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM scheduled_messages
		WHERE status IN ('pending', 'retry')
		  AND scheduled_at < $1
		ORDER BY scheduled_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list missed messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// GetByID retrieves a scheduled message by ID
func (r *messageRepository) GetByID(ctx context.Context, id int) (*models.ScheduledMessage, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM scheduled_messages
		WHERE id = $1
	`

	msg := &models.ScheduledMessage{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID,
		&msg.UserID,
		&msg.MessageType,
		&msg.MessageBody,
		&msg.Status,
		&msg.ScheduledDate,
		&msg.ScheduledAt,
		&msg.SentAt,
		&msg.RetryCount,
		&msg.ErrorMessage,
		&msg.LockID,
		&msg.LockedUntil,
		&msg.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled message: %w", err)
	}

	return msg, nil
}

// scanMessages scans a scheduled message result set
func scanMessages(rows *sql.Rows) ([]*models.ScheduledMessage, error) {
	messages := []*models.ScheduledMessage{}
	for rows.Next() {
		msg := &models.ScheduledMessage{}
		err := rows.Scan(
			&msg.ID,
			&msg.UserID,
			&msg.MessageType,
			&msg.MessageBody,
			&msg.Status,
			&msg.ScheduledDate,
			&msg.ScheduledAt,
			&msg.SentAt,
			&msg.RetryCount,
			&msg.ErrorMessage,
			&msg.LockID,
			&msg.LockedUntil,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheduled message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

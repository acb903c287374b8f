package repository

import (
	"context"
	"database/sql"
	"time"

	"birthdays/internal/models"
)

// UserRepository defines user data access operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	ListActive(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int) error
}

// MessageRepository defines scheduled message data access operations.
// All mutation of shared state goes through these primitives; the unique
// index on (user_id, message_type, scheduled_date) and the lease CAS are
// what keep multiple replicas correct.
type MessageRepository interface {
	// CreateIfAbsent inserts a pending record, or reports created=false when
	// the (user, type, date) identity already exists.
	CreateIfAbsent(ctx context.Context, msg *models.ScheduledMessage) (created bool, err error)
	// SelectDue returns unlocked pending/retry records with scheduledAt <= now,
	// ordered by scheduledAt ascending.
	SelectDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledMessage, error)
	// AcquireLease atomically claims the record; returns true iff this caller
	// now holds the lease.
	AcquireLease(ctx context.Context, id int, lockID string, leaseUntil time.Time) (bool, error)
	// ReleaseLease clears the lease if still held under lockID.
	ReleaseLease(ctx context.Context, id int, lockID string) error
	MarkSent(ctx context.Context, id int) error
	// MarkFailure records the error, bumps the capped retry counter and moves
	// the record to nextStatus, clearing the lease.
	MarkFailure(ctx context.Context, id int, errMsg string, nextStatus models.MessageStatus) error
	// ListMissed returns pending/retry records whose send instant has passed.
	ListMissed(ctx context.Context, now time.Time) ([]*models.ScheduledMessage, error)
	GetByID(ctx context.Context, id int) (*models.ScheduledMessage, error)
}

// DB is a wrapper around *sql.DB to allow passing in transaction
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

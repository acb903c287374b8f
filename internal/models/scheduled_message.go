package models

import "time"

// MessageStatus represents valid scheduled message statuses
type MessageStatus string

const (
	MessageStatusPending MessageStatus = "pending"
	MessageStatusRetry   MessageStatus = "retry"
	MessageStatusSent    MessageStatus = "sent"
	MessageStatusFailed  MessageStatus = "failed"
)

// MessageType tags the annual event a message belongs to
type MessageType string

const (
	MessageTypeBirthday    MessageType = "birthday"
	MessageTypeAnniversary MessageType = "anniversary"
)

// ScheduledMessage is one materialised event occurrence for one user on one
// civil day. The (UserID, MessageType, ScheduledDate) tuple is the dedup
// identity and is protected by a unique index.
type ScheduledMessage struct {
	ID            int           `json:"id" db:"id"`
	UserID        int           `json:"user_id" db:"user_id"`
	MessageType   MessageType   `json:"message_type" db:"message_type"`
	MessageBody   string        `json:"message_body" db:"message_body"`
	Status        MessageStatus `json:"status" db:"status"`
	ScheduledDate string        `json:"scheduled_date" db:"scheduled_date"` // civil YYYY-MM-DD in the user's zone at creation
	ScheduledAt   time.Time     `json:"scheduled_at" db:"scheduled_at"`     // UTC instant of the local send time
	SentAt        *time.Time    `json:"sent_at,omitempty" db:"sent_at"`
	RetryCount    int           `json:"retry_count" db:"retry_count"`
	ErrorMessage  *string       `json:"error_message,omitempty" db:"error_message"`
	LockID        *string       `json:"lock_id,omitempty" db:"lock_id"`
	LockedUntil   *time.Time    `json:"locked_until,omitempty" db:"locked_until"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// IsLocked reports whether the record holds a live lease at the given instant.
// An expired lease counts as unlocked.
func (m *ScheduledMessage) IsLocked(now time.Time) bool {
	return m.LockID != nil && m.LockedUntil != nil && m.LockedUntil.After(now)
}

// IsTerminal reports whether the record has reached a final state
func (m *ScheduledMessage) IsTerminal() bool {
	return m.Status == MessageStatusSent || m.Status == MessageStatusFailed
}

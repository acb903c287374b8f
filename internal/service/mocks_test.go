package service

import (
	"context"
	"time"

	"birthdays/internal/models"
)

// MockUserRepository implements repository.UserRepository for testing
type MockUserRepository struct {
	CreateFunc     func(ctx context.Context, user *models.User) error
	GetByIDFunc    func(ctx context.Context, id int) (*models.User, error)
	ListFunc       func(ctx context.Context, limit, offset int) ([]*models.User, error)
	ListActiveFunc func(ctx context.Context) ([]*models.User, error)
	UpdateFunc     func(ctx context.Context, user *models.User) error
	DeleteFunc     func(ctx context.Context, id int) error

	Calls map[string]int
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{Calls: make(map[string]int)}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.Calls["Create"]++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	m.Calls["GetByID"]++
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	m.Calls["List"]++
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *MockUserRepository) ListActive(ctx context.Context) ([]*models.User, error) {
	m.Calls["ListActive"]++
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return nil, nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	m.Calls["Update"]++
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, user)
	}
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id int) error {
	m.Calls["Delete"]++
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockMessageRepository implements repository.MessageRepository for testing
type MockMessageRepository struct {
	CreateIfAbsentFunc func(ctx context.Context, msg *models.ScheduledMessage) (bool, error)
	SelectDueFunc      func(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledMessage, error)
	AcquireLeaseFunc   func(ctx context.Context, id int, lockID string, leaseUntil time.Time) (bool, error)
	ReleaseLeaseFunc   func(ctx context.Context, id int, lockID string) error
	MarkSentFunc       func(ctx context.Context, id int) error
	MarkFailureFunc    func(ctx context.Context, id int, errMsg string, nextStatus models.MessageStatus) error
	ListMissedFunc     func(ctx context.Context, now time.Time) ([]*models.ScheduledMessage, error)
	GetByIDFunc        func(ctx context.Context, id int) (*models.ScheduledMessage, error)

	Calls map[string]int
}

func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{Calls: make(map[string]int)}
}

func (m *MockMessageRepository) CreateIfAbsent(ctx context.Context, msg *models.ScheduledMessage) (bool, error) {
	m.Calls["CreateIfAbsent"]++
	if m.CreateIfAbsentFunc != nil {
		return m.CreateIfAbsentFunc(ctx, msg)
	}
	return true, nil
}

func (m *MockMessageRepository) SelectDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledMessage, error) {
	m.Calls["SelectDue"]++
	if m.SelectDueFunc != nil {
		return m.SelectDueFunc(ctx, now, limit)
	}
	return nil, nil
}

func (m *MockMessageRepository) AcquireLease(ctx context.Context, id int, lockID string, leaseUntil time.Time) (bool, error) {
	m.Calls["AcquireLease"]++
	if m.AcquireLeaseFunc != nil {
		return m.AcquireLeaseFunc(ctx, id, lockID, leaseUntil)
	}
	return true, nil
}

func (m *MockMessageRepository) ReleaseLease(ctx context.Context, id int, lockID string) error {
	m.Calls["ReleaseLease"]++
	if m.ReleaseLeaseFunc != nil {
		return m.ReleaseLeaseFunc(ctx, id, lockID)
	}
	return nil
}

func (m *MockMessageRepository) MarkSent(ctx context.Context, id int) error {
	m.Calls["MarkSent"]++
	if m.MarkSentFunc != nil {
		return m.MarkSentFunc(ctx, id)
	}
	return nil
}

func (m *MockMessageRepository) MarkFailure(ctx context.Context, id int, errMsg string, nextStatus models.MessageStatus) error {
	m.Calls["MarkFailure"]++
	if m.MarkFailureFunc != nil {
		return m.MarkFailureFunc(ctx, id, errMsg, nextStatus)
	}
	return nil
}

func (m *MockMessageRepository) ListMissed(ctx context.Context, now time.Time) ([]*models.ScheduledMessage, error) {
	m.Calls["ListMissed"]++
	if m.ListMissedFunc != nil {
		return m.ListMissedFunc(ctx, now)
	}
	return nil, nil
}

func (m *MockMessageRepository) GetByID(ctx context.Context, id int) (*models.ScheduledMessage, error) {
	m.Calls["GetByID"]++
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

// MockSender implements Sender for testing
type MockSender struct {
	SendFunc func(ctx context.Context, recipient, body string) error

	Calls map[string]int
	Sent  []string
}

func NewMockSender() *MockSender {
	return &MockSender{Calls: make(map[string]int)}
}

func (m *MockSender) Send(ctx context.Context, recipient, body string) error {
	m.Calls["Send"]++
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, recipient, body); err != nil {
			return err
		}
	}
	m.Sent = append(m.Sent, recipient)
	return nil
}

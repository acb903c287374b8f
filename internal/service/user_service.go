package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"go.uber.org/zap"

	"birthdays/internal/models"
	"birthdays/internal/repository"
)

// UserService handles the user CRUD surface. The scheduling engine itself
// never writes users; validation of birthdays and timezones happens here at
// the edge so the core can trust what it reads.
type UserService struct {
	users repository.UserRepository
	log   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(users repository.UserRepository, log *zap.Logger) *UserService {
	return &UserService{users: users, log: log}
}

// CreateUserRequest is the payload for creating a user
type CreateUserRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Birthday  string `json:"birthday"`
	Timezone  string `json:"timezone"`
}

// UpdateUserRequest is the payload for updating a user
type UpdateUserRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Birthday  string `json:"birthday"`
	Timezone  string `json:"timezone"`
	Active    *bool  `json:"active"`
}

// CreateUser validates and persists a new active user
func (s *UserService) CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	if err := validateUserFields(req.Email, req.Birthday, req.Timezone); err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Birthday:  req.Birthday,
		Timezone:  req.Timezone,
		Active:    true,
	}

	err := s.users.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, &ConflictError{Resource: "user", Message: "email already registered"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("user created", zap.Int("user_id", user.ID))
	return user, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, &NotFoundError{Resource: "user", ID: id}
	}
	return user, nil
}

// ListUsers retrieves users with pagination
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, limit, offset)
}

// UpdateUser validates and applies a full update to a user
func (s *UserService) UpdateUser(ctx context.Context, id int, req *UpdateUserRequest) (*models.User, error) {
	if err := validateUserFields(req.Email, req.Birthday, req.Timezone); err != nil {
		return nil, err
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Email = req.Email
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Birthday = req.Birthday
	user.Timezone = req.Timezone
	if req.Active != nil {
		user.Active = *req.Active
	}

	err = s.users.Update(ctx, user)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, &ConflictError{Resource: "user", Message: "email already registered"}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Resource: "user", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// DeleteUser removes a user; the user's scheduled messages go with it
func (s *UserService) DeleteUser(ctx context.Context, id int) error {
	err := s.users.Delete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return &NotFoundError{Resource: "user", ID: id}
	}
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.log.Info("user deleted", zap.Int("user_id", id))
	return nil
}

// validateUserFields checks email, birthday and timezone formats
func validateUserFields(email, birthday, timezone string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return &ValidationError{Message: "invalid email address"}
	}
	if _, err := time.Parse("2006-01-02", birthday); err != nil {
		return &ValidationError{Message: "birthday must be a valid YYYY-MM-DD date"}
	}
	if timezone == "" {
		return &ValidationError{Message: "timezone is required"}
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return &ValidationError{Message: fmt.Sprintf("unknown timezone %q", timezone)}
	}
	return nil
}

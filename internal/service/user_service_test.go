package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"go.uber.org/zap"

	"birthdays/internal/models"
	"birthdays/internal/repository"
)

func validCreateRequest() *CreateUserRequest {
	return &CreateUserRequest{
		Email:     "john.doe@example.com",
		FirstName: "John",
		LastName:  "Doe",
		Birthday:  "1990-05-15",
		Timezone:  "America/New_York",
	}
}

func TestCreateUser(t *testing.T) {
	users := NewMockUserRepository()
	users.CreateFunc = func(ctx context.Context, user *models.User) error {
		user.ID = 7
		return nil
	}

	svc := NewUserService(users, zap.NewNop())
	user, err := svc.CreateUser(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	if user.ID != 7 {
		t.Errorf("ID = %d, want 7", user.ID)
	}
	if !user.Active {
		t.Error("new users must be active")
	}
}

func TestCreateUser_Validation(t *testing.T) {
	svc := NewUserService(NewMockUserRepository(), zap.NewNop())

	cases := []struct {
		name   string
		mutate func(*CreateUserRequest)
	}{
		{"bad email", func(r *CreateUserRequest) { r.Email = "not-an-email" }},
		{"bad birthday", func(r *CreateUserRequest) { r.Birthday = "15/05/1990" }},
		{"impossible date", func(r *CreateUserRequest) { r.Birthday = "1990-02-30" }},
		{"missing timezone", func(r *CreateUserRequest) { r.Timezone = "" }},
		{"unknown timezone", func(r *CreateUserRequest) { r.Timezone = "Mars/Olympus" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreateRequest()
			tc.mutate(req)

			_, err := svc.CreateUser(context.Background(), req)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	users := NewMockUserRepository()
	users.CreateFunc = func(ctx context.Context, user *models.User) error {
		return repository.ErrDuplicateEmail
	}

	svc := NewUserService(users, zap.NewNop())
	_, err := svc.CreateUser(context.Background(), validCreateRequest())

	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Errorf("expected ConflictError, got %v", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	svc := NewUserService(NewMockUserRepository(), zap.NewNop())

	_, err := svc.GetUser(context.Background(), 99)
	var notFoundErr *NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestListUsers_ClampsPagination(t *testing.T) {
	users := NewMockUserRepository()

	var gotLimit, gotOffset int
	users.ListFunc = func(ctx context.Context, limit, offset int) ([]*models.User, error) {
		gotLimit, gotOffset = limit, offset
		return nil, nil
	}

	svc := NewUserService(users, zap.NewNop())

	if _, err := svc.ListUsers(context.Background(), 0, -5); err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if gotLimit != 20 || gotOffset != 0 {
		t.Errorf("limit, offset = %d, %d; want 20, 0", gotLimit, gotOffset)
	}

	if _, err := svc.ListUsers(context.Background(), 500, 10); err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if gotLimit != 20 {
		t.Errorf("limit = %d, want 20 (over-max falls back to default)", gotLimit)
	}
}

func TestUpdateUser(t *testing.T) {
	users := NewMockUserRepository()
	users.GetByIDFunc = func(ctx context.Context, id int) (*models.User, error) {
		return &models.User{ID: id, Email: "old@example.com", Active: true}, nil
	}

	var updated *models.User
	users.UpdateFunc = func(ctx context.Context, user *models.User) error {
		updated = user
		return nil
	}

	svc := NewUserService(users, zap.NewNop())
	inactive := false
	user, err := svc.UpdateUser(context.Background(), 3, &UpdateUserRequest{
		Email:     "new@example.com",
		FirstName: "Mary",
		LastName:  "Major",
		Birthday:  "1985-12-31",
		Timezone:  "Pacific/Auckland",
		Active:    &inactive,
	})
	if err != nil {
		t.Fatalf("UpdateUser returned error: %v", err)
	}

	if updated == nil {
		t.Fatal("Update was not called")
	}
	if user.Email != "new@example.com" || user.Active {
		t.Errorf("user = %+v, want new email and inactive", user)
	}
}

func TestDeleteUser_NotFound(t *testing.T) {
	users := NewMockUserRepository()
	users.DeleteFunc = func(ctx context.Context, id int) error {
		return sql.ErrNoRows
	}

	svc := NewUserService(users, zap.NewNop())
	err := svc.DeleteUser(context.Background(), 99)

	var notFoundErr *NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

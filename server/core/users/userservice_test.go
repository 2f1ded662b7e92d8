package users

import (
	"context"
	"testing"

	"github.com/nvr-labs/crashwatch/server/core/ccc/db"
)

func newTestService(t *testing.T) *userService {
	t.Helper()

	database, err := db.NewInMemoryDB()
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo, err := NewSQLiteUserRepository(database)
	if err != nil {
		t.Fatalf("Failed to create user repository: %v", err)
	}

	return NewUserService(nil, repo)
}

func TestRegister(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	user, err := service.Register(ctx, RegisterUserRequest{
		Username: "alice",
		Password: "secret123",
		Role:     RoleUser,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if user.ID == "" {
		t.Error("Expected a generated user ID")
	}
	if user.Username != "alice" {
		t.Errorf("Expected username alice, got %s", user.Username)
	}
	if user.PasswordHash == "secret123" || user.PasswordHash == "" {
		t.Error("Expected password to be hashed")
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		req  RegisterUserRequest
	}{
		{
			name: "empty username",
			req:  RegisterUserRequest{Username: "  ", Password: "secret123", Role: RoleUser},
		},
		{
			name: "short password",
			req:  RegisterUserRequest{Username: "bob", Password: "abc", Role: RoleUser},
		},
		{
			name: "unsupported role",
			req:  RegisterUserRequest{Username: "bob", Password: "secret123", Role: "superuser"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(t)

			_, err := service.Register(context.Background(), tt.req)
			if !IsUserValidationError(err) {
				t.Errorf("Expected a validation error, got %v", err)
			}
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	req := RegisterUserRequest{Username: "alice", Password: "secret123", Role: RoleUser}
	if _, err := service.Register(ctx, req); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err := service.Register(ctx, req)
	if !IsUserAlreadyExistsError(err) {
		t.Errorf("Expected a user-already-exists error, got %v", err)
	}
}

func TestRegisterDefaultsRole(t *testing.T) {
	service := newTestService(t)

	user, err := service.Register(context.Background(), RegisterUserRequest{
		Username: "carol",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Role != RoleUser {
		t.Errorf("Expected default role %s, got %s", RoleUser, user.Role)
	}
}

func TestAuthenticate(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	if _, err := service.Register(ctx, RegisterUserRequest{
		Username: "alice",
		Password: "secret123",
		Role:     RoleAdmin,
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	user, err := service.Authenticate(ctx, "alice", "secret123")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if user.Role != RoleAdmin {
		t.Errorf("Expected role %s, got %s", RoleAdmin, user.Role)
	}

	if _, err := service.Authenticate(ctx, "alice", "wrong"); !IsInvalidCredentialsError(err) {
		t.Errorf("Expected invalid credentials for wrong password, got %v", err)
	}

	if _, err := service.Authenticate(ctx, "mallory", "secret123"); !IsInvalidCredentialsError(err) {
		t.Errorf("Expected invalid credentials for unknown user, got %v", err)
	}
}

package users

import (
	"context"
	"strings"
	"time"

	"slices"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nvr-labs/crashwatch/server/core/ccc/logging"
)

type RegisterUserRequest struct {
	Username string
	Password string
	Role     Role
}

var supportedRoles = []Role{RoleUser, RoleAdmin}

// dummyHash is a valid bcrypt hash compared against when the username does
// not exist, so lookups cannot be distinguished by timing.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

type UserService interface {
	// Register creates a new user account with a hashed password
	Register(ctx context.Context, req RegisterUserRequest) (*User, error)
	// Authenticate verifies the credentials and returns the matching user
	Authenticate(ctx context.Context, username, password string) (*User, error)
}

type userService struct {
	logger logging.Logger
	repo   UserRepository
}

func NewUserService(logger logging.Logger, repo UserRepository) *userService {

	if logger == nil {
		logger = logging.NopLogger
	}

	return &userService{
		logger: logger,
		repo:   repo,
	}
}

func (s *userService) validateRegistration(username, password string, role Role) error {
	if username == "" {
		return NewUserValidationError("username cannot be empty")
	}
	if len(password) < 6 {
		return NewUserValidationError("password must be at least 6 characters")
	}

	if !slices.Contains(supportedRoles, role) {
		return NewUserValidationError("unsupported role")
	}

	return nil
}

func (s *userService) Register(ctx context.Context, req RegisterUserRequest) (*User, error) {
	// trim the username
	username := strings.TrimSpace(req.Username)

	role := req.Role
	if role == "" {
		role = RoleUser
	}

	if err := s.validateRegistration(username, req.Password, role); err != nil {
		return nil, err
	}

	s.logger.Info("Registering user", "username", username)

	// Check if the username is already taken
	existing, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		s.logger.Error("Failed to check for existing user", "error", err)
		return nil, err
	}
	if existing != nil {
		s.logger.Warn("Username already taken", "username", username)
		return nil, NewUserAlreadyExistsError(username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Failed to hash password", "error", err)
		return nil, err
	}

	now := time.Now().UTC()

	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		s.logger.Error("Failed to save user to repository", "error", err)
		return nil, err
	}

	s.logger.Info("Successfully registered user", "username", user.Username)
	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		s.logger.Error("Failed to retrieve user", "error", err)
		return nil, err
	}
	if user == nil {
		// Run the hash comparison anyway so a missing user costs the same
		// as a wrong password.
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("Failed login attempt", "username", username)
		return nil, NewInvalidCredentialsError()
	}

	return user, nil
}

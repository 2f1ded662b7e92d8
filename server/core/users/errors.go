package users

import "fmt"

// UserValidationError indicates invalid registration input.
type UserValidationError struct {
	Message string
}

func (e *UserValidationError) Error() string {
	return e.Message
}

// NewUserValidationError creates a new UserValidationError
func NewUserValidationError(message string) *UserValidationError {
	return &UserValidationError{Message: message}
}

// IsUserValidationError checks if the error is a UserValidationError
func IsUserValidationError(err error) bool {
	_, ok := err.(*UserValidationError)
	return ok
}

// UserAlreadyExistsError indicates the username is taken.
type UserAlreadyExistsError struct {
	Username string
}

func (e *UserAlreadyExistsError) Error() string {
	return fmt.Sprintf("user with username %s already exists", e.Username)
}

// NewUserAlreadyExistsError creates a new UserAlreadyExistsError
func NewUserAlreadyExistsError(username string) *UserAlreadyExistsError {
	return &UserAlreadyExistsError{Username: username}
}

// IsUserAlreadyExistsError checks if the error is a UserAlreadyExistsError
func IsUserAlreadyExistsError(err error) bool {
	_, ok := err.(*UserAlreadyExistsError)
	return ok
}

// InvalidCredentialsError indicates a failed authentication attempt. It does
// not reveal whether the username or the password was wrong.
type InvalidCredentialsError struct{}

func (e *InvalidCredentialsError) Error() string {
	return "invalid username or password"
}

// NewInvalidCredentialsError creates a new InvalidCredentialsError
func NewInvalidCredentialsError() *InvalidCredentialsError {
	return &InvalidCredentialsError{}
}

// IsInvalidCredentialsError checks if the error is an InvalidCredentialsError
func IsInvalidCredentialsError(err error) bool {
	_, ok := err.(*InvalidCredentialsError)
	return ok
}

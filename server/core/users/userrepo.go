package users

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/nvr-labs/crashwatch/server/core/ccc/db"
)

type UserRepository interface {
	// GetByID retrieves a User by its ID
	GetByID(ctx context.Context, id string) (*User, error)
	// GetByUsername retrieves a User by its username
	GetByUsername(ctx context.Context, username string) (*User, error)
	// Create adds a new User to the repository
	Create(ctx context.Context, user *User) error
	// Delete removes a User from the repository
	Delete(ctx context.Context, id string) error
}

// SQLiteUserRepository implements UserRepository using SQLite
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository creates a new SQLite-based UserRepository
func NewSQLiteUserRepository(db *sql.DB) (*SQLiteUserRepository, error) {
	repo := &SQLiteUserRepository{db: db}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repo, nil
}

// createTables ensures that the required tables exist
func (r *SQLiteUserRepository) createTables() error {
	createUsersTable := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`

	_, err := r.db.Exec(createUsersTable)
	return err
}

// GetByID retrieves a User by its ID
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `
	SELECT id, username, password_hash, role, created_at, updated_at
	FROM users WHERE id = ?`

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByUsername retrieves a User by its username
func (r *SQLiteUserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := `
	SELECT id, username, password_hash, role, created_at, updated_at
	FROM users WHERE username = ?`

	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *SQLiteUserRepository) scanUser(row *sql.Row) (*User, error) {
	user := &User{}
	var createdAtStr, updatedAtStr string
	err := row.Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Role,
		&createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Convert string timestamps back to time.Time
	user.CreatedAt, err = db.StringToTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}

	user.UpdatedAt, err = db.StringToTime(updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}

	return user, nil
}

// Create adds a new User to the repository
func (r *SQLiteUserRepository) Create(ctx context.Context, user *User) error {
	query := `
	INSERT INTO users (id, username, password_hash, role, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.Role,
		db.TimeToString(user.CreatedAt), db.TimeToString(user.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// Delete removes a User from the repository
func (r *SQLiteUserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user with ID %s not found", id)
	}

	return nil
}

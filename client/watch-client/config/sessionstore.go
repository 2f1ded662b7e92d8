package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nvr-labs/crashwatch/client/watch-client/client"
)

// SessionStore persists the authenticated session between CLI invocations.
type SessionStore struct {
	path string
}

// NewSessionStore creates a store backed by the given file path.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// Save writes the session to disk. The file is owner-readable only since it
// contains the session token.
func (s *SessionStore) Save(session *client.Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Load reads the stored session. A missing file returns nil without error.
func (s *SessionStore) Load() (*client.Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session client.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}

	return &session, nil
}

// Clear removes the stored session. Clearing a missing session is a no-op.
func (s *SessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

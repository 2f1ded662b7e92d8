package users

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an issued token stays valid.
const DefaultSessionTTL = time.Hour

// Session is an issued authentication token and the identity behind it.
type Session struct {
	Token     string
	Username  string
	Role      Role
	ExpiresAt time.Time
}

// SessionStore issues and validates bearer tokens.
type SessionStore interface {
	// Issue creates a new session for the user
	Issue(user *User) *Session
	// Validate returns the session for a token, or nil if the token is
	// unknown or expired
	Validate(token string) *Session
	// Revoke invalidates a token
	Revoke(token string)
}

// memorySessionStore implements SessionStore using in-memory storage
type memorySessionStore struct {
	ttl      time.Duration
	sessions map[string]*Session
	mu       sync.Mutex
}

// NewMemorySessionStore creates a new in-memory session store. A zero ttl
// defaults to DefaultSessionTTL.
func NewMemorySessionStore(ttl time.Duration) SessionStore {
	if ttl == 0 {
		ttl = DefaultSessionTTL
	}

	return &memorySessionStore{
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

func (s *memorySessionStore) Issue(user *User) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked()

	session := &Session{
		Token:     uuid.NewString(),
		Username:  user.Username,
		Role:      user.Role,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	s.sessions[session.Token] = session

	return session
}

func (s *memorySessionStore) Validate(token string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil
	}

	if time.Now().After(session.ExpiresAt) {
		delete(s.sessions, token)
		return nil
	}

	return session
}

func (s *memorySessionStore) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

func (s *memorySessionStore) purgeExpiredLocked() {
	now := time.Now()
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}

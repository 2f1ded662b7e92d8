package users

import (
	"testing"
	"time"
)

func TestSessionIssueAndValidate(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)

	user := &User{Username: "alice", Role: RoleUser}
	session := store.Issue(user)

	if session.Token == "" {
		t.Fatal("Expected a token")
	}

	got := store.Validate(session.Token)
	if got == nil {
		t.Fatal("Expected token to validate")
	}
	if got.Username != "alice" || got.Role != RoleUser {
		t.Errorf("Unexpected session identity %+v", got)
	}
}

func TestSessionUnknownToken(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)

	if got := store.Validate("not-a-token"); got != nil {
		t.Errorf("Expected unknown token to be rejected, got %+v", got)
	}
}

func TestSessionExpiry(t *testing.T) {
	store := NewMemorySessionStore(time.Millisecond)

	session := store.Issue(&User{Username: "alice", Role: RoleUser})
	time.Sleep(5 * time.Millisecond)

	if got := store.Validate(session.Token); got != nil {
		t.Errorf("Expected expired token to be rejected, got %+v", got)
	}
}

func TestSessionRevoke(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)

	session := store.Issue(&User{Username: "alice", Role: RoleUser})
	store.Revoke(session.Token)

	if got := store.Validate(session.Token); got != nil {
		t.Errorf("Expected revoked token to be rejected, got %+v", got)
	}
}

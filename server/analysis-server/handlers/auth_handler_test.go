package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nvr-labs/crashwatch/server/core/ccc/auth"
	"github.com/nvr-labs/crashwatch/server/core/ccc/db"
	"github.com/nvr-labs/crashwatch/server/core/users"
)

func newAuthTestRig(t *testing.T, throttleThreshold int) (*gin.Engine, users.SessionStore) {
	t.Helper()

	database, err := db.NewInMemoryDB()
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo, err := users.NewSQLiteUserRepository(database)
	if err != nil {
		t.Fatalf("Failed to create user repository: %v", err)
	}

	service := users.NewUserService(nil, repo)
	sessions := users.NewMemorySessionStore(time.Minute)
	tracker := auth.NewMemoryFailureTracker(auth.ThrottleSettings{
		Threshold:  throttleThreshold,
		TimeWindow: time.Hour,
	})

	handler := NewAuthHandler(nil, service, sessions, tracker)

	router := gin.New()
	router.POST("/register", handler.Register)
	router.POST("/login", handler.Login)
	return router, sessions
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	router, sessions := newAuthTestRig(t, 0)

	w := postJSON(t, router, "/register", map[string]string{
		"username": "alice",
		"password": "secret123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = postJSON(t, router, "/login", map[string]string{
		"username": "alice",
		"password": "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["token"] == "" {
		t.Error("Expected a session token")
	}
	if resp["username"] != "alice" || resp["role"] != "user" {
		t.Errorf("Unexpected identity in response: %v", resp)
	}

	if session := sessions.Validate(resp["token"]); session == nil {
		t.Error("Expected issued token to validate")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	router, _ := newAuthTestRig(t, 0)

	payload := map[string]string{"username": "alice", "password": "secret123"}
	if w := postJSON(t, router, "/register", payload); w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", w.Code)
	}

	w := postJSON(t, router, "/register", payload)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d", w.Code)
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "Username already taken" {
		t.Errorf("Unexpected error message %q", resp["error"])
	}
}

func TestRegisterValidationError(t *testing.T) {
	router, _ := newAuthTestRig(t, 0)

	w := postJSON(t, router, "/register", map[string]string{
		"username": "bob",
		"password": "abc",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for short password, got %d", w.Code)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	router, _ := newAuthTestRig(t, 0)

	postJSON(t, router, "/register", map[string]string{"username": "alice", "password": "secret123"})

	w := postJSON(t, router, "/login", map[string]string{"username": "alice", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", w.Code)
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "Invalid credentials" {
		t.Errorf("Unexpected error message %q", resp["error"])
	}
}

func TestLoginThrottle(t *testing.T) {
	router, _ := newAuthTestRig(t, 3)

	postJSON(t, router, "/register", map[string]string{"username": "alice", "password": "secret123"})

	bad := map[string]string{"username": "alice", "password": "wrong"}
	for i := 0; i < 2; i++ {
		if w := postJSON(t, router, "/login", bad); w.Code != http.StatusUnauthorized {
			t.Fatalf("Expected 401 on attempt %d, got %d", i+1, w.Code)
		}
	}

	// Third failure within the window hits the threshold.
	if w := postJSON(t, router, "/login", bad); w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 after repeated failures, got %d", w.Code)
	}
}

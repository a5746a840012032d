package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"worktime/internal/domain/auth"
)

type fakeSessions struct {
	live map[string]bool
	err  error
}

func (f *fakeSessions) SessionValid(ctx context.Context, userID, tokenHash string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.live[tokenHash], nil
}

func issueToken(t *testing.T, secret, sessionID string) string {
	t.Helper()
	token, err := auth.GenerateToken(secret, auth.Claims{
		UserID:    "user-1",
		CompanyID: "company-1",
		RoleID:    "role-1",
		RoleName:  auth.RoleAdmin,
		SessionID: sessionID,
	}, time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func runAuth(t *testing.T, secret string, sessions SessionChecker, token string) (auth.UserContext, bool) {
	t.Helper()
	var (
		user auth.UserContext
		ok   bool
	)
	handler := Auth(secret, sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok = GetUser(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/work-config", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return user, ok
}

func TestAuthAcceptsLiveSession(t *testing.T) {
	sessionID := "session-abc"
	sessions := &fakeSessions{live: map[string]bool{auth.HashToken(sessionID): true}}

	user, ok := runAuth(t, "secret", sessions, issueToken(t, "secret", sessionID))
	if !ok {
		t.Fatal("expected authenticated user")
	}
	if user.UserID != "user-1" || user.SessionID != sessionID {
		t.Fatalf("unexpected user context: %+v", user)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	// Logout removed the session row; the still-unexpired token must stop working.
	sessions := &fakeSessions{live: map[string]bool{}}

	if _, ok := runAuth(t, "secret", sessions, issueToken(t, "secret", "session-abc")); ok {
		t.Fatal("expected revoked session to be unauthenticated")
	}
}

func TestAuthRejectsTokenWithoutSession(t *testing.T) {
	sessions := &fakeSessions{live: map[string]bool{}}

	if _, ok := runAuth(t, "secret", sessions, issueToken(t, "secret", "")); ok {
		t.Fatal("expected token without a session to be unauthenticated")
	}
}

func TestAuthFailsClosedOnSessionStoreError(t *testing.T) {
	sessions := &fakeSessions{err: errors.New("db down")}

	if _, ok := runAuth(t, "secret", sessions, issueToken(t, "secret", "session-abc")); ok {
		t.Fatal("expected session store error to leave the request unauthenticated")
	}
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"worktime/internal/domain/auth"
)

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	handler := RateLimit(1, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/work-config", nil)
	req.RemoteAddr = "203.0.113.5:1234"
	handler.ServeHTTP(first, req)
	if first.Code != http.StatusOK {
		t.Fatalf("first request blocked: %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestRateLimitKeysAreIndependent(t *testing.T) {
	handler := RateLimit(1, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	reqA := httptest.NewRequest(http.MethodGet, "/api/v1/work-config", nil)
	reqA.RemoteAddr = "203.0.113.5:1234"
	handler.ServeHTTP(httptest.NewRecorder(), reqA)

	reqB := httptest.NewRequest(http.MethodGet, "/api/v1/work-config", nil)
	reqB.RemoteAddr = "198.51.100.7:1234"
	recB := httptest.NewRecorder()
	handler.ServeHTTP(recB, reqB)
	if recB.Code != http.StatusOK {
		t.Fatalf("independent client blocked: %d", recB.Code)
	}
}

func TestRateLimitKeysByActorWhenAuthenticated(t *testing.T) {
	handler := RateLimit(1, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	userCtx := context.WithValue(context.Background(), ctxKeyUser, auth.UserContext{
		UserID:    "user-1",
		CompanyID: "company-1",
	})

	// Same IP, but the second request carries a different actor.
	reqA := httptest.NewRequest(http.MethodGet, "/api/v1/work-config", nil).WithContext(userCtx)
	reqA.RemoteAddr = "203.0.113.5:1234"
	handler.ServeHTTP(httptest.NewRecorder(), reqA)

	otherCtx := context.WithValue(context.Background(), ctxKeyUser, auth.UserContext{
		UserID:    "user-2",
		CompanyID: "company-1",
	})
	reqB := httptest.NewRequest(http.MethodGet, "/api/v1/work-config", nil).WithContext(otherCtx)
	reqB.RemoteAddr = "203.0.113.5:1234"
	recB := httptest.NewRecorder()
	handler.ServeHTTP(recB, reqB)
	if recB.Code != http.StatusOK {
		t.Fatalf("distinct actor blocked: %d", recB.Code)
	}
}

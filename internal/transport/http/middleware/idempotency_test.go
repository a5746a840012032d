package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	var hits atomic.Int64
	handler := Idempotency(time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"status":"created"}`))
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/leave/requests", strings.NewReader(`{"reason":"dentist"}`))
		req.Header.Set("Idempotency-Key", "key-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	if first.Code != http.StatusCreated {
		t.Fatalf("first request: %d", first.Code)
	}

	second := send()
	if second.Code != http.StatusCreated {
		t.Fatalf("replay status: %d", second.Code)
	}
	if second.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatal("expected replay marker")
	}
	if second.Body.String() != `{"status":"created"}` {
		t.Fatalf("replay body mismatch: %s", second.Body.String())
	}
	if hits.Load() != 1 {
		t.Fatalf("handler ran %d times", hits.Load())
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	handler := Idempotency(time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/leave/requests", strings.NewReader(`{"reason":"dentist"}`))
	req.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	conflicting := httptest.NewRequest(http.MethodPost, "/api/v1/leave/requests", strings.NewReader(`{"reason":"other"}`))
	conflicting.Header.Set("Idempotency-Key", "key-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, conflicting)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestIdempotencyIgnoredWithoutKey(t *testing.T) {
	var hits atomic.Int64
	handler := Idempotency(time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/leave/requests", strings.NewReader(`{}`))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected both requests handled, got %d", hits.Load())
	}
}

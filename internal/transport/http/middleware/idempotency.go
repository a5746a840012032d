package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"worktime/internal/transport/http/api"
)

type idempotentResponse struct {
	RequestHash string
	Status      int
	ContentType string
	Body        []byte
}

type bufferedRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (b *bufferedRecorder) WriteHeader(code int) {
	b.status = code
	b.ResponseWriter.WriteHeader(code)
}

func (b *bufferedRecorder) Write(p []byte) (int, error) {
	b.body.Write(p)
	return b.ResponseWriter.Write(p)
}

// Idempotency replays a stored response when the same actor repeats a
// mutation with the same Idempotency-Key and an identical body. A reused
// key with a different body is rejected.
func Idempotency(ttl time.Duration) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	store := gocache.New(ttl, 2*ttl)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" || (r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch) {
				next.ServeHTTP(w, r)
				return
			}

			raw, err := io.ReadAll(r.Body)
			if err != nil {
				api.Fail(w, http.StatusBadRequest, "invalid_body", "unable to read request body", GetRequestID(r.Context()))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(raw))
			sum := sha256.Sum256(raw)
			requestHash := hex.EncodeToString(sum[:])

			cacheKey := r.Method + ":" + r.URL.Path + ":" + key
			if user, ok := GetUser(r.Context()); ok {
				cacheKey = user.CompanyID + ":" + user.UserID + ":" + cacheKey
			}

			if cached, ok := store.Get(cacheKey); ok {
				stored := cached.(idempotentResponse)
				if stored.RequestHash != requestHash {
					api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key reused with a different request", GetRequestID(r.Context()))
					return
				}
				if stored.ContentType != "" {
					w.Header().Set("Content-Type", stored.ContentType)
				}
				w.Header().Set("Idempotency-Replayed", "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}

			recorder := &bufferedRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			if recorder.status < 500 {
				store.SetDefault(cacheKey, idempotentResponse{
					RequestHash: requestHash,
					Status:      recorder.status,
					ContentType: recorder.Header().Get("Content-Type"),
					Body:        recorder.body.Bytes(),
				})
			}
		})
	}
}

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"worktime/internal/transport/http/api"
)

type RateLimitKeyFunc func(r *http.Request) string

type keyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	keyFn    RateLimitKeyFunc
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newKeyedLimiter(perSecond float64, burst int, keyFn RateLimitKeyFunc) *keyedLimiter {
	if keyFn == nil {
		keyFn = actorOrIPKey
	}
	return &keyedLimiter{
		limiters: map[string]*limiterEntry{},
		limit:    rate.Limit(perSecond),
		burst:    burst,
		keyFn:    keyFn,
	}
}

func (kl *keyedLimiter) allow(key string) bool {
	kl.mu.Lock()
	entry, ok := kl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(kl.limit, kl.burst)}
		kl.limiters[key] = entry
	}
	entry.lastSeen = time.Now()
	if len(kl.limiters) > 4096 {
		kl.evictStale()
	}
	kl.mu.Unlock()
	return entry.limiter.Allow()
}

// evictStale runs under kl.mu.
func (kl *keyedLimiter) evictStale() {
	cutoff := time.Now().Add(-10 * time.Minute)
	for key, entry := range kl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(kl.limiters, key)
		}
	}
}

func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	kl := newKeyedLimiter(perSecond, burst, actorOrIPKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if perSecond <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			key := kl.keyFn(r)
			if !kl.allow(key) {
				w.Header().Set("Retry-After", "1")
				slog.Warn("rate limit exceeded",
					"key", key,
					"path", r.URL.Path,
					"method", r.Method,
				)
				api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.CompanyID + ":" + user.UserID
	}
	return clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		parts := strings.Split(fwd, ",")
		if value := strings.TrimSpace(parts[0]); value != "" {
			return value
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

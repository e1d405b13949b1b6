package httpapi

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// SecurityHeaders sets the same conservative header set the teacher's own
// server applies to every response: no framing, no sniffing, no referrer
// leakage.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// Recoverer converts a panicking handler into a 500 instead of crashing the
// server, logging the recovered value before responding.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", "path", r.URL.Path, "panic", rec)
					writeJSON(w, http.StatusInternalServerError, searchResponse{
						OK: false,
						Error: &wireError{
							Code:    "unknown_error",
							Message: "internal server error",
						},
						Metadata: metadata{GeneratedAt: time.Now().UTC().Format(time.RFC3339)},
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter is a coarse per-client-IP fixed-window counter, the same shape the
// teacher keeps in front of its own search endpoint: not a precise limiter,
// just a cheap backstop against a single client hammering the upstream
// quota.
type rateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    int
	window  time.Duration
}

type bucket struct {
	count      int
	windowOpen time.Time
}

// NewRateLimiter allows up to rate requests per window per client IP.
func NewRateLimiter(rate int, window time.Duration) *rateLimiter {
	return &rateLimiter{buckets: make(map[string]*bucket), rate: rate, window: window}
}

func (l *rateLimiter) allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[clientIP]
	if !ok || now.Sub(b.windowOpen) > l.window {
		l.buckets[clientIP] = &bucket{count: 1, windowOpen: now}
		return true
	}
	if b.count >= l.rate {
		return false
	}
	b.count++
	return true
}

// Middleware returns the chi-compatible middleware enforcing the limit.
func (l *rateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := clientIPOf(r)
		if !l.allow(clientIP) {
			writeJSON(w, http.StatusTooManyRequests, searchResponse{
				OK: false,
				Error: &wireError{
					Code:    "rate_limited",
					Message: "rate limit exceeded; slow down",
				},
				Metadata: metadata{GeneratedAt: time.Now().UTC().Format(time.RFC3339)},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIPOf(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

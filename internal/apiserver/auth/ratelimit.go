package auth

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// RateLimiter provides per-key request rate limiting using a sliding window.
// The login handler keys it by client address to slow credential guessing.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	window  time.Duration
}

type window struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter creates a rate limiter.
// Example: NewRateLimiter(10, time.Minute) allows 10 requests per minute per key.
func NewRateLimiter(limit int, windowSize time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		window:  windowSize,
	}
}

// Allow checks if a request from the given key is allowed.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[key]
	if !ok || now.After(w.resetAt) {
		rl.windows[key] = &window{count: 1, resetAt: now.Add(rl.window)}
		return true
	}

	if w.count >= rl.limit {
		return false
	}

	w.count++
	return true
}

// Remaining returns how many requests are left in the current window.
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || time.Now().After(w.resetAt) {
		return rl.limit
	}
	rem := rl.limit - w.count
	if rem < 0 {
		return 0
	}
	return rem
}

// ClientKey derives the rate-limit key for a request, the client IP without
// the ephemeral port.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

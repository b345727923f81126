// Package ratelimit throttles expensive report generation per caller.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Config holds rate limiter configuration
type Config struct {
	Requests int
	Window   time.Duration
	// StaleAfter is how long an idle caller is remembered.
	StaleAfter time.Duration
}

// DefaultConfig allows 30 generation requests per caller per minute.
func DefaultConfig() Config {
	return Config{
		Requests:   30,
		Window:     time.Minute,
		StaleAfter: 10 * time.Minute,
	}
}

type window struct {
	start    time.Time
	requests int
	last     time.Time
}

// Limiter is a fixed-window counter keyed by caller.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*window
	cfg     Config
	now     func() time.Time
}

func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.Requests <= 0 {
		cfg.Requests = def.Requests
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = def.StaleAfter
	}
	return &Limiter{
		clients: make(map[string]*window),
		cfg:     cfg,
		now:     time.Now,
	}
}

// Allow counts one request for key and reports whether it is within budget.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[key]
	if !ok || now.Sub(w.start) >= l.cfg.Window {
		l.clients[key] = &window{start: now, requests: 1, last: now}
		return true
	}
	w.requests++
	w.last = now
	return w.requests <= l.cfg.Requests
}

// CleanExpired forgets callers idle for longer than StaleAfter.
func (l *Limiter) CleanExpired() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.cfg.StaleAfter)
	removed := 0
	for key, w := range l.clients {
		if w.last.Before(cutoff) {
			delete(l.clients, key)
			removed++
		}
	}
	return removed
}

// ActiveClients returns the number of currently tracked callers
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Middleware limits requests by the key keyFn derives from the request.
// onLimit writes the rejection; nil writes a plain 429.
func (l *Limiter) Middleware(keyFn func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(l.cfg.Window.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.Allow(keyFn(r)) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", retryAfter)
			if onLimit != nil {
				onLimit(w, r)
				return
			}
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		})
	}
}

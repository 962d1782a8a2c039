// Package ratelimit throttles render and export requests per client IP.
// Every render pass is a login attempt against the database, so the limit
// also bounds credential guessing.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"spendview/internal/metrics"
)

// Config holds rate limiter configuration
type Config struct {
	// RequestsPerWindow is the number of passes a client may start per window.
	RequestsPerWindow int
	Window            time.Duration
	// IdleTimeout evicts clients with no request for this long.
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
}

// DefaultConfig allows 30 passes a minute.
func DefaultConfig() Config {
	return Config{
		RequestsPerWindow: 30,
		Window:            time.Minute,
		IdleTimeout:       10 * time.Minute,
		CleanupInterval:   5 * time.Minute,
	}
}

// window counts one client's requests since opened.
type window struct {
	opened   time.Time
	lastSeen time.Time
	count    int
}

// Limiter is a fixed-window counter per client.
type Limiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	windows map[string]*window

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter starts the eviction loop; call Stop to end it.
// Zero fields in cfg take their DefaultConfig values.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerWindow <= 0 {
		cfg.RequestsPerWindow = def.RequestsPerWindow
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}

	l := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		windows: make(map[string]*window),
		stop:    make(chan struct{}),
	}
	go l.evictLoop()
	return l
}

// Allow counts a request from client. When the client is over its limit it
// returns false and the time left until its window reopens.
func (l *Limiter) Allow(client string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[client]
	if !ok || now.Sub(w.opened) >= l.cfg.Window {
		l.windows[client] = &window{opened: now, lastSeen: now, count: 1}
		return true, 0
	}

	w.count++
	w.lastSeen = now
	if w.count <= l.cfg.RequestsPerWindow {
		return true, 0
	}
	return false, w.opened.Add(l.cfg.Window).Sub(now)
}

func (l *Limiter) evictLoop() {
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) evictIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.cfg.IdleTimeout)
	for client, w := range l.windows {
		if w.lastSeen.Before(cutoff) {
			delete(l.windows, client)
		}
	}
}

// ActiveClients returns the number of clients with an open window.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Stop ends the eviction loop. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Middleware rejects requests over the limit with 429 and Retry-After.
// onLimit writes the rejection body; nil writes a plain text one.
func (l *Limiter) Middleware(clientOf func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := l.Allow(clientOf(r))
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			metrics.RateLimited()
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			if onLimit != nil {
				onLimit(w, r)
				return
			}
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		})
	}
}

// Package trace assigns request IDs and logs each request with a request-scoped logger.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"spendview/internal/log"
	"spendview/internal/metrics"
)

type requestIDKey struct{}

// RequestIDHeader echoes the request ID back to the client.
const RequestIDHeader = "X-Request-ID"

// Stats is a snapshot of the traffic seen by a Middleware.
type Stats struct {
	Requests     int64 `json:"requests"`
	InFlight     int64 `json:"in_flight"`
	ServerErrors int64 `json:"server_errors"`
	LastDuration int64 `json:"last_duration_ms"`
}

// Middleware traces every request through the handler chain.
type Middleware struct {
	logger    *log.Logger
	extractIP func(*http.Request) string

	requests     atomic.Int64
	inFlight     atomic.Int64
	serverErrors atomic.Int64
	lastDuration atomic.Int64
}

func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string) *Middleware {
	if logger == nil {
		logger = log.Discard()
	}
	return &Middleware{
		logger:    logger.WithComponent(log.ComponentTrace),
		extractIP: extractIP,
	}
}

// Middleware returns HTTP middleware for request tracing.
// Downstream handlers get the request logger through log.FromContext.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.requests.Add(1)
		m.inFlight.Add(1)
		defer m.inFlight.Add(-1)

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := GenerateRequestID()
		reqLogger := m.logger.With(log.FieldRequestID, requestID, log.FieldClientIP, clientIP)

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		ctx = log.NewContext(ctx, reqLogger)
		r = r.WithContext(ctx)
		w.Header().Set(RequestIDHeader, requestID)

		// Form bodies carry credentials; only method and path are logged.
		reqLogger.DebugContext(ctx, "HTTP request started",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		elapsed := time.Since(start)
		m.lastDuration.Store(elapsed.Milliseconds())
		metrics.HTTPRequest(r.Method, rw.status)

		level := slog.LevelInfo
		switch {
		case rw.status >= 500:
			level = slog.LevelError
			m.serverErrors.Add(1)
		case rw.status >= 400:
			level = slog.LevelWarn
		}

		reqLogger.Log(ctx, level, "HTTP request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.status,
			log.FieldDuration, elapsed.Milliseconds(),
			log.FieldSuccess, rw.status < 400)
	})
}

// Stats returns the current counters.
func (m *Middleware) Stats() Stats {
	return Stats{
		Requests:     m.requests.Load(),
		InFlight:     m.inFlight.Load(),
		ServerErrors: m.serverErrors.Load(),
		LastDuration: m.lastDuration.Load(),
	}
}

// statusRecorder remembers the status actually sent to the client.
type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wrote {
		rw.status = code
		rw.wrote = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wrote = true
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// GenerateRequestID returns "req_" followed by 16 random hex digits.
func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

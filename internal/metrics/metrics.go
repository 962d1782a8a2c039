// Package metrics holds the Prometheus collectors for render passes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Connection outcomes.
const (
	OutcomeOK                 = "ok"
	OutcomeMissingCredentials = "missing_credentials"
	OutcomeFailed             = "failed"
)

// Pass outcomes.
const (
	PassOK           = "ok"
	PassWarning      = "warning"
	PassConnectError = "connect_error"
	PassQueryError   = "query_error"
	PassChartError   = "chart_error"
	PassUnknownQuery = "unknown_query"
)

var (
	// connectionsTotal counts connection attempts by outcome.
	connectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spendview_connections_total",
			Help: "Database connection attempts by outcome",
		},
		[]string{"outcome"},
	)

	// passesTotal counts render passes by query and outcome.
	passesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spendview_passes_total",
			Help: "Render passes by query slug and outcome",
		},
		[]string{"query", "outcome"},
	)

	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spendview_query_duration_seconds",
			Help:    "Catalog query execution latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	// exportsTotal counts result exports by format.
	exportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spendview_exports_total",
			Help: "Result table exports by format",
		},
		[]string{"format"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spendview_http_requests_total",
			Help: "HTTP requests by method and status class",
		},
		[]string{"method", "status"},
	)

	// auditEventsTotal counts query events consumed by the audit worker.
	auditEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spendview_audit_events_total",
			Help: "Audited query events by query slug and result",
		},
		[]string{"query", "result"},
	)

	// rateLimitedTotal counts requests rejected by the rate limiter.
	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spendview_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		},
	)
)

func Connection(outcome string) {
	connectionsTotal.WithLabelValues(outcome).Inc()
}

func Pass(query, outcome string) {
	passesTotal.WithLabelValues(query, outcome).Inc()
}

func QueryDuration(query string, d time.Duration) {
	queryDuration.WithLabelValues(query).Observe(d.Seconds())
}

func Export(format string) {
	exportsTotal.WithLabelValues(format).Inc()
}

// HTTPRequest records a served request. Status codes are bucketed as 2xx, 3xx, 4xx or 5xx.
func HTTPRequest(method string, status int) {
	httpRequestsTotal.WithLabelValues(method, statusClass(status)).Inc()
}

func RateLimited() {
	rateLimitedTotal.Inc()
}

// AuditEvent records one consumed query event.
func AuditEvent(query string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	auditEventsTotal.WithLabelValues(query, result).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

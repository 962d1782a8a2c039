// Package worker consumes the query events the dashboard publishes and keeps
// a running per-query audit summary.
package worker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"spendview/internal/amqp"
	"spendview/internal/log"
	"spendview/internal/metrics"
)

// QueryStats aggregates the audited passes of one catalog query.
type QueryStats struct {
	Label     string
	Slug      string
	Passes    int
	Failures  int
	Rows      int
	TotalTime time.Duration
	LastError string
	LastSeen  time.Time
}

// MeanDuration is the average execution time over all passes.
func (s QueryStats) MeanDuration() time.Duration {
	if s.Passes == 0 {
		return 0
	}
	return s.TotalTime / time.Duration(s.Passes)
}

// AuditWorker handles query.executed events from AMQP.
type AuditWorker struct {
	logger *log.Logger

	mu    sync.Mutex
	stats map[string]*QueryStats
}

func NewAuditWorker(logger *log.Logger) *AuditWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &AuditWorker{
		logger: logger.WithComponent(log.ComponentAudit),
		stats:  make(map[string]*QueryStats),
	}
}

// HandleQueryExecuted records one event. Events that are not query.executed
// or carry no slug are discarded rather than requeued.
func (w *AuditWorker) HandleQueryExecuted(ctx context.Context, msg *amqp.QueryExecutedMessage) error {
	if msg.Event != amqp.EventQueryExecuted {
		return fmt.Errorf("unexpected event %q: %w", msg.Event, amqp.ErrDiscard)
	}
	if msg.Slug == "" {
		return fmt.Errorf("event without query slug: %w", amqp.ErrDiscard)
	}

	w.mu.Lock()
	s, ok := w.stats[msg.Slug]
	if !ok {
		s = &QueryStats{Label: msg.Label, Slug: msg.Slug}
		w.stats[msg.Slug] = s
	}
	s.Passes++
	s.Rows += msg.Rows
	s.TotalTime += time.Duration(msg.DurationMs) * time.Millisecond
	if !msg.Success {
		s.Failures++
		s.LastError = msg.Error
	}
	if msg.ExecutedAt.After(s.LastSeen) {
		s.LastSeen = msg.ExecutedAt
	}
	w.mu.Unlock()

	metrics.AuditEvent(msg.Slug, msg.Success)

	fields := log.NewFields().
		WithOperation(log.OpAudit).
		WithQuery(msg.Label, msg.Slug, msg.Rows).
		WithDuration(msg.DurationMs)
	fields[log.FieldSuccess] = msg.Success
	if msg.Success {
		w.logger.InfoContext(ctx, "Query audited", fields.ToSlice()...)
	} else {
		fields[log.FieldError] = msg.Error
		w.logger.WarnContext(ctx, "Failed query audited", fields.ToSlice()...)
	}
	return nil
}

// Summary returns a snapshot ordered by pass count, then slug.
func (w *AuditWorker) Summary() []QueryStats {
	w.mu.Lock()
	out := make([]QueryStats, 0, len(w.stats))
	for _, s := range w.stats {
		out = append(out, *s)
	}
	w.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Passes != out[j].Passes {
			return out[i].Passes > out[j].Passes
		}
		return out[i].Slug < out[j].Slug
	})
	return out
}

// LogSummary writes one line per audited query.
func (w *AuditWorker) LogSummary(ctx context.Context) {
	summary := w.Summary()
	if len(summary) == 0 {
		w.logger.InfoContext(ctx, "No query events audited yet")
		return
	}
	for _, s := range summary {
		w.logger.InfoContext(ctx, "Audit summary",
			log.FieldQuerySlug, s.Slug,
			"passes", s.Passes,
			"failures", s.Failures,
			"mean_duration_ms", s.MeanDuration().Milliseconds())
	}
}

// PeriodicSummary logs the summary every interval until ctx is cancelled.
func (w *AuditWorker) PeriodicSummary(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.LogSummary(ctx)
		}
	}
}

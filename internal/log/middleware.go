package log

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// NewContext returns ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the request logger, or one built on slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return wrap(slog.Default(), ComponentApp)
}

// StructuredLogger logs the render pass milestones with a fixed field set.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogQueryExecuted logs a catalog entry that ran to completion.
func (sl *StructuredLogger) LogQueryExecuted(ctx context.Context, label, slug string, rows int, durationMs int64) {
	fields := NewFields().
		WithQuery(label, slug, rows).
		WithOperation(OpExecute).
		WithDuration(durationMs)

	sl.logger.InfoContext(ctx, "Query executed", fields.ToSlice()...)
}

// LogPassFailed logs a render pass that ended in err.
func (sl *StructuredLogger) LogPassFailed(ctx context.Context, label, operation, errorType string, err error) {
	fields := NewFields().
		WithOperation(operation).
		WithError(err)
	fields[FieldQueryLabel] = label
	fields[FieldErrorType] = errorType

	sl.logger.ErrorContext(ctx, "Render pass failed", fields.ToSlice()...)
}

// LogExport logs a result table written to format.
func (sl *StructuredLogger) LogExport(ctx context.Context, format, label string, rows int) {
	fields := NewFields().WithOperation(OpExport)
	fields[FieldFormat] = format
	fields[FieldQueryLabel] = label
	fields[FieldRows] = rows

	sl.logger.InfoContext(ctx, "Result exported", fields.ToSlice()...)
}

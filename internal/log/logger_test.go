package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewText(&buf, slog.LevelInfo, ComponentStorage)

	logger.Info("connected", FieldDriver, "sqlite")
	logger.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "component=storage") {
		t.Errorf("missing component in %q", out)
	}
	if !strings.Contains(out, "driver=sqlite") {
		t.Errorf("missing driver in %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line leaked at info level: %q", out)
	}
}

func TestNewContextStoresLogger(t *testing.T) {
	logger := NewText(&bytes.Buffer{}, slog.LevelInfo, ComponentHTTP)

	if got := FromContext(NewContext(context.Background(), logger)); got != logger {
		t.Fatal("FromContext did not return the stored logger")
	}
	if FromContext(context.Background()).Component() != ComponentApp {
		t.Error("FromContext without logger should fall back to the default")
	}
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewText(&buf, slog.LevelInfo, ComponentHTTP).
		With(FieldRequestID, "abc").
		WithComponent(ComponentTrace)

	logger.Info("done")

	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=trace") {
		t.Errorf("want exactly one component=trace in %q", out)
	}
	if !strings.Contains(out, "request_id=abc") {
		t.Errorf("WithComponent dropped earlier attributes: %q", out)
	}
}

func TestLogQueryExecuted(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(NewText(&buf, slog.LevelInfo, ComponentDashboard))

	sl.LogQueryExecuted(context.Background(), "Total Transactions", "total-transactions", 1, 12)

	out := buf.String()
	for _, want := range []string{`query_label="Total Transactions"`, "rows=1", "operation=execute", "duration_ms=12"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLogPassFailed(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(NewText(&buf, slog.LevelInfo, ComponentDashboard))

	sl.LogPassFailed(context.Background(), "Monthly Spending", OpRender, ErrorTypeBinding, errors.New("column Month is missing"))

	out := buf.String()
	for _, want := range []string{"level=ERROR", "error_type=binding_error", "operation=render", `error="column Month is missing"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLogExport(t *testing.T) {
	var buf bytes.Buffer
	NewStructuredLogger(NewText(&buf, slog.LevelInfo, ComponentHTTP)).
		LogExport(context.Background(), "xlsx", "Monthly Spending", 12)

	out := buf.String()
	for _, want := range []string{"format=xlsx", "rows=12", "operation=export"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

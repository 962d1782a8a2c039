package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spendview/internal/catalog"
	"spendview/internal/charts"
	"spendview/internal/core"
	"spendview/internal/log"
	"spendview/internal/metrics"
	"spendview/internal/ports"
	"spendview/internal/storage"
)

// Page is everything one render pass produces.
type Page struct {
	Entry     catalog.Entry
	Table     core.ResultTable
	ChartKind charts.Kind
	// Chart is a standalone HTML document, empty when the label renders table-only.
	Chart    string
	Headline string
	// ChartErr is set when the table rendered but its chart could not be drawn.
	ChartErr error
	Duration time.Duration
}

// DashboardService runs one linear pass per request:
// connect, execute, render, release.
type DashboardService struct {
	catalog    *catalog.Catalog
	opener     ports.SessionOpener
	publisher  ports.EventPublisher
	logger     *log.Logger
	structured *log.StructuredLogger
	now        func() time.Time
}

func NewDashboardService(cat *catalog.Catalog, opener ports.SessionOpener, publisher ports.EventPublisher, logger *log.Logger) *DashboardService {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentDashboard)
	return &DashboardService{
		catalog:    cat,
		opener:     opener,
		publisher:  publisher,
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
		now:        time.Now,
	}
}

// Catalog returns the query menu the service runs from.
func (s *DashboardService) Catalog() *catalog.Catalog {
	return s.catalog
}

// Execute runs the entry for label and returns its table. The session is
// always released before Execute returns.
func (s *DashboardService) Execute(ctx context.Context, creds core.Credentials, label string) (catalog.Entry, core.ResultTable, error) {
	entry, ok := s.catalog.Lookup(label)
	if !ok {
		metrics.Pass("unknown", metrics.PassUnknownQuery)
		return catalog.Entry{}, core.ResultTable{}, fmt.Errorf("%w: %q", core.ErrUnknownQuery, label)
	}

	session, err := s.opener.Open(ctx, creds)
	if err != nil {
		if errors.Is(err, core.ErrMissingCredentials) {
			metrics.Pass(entry.Slug, metrics.PassWarning)
		} else {
			metrics.Pass(entry.Slug, metrics.PassConnectError)
			s.structured.LogPassFailed(ctx, entry.Label, log.OpExecute, log.ErrorTypeConnection, err)
		}
		return entry, core.ResultTable{}, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			s.logger.WarnContext(ctx, "Failed to close session", log.FieldError, cerr)
		}
	}()

	start := s.now()
	table, err := session.Run(ctx, entry)
	elapsed := s.now().Sub(start)

	s.publish(ctx, entry, table, elapsed, err)

	if err != nil {
		metrics.Pass(entry.Slug, metrics.PassQueryError)
		s.structured.LogPassFailed(ctx, entry.Label, log.OpExecute, log.ErrorTypeDatabase, err)
		return entry, core.ResultTable{}, err
	}

	s.structured.LogQueryExecuted(ctx, entry.Label, entry.Slug, table.Len(), elapsed.Milliseconds())
	return entry, table, nil
}

// Render executes label and draws its chart or headline.
// A chart that cannot be drawn is reported in Page.ChartErr; the table is still returned.
func (s *DashboardService) Render(ctx context.Context, creds core.Credentials, label string) (Page, error) {
	start := s.now()
	entry, table, err := s.Execute(ctx, creds, label)
	if err != nil {
		return Page{Entry: entry}, err
	}

	page := Page{Entry: entry, Table: table}

	if spec, ok := charts.For(entry.Label); ok {
		page.ChartKind = spec.Kind()
		html, err := charts.Render(spec, table)
		if err != nil {
			page.ChartErr = err
		} else {
			page.Chart = html
		}
	}

	if h, ok := charts.HeadlineFor(entry.Label); ok {
		text, err := h.Text(table)
		if err != nil {
			page.ChartErr = err
		} else {
			page.Headline = text
		}
	}

	if page.ChartErr != nil {
		metrics.Pass(entry.Slug, metrics.PassChartError)
		s.structured.LogPassFailed(ctx, entry.Label, log.OpRender, log.ErrorTypeBinding, page.ChartErr)
	} else {
		metrics.Pass(entry.Slug, metrics.PassOK)
	}

	page.Duration = s.now().Sub(start)
	return page, nil
}

func (s *DashboardService) publish(ctx context.Context, entry catalog.Entry, table core.ResultTable, elapsed time.Duration, runErr error) {
	if s.publisher == nil {
		return
	}

	ev := core.QueryEvent{
		Label:      entry.Label,
		Slug:       entry.Slug,
		Rows:       table.Len(),
		Columns:    len(table.Columns),
		Duration:   elapsed,
		Success:    runErr == nil,
		ExecutedAt: s.now().UTC(),
	}
	if runErr != nil {
		// Only the driver message; never the connection string.
		var qe *storage.QueryError
		if errors.As(runErr, &qe) {
			ev.Error = qe.Err.Error()
		} else {
			ev.Error = runErr.Error()
		}
	}

	if err := s.publisher.PublishQueryExecuted(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish query event",
			log.FieldQueryLabel, entry.Label,
			log.FieldError, err)
	}
}

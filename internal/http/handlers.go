package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"spendview/internal/charts"
	"spendview/internal/core"
	"spendview/internal/export"
	"spendview/internal/log"
	"spendview/internal/metrics"
	"spendview/internal/storage"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).String(),
	})
}

// handleReady reports whether the catalog and its chart bindings are usable.
// It never connects to the database: connections need user credentials.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	cat := s.dashboard.Catalog()
	if cat == nil || cat.Len() == 0 {
		checks["catalog"] = "failed: empty catalog"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["catalog"] = map[string]interface{}{
			"status":  "ok",
			"entries": cat.Len(),
			"dialect": string(cat.Dialect()),
		}
		if err := charts.Validate(cat); err != nil {
			checks["charts"] = fmt.Sprintf("failed: %v", err)
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["charts"] = "ok"
		}
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}
	checks["traffic"] = s.traceMiddleware.Stats()
	checks["security"] = s.securityDetector.GetMetrics()
	if s.exporter != nil {
		checks["sheets_export"] = "configured"
	} else {
		checks["sheets_export"] = "not_configured"
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	cat := s.dashboard.Catalog()
	data := indexView{
		Title:         "Personal Expense Tracker",
		DriverName:    driverName(cat.Dialect()),
		Labels:        cat.Labels(),
		SheetsEnabled: s.exporter != nil,
	}
	if len(data.Labels) > 0 {
		data.Selected = data.Labels[0]
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Index template execution failed",
			log.FieldError, err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// queryLabel picks the catalog label a form names, by slug when one is given.
func (s *Server) queryLabel(req RenderRequest) string {
	if req.Slug == "" {
		return req.Label
	}
	if entry, ok := s.dashboard.Catalog().BySlug(req.Slug); ok {
		return entry.Label
	}
	return req.Slug
}

// handleResult runs one render pass and returns the result partial.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRenderRequest(w, r)
	if err != nil {
		alert(http.StatusBadRequest, "Invalid request").send(w)
		return
	}

	page, err := s.dashboard.Render(r.Context(), req.Credentials, s.queryLabel(req))
	if err != nil {
		s.writePassError(w, r, err)
		return
	}

	resp := respond().rendered(page.Entry.Slug, page.Table.Len(), string(page.ChartKind))
	if page.ChartErr != nil {
		resp.notify(noticeError, msgChartFailed)
	}
	s.writeResult(w, r, resp, newResultView(page))
}

// handleExportXLSX runs the selected entry and returns the table as a workbook.
func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRenderRequest(w, r)
	if err != nil {
		alert(http.StatusBadRequest, "Invalid request").send(w)
		return
	}

	entry, table, err := s.dashboard.Execute(r.Context(), req.Credentials, s.queryLabel(req))
	if err != nil {
		s.writePassError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, entry.Label, table); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "XLSX export failed",
			log.FieldQueryLabel, entry.Label,
			log.FieldError, err)
		alert(http.StatusInternalServerError, "Could not build the spreadsheet").send(w)
		return
	}
	metrics.Export("xlsx")
	log.NewStructuredLogger(log.FromContext(r.Context())).LogExport(r.Context(), "xlsx", entry.Label, table.Len())

	respond().
		attachment(export.Filename(entry.Slug), export.XLSXContentType, buf.Bytes()).
		send(w)
}

// handleExportSheets runs the selected entry and writes it to the configured Google Sheet.
func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		alert(http.StatusNotFound, "Google Sheets export is not configured").send(w)
		return
	}

	req, err := ParseRenderRequest(w, r)
	if err != nil {
		alert(http.StatusBadRequest, "Invalid request").send(w)
		return
	}

	entry, table, err := s.dashboard.Execute(r.Context(), req.Credentials, s.queryLabel(req))
	if err != nil {
		s.writePassError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	ref, err := s.exporter.Export(ctx, entry.Label, table)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Sheets export failed",
			log.FieldQueryLabel, entry.Label,
			log.FieldError, err)
		alert(http.StatusBadGateway, "Google Sheets export failed").
			notify(noticeError, "Google Sheets export failed").
			send(w)
		return
	}
	metrics.Export("sheets")
	log.NewStructuredLogger(log.FromContext(r.Context())).LogExport(r.Context(), "sheets", entry.Label, table.Len())

	respond().
		notify(noticeSuccess, fmt.Sprintf("Exported %d rows to %s", table.Len(), ref)).
		html(`<div class="success">Exported to ` + template.HTMLEscapeString(ref) + `</div>`).
		send(w)
}

// writePassError maps render pass failures onto the result partial.
// Connection and query failures are user-visible outcomes, not server errors.
func (s *Server) writePassError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		connErr  *storage.ConnectError
		queryErr *storage.QueryError
	)

	switch {
	case errors.Is(err, core.ErrMissingCredentials):
		msg := fmt.Sprintf(msgMissingCredentials, driverName(s.dashboard.Catalog().Dialect()))
		s.writeResult(w, r, respond().notify(noticeWarning, msg), resultView{Warning: msg})

	case errors.Is(err, core.ErrUnknownQuery):
		alert(http.StatusBadRequest, "Unknown query").send(w)

	case errors.As(err, &connErr):
		s.writeResult(w, r, respond().notify(noticeError, "Connection failed"),
			resultView{Error: "Error: " + connErr.Err.Error()})

	case errors.As(err, &queryErr):
		s.writeResult(w, r, respond().notify(noticeError, "Query failed"),
			resultView{Error: "Error: " + queryErr.Err.Error()})

	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Render pass failed", log.FieldError, err)
		alert(http.StatusInternalServerError, "Unexpected error").send(w)
	}
}

func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, resp *response, view resultView) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "result.html", view); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Result template execution failed",
			log.FieldQueryLabel, view.Label,
			log.FieldError, err)
		alert(http.StatusInternalServerError, "Could not render the result").send(w)
		return
	}
	resp.html(buf.String()).send(w)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

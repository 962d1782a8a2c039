package http

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
)

// Events sent to the page through the HX-Trigger header.
const (
	eventNotification   = "show-notification"
	eventResultRendered = "result:rendered"
)

// Notice levels understood by app.js.
type noticeLevel string

const (
	noticeSuccess noticeLevel = "success"
	noticeWarning noticeLevel = "warning"
	noticeError   noticeLevel = "error"
)

// noticeDuration is how long app.js keeps a notice on screen, in milliseconds.
var noticeDuration = map[noticeLevel]int{
	noticeSuccess: 3000,
	noticeWarning: 4000,
	noticeError:   5000,
}

type notice struct {
	Level    noticeLevel `json:"type"`
	Message  string      `json:"message"`
	Duration int         `json:"duration"`
}

type renderedEvent struct {
	Query string `json:"query"`
	Rows  int    `json:"rows"`
	Chart string `json:"chart,omitempty"`
}

// response collects a partial or attachment together with the page events
// that accompany it. Handlers build one per request and send it once.
type response struct {
	status int
	header http.Header
	events map[string]any
	body   []byte
}

func respond() *response {
	return &response{
		status: http.StatusOK,
		header: make(http.Header),
		events: make(map[string]any),
	}
}

// alert is an escaped error box with the given status.
func alert(status int, message string) *response {
	return respond().
		withStatus(status).
		html(`<div class="error" role="alert">` + template.HTMLEscapeString(message) + `</div>`)
}

func (r *response) withStatus(code int) *response {
	r.status = code
	return r
}

func (r *response) event(name string, payload any) *response {
	r.events[name] = payload
	return r
}

// notify shows a transient notice. A later notify replaces an earlier one.
func (r *response) notify(level noticeLevel, message string) *response {
	return r.event(eventNotification, notice{Level: level, Message: message, Duration: noticeDuration[level]})
}

// rendered announces a finished render pass.
func (r *response) rendered(slug string, rows int, chart string) *response {
	return r.event(eventResultRendered, renderedEvent{Query: slug, Rows: rows, Chart: chart})
}

func (r *response) html(body string) *response {
	r.header.Set("Content-Type", "text/html; charset=utf-8")
	r.body = []byte(body)
	return r
}

// attachment sends data as a file download named filename.
func (r *response) attachment(filename, contentType string, data []byte) *response {
	r.header.Set("Content-Type", contentType)
	r.header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	r.body = data
	return r
}

func (r *response) send(w http.ResponseWriter) {
	for name, values := range r.header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	if len(r.events) > 0 {
		if trigger, err := json.Marshal(r.events); err == nil {
			w.Header().Set("HX-Trigger", string(trigger))
		}
	}
	w.WriteHeader(r.status)
	if len(r.body) > 0 {
		_, _ = w.Write(r.body)
	}
}

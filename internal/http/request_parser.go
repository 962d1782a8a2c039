// Package http provides the dashboard's HTTP server and handlers.
//
// This file decodes render forms. Credentials arrive with every pass and are
// never logged or echoed back.

package http

import (
	"errors"
	"net/http"
	"strings"

	"spendview/internal/core"
)

// maxFormBytes bounds render form bodies.
const maxFormBytes = 16 << 10

// Form field names shared with templates/index.html.
const (
	fieldUsername = "username"
	fieldPassword = "password"
	fieldQuery    = "query"
	fieldSlug     = "slug"
)

var errInvalidForm = errors.New("invalid form")

// RenderRequest is one decoded render form.
type RenderRequest struct {
	Credentials core.Credentials
	Label       string
	// Slug selects the entry by its URL-safe name and wins over Label.
	Slug string
}

// ParseRenderRequest reads credentials and the selected catalog label.
// The password is taken verbatim; whitespace is significant in passwords.
func ParseRenderRequest(w http.ResponseWriter, r *http.Request) (RenderRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return RenderRequest{}, errInvalidForm
	}

	return RenderRequest{
		Credentials: core.Credentials{
			Username: sanitizeInput(r.PostForm.Get(fieldUsername)),
			Password: r.PostForm.Get(fieldPassword),
		},
		Label: sanitizeInput(r.PostForm.Get(fieldQuery)),
		Slug:  sanitizeInput(r.PostForm.Get(fieldSlug)),
	}, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

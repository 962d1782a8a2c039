package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestParseRenderRequest(t *testing.T) {
	tests := []struct {
		name         string
		form         url.Values
		wantUser     string
		wantPassword string
		wantLabel    string
		wantSlug     string
	}{
		{
			name:         "all fields",
			form:         url.Values{"username": {"analyst"}, "password": {"s3cret"}, "query": {"Total Transactions"}},
			wantUser:     "analyst",
			wantPassword: "s3cret",
			wantLabel:    "Total Transactions",
		},
		{
			name:         "username trimmed, password verbatim",
			form:         url.Values{"username": {"  analyst\x00 "}, "password": {" pad "}, "query": {" Monthly Spending "}},
			wantUser:     "analyst",
			wantPassword: " pad ",
			wantLabel:    "Monthly Spending",
		},
		{
			name:         "slug",
			form:         url.Values{"username": {"analyst"}, "password": {"s3cret"}, "slug": {" monthly-spending "}},
			wantUser:     "analyst",
			wantPassword: "s3cret",
			wantSlug:     "monthly-spending",
		},
		{
			name: "empty form",
			form: url.Values{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/ui/result", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			got, err := ParseRenderRequest(httptest.NewRecorder(), req)
			if err != nil {
				t.Fatalf("ParseRenderRequest() error = %v", err)
			}
			if got.Credentials.Username != tt.wantUser {
				t.Errorf("Username = %q, want %q", got.Credentials.Username, tt.wantUser)
			}
			if got.Credentials.Password != tt.wantPassword {
				t.Error("Password was altered")
			}
			if got.Label != tt.wantLabel {
				t.Errorf("Label = %q, want %q", got.Label, tt.wantLabel)
			}
			if got.Slug != tt.wantSlug {
				t.Errorf("Slug = %q, want %q", got.Slug, tt.wantSlug)
			}
		})
	}
}

func TestParseRenderRequestRejectsOversizedBody(t *testing.T) {
	body := "username=a&password=" + strings.Repeat("x", maxFormBytes+1)
	req := httptest.NewRequest(http.MethodPost, "/ui/result", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if _, err := ParseRenderRequest(httptest.NewRecorder(), req); !errors.Is(err, errInvalidForm) {
		t.Fatalf("ParseRenderRequest() error = %v, want errInvalidForm", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  hello  ", "hello"},
		{"hello\x00world", "helloworld"},
		{"tab\there", "tab\there"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := sanitizeInput(tt.input); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

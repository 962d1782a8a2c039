package security

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// EChartsAssetsHost serves the echarts runtime the chart documents load.
const EChartsAssetsHost = "https://go-echarts.github.io"

// hstsMaxAge is one year.
const hstsMaxAge = 365 * 24 * time.Hour

// directive is one Content-Security-Policy entry.
type directive struct {
	name    string
	sources []string
}

// Headers sets the response headers every dashboard page carries.
type Headers struct {
	fixed http.Header
	hsts  string
}

// NewHeaders builds the header set. Chart documents render in a sandboxed
// srcdoc iframe that inherits this policy, so scripts may be inline and may
// load from scriptHosts.
func NewHeaders(scriptHosts ...string) *Headers {
	csp := []directive{
		{"default-src", []string{"'self'"}},
		{"script-src", append([]string{"'self'", "'unsafe-inline'"}, scriptHosts...)},
		{"style-src", []string{"'self'", "'unsafe-inline'"}},
		{"img-src", []string{"'self'", "data:"}},
		{"connect-src", []string{"'self'"}},
		{"font-src", []string{"'self'"}},
		{"object-src", []string{"'none'"}},
		{"frame-src", []string{"'self'"}},
		{"frame-ancestors", []string{"'none'"}},
		{"base-uri", []string{"'self'"}},
		{"form-action", []string{"'self'"}},
	}

	fixed := make(http.Header)
	fixed.Set("Content-Security-Policy", formatCSP(csp))
	fixed.Set("X-Content-Type-Options", "nosniff")
	fixed.Set("X-Frame-Options", "DENY")
	fixed.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	fixed.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
	fixed.Set("Cross-Origin-Opener-Policy", "same-origin")
	// require-corp would block the cross-origin echarts script.
	fixed.Set("Cross-Origin-Embedder-Policy", "unsafe-none")
	fixed.Set("Cross-Origin-Resource-Policy", "same-origin")
	// Result pages carry personal financial data.
	fixed.Set("Cache-Control", "no-store")

	return &Headers{
		fixed: fixed,
		hsts:  fmt.Sprintf("max-age=%d; includeSubDomains", int(hstsMaxAge.Seconds())),
	}
}

func formatCSP(directives []directive) string {
	parts := make([]string, len(directives))
	for i, d := range directives {
		parts[i] = d.name + " " + strings.Join(d.sources, " ")
	}
	return strings.Join(parts, "; ")
}

// Middleware applies the header set. HSTS is only sent over TLS.
func (h *Headers) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dst := w.Header()
		for k, v := range h.fixed {
			dst[k] = v
		}
		if r.TLS != nil {
			dst.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// CacheStatic lets browsers keep embedded assets for maxAge.
func CacheStatic(maxAge time.Duration) func(http.Handler) http.Handler {
	value := fmt.Sprintf("public, max-age=%d, immutable", int(maxAge.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", value)
			next.ServeHTTP(w, r)
		})
	}
}

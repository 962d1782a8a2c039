package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spendview/internal/log"
	"spendview/internal/middleware/ratelimit"
	"spendview/internal/middleware/security"
	"spendview/internal/middleware/trace"
	"spendview/internal/ports"
	"spendview/internal/services"
	appweb "spendview/web"
)

// Options configures the HTTP surface.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	TrustedProxies     []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
}

type Server struct {
	http.Server
	templates *template.Template
	dashboard *services.DashboardService
	// exporter is nil when the Google Sheets export is not configured.
	exporter ports.SheetExporter
	logger   *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	startedAt        time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(opts Options, dashboard *services.DashboardService, exporter ports.SheetExporter, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	templates, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	detector, err := security.NewDetector(opts.TrustedProxies...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Server: http.Server{
			Addr:         opts.Addr,
			ReadTimeout:  orDefault(opts.ReadTimeout, 10*time.Second),
			WriteTimeout: orDefault(opts.WriteTimeout, 60*time.Second),
			IdleTimeout:  orDefault(opts.IdleTimeout, 60*time.Second),
		},
		templates:        templates,
		dashboard:        dashboard,
		exporter:         exporter,
		logger:           logger,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerWindow: opts.RateLimitPerMinute, Window: time.Minute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		startedAt:        time.Now(),
	}
	s.Handler = s.routes()

	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(s.traceMiddleware.Middleware)
	r.Use(s.securityDetector.Middleware(s.logger))
	r.Use(security.NewHeaders("https://unpkg.com", security.EChartsAssetsHost).Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.CacheStatic(time.Hour)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.Get("/", s.handleIndex)

	// Every POST is a render pass with user credentials.
	r.Group(func(r chi.Router) {
		r.Use(s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimit))
		r.Post("/ui/result", s.handleResult)
		r.Post("/export/xlsx", s.handleExportXLSX)
		r.Post("/export/sheets", s.handleExportSheets)
	})

	return r
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	alert(http.StatusTooManyRequests, "Too many requests. Please wait a minute and try again.").
		notify(noticeError, "Rate limit exceeded").
		send(w)
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}

// Package http exposes the upload and summary API.
package http

import (
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"txstats/internal/core"
	"txstats/internal/log"
	"txstats/internal/middleware/ratelimit"
	"txstats/internal/middleware/security"
	"txstats/internal/middleware/trace"
	"txstats/internal/services"
	"txstats/internal/storage"
)

// multipartOverhead is allowed on top of the file cap for boundaries and
// part headers.
const multipartOverhead = 1 << 20

// TransactionService is what the handlers need from the service layer.
type TransactionService interface {
	Upload(ctx context.Context, fileName string, body io.Reader) (services.UploadResult, error)
	Summary(ctx context.Context, userID, dateFrom, dateTo string) (core.Summary, error)
	LatestUpload(ctx context.Context) (core.UploadRecord, error)
}

// Pinger is a dependency that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures NewServer. Zero values fall back to defaults.
type Options struct {
	Logger              *log.Logger
	UploadRatePerMinute int
	RequestTimeout      time.Duration
	MaxUploadBytes      int64
	// Checks are pinged by /readyz, keyed by name.
	Checks map[string]Pinger
}

type Server struct {
	http.Server
	svc      TransactionService
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	checks   map[string]Pinger

	maxUpload int64
	metrics   appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	started         time.Time
	uploadsAccepted int64
	uploadsRejected int64
	summariesServed int64
	summariesFailed int64
}

func (m *appMetrics) inc(counter *int64) { atomic.AddInt64(counter, 1) }

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc TransactionService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = storage.MaxUploadBytes
	}

	detector := security.NewDetector()
	s := &Server{
		svc:       svc,
		logger:    logger.WithComponent(log.ComponentHTTP),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.UploadRatePerMinute}),
		detector:  detector,
		tracer:    trace.NewMiddleware(logger.WithComponent(log.ComponentTrace), detector.ExtractClientIP),
		checks:    opts.Checks,
		maxUpload: maxUpload,
		metrics:   appMetrics{started: time.Now()},
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(s.tracer.Middleware)
	r.Use(log.Middleware(s.logger, func(r *http.Request) string { return chimw.GetReqID(r.Context()) }))
	r.Use(chimw.Recoverer)
	r.Use(detector.Middleware(logger.WithComponent(log.ComponentHTTP).Logger))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(timeout))

		r.With(s.limiter.Middleware(detector.ExtractClientIP, s.onRateLimited)).
			Post("/upload", s.handleUpload)
		r.Get("/summary/{user_id}", s.handleSummary)
		r.Get("/uploads/latest", s.handleLatestUpload)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	writeDetail(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

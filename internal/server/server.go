// Package server exposes the generator over HTTP: an upload form, JSON and
// DOCX endpoints, health and Prometheus metrics.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/glr-generator/constants"
	"github.com/joseph-ayodele/glr-generator/internal/common"
	"github.com/joseph-ayodele/glr-generator/internal/export"
	"github.com/joseph-ayodele/glr-generator/internal/pipeline"
	"github.com/joseph-ayodele/glr-generator/internal/repository"
)

// Generator is the part of the pipeline the handlers drive.
type Generator interface {
	Detect(ctx context.Context, template common.Upload) (constants.Variant, error)
	Generate(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

type Config struct {
	MaxUploadBytes int64         // per file; 0 = 32 MiB
	RequestTimeout time.Duration // 0 = 3 minutes
}

type Server struct {
	cfg     Config
	gen     Generator
	runs    repository.RunRepository // optional
	db      *repository.DB           // optional, for /healthz
	export  *export.Service
	metrics *Metrics
	logger  *slog.Logger
}

func New(cfg Config, gen Generator, runs repository.RunRepository, db *repository.DB, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 3 * time.Minute
	}
	return &Server{
		cfg:     cfg,
		gen:     gen,
		runs:    runs,
		db:      db,
		export:  export.NewService(runs, logger),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestContext)
	r.Use(s.accessLog)
	r.Use(chimiddleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))

		r.Post("/detect", s.handleDetect)
		r.Post("/generate", s.handleGenerate)
		r.Post("/extract", s.handleExtract)

		r.Get("/runs", s.handleListRuns)
		r.Get("/runs.xlsx", s.handleRunsXLSX)
		r.Get("/runs/{runID}", s.handleGetRun)
	})

	return r
}

// requestContext copies chi's request id into our context so every log line
// below carries it as req_id.
func (s *Server) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimiddleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(common.WithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.observeRequest(r.Method, route, status, time.Since(start))

		common.LoggerFrom(r.Context(), s.logger).Info("http.request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

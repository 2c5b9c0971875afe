// Package api serves the risk engine over HTTP for the presentation layer.
package api

import (
	"context"
	"net/http"
	"time"

	"credit-risk-workers/internal/common/database"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/risk"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ProfileLoader interface {
	Get(ctx context.Context, applicantID string) (*risk.ApplicantProfile, error)
}

type AssessmentReader interface {
	Latest(ctx context.Context, applicantID string) (*models.AssessmentRecord, error)
}

// Options wires the server. Profiles, Assessments and Dependencies are optional.
type Options struct {
	Engine         *risk.Engine
	Profiles       ProfileLoader
	Assessments    AssessmentReader
	Dependencies   map[string]database.Pinger
	Logger         logger.Logger
	RequestTimeout time.Duration
}

type Server struct {
	engine      *risk.Engine
	profiles    ProfileLoader
	assessments AssessmentReader
	deps        map[string]database.Pinger
	logger      logger.Logger
	validate    *validator.Validate
	router      chi.Router
}

func NewServer(opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	s := &Server{
		engine:      opts.Engine,
		profiles:    opts.Profiles,
		assessments: opts.Assessments,
		deps:        opts.Dependencies,
		logger:      opts.Logger.WithFields(map[string]interface{}{"component": "api"}),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
	s.setupRoutes(opts.RequestTimeout)
	return s
}

func (s *Server) setupRoutes(timeout time.Duration) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/risk", func(r chi.Router) {
			r.Post("/assess", s.handleAssess)
			r.Post("/simulate", s.handleSimulate)
			r.Post("/counterfactuals", s.handleCounterfactuals)
		})
		r.Get("/applicants/{applicantID}/assessment", s.handleLatestAssessment)
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request served", map[string]interface{}{
			"requestId":  middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"durationMs": time.Since(start).Milliseconds(),
		})
	})
}

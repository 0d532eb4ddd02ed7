// Package api exposes the inference pipeline over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crimson-sun/sieve/internal/model"
)

// Predictor runs one record through the inference pipeline.
type Predictor interface {
	Predict(ctx context.Context, rec model.LogRecord) (model.Prediction, error)
}

// Widths reports the loaded artifact widths for /readyz.
type Widths func() (categorical, text, model int)

// Option configures the router.
type Option func(*Server)

// WithRateLimit limits /predict to n requests per window per client IP.
// n <= 0 disables the limit.
func WithRateLimit(n int, window time.Duration) Option {
	return func(s *Server) {
		s.rateLimit = n
		s.rateWindow = window
	}
}

// WithWidths enables artifact width reporting on /readyz.
func WithWidths(fn Widths) Option {
	return func(s *Server) {
		s.widths = fn
	}
}

// Server holds the handler dependencies.
type Server struct {
	predictor  Predictor
	widths     Widths
	rateLimit  int
	rateWindow time.Duration
}

// NewServer returns a Server backed by p.
func NewServer(p Predictor, opts ...Option) *Server {
	s := &Server{predictor: p, rateWindow: time.Minute}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with global middleware and all routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(Instrument)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if s.rateLimit > 0 {
			r.Use(httprate.LimitByIP(s.rateLimit, s.rateWindow))
		}
		r.Post("/predict", s.handlePredict)
	})

	return r
}

// NewRouter is shorthand for NewServer(p, opts...).Router().
func NewRouter(p Predictor, opts ...Option) http.Handler {
	return NewServer(p, opts...).Router()
}

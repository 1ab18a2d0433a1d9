// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api exposes the HTTP surface of the daemon: clip submission,
// recording listing, the source catalog, date validation and the job-status
// websocket.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ManuGH/bbcd/internal/api/middleware"
	"github.com/ManuGH/bbcd/internal/calendar"
	"github.com/ManuGH/bbcd/internal/channels"
	"github.com/ManuGH/bbcd/internal/domain/recordings/model"
	"github.com/ManuGH/bbcd/internal/health"
	"github.com/ManuGH/bbcd/internal/pipeline/store"
	"github.com/ManuGH/bbcd/internal/pipeline/worker"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WelcomeText is served on GET /.
const WelcomeText = "hey, welcome to the bbcd backend! uh, please leave /lh"

// maxClipBody caps POST /clip request bodies.
const maxClipBody = 4 << 10

// ClipSubmitter starts clip jobs.
type ClipSubmitter interface {
	Submit(ctx context.Context, req worker.ClipRequest) (model.Recording, error)
}

// Config holds the HTTP-facing settings.
type Config struct {
	// ClipRateLimit is the number of POST /clip requests per client IP per minute.
	ClipRateLimit int
	LeapRule      calendar.LeapRule
	// TracingService names the tracer used by the tracing middleware; empty disables it.
	TracingService string
}

// Deps are the collaborators of the HTTP layer.
type Deps struct {
	Store   store.RecordingStore
	Clips   ClipSubmitter
	Catalog *channels.Catalog
	Health  *health.Manager
	// Status serves GET /websocket.
	Status http.Handler
}

// Server routes HTTP requests to the recording pipeline.
type Server struct {
	cfg  Config
	deps Deps
}

// New creates the API server.
func New(cfg Config, deps Deps) *Server {
	if cfg.ClipRateLimit <= 0 {
		cfg.ClipRateLimit = 10
	}
	if cfg.LeapRule == "" {
		cfg.LeapRule = calendar.DefaultLeapRule
	}
	return &Server{cfg: cfg, deps: deps}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableMetrics:  true,
		TracingService: s.cfg.TracingService,
		EnableLogging:  true,
	})

	r.Get("/", s.handleWelcome)
	r.Get("/list-recordings", s.handleListRecordings)
	r.With(middleware.RateLimit(middleware.RateLimitConfig{
		RequestLimit: s.cfg.ClipRateLimit,
		WindowSize:   time.Minute,
	})).Post("/clip", s.handleClip)
	r.Delete("/recordings/{id}", s.handleDeleteRecording)

	r.Route("/sources", func(r chi.Router) {
		r.Get("/", s.handleListSources)
		r.Get("/{id}", s.handleGetSource)
	})
	r.Get("/calendar/{year}/{month}", s.handleCalendar)

	if s.deps.Status != nil {
		r.Get("/websocket", s.deps.Status.ServeHTTP)
	}
	if s.deps.Health != nil {
		r.Get("/healthz", s.deps.Health.ServeHealth)
		r.Get("/readyz", s.deps.Health.ServeReady)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed on this route")
	})
	return r
}

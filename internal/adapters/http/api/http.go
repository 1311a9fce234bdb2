// Package api exposes the matching engine over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/okian/gigmatch/internal/adapters/http/swagger"
	"github.com/okian/gigmatch/internal/adapters/mq/queue"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/ranking"
	"github.com/okian/gigmatch/pkg/logger"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	FindMatches(ctx context.Context, gigID string, limit int, useEnhanced bool) ([]model.MatchResult, error)
	ResultsForGig(ctx context.Context, gigID string) ([]model.MatchResult, error)
	ResultsForTalent(ctx context.Context, talentID string) ([]model.MatchResult, error)

	// Rematch queues a background run. It returns false on backpressure.
	Rematch(ctx context.Context, gigID string, limit int, useEnhanced bool) (bool, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps         Dependencies
	stats        *StatsHandler
	health       *HealthHandler
	validate     *validator.Validate
	defaultLimit int
	maxLimit     int
	rateRequests int
	rateWindow   time.Duration
	corsOrigins  []string
	logger       logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:         deps,
		stats:        NewStatsHandler(statsProvider),
		health:       NewHealthHandler(),
		validate:     validator.New(),
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		logger:       logger.Get().Named("api"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	if len(s.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id", "Retry-After"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", MetricsMiddleware(s.health.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.stats.HandleStats, "stats"))
	swagger.Register(r)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.rateLimit())
		r.Post("/matches", MetricsMiddleware(s.handleFindMatches, "matches"))
		r.Get("/gigs/{gigID}/matches", MetricsMiddleware(s.handleGigMatches, "gig_matches"))
		r.Post("/gigs/{gigID}/rematch", MetricsMiddleware(s.handleRematch, "rematch"))
		r.Get("/talents/{talentID}/matches", MetricsMiddleware(s.handleTalentMatches, "talent_matches"))
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})

	return r
}

// rateLimit returns a per-IP limiter, or a pass-through when disabled.
func (s *Server) rateLimit() func(http.Handler) http.Handler {
	if s.rateRequests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	window := s.rateWindow
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(s.rateRequests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", nil)
		}),
	)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps pipeline errors onto status codes.
func (s *Server) writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ranking.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, ranking.ErrInvalidLimit), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, queue.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	default:
		s.logger.Error(ctx, "request failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

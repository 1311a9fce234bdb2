package api

import (
	"time"

	"github.com/okian/gigmatch/pkg/logger"
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLimits sets the limit applied when a request omits one and the
// largest limit a request may ask for.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(s *Server) {
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
		if defaultLimit > 0 && defaultLimit <= s.maxLimit {
			s.defaultLimit = defaultLimit
		}
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCORS allows cross-origin requests from the given origins.
func WithCORS(origins ...string) Option {
	return func(s *Server) {
		s.corsOrigins = append([]string(nil), origins...)
	}
}

// WithRateLimit caps /api/v1 requests per client IP within window.
// A non-positive requests value disables limiting.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(s *Server) {
		s.rateRequests = requests
		s.rateWindow = window
	}
}

package service

import (
	"github.com/okian/gigmatch/internal/adapters/repository"
	"github.com/okian/gigmatch/internal/domain/ranking"
	"github.com/okian/gigmatch/internal/domain/similarity"
	"github.com/okian/gigmatch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore uses s instead of the backend named in the config.
func WithStore(s repository.Store) Option {
	return func(svc *Service) {
		if s != nil {
			svc.store = s
		}
	}
}

// WithLocker uses l instead of the backend named in the config.
func WithLocker(l ranking.Locker) Option {
	return func(svc *Service) {
		if l != nil {
			svc.locker = l
		}
	}
}

// WithSimilarity uses p instead of probing the configured provider.
func WithSimilarity(p similarity.Provider) Option {
	return func(svc *Service) {
		if p != nil {
			svc.sim = p
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

// Package service assembles the matching engine from configuration and
// implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/okian/gigmatch/internal/adapters/lock"
	"github.com/okian/gigmatch/internal/adapters/mq/queue"
	"github.com/okian/gigmatch/internal/adapters/mq/worker"
	"github.com/okian/gigmatch/internal/adapters/repository"
	"github.com/okian/gigmatch/internal/config"
	"github.com/okian/gigmatch/internal/domain/dedupe"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/ranking"
	"github.com/okian/gigmatch/internal/domain/scoring"
	"github.com/okian/gigmatch/internal/domain/similarity"
	"github.com/okian/gigmatch/internal/seed"
	"github.com/okian/gigmatch/pkg/logger"
	"github.com/okian/gigmatch/pkg/metrics"
)

const redisPingTimeout = 5 * time.Second

// Service owns the matching components and their lifecycle.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	store    repository.Store
	locker   ranking.Locker
	sim      similarity.Provider
	pipeline *ranking.Pipeline
	tracker  dedupe.Tracker
	redis    *redis.Client

	queue *queue.InMemoryQueue
	pool  *worker.Pool

	started bool
	logger  logger.Logger
}

// New builds a Service from cfg. Backends not injected through options are
// created from the config; the caller must Stop the service to release them.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{
		cfg:     cfg,
		tracker: dedupe.NewInMemoryTracker(),
		logger:  logger.Get().Named("service"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := s.setupStore(ctx); err != nil {
		return nil, err
	}
	if err := s.setupLocker(ctx); err != nil {
		s.closeBackends(ctx)
		return nil, err
	}
	if s.sim == nil {
		s.sim = similarity.New(ctx, similarity.Settings{
			Provider:       cfg.Similarity.Provider,
			Model:          cfg.Similarity.Model,
			APIKey:         cfg.Similarity.APIKey,
			CacheSize:      cfg.Similarity.CacheSize,
			Dimensions:     cfg.Similarity.Dimensions,
			RequestTimeout: cfg.Similarity.RequestTimeout,
			BreakerTimeout: cfg.Similarity.BreakerTimeout,
		}, s.logger)
	}

	weights := scoring.DefaultWeights().Override(cfg.Matching.Weights)
	rule := scoring.NewCalculator(scoring.WithWeights(weights))
	enhanced := scoring.NewCalculator(
		scoring.WithWeights(weights),
		scoring.WithPortfolioScorer(scoring.NewEnhancedPortfolio(scoring.RulePortfolio{}, s.sim)),
	)

	s.pipeline = ranking.New(s.store, s.store, s.store, s.locker,
		ranking.WithPoolSize(cfg.Matching.PoolSize),
		ranking.WithMinScore(cfg.Matching.MinScore),
		ranking.WithRuleScorer(rule),
		ranking.WithEnhancedScorer(enhanced),
		ranking.WithLogger(s.logger.Named("pipeline")),
	)

	return s, nil
}

func (s *Service) setupStore(ctx context.Context) error {
	if s.store != nil {
		return nil
	}
	switch s.cfg.Store.Backend {
	case "postgres":
		pg, err := repository.Connect(ctx, s.cfg.Store.PostgresDSN)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSetup, err)
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return fmt.Errorf("%w: %w", ErrSetup, err)
		}
		s.store = pg
		s.logger.Info(ctx, "using postgres store")
	default:
		s.store = repository.NewMemoryStore(ctx)
		s.logger.Info(ctx, "using memory store")
	}

	if s.cfg.Store.Seed {
		talents, gigs, err := seed.Load(ctx, s.store)
		if err != nil {
			_ = s.store.Close()
			return fmt.Errorf("%w: %w", ErrSetup, err)
		}
		s.logger.Info(ctx, "sample data loaded", logger.Int("talents", talents), logger.Int("gigs", gigs))
	}
	return nil
}

func (s *Service) setupLocker(ctx context.Context) error {
	if s.locker != nil {
		return nil
	}
	if s.cfg.Lock.Backend != "redis" {
		s.locker = lock.NewKeyedMutex()
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     s.cfg.Lock.RedisAddr,
		Password: s.cfg.Lock.RedisPassword,
		DB:       s.cfg.Lock.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("%w: redis %s: %w", ErrSetup, s.cfg.Lock.RedisAddr, err)
	}

	s.redis = client
	s.locker = lock.NewRedisLocker(client,
		lock.WithLeaseTTL(s.cfg.Lock.LeaseTTL),
		lock.WithRetryInterval(s.cfg.Lock.RetryInterval),
		lock.WithLogger(s.logger.Named("lock")),
	)
	s.logger.Info(ctx, "using redis locks", logger.String("addr", s.cfg.Lock.RedisAddr))
	return nil
}

// Start launches the rematch workers. They outlive ctx and run until Stop
// drains the queue, so a cancelled serve context does not drop queued jobs.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.Rematch.QueueSize))
	s.pool = worker.NewPool(s.cfg.Rematch.Workers, s.queue, s.pipeline,
		worker.WithReleaser(s.tracker),
		worker.WithLogger(s.logger.Named("worker")),
	)
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "matching service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.cfg.Rematch.QueueSize),
		logger.Bool("similarity_degraded", s.sim.Degraded()),
	)
	return nil
}

// Stop drains the rematch queue. Backends stay open until Close.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping matching service...")
	err := s.pool.Shutdown(ctx)
	s.started = false
	if err != nil {
		return fmt.Errorf("stop workers: %w", err)
	}
	s.logger.Info(ctx, "matching service stopped")
	return nil
}

// Close stops the service and releases the store, locks and caches.
func (s *Service) Close(ctx context.Context) error {
	err := s.Stop(ctx)
	s.closeBackends(ctx)
	return err
}

func (s *Service) closeBackends(ctx context.Context) {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "closing store", logger.Error(err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn(ctx, "closing redis", logger.Error(err))
		}
	}
	if c, ok := s.sim.(interface{ Close() }); ok {
		c.Close()
	}
}

// Store exposes the backing store, e.g. for seeding.
func (s *Service) Store() repository.Store { return s.store }

// FindMatches runs the ranking pipeline synchronously.
func (s *Service) FindMatches(ctx context.Context, gigID string, limit int, useEnhanced bool) ([]model.MatchResult, error) {
	return s.pipeline.FindMatches(ctx, gigID, limit, useEnhanced)
}

// ResultsForGig returns the persisted ranking of a gig.
func (s *Service) ResultsForGig(ctx context.Context, gigID string) ([]model.MatchResult, error) {
	return s.pipeline.ResultsForGig(ctx, gigID)
}

// ResultsForTalent returns every persisted result naming a talent.
func (s *Service) ResultsForTalent(ctx context.Context, talentID string) ([]model.MatchResult, error) {
	return s.pipeline.ResultsForTalent(ctx, talentID)
}

// Rematch queues a background run for gigID. An identical pending request
// counts as accepted. It returns false when the queue is full.
func (s *Service) Rematch(ctx context.Context, gigID string, limit int, useEnhanced bool) (bool, error) {
	if limit < 1 || limit > s.cfg.Matching.MaxLimit {
		return false, fmt.Errorf("%w: %d", ranking.ErrInvalidLimit, limit)
	}
	if _, err := s.store.Gig(ctx, gigID); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return false, ErrNotStarted
	}

	key := dedupe.Key(gigID, limit, useEnhanced)
	if s.tracker.SeenAndRecord(ctx, key) {
		metrics.RecordRematchDuplicate()
		return true, nil
	}

	job := model.RematchJob{
		JobID:     uuid.NewString(),
		GigID:     gigID,
		Limit:     limit,
		Enhanced:  useEnhanced,
		Requested: time.Now(),
	}
	if !s.queue.Enqueue(ctx, job) {
		s.tracker.Unrecord(ctx, key)
		s.logger.Warn(ctx, "rematch rejected, queue full", logger.String("gig_id", gigID))
		return false, nil
	}

	s.logger.Debug(ctx, "rematch queued", logger.String("job_id", job.JobID), logger.String("gig_id", gigID))
	return true, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":             s.started,
		"store":               s.cfg.Store.Backend,
		"lock":                s.cfg.Lock.Backend,
		"similarity_provider": s.cfg.Similarity.Provider,
		"similarity_degraded": s.sim.Degraded(),
		"pending_rematches":   s.tracker.Size(),
	}

	if talents, gigs, err := s.store.Counts(ctx); err == nil {
		stats["total_talents"] = talents
		stats["total_gigs"] = gigs
		metrics.UpdateTotalTalents(talents)
		metrics.UpdateTotalGigs(gigs)
	}

	if s.started {
		stats["workers"] = s.pool.Size()
		stats["queue_length"] = s.queue.Len(ctx)
		stats["rematches_processed"] = s.pool.Processed()
		stats["rematches_failed"] = s.pool.Failed()
	}

	return stats
}

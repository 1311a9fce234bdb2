// Package worker runs queued rematch jobs through the ranking pipeline.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/gigmatch/internal/adapters/mq/queue"
	"github.com/okian/gigmatch/internal/domain/dedupe"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/ranking"
	"github.com/okian/gigmatch/pkg/logger"
	"github.com/okian/gigmatch/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Job is what workers read off the queue.
type Job = queue.Job

// Matcher re-ranks a gig.
type Matcher interface {
	FindMatches(ctx context.Context, gigID string, limit int, useEnhanced bool) ([]model.MatchResult, error)
}

// Releaser drops the pending marker of a job once a worker picks it up.
type Releaser interface {
	Unrecord(ctx context.Context, key string)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// InMemoryWorker consumes jobs until the queue closes or ctx is done.
type InMemoryWorker struct {
	queue    Queue
	matcher  Matcher
	releaser Releaser
	name     string

	processed atomic.Int64
	failed    atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, m Matcher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		matcher:  m,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, j); err != nil {
				w.logger.Error(ctx, "rematch failed",
					logger.String("job_id", j.JobID),
					logger.String("gig_id", j.GigID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker without waiting for the queue to drain.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns the number of jobs that completed successfully.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

// Failed returns the number of jobs that returned an error.
func (w *InMemoryWorker) Failed() int64 { return w.failed.Load() }

// process releases the pending key before running, so a request arriving
// mid-run queues a follow-up instead of folding into this one.
func (w *InMemoryWorker) process(ctx context.Context, j Job) error {
	start := time.Now()
	if w.releaser != nil {
		w.releaser.Unrecord(context.WithoutCancel(ctx), dedupe.Key(j.GigID, j.Limit, j.Enhanced))
	}
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	results, err := w.matcher.FindMatches(ctx, j.GigID, j.Limit, j.Enhanced)
	if err != nil {
		w.failed.Add(1)
		metrics.RecordWorkerError(errorKind(err))
		return fmt.Errorf("rematch %s: %w", j.JobID, err)
	}

	w.processed.Add(1)
	w.logger.Debug(ctx, "rematch complete",
		logger.String("job_id", j.JobID),
		logger.String("gig_id", j.GigID),
		logger.Int("matches", len(results)),
		logger.Duration("queued_for", start.Sub(j.Requested)),
	)
	return nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ranking.ErrNotFound):
		return "not_found"
	case errors.Is(err, ranking.ErrComputation):
		return "computation"
	case errors.Is(err, ranking.ErrPersist):
		return "persist"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. opts apply to every worker.
func NewPool(workerCount int, q Queue, m Matcher, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := range workerCount {
		wopts := append(append([]Option{}, opts...), WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewInMemoryWorker(q, m, wopts...)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed sums successful jobs across workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Failed sums failed jobs across workers.
func (p *Pool) Failed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Failed()
	}
	return n
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
		}
	}

	metrics.UpdateWorkerCount(0)
	return nil
}

// Package ranking runs the match pipeline for a gig: fetch candidates, score,
// filter, rank and atomically replace the persisted result set.
package ranking

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/okian/gigmatch/internal/domain/explain"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/scoring"
	"github.com/okian/gigmatch/pkg/logger"
	"github.com/okian/gigmatch/pkg/metrics"
)

// Pipeline defaults.
const (
	DefaultPoolSize = 1000
	DefaultMinScore = 3.0
)

// Metric labels.
const (
	outcomeOK         = "ok"
	outcomeNotFound   = "not_found"
	outcomeInvalid    = "invalid"
	outcomeError      = "error"
	reasonUnavailable = "unavailable"
	reasonBelowMin    = "below_threshold"
)

// Pipeline ranks talents for gigs. Runs for different gigs may proceed in
// parallel; result replacement for the same gig is serialized by the Locker.
type Pipeline struct {
	gigs     GigRepository
	talents  TalentRepository
	results  ResultRepository
	locker   Locker
	rule     scoring.Scorer
	enhanced scoring.Scorer
	poolSize int
	minScore float64
	log      logger.Logger
	now      func() time.Time
	newID    func() string
}

// New creates a pipeline. The locker guards ReplaceForGig per gig id.
func New(gigs GigRepository, talents TalentRepository, results ResultRepository, locker Locker, opts ...Option) *Pipeline {
	p := &Pipeline{
		gigs:     gigs,
		talents:  talents,
		results:  results,
		locker:   locker,
		rule:     scoring.NewCalculator(),
		poolSize: DefaultPoolSize,
		minScore: DefaultMinScore,
		log:      logger.Nop(),
		now:      time.Now,
		newID:    newUUID,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.log = p.log.Named("ranking")
	return p
}

type candidate struct {
	talentID  string
	score     float64
	breakdown model.ScoreBreakdown
}

// FindMatches runs the pipeline for gigID and returns the persisted results,
// best first with ranks 1..K where K = min(limit, qualifying candidates).
//
// A missing gig returns ErrNotFound. Any scoring failure aborts the run before
// persistence so the previous result set stays intact.
func (p *Pipeline) FindMatches(ctx context.Context, gigID string, limit int, useEnhanced bool) ([]model.MatchResult, error) {
	start := p.now()
	algo := model.AlgorithmRuleBased
	scorer := p.rule
	if useEnhanced {
		algo = model.AlgorithmEnhanced
		if p.enhanced != nil {
			scorer = p.enhanced
		}
	}

	if limit < 1 {
		metrics.RecordMatchRun(string(algo), outcomeInvalid)
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}

	gig, err := p.gigs.Gig(ctx, gigID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.RecordMatchRun(string(algo), outcomeNotFound)
			return nil, fmt.Errorf("gig %s: %w", gigID, err)
		}
		metrics.RecordMatchRun(string(algo), outcomeError)
		return nil, fmt.Errorf("load gig %s: %w", gigID, err)
	}

	pool, err := p.talents.Talents(ctx, p.poolSize)
	if err != nil {
		metrics.RecordMatchRun(string(algo), outcomeError)
		return nil, fmt.Errorf("load talent pool: %w", err)
	}

	kept, err := p.score(ctx, scorer, pool, gig)
	if err != nil {
		metrics.RecordMatchRun(string(algo), outcomeError)
		return nil, err
	}

	slices.SortFunc(kept, func(a, b candidate) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.talentID, b.talentID)
	})
	if len(kept) > limit {
		kept = kept[:limit]
	}

	createdAt := p.now().UTC()
	results := make([]model.MatchResult, len(kept))
	for i, c := range kept {
		results[i] = model.MatchResult{
			ID:          p.newID(),
			GigID:       gig.ID,
			TalentID:    c.talentID,
			Score:       c.score,
			Rank:        i + 1,
			Breakdown:   c.breakdown,
			Explanation: explain.Explain(c.breakdown),
			Algorithm:   algo,
			CreatedAt:   createdAt,
		}
	}

	if err := p.replace(ctx, gig.ID, results); err != nil {
		metrics.RecordMatchRun(string(algo), outcomeError)
		return nil, err
	}

	elapsed := p.now().Sub(start)
	metrics.RecordMatchRun(string(algo), outcomeOK)
	metrics.RecordMatchRunLatency(string(algo), float64(elapsed.Milliseconds()))
	metrics.RecordResultsPersisted(len(results))
	p.log.Info(ctx, "found matches",
		logger.String("gig_id", gig.ID),
		logger.Int("count", len(results)),
		logger.Int("pool", len(pool)),
		logger.String("algorithm", string(algo)),
		logger.Float64("elapsed_ms", float64(elapsed.Microseconds())/1000),
	)

	return results, nil
}

func (p *Pipeline) score(ctx context.Context, scorer scoring.Scorer, pool []model.TalentProfile, gig model.GigRequirement) ([]candidate, error) {
	kept := make([]candidate, 0, len(pool))
	var unavailable, below int
	for _, t := range pool {
		if t.Availability == model.Unavailable {
			unavailable++
			continue
		}
		res, err := scorer.Score(ctx, t, gig)
		if err != nil {
			return nil, fmt.Errorf("%w: gig %s: %w", ErrComputation, gig.ID, err)
		}
		metrics.ObserveCompositeScore(res.Score)
		if res.Score <= p.minScore {
			below++
			continue
		}
		kept = append(kept, candidate{talentID: t.ID, score: res.Score, breakdown: res.Breakdown})
	}

	metrics.RecordCandidatesScored(len(pool) - unavailable)
	metrics.RecordCandidatesFiltered(reasonUnavailable, unavailable)
	metrics.RecordCandidatesFiltered(reasonBelowMin, below)
	return kept, nil
}

func (p *Pipeline) replace(ctx context.Context, gigID string, results []model.MatchResult) error {
	waitStart := p.now()
	unlock, err := p.locker.Lock(ctx, gigID)
	if err != nil {
		return fmt.Errorf("%w: lock gig %s: %w", ErrPersist, gigID, err)
	}
	defer unlock()
	metrics.RecordLockWait(float64(p.now().Sub(waitStart).Milliseconds()))

	if err := p.results.ReplaceForGig(ctx, gigID, results); err != nil {
		return fmt.Errorf("%w: gig %s: %w", ErrPersist, gigID, err)
	}
	return nil
}

// ResultsForGig returns the persisted results for a gig ordered by rank.
func (p *Pipeline) ResultsForGig(ctx context.Context, gigID string) ([]model.MatchResult, error) {
	if _, err := p.gigs.Gig(ctx, gigID); err != nil {
		return nil, fmt.Errorf("gig %s: %w", gigID, err)
	}
	res, err := p.results.ResultsForGig(ctx, gigID)
	if err != nil {
		return nil, fmt.Errorf("results for gig %s: %w", gigID, err)
	}
	return res, nil
}

// ResultsForTalent returns every persisted result naming the talent.
func (p *Pipeline) ResultsForTalent(ctx context.Context, talentID string) ([]model.MatchResult, error) {
	res, err := p.results.ResultsForTalent(ctx, talentID)
	if err != nil {
		return nil, fmt.Errorf("results for talent %s: %w", talentID, err)
	}
	return res, nil
}

package ranking

import (
	"time"

	"github.com/google/uuid"

	"github.com/okian/gigmatch/internal/domain/scoring"
	"github.com/okian/gigmatch/pkg/logger"
)

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithPoolSize bounds how many talents are fetched per run.
func WithPoolSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.poolSize = n
		}
	}
}

// WithMinScore sets the exclusive lower bound a composite must exceed.
func WithMinScore(threshold float64) Option {
	return func(p *Pipeline) {
		if threshold >= 0 {
			p.minScore = threshold
		}
	}
}

// WithRuleScorer sets the scorer used for rule-based runs.
func WithRuleScorer(s scoring.Scorer) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.rule = s
		}
	}
}

// WithEnhancedScorer sets the scorer used when a run asks for semantic
// enhancement. Without one, enhanced runs use the rule scorer.
func WithEnhancedScorer(s scoring.Scorer) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.enhanced = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithClock overrides the time source used for CreatedAt and timings.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithIDGenerator overrides result id generation.
func WithIDGenerator(gen func() string) Option {
	return func(p *Pipeline) {
		if gen != nil {
			p.newID = gen
		}
	}
}

func newUUID() string { return uuid.NewString() }

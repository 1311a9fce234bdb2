package scoring

import "errors"

// Sentinel errors for scoring.
var (
	ErrScoringCancelled = errors.New("scoring cancelled")
	ErrPortfolioScorer  = errors.New("portfolio scorer failed")
)

package ranking

import (
	"context"

	"github.com/okian/gigmatch/internal/domain/model"
)

// GigRepository loads gig requirements.
type GigRepository interface {
	// Gig returns ErrNotFound (possibly wrapped) for unknown ids.
	Gig(ctx context.Context, id string) (model.GigRequirement, error)
}

// TalentRepository loads the candidate pool.
type TalentRepository interface {
	// Talents returns up to limit profiles with skills and portfolio loaded,
	// ordered by id.
	Talents(ctx context.Context, limit int) ([]model.TalentProfile, error)
}

// ResultRepository persists ranked results.
type ResultRepository interface {
	// ReplaceForGig deletes every result for gigID and inserts results as one
	// atomic step. Readers observe either the old or the new set.
	ReplaceForGig(ctx context.Context, gigID string, results []model.MatchResult) error

	// ResultsForGig returns results ordered by rank.
	ResultsForGig(ctx context.Context, gigID string) ([]model.MatchResult, error)

	// ResultsForTalent returns results across gigs, best score first.
	ResultsForTalent(ctx context.Context, talentID string) ([]model.MatchResult, error)
}

// Locker serializes work per key.
type Locker interface {
	// Lock blocks until key is held or ctx is done. The returned func
	// releases the lock and is safe to call once.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

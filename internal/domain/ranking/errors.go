package ranking

import "errors"

// Sentinel errors for ranking runs.
var (
	// ErrNotFound is returned, wrapped, when a gig does not exist.
	// Repositories return it for missing records.
	ErrNotFound = errors.New("not found")

	ErrInvalidLimit = errors.New("limit must be at least 1")
	ErrComputation  = errors.New("scoring candidates failed")
	ErrPersist      = errors.New("persisting match results failed")
)

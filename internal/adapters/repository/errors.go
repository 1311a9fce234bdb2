package repository

import (
	"errors"

	"github.com/okian/gigmatch/internal/domain/ranking"
)

// Sentinel kinds for storage errors.
var (
	// ErrNotFound is ranking.ErrNotFound so callers can match either.
	ErrNotFound = ranking.ErrNotFound

	ErrInvalidRecord = errors.New("invalid record")
	ErrMixedGig      = errors.New("result belongs to a different gig")
)

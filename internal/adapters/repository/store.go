// Package repository implements storage for gigs, talents and match results.
package repository

import (
	"context"

	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/ranking"
)

// Store provides read/write access to matching state.
type Store interface {
	ranking.GigRepository
	ranking.TalentRepository
	ranking.ResultRepository

	// PutGig inserts or replaces a gig.
	PutGig(ctx context.Context, g model.GigRequirement) error
	// PutTalent inserts or replaces a talent with its skills and portfolio.
	PutTalent(ctx context.Context, t model.TalentProfile) error

	// Counts returns the number of talents and gigs stored.
	Counts(ctx context.Context) (talents, gigs int, err error)

	Close() error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

// Package seed ships a small sample data set of talents and gigs for demos
// and local development.
package seed

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/okian/gigmatch/internal/domain/model"
)

//go:embed sample.json
var sampleJSON []byte

// Data is a decoded sample set.
type Data struct {
	Talents []model.TalentProfile  `json:"talents"`
	Gigs    []model.GigRequirement `json:"gigs"`
}

// Writer accepts seeded records.
type Writer interface {
	PutTalent(ctx context.Context, t model.TalentProfile) error
	PutGig(ctx context.Context, g model.GigRequirement) error
}

// Sample decodes the bundled data set.
func Sample() (Data, error) {
	var d Data
	if err := json.Unmarshal(sampleJSON, &d); err != nil {
		return Data{}, fmt.Errorf("decode sample data: %w", err)
	}
	return d, nil
}

// Load writes the bundled data set to w and returns how many talents and
// gigs were written.
func Load(ctx context.Context, w Writer) (talents, gigs int, err error) {
	d, err := Sample()
	if err != nil {
		return 0, 0, err
	}
	for _, t := range d.Talents {
		if err := w.PutTalent(ctx, t); err != nil {
			return talents, gigs, fmt.Errorf("seed talent %s: %w", t.ID, err)
		}
		talents++
	}
	for _, g := range d.Gigs {
		if err := w.PutGig(ctx, g); err != nil {
			return talents, gigs, fmt.Errorf("seed gig %s: %w", g.ID, err)
		}
		gigs++
	}
	return talents, gigs, nil
}

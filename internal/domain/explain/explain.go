// Package explain turns a score breakdown into a short rationale.
package explain

import (
	"strings"

	"github.com/okian/gigmatch/internal/domain/model"
)

// Tier thresholds. Scores strictly between caution and moderate get no phrase.
const (
	strongAt   = 8.0
	moderateAt = 6.0
	cautionAt  = 3.0
)

// Fallback is returned when no dimension produces a phrase.
const Fallback = "Basic compatibility"

type dimension struct {
	value    func(model.ScoreBreakdown) float64
	strong   string
	moderate string
	caution  string
}

// Availability is intentionally absent.
var dimensions = []dimension{ //nolint:gochecknoglobals // phrase table
	{
		value:    func(b model.ScoreBreakdown) float64 { return b.Location },
		strong:   "Excellent location match",
		moderate: "Good location compatibility",
		caution:  "Location may require discussion",
	},
	{
		value:    func(b model.ScoreBreakdown) float64 { return b.Budget },
		strong:   "Budget aligns well",
		moderate: "Budget is reasonable",
		caution:  "Budget may need negotiation",
	},
	{
		value:    func(b model.ScoreBreakdown) float64 { return b.Skill },
		strong:   "Strong skill match",
		moderate: "Good skill compatibility",
		caution:  "Limited skill overlap",
	},
	{
		value:    func(b model.ScoreBreakdown) float64 { return b.Experience },
		strong:   "Perfect experience level",
		moderate: "Suitable experience",
		caution:  "Experience below requirement",
	},
	{
		value:    func(b model.ScoreBreakdown) float64 { return b.Portfolio },
		strong:   "Highly relevant portfolio",
		moderate: "Relevant portfolio work",
		caution:  "Limited portfolio relevance",
	},
	{
		value:    func(b model.ScoreBreakdown) float64 { return b.Rating },
		strong:   "Highly rated talent",
		moderate: "Good reputation",
		caution:  "Limited track record",
	},
}

// Explain returns the phrases for b joined with "; ".
func Explain(b model.ScoreBreakdown) string {
	parts := make([]string, 0, len(dimensions))
	for _, d := range dimensions {
		v := d.value(b)
		switch {
		case v >= strongAt:
			parts = append(parts, d.strong)
		case v >= moderateAt:
			parts = append(parts, d.moderate)
		case v <= cautionAt:
			parts = append(parts, d.caution)
		}
	}
	if len(parts) == 0 {
		return Fallback
	}
	return strings.Join(parts, "; ")
}

package scoring

import (
	"context"
	"math"
	"strings"

	"github.com/okian/gigmatch/internal/domain/model"
)

// Portfolio rule points.
const (
	maxPortfolioItems = 5
	projectTypePoints = 3.0
	stylePoints       = 2.0
	tagPoints         = 1.0
	semanticScale     = 5.0
)

// PortfolioScorer computes the portfolio sub-score.
type PortfolioScorer interface {
	Portfolio(ctx context.Context, talent model.TalentProfile, gig model.GigRequirement) (float64, error)
}

// Similarity estimates semantic closeness of two passages in [0,1].
// Degraded reports that the capability is unavailable.
type Similarity interface {
	Similarity(ctx context.Context, a, b string) float64
	Degraded() bool
}

// RulePortfolio scores portfolio relevance from project type, style
// keywords and tags.
type RulePortfolio struct{}

// Portfolio implements PortfolioScorer.
func (RulePortfolio) Portfolio(_ context.Context, talent model.TalentProfile, gig model.GigRequirement) (float64, error) {
	items := considered(talent.Portfolio)
	if len(items) == 0 {
		return 0, nil
	}

	category := strings.ToLower(strings.TrimSpace(gig.Category))
	prefs := wordSet(gig.StylePreferences)
	words := wordSet(gig.Description)

	var total float64
	for _, it := range items {
		if category != "" && strings.EqualFold(strings.TrimSpace(it.ProjectType), category) {
			total += projectTypePoints
		}
		if intersects(commaSet(it.StyleKeywords), prefs) {
			total += stylePoints
		}
		if intersects(commaSet(it.Tags), words) {
			total += tagPoints
		}
	}

	return math.Min(total/float64(len(items)), MaxScore), nil
}

// EnhancedPortfolio adds a semantic bonus from description similarity on top
// of a base scorer. With a degraded provider it returns the base score.
type EnhancedPortfolio struct {
	base PortfolioScorer
	sim  Similarity
}

// NewEnhancedPortfolio wraps base with a similarity bonus. A nil base uses
// the rule-based scorer.
func NewEnhancedPortfolio(base PortfolioScorer, sim Similarity) *EnhancedPortfolio {
	if base == nil {
		base = RulePortfolio{}
	}
	return &EnhancedPortfolio{base: base, sim: sim}
}

// Portfolio implements PortfolioScorer.
func (e *EnhancedPortfolio) Portfolio(ctx context.Context, talent model.TalentProfile, gig model.GigRequirement) (float64, error) {
	base, err := e.base.Portfolio(ctx, talent, gig)
	if err != nil {
		return 0, err
	}
	if e.sim == nil || e.sim.Degraded() {
		return base, nil
	}

	var sum float64
	var n int
	for _, it := range considered(talent.Portfolio) {
		if strings.TrimSpace(it.Description) == "" {
			continue
		}
		sum += e.sim.Similarity(ctx, it.Description, gig.Description) * semanticScale
		n++
	}
	if n == 0 {
		return base, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	return math.Min(base+sum/float64(n), MaxScore), nil
}

func considered(items []model.PortfolioItem) []model.PortfolioItem {
	if len(items) > maxPortfolioItems {
		return items[:maxPortfolioItems]
	}
	return items
}

// commaSet splits a comma separated field into lowercased tokens. Tokens
// keep their surrounding spaces, so "a, b" yields "a" and " b".
func commaSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Split(strings.ToLower(s), ",") {
		if tok != "" {
			out[tok] = struct{}{}
		}
	}
	return out
}

// wordSet splits free text on whitespace into lowercased tokens.
func wordSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		out[tok] = struct{}{}
	}
	return out
}

func intersects(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

// Package scoring computes the per-dimension sub-scores for a (talent, gig)
// pair and blends them into one composite score.
package scoring

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/okian/gigmatch/internal/domain/model"
)

// Scoring constants.
const (
	MaxScore     = 10.0
	neutralScore = 5.0

	regionScore  = 7.0
	countryScore = 4.0
	farScore     = 1.0

	hoursPerDay = 8

	overqualifiedScore = 7.0
	gapPenalty         = 2.0
	categoryBonus      = 2.0
	busyScore          = 3.0
)

// Regional hubs treated as one region when both locations mention them.
var defaultRegions = []string{"mumbai", "delhi", "bangalore", "hyderabad", "pune", "chennai", "kolkata"} //nolint:gochecknoglobals // lookup table

type yearRange struct {
	min, max float64
}

var experienceTiers = map[model.Experience]yearRange{ //nolint:gochecknoglobals // lookup table
	model.ExperienceJunior: {0, 2},
	model.ExperienceMid:    {2, 5},
	model.ExperienceSenior: {5, math.Inf(1)},
}

// Result contains the composite score and its breakdown.
type Result struct {
	Score     float64
	Breakdown model.ScoreBreakdown
}

// Scorer computes a match score for a talent against a gig.
type Scorer interface {
	// Score computes the composite, honoring ctx for cancellation.
	Score(ctx context.Context, talent model.TalentProfile, gig model.GigRequirement) (Result, error)
}

// Calculator implements Scorer. It is stateless after construction and safe
// for concurrent use.
type Calculator struct {
	weights   Weights
	portfolio PortfolioScorer
	regions   []string
}

// NewCalculator creates a calculator with default weights and the
// rule-based portfolio scorer.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		weights:   DefaultWeights(),
		portfolio: RulePortfolio{},
		regions:   defaultRegions,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Score computes all sub-scores and the composite.
func (c *Calculator) Score(ctx context.Context, talent model.TalentProfile, gig model.GigRequirement) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrScoringCancelled, err)
	}

	portfolio, err := c.portfolio.Portfolio(ctx, talent, gig)
	if err != nil {
		return Result{}, fmt.Errorf("%w: talent %s: %w", ErrPortfolioScorer, talent.ID, err)
	}

	b := model.ScoreBreakdown{
		Location:     c.Location(talent.Location, gig.Location, gig.Remote),
		Budget:       Budget(talent, gig),
		Skill:        Skill(talent.Skills, gig.RequiredSkills),
		Experience:   Experience(talent.ExperienceYears, gig.Experience),
		Availability: Availability(talent.Availability),
		Portfolio:    clamp(portfolio),
		Rating:       Rating(talent.Rating),
	}

	return Result{Score: c.Composite(b, gig.Priority, talent.SuccessRate), Breakdown: b}, nil
}

// Composite blends a breakdown with the priority and success-rate bonuses.
func (c *Calculator) Composite(b model.ScoreBreakdown, priority model.Priority, successRate float64) float64 {
	total := c.weights.blend(b)
	total += c.weights.PriorityBonus[priority]
	total += c.weights.successBonus(successRate)
	return math.Min(total, MaxScore)
}

// Location scores geographic compatibility.
func (c *Calculator) Location(talentLoc, gigLoc string, remote bool) float64 {
	if remote {
		return MaxScore
	}
	gl := strings.ToLower(strings.TrimSpace(gigLoc))
	if gl == "" {
		return neutralScore
	}
	// A blank talent location is contained in every gig location.
	tl := strings.ToLower(strings.TrimSpace(talentLoc))
	if strings.Contains(gl, tl) || strings.Contains(tl, gl) {
		return MaxScore
	}
	for _, r := range c.regions {
		if strings.Contains(tl, r) && strings.Contains(gl, r) {
			return regionScore
		}
	}
	if sameCountry(tl, gl) {
		return countryScore
	}
	return farScore
}

// All locations are assumed to share a country until geocoding exists.
func sameCountry(_, _ string) bool { return true }

// Budget scores how close the talent's best rate estimate is to the gig's
// budget midpoint.
func Budget(talent model.TalentProfile, gig model.GigRequirement) float64 {
	mid, ok := gig.Budget()
	if !ok {
		return neutralScore
	}

	estimates := make([]float64, 0, 3)
	if days, ok := gig.Days(); ok {
		if hourly, ok := model.Value(talent.HourlyRate); ok {
			estimates = append(estimates, hourly*hoursPerDay*float64(days))
		}
		if daily, ok := model.Value(talent.DailyRate); ok {
			estimates = append(estimates, daily*float64(days))
		}
	}
	lo, okLo := model.Value(talent.ProjectRateMin)
	hi, okHi := model.Value(talent.ProjectRateMax)
	if okLo && okHi {
		estimates = append(estimates, (lo+hi)/2)
	}
	if len(estimates) == 0 {
		return neutralScore
	}

	best := estimates[0]
	for _, e := range estimates[1:] {
		if math.Abs(e-mid) < math.Abs(best-mid) {
			best = e
		}
	}

	ratio := best / mid
	switch {
	case ratio >= 0.8 && ratio <= 1.2:
		return MaxScore
	case ratio >= 0.6 && ratio <= 1.4:
		return 7
	case ratio >= 0.4 && ratio <= 1.6:
		return 4
	default:
		return 1
	}
}

// Skill scores overlap between talent skills and required skills, with a
// bonus for shared categories.
func Skill(have, required []model.Skill) float64 {
	need := make(map[string]struct{}, len(required))
	needCats := make(map[string]struct{}, len(required))
	for _, s := range required {
		need[s.Key()] = struct{}{}
		needCats[strings.ToLower(strings.TrimSpace(s.Category))] = struct{}{}
	}
	if len(need) == 0 {
		return neutralScore
	}
	if len(have) == 0 {
		return 0
	}

	matched := make(map[string]struct{}, len(have))
	matchedCats := make(map[string]struct{}, len(have))
	for _, s := range have {
		if _, ok := need[s.Key()]; ok {
			matched[s.Key()] = struct{}{}
		}
		cat := strings.ToLower(strings.TrimSpace(s.Category))
		if _, ok := needCats[cat]; ok {
			matchedCats[cat] = struct{}{}
		}
	}

	overlap := float64(len(matched)) / float64(len(need))
	catOverlap := float64(len(matchedCats)) / float64(len(needCats))
	return math.Min(overlap*MaxScore+catOverlap*categoryBonus, MaxScore)
}

// Experience scores years of experience against a required tier.
func Experience(years int, tier model.Experience) float64 {
	if tier == model.ExperienceNone {
		return neutralScore
	}
	r, ok := experienceTiers[model.Experience(strings.ToLower(string(tier)))]
	if !ok {
		r = yearRange{0, math.Inf(1)}
	}
	y := float64(years)
	switch {
	case y >= r.min && y <= r.max:
		return MaxScore
	case y > r.max:
		return overqualifiedScore
	default:
		return math.Max(0, MaxScore-gapPenalty*(r.min-y))
	}
}

// Availability scores booking status.
func Availability(a model.Availability) float64 {
	switch a {
	case model.Available:
		return MaxScore
	case model.Busy:
		return busyScore
	default:
		return 0
	}
}

// Rating maps a 0-5 rating onto 0-10; unrated talent is neutral.
func Rating(r float64) float64 {
	if r == 0 {
		return neutralScore
	}
	return clamp(r * 2)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(v, MaxScore))
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

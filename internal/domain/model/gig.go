package model

// Experience is a required seniority tier for a gig.
type Experience string

// Experience tiers. None means the gig has no requirement.
const (
	ExperienceNone   Experience = ""
	ExperienceJunior Experience = "junior"
	ExperienceMid    Experience = "mid"
	ExperienceSenior Experience = "senior"
)

// Priority expresses how urgent a gig is to its client.
type Priority string

// Priority values.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// GigRequirement is what a client needs filled.
type GigRequirement struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	Category         string     `json:"category,omitempty"`
	Location         string     `json:"location,omitempty"`
	Remote           bool       `json:"is_remote"`
	BudgetMin        *float64   `json:"budget_min,omitempty"`
	BudgetMax        *float64   `json:"budget_max,omitempty"`
	DurationDays     *int       `json:"duration_days,omitempty"`
	RequiredSkills   []Skill    `json:"required_skills,omitempty"`
	Experience       Experience `json:"experience_required,omitempty"`
	Priority         Priority   `json:"priority"`
	StylePreferences string     `json:"style_preferences,omitempty"`
}

// Budget returns the budget midpoint, or false when either bound is missing.
func (g GigRequirement) Budget() (float64, bool) {
	lo, okLo := Value(g.BudgetMin)
	hi, okHi := Value(g.BudgetMax)
	if !okLo || !okHi {
		return 0, false
	}
	return (lo + hi) / 2, true
}

// Days returns the duration in days, or false when not provided.
func (g GigRequirement) Days() (int, bool) {
	if g.DurationDays == nil || *g.DurationDays <= 0 {
		return 0, false
	}
	return *g.DurationDays, true
}

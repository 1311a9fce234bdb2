// Package model contains domain models passed between layers.
package model

import "strings"

// Availability is a talent's current booking status.
type Availability string

// Availability values.
const (
	Available   Availability = "available"
	Busy        Availability = "busy"
	Unavailable Availability = "unavailable"
)

// Skill is a named capability grouped under a category.
type Skill struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Key returns the identity used when comparing skill sets.
func (s Skill) Key() string {
	if k := strings.ToLower(strings.TrimSpace(s.Name)); k != "" {
		return k
	}
	return strings.ToLower(strings.TrimSpace(s.ID))
}

// PortfolioItem is one showcased piece of past work.
type PortfolioItem struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	ProjectType   string `json:"project_type,omitempty"`
	StyleKeywords string `json:"style_keywords,omitempty"` // comma separated
	Tags          string `json:"tags,omitempty"`           // comma separated
}

// TalentProfile is a creative professional available for gigs.
// Rate fields are optional; nil or non-positive means not provided.
type TalentProfile struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Location        string          `json:"location,omitempty"`
	ExperienceYears int             `json:"experience_years"`
	HourlyRate      *float64        `json:"hourly_rate,omitempty"`
	DailyRate       *float64        `json:"daily_rate,omitempty"`
	ProjectRateMin  *float64        `json:"project_rate_min,omitempty"`
	ProjectRateMax  *float64        `json:"project_rate_max,omitempty"`
	Availability    Availability    `json:"availability_status"`
	Rating          float64         `json:"rating"`       // 0-5, 0 means unrated
	SuccessRate     float64         `json:"success_rate"` // 0-1
	Skills          []Skill         `json:"skills,omitempty"`
	Portfolio       []PortfolioItem `json:"portfolio,omitempty"`
}

// Value returns the dereferenced optional number and whether it is present.
func Value(f *float64) (float64, bool) {
	if f == nil || *f <= 0 {
		return 0, false
	}
	return *f, true
}

// Float returns a pointer to f, for building optional fields.
func Float(f float64) *float64 { return &f }

// Int returns a pointer to n, for building optional fields.
func Int(n int) *int { return &n }

package model

import "time"

// ScoreBreakdown holds the seven sub-scores, each in [0,10].
type ScoreBreakdown struct {
	Location     float64 `json:"location"`
	Budget       float64 `json:"budget"`
	Skill        float64 `json:"skill"`
	Experience   float64 `json:"experience"`
	Availability float64 `json:"availability"`
	Portfolio    float64 `json:"portfolio"`
	Rating       float64 `json:"rating"`
}

// Algorithm labels which portfolio scorer produced a result.
type Algorithm string

// Algorithm values.
const (
	AlgorithmRuleBased Algorithm = "rule_based"
	AlgorithmEnhanced  Algorithm = "ai_enhanced"
)

// MatchResult is one persisted, ranked candidate for a gig.
// Records are immutable once created and passed by value.
type MatchResult struct {
	ID          string         `json:"id"`
	GigID       string         `json:"gig_id"`
	TalentID    string         `json:"talent_id"`
	Score       float64        `json:"score"`
	Rank        int            `json:"rank"`
	Breakdown   ScoreBreakdown `json:"score_breakdown"`
	Explanation string         `json:"explanation"`
	Algorithm   Algorithm      `json:"algorithm"`
	CreatedAt   time.Time      `json:"created_at"`
}

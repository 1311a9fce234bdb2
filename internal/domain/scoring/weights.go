package scoring

import "github.com/okian/gigmatch/internal/domain/model"

// Weights holds the composite weights and bonuses.
// The default weights sum to 1.25 and the total is clamped afterwards.
type Weights struct {
	Location     float64
	Budget       float64
	Skill        float64
	Experience   float64
	Availability float64
	Portfolio    float64
	Rating       float64

	PriorityBonus map[model.Priority]float64

	// SuccessHigh applies above SuccessHighAt, SuccessMid above SuccessMidAt.
	SuccessHighAt float64
	SuccessHigh   float64
	SuccessMidAt  float64
	SuccessMid    float64
}

// DefaultWeights returns the production weight set.
func DefaultWeights() Weights {
	return Weights{
		Location:     0.20,
		Budget:       0.25,
		Skill:        0.30,
		Experience:   0.15,
		Availability: 0.10,
		Portfolio:    0.15,
		Rating:       0.10,
		PriorityBonus: map[model.Priority]float64{
			model.PriorityLow:    0,
			model.PriorityMedium: 0.5,
			model.PriorityHigh:   1.0,
		},
		SuccessHighAt: 0.9,
		SuccessHigh:   0.5,
		SuccessMidAt:  0.8,
		SuccessMid:    0.3,
	}
}

// Override replaces the named weights, ignoring unknown names and negatives.
func (w Weights) Override(named map[string]float64) Weights {
	for name, v := range named {
		if v < 0 {
			continue
		}
		switch name {
		case "location":
			w.Location = v
		case "budget":
			w.Budget = v
		case "skill":
			w.Skill = v
		case "experience":
			w.Experience = v
		case "availability":
			w.Availability = v
		case "portfolio":
			w.Portfolio = v
		case "rating":
			w.Rating = v
		}
	}
	return w
}

func (w Weights) blend(b model.ScoreBreakdown) float64 {
	return b.Location*w.Location +
		b.Budget*w.Budget +
		b.Skill*w.Skill +
		b.Experience*w.Experience +
		b.Availability*w.Availability +
		b.Portfolio*w.Portfolio +
		b.Rating*w.Rating
}

func (w Weights) successBonus(rate float64) float64 {
	switch {
	case rate > w.SuccessHighAt:
		return w.SuccessHigh
	case rate > w.SuccessMidAt:
		return w.SuccessMid
	default:
		return 0
	}
}

package scoring_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/okian/gigmatch/internal/domain/model"
	scoring "github.com/okian/gigmatch/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func mumbaiGig() model.GigRequirement {
	return model.GigRequirement{
		ID:             "gig-1",
		Title:          "Product shoot for D2C skincare launch",
		Category:       "photography",
		Location:       "Mumbai",
		BudgetMin:      model.Float(25000),
		BudgetMax:      model.Float(50000),
		DurationDays:   model.Int(2),
		RequiredSkills: []model.Skill{{ID: "sk-1", Name: "Product Photography", Category: "Photography"}},
		Experience:     model.ExperienceMid,
		Priority:       model.PriorityHigh,
	}
}

func ananya() model.TalentProfile {
	return model.TalentProfile{
		ID:              "talent-ananya",
		Name:            "Ananya Gupta",
		Location:        "Mumbai",
		ExperienceYears: 3,
		DailyRate:       model.Float(14000),
		Availability:    model.Available,
		Rating:          4.5,
		SuccessRate:     0.91,
		Skills: []model.Skill{
			{ID: "sk-1", Name: "Product Photography", Category: "Photography"},
			{ID: "sk-2", Name: "Graphic Design", Category: "Design"},
		},
	}
}

func TestCalculator_MumbaiScenario(t *testing.T) {
	Convey("Given the Mumbai product photography gig and a matching talent", t, func() {
		calc := scoring.NewCalculator()

		res, err := calc.Score(context.Background(), ananya(), mumbaiGig())

		Convey("Then each sub-score follows the rules", func() {
			So(err, ShouldBeNil)
			So(res.Breakdown.Location, ShouldEqual, 10)
			// 14000 x 2 days = 28000 against a 37500 midpoint: ratio 0.747
			So(res.Breakdown.Budget, ShouldEqual, 7)
			So(res.Breakdown.Skill, ShouldEqual, 10)
			So(res.Breakdown.Experience, ShouldEqual, 10)
			So(res.Breakdown.Availability, ShouldEqual, 10)
			So(res.Breakdown.Portfolio, ShouldEqual, 0)
			So(res.Breakdown.Rating, ShouldEqual, 9)
		})

		Convey("And the composite is clamped to the maximum", func() {
			So(res.Score, ShouldEqual, 10)
		})
	})
}

func TestCalculator_Location(t *testing.T) {
	Convey("Given a calculator", t, func() {
		calc := scoring.NewCalculator()

		Convey("Remote gigs always score 10", func() {
			So(calc.Location("Kolkata", "Mumbai", true), ShouldEqual, 10)
			So(calc.Location("", "", true), ShouldEqual, 10)
		})
		Convey("A missing gig location is neutral", func() {
			So(calc.Location("Mumbai", "", false), ShouldEqual, 5)
			So(calc.Location("", "", false), ShouldEqual, 5)
		})

		Convey("A blank talent location matches any gig location", func() {
			So(calc.Location("", "Mumbai", false), ShouldEqual, 10)
		})

		Convey("Substring matches either way score 10", func() {
			So(calc.Location("Bandra, Mumbai", "mumbai", false), ShouldEqual, 10)
			So(calc.Location("Pune", "Pune, Maharashtra", false), ShouldEqual, 10)
		})
		Convey("A shared regional hub scores 7", func() {
			So(calc.Location("Andheri Mumbai", "Mumbai Suburban", false), ShouldEqual, 7)
		})
		Convey("Different cities fall back to the same-country score", func() {
			So(calc.Location("Delhi", "Chennai", false), ShouldEqual, 4)
		})
		Convey("Custom regions replace the defaults", func() {
			c := scoring.NewCalculator(scoring.WithRegions("Goa"))
			So(c.Location("North Goa", "Goa Velha", false), ShouldEqual, 7)
			So(c.Location("Andheri Mumbai", "Mumbai Suburban", false), ShouldEqual, 4)
		})
	})
}

func TestBudget(t *testing.T) {
	Convey("Given a gig with a 10000-20000 budget over 2 days", t, func() {
		gig := model.GigRequirement{BudgetMin: model.Float(10000), BudgetMax: model.Float(20000), DurationDays: model.Int(2)}

		Convey("No budget is neutral", func() {
			So(scoring.Budget(model.TalentProfile{DailyRate: model.Float(1)}, model.GigRequirement{}), ShouldEqual, 5)
		})
		Convey("No rates are neutral", func() {
			So(scoring.Budget(model.TalentProfile{}, gig), ShouldEqual, 5)
		})
		Convey("Band edges are inclusive", func() {
			So(scoring.Budget(model.TalentProfile{DailyRate: model.Float(6000)}, gig), ShouldEqual, 10)  // 0.8
			So(scoring.Budget(model.TalentProfile{DailyRate: model.Float(9000)}, gig), ShouldEqual, 10)  // 1.2
			So(scoring.Budget(model.TalentProfile{DailyRate: model.Float(4500)}, gig), ShouldEqual, 7)   // 0.6
			So(scoring.Budget(model.TalentProfile{DailyRate: model.Float(3000)}, gig), ShouldEqual, 4)   // 0.4
			So(scoring.Budget(model.TalentProfile{DailyRate: model.Float(12500)}, gig), ShouldEqual, 1)  // 1.67
		})
		Convey("The estimate closest to the midpoint wins", func() {
			talent := model.TalentProfile{
				HourlyRate:     model.Float(100),   // 1600
				ProjectRateMin: model.Float(14000), // avg 15000
				ProjectRateMax: model.Float(16000),
			}
			So(scoring.Budget(talent, gig), ShouldEqual, 10)
		})
		Convey("Hourly and daily estimates need a duration", func() {
			g := gig
			g.DurationDays = nil
			So(scoring.Budget(model.TalentProfile{DailyRate: model.Float(7500)}, g), ShouldEqual, 5)
		})
	})
}

func TestSkill(t *testing.T) {
	Convey("Given required skills in two categories", t, func() {
		required := []model.Skill{
			{Name: "Portrait Photography", Category: "Photography"},
			{Name: "Video Editing", Category: "Video"},
		}

		So(scoring.Skill(nil, nil), ShouldEqual, 5)
		So(scoring.Skill(nil, required), ShouldEqual, 0)

		Convey("Half the skills and half the categories", func() {
			have := []model.Skill{{Name: "portrait photography", Category: "photography"}}
			So(scoring.Skill(have, required), ShouldEqual, 6)
		})
		Convey("Category-only overlap still earns the bonus", func() {
			have := []model.Skill{{Name: "Color Grading", Category: "Video"}}
			So(scoring.Skill(have, required), ShouldEqual, 1)
		})
		Convey("The result is clamped to 10", func() {
			have := append([]model.Skill(nil), required...)
			So(scoring.Skill(have, required), ShouldEqual, 10)
		})
	})
}

func TestExperience(t *testing.T) {
	Convey("Given experience tiers", t, func() {
		So(scoring.Experience(7, model.ExperienceNone), ShouldEqual, 5)
		So(scoring.Experience(2, model.ExperienceJunior), ShouldEqual, 10)
		So(scoring.Experience(2, model.ExperienceMid), ShouldEqual, 10)
		So(scoring.Experience(6, model.ExperienceMid), ShouldEqual, 7)
		So(scoring.Experience(40, model.ExperienceSenior), ShouldEqual, 10)
		So(scoring.Experience(2, model.ExperienceSenior), ShouldEqual, 4)
		So(scoring.Experience(0, model.ExperienceSenior), ShouldEqual, 0)
		So(scoring.Experience(3, "principal"), ShouldEqual, 10)
	})
}

func TestAvailabilityAndRating(t *testing.T) {
	Convey("Given availability and rating inputs", t, func() {
		So(scoring.Availability(model.Available), ShouldEqual, 10)
		So(scoring.Availability(model.Busy), ShouldEqual, 3)
		So(scoring.Availability(model.Unavailable), ShouldEqual, 0)
		So(scoring.Rating(0), ShouldEqual, 5)
		So(scoring.Rating(3.5), ShouldEqual, 7)
	})
}

func TestCalculator_Composite(t *testing.T) {
	Convey("Given a calculator", t, func() {
		calc := scoring.NewCalculator()
		b := model.ScoreBreakdown{Location: 5, Budget: 5, Skill: 5, Experience: 5, Availability: 5, Portfolio: 5, Rating: 5}

		Convey("Weights sum to 1.25 before bonuses", func() {
			So(calc.Composite(b, model.PriorityLow, 0), ShouldAlmostEqual, 6.25, 1e-9)
		})
		Convey("Priority and success bonuses are added", func() {
			So(calc.Composite(b, model.PriorityMedium, 0.85), ShouldAlmostEqual, 7.05, 1e-9)
			So(calc.Composite(b, model.PriorityHigh, 0.95), ShouldAlmostEqual, 7.75, 1e-9)
			So(calc.Composite(b, model.PriorityHigh, 0.9), ShouldAlmostEqual, 7.55, 1e-9)
		})
		Convey("Custom weights are honored", func() {
			w := scoring.DefaultWeights().Override(map[string]float64{"skill": 1, "location": 0})
			c := scoring.NewCalculator(scoring.WithWeights(w))
			So(c.Composite(b, model.PriorityLow, 0), ShouldAlmostEqual, 8.75, 1e-9)
		})
	})
}

func TestCalculator_CompositeBounds(t *testing.T) {
	Convey("Given randomized talents and gigs", t, func() {
		calc := scoring.NewCalculator()
		rng := rand.New(rand.NewSource(42)) //nolint:gosec // deterministic seed for reproducible testing
		statuses := []model.Availability{model.Available, model.Busy, model.Unavailable}
		priorities := []model.Priority{model.PriorityLow, model.PriorityMedium, model.PriorityHigh}
		tiers := []model.Experience{model.ExperienceNone, model.ExperienceJunior, model.ExperienceMid, model.ExperienceSenior}

		for i := 0; i < 500; i++ {
			talent := model.TalentProfile{
				ID:              "t",
				Location:        []string{"", "Mumbai", "Delhi", "Goa"}[rng.Intn(4)],
				ExperienceYears: rng.Intn(20),
				DailyRate:       model.Float(rng.Float64() * 50000),
				Availability:    statuses[rng.Intn(len(statuses))],
				Rating:          rng.Float64() * 5,
				SuccessRate:     rng.Float64(),
				Skills:          []model.Skill{{Name: "Product Photography", Category: "Photography"}},
				Portfolio: []model.PortfolioItem{{
					ProjectType: "photography", StyleKeywords: "minimal,clean", Tags: "product,studio",
				}},
			}
			gig := mumbaiGig()
			gig.Remote = rng.Intn(2) == 0
			gig.Priority = priorities[rng.Intn(len(priorities))]
			gig.Experience = tiers[rng.Intn(len(tiers))]
			gig.StylePreferences = "minimal bright"
			gig.Description = "studio product photos"

			res, err := calc.Score(context.Background(), talent, gig)
			So(err, ShouldBeNil)
			So(res.Score, ShouldBeBetweenOrEqual, 0, 10)
			if gig.Remote {
				So(res.Breakdown.Location, ShouldEqual, 10)
			}
		}
	})
}

type failingPortfolio struct{}

func (failingPortfolio) Portfolio(context.Context, model.TalentProfile, model.GigRequirement) (float64, error) {
	return 0, errors.New("boom")
}

func TestCalculator_Errors(t *testing.T) {
	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := scoring.NewCalculator().Score(ctx, ananya(), mumbaiGig())
		So(errors.Is(err, scoring.ErrScoringCancelled), ShouldBeTrue)
		So(errors.Is(err, context.Canceled), ShouldBeTrue)
	})

	Convey("Given a failing portfolio scorer", t, func() {
		calc := scoring.NewCalculator(scoring.WithPortfolioScorer(failingPortfolio{}))

		_, err := calc.Score(context.Background(), ananya(), mumbaiGig())
		So(errors.Is(err, scoring.ErrPortfolioScorer), ShouldBeTrue)
	})
}

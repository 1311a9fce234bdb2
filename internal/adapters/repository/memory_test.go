package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/gigmatch/internal/adapters/repository"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func results(gigID string, n int, tag string) []model.MatchResult {
	out := make([]model.MatchResult, n)
	for i := range out {
		out[i] = model.MatchResult{
			ID:       fmt.Sprintf("%s-%d", tag, i),
			GigID:    gigID,
			TalentID: fmt.Sprintf("t-%d", i),
			Score:    float64(10 - i),
			Rank:     i + 1,
		}
	}
	return out
}

func TestMemoryStore(t *testing.T) {
	Convey("Given an empty memory store", t, func() {
		ctx := context.Background()
		s := repository.NewMemoryStore(ctx, repository.WithMetricsUpdateInterval(10*time.Millisecond))
		defer func() { _ = s.Close() }()

		Convey("When a gig is missing", func() {
			_, err := s.Gig(ctx, "nope")

			Convey("Then ErrNotFound is returned and matches the ranking sentinel", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(errors.Is(err, ranking.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When records without ids are stored", func() {
			So(errors.Is(s.PutGig(ctx, model.GigRequirement{}), repository.ErrInvalidRecord), ShouldBeTrue)
			So(errors.Is(s.PutTalent(ctx, model.TalentProfile{}), repository.ErrInvalidRecord), ShouldBeTrue)
		})

		Convey("When talents are stored out of order", func() {
			for _, id := range []string{"t-c", "t-a", "t-b"} {
				So(s.PutTalent(ctx, model.TalentProfile{ID: id, Skills: []model.Skill{{ID: "s", Name: "x"}}}), ShouldBeNil)
			}
			So(s.PutGig(ctx, model.GigRequirement{ID: "g-1"}), ShouldBeNil)

			Convey("Then the pool is ordered by id and bounded by limit", func() {
				pool, err := s.Talents(ctx, 2)
				So(err, ShouldBeNil)
				So(len(pool), ShouldEqual, 2)
				So(pool[0].ID, ShouldEqual, "t-a")
				So(pool[1].ID, ShouldEqual, "t-b")
			})

			Convey("And returned profiles are copies", func() {
				pool, _ := s.Talents(ctx, 10)
				pool[0].Skills[0].Name = "mutated"
				again, _ := s.Talents(ctx, 10)
				So(again[0].Skills[0].Name, ShouldEqual, "x")
			})

			Convey("And counts reflect the contents", func() {
				talents, gigs, err := s.Counts(ctx)
				So(err, ShouldBeNil)
				So(talents, ShouldEqual, 3)
				So(gigs, ShouldEqual, 1)
			})
		})

		Convey("When results are replaced", func() {
			So(s.ReplaceForGig(ctx, "g-1", results("g-1", 3, "old")), ShouldBeNil)
			So(s.ReplaceForGig(ctx, "g-2", results("g-2", 2, "other")), ShouldBeNil)
			So(s.ReplaceForGig(ctx, "g-1", results("g-1", 2, "new")), ShouldBeNil)

			Convey("Then only the newest set is visible for the gig", func() {
				got, err := s.ResultsForGig(ctx, "g-1")
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 2)
				So(got[0].ID, ShouldEqual, "new-0")
				So(got[1].Rank, ShouldEqual, 2)
			})

			Convey("And other gigs are untouched", func() {
				got, _ := s.ResultsForGig(ctx, "g-2")
				So(len(got), ShouldEqual, 2)
			})

			Convey("And talent lookups span gigs best first", func() {
				got, err := s.ResultsForTalent(ctx, "t-1")
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 2)
				So(got[0].GigID, ShouldEqual, "g-1")
			})

			Convey("And replacing with an empty set clears the gig", func() {
				So(s.ReplaceForGig(ctx, "g-1", nil), ShouldBeNil)
				got, _ := s.ResultsForGig(ctx, "g-1")
				So(got, ShouldBeEmpty)
			})
		})

		Convey("When a replace carries a result for another gig", func() {
			So(s.ReplaceForGig(ctx, "g-1", results("g-1", 2, "a")), ShouldBeNil)
			err := s.ReplaceForGig(ctx, "g-1", results("g-9", 1, "b"))

			Convey("Then it is rejected and the old set survives", func() {
				So(errors.Is(err, repository.ErrMixedGig), ShouldBeTrue)
				got, _ := s.ResultsForGig(ctx, "g-1")
				So(len(got), ShouldEqual, 2)
			})
		})

		Convey("When readers race with replaces", func() {
			var wg sync.WaitGroup
			var bad sync.Map
			for i := 0; i < 10; i++ {
				wg.Add(2)
				go func(i int) {
					defer wg.Done()
					_ = s.ReplaceForGig(ctx, "g-1", results("g-1", 3, fmt.Sprintf("run%d", i)))
				}(i)
				go func() {
					defer wg.Done()
					got, _ := s.ResultsForGig(ctx, "g-1")
					if len(got) == 0 {
						return
					}
					if len(got) != 3 || got[0].ID[:len(got[0].ID)-2] != got[2].ID[:len(got[2].ID)-2] {
						bad.Store("mixed", true)
					}
				}()
			}
			wg.Wait()

			Convey("Then no reader observes a mixed set", func() {
				_, mixed := bad.Load("mixed")
				So(mixed, ShouldBeFalse)
			})
		})

		Convey("When closed twice", func() {
			So(s.Close(), ShouldBeNil)
			So(s.Close(), ShouldBeNil)
		})
	})
}

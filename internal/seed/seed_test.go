package seed_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/gigmatch/internal/adapters/repository"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/seed"
)

type failingWriter struct{ repository.Store }

func (failingWriter) PutTalent(context.Context, model.TalentProfile) error {
	return errors.New("disk full")
}

func TestSample(t *testing.T) {
	Convey("Given the bundled sample data", t, func() {
		d, err := seed.Sample()
		So(err, ShouldBeNil)

		Convey("Then it holds eight talents and five gigs", func() {
			So(d.Talents, ShouldHaveLength, 8)
			So(d.Gigs, ShouldHaveLength, 5)
		})

		Convey("Then optional fields decode into their typed forms", func() {
			var rohan, vikram model.TalentProfile
			for _, tp := range d.Talents {
				switch tp.ID {
				case "talent-rohan":
					rohan = tp
				case "talent-vikram":
					vikram = tp
				}
			}
			So(rohan.Availability, ShouldEqual, model.Busy)
			So(*vikram.DailyRate, ShouldEqual, 25000.0)
			So(vikram.Portfolio, ShouldHaveLength, 1)
			So(vikram.Portfolio[0].StyleKeywords, ShouldContainSubstring, "candid")

			g := d.Gigs[0]
			So(g.ID, ShouldEqual, "gig-tech-product")
			mid, ok := g.Budget()
			So(ok, ShouldBeTrue)
			So(mid, ShouldEqual, 37500.0)
			So(g.Experience, ShouldEqual, model.ExperienceMid)
			So(g.Priority, ShouldEqual, model.PriorityHigh)
			So(g.RequiredSkills[0].Name, ShouldEqual, "Product Photography")
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given an empty memory store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(ctx)
		defer store.Close()

		Convey("When the sample is loaded", func() {
			talents, gigs, err := seed.Load(ctx, store)

			Convey("Then every record is stored", func() {
				So(err, ShouldBeNil)
				So(talents, ShouldEqual, 8)
				So(gigs, ShouldEqual, 5)

				nt, ng, err := store.Counts(ctx)
				So(err, ShouldBeNil)
				So(nt, ShouldEqual, 8)
				So(ng, ShouldEqual, 5)

				g, err := store.Gig(ctx, "gig-goa-travel")
				So(err, ShouldBeNil)
				So(g.Location, ShouldEqual, "Goa")
			})
		})

		Convey("When the writer fails", func() {
			_, _, err := seed.Load(ctx, failingWriter{store})

			Convey("Then the failing record is named", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "talent-arjun")
			})
		})
	})
}

package lock_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/gigmatch/internal/adapters/lock"
	. "github.com/smartystreets/goconvey/convey"
)

func TestKeyedMutex(t *testing.T) {
	Convey("Given a keyed mutex", t, func() {
		ctx := context.Background()
		k := lock.NewKeyedMutex()

		Convey("When many goroutines contend for one key", func() {
			var inside, maxInside atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					unlock, err := k.Lock(ctx, "gig-1")
					if err != nil {
						return
					}
					n := inside.Add(1)
					for {
						m := maxInside.Load()
						if n <= m || maxInside.CompareAndSwap(m, n) {
							break
						}
					}
					time.Sleep(time.Millisecond)
					inside.Add(-1)
					unlock()
				}()
			}
			wg.Wait()

			Convey("Then at most one holds it at a time and entries are cleaned up", func() {
				So(maxInside.Load(), ShouldEqual, 1)
				So(k.Len(), ShouldEqual, 0)
			})
		})

		Convey("When different keys are locked", func() {
			u1, err := k.Lock(ctx, "gig-1")
			So(err, ShouldBeNil)
			u2, err := k.Lock(ctx, "gig-2")

			Convey("Then they do not block each other", func() {
				So(err, ShouldBeNil)
				So(k.Len(), ShouldEqual, 2)
				u1()
				u2()
				So(k.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the context ends while waiting", func() {
			unlock, _ := k.Lock(ctx, "gig-1")
			defer unlock()
			wctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			_, err := k.Lock(wctx, "gig-1")

			Convey("Then ErrLockTimeout is returned", func() {
				So(errors.Is(err, lock.ErrLockTimeout), ShouldBeTrue)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})

		Convey("When unlock is called twice", func() {
			unlock, _ := k.Lock(ctx, "gig-1")
			unlock()
			unlock()

			Convey("Then the key can be locked again", func() {
				u, err := k.Lock(ctx, "gig-1")
				So(err, ShouldBeNil)
				u()
			})
		})
	})
}

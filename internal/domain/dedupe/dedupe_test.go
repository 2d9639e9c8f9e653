package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	dedupe "github.com/okian/candirank/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, int64(0))

		Convey("When an evaluation id is new", func() {
			seen := d.SeenAndRecord(ctx, "eval1")

			Convey("Then it is recorded", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, int64(1))
			})
		})

		Convey("When the same id is submitted twice", func() {
			d.SeenAndRecord(ctx, "eval1")
			seen := d.SeenAndRecord(ctx, "eval1")

			Convey("Then the second submission is a duplicate", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, int64(1))
			})
		})

		Convey("When an id is unrecorded", func() {
			d.SeenAndRecord(ctx, "eval1")
			d.Unrecord(ctx, "eval1")
			d.Unrecord(ctx, "never-seen")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, int64(0))
				So(d.SeenAndRecord(ctx, "eval1"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for i := 1; i <= 4; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("eval%d", i))
		}

		Convey("Then the oldest id is evicted", func() {
			So(d.Size(), ShouldEqual, int64(3))
			So(d.SeenAndRecord(ctx, "eval4"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "eval2"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "eval1"), ShouldBeFalse)
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 1000; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("eval%d", i))
		}
		So(d.Size(), ShouldEqual, int64(1000))
	})
}

func TestInMemoryDeduper_Concurrent(t *testing.T) {
	Convey("Given many goroutines racing on the same ids", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var (
			wg    sync.WaitGroup
			fresh atomic.Int64
		)
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					if !d.SeenAndRecord(context.Background(), fmt.Sprintf("eval%d", i)) {
						fresh.Add(1)
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each id is new exactly once", func() {
			So(fresh.Load(), ShouldEqual, int64(100))
			So(d.Size(), ShouldEqual, int64(100))
		})
	})
}

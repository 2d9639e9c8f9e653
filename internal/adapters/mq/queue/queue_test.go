package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/candirank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func evaluation(id string) model.Evaluation {
	return model.Evaluation{ID: id, CandidateID: "candidate1", PositionID: "position1"}
}

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with capacity 2", t, func() {
		q := NewInMemoryQueue(WithCapacity(2))
		So(q.Len(), ShouldEqual, 0)
		So(q.Cap(), ShouldEqual, 2)

		Convey("When filling it", func() {
			So(q.Enqueue(ctx, evaluation("e1")), ShouldBeNil)
			So(q.Enqueue(ctx, evaluation("e2")), ShouldBeNil)

			Convey("Then the next enqueue reports backpressure", func() {
				So(errors.Is(q.Enqueue(ctx, evaluation("e3")), ErrFull), ShouldBeTrue)
				So(q.Len(), ShouldEqual, 2)
			})

			Convey("Then evaluations dequeue in order", func() {
				So((<-q.Dequeue()).ID, ShouldEqual, "e1")
				So((<-q.Dequeue()).ID, ShouldEqual, "e2")
				So(q.Len(), ShouldEqual, 0)
			})

			Convey("Then closing keeps queued evaluations readable", func() {
				So(q.Close(), ShouldBeNil)
				So(q.Close(), ShouldBeNil)
				So(q.IsClosed(), ShouldBeTrue)
				So(errors.Is(q.Enqueue(ctx, evaluation("e4")), ErrClosed), ShouldBeTrue)

				var ids []string
				for e := range q.Dequeue() {
					ids = append(ids, e.ID)
				}
				So(ids, ShouldResemble, []string{"e1", "e2"})
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			So(errors.Is(q.Enqueue(cctx, evaluation("e1")), context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given concurrent producers and a close", t, func() {
		q := NewInMemoryQueue(WithCapacity(1000))
		var wg sync.WaitGroup
		for p := range 4 {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for i := range 100 {
					_ = q.Enqueue(ctx, evaluation(fmt.Sprintf("e%d-%d", p, i)))
				}
			}(p)
		}
		wg.Wait()
		So(q.Close(), ShouldBeNil)

		n := 0
		for range q.Dequeue() {
			n++
		}
		So(n, ShouldEqual, 400)
	})
}

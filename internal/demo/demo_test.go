package demo

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/candirank/internal/adapters/http/api"
	service "github.com/okian/candirank/internal/app"
	"github.com/okian/candirank/pkg/logger"
)

func init() {
	_ = logger.Init(logger.WithWriter(io.Discard))
}

func startService(ctx context.Context) *service.Service {
	svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(16))
	So(svc.Start(ctx), ShouldBeNil)
	return svc
}

func TestRunInProcess(t *testing.T) {
	Convey("Given a started in-process service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc := startService(ctx)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("Running the default scenario should rank Alice above Bob", func() {
			ds := Default()
			res, err := Run(ctx, svc, &ds, Options{Limit: 10})
			So(err, ShouldBeNil)
			So(res.Reports, ShouldHaveLength, 1)
			So(res.Stats.Submitted, ShouldEqual, 2)
			So(res.Stats.Accepted, ShouldEqual, 2)
			So(res.Stats.Duplicate, ShouldEqual, 0)

			entries := res.Reports[0].Entries
			So(entries, ShouldHaveLength, 2)
			So(entries[0].CandidateID, ShouldEqual, "candidate1")
			So(entries[0].Rank, ShouldEqual, 1)
			So(entries[1].CandidateID, ShouldEqual, "candidate2")
			So(entries[1].Rank, ShouldEqual, 2)
			So(entries[0].Score, ShouldBeGreaterThan, entries[1].Score)

			Convey("and seeding again should report duplicates without changing the order", func() {
				again, err := Run(ctx, svc, &ds, Options{Limit: 10})
				So(err, ShouldBeNil)
				So(again.Stats.Duplicate, ShouldEqual, 2)
				So(again.Reports[0].Entries[0].CandidateID, ShouldEqual, "candidate1")
			})
		})

		Convey("Evaluations without ids should get generated ones", func() {
			ds := Default()
			for i := range ds.Evaluations {
				ds.Evaluations[i].ID = ""
			}
			res, err := Run(ctx, svc, &ds, Options{})
			So(err, ShouldBeNil)
			So(res.Stats.Accepted, ShouldEqual, 2)
		})

		Convey("An unknown position filter should fail", func() {
			ds := Default()
			_, err := Run(ctx, svc, &ds, Options{PositionID: "nope"})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestClient(t *testing.T) {
	Convey("Given a service behind the HTTP API", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc := startService(ctx)
		defer func() { _ = svc.Stop(ctx) }()

		mux := http.NewServeMux()
		api.NewServer(svc).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := NewClient(srv.URL, 5*time.Second)

		Convey("Health should succeed", func() {
			So(client.Health(ctx), ShouldBeNil)
		})

		Convey("Seeding over HTTP should produce the same ranking", func() {
			ds := Default()
			res, err := Run(ctx, client, &ds, Options{Limit: 5, Workers: 2})
			So(err, ShouldBeNil)
			entries := res.Reports[0].Entries
			So(entries, ShouldHaveLength, 2)
			So(entries[0].CandidateID, ShouldEqual, "candidate1")
			So(entries[1].CandidateID, ShouldEqual, "candidate2")

			local, err := svc.Ranking(ctx, "position1", 5)
			So(err, ShouldBeNil)
			So(entries[0].Score, ShouldAlmostEqual, local[0].Score, 1e-9)
		})

		Convey("API errors should unwrap to service errors", func() {
			_, err := client.Ranking(ctx, "missing", 5)
			So(err, ShouldNotBeNil)
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)

			var apiErr *APIError
			So(errors.As(err, &apiErr), ShouldBeTrue)
			So(apiErr.Status, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestIsRetryable(t *testing.T) {
	Convey("Backpressure and not-started errors are retryable", t, func() {
		So(IsRetryable(&APIError{Status: 429, Code: "backpressure"}), ShouldBeTrue)
		So(IsRetryable(service.ErrNotStarted), ShouldBeTrue)
		So(IsRetryable(&APIError{Status: 400, Code: "bad_request"}), ShouldBeFalse)
		So(IsRetryable(errors.New("boom")), ShouldBeFalse)
	})
}

func TestCommand(t *testing.T) {
	Convey("Given the demo command", t, func() {
		dir := t.TempDir()
		var out bytes.Buffer
		cmd := NewRootCommand()
		cmd.SetOut(&out)
		cmd.SetErr(io.Discard)

		Convey("run should print the ranking and export it", func() {
			path := filepath.Join(dir, "ranking.xlsx")
			cmd.SetArgs([]string{"run", "--xlsx", path})
			So(cmd.ExecuteContext(context.Background()), ShouldBeNil)

			text := out.String()
			So(text, ShouldContainSubstring, "Senior Frontend Developer")
			So(text, ShouldContainSubstring, "Alice Johnson")
			So(text, ShouldContainSubstring, "2 accepted")

			_, err := os.Stat(path)
			So(err, ShouldBeNil)
		})

		Convey("run should reject a missing dataset file", func() {
			cmd.SetArgs([]string{"run", "--data", filepath.Join(dir, "missing.json")})
			So(cmd.ExecuteContext(context.Background()), ShouldNotBeNil)
		})
	})
}

func TestXLSXPath(t *testing.T) {
	Convey("xlsxPath", t, func() {
		So(xlsxPath("out", "p1", 1), ShouldEqual, "out.xlsx")
		So(xlsxPath("out.xlsx", "p1", 2), ShouldEqual, "out-p1.xlsx")
	})
}

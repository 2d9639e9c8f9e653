package service_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/candirank/internal/adapters/repository"
	service "github.com/okian/candirank/internal/app"
	"github.com/okian/candirank/internal/demo"
	"github.com/okian/candirank/internal/domain/model"
	"github.com/okian/candirank/internal/domain/scoring"
	"github.com/okian/candirank/pkg/logger"
)

func init() {
	_ = logger.Init(logger.WithWriter(io.Discard))
}

func seed(ctx context.Context, svc *service.Service, ds *demo.Dataset) {
	_, err := svc.PutSkills(ctx, ds.Skills)
	convey.So(err, convey.ShouldBeNil)
	_, err = svc.PutPositions(ctx, ds.Positions)
	convey.So(err, convey.ShouldBeNil)
	_, err = svc.PutCandidates(ctx, ds.Candidates)
	convey.So(err, convey.ShouldBeNil)
}

func submitAll(ctx context.Context, svc *service.Service, evals []model.Evaluation) {
	for _, e := range evals {
		sub, err := svc.SubmitEvaluation(ctx, e)
		convey.So(err, convey.ShouldBeNil)
		convey.So(sub.Status, convey.ShouldEqual, service.StatusAccepted)
	}
	convey.So(svc.Drain(ctx), convey.ShouldBeNil)
}

func newService(opts ...service.Option) *service.Service {
	return service.New(append([]service.Option{
		service.WithWorkerCount(2),
		service.WithQueueSize(64),
	}, opts...)...)
}

func TestServiceRanking(t *testing.T) {
	convey.Convey("Given a started service seeded with the demo records", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		svc := newService()
		ds := demo.Default()
		seed(ctx, svc, &ds)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		convey.Convey("Before any evaluation nobody is ranked", func() {
			entries, err := svc.Ranking(ctx, "position1", 10)
			convey.So(err, convey.ShouldBeNil)
			convey.So(entries, convey.ShouldBeEmpty)
		})

		convey.Convey("After the interviews Alice ranks first", func() {
			submitAll(ctx, svc, ds.Evaluations)

			entries, err := svc.Ranking(ctx, "position1", 10)
			convey.So(err, convey.ShouldBeNil)
			convey.So(entries, convey.ShouldHaveLength, 2)
			convey.So(entries[0].CandidateID, convey.ShouldEqual, "candidate1")
			convey.So(entries[0].Rank, convey.ShouldEqual, 1)
			convey.So(entries[1].CandidateID, convey.ShouldEqual, "candidate2")
			convey.So(entries[0].Breakdown.Skills, convey.ShouldAlmostEqual, 0.82, 1e-9)
			convey.So(entries[1].Breakdown.Skills, convey.ShouldAlmostEqual, 0.81, 1e-9)
			convey.So(entries[0].Breakdown.Pay, convey.ShouldEqual, 1.0)
			convey.So(entries[0].Breakdown.Availability, convey.ShouldEqual, 1.0)

			convey.Convey("Rank agrees with the ranking", func() {
				e, err := svc.Rank(ctx, "position1", "candidate2")
				convey.So(err, convey.ShouldBeNil)
				convey.So(e.Rank, convey.ShouldEqual, 2)
				convey.So(e.Score, convey.ShouldAlmostEqual, entries[1].Score, 1e-9)
			})

			convey.Convey("A limit smaller than the ranking truncates it", func() {
				top, err := svc.Ranking(ctx, "position1", 1)
				convey.So(err, convey.ShouldBeNil)
				convey.So(top, convey.ShouldHaveLength, 1)
				convey.So(top[0].CandidateID, convey.ShouldEqual, "candidate1")
			})

			convey.Convey("A candidate update rescores its positions", func() {
				bob := ds.Candidates[1]
				bob.DesiredPay = 200000
				_, err := svc.PutCandidates(ctx, []model.Candidate{bob})
				convey.So(err, convey.ShouldBeNil)

				e, err := svc.Rank(ctx, "position1", "candidate2")
				convey.So(err, convey.ShouldBeNil)
				convey.So(e.Breakdown.Pay, convey.ShouldEqual, 0.0)
				convey.So(e.Score, convey.ShouldBeLessThan, entries[1].Score)
			})

			convey.Convey("A new evaluation moves the candidate", func() {
				_, err := svc.SubmitEvaluation(ctx, model.Evaluation{
					ID:                   "eval3",
					CandidateID:          "candidate2",
					PositionID:           "position1",
					EvaluatedSkills:      []string{"skill1", "skill2", "skill3"},
					EvaluatedSkillScores: []float64{10, 10, 10},
					CreatedAt:            time.Now().Add(time.Hour),
				})
				convey.So(err, convey.ShouldBeNil)
				convey.So(svc.Drain(ctx), convey.ShouldBeNil)

				skills, err := svc.CandidateSkills(ctx, "candidate2")
				convey.So(err, convey.ShouldBeNil)
				convey.So(skills, convey.ShouldHaveLength, 3)
				convey.So(skills[0].SkillID, convey.ShouldEqual, "skill1")
				convey.So(skills[0].Observations, convey.ShouldEqual, 2)
				convey.So(skills[0].Score, convey.ShouldBeGreaterThan, 7.0)
			})
		})

		convey.Convey("Unknown positions and unranked candidates are not found", func() {
			_, err := svc.Ranking(ctx, "nope", 10)
			convey.So(errors.Is(err, service.ErrNotFound), convey.ShouldBeTrue)

			_, err = svc.Rank(ctx, "position1", "candidate1")
			convey.So(errors.Is(err, service.ErrNotFound), convey.ShouldBeTrue)

			_, err = svc.CandidateSkills(ctx, "nobody")
			convey.So(errors.Is(err, service.ErrNotFound), convey.ShouldBeTrue)
		})

		convey.Convey("A non-positive limit is rejected", func() {
			_, err := svc.Ranking(ctx, "position1", 0)
			convey.So(errors.Is(err, service.ErrInvalidLimit), convey.ShouldBeTrue)
		})
	})
}

func TestServiceRankingStore(t *testing.T) {
	convey.Convey("Given a service writing to a supplied ranking store", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		store := repository.NewTreapStore()
		svc := newService(service.WithRanking(store))
		ds := demo.Default()
		seed(ctx, svc, &ds)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		submitAll(ctx, svc, ds.Evaluations)

		convey.Convey("Rescored applicants land in that store", func() {
			convey.So(store.Count(ctx, "position1"), convey.ShouldEqual, 2)
			convey.So(svc.GetStats().Ranked, convey.ShouldEqual, 2)

			top, err := store.TopN(ctx, "position1", 1)
			convey.So(err, convey.ShouldBeNil)
			convey.So(top[0].CandidateID, convey.ShouldEqual, "candidate1")
		})
	})
}

func TestServiceSubmit(t *testing.T) {
	convey.Convey("Given a seeded service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		svc := newService()
		ds := demo.Default()
		seed(ctx, svc, &ds)
		eval := ds.Evaluations[0]

		convey.Convey("Submissions are refused until Start", func() {
			_, err := svc.SubmitEvaluation(ctx, eval)
			convey.So(errors.Is(err, service.ErrNotStarted), convey.ShouldBeTrue)
		})

		convey.Convey("Once started", func() {
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()

			convey.Convey("a repeated id is reported as a duplicate", func() {
				first, err := svc.SubmitEvaluation(ctx, eval)
				convey.So(err, convey.ShouldBeNil)
				convey.So(first.Status, convey.ShouldEqual, service.StatusAccepted)

				second, err := svc.SubmitEvaluation(ctx, eval)
				convey.So(err, convey.ShouldBeNil)
				convey.So(second.Status, convey.ShouldEqual, service.StatusDuplicate)
				convey.So(second.EvaluationID, convey.ShouldEqual, "eval1")

				convey.So(svc.Drain(ctx), convey.ShouldBeNil)
				skills, err := svc.CandidateSkills(ctx, "candidate1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(skills[0].Observations, convey.ShouldEqual, 1)
			})

			convey.Convey("a missing id is generated", func() {
				eval.ID = ""
				sub, err := svc.SubmitEvaluation(ctx, eval)
				convey.So(err, convey.ShouldBeNil)
				convey.So(sub.EvaluationID, convey.ShouldNotBeEmpty)
			})

			convey.Convey("unknown references are rejected", func() {
				bad := eval
				bad.CandidateID = "ghost"
				_, err := svc.SubmitEvaluation(ctx, bad)
				convey.So(errors.Is(err, service.ErrUnknownReference), convey.ShouldBeTrue)

				bad = eval
				bad.PositionID = "ghost"
				_, err = svc.SubmitEvaluation(ctx, bad)
				convey.So(errors.Is(err, service.ErrUnknownReference), convey.ShouldBeTrue)

				bad = eval
				bad.EvaluatedSkills = []string{"skill1", "skill2", "skill9"}
				_, err = svc.SubmitEvaluation(ctx, bad)
				convey.So(errors.Is(err, service.ErrUnknownReference), convey.ShouldBeTrue)
			})

			convey.Convey("invalid evaluations are rejected", func() {
				bad := eval
				bad.EvaluatedSkillScores = []float64{8, 9, 11}
				_, err := svc.SubmitEvaluation(ctx, bad)
				convey.So(errors.Is(err, model.ErrInvalid), convey.ShouldBeTrue)
			})

			convey.Convey("stats reflect the processed evaluation", func() {
				_, err := svc.SubmitEvaluation(ctx, eval)
				convey.So(err, convey.ShouldBeNil)
				convey.So(svc.Drain(ctx), convey.ShouldBeNil)

				st := svc.GetStats()
				convey.So(st.Started, convey.ShouldBeTrue)
				convey.So(st.Processed, convey.ShouldEqual, int64(1))
				convey.So(st.Pending, convey.ShouldEqual, int64(0))
				convey.So(st.Records.Evaluations, convey.ShouldEqual, 1)
				convey.So(st.Ranked, convey.ShouldEqual, 1)
				convey.So(st.Embedder, convey.ShouldEqual, "hashing")
				convey.So(st.Persistent, convey.ShouldBeFalse)
			})
		})
	})
}

func TestServiceSubmitAfterEviction(t *testing.T) {
	convey.Convey("Given a service that remembers a single queued id", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		svc := newService(service.WithDedupeSize(1))
		ds := demo.Default()
		seed(ctx, svc, &ds)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		submitAll(ctx, svc, ds.Evaluations)

		convey.Convey("An applied evaluation evicted from the deduper is still a duplicate", func() {
			sub, err := svc.SubmitEvaluation(ctx, ds.Evaluations[0])
			convey.So(err, convey.ShouldBeNil)
			convey.So(sub.Status, convey.ShouldEqual, service.StatusDuplicate)
			convey.So(svc.GetStats().Records.Evaluations, convey.ShouldEqual, 2)
		})
	})
}

func TestServiceRecords(t *testing.T) {
	convey.Convey("Given an empty service", t, func() {
		ctx := context.Background()
		svc := newService()
		ds := demo.Default()

		convey.Convey("Positions need their skills stored first", func() {
			_, err := svc.PutPositions(ctx, ds.Positions)
			convey.So(errors.Is(err, service.ErrUnknownReference), convey.ShouldBeTrue)
		})

		convey.Convey("An invalid record rejects the whole batch", func() {
			skills := append([]model.Skill{}, ds.Skills...)
			skills = append(skills, model.Skill{ID: "skill5"})
			n, err := svc.PutSkills(ctx, skills)
			convey.So(errors.Is(err, model.ErrInvalid), convey.ShouldBeTrue)
			convey.So(n, convey.ShouldEqual, 0)
			convey.So(svc.Skills(), convey.ShouldBeEmpty)
		})

		convey.Convey("Stored records can be read back with timestamps", func() {
			seed(ctx, svc, &ds)
			convey.So(svc.Skills(), convey.ShouldHaveLength, 4)

			p, err := svc.Position("position1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(p.Title, convey.ShouldEqual, "Senior Frontend Developer")
			convey.So(p.CreatedAt.IsZero(), convey.ShouldBeFalse)

			c, err := svc.Candidate("candidate2")
			convey.So(err, convey.ShouldBeNil)
			convey.So(c.Name, convey.ShouldEqual, "Bob Smith")

			_, err = svc.Candidate("candidate9")
			convey.So(errors.Is(err, service.ErrNotFound), convey.ShouldBeTrue)
		})
	})
}

func TestServiceQuery(t *testing.T) {
	convey.Convey("Given ranked demo candidates and one non-applicant", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		svc := newService()
		ds := demo.Default()
		ds.Candidates = append(ds.Candidates, model.Candidate{
			ID:                 "candidate3",
			Name:               "Carla Diaz",
			DesiredPay:         90000,
			SelfDescription:    "Frontend developer fluent in JavaScript, React and CSS.",
			DateOfAvailability: time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC),
		})
		seed(ctx, svc, &ds)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		submitAll(ctx, svc, ds.Evaluations)

		convey.Convey("Skill-only weights score by evaluated skills alone", func() {
			entries, err := svc.Query(ctx, "position1", service.QueryOptions{
				Weights: map[string]float64{
					scoring.SignalPay:          0,
					scoring.SignalAvailability: 0,
					scoring.SignalDescription:  0,
				},
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(entries, convey.ShouldHaveLength, 2)
			convey.So(entries[0].Score, convey.ShouldAlmostEqual, 82.0, 1e-6)
			convey.So(entries[1].Score, convey.ShouldAlmostEqual, 81.0, 1e-6)
		})

		convey.Convey("Queries do not modify the stored ranking", func() {
			before, err := svc.Ranking(ctx, "position1", 10)
			convey.So(err, convey.ShouldBeNil)
			_, err = svc.Query(ctx, "position1", service.QueryOptions{Weights: map[string]float64{scoring.SignalPay: 5}})
			convey.So(err, convey.ShouldBeNil)
			after, err := svc.Ranking(ctx, "position1", 10)
			convey.So(err, convey.ShouldBeNil)
			convey.So(after, convey.ShouldResemble, before)
		})

		convey.Convey("IncludeAll ranks non-applicants too", func() {
			entries, err := svc.Query(ctx, "position1", service.QueryOptions{IncludeAll: true})
			convey.So(err, convey.ShouldBeNil)
			convey.So(entries, convey.ShouldHaveLength, 3)
			ids := []string{entries[0].CandidateID, entries[1].CandidateID, entries[2].CandidateID}
			convey.So(ids, convey.ShouldContain, "candidate3")

			convey.Convey("and a limit truncates the result", func() {
				top, err := svc.Query(ctx, "position1", service.QueryOptions{IncludeAll: true, Limit: 1})
				convey.So(err, convey.ShouldBeNil)
				convey.So(top, convey.ShouldHaveLength, 1)
				convey.So(top[0].Rank, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("Unknown signals and negative weights are rejected", func() {
			_, err := svc.Query(ctx, "position1", service.QueryOptions{Weights: map[string]float64{"charisma": 1}})
			convey.So(errors.Is(err, scoring.ErrInvalidWeights), convey.ShouldBeTrue)

			_, err = svc.Query(ctx, "position1", service.QueryOptions{Weights: map[string]float64{scoring.SignalPay: -1}})
			convey.So(errors.Is(err, scoring.ErrInvalidWeights), convey.ShouldBeTrue)
		})

		convey.Convey("Weights whose sum overflows are rejected", func() {
			_, err := svc.Query(ctx, "position1", service.QueryOptions{Weights: map[string]float64{
				scoring.SignalSkills: 1e308,
				scoring.SignalPay:    1e308,
			}})
			convey.So(errors.Is(err, scoring.ErrInvalidWeights), convey.ShouldBeTrue)
		})

		convey.Convey("Querying an unknown position fails", func() {
			_, err := svc.Query(ctx, "nope", service.QueryOptions{})
			convey.So(errors.Is(err, service.ErrNotFound), convey.ShouldBeTrue)
		})
	})
}

func TestServiceJournal(t *testing.T) {
	convey.Convey("Given a service persisting to a journal", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		path := filepath.Join(t.TempDir(), "journal.db")

		j, err := repository.OpenJournal(ctx, path)
		convey.So(err, convey.ShouldBeNil)
		svc := newService(service.WithJournal(j))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)

		ds := demo.Default()
		seed(ctx, svc, &ds)
		submitAll(ctx, svc, ds.Evaluations)
		want, err := svc.Ranking(ctx, "position1", 10)
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.GetStats().Persistent, convey.ShouldBeTrue)
		convey.So(svc.Stop(ctx), convey.ShouldBeNil)

		convey.Convey("A restarted service replays records and rankings", func() {
			j2, err := repository.OpenJournal(ctx, path)
			convey.So(err, convey.ShouldBeNil)
			restarted := newService(service.WithJournal(j2))
			convey.So(restarted.Start(ctx), convey.ShouldBeNil)
			defer func() { _ = restarted.Stop(ctx) }()

			got, err := restarted.Ranking(ctx, "position1", 10)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldHaveLength, len(want))
			for i := range want {
				convey.So(got[i].CandidateID, convey.ShouldEqual, want[i].CandidateID)
				convey.So(got[i].Score, convey.ShouldAlmostEqual, want[i].Score, 1e-9)
			}

			convey.Convey("and still knows the evaluation ids", func() {
				sub, err := restarted.SubmitEvaluation(ctx, ds.Evaluations[0])
				convey.So(err, convey.ShouldBeNil)
				convey.So(sub.Status, convey.ShouldEqual, service.StatusDuplicate)
			})
		})

		convey.Convey("A restart with another embedder of the same dimension re-embeds descriptions", func() {
			j2, err := repository.OpenJournal(ctx, path)
			convey.So(err, convey.ShouldBeNil)
			restarted := newService(service.WithJournal(j2), service.WithEmbedder(constantEmbedder{}))
			convey.So(restarted.Start(ctx), convey.ShouldBeNil)
			defer func() { _ = restarted.Stop(ctx) }()

			convey.So(restarted.GetStats().Embedder, convey.ShouldEqual, "constant")
			got, err := restarted.Ranking(ctx, "position1", 10)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldHaveLength, 2)
			for _, e := range got {
				convey.So(e.Breakdown.Description, convey.ShouldAlmostEqual, 1.0, 1e-9)
			}
		})
	})
}

// constantEmbedder maps every text to the same unit vector, with the
// hashing embedder's default dimension.
type constantEmbedder struct{}

func (constantEmbedder) Embed(ctx context.Context, _ string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float64, 512)
	vec[0] = 1
	return vec, nil
}

func (constantEmbedder) Dimension() int { return 512 }
func (constantEmbedder) Name() string   { return "constant" }

package demo

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/candirank/internal/adapters/export"
	"github.com/okian/candirank/internal/adapters/repository"
	service "github.com/okian/candirank/internal/app"
	"github.com/okian/candirank/internal/domain/model"
	"github.com/okian/candirank/pkg/logger"
)

// Target is a ranking service the demo can seed and read from. Both
// *service.Service and *Client satisfy it.
type Target interface {
	PutSkills(ctx context.Context, skills []model.Skill) (int, error)
	PutPositions(ctx context.Context, positions []model.Position) (int, error)
	PutCandidates(ctx context.Context, candidates []model.Candidate) (int, error)
	SubmitEvaluation(ctx context.Context, e model.Evaluation) (service.Submission, error)
	Drain(ctx context.Context) error
	Ranking(ctx context.Context, positionID string, n int) ([]repository.Entry, error)
}

var (
	_ Target = (*service.Service)(nil)
	_ Target = (*Client)(nil)
)

// Options controls a demo run.
type Options struct {
	// Limit is the ranking size fetched per position.
	Limit int
	// Workers bounds concurrent evaluation submissions.
	Workers int
	// PositionID restricts output to one position; empty means all.
	PositionID string
}

// Stats holds run statistics.
type Stats struct {
	Submitted int
	Accepted  int
	Duplicate int
	Duration  time.Duration
}

// Result is the outcome of a demo run: one report per position.
type Result struct {
	Reports []export.Report
	Stats   Stats
}

// Run seeds ds into target, waits until every evaluation is applied and
// reads back the rankings.
func Run(ctx context.Context, target Target, ds *Dataset, opts Options) (*Result, error) {
	start := time.Now()
	log := logger.Get().Named("demo")
	if opts.Limit < 1 {
		opts.Limit = 10
	}
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU() * 2
	}
	if opts.PositionID != "" {
		if _, ok := ds.Position(opts.PositionID); !ok {
			return nil, fmt.Errorf("position %q is not part of the dataset", opts.PositionID)
		}
	}

	if _, err := target.PutSkills(ctx, ds.Skills); err != nil {
		return nil, fmt.Errorf("put skills: %w", err)
	}
	if _, err := target.PutPositions(ctx, ds.Positions); err != nil {
		return nil, fmt.Errorf("put positions: %w", err)
	}
	if _, err := target.PutCandidates(ctx, ds.Candidates); err != nil {
		return nil, fmt.Errorf("put candidates: %w", err)
	}
	log.Info(ctx, "records seeded",
		logger.Int("skills", len(ds.Skills)),
		logger.Int("positions", len(ds.Positions)),
		logger.Int("candidates", len(ds.Candidates)))

	stats, err := submitEvaluations(ctx, target, ds.Evaluations, opts.Workers)
	if err != nil {
		return nil, err
	}
	if err := target.Drain(ctx); err != nil {
		return nil, fmt.Errorf("wait for evaluations: %w", err)
	}
	log.Info(ctx, "evaluations applied",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate))

	res := &Result{}
	names := ds.Names()
	now := time.Now()
	for _, p := range ds.Positions {
		if opts.PositionID != "" && p.ID != opts.PositionID {
			continue
		}
		entries, err := target.Ranking(ctx, p.ID, opts.Limit)
		if err != nil {
			return nil, fmt.Errorf("ranking for %q: %w", p.ID, err)
		}
		res.Reports = append(res.Reports, export.Report{
			Position:    p,
			Entries:     entries,
			Names:       names,
			GeneratedAt: now,
		})
	}
	stats.Duration = time.Since(start)
	res.Stats = stats
	return res, nil
}

// submitAttempts bounds retries of a backpressured submission.
const submitAttempts = 5

func submitWithRetry(ctx context.Context, target Target, e model.Evaluation) (service.Submission, error) { //nolint:gocritic // hugeParam
	backoff := 20 * time.Millisecond
	for attempt := 1; ; attempt++ {
		sub, err := target.SubmitEvaluation(ctx, e)
		if err == nil || !IsRetryable(err) || attempt == submitAttempts {
			return sub, err
		}
		select {
		case <-ctx.Done():
			return service.Submission{}, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

// submitEvaluations posts evaluations concurrently. Evaluations without an
// id get a random one.
func submitEvaluations(ctx context.Context, target Target, evals []model.Evaluation, workers int) (Stats, error) {
	var accepted, duplicate atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, e := range evals {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		g.Go(func() error {
			sub, err := submitWithRetry(gctx, target, e)
			if err != nil {
				return fmt.Errorf("submit evaluation %q: %w", e.ID, err)
			}
			if sub.Status == service.StatusDuplicate {
				duplicate.Add(1)
			} else {
				accepted.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return Stats{
		Submitted: len(evals),
		Accepted:  int(accepted.Load()),
		Duplicate: int(duplicate.Load()),
	}, nil
}

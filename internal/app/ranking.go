package service

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/candirank/internal/adapters/repository"
	"github.com/okian/candirank/internal/domain/aggregate"
	"github.com/okian/candirank/internal/domain/scoring"
	"github.com/okian/candirank/pkg/metrics"
)

// rescoreCandidate recomputes the candidate's score for the given positions.
func (s *Service) rescoreCandidate(ctx context.Context, candidateID string, positionIDs []string) error {
	unlock := s.lockCandidate(candidateID)
	defer unlock()
	return s.rescoreLocked(ctx, candidateID, positionIDs)
}

// rescoreLocked expects the candidate's lock to be held. Only applicants
// are ranked; a position or candidate that no longer exists is skipped.
func (s *Service) rescoreLocked(ctx context.Context, candidateID string, positionIDs []string) error {
	if len(positionIDs) == 0 {
		return nil
	}
	cand, ok := s.catalog.Candidate(candidateID)
	if !ok {
		return nil
	}
	skills := aggregate.Scores(s.aggregator.Aggregate(s.catalog.History(candidateID)))

	for _, pid := range positionIDs {
		pos, ok := s.catalog.Position(pid)
		if !ok || !s.catalog.IsApplicant(pid, candidateID) {
			continue
		}
		res, err := s.score(ctx, pos, cand, skills, nil)
		if err != nil {
			return err
		}
		if err := s.ranking.Upsert(ctx, pid, candidateID, res.Score, res.Breakdown); err != nil {
			return fmt.Errorf("rank candidate %q for %q: %w", candidateID, pid, err)
		}
		metrics.RecordRescore()
	}
	return nil
}

func (s *Service) score(ctx context.Context, pos repository.PositionRecord, cand repository.CandidateRecord,
	skills map[string]float64, weights *scoring.Weights,
) (scoring.Result, error) {
	start := time.Now()
	res, err := s.scorer.Score(ctx, scoring.Input{
		Position:        &pos.Position,
		Candidate:       &cand.Candidate,
		Skills:          skills,
		PositionVector:  pos.Vector,
		CandidateVector: cand.Vector,
		WeightsOverride: weights,
	})
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordScoringError()
		return scoring.Result{}, fmt.Errorf("score candidate %q for %q: %w", cand.Candidate.ID, pos.Position.ID, err)
	}
	return res, nil
}

// Ranking returns the top n applicants of a position.
func (s *Service) Ranking(ctx context.Context, positionID string, n int) ([]repository.Entry, error) {
	if _, ok := s.catalog.Position(positionID); !ok {
		return nil, fmt.Errorf("position %q: %w", positionID, ErrNotFound)
	}
	return s.ranking.TopN(ctx, positionID, n)
}

// Rank returns one candidate's place in a position's ranking.
func (s *Service) Rank(ctx context.Context, positionID, candidateID string) (repository.Entry, error) {
	e, err := s.ranking.Rank(ctx, positionID, candidateID)
	if err != nil {
		return repository.Entry{}, fmt.Errorf("candidate %q for position %q: %w", candidateID, positionID, err)
	}
	return e, nil
}

// QueryOptions shapes an ad-hoc ranking query.
type QueryOptions struct {
	// Limit caps the result; values below 1 return every candidate.
	Limit int `json:"limit"`
	// Weights overrides individual signal weights for this query only.
	Weights map[string]float64 `json:"weights,omitempty"`
	// IncludeAll ranks every stored candidate, not only applicants.
	IncludeAll bool `json:"include_all"`
}

// Query scores candidates for a position on demand with optional weight
// overrides. The stored rankings are not modified.
func (s *Service) Query(ctx context.Context, positionID string, opts QueryOptions) ([]repository.Entry, error) {
	pos, ok := s.catalog.Position(positionID)
	if !ok {
		return nil, fmt.Errorf("position %q: %w", positionID, ErrNotFound)
	}
	weights, err := s.scorer.Weights().Merge(opts.Weights)
	if err != nil {
		return nil, err
	}

	var ids []string
	if opts.IncludeAll {
		for _, c := range s.catalog.Candidates() {
			ids = append(ids, c.Candidate.ID)
		}
	} else {
		ids = s.catalog.Applicants(positionID)
	}

	entries := make([]repository.Entry, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, cid := range ids {
		g.Go(func() error {
			cand, ok := s.catalog.Candidate(cid)
			if !ok {
				return nil
			}
			skills := aggregate.Scores(s.aggregator.Aggregate(s.catalog.History(cid)))
			res, err := s.score(gctx, pos, cand, skills, &weights)
			if err != nil {
				return err
			}
			entries[i] = repository.Entry{CandidateID: cid, Score: res.Score, Breakdown: res.Breakdown}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := entries[:0]
	for _, e := range entries {
		if e.CandidateID != "" {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].CandidateID < out[j].CandidateID
	})
	repository.AssignRanks(out)
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// CandidateSkills returns the candidate's aggregated skills sorted by id.
func (s *Service) CandidateSkills(_ context.Context, candidateID string) ([]aggregate.SkillScore, error) {
	if _, ok := s.catalog.Candidate(candidateID); !ok {
		return nil, fmt.Errorf("candidate %q: %w", candidateID, ErrNotFound)
	}
	agg := s.aggregator.Aggregate(s.catalog.History(candidateID))
	out := make([]aggregate.SkillScore, 0, len(agg))
	for _, sk := range agg {
		out = append(out, sk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SkillID < out[j].SkillID })
	return out, nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/okian/candirank/internal/adapters/repository"
	"github.com/okian/candirank/internal/domain/model"
	"github.com/okian/candirank/pkg/logger"
)

// PutSkills validates and stores skills. The batch is rejected as a whole
// if any record is invalid.
func (s *Service) PutSkills(ctx context.Context, skills []model.Skill) (int, error) {
	for i := range skills {
		if err := skills[i].Validate(); err != nil {
			return 0, err
		}
	}
	for _, sk := range skills {
		if err := s.persist(ctx, repository.KindSkill, sk.ID, sk); err != nil {
			return 0, err
		}
		s.catalog.PutSkill(sk)
	}
	return len(skills), nil
}

// PutPositions validates, embeds and stores positions, then rescores every
// applicant of each stored position.
func (s *Service) PutPositions(ctx context.Context, positions []model.Position) (int, error) {
	now := s.now().UTC()
	for i := range positions {
		p := &positions[i]
		if err := p.Validate(); err != nil {
			return 0, err
		}
		for _, id := range p.RequiredSkills {
			if _, ok := s.catalog.Skill(id); !ok {
				return 0, fmt.Errorf("position %q requires skill %q: %w", p.ID, id, ErrUnknownReference)
			}
		}
	}

	for i := range positions {
		p := positions[i]
		vec, err := s.embed(ctx, p.Text())
		if err != nil {
			return i, fmt.Errorf("position %q: %w", p.ID, err)
		}
		var prev time.Time
		if old, ok := s.catalog.Position(p.ID); ok {
			prev = old.Position.CreatedAt
		}
		stamp(&p.CreatedAt, &p.UpdatedAt, prev, now)
		rec := repository.PositionRecord{Position: p, Vector: vec, Embedder: s.embedder.Name()}
		if err := s.persist(ctx, repository.KindPosition, p.ID, rec); err != nil {
			return i, err
		}
		s.catalog.PutPosition(rec)

		for _, cid := range s.catalog.Applicants(p.ID) {
			if err := s.rescoreCandidate(ctx, cid, []string{p.ID}); err != nil {
				return i + 1, err
			}
		}
	}
	return len(positions), nil
}

// PutCandidates validates, embeds and stores candidates, then rescores each
// candidate for every position it applied to.
func (s *Service) PutCandidates(ctx context.Context, candidates []model.Candidate) (int, error) {
	now := s.now().UTC()
	for i := range candidates {
		if err := candidates[i].Validate(); err != nil {
			return 0, err
		}
	}

	for i := range candidates {
		c := candidates[i]
		vec, err := s.embed(ctx, c.SelfDescription)
		if err != nil {
			return i, fmt.Errorf("candidate %q: %w", c.ID, err)
		}
		var prev time.Time
		if old, ok := s.catalog.Candidate(c.ID); ok {
			prev = old.Candidate.CreatedAt
		}
		stamp(&c.CreatedAt, &c.UpdatedAt, prev, now)
		rec := repository.CandidateRecord{Candidate: c, Vector: vec, Embedder: s.embedder.Name()}
		if err := s.persist(ctx, repository.KindCandidate, c.ID, rec); err != nil {
			return i, err
		}
		s.catalog.PutCandidate(rec)

		if err := s.rescoreCandidate(ctx, c.ID, s.catalog.PositionsFor(c.ID)); err != nil {
			return i + 1, err
		}
	}
	return len(candidates), nil
}

// stamp fills record timestamps: an upsert keeps the first creation time
// unless the caller supplies one, and always refreshes updated.
func stamp(created, updated *time.Time, prev, now time.Time) {
	if created.IsZero() {
		*created = prev
	}
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func decode(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: decode record: %w", repository.ErrJournal, err)
	}
	return nil
}

// replay rebuilds the catalog and rankings from the journal.
func (s *Service) replay(ctx context.Context) error {
	if err := s.journal.LoadRecords(ctx, repository.KindSkill, func(payload []byte) error {
		var sk model.Skill
		if err := decode(payload, &sk); err != nil {
			return err
		}
		s.catalog.PutSkill(sk)
		return nil
	}); err != nil {
		return err
	}

	var positions []repository.PositionRecord
	if err := s.journal.LoadRecords(ctx, repository.KindPosition, func(payload []byte) error {
		var rec repository.PositionRecord
		if err := decode(payload, &rec); err != nil {
			return err
		}
		positions = append(positions, rec)
		return nil
	}); err != nil {
		return err
	}
	var candidates []repository.CandidateRecord
	if err := s.journal.LoadRecords(ctx, repository.KindCandidate, func(payload []byte) error {
		var rec repository.CandidateRecord
		if err := decode(payload, &rec); err != nil {
			return err
		}
		candidates = append(candidates, rec)
		return nil
	}); err != nil {
		return err
	}

	// Vectors from a different embedder are recomputed.
	for _, rec := range positions {
		if s.needsEmbedding(rec.Vector, rec.Embedder) {
			vec, err := s.embed(ctx, rec.Position.Text())
			if err != nil {
				return err
			}
			rec.Vector, rec.Embedder = vec, s.embedder.Name()
			if err := s.persist(ctx, repository.KindPosition, rec.Position.ID, rec); err != nil {
				return err
			}
		}
		s.catalog.PutPosition(rec)
	}
	for _, rec := range candidates {
		if s.needsEmbedding(rec.Vector, rec.Embedder) {
			vec, err := s.embed(ctx, rec.Candidate.SelfDescription)
			if err != nil {
				return err
			}
			rec.Vector, rec.Embedder = vec, s.embedder.Name()
			if err := s.persist(ctx, repository.KindCandidate, rec.Candidate.ID, rec); err != nil {
				return err
			}
		}
		s.catalog.PutCandidate(rec)
	}

	var touched []string
	if err := s.journal.Replay(ctx, func(e model.Evaluation) error {
		if s.catalog.AppendEvaluation(e) {
			s.deduper.SeenAndRecord(ctx, e.ID)
			touched = append(touched, e.CandidateID)
		}
		return nil
	}); err != nil {
		return err
	}

	slices.Sort(touched)
	for _, cid := range slices.Compact(touched) {
		if err := s.rescoreCandidate(ctx, cid, s.catalog.PositionsFor(cid)); err != nil {
			s.logger.Warn(ctx, "rescore after replay failed", logger.String("candidate_id", cid), logger.Error(err))
		}
	}
	return nil
}

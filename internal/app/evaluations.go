package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	eventqueue "github.com/okian/candirank/internal/adapters/mq/queue"
	"github.com/okian/candirank/internal/domain/model"
	"github.com/okian/candirank/pkg/logger"
	"github.com/okian/candirank/pkg/metrics"
)

// SubmitStatus is the outcome of SubmitEvaluation.
type SubmitStatus string

// Submission outcomes.
const (
	StatusAccepted  SubmitStatus = "accepted"
	StatusDuplicate SubmitStatus = "duplicate"
)

// Submission reports what happened to a submitted evaluation.
type Submission struct {
	EvaluationID string       `json:"evaluation_id"`
	Status       SubmitStatus `json:"status"`
}

// SubmitEvaluation validates an evaluation and queues it for processing.
// A missing id is generated; a missing created_at is set to now. Evaluations
// whose id was already seen are reported as duplicates and not re-applied.
func (s *Service) SubmitEvaluation(ctx context.Context, e model.Evaluation) (Submission, error) { //nolint:gocritic // hugeParam: copied before defaults are filled in
	if !s.isStarted() {
		return Submission{}, ErrNotStarted
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	if err := e.Validate(); err != nil {
		metrics.RecordEvaluationRejected("invalid")
		return Submission{}, err
	}
	if err := s.checkReferences(&e); err != nil {
		metrics.RecordEvaluationRejected("unknown_reference")
		return Submission{}, err
	}

	sub := Submission{EvaluationID: e.ID}
	// The catalog remembers every applied id; the deduper also covers ids
	// still queued but may have evicted old ones.
	if s.catalog.HasEvaluation(e.ID) || s.deduper.SeenAndRecord(ctx, e.ID) {
		metrics.RecordEvaluationDuplicate()
		s.logger.Debug(ctx, "duplicate evaluation", logger.String("evaluation_id", e.ID))
		sub.Status = StatusDuplicate
		return sub, nil
	}

	s.pending.Add(1)
	if err := s.queue.Enqueue(ctx, e); err != nil {
		s.pending.Add(-1)
		s.deduper.Unrecord(ctx, e.ID)
		switch {
		case errors.Is(err, eventqueue.ErrFull):
			metrics.RecordEvaluationRejected("backpressure")
			return Submission{}, ErrBackpressure
		case errors.Is(err, eventqueue.ErrClosed):
			return Submission{}, ErrNotStarted
		default:
			return Submission{}, err
		}
	}
	sub.Status = StatusAccepted
	return sub, nil
}

func (s *Service) checkReferences(e *model.Evaluation) error {
	if _, ok := s.catalog.Candidate(e.CandidateID); !ok {
		return fmt.Errorf("candidate %q: %w", e.CandidateID, ErrUnknownReference)
	}
	if _, ok := s.catalog.Position(e.PositionID); !ok {
		return fmt.Errorf("position %q: %w", e.PositionID, ErrUnknownReference)
	}
	for _, id := range e.EvaluatedSkills {
		if _, ok := s.catalog.Skill(id); !ok {
			return fmt.Errorf("skill %q: %w", id, ErrUnknownReference)
		}
	}
	return nil
}

// Process applies one queued evaluation: it is journaled, appended to the
// candidate's history and the candidate is rescored for every position it
// applied to. Skill aggregation spans all of a candidate's evaluations, so
// one evaluation can move several rankings.
func (s *Service) Process(ctx context.Context, e model.Evaluation) error { //nolint:gocritic // hugeParam: received by value from the queue
	defer s.pending.Add(-1)

	unlock := s.lockCandidate(e.CandidateID)
	defer unlock()

	if s.journal != nil {
		if err := s.journal.Append(ctx, e); err != nil {
			metrics.RecordJournalWrite("evaluation", "error")
			s.deduper.Unrecord(ctx, e.ID)
			return err
		}
		metrics.RecordJournalWrite("evaluation", "ok")
	}
	if !s.catalog.AppendEvaluation(e) {
		metrics.RecordEvaluationDuplicate()
		return nil
	}

	if err := s.rescoreLocked(ctx, e.CandidateID, s.catalog.PositionsFor(e.CandidateID)); err != nil {
		return err
	}
	metrics.RecordEvaluationProcessed()
	return nil
}

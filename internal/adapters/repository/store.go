// Package repository holds the catalog of records, the evaluation journal
// and the per-position ranking store.
package repository

import (
	"context"
	"time"

	"github.com/okian/candirank/internal/domain/scoring"
)

// Entry represents one row of a position's ranking.
type Entry struct {
	Rank        int               `json:"rank"`
	CandidateID string            `json:"candidate_id"`
	Score       float64           `json:"score"`
	Breakdown   scoring.Breakdown `json:"breakdown"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Ranking provides read/write access to per-position rankings.
type Ranking interface {
	// Upsert sets the candidate's score for a position, replacing any
	// previous score.
	Upsert(ctx context.Context, positionID, candidateID string, score float64, breakdown scoring.Breakdown) error

	// Rank returns the current rank and score for a candidate.
	// Returns ErrNotFound if the candidate is not ranked for the position.
	Rank(ctx context.Context, positionID, candidateID string) (Entry, error)

	// TopN returns the top-N entries ordered by score desc, candidate id asc.
	TopN(ctx context.Context, positionID string, n int) ([]Entry, error)

	// Count returns the number of candidates ranked for a position.
	Count(ctx context.Context, positionID string) int

	// Total returns the number of entries across all positions.
	Total() int
}

var _ Ranking = (*TreapStore)(nil)

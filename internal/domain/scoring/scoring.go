// Package scoring combines the individual match signals between a candidate
// and a position into one ranked score.
package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/candirank/internal/domain/model"
	"github.com/okian/candirank/internal/domain/similarity"
)

// Default scoring configuration constants.
const (
	defaultPayTolerance         = 0.25
	defaultAvailabilityHalfLife = 14 * 24 * time.Hour
	maxScoreValue               = 100
)

// Option applies a configuration option to the WeightedScorer.
type Option func(*WeightedScorer)

// WithWeights sets the default signal weights. Invalid weights are ignored.
func WithWeights(w Weights) Option {
	return func(s *WeightedScorer) {
		if w.Validate() == nil {
			s.weights = w
		}
	}
}

// WithPayTolerance sets how far above the allocated pay (as a fraction of it)
// a desired pay may go before the pay signal reaches 0.
func WithPayTolerance(tolerance float64) Option {
	return func(s *WeightedScorer) {
		if tolerance > 0 {
			s.payTolerance = tolerance
		}
	}
}

// WithAvailabilityHalfLife sets the lateness after which the availability
// signal is halved.
func WithAvailabilityHalfLife(d time.Duration) Option {
	return func(s *WeightedScorer) {
		if d > 0 {
			s.availabilityHalfLife = d
		}
	}
}

// Input carries everything needed to score one candidate for one position.
type Input struct {
	Position  *model.Position
	Candidate *model.Candidate
	// Skills maps skill id to the aggregated evaluation score.
	Skills          map[string]float64
	PositionVector  []float64
	CandidateVector []float64
	// WeightsOverride replaces the scorer's default weights when set.
	WeightsOverride *Weights
}

// Breakdown holds each signal in [0, 1].
type Breakdown struct {
	Skills       float64 `json:"skills"`
	Pay          float64 `json:"pay"`
	Availability float64 `json:"availability"`
	Description  float64 `json:"description"`
}

// Result contains the computed score for a candidate.
type Result struct {
	CandidateID string    `json:"candidate_id"`
	PositionID  string    `json:"position_id"`
	Score       float64   `json:"score"`
	Breakdown   Breakdown `json:"breakdown"`
}

// Scorer computes a score from an input.
type Scorer interface {
	// Score computes a score, honoring ctx for cancellation.
	Score(ctx context.Context, in Input) (Result, error)
}

// WeightedScorer implements Scorer as a weighted mean of signals.
type WeightedScorer struct {
	weights              Weights
	payTolerance         float64
	availabilityHalfLife time.Duration
}

// NewWeightedScorer creates a new scorer with configuration options.
func NewWeightedScorer(opts ...Option) *WeightedScorer {
	s := &WeightedScorer{
		weights:              DefaultWeights(),
		payTolerance:         defaultPayTolerance,
		availabilityHalfLife: defaultAvailabilityHalfLife,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Weights returns the default weights.
func (s *WeightedScorer) Weights() Weights { return s.weights }

// Score computes the score for the given input.
func (s *WeightedScorer) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	if in.Position == nil || in.Candidate == nil {
		return Result{}, ErrMissingInput
	}

	w := s.weights
	if in.WeightsOverride != nil {
		w = *in.WeightsOverride
		if err := w.Validate(); err != nil {
			return Result{}, err
		}
	}

	b := Breakdown{
		Skills:       similarity.Skills(in.Position.SkillWeights(), in.Skills, model.MaxSkillScore),
		Pay:          similarity.Pay(in.Candidate.DesiredPay, in.Position.AllocatedPay, s.payTolerance),
		Availability: similarity.Availability(in.Candidate.DateOfAvailability, in.Position.RequiredDateOfFilling, s.availabilityHalfLife),
		Description:  similarity.Text(in.CandidateVector, in.PositionVector),
	}

	total := w.Skills*b.Skills + w.Pay*b.Pay + w.Availability*b.Availability + w.Description*b.Description
	score := maxScoreValue * total / w.Sum()

	// Normalize score to 0-100 range
	score = math.Max(0, math.Min(maxScoreValue, score))

	return Result{
		CandidateID: in.Candidate.ID,
		PositionID:  in.Position.ID,
		Score:       score,
		Breakdown:   b,
	}, nil
}

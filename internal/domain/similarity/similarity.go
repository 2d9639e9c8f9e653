// Package similarity provides the per-signal similarity functions combined by
// the scorer. Every function returns a value in [0, 1], higher is better.
package similarity

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

const hoursPerDay = 24

// Func computes similarity between two embedding vectors.
type Func func(a, b []float64) float64

// Cosine returns the cosine similarity of a and b in [-1, 1]. Mismatched
// dimensions and zero vectors yield 0.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return clamp(floats.Dot(a, b)/(na*nb), -1, 1)
}

// Text maps the cosine similarity of two description embeddings to [0, 1].
// Opposed vectors are treated as unrelated rather than negatively related.
func Text(a, b []float64) float64 {
	return math.Max(0, Cosine(a, b))
}

// Pay scores how well a desired pay fits an allocated budget. Asking for at
// most the budget scores 1; the score falls linearly to 0 when the ask
// exceeds the budget by tolerance (a fraction of the budget).
func Pay(desired, allocated int64, tolerance float64) float64 {
	if desired <= allocated {
		return 1
	}
	if allocated <= 0 || tolerance <= 0 {
		return 0
	}
	over := float64(desired-allocated) / float64(allocated)
	return clamp(1-over/tolerance, 0, 1)
}

// Availability scores a candidate's start date against the date a position
// must be filled by. Starting on or before that date scores 1; each halfLife
// of lateness halves the score.
func Availability(available, required time.Time, halfLife time.Duration) float64 {
	if !available.After(required) {
		return 1
	}
	if halfLife <= 0 {
		return 0
	}
	late := available.Sub(required)
	return math.Exp2(-float64(late) / float64(halfLife))
}

// Skills returns the weight-normalised mean of aggregated skill scores over
// the required skills, each scaled by maxScore. Missing skills count as 0.
func Skills(weights, aggregated map[string]float64, maxScore float64) float64 {
	if maxScore <= 0 {
		return 0
	}
	var num, den float64
	for skill, w := range weights {
		if w <= 0 {
			continue
		}
		den += w
		num += w * clamp(aggregated[skill]/maxScore, 0, 1)
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// Days converts a day count into a duration.
func Days(n float64) time.Duration {
	return time.Duration(n * hoursPerDay * float64(time.Hour))
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

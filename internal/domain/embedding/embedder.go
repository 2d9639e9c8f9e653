// Package embedding turns free text into dense vectors used for description
// similarity between candidates and positions.
package embedding

import (
	"context"
	"errors"
)

// Sentinel errors for this package.
var (
	ErrEmptyText     = errors.New("empty text")
	ErrProvider      = errors.New("embedding provider failed")
	ErrUnknownModel  = errors.New("unknown embedding provider")
	ErrDimension     = errors.New("embedding dimension mismatch")
	ErrMissingAPIKey = errors.New("embedding api key is required")
)

// Embedder generates a vector representation of text.
type Embedder interface {
	// Embed returns the embedding for text, honoring ctx for cancellation.
	Embed(ctx context.Context, text string) ([]float64, error)

	// Dimension returns the dimensionality of the output vectors.
	Dimension() int

	// Name identifies the embedder in logs and stats.
	Name() string
}

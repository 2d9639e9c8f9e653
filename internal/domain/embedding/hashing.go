package embedding

import (
	"context"
	"strings"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/floats"
)

const (
	defaultDimension = 512
	bigramWeight     = 0.5
)

// HashingEmbedder is a deterministic offline embedder based on
// signed feature hashing of unigrams and bigrams. Vectors are L2-normalised
// so the dot product of two embeddings is their cosine similarity.
type HashingEmbedder struct {
	dim int
}

// HashingOption configures a HashingEmbedder.
type HashingOption func(*HashingEmbedder)

// WithDimension sets the output dimension.
func WithDimension(dim int) HashingOption {
	return func(h *HashingEmbedder) {
		if dim > 0 {
			h.dim = dim
		}
	}
}

// NewHashingEmbedder creates a hashing embedder (512 dimensions by default).
func NewHashingEmbedder(opts ...HashingOption) *HashingEmbedder {
	h := &HashingEmbedder{dim: defaultDimension}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Dimension implements Embedder.
func (h *HashingEmbedder) Dimension() int { return h.dim }

// Name implements Embedder.
func (h *HashingEmbedder) Name() string { return "hashing" }

// Embed implements Embedder. Text without any usable token yields ErrEmptyText.
func (h *HashingEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil, ErrEmptyText
	}

	vec := make([]float64, h.dim)
	for i, tok := range tokens {
		h.add(vec, tok, 1)
		if i > 0 {
			h.add(vec, tokens[i-1]+" "+tok, bigramWeight)
		}
	}
	if norm := floats.Norm(vec, 2); norm > 0 {
		floats.Scale(1/norm, vec)
	}
	return vec, nil
}

func (h *HashingEmbedder) add(vec []float64, term string, weight float64) {
	sum := xxhash.Sum64String(strings.TrimSpace(term))
	idx := sum % uint64(h.dim)
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

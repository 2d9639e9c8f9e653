package embedding

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	defaultGeminiModel = "gemini-embedding-001"
	taskSimilarity     = "SEMANTIC_SIMILARITY"
)

// contentEmbedder is the slice of the genai Models service we depend on.
type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// GeminiEmbedder embeds text with the Gemini embedding API.
type GeminiEmbedder struct {
	models contentEmbedder
	model  string
	dim    int
}

// NewGeminiEmbedder creates a Gemini-backed embedder. dim is passed as the
// requested output dimensionality.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string, dim int) (*GeminiEmbedder, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGeminiEmbedder(client.Models, model, dim), nil
}

func newGeminiEmbedder(models contentEmbedder, model string, dim int) *GeminiEmbedder {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultGeminiModel
	}
	if dim <= 0 {
		dim = defaultDimension
	}
	return &GeminiEmbedder{models: models, model: model, dim: dim}
}

// Dimension implements Embedder.
func (g *GeminiEmbedder) Dimension() int { return g.dim }

// Name implements Embedder.
func (g *GeminiEmbedder) Name() string { return "gemini:" + g.model }

// Embed implements Embedder.
func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	dim := int32(g.dim) //nolint:gosec // bounded by configuration
	resp, err := g.models.EmbedContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{TaskType: taskSimilarity, OutputDimensionality: &dim},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("%w: empty response", ErrProvider)
	}

	values := resp.Embeddings[0].Values
	if len(values) != g.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(values), g.dim)
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out, nil
}

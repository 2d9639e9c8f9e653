package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/candirank/internal/adapters/repository"
	"github.com/okian/candirank/internal/config"
	"github.com/okian/candirank/internal/domain/aggregate"
	"github.com/okian/candirank/internal/domain/embedding"
	"github.com/okian/candirank/internal/domain/scoring"
	"github.com/okian/candirank/internal/domain/similarity"
	"github.com/okian/candirank/pkg/logger"
)

// NewFromConfig builds a Service from validated configuration: it selects
// the embedder, opens the journal and configures scoring and aggregation.
func NewFromConfig(ctx context.Context, cfg *config.Config, log logger.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	weights, err := cfg.Weights()
	if err != nil {
		return nil, err
	}
	policy, err := aggregate.ParsePolicy(cfg.AggregationPolicy)
	if err != nil {
		return nil, err
	}

	emb, err := newEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithLogger(log),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithEmbedder(emb),
		WithAggregator(aggregate.New(
			aggregate.WithPolicy(policy),
			aggregate.WithHalfLife(similarity.Days(cfg.AggregationHalfLifeDays)),
		)),
		WithScorer(scoring.NewWeightedScorer(
			scoring.WithWeights(weights),
			scoring.WithPayTolerance(cfg.PayTolerance),
			scoring.WithAvailabilityHalfLife(similarity.Days(cfg.AvailabilityHalfLifeDays)),
		)),
	}

	if cfg.JournalPath != "" {
		j, err := repository.OpenJournal(ctx, cfg.JournalPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithJournal(j))
	}
	return New(opts...), nil
}

func newEmbedder(ctx context.Context, cfg *config.Config) (embedding.Embedder, error) {
	switch strings.ToLower(cfg.EmbeddingProvider) {
	case config.EmbeddingHashing:
		return embedding.NewHashingEmbedder(embedding.WithDimension(cfg.EmbeddingDimension)), nil
	case config.EmbeddingGemini:
		g, err := embedding.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.EmbeddingDimension)
		if err != nil {
			return nil, err
		}
		return embedding.NewCachedEmbedder(g), nil
	default:
		return nil, fmt.Errorf("%w: %q", embedding.ErrUnknownModel, cfg.EmbeddingProvider)
	}
}

package service

import (
	"time"

	"github.com/okian/candirank/internal/adapters/repository"
	"github.com/okian/candirank/internal/domain/aggregate"
	"github.com/okian/candirank/internal/domain/embedding"
	"github.com/okian/candirank/internal/domain/scoring"
	"github.com/okian/candirank/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of evaluation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the evaluation queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many evaluation ids are remembered; 0 is unbounded.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEmbedder sets the text embedder.
func WithEmbedder(e embedding.Embedder) Option {
	return func(s *Service) {
		if e != nil {
			s.embedder = e
		}
	}
}

// WithScorer sets the scorer.
func WithScorer(sc *scoring.WeightedScorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithAggregator sets the skill aggregator.
func WithAggregator(a *aggregate.Aggregator) Option {
	return func(s *Service) {
		if a != nil {
			s.aggregator = a
		}
	}
}

// WithRanking sets the store holding per-position rankings.
func WithRanking(r repository.Ranking) Option {
	return func(s *Service) {
		if r != nil {
			s.ranking = r
		}
	}
}

// WithJournal enables persistence. The service closes the journal on Stop.
func WithJournal(j *repository.Journal) Option {
	return func(s *Service) {
		s.journal = j
	}
}

// WithClock sets the clock used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

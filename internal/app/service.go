// Package service ties the catalog, evaluation intake, scoring and rankings
// together and implements the operations exposed over HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	eventqueue "github.com/okian/candirank/internal/adapters/mq/queue"
	workerpool "github.com/okian/candirank/internal/adapters/mq/worker"
	"github.com/okian/candirank/internal/adapters/repository"
	"github.com/okian/candirank/internal/domain/aggregate"
	"github.com/okian/candirank/internal/domain/dedupe"
	"github.com/okian/candirank/internal/domain/embedding"
	"github.com/okian/candirank/internal/domain/model"
	"github.com/okian/candirank/internal/domain/scoring"
	"github.com/okian/candirank/pkg/logger"
	"github.com/okian/candirank/pkg/metrics"
)

const (
	lockStripes   = 64
	drainInterval = 5 * time.Millisecond
)

// Service owns all state of a running ranking service.
type Service struct {
	mu sync.RWMutex

	catalog    *repository.Catalog
	ranking    repository.Ranking
	journal    *repository.Journal
	deduper    dedupe.Deduper
	queue      *eventqueue.InMemoryQueue
	pool       *workerpool.Pool
	scorer     *scoring.WeightedScorer
	aggregator *aggregate.Aggregator
	embedder   embedding.Embedder

	workerCount int
	queueSize   int
	dedupeSize  int

	// locks serialise rescoring per candidate.
	locks [lockStripes]sync.Mutex
	// pending counts accepted evaluations not yet applied.
	pending atomic.Int64

	started bool
	now     func() time.Time
	logger  logger.Logger
}

// New constructs a Service. Records can be stored right away; evaluations
// are accepted only after Start.
func New(opts ...Option) *Service {
	s := &Service{
		catalog:     repository.NewCatalog(),
		ranking:     repository.NewTreapStore(),
		workerCount: runtime.NumCPU() * 2,
		queueSize:   10_000,
		dedupeSize:  50_000,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.scorer == nil {
		s.scorer = scoring.NewWeightedScorer()
	}
	if s.aggregator == nil {
		s.aggregator = aggregate.New()
	}
	if s.embedder == nil {
		s.embedder = embedding.NewHashingEmbedder()
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.queue, workerpool.ProcessorFunc(s.Process),
		workerpool.WithWorkerCount(s.workerCount),
		workerpool.WithLogger(s.logger.Named("workers")),
	)
	return s
}

// Start replays the journal, if any, and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting ranking service...")

	if s.journal != nil {
		start := time.Now()
		if err := s.replay(ctx); err != nil {
			return fmt.Errorf("replay journal: %w", err)
		}
		counts := s.catalog.Counts()
		s.logger.Info(ctx, "journal replayed",
			logger.Int("skills", counts.Skills),
			logger.Int("positions", counts.Positions),
			logger.Int("candidates", counts.Candidates),
			logger.Int("evaluations", counts.Evaluations),
			logger.Duration("took", time.Since(start)),
		)
	}

	s.pool.Start(ctx)
	s.started = true
	s.logger.Info(ctx, "ranking service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.String("embedder", s.embedder.Name()),
		logger.String("aggregation", string(s.aggregator.Policy())),
	)
	return nil
}

// Stop drains queued evaluations (bounded by ctx) and releases resources.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping ranking service...")

	err := s.pool.Shutdown(ctx)
	if s.journal != nil {
		err = errors.Join(err, s.journal.Close())
	}
	s.started = false
	s.logger.Info(ctx, "ranking service stopped")
	return err
}

// Drain blocks until every accepted evaluation has been applied or ctx ends.
func (s *Service) Drain(ctx context.Context) error {
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()
	for s.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return fmt.Errorf("drain: %w", ctx.Err())
		case <-ticker.C:
		}
	}
	return nil
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Service) lockCandidate(candidateID string) func() {
	m := &s.locks[xxhash.Sum64String(candidateID)%lockStripes]
	m.Lock()
	return m.Unlock
}

// embed embeds text, mapping text with no usable tokens to a nil vector.
func (s *Service) embed(ctx context.Context, text string) ([]float64, error) {
	start := time.Now()
	vec, err := s.embedder.Embed(ctx, text)
	latency := float64(time.Since(start).Microseconds()) / 1000
	switch {
	case errors.Is(err, embedding.ErrEmptyText):
		metrics.RecordEmbedding(s.embedder.Name(), "empty", latency)
		return nil, nil
	case err != nil:
		metrics.RecordEmbedding(s.embedder.Name(), "error", latency)
		return nil, fmt.Errorf("embed: %w", err)
	}
	metrics.RecordEmbedding(s.embedder.Name(), "ok", latency)
	return vec, nil
}

// needsEmbedding reports whether a stored vector must be recomputed for
// the current embedder. Vectors from another embedder are not comparable
// even when the dimensions agree.
func (s *Service) needsEmbedding(vec []float64, embedder string) bool {
	if vec == nil {
		return false
	}
	return embedder != s.embedder.Name() || len(vec) != s.embedder.Dimension()
}

func (s *Service) persist(ctx context.Context, kind, id string, v any) error {
	if s.journal == nil {
		return nil
	}
	if err := s.journal.SaveRecord(ctx, kind, id, v); err != nil {
		metrics.RecordJournalWrite(kind, "error")
		return err
	}
	metrics.RecordJournalWrite(kind, "ok")
	return nil
}

// Stats is a snapshot of service state for monitoring.
type Stats struct {
	Started              bool              `json:"started"`
	WorkerCount          int               `json:"worker_count"`
	QueueLength          int               `json:"queue_length"`
	QueueCapacity        int               `json:"queue_capacity"`
	Pending              int64             `json:"pending"`
	Processed            int64             `json:"processed"`
	Failed               int64             `json:"failed"`
	DedupeSize           int64             `json:"dedupe_size"`
	Records              repository.Counts `json:"records"`
	Ranked               int               `json:"ranked"`
	Embedder             string            `json:"embedder"`
	EmbeddingCacheHits   int64             `json:"embedding_cache_hits"`
	EmbeddingCacheMisses int64             `json:"embedding_cache_misses"`
	Aggregation          string            `json:"aggregation_policy"`
	Weights              scoring.Weights   `json:"weights"`
	Persistent           bool              `json:"persistent"`
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() Stats {
	processed, failed := s.pool.Stats()
	st := Stats{
		Started:       s.isStarted(),
		WorkerCount:   s.pool.Size(),
		QueueLength:   s.queue.Len(),
		QueueCapacity: s.queue.Cap(),
		Pending:       s.pending.Load(),
		Processed:     processed,
		Failed:        failed,
		DedupeSize:    s.deduper.Size(),
		Records:       s.catalog.Counts(),
		Ranked:        s.ranking.Total(),
		Embedder:      s.embedder.Name(),
		Aggregation:   string(s.aggregator.Policy()),
		Weights:       s.scorer.Weights(),
		Persistent:    s.journal != nil,
	}
	if c, ok := s.embedder.(*embedding.CachedEmbedder); ok {
		st.EmbeddingCacheHits, st.EmbeddingCacheMisses, _ = c.Stats()
	}
	return st
}

// Skills returns the skill catalog.
func (s *Service) Skills() []model.Skill {
	return s.catalog.Skills()
}

// Position returns a stored position.
func (s *Service) Position(id string) (model.Position, error) {
	rec, ok := s.catalog.Position(id)
	if !ok {
		return model.Position{}, fmt.Errorf("position %q: %w", id, ErrNotFound)
	}
	return rec.Position, nil
}

// Candidate returns a stored candidate.
func (s *Service) Candidate(id string) (model.Candidate, error) {
	rec, ok := s.catalog.Candidate(id)
	if !ok {
		return model.Candidate{}, fmt.Errorf("candidate %q: %w", id, ErrNotFound)
	}
	return rec.Candidate, nil
}

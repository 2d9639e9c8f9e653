// Package worker runs a pool of goroutines that apply queued evaluations.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/candirank/internal/domain/model"
	"github.com/okian/candirank/pkg/logger"
	"github.com/okian/candirank/pkg/metrics"
)

const defaultWorkerMultiplier = 2

// Processor applies one evaluation.
type Processor interface {
	Process(ctx context.Context, e model.Evaluation) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, e model.Evaluation) error

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, e model.Evaluation) error { return f(ctx, e) }

// Source is where workers read evaluations from. The channel is closed
// when no more evaluations will arrive.
type Source interface {
	Dequeue() <-chan model.Evaluation
}

// Pool manages a fixed set of workers reading from one source.
type Pool struct {
	source    Source
	processor Processor
	size      int
	logger    logger.Logger

	active    atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started atomic.Bool
}

// NewPool creates a worker pool. It does not start any goroutines.
func NewPool(source Source, processor Processor, opts ...Option) *Pool {
	p := &Pool{
		source:    source,
		processor: processor,
		size:      runtime.NumCPU() * defaultWorkerMultiplier,
		logger:    logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Start launches the workers. Calling Start twice is a no-op.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	metrics.UpdateWorkerCount(p.size)
	for i := range p.size {
		p.wg.Add(1)
		go p.run(ctx, p.logger.Named("worker-"+strconv.Itoa(i)))
	}
}

// run consumes until the source is closed and drained or ctx is done.
func (p *Pool) run(ctx context.Context, log logger.Logger) {
	defer p.wg.Done()
	events := p.source.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			p.process(ctx, log, e)
		}
	}
}

func (p *Pool) process(ctx context.Context, log logger.Logger, e model.Evaluation) { //nolint:gocritic // hugeParam: received by value from channel
	start := time.Now()
	metrics.UpdateWorkerActiveCount(int(p.active.Add(1)))
	defer func() {
		metrics.UpdateWorkerActiveCount(int(p.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := p.processor.Process(ctx, e); err != nil {
		p.failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "process")
		log.Error(ctx, "evaluation processing failed",
			logger.String("evaluation_id", e.ID),
			logger.String("candidate_id", e.CandidateID),
			logger.String("position_id", e.PositionID),
			logger.Error(err),
		)
		return
	}
	p.processed.Add(1)
}

// Stats returns the processed and failed counts.
func (p *Pool) Stats() (processed, failed int64) {
	return p.processed.Load(), p.failed.Load()
}

// Stop cancels the workers without draining and waits for them to exit.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// Shutdown closes the source (if it can be closed) and waits for the
// workers to drain it. If ctx expires first the workers are cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.source.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		if p.cancel != nil {
			p.cancel()
		}
		p.logger.Warn(ctx, "worker shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

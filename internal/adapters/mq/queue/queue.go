// Package queue buffers accepted evaluations between the intake and the
// worker pool. Enqueue never blocks: a full queue is reported to the caller
// as backpressure.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/candirank/internal/domain/model"
	"github.com/okian/candirank/pkg/metrics"
)

const defaultQueueCapacity = 10_000

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an evaluation. Returns ErrFull or ErrClosed when the
	// evaluation was not accepted.
	Enqueue(ctx context.Context, e model.Evaluation) error

	// Dequeue returns the channel workers consume from. It is closed once
	// the queue is closed and drained.
	Dequeue() <-chan model.Evaluation

	// Len returns the current number of queued evaluations.
	Len() int

	// Cap returns the queue capacity.
	Cap() int

	// Close stops accepting evaluations.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	events   chan model.Evaluation
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// Option configures an InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity bounds the number of buffered evaluations. Non-positive
// values keep the default.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.events = make(chan model.Evaluation, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds an evaluation to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e model.Evaluation) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		return fmt.Errorf("enqueue %s: %w", e.ID, err)
	}

	// The read lock keeps Close from closing the channel mid-send.
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}

	select {
	case q.events <- e:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.events))
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue) Dequeue() <-chan model.Evaluation {
	return q.events
}

// Len returns the current number of queued evaluations.
func (q *InMemoryQueue) Len() int {
	size := len(q.events)
	metrics.UpdateQueueSize(size)
	return size
}

// Cap returns the queue capacity.
func (q *InMemoryQueue) Cap() int {
	return q.capacity
}

// Close stops accepting evaluations. Already queued evaluations stay
// readable until drained.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.events)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

package embedding

import (
	"context"
	"crypto/sha256"
	"sync"
	"sync/atomic"
)

// CachedEmbedder memoises another embedder by the SHA-256 of the input text.
// Unchanged descriptions therefore cost one provider call per process.
type CachedEmbedder struct {
	next Embedder

	mu    sync.RWMutex
	cache map[[sha256.Size]byte][]float64

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedEmbedder wraps next with an in-memory cache.
func NewCachedEmbedder(next Embedder) *CachedEmbedder {
	return &CachedEmbedder{
		next:  next,
		cache: make(map[[sha256.Size]byte][]float64),
	}
}

// Dimension implements Embedder.
func (c *CachedEmbedder) Dimension() int { return c.next.Dimension() }

// Name implements Embedder.
func (c *CachedEmbedder) Name() string { return c.next.Name() }

// Embed implements Embedder. Returned slices are shared; callers must not
// modify them.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	key := sha256.Sum256([]byte(text))

	c.mu.RLock()
	vec, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return vec, nil
	}

	c.misses.Add(1)
	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[key] = vec
	c.mu.Unlock()
	return vec, nil
}

// Stats returns cache hits, misses and the number of cached texts.
func (c *CachedEmbedder) Stats() (hits, misses int64, size int) {
	c.mu.RLock()
	size = len(c.cache)
	c.mu.RUnlock()
	return c.hits.Load(), c.misses.Load(), size
}

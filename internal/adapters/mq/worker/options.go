package worker

import (
	"github.com/okian/candirank/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithWorkerCount sets the number of workers. Values below 1 fall back to
// the CPU-based default.
func WithWorkerCount(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.size = n
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

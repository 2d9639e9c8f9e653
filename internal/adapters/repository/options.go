package repository

import "time"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithClock sets the clock used to stamp ranking updates.
func WithClock(now func() time.Time) Option {
	return func(s *TreapStore) {
		if now != nil {
			s.now = now
		}
	}
}

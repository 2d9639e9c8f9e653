package api

type serverConfig struct {
	defaultLimit int
	maxLimit     int
}

// Option configures the API server.
type Option func(*serverConfig)

// WithRankingLimits sets the default and maximum ?limit for ranking reads.
func WithRankingLimits(def, maxLimit int) Option {
	return func(c *serverConfig) {
		if maxLimit > 0 {
			c.maxLimit = maxLimit
		}
		if def > 0 {
			c.defaultLimit = min(def, c.maxLimit)
		}
	}
}

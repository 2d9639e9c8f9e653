package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/candirank/internal/config"
	"github.com/okian/candirank/internal/domain/scoring"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.AggregationPolicy, convey.ShouldEqual, "decayed")
			convey.So(cfg.EmbeddingProvider, convey.ShouldEqual, config.EmbeddingHashing)
			convey.So(cfg.Validate(), convey.ShouldBeNil)

			w, err := cfg.Weights()
			convey.So(err, convey.ShouldBeNil)
			convey.So(w, convey.ShouldResemble, scoring.DefaultWeights())
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid configurations", t, func() {
		cases := map[string]func(c *config.Config){
			"empty addr":          func(c *config.Config) { c.Addr = "" },
			"zero queue":          func(c *config.Config) { c.QueueSize = 0 },
			"zero workers":        func(c *config.Config) { c.WorkerCount = 0 },
			"negative dedupe":     func(c *config.Config) { c.DedupeSize = -1 },
			"default over max":    func(c *config.Config) { c.DefaultRankingLimit = c.MaxRankingLimit + 1 },
			"unknown policy":      func(c *config.Config) { c.AggregationPolicy = "median" },
			"zero half-life":      func(c *config.Config) { c.AggregationHalfLifeDays = 0 },
			"zero tolerance":      func(c *config.Config) { c.PayTolerance = 0 },
			"zero availability":   func(c *config.Config) { c.AvailabilityHalfLifeDays = 0 },
			"unknown signal":      func(c *config.Config) { c.SignalWeights = map[string]float64{"age": 1} },
			"unknown provider":    func(c *config.Config) { c.EmbeddingProvider = "word2vec" },
			"gemini without key":  func(c *config.Config) { c.EmbeddingProvider = config.EmbeddingGemini },
			"zero embedding dims": func(c *config.Config) { c.EmbeddingDimension = 0 },
		}

		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			if err == nil {
				t.Errorf("%s: expected validation error", name)
			}
		}
	})
}

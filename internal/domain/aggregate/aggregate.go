// Package aggregate folds a candidate's evaluation history into per-skill
// scores. Every function here is pure: the same history yields the same
// result regardless of input order or wall-clock time.
package aggregate

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/candirank/internal/domain/model"
)

// Policy names how repeated observations of one skill are combined.
type Policy string

// Supported policies.
const (
	PolicyLatest  Policy = "latest"
	PolicyMean    Policy = "mean"
	PolicyDecayed Policy = "decayed"
)

const defaultHalfLife = 90 * 24 * time.Hour

// ErrUnknownPolicy is returned by ParsePolicy for unsupported names.
var ErrUnknownPolicy = errors.New("unknown aggregation policy")

// ParsePolicy parses a policy name (case-insensitive).
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyLatest, PolicyMean, PolicyDecayed:
		return p, nil
	case "":
		return PolicyDecayed, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// SkillScore is the aggregated score for one skill.
type SkillScore struct {
	SkillID      string    `json:"skill_id"`
	Score        float64   `json:"score"`
	Observations int       `json:"observations"`
	LastSeen     time.Time `json:"last_seen"`
}

// Aggregator combines evaluation histories using a fixed policy.
type Aggregator struct {
	policy   Policy
	halfLife time.Duration
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithPolicy sets the aggregation policy.
func WithPolicy(p Policy) Option {
	return func(a *Aggregator) {
		if p != "" {
			a.policy = p
		}
	}
}

// WithHalfLife sets the half-life used by PolicyDecayed.
func WithHalfLife(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.halfLife = d
		}
	}
}

// New creates an Aggregator. The default policy is PolicyDecayed with a
// 90 day half-life.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{policy: PolicyDecayed, halfLife: defaultHalfLife}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Policy reports the configured policy.
func (a *Aggregator) Policy() Policy { return a.policy }

type observation struct {
	evalID string
	at     time.Time
	score  float64
}

// Aggregate returns the aggregated score per skill id for the given history.
func (a *Aggregator) Aggregate(history []model.Evaluation) map[string]SkillScore {
	bySkill := make(map[string][]observation)
	var newest time.Time
	for i := range history {
		e := &history[i]
		if e.CreatedAt.After(newest) {
			newest = e.CreatedAt
		}
		for j, skill := range e.EvaluatedSkills {
			if j >= len(e.EvaluatedSkillScores) {
				break
			}
			bySkill[skill] = append(bySkill[skill], observation{
				evalID: e.ID,
				at:     e.CreatedAt,
				score:  e.EvaluatedSkillScores[j],
			})
		}
	}

	out := make(map[string]SkillScore, len(bySkill))
	for skill, obs := range bySkill {
		// Canonical order makes floating point sums independent of input order.
		sort.Slice(obs, func(i, j int) bool {
			if !obs[i].at.Equal(obs[j].at) {
				return obs[i].at.Before(obs[j].at)
			}
			return obs[i].evalID < obs[j].evalID
		})
		out[skill] = SkillScore{
			SkillID:      skill,
			Score:        a.combine(obs, newest),
			Observations: len(obs),
			LastSeen:     obs[len(obs)-1].at,
		}
	}
	return out
}

// Scores flattens an aggregation result into skill id -> score.
func Scores(in map[string]SkillScore) map[string]float64 {
	out := make(map[string]float64, len(in))
	for id, s := range in {
		out[id] = s.Score
	}
	return out
}

func (a *Aggregator) combine(obs []observation, newest time.Time) float64 {
	switch a.policy {
	case PolicyLatest:
		return obs[len(obs)-1].score
	case PolicyMean:
		return mean(obs)
	default:
		var num, den float64
		for _, o := range obs {
			age := newest.Sub(o.at).Hours()
			w := math.Exp2(-age / a.halfLife.Hours())
			num += w * o.score
			den += w
		}
		// Every weight underflowed: equally ancient observations count equally.
		if den == 0 {
			return mean(obs)
		}
		return num / den
	}
}

func mean(obs []observation) float64 {
	sum := 0.0
	for _, o := range obs {
		sum += o.score
	}
	return sum / float64(len(obs))
}

package scoring

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors for this package.
var (
	ErrInvalidWeights = errors.New("invalid weights")
	ErrMissingInput   = errors.New("missing position or candidate")
)

// Signal names, used as keys in configuration and query overrides.
const (
	SignalSkills       = "skills"
	SignalPay          = "pay"
	SignalAvailability = "availability"
	SignalDescription  = "description"
)

// Weights sets the relative importance of each signal. They need not sum
// to 1; the scorer normalises by their sum.
type Weights struct {
	Skills       float64 `json:"skills"`
	Pay          float64 `json:"pay"`
	Availability float64 `json:"availability"`
	Description  float64 `json:"description"`
}

// DefaultWeights favours evaluated skills, then description fit.
func DefaultWeights() Weights {
	return Weights{Skills: 0.5, Pay: 0.15, Availability: 0.15, Description: 0.2}
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Skills + w.Pay + w.Availability + w.Description
}

// Validate rejects negative, non-finite or all-zero weights, and weights
// whose sum overflows.
func (w Weights) Validate() error {
	for name, v := range w.Map() {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s=%v", ErrInvalidWeights, name, v)
		}
	}
	switch sum := w.Sum(); {
	case sum <= 0:
		return fmt.Errorf("%w: all weights are zero", ErrInvalidWeights)
	case math.IsInf(sum, 0):
		return fmt.Errorf("%w: weights sum overflows", ErrInvalidWeights)
	}
	return nil
}

// Map returns the weights keyed by signal name.
func (w Weights) Map() map[string]float64 {
	return map[string]float64{
		SignalSkills:       w.Skills,
		SignalPay:          w.Pay,
		SignalAvailability: w.Availability,
		SignalDescription:  w.Description,
	}
}

// Merge returns w with the named signals replaced by overrides. Unknown
// signal names are an error.
func (w Weights) Merge(overrides map[string]float64) (Weights, error) {
	for name, v := range overrides {
		switch name {
		case SignalSkills:
			w.Skills = v
		case SignalPay:
			w.Pay = v
		case SignalAvailability:
			w.Availability = v
		case SignalDescription:
			w.Description = v
		default:
			return w, fmt.Errorf("%w: unknown signal %q", ErrInvalidWeights, name)
		}
	}
	return w, w.Validate()
}

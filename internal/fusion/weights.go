package fusion

import (
	"fmt"
	"math"
)

// WeightTolerance is the allowed deviation of a WeightSet sum from 1.0.
const WeightTolerance = 1e-6

// WeightSet defines the contribution of each modality to the fused score.
// Weights must be non-negative and sum to 1.0 within WeightTolerance.
type WeightSet struct {
	Scale      float64 `json:"scale" toml:"scale"`
	Voice      float64 `json:"voice" toml:"voice"`
	Expression float64 `json:"expression" toml:"expression"`
}

// DefaultWeights returns the product weighting: questionnaire 0.5,
// voice 0.2, expression 0.3.
func DefaultWeights() WeightSet {
	return WeightSet{
		Scale:      0.5,
		Voice:      0.2,
		Expression: 0.3,
	}
}

// Sum returns the total of all weights.
func (w WeightSet) Sum() float64 {
	return w.Scale + w.Voice + w.Expression
}

// IsZero reports whether no weight has been set.
func (w WeightSet) IsZero() bool {
	return w == WeightSet{}
}

// Validate checks that weights are non-negative and sum to 1.0.
func (w WeightSet) Validate() error {
	for _, v := range []float64{w.Scale, w.Voice, w.Expression} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: negative weight %v", ErrWeightSum, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > WeightTolerance {
		return fmt.Errorf("%w: got %.6f", ErrWeightSum, sum)
	}
	return nil
}

// Package fusion combines questionnaire, voice, and facial expression
// signals into a single calibrated risk assessment.
//
// Everything in this package is pure: normalization, weighted fusion, and
// risk classification produce identical results for identical inputs and
// have no side effects. Escalation and persistence live in the escalation
// and reportsync packages.
package fusion

import "math"

// Scores holds one normalized 0-100 value per modality.
type Scores struct {
	Scale      int `json:"scale"`
	Voice      int `json:"voice"`
	Expression int `json:"expression"`
}

// Get returns the score for the given modality.
func (s Scores) Get(k Kind) int {
	switch k {
	case KindScale:
		return s.Scale
	case KindVoice:
		return s.Voice
	default:
		return s.Expression
	}
}

// Fuse applies the weighted sum over exactly three normalized scores and
// rounds to the nearest integer. Missing modalities must be substituted by
// the caller before fusing.
func Fuse(scores Scores, weights WeightSet) (int, error) {
	if err := weights.Validate(); err != nil {
		return 0, err
	}

	sum := float64(scores.Scale)*weights.Scale +
		float64(scores.Voice)*weights.Voice +
		float64(scores.Expression)*weights.Expression

	return int(math.Round(sum)), nil
}

package fusion

import (
	"time"

	"github.com/google/uuid"
)

// Readings holds the raw value of each modality as received from upstream.
type Readings struct {
	Scale      float64 `json:"scale"`
	Voice      float64 `json:"voice"`
	Expression float64 `json:"expression"`
}

// Get returns the raw reading for the given modality.
func (r Readings) Get(k Kind) float64 {
	switch k {
	case KindScale:
		return r.Scale
	case KindVoice:
		return r.Voice
	default:
		return r.Expression
	}
}

// Inputs expands the readings into one Input per modality.
func (r Readings) Inputs() []Input {
	inputs := make([]Input, 0, len(kinds))
	for _, k := range kinds {
		inputs = append(inputs, Input{Kind: k, Raw: r.Get(k)})
	}
	return inputs
}

// Report is the outcome of one assessment session. Core fields are fixed
// at computation time; advice text is attached afterwards via WithAdvice.
type Report struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Readings   Readings  `json:"readings"`
	Normalized Scores    `json:"normalized_scores"`
	FusedScore int       `json:"fused_score"`
	RiskLevel  RiskLevel `json:"risk_level"`
	Weights    WeightSet `json:"weights"`
	Advice     string    `json:"advice_text"`
	CreatedAt  time.Time `json:"created_at"`
}

// WithAdvice returns a copy of the report carrying the given advice text.
func (r Report) WithAdvice(advice string) Report {
	r.Advice = advice
	return r
}

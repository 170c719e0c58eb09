package fusion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ScoreSource supplies the raw value of a modality. Implementations wrap
// the questionnaire dialogue, speech emotion, and facial expression
// analyzers.
type ScoreSource interface {
	ModalityScore(ctx context.Context, kind Kind) (float64, error)
}

// Placeholders supplies the neutral value substituted for a modality that
// is genuinely absent upstream. The engine always fuses three terms.
type Placeholders Readings

// DefaultPlaceholders returns a neutral reading for each modality.
func DefaultPlaceholders() Placeholders {
	return Placeholders{
		Scale:      0,
		Voice:      50,
		Expression: 50,
	}
}

// Collect reads every modality from src. A modality whose read fails is
// replaced by its placeholder; the substituted kinds are returned.
func (p Placeholders) Collect(ctx context.Context, src ScoreSource) (Readings, []Kind) {
	readings := Readings(p)
	var substituted []Kind

	for _, k := range kinds {
		v, err := src.ModalityScore(ctx, k)
		if err != nil {
			substituted = append(substituted, k)
			continue
		}
		switch k {
		case KindScale:
			readings.Scale = v
		case KindVoice:
			readings.Voice = v
		case KindExpression:
			readings.Expression = v
		}
	}

	return readings, substituted
}

// Engine runs normalization, fusion, and classification with a fixed
// weight set. The zero value is not usable; construct with NewEngine.
type Engine struct {
	weights WeightSet
	now     func() time.Time
}

// NewEngine validates weights and returns an Engine.
func NewEngine(weights WeightSet) (*Engine, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		weights: weights,
		now:     time.Now,
	}, nil
}

// Weights returns the engine's weight set.
func (e *Engine) Weights() WeightSet {
	return e.weights
}

// Score normalizes and fuses the readings without building a report.
func (e *Engine) Score(readings Readings) (Scores, int, RiskLevel, error) {
	var scores Scores
	var err error

	if scores.Scale, err = Normalize(KindScale, readings.Scale); err != nil {
		return Scores{}, 0, "", err
	}
	if scores.Voice, err = Normalize(KindVoice, readings.Voice); err != nil {
		return Scores{}, 0, "", err
	}
	if scores.Expression, err = Normalize(KindExpression, readings.Expression); err != nil {
		return Scores{}, 0, "", err
	}

	fused, err := Fuse(scores, e.weights)
	if err != nil {
		return Scores{}, 0, "", err
	}

	return scores, fused, Classify(fused), nil
}

// Compute produces a completed report for the user. Any computation
// error aborts generation; a partial report is never returned.
func (e *Engine) Compute(userID uuid.UUID, readings Readings) (Report, error) {
	scores, fused, level, err := e.Score(readings)
	if err != nil {
		return Report{}, fmt.Errorf("compute report: %w", err)
	}

	return Report{
		ID:         uuid.New(),
		UserID:     userID,
		Readings:   readings,
		Normalized: scores,
		FusedScore: fused,
		RiskLevel:  level,
		Weights:    e.weights,
		CreatedAt:  e.now().UTC(),
	}, nil
}

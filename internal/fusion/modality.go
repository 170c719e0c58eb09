package fusion

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// Kind identifies one independent source of a risk signal.
type Kind string

const (
	KindScale      Kind = "scale"
	KindVoice      Kind = "voice"
	KindExpression Kind = "expression"
)

var kinds = []Kind{
	KindScale,
	KindVoice,
	KindExpression,
}

// Kinds returns the modalities in fusion order.
func Kinds() []Kind {
	return kinds
}

// Max returns the upper bound of the raw domain for the modality.
// The scale modality is a PHQ-9 total (0-27); voice and expression
// arrive already on the 0-100 risk scale.
func (k Kind) Max() float64 {
	if k == KindScale {
		return 27
	}
	return 100
}

// ParseKind validates a string as a known modality.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !slices.Contains(kinds, k) {
		return "", fmt.Errorf("%w: %q", ErrInvalidModality, s)
	}
	return k, nil
}

// UnmarshalJSON validates that the decoded string is a known modality.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseKind(raw)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Input is one modality reading for one assessment attempt.
type Input struct {
	Kind Kind    `json:"kind"`
	Raw  float64 `json:"raw_value"`
}

// Validate reports ErrInvalidModalityRange when Raw is outside the
// modality's domain. Values are never clamped.
func (in Input) Validate() error {
	if !slices.Contains(kinds, in.Kind) {
		return fmt.Errorf("%w: %q", ErrInvalidModality, in.Kind)
	}
	if math.IsNaN(in.Raw) || in.Raw < 0 || in.Raw > in.Kind.Max() {
		return fmt.Errorf(
			"%w: %s=%v not in [0, %v]",
			ErrInvalidModalityRange, in.Kind, in.Raw, in.Kind.Max(),
		)
	}
	return nil
}

// Normalize maps the input onto the common 0-100 risk scale.
func (in Input) Normalize() (int, error) {
	return Normalize(in.Kind, in.Raw)
}

// Normalize maps a raw modality value onto the common 0-100 risk scale.
//
// Voice and expression values pass through (rounded to an integer).
// PHQ-9 totals use a piecewise-linear mapping that keeps the five
// clinical bands aligned with the 20-point bands of the risk scale:
//
//	 0-4  -> raw*5
//	 5-9  -> 20 + (raw-5)*4
//	10-14 -> 40 + (raw-10)*4
//	15-19 -> 60 + (raw-15)*4
//	20-27 -> 80 + (raw-20)*2.5
func Normalize(kind Kind, raw float64) (int, error) {
	if err := (Input{Kind: kind, Raw: raw}).Validate(); err != nil {
		return 0, err
	}

	if kind != KindScale {
		return int(math.Round(raw)), nil
	}

	var v float64
	switch {
	case raw < 5:
		v = raw * 5
	case raw < 10:
		v = 20 + (raw-5)*4
	case raw < 15:
		v = 40 + (raw-10)*4
	case raw < 20:
		v = 60 + (raw-15)*4
	default:
		v = 80 + (raw-20)*2.5
	}

	return min(int(math.Round(v)), 100), nil
}

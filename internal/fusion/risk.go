package fusion

import (
	"encoding/json"
	"fmt"
	"slices"
)

// RiskLevel is the ordinal category derived from a fused score.
type RiskLevel string

const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskExtreme RiskLevel = "extreme"
)

// Inclusive lower bounds of each band above low.
const (
	MediumThreshold  = 40
	HighThreshold    = 60
	ExtremeThreshold = 80
)

var riskLevels = []RiskLevel{
	RiskLow,
	RiskMedium,
	RiskHigh,
	RiskExtreme,
}

// RiskLevels returns all levels in ascending order.
func RiskLevels() []RiskLevel {
	return riskLevels
}

// ParseRiskLevel validates a string as a known risk level.
func ParseRiskLevel(s string) (RiskLevel, error) {
	v := RiskLevel(s)
	if !slices.Contains(riskLevels, v) {
		return "", fmt.Errorf("unknown risk level %q", s)
	}
	return v, nil
}

// UnmarshalJSON validates that the decoded string is a known risk level.
func (r *RiskLevel) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseRiskLevel(raw)
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Classify maps a fused score to its risk level. Boundary values belong
// to the higher band: 39 is low, 40 medium, 60 high, 80 extreme.
func Classify(score int) RiskLevel {
	switch {
	case score >= ExtremeThreshold:
		return RiskExtreme
	case score >= HighThreshold:
		return RiskHigh
	case score >= MediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

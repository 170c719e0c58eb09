package reportsync

import (
	"time"

	"github.com/google/uuid"

	"github.com/wyxpro/mindcare/internal/fusion"
)

// ModalityData is the per-modality raw and normalized value carried in
// the persisted report details.
type ModalityData struct {
	Raw        float64 `json:"raw"`
	Normalized int     `json:"normalized"`
}

// Details is the nested report document stored alongside an assessment.
type Details struct {
	ReportID         uuid.UUID     `json:"reportId"`
	ScaleRaw         float64       `json:"scaleRaw"`
	NormalizedScores fusion.Scores `json:"normalizedScores"`
	ScaleData        ModalityData  `json:"scaleData"`
	VoiceData        ModalityData  `json:"voiceData"`
	ExpressionData   ModalityData  `json:"expressionData"`
	Advice           string        `json:"advice"`
	GeneratedAt      time.Time     `json:"generatedAt"`
}

// Submission is the body sent to the persistence collaborator.
type Submission struct {
	UserID        uuid.UUID        `json:"user_id"`
	Score         int              `json:"score"`
	RiskLevel     fusion.RiskLevel `json:"risk_level"`
	ReportDetails Details          `json:"report_details"`
	Weights       fusion.WeightSet `json:"weights"`
}

// NewSubmission builds the persistence payload for a report.
func NewSubmission(r fusion.Report, weights fusion.WeightSet) Submission {
	return Submission{
		UserID:    r.UserID,
		Score:     r.FusedScore,
		RiskLevel: r.RiskLevel,
		ReportDetails: Details{
			ReportID:         r.ID,
			ScaleRaw:         r.Readings.Scale,
			NormalizedScores: r.Normalized,
			ScaleData:        ModalityData{Raw: r.Readings.Scale, Normalized: r.Normalized.Scale},
			VoiceData:        ModalityData{Raw: r.Readings.Voice, Normalized: r.Normalized.Voice},
			ExpressionData:   ModalityData{Raw: r.Readings.Expression, Normalized: r.Normalized.Expression},
			Advice:           r.Advice,
			GeneratedAt:      r.CreatedAt,
		},
		Weights: weights,
	}
}

// Report rebuilds a fusion report from a persisted submission.
func (s Submission) Report() fusion.Report {
	d := s.ReportDetails
	return fusion.Report{
		ID:     d.ReportID,
		UserID: s.UserID,
		Readings: fusion.Readings{
			Scale:      d.ScaleData.Raw,
			Voice:      d.VoiceData.Raw,
			Expression: d.ExpressionData.Raw,
		},
		Normalized: d.NormalizedScores,
		FusedScore: s.Score,
		RiskLevel:  s.RiskLevel,
		Weights:    s.Weights,
		Advice:     d.Advice,
		CreatedAt:  d.GeneratedAt,
	}
}

// Package assessments stores completed fusion reports. It backs report
// sync and the per-user history, and archives each report document to
// blob storage when storage is configured.
package assessments

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wyxpro/mindcare/internal/fusion"
	"github.com/wyxpro/mindcare/internal/reportsync"
)

// Assessment is a persisted fusion report.
type Assessment struct {
	ID            uuid.UUID          `json:"id"`
	UserID        uuid.UUID          `json:"user_id"`
	ReportID      uuid.UUID          `json:"report_id"`
	Score         int                `json:"score"`
	RiskLevel     fusion.RiskLevel   `json:"risk_level"`
	ReportDetails reportsync.Details `json:"report_details"`
	Weights       fusion.WeightSet   `json:"weights"`
	ArchiveKey    *string            `json:"archive_key"`
	CreatedAt     time.Time          `json:"created_at"`
}

// Submission returns the assessment in the sync payload form.
func (a Assessment) Submission() reportsync.Submission {
	return reportsync.Submission{
		UserID:        a.UserID,
		Score:         a.Score,
		RiskLevel:     a.RiskLevel,
		ReportDetails: a.ReportDetails,
		Weights:       a.Weights,
	}
}

// Report rebuilds the fusion report the assessment was created from.
func (a Assessment) Report() fusion.Report {
	return a.Submission().Report()
}

// Validate checks a submission before it is stored. The score and risk
// level must agree with each other; the weights are stored as given.
func Validate(sub reportsync.Submission) error {
	if sub.UserID == uuid.Nil {
		return fmt.Errorf("%w: user_id required", ErrInvalidAssessment)
	}
	if sub.ReportDetails.ReportID == uuid.Nil {
		return fmt.Errorf("%w: report_details.reportId required", ErrInvalidAssessment)
	}
	if sub.Score < 0 || sub.Score > 100 {
		return fmt.Errorf("%w: score %d outside 0-100", ErrInvalidAssessment, sub.Score)
	}
	if _, err := fusion.ParseRiskLevel(string(sub.RiskLevel)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAssessment, err)
	}
	if want := fusion.Classify(sub.Score); want != sub.RiskLevel {
		return fmt.Errorf("%w: risk_level %s does not match score %d (%s)",
			ErrInvalidAssessment, sub.RiskLevel, sub.Score, want)
	}
	return nil
}

func archiveKey(userID, id uuid.UUID) string {
	return fmt.Sprintf("assessments/%s/%s.json", userID, id)
}

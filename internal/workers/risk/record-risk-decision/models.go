// internal/workers/risk/record-risk-decision/models.go
package recordriskdecision

import (
	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/risk"
)

type Input struct {
	ApplicantID    string                `json:"applicantId"`
	Assessment     risk.RiskAssessment   `json:"assessment"`
	FinalDecision  risk.Decision         `json:"finalDecision,omitempty"`
	DecisionSource models.DecisionSource `json:"decisionSource,omitempty"`
}

type Output struct {
	AssessmentRecordID string        `json:"assessmentRecordId"`
	FinalDecision      risk.Decision `json:"finalDecision"`
	Indexed            bool          `json:"indexed"`
	Published          bool          `json:"published"`
	EventID            string        `json:"eventId,omitempty"`
	MessageID          string        `json:"messageId,omitempty"`
}

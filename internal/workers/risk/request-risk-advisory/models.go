// internal/workers/risk/request-risk-advisory/models.go
package requestriskadvisory

import (
	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/risk"
)

type Input struct {
	ApplicantID string              `json:"applicantId"`
	Assessment  risk.RiskAssessment `json:"assessment"`
}

type Output struct {
	FinalDecision  risk.Decision         `json:"finalDecision"`
	DecisionSource models.DecisionSource `json:"decisionSource"`
	LocalDecision  risk.Decision         `json:"localDecision"`
	Narrative      string                `json:"narrative,omitempty"`
	AdvisorModel   string                `json:"advisorModel,omitempty"`
	AdvisorRisk    *float64              `json:"advisorRisk,omitempty"`
	AdvisorError   string                `json:"advisorError,omitempty"`
}

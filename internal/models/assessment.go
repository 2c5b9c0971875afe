// internal/models/assessment.go
package models

import (
	"time"

	"credit-risk-workers/internal/risk"

	"github.com/google/uuid"
)

// DecisionSource says who produced the final decision.
type DecisionSource string

const (
	DecisionSourceLocal   DecisionSource = "local"
	DecisionSourceAdvisor DecisionSource = "advisor"
)

func (s DecisionSource) Valid() bool {
	return s == DecisionSourceLocal || s == DecisionSourceAdvisor
}

// AssessmentRecord is what gets persisted and indexed once a decision is final.
type AssessmentRecord struct {
	ID             string              `json:"id"`
	ApplicantID    string              `json:"applicantId"`
	Decision       risk.Decision       `json:"decision"`
	LocalDecision  risk.Decision       `json:"localDecision"`
	DecisionSource DecisionSource      `json:"decisionSource"`
	PredictedRisk  float64             `json:"predictedRisk"`
	Reasons        []risk.ReasonCode   `json:"reasons"`
	Assessment     risk.RiskAssessment `json:"assessment"`
	CreatedAt      time.Time           `json:"createdAt"`
}

func NewAssessmentRecord(applicantID string, a risk.RiskAssessment, final risk.Decision, source DecisionSource, now time.Time) AssessmentRecord {
	if final == "" {
		final = a.Decision
	}
	if applicantID == "" {
		applicantID = a.ApplicantID
	}
	return AssessmentRecord{
		ID:             uuid.NewString(),
		ApplicantID:    applicantID,
		Decision:       final,
		LocalDecision:  a.Decision,
		DecisionSource: source,
		PredictedRisk:  a.PredictedRisk,
		Reasons:        a.DecisionReasons,
		Assessment:     a,
		CreatedAt:      now.UTC(),
	}
}

// Overridden reports whether the advisor changed the local decision.
func (r AssessmentRecord) Overridden() bool {
	return r.Decision != r.LocalDecision
}

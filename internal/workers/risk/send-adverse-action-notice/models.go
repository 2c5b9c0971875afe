// internal/workers/risk/send-adverse-action-notice/models.go
package sendadverseactionnotice

import "credit-risk-workers/internal/risk"

type Input struct {
	ApplicantID   string              `json:"applicantId"`
	Email         string              `json:"email"`
	Assessment    risk.RiskAssessment `json:"assessment"`
	FinalDecision risk.Decision       `json:"finalDecision,omitempty"`
}

type Output struct {
	NoticeSent    bool          `json:"noticeSent"`
	Decision      risk.Decision `json:"decision"`
	MessageID     string        `json:"messageId,omitempty"`
	SkippedReason string        `json:"skippedReason,omitempty"`
}

const (
	SkipNotAdverse = "DECISION_NOT_ADVERSE"
	SkipDisabled   = "NOTICES_DISABLED"
)

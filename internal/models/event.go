// internal/models/event.go
package models

import (
	"time"

	"credit-risk-workers/internal/risk"

	"github.com/google/uuid"
)

const EventTypeDecisionRecorded = "risk.decision.recorded"

// DecisionEvent is published after an assessment record is stored. It
// carries the decision and its reasons, not the full feature vector.
type DecisionEvent struct {
	EventID            string             `json:"eventId"`
	EventType          string             `json:"eventType"`
	AssessmentRecordID string             `json:"assessmentRecordId"`
	ApplicantID        string             `json:"applicantId"`
	Decision           risk.Decision      `json:"decision"`
	DecisionSource     DecisionSource     `json:"decisionSource"`
	PredictedRisk      float64            `json:"predictedRisk"`
	Reasons            []risk.ReasonCode  `json:"reasons"`
	TopRiskIncreasing  []risk.FeatureName `json:"topRiskIncreasing"`
	OccurredAt         time.Time          `json:"occurredAt"`
}

func NewDecisionEvent(r AssessmentRecord, now time.Time) DecisionEvent {
	return DecisionEvent{
		EventID:            uuid.NewString(),
		EventType:          EventTypeDecisionRecorded,
		AssessmentRecordID: r.ID,
		ApplicantID:        r.ApplicantID,
		Decision:           r.Decision,
		DecisionSource:     r.DecisionSource,
		PredictedRisk:      r.PredictedRisk,
		Reasons:            r.Reasons,
		TopRiskIncreasing:  r.Assessment.Summary.TopRiskIncreasing,
		OccurredAt:         now.UTC(),
	}
}

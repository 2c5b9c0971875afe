// internal/workers/risk/simulate-applicant-risk/models.go
package simulateapplicantrisk

import (
	"credit-risk-workers/internal/risk"
	"credit-risk-workers/internal/workers/risk/runner"
)

type Input struct {
	runner.ProfileInput
	Overrides risk.ProfileOverrides `json:"overrides"`
}

type Output struct {
	Assessment       risk.RiskAssessment `json:"assessment"`
	Decision         risk.Decision       `json:"decision"`
	PredictedRisk    float64             `json:"predictedRisk"`
	BaselineDecision risk.Decision       `json:"baselineDecision"`
	BaselineRisk     float64             `json:"baselineRisk"`
	RiskDelta        float64             `json:"riskDelta"`
	DecisionChanged  bool                `json:"decisionChanged"`
}

// internal/workers/risk/generate-counterfactuals/models.go
package generatecounterfactuals

import (
	"credit-risk-workers/internal/risk"
	"credit-risk-workers/internal/workers/risk/runner"
)

type Input struct {
	runner.ProfileInput
}

type Output struct {
	ApplicantID      string                        `json:"applicantId"`
	BaselineDecision risk.Decision                 `json:"baselineDecision"`
	BaselineRisk     float64                       `json:"baselineRisk"`
	Scenarios        []risk.CounterfactualScenario `json:"scenarios"`
	DecisionFlips    int                           `json:"decisionFlips"`
}

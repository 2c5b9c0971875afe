// internal/workers/risk/assess-applicant-risk/models.go
package assessapplicantrisk

import (
	"credit-risk-workers/internal/risk"
	"credit-risk-workers/internal/workers/risk/runner"
)

type Input struct {
	runner.ProfileInput
}

type Output struct {
	Assessment        risk.RiskAssessment `json:"assessment"`
	Decision          risk.Decision       `json:"decision"`
	PredictedRisk     float64             `json:"predictedRisk"`
	DecisionReasons   []risk.ReasonCode   `json:"decisionReasons"`
	TopRiskIncreasing []risk.FeatureName  `json:"topRiskIncreasing"`
}

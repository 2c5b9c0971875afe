package api

import "credit-risk-workers/internal/risk"

// ProfileRequest names an applicant to look up or carries the profile inline.
type ProfileRequest struct {
	ApplicantID string                 `json:"applicantId" validate:"required_without=Profile,max=128"`
	Profile     *risk.ApplicantProfile `json:"profile" validate:"required_without=ApplicantID"`
}

type SimulateRequest struct {
	ProfileRequest
	Overrides risk.ProfileOverrides `json:"overrides"`
}

type SimulateResponse struct {
	Baseline        risk.RiskAssessment `json:"baseline"`
	Simulated       risk.RiskAssessment `json:"simulated"`
	RiskDelta       float64             `json:"riskDelta"`
	DecisionChanged bool                `json:"decisionChanged"`
}

type CounterfactualsResponse struct {
	ApplicantID      string                        `json:"applicantId,omitempty"`
	BaselineDecision risk.Decision                 `json:"baselineDecision"`
	BaselineRisk     float64                       `json:"baselineRisk"`
	Scenarios        []risk.CounterfactualScenario `json:"scenarios"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Package risk scores loan applicants with an additive, auditable contribution
// model, a threshold decision policy and a counterfactual search.
//
// Every exported Engine method is a pure function of its arguments and the
// configuration captured by NewEngine; an Engine is safe for concurrent use.
package risk

import (
	"fmt"
)

// RiskAssessment is the complete result of one assessment.
// BaseValue plus the sum of Contributions equals RawRisk; PredictedRisk is RawRisk clamped to [0,100].
type RiskAssessment struct {
	ApplicantID     string         `json:"applicantId,omitempty" yaml:"applicantId,omitempty"`
	BaseValue       float64        `json:"baseValue" yaml:"baseValue"`
	Features        FeatureVector  `json:"features" yaml:"features"`
	Contributions   []Contribution `json:"contributions" yaml:"contributions"`
	RawRisk         float64        `json:"rawRisk" yaml:"rawRisk"`
	PredictedRisk   float64        `json:"predictedRisk" yaml:"predictedRisk"`
	Decision        Decision       `json:"decision" yaml:"decision"`
	DecisionReasons []ReasonCode   `json:"decisionReasons" yaml:"decisionReasons"`
	PrimaryFactors  []RankedFactor `json:"primaryFactors" yaml:"primaryFactors"`
	Summary         FactorSummary  `json:"summary" yaml:"summary"`
	Signals         []Signal       `json:"signals" yaml:"signals"`
}

type Engine struct {
	cfg    Config
	curves map[FeatureName]ResponseCurve
	floors []compiledFloor
}

// NewEngine validates cfg and compiles its rules. It is the only place a
// configuration problem can surface.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid risk configuration: %w", err)
	}
	floors, err := compileFloors(cfg.Policy.AdditionalFloors)
	if err != nil {
		return nil, fmt.Errorf("invalid risk configuration: %w", err)
	}

	cfg = cfg.Clone()
	return &Engine{
		cfg:    cfg,
		curves: cfg.Curves.byFeature(),
		floors: floors,
	}, nil
}

// MustNewEngine is NewEngine for configurations known to be valid, such as DefaultConfig.
func MustNewEngine(cfg Config) *Engine {
	e, err := NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	return e
}

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg.Clone()
}

// Assess runs extract, attribute, decide and explain as one computation.
func (e *Engine) Assess(p ApplicantProfile) RiskAssessment {
	fv := Extract(p)
	contributions := e.Attribute(fv)
	raw := e.RawRisk(contributions)
	predicted := clampRisk(raw)
	outcome := e.Evaluate(fv, predicted)
	ranked := e.Explain(contributions)

	return RiskAssessment{
		ApplicantID:     p.ApplicantID,
		BaseValue:       e.cfg.BaseValue,
		Features:        fv,
		Contributions:   contributions,
		RawRisk:         raw,
		PredictedRisk:   predicted,
		Decision:        outcome.Decision,
		DecisionReasons: outcome.Reasons,
		PrimaryFactors:  ranked,
		Summary:         e.Summarize(ranked),
		Signals:         e.signals(p, fv),
	}
}

// Simulate assesses a modified copy of p; p itself is never changed.
func (e *Engine) Simulate(p ApplicantProfile, overrides ProfileOverrides) RiskAssessment {
	return e.Assess(overrides.Apply(p))
}

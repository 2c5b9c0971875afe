package risk

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// PerturbationKind selects how a single profile dimension is changed.
type PerturbationKind string

const (
	// KindCreditScoreDelta adds Value points, capped at MaxCreditScore.
	KindCreditScoreDelta PerturbationKind = "credit_score_delta"
	// KindEMIScale multiplies every obligation's EMI by Value (< 1).
	KindEMIScale PerturbationKind = "emi_scale"
	// KindPaymentRatioTarget raises the on-time payment ratio to Value.
	KindPaymentRatioTarget PerturbationKind = "payment_ratio_target"
	// KindIncomeScale multiplies monthly income by Value (> 1).
	KindIncomeScale PerturbationKind = "income_scale"
	// KindUtilizationTarget lowers every card's utilization to Value.
	KindUtilizationTarget PerturbationKind = "utilization_target"
)

// Profile fields reported as the perturbed feature.
const (
	FieldCreditScore        = "creditScore"
	FieldTotalEMI           = "totalEmi"
	FieldOnTimePaymentRatio = "onTimePaymentRatio"
	FieldMonthlyIncome      = "monthlyIncome"
	FieldCreditUtilization  = "creditUtilization"
)

const (
	DefaultCreditScoreDelta   = 50.0
	DefaultEMIScale           = 0.9
	DefaultPaymentRatioTarget = 1.0
	DefaultIncomeScale        = 1.2
)

type PerturbationSpec struct {
	Name  string           `mapstructure:"name" yaml:"name" json:"name"`
	Kind  PerturbationKind `mapstructure:"kind" yaml:"kind" json:"kind"`
	Value float64          `mapstructure:"value" yaml:"value" json:"value"`
}

// DefaultPerturbations is the standard single-dimension search set, in reporting order.
func DefaultPerturbations() []PerturbationSpec {
	return []PerturbationSpec{
		{Name: "raise_credit_score", Kind: KindCreditScoreDelta, Value: DefaultCreditScoreDelta},
		{Name: "reduce_emi", Kind: KindEMIScale, Value: DefaultEMIScale},
		{Name: "perfect_payment_history", Kind: KindPaymentRatioTarget, Value: DefaultPaymentRatioTarget},
		{Name: "increase_income", Kind: KindIncomeScale, Value: DefaultIncomeScale},
	}
}

func (s PerturbationSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !isFinite(s.Value) {
		return fmt.Errorf("%s: value must be finite", s.Name)
	}
	switch s.Kind {
	case KindCreditScoreDelta:
		if s.Value <= 0 {
			return fmt.Errorf("%s: credit score delta %g must be positive", s.Name, s.Value)
		}
	case KindEMIScale:
		if s.Value <= 0 || s.Value >= 1 {
			return fmt.Errorf("%s: emi scale %g must be in (0,1)", s.Name, s.Value)
		}
	case KindPaymentRatioTarget:
		if s.Value <= 0 || s.Value > 1 {
			return fmt.Errorf("%s: payment ratio target %g must be in (0,1]", s.Name, s.Value)
		}
	case KindIncomeScale:
		if s.Value <= 1 {
			return fmt.Errorf("%s: income scale %g must be greater than 1", s.Name, s.Value)
		}
	case KindUtilizationTarget:
		if s.Value < 0 || s.Value >= 1 {
			return fmt.Errorf("%s: utilization target %g must be in [0,1)", s.Name, s.Value)
		}
	default:
		return fmt.Errorf("%s: unknown kind %q", s.Name, s.Kind)
	}
	return nil
}

// CounterfactualScenario is one "what would have to change" answer.
type CounterfactualScenario struct {
	Description      string   `json:"description" yaml:"description"`
	Kind             string   `json:"kind" yaml:"kind"`
	PerturbedFeature string   `json:"perturbedFeature" yaml:"perturbedFeature"`
	OldValue         float64  `json:"oldValue" yaml:"oldValue"`
	NewValue         float64  `json:"newValue" yaml:"newValue"`
	OldRisk          float64  `json:"oldRisk" yaml:"oldRisk"`
	NewRisk          float64  `json:"newRisk" yaml:"newRisk"`
	RiskDelta        float64  `json:"riskDelta" yaml:"riskDelta"`
	OldDecision      Decision `json:"oldDecision" yaml:"oldDecision"`
	NewDecision      Decision `json:"newDecision" yaml:"newDecision"`
	DecisionChanged  bool     `json:"decisionChanged" yaml:"decisionChanged"`
}

type perturbed struct {
	profile  ApplicantProfile
	feature  string
	oldValue float64
	newValue float64
}

// perturb applies s to a copy of p. It reports false when the change is infeasible.
func (s PerturbationSpec) perturb(p ApplicantProfile) (perturbed, bool) {
	out := p.Clone()
	switch s.Kind {
	case KindCreditScoreDelta:
		current := clampInt(p.CreditScore, MinCreditScore, MaxCreditScore)
		if current >= MaxCreditScore {
			return perturbed{}, false
		}
		next := min(current+int(math.Round(s.Value)), MaxCreditScore)
		out.CreditScore = next
		return perturbed{out, FieldCreditScore, float64(current), float64(next)}, true

	case KindEMIScale:
		current := p.TotalEMI()
		if !current.IsPositive() {
			return perturbed{}, false
		}
		out.ActiveLoans = scaleObligations(out.ActiveLoans, decimal.NewFromFloat(s.Value))
		return perturbed{out, FieldTotalEMI, current.InexactFloat64(), out.TotalEMI().InexactFloat64()}, true

	case KindPaymentRatioTarget:
		current := clampRatio(p.OnTimePaymentRatio)
		if current >= s.Value {
			return perturbed{}, false
		}
		out.OnTimePaymentRatio = s.Value
		return perturbed{out, FieldOnTimePaymentRatio, current, s.Value}, true

	case KindIncomeScale:
		current := nonNegative(p.MonthlyIncome)
		if !current.IsPositive() {
			return perturbed{}, false
		}
		out.MonthlyIncome = current.Mul(decimal.NewFromFloat(s.Value))
		return perturbed{out, FieldMonthlyIncome, current.InexactFloat64(), out.MonthlyIncome.InexactFloat64()}, true

	case KindUtilizationTarget:
		current := weightedUtilization(p.CreditCards)
		if current <= s.Value {
			return perturbed{}, false
		}
		for i := range out.CreditCards {
			if out.CreditCards[i].UtilizationRatio > s.Value {
				out.CreditCards[i].UtilizationRatio = s.Value
			}
		}
		return perturbed{out, FieldCreditUtilization, current, weightedUtilization(out.CreditCards)}, true
	}
	return perturbed{}, false
}

// Counterfactuals assesses p and searches the configured perturbation set.
func (e *Engine) Counterfactuals(p ApplicantProfile) []CounterfactualScenario {
	return e.CounterfactualsFrom(p, e.Assess(p))
}

// CounterfactualsFrom searches from an existing baseline assessment of p.
// Perturbations run concurrently; results keep the configured order and
// only feasible scenarios that move risk by more than MinRiskDelta are kept.
func (e *Engine) CounterfactualsFrom(p ApplicantProfile, baseline RiskAssessment) []CounterfactualScenario {
	specs := e.cfg.Counterfactuals.Perturbations
	results := make([]*CounterfactualScenario, len(specs))

	var g errgroup.Group
	for i, spec := range specs {
		g.Go(func() error {
			results[i] = e.runPerturbation(p, baseline, spec)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]CounterfactualScenario, 0, len(specs))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func (e *Engine) runPerturbation(p ApplicantProfile, baseline RiskAssessment, spec PerturbationSpec) *CounterfactualScenario {
	pt, ok := spec.perturb(p)
	if !ok {
		return nil
	}

	fv := Extract(pt.profile)
	newRisk := clampRisk(e.RawRisk(e.Attribute(fv)))
	delta := newRisk - baseline.PredictedRisk
	if math.Abs(delta) <= e.cfg.Counterfactuals.MinRiskDelta {
		return nil
	}

	newDecision := e.Decide(fv, newRisk)
	return &CounterfactualScenario{
		Description:      spec.Name,
		Kind:             string(spec.Kind),
		PerturbedFeature: pt.feature,
		OldValue:         pt.oldValue,
		NewValue:         pt.newValue,
		OldRisk:          baseline.PredictedRisk,
		NewRisk:          newRisk,
		RiskDelta:        delta,
		OldDecision:      baseline.Decision,
		NewDecision:      newDecision,
		DecisionChanged:  newDecision != baseline.Decision,
	}
}

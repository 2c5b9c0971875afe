package risk

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
)

type Decision string

const (
	DecisionApprove            Decision = "APPROVE"
	DecisionConditionalApprove Decision = "CONDITIONAL_APPROVE"
	DecisionReject             Decision = "REJECT"
	DecisionManualReview       Decision = "MANUAL_REVIEW"
)

func (d Decision) Valid() bool {
	switch d {
	case DecisionApprove, DecisionConditionalApprove, DecisionReject, DecisionManualReview:
		return true
	}
	return false
}

// ReasonCode explains which rule produced a decision.
type ReasonCode string

const (
	ReasonCreditScoreBelowFloor    ReasonCode = "CREDIT_SCORE_BELOW_FLOOR"
	ReasonDTIAboveCeiling          ReasonCode = "DTI_ABOVE_CEILING"
	ReasonPaymentHistoryBelowFloor ReasonCode = "PAYMENT_HISTORY_BELOW_FLOOR"
	ReasonMeetsApproval            ReasonCode = "MEETS_APPROVAL_CRITERIA"
	ReasonMeetsConditional         ReasonCode = "MEETS_CONDITIONAL_CRITERIA"
	ReasonCreditScoreBelowReview   ReasonCode = "CREDIT_SCORE_BELOW_REVIEW_THRESHOLD"
	ReasonMixedSignals             ReasonCode = "MIXED_SIGNALS"

	floorReasonPrefix = "RULE:"
)

// PolicyOutcome is a decision together with every rule that fired.
type PolicyOutcome struct {
	Decision Decision     `json:"decision" yaml:"decision"`
	Reasons  []ReasonCode `json:"reasons" yaml:"reasons"`
}

// CEL variables available to additional floor rules.
const (
	celCreditScore       = "creditScore"
	celDTIRatio          = "dtiRatio"
	celPaymentHistory    = "paymentHistory"
	celCreditUtilization = "creditUtilization"
	celEmploymentType    = "employmentType"
	celTotalAssets       = "totalAssets"
	celCreditAgeMonths   = "creditAgeMonths"
	celInquiries         = "inquiries"
	celPredictedRisk     = "predictedRisk"

	celCostLimit = 100000
)

type compiledFloor struct {
	name    string
	program cel.Program
}

func newFloorEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable(celCreditScore, cel.IntType),
		cel.Variable(celDTIRatio, cel.DoubleType),
		cel.Variable(celPaymentHistory, cel.DoubleType),
		cel.Variable(celCreditUtilization, cel.DoubleType),
		cel.Variable(celEmploymentType, cel.StringType),
		cel.Variable(celTotalAssets, cel.DoubleType),
		cel.Variable(celCreditAgeMonths, cel.IntType),
		cel.Variable(celInquiries, cel.IntType),
		cel.Variable(celPredictedRisk, cel.DoubleType),
	)
}

// compileFloors type-checks every rule up front; a rule that does not
// produce a bool is a configuration error.
func compileFloors(rules []FloorRule) ([]compiledFloor, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	env, err := newFloorEnv()
	if err != nil {
		return nil, fmt.Errorf("create rule environment: %w", err)
	}

	var errs []error
	out := make([]compiledFloor, 0, len(rules))
	for _, r := range rules {
		ast, issues := env.Compile(r.Expression)
		if issues != nil && issues.Err() != nil {
			errs = append(errs, fmt.Errorf("policy.additional_floors %q: %w", r.Name, issues.Err()))
			continue
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			errs = append(errs, fmt.Errorf("policy.additional_floors %q: expression yields %s, want bool", r.Name, ast.OutputType()))
			continue
		}
		prg, err := env.Program(ast, cel.CostLimit(celCostLimit))
		if err != nil {
			errs = append(errs, fmt.Errorf("policy.additional_floors %q: %w", r.Name, err))
			continue
		}
		out = append(out, compiledFloor{name: r.Name, program: prg})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

func floorFacts(fv FeatureVector, predictedRisk float64) map[string]any {
	return map[string]any{
		celCreditScore:       int64(fv.CreditScore),
		celDTIRatio:          fv.DTIRatio,
		celPaymentHistory:    fv.PaymentHistory,
		celCreditUtilization: fv.CreditUtilization,
		celEmploymentType:    string(fv.EmploymentType),
		celTotalAssets:       fv.TotalAssets,
		celCreditAgeMonths:   int64(fv.CreditAgeMonths),
		celInquiries:         int64(fv.Inquiries),
		celPredictedRisk:     predictedRisk,
	}
}

// Decide classifies an applicant. Hard floors are checked first and
// short-circuit the aggregate score. Applicants that miss both approval
// bands are rejected below RejectBelowScore and reviewed otherwise.
func (e *Engine) Decide(fv FeatureVector, predictedRisk float64) Decision {
	return e.Evaluate(fv, predictedRisk).Decision
}

// Evaluate is Decide plus the reason codes behind the decision.
func (e *Engine) Evaluate(fv FeatureVector, predictedRisk float64) PolicyOutcome {
	p := e.cfg.Policy

	var floors []ReasonCode
	if fv.CreditScore < p.CreditScoreFloor {
		floors = append(floors, ReasonCreditScoreBelowFloor)
	}
	if fv.DTIRatio > p.DTICeiling {
		floors = append(floors, ReasonDTIAboveCeiling)
	}
	if fv.PaymentHistory < p.PaymentHistoryFloor {
		floors = append(floors, ReasonPaymentHistoryBelowFloor)
	}
	if len(e.floors) > 0 {
		facts := floorFacts(fv, predictedRisk)
		for _, f := range e.floors {
			if triggered(f.program, facts) {
				floors = append(floors, ReasonCode(floorReasonPrefix+f.name))
			}
		}
	}
	if len(floors) > 0 {
		return PolicyOutcome{Decision: DecisionReject, Reasons: floors}
	}

	a := p.Approve
	if fv.CreditScore >= a.MinCreditScore &&
		fv.DTIRatio <= a.MaxDTIRatio &&
		fv.PaymentHistory >= a.MinPaymentHistory &&
		predictedRisk <= a.MaxPredictedRisk {
		return PolicyOutcome{Decision: DecisionApprove, Reasons: []ReasonCode{ReasonMeetsApproval}}
	}

	c := p.Conditional
	if fv.CreditScore >= c.MinCreditScore && fv.CreditScore < c.CreditScoreBelow &&
		fv.DTIRatio <= c.MaxDTIRatio &&
		fv.PaymentHistory > c.PaymentHistoryAbove {
		return PolicyOutcome{Decision: DecisionConditionalApprove, Reasons: []ReasonCode{ReasonMeetsConditional}}
	}

	if fv.CreditScore < p.RejectBelowScore {
		return PolicyOutcome{Decision: DecisionReject, Reasons: []ReasonCode{ReasonCreditScoreBelowReview}}
	}

	return PolicyOutcome{Decision: DecisionManualReview, Reasons: []ReasonCode{ReasonMixedSignals}}
}

// triggered treats evaluation errors and non-bool results as "not triggered".
func triggered(prg cel.Program, facts map[string]any) bool {
	out, _, err := prg.Eval(facts)
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

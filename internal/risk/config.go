package risk

import (
	"errors"
	"fmt"
	"math"
)

// Default response-curve constants. These are a tunable starting point, not a fitted model.
const (
	DefaultBaseValue = 50.0

	CreditScoreBaseline        = 650.0
	CreditScoreSubprimeFrom    = 300.0
	CreditScoreSubprimeSlope   = -0.15
	CreditScoreSubprimeOffset  = 5.0
	CreditScoreNearPrimeFrom   = 600.0
	CreditScoreNearPrimeSlope  = -0.12
	CreditScorePrimeFrom       = 650.0
	CreditScorePrimeSlope      = -0.08
	CreditScoreSuperPrimeFrom  = 750.0
	CreditScoreSuperPrimeSlope = -0.10
	CreditScoreSuperPrimeShift = -5.0

	DTIBaseline       = 0.35
	DTILowSlope       = 15.0
	DTILowOffset      = -3.0
	DTIModerateFrom   = 0.20
	DTIModerateSlope  = 20.0
	DTIHighFrom       = 0.40
	DTIHighSlope      = 30.0
	DTIExcessiveFrom  = 0.60
	DTIExcessiveSlope = 40.0
	DTIExcessiveShift = 15.0

	PaymentHistoryBaseline = 0.85
	PaymentPoorSlope       = -10.0
	PaymentPoorOffset      = 8.0
	PaymentFairFrom        = 0.75
	PaymentFairSlope       = -15.0
	PaymentFairOffset      = 3.0
	PaymentGoodFrom        = 0.85
	PaymentGoodSlope       = -20.0
	PaymentExcellentFrom   = 0.95
	PaymentExcellentSlope  = -25.0
	PaymentExcellentShift  = -5.0

	UtilizationBaseline      = 0.30
	UtilizationElevatedSlope = 8.0
	UtilizationHighFrom      = 0.50
	UtilizationHighSlope     = 10.0
	UtilizationHighOffset    = 1.0
	UtilizationMaxedFrom     = 0.70
	UtilizationMaxedSlope    = 15.0
	UtilizationMaxedOffset   = 3.0

	AssetsModerateFrom       = 500000.0
	AssetsModerateOffset     = -1.0
	AssetsSubstantialFrom    = 2000000.0
	AssetsSubstantialOffset  = -2.0
	AssetsWealthyFrom        = 5000000.0
	AssetsWealthyOffset      = -3.0
	CreditAgeEstablishedFrom = 36.0
	CreditAgeEstablished     = -1.0
	CreditAgeSeasonedFrom    = 84.0
	CreditAgeSeasoned        = -2.0
	InquiriesElevatedFrom    = 3.0
	InquiriesElevated        = 2.0
	InquiriesExcessiveFrom   = 6.0
	InquiriesExcessive       = 5.0

	EmploymentPermanentContribution    = -3.0
	EmploymentContractContribution     = 2.0
	EmploymentSelfEmployedContribution = 4.0
	EmploymentUnknownContribution      = 1.0

	WeightCreditScore    = 35.0
	WeightDTIRatio       = 30.0
	WeightPaymentHistory = 25.0
	WeightEmployment     = 10.0

	DefaultCreditScoreFloor    = 550
	DefaultDTICeiling          = 0.60
	DefaultPaymentHistoryFloor = 0.70
	DefaultApproveMinScore     = 650
	DefaultApproveMaxDTI       = 0.50
	DefaultApproveMinPayment   = 0.70
	DefaultApproveMaxRisk      = 35.0
	DefaultConditionalMinScore = 600
	DefaultConditionalMaxDTI   = 0.40
	DefaultConditionalPayment  = 0.80
	DefaultRejectBelowScore    = 600

	DefaultMinRiskDelta = 1.0
	DefaultTopFactors   = 3

	HighUtilizationSignal   = 0.8
	MissedPaymentsSignal    = 2
	ElevatedInquiriesSignal = 6
)

// Curves holds one response curve per numeric feature.
type Curves struct {
	CreditScore       ResponseCurve `mapstructure:"credit_score" yaml:"credit_score" json:"creditScore"`
	DTIRatio          ResponseCurve `mapstructure:"dti_ratio" yaml:"dti_ratio" json:"dtiRatio"`
	PaymentHistory    ResponseCurve `mapstructure:"payment_history" yaml:"payment_history" json:"paymentHistory"`
	CreditUtilization ResponseCurve `mapstructure:"credit_utilization" yaml:"credit_utilization" json:"creditUtilization"`
	TotalAssets       ResponseCurve `mapstructure:"total_assets" yaml:"total_assets" json:"totalAssets"`
	CreditAge         ResponseCurve `mapstructure:"credit_age" yaml:"credit_age" json:"creditAge"`
	Inquiries         ResponseCurve `mapstructure:"inquiries" yaml:"inquiries" json:"inquiries"`
}

func (c Curves) byFeature() map[FeatureName]ResponseCurve {
	return map[FeatureName]ResponseCurve{
		FeatureCreditScore:       c.CreditScore,
		FeatureDTIRatio:          c.DTIRatio,
		FeaturePaymentHistory:    c.PaymentHistory,
		FeatureCreditUtilization: c.CreditUtilization,
		FeatureTotalAssets:       c.TotalAssets,
		FeatureCreditAge:         c.CreditAge,
		FeatureInquiries:         c.Inquiries,
	}
}

// EmploymentContributions is the categorical response for employment type;
// its baseline is the neutral zero.
type EmploymentContributions struct {
	Permanent    float64 `mapstructure:"permanent" yaml:"permanent" json:"permanent"`
	Contract     float64 `mapstructure:"contract" yaml:"contract" json:"contract"`
	SelfEmployed float64 `mapstructure:"self_employed" yaml:"self_employed" json:"selfEmployed"`
	Unknown      float64 `mapstructure:"unknown" yaml:"unknown" json:"unknown"`
}

func (e EmploymentContributions) For(t EmploymentType) float64 {
	switch t.normalized() {
	case EmploymentPermanent:
		return e.Permanent
	case EmploymentContract:
		return e.Contract
	case EmploymentSelfEmployed:
		return e.SelfEmployed
	default:
		return e.Unknown
	}
}

// Weights are the relative importance percentages shown next to each factor.
// They must sum to 100; features without a weight show 0.
type Weights struct {
	CreditScore       float64 `mapstructure:"credit_score" yaml:"credit_score" json:"creditScore"`
	DTIRatio          float64 `mapstructure:"dti_ratio" yaml:"dti_ratio" json:"dtiRatio"`
	PaymentHistory    float64 `mapstructure:"payment_history" yaml:"payment_history" json:"paymentHistory"`
	EmploymentType    float64 `mapstructure:"employment_type" yaml:"employment_type" json:"employmentType"`
	CreditUtilization float64 `mapstructure:"credit_utilization" yaml:"credit_utilization" json:"creditUtilization"`
	TotalAssets       float64 `mapstructure:"total_assets" yaml:"total_assets" json:"totalAssets"`
	CreditAge         float64 `mapstructure:"credit_age" yaml:"credit_age" json:"creditAge"`
	Inquiries         float64 `mapstructure:"inquiries" yaml:"inquiries" json:"inquiries"`
}

func (w Weights) For(f FeatureName) float64 {
	switch f {
	case FeatureCreditScore:
		return w.CreditScore
	case FeatureDTIRatio:
		return w.DTIRatio
	case FeaturePaymentHistory:
		return w.PaymentHistory
	case FeatureEmploymentType:
		return w.EmploymentType
	case FeatureCreditUtilization:
		return w.CreditUtilization
	case FeatureTotalAssets:
		return w.TotalAssets
	case FeatureCreditAge:
		return w.CreditAge
	case FeatureInquiries:
		return w.Inquiries
	}
	return 0
}

func (w Weights) Sum() float64 {
	total := 0.0
	for _, f := range FeatureOrder {
		total += w.For(f)
	}
	return total
}

type ApproveRule struct {
	MinCreditScore    int     `mapstructure:"min_credit_score" yaml:"min_credit_score" json:"minCreditScore"`
	MaxDTIRatio       float64 `mapstructure:"max_dti_ratio" yaml:"max_dti_ratio" json:"maxDtiRatio"`
	MinPaymentHistory float64 `mapstructure:"min_payment_history" yaml:"min_payment_history" json:"minPaymentHistory"`
	MaxPredictedRisk  float64 `mapstructure:"max_predicted_risk" yaml:"max_predicted_risk" json:"maxPredictedRisk"`
}

// ConditionalRule admits scores in [MinCreditScore, CreditScoreBelow) with
// payment history strictly above PaymentHistoryAbove.
type ConditionalRule struct {
	MinCreditScore      int     `mapstructure:"min_credit_score" yaml:"min_credit_score" json:"minCreditScore"`
	CreditScoreBelow    int     `mapstructure:"credit_score_below" yaml:"credit_score_below" json:"creditScoreBelow"`
	MaxDTIRatio         float64 `mapstructure:"max_dti_ratio" yaml:"max_dti_ratio" json:"maxDtiRatio"`
	PaymentHistoryAbove float64 `mapstructure:"payment_history_above" yaml:"payment_history_above" json:"paymentHistoryAbove"`
}

// FloorRule is an extra hard floor written as a CEL boolean expression.
// When it evaluates to true the applicant is rejected.
type FloorRule struct {
	Name       string `mapstructure:"name" yaml:"name" json:"name"`
	Expression string `mapstructure:"expression" yaml:"expression" json:"expression"`
}

// PolicyConfig drives Evaluate. RejectBelowScore applies only to applicants
// that matched neither approval band; setting it to MinCreditScore disables it.
type PolicyConfig struct {
	CreditScoreFloor    int             `mapstructure:"credit_score_floor" yaml:"credit_score_floor" json:"creditScoreFloor"`
	DTICeiling          float64         `mapstructure:"dti_ceiling" yaml:"dti_ceiling" json:"dtiCeiling"`
	PaymentHistoryFloor float64         `mapstructure:"payment_history_floor" yaml:"payment_history_floor" json:"paymentHistoryFloor"`
	Approve             ApproveRule     `mapstructure:"approve" yaml:"approve" json:"approve"`
	Conditional         ConditionalRule `mapstructure:"conditional" yaml:"conditional" json:"conditional"`
	AdditionalFloors    []FloorRule     `mapstructure:"additional_floors" yaml:"additional_floors" json:"additionalFloors"`
	RejectBelowScore    int             `mapstructure:"reject_below_score" yaml:"reject_below_score" json:"rejectBelowScore"`
}

type SignalConfig struct {
	HighUtilization   float64 `mapstructure:"high_utilization" yaml:"high_utilization" json:"highUtilization"`
	MissedPayments    int     `mapstructure:"missed_payments" yaml:"missed_payments" json:"missedPayments"`
	ElevatedInquiries int     `mapstructure:"elevated_inquiries" yaml:"elevated_inquiries" json:"elevatedInquiries"`
}

type CounterfactualConfig struct {
	MinRiskDelta  float64            `mapstructure:"min_risk_delta" yaml:"min_risk_delta" json:"minRiskDelta"`
	Perturbations []PerturbationSpec `mapstructure:"perturbations" yaml:"perturbations" json:"perturbations"`
}

// Config is the complete tunable surface of the engine.
type Config struct {
	BaseValue       float64                 `mapstructure:"base_value" yaml:"base_value" json:"baseValue"`
	Curves          Curves                  `mapstructure:"curves" yaml:"curves" json:"curves"`
	Employment      EmploymentContributions `mapstructure:"employment" yaml:"employment" json:"employment"`
	Weights         Weights                 `mapstructure:"weights" yaml:"weights" json:"weights"`
	Policy          PolicyConfig            `mapstructure:"policy" yaml:"policy" json:"policy"`
	TopFactors      int                     `mapstructure:"top_factors" yaml:"top_factors" json:"topFactors"`
	Signals         SignalConfig            `mapstructure:"signals" yaml:"signals" json:"signals"`
	Counterfactuals CounterfactualConfig    `mapstructure:"counterfactuals" yaml:"counterfactuals" json:"counterfactuals"`
	StatusBands     StatusBands             `mapstructure:"status_bands" yaml:"status_bands" json:"statusBands"`
}

func DefaultConfig() Config {
	return Config{
		BaseValue: DefaultBaseValue,
		Curves: Curves{
			CreditScore: ResponseCurve{
				Baseline:  CreditScoreBaseline,
				Direction: Decreasing,
				Boundary:  BoundaryAtOrAbove,
				Bands: []Band{
					{From: CreditScoreSubprimeFrom, Slope: CreditScoreSubprimeSlope, Offset: CreditScoreSubprimeOffset},
					{From: CreditScoreNearPrimeFrom, Slope: CreditScoreNearPrimeSlope},
					{From: CreditScorePrimeFrom, Slope: CreditScorePrimeSlope},
					{From: CreditScoreSuperPrimeFrom, Slope: CreditScoreSuperPrimeSlope, Offset: CreditScoreSuperPrimeShift},
				},
			},
			DTIRatio: ResponseCurve{
				Baseline:  DTIBaseline,
				Direction: Increasing,
				Boundary:  BoundaryAbove,
				Bands: []Band{
					{From: 0, Slope: DTILowSlope, Offset: DTILowOffset},
					{From: DTIModerateFrom, Slope: DTIModerateSlope},
					{From: DTIHighFrom, Slope: DTIHighSlope},
					{From: DTIExcessiveFrom, Slope: DTIExcessiveSlope, Offset: DTIExcessiveShift},
				},
			},
			PaymentHistory: ResponseCurve{
				Baseline:  PaymentHistoryBaseline,
				Direction: Decreasing,
				Boundary:  BoundaryAtOrAbove,
				Bands: []Band{
					{From: 0, Slope: PaymentPoorSlope, Offset: PaymentPoorOffset},
					{From: PaymentFairFrom, Slope: PaymentFairSlope, Offset: PaymentFairOffset},
					{From: PaymentGoodFrom, Slope: PaymentGoodSlope},
					{From: PaymentExcellentFrom, Slope: PaymentExcellentSlope, Offset: PaymentExcellentShift},
				},
			},
			CreditUtilization: ResponseCurve{
				Baseline:  UtilizationBaseline,
				Direction: Increasing,
				Boundary:  BoundaryAtOrAbove,
				Bands: []Band{
					{From: 0},
					{From: UtilizationBaseline, Slope: UtilizationElevatedSlope},
					{From: UtilizationHighFrom, Slope: UtilizationHighSlope, Offset: UtilizationHighOffset},
					{From: UtilizationMaxedFrom, Slope: UtilizationMaxedSlope, Offset: UtilizationMaxedOffset},
				},
			},
			TotalAssets: ResponseCurve{
				Direction: Decreasing,
				Boundary:  BoundaryAtOrAbove,
				Bands: []Band{
					{From: 0},
					{From: AssetsModerateFrom, Offset: AssetsModerateOffset},
					{From: AssetsSubstantialFrom, Offset: AssetsSubstantialOffset},
					{From: AssetsWealthyFrom, Offset: AssetsWealthyOffset},
				},
			},
			CreditAge: ResponseCurve{
				Direction: Decreasing,
				Boundary:  BoundaryAtOrAbove,
				Bands: []Band{
					{From: 0},
					{From: CreditAgeEstablishedFrom, Offset: CreditAgeEstablished},
					{From: CreditAgeSeasonedFrom, Offset: CreditAgeSeasoned},
				},
			},
			Inquiries: ResponseCurve{
				Direction: Increasing,
				Boundary:  BoundaryAtOrAbove,
				Bands: []Band{
					{From: 0},
					{From: InquiriesElevatedFrom, Offset: InquiriesElevated},
					{From: InquiriesExcessiveFrom, Offset: InquiriesExcessive},
				},
			},
		},
		Employment: EmploymentContributions{
			Permanent:    EmploymentPermanentContribution,
			Contract:     EmploymentContractContribution,
			SelfEmployed: EmploymentSelfEmployedContribution,
			Unknown:      EmploymentUnknownContribution,
		},
		Weights: Weights{
			CreditScore:    WeightCreditScore,
			DTIRatio:       WeightDTIRatio,
			PaymentHistory: WeightPaymentHistory,
			EmploymentType: WeightEmployment,
		},
		Policy: PolicyConfig{
			CreditScoreFloor:    DefaultCreditScoreFloor,
			DTICeiling:          DefaultDTICeiling,
			PaymentHistoryFloor: DefaultPaymentHistoryFloor,
			Approve: ApproveRule{
				MinCreditScore:    DefaultApproveMinScore,
				MaxDTIRatio:       DefaultApproveMaxDTI,
				MinPaymentHistory: DefaultApproveMinPayment,
				MaxPredictedRisk:  DefaultApproveMaxRisk,
			},
			Conditional: ConditionalRule{
				MinCreditScore:      DefaultConditionalMinScore,
				CreditScoreBelow:    DefaultApproveMinScore,
				MaxDTIRatio:         DefaultConditionalMaxDTI,
				PaymentHistoryAbove: DefaultConditionalPayment,
			},
			RejectBelowScore: DefaultRejectBelowScore,
		},
		TopFactors: DefaultTopFactors,
		Signals: SignalConfig{
			HighUtilization:   HighUtilizationSignal,
			MissedPayments:    MissedPaymentsSignal,
			ElevatedInquiries: ElevatedInquiriesSignal,
		},
		Counterfactuals: CounterfactualConfig{
			MinRiskDelta:  DefaultMinRiskDelta,
			Perturbations: DefaultPerturbations(),
		},
		StatusBands: DefaultStatusBands(),
	}
}

const weightTolerance = 1e-6

// Validate reports every configuration defect at once.
func (c Config) Validate() error {
	var errs []error

	if !isFinite(c.BaseValue) || c.BaseValue < 0 || c.BaseValue > 100 {
		errs = append(errs, fmt.Errorf("base_value %g must be within [0,100]", c.BaseValue))
	}

	for _, f := range FeatureOrder {
		curve, ok := c.Curves.byFeature()[f]
		if !ok {
			continue
		}
		if err := curve.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("curves.%s: %w", f, err))
		}
	}
	if c.Curves.CreditScore.Direction != Decreasing {
		errs = append(errs, errors.New("curves.credit_score: must be decreasing"))
	}
	if c.Curves.DTIRatio.Direction != Increasing {
		errs = append(errs, errors.New("curves.dti_ratio: must be increasing"))
	}

	for _, v := range []float64{c.Employment.Permanent, c.Employment.Contract, c.Employment.SelfEmployed, c.Employment.Unknown} {
		if !isFinite(v) {
			errs = append(errs, errors.New("employment: contributions must be finite"))
			break
		}
	}

	for _, f := range FeatureOrder {
		if w := c.Weights.For(f); w < 0 || !isFinite(w) {
			errs = append(errs, fmt.Errorf("weights.%s: %g must be a non-negative percentage", f, w))
		}
	}
	if sum := c.Weights.Sum(); math.Abs(sum-100) > weightTolerance {
		errs = append(errs, fmt.Errorf("weights: sum to %g, want 100", sum))
	}

	if err := c.Policy.validate(); err != nil {
		errs = append(errs, err)
	}

	if err := c.StatusBands.validate(); err != nil {
		errs = append(errs, err)
	}

	if c.TopFactors < 1 {
		errs = append(errs, fmt.Errorf("top_factors %d must be at least 1", c.TopFactors))
	}

	if c.Counterfactuals.MinRiskDelta < 0 || !isFinite(c.Counterfactuals.MinRiskDelta) {
		errs = append(errs, fmt.Errorf("counterfactuals.min_risk_delta %g must be non-negative", c.Counterfactuals.MinRiskDelta))
	}
	seen := make(map[string]bool, len(c.Counterfactuals.Perturbations))
	for i, p := range c.Counterfactuals.Perturbations {
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("counterfactuals.perturbations[%d]: %w", i, err))
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Errorf("counterfactuals.perturbations[%d]: duplicate name %q", i, p.Name))
		}
		seen[p.Name] = true
	}

	return errors.Join(errs...)
}

func (p PolicyConfig) validate() error {
	var errs []error
	if p.CreditScoreFloor < MinCreditScore || p.CreditScoreFloor > MaxCreditScore {
		errs = append(errs, fmt.Errorf("policy.credit_score_floor %d outside [%d,%d]", p.CreditScoreFloor, MinCreditScore, MaxCreditScore))
	}
	if p.RejectBelowScore < MinCreditScore || p.RejectBelowScore > MaxCreditScore {
		errs = append(errs, fmt.Errorf("policy.reject_below_score %d outside [%d,%d]", p.RejectBelowScore, MinCreditScore, MaxCreditScore))
	}
	ratios := []struct {
		name  string
		value float64
	}{
		{"policy.dti_ceiling", p.DTICeiling},
		{"policy.payment_history_floor", p.PaymentHistoryFloor},
		{"policy.approve.max_dti_ratio", p.Approve.MaxDTIRatio},
		{"policy.approve.min_payment_history", p.Approve.MinPaymentHistory},
		{"policy.conditional.max_dti_ratio", p.Conditional.MaxDTIRatio},
		{"policy.conditional.payment_history_above", p.Conditional.PaymentHistoryAbove},
	}
	for _, r := range ratios {
		if r.value < 0 || r.value > 1 || !isFinite(r.value) {
			errs = append(errs, fmt.Errorf("%s %g must be a ratio in [0,1]", r.name, r.value))
		}
	}
	if p.Approve.MaxPredictedRisk < 0 || p.Approve.MaxPredictedRisk > 100 {
		errs = append(errs, fmt.Errorf("policy.approve.max_predicted_risk %g must be within [0,100]", p.Approve.MaxPredictedRisk))
	}
	if p.Conditional.MinCreditScore >= p.Conditional.CreditScoreBelow {
		errs = append(errs, fmt.Errorf("policy.conditional: empty score range [%d,%d)", p.Conditional.MinCreditScore, p.Conditional.CreditScoreBelow))
	}
	names := make(map[string]bool, len(p.AdditionalFloors))
	for i, r := range p.AdditionalFloors {
		if r.Name == "" || r.Expression == "" {
			errs = append(errs, fmt.Errorf("policy.additional_floors[%d]: name and expression are required", i))
		}
		if names[r.Name] {
			errs = append(errs, fmt.Errorf("policy.additional_floors[%d]: duplicate name %q", i, r.Name))
		}
		names[r.Name] = true
	}
	return errors.Join(errs...)
}

// Clone deep-copies every slice so an Engine never observes later caller mutations.
func (c Config) Clone() Config {
	out := c
	out.Curves = Curves{
		CreditScore:       c.Curves.CreditScore.Clone(),
		DTIRatio:          c.Curves.DTIRatio.Clone(),
		PaymentHistory:    c.Curves.PaymentHistory.Clone(),
		CreditUtilization: c.Curves.CreditUtilization.Clone(),
		TotalAssets:       c.Curves.TotalAssets.Clone(),
		CreditAge:         c.Curves.CreditAge.Clone(),
		Inquiries:         c.Curves.Inquiries.Clone(),
	}
	out.Policy.AdditionalFloors = append([]FloorRule(nil), c.Policy.AdditionalFloors...)
	out.Counterfactuals.Perturbations = append([]PerturbationSpec(nil), c.Counterfactuals.Perturbations...)
	return out
}

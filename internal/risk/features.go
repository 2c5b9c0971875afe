package risk

import (
	"math"

	"github.com/shopspring/decimal"
)

// FeatureName identifies one entry of the feature vector.
type FeatureName string

const (
	FeatureCreditScore       FeatureName = "credit_score"
	FeatureDTIRatio          FeatureName = "dti_ratio"
	FeaturePaymentHistory    FeatureName = "payment_history"
	FeatureCreditUtilization FeatureName = "credit_utilization"
	FeatureEmploymentType    FeatureName = "employment_type"
	FeatureTotalAssets       FeatureName = "total_assets"
	FeatureCreditAge         FeatureName = "credit_age"
	FeatureInquiries         FeatureName = "inquiries"
)

// FeatureOrder is the fixed order in which contributions are emitted.
var FeatureOrder = []FeatureName{
	FeatureCreditScore,
	FeatureDTIRatio,
	FeaturePaymentHistory,
	FeatureCreditUtilization,
	FeatureEmploymentType,
	FeatureTotalAssets,
	FeatureCreditAge,
	FeatureInquiries,
}

func (f FeatureName) Valid() bool {
	for _, known := range FeatureOrder {
		if f == known {
			return true
		}
	}
	return false
}

const (
	MinCreditScore = 300
	MaxCreditScore = 850
)

// FeatureVector is the typed projection of an ApplicantProfile. All ratios are in [0,1].
type FeatureVector struct {
	CreditScore       int            `json:"creditScore" yaml:"creditScore"`
	DTIRatio          float64        `json:"dtiRatio" yaml:"dtiRatio"`
	PaymentHistory    float64        `json:"paymentHistory" yaml:"paymentHistory"`
	CreditUtilization float64        `json:"creditUtilization" yaml:"creditUtilization"`
	EmploymentType    EmploymentType `json:"employmentType" yaml:"employmentType"`
	TotalAssets       float64        `json:"totalAssets" yaml:"totalAssets"`
	CreditAgeMonths   int            `json:"creditAgeMonths" yaml:"creditAgeMonths"`
	Inquiries         int            `json:"inquiries" yaml:"inquiries"`
	MonthlyIncome     float64        `json:"monthlyIncome" yaml:"monthlyIncome"`
	TotalEMI          float64        `json:"totalEmi" yaml:"totalEmi"`
}

// Value returns the numeric value of a feature. Employment has no numeric value and yields 0.
func (fv FeatureVector) Value(name FeatureName) float64 {
	switch name {
	case FeatureCreditScore:
		return float64(fv.CreditScore)
	case FeatureDTIRatio:
		return fv.DTIRatio
	case FeaturePaymentHistory:
		return fv.PaymentHistory
	case FeatureCreditUtilization:
		return fv.CreditUtilization
	case FeatureTotalAssets:
		return fv.TotalAssets
	case FeatureCreditAge:
		return float64(fv.CreditAgeMonths)
	case FeatureInquiries:
		return float64(fv.Inquiries)
	}
	return 0
}

// Extract projects a profile onto the feature vector. It is total: missing or
// out-of-range inputs are clamped, and a credit score below the scale
// (including a missing one) is treated as the scale minimum.
func Extract(p ApplicantProfile) FeatureVector {
	income := nonNegative(p.MonthlyIncome)
	emi := p.TotalEMI()

	dti := 0.0
	if income.IsPositive() {
		dti = clampRatio(emi.Div(income).InexactFloat64())
	}

	assets := nonNegative(p.InvestmentAssets.MutualFunds).
		Add(nonNegative(p.InvestmentAssets.Deposits)).
		Add(nonNegative(p.InvestmentAssets.Stocks)).
		Add(nonNegative(p.InvestmentAssets.RealEstate))

	return FeatureVector{
		CreditScore:       clampInt(p.CreditScore, MinCreditScore, MaxCreditScore),
		DTIRatio:          dti,
		PaymentHistory:    clampRatio(p.OnTimePaymentRatio),
		CreditUtilization: weightedUtilization(p.CreditCards),
		EmploymentType:    p.EmploymentType.normalized(),
		TotalAssets:       finite(assets.InexactFloat64()),
		CreditAgeMonths:   max(p.CreditAccountAgeMonths, 0),
		Inquiries:         max(p.RecentCreditInquiries, 0),
		MonthlyIncome:     finite(income.InexactFloat64()),
		TotalEMI:          finite(emi.InexactFloat64()),
	}
}

// weightedUtilization is Σ(limit·ratio)/Σlimit over cards with a positive limit.
func weightedUtilization(cards []CreditCard) float64 {
	var weighted, limits float64
	for _, c := range cards {
		limit := nonNegative(c.Limit).InexactFloat64()
		if limit <= 0 || !isFinite(limit) {
			continue
		}
		weighted += limit * clampRatio(c.UtilizationRatio)
		limits += limit
	}
	if limits <= 0 {
		return 0
	}
	return clampRatio(weighted / limits)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func clampRatio(v float64) float64 {
	if !isFinite(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func finite(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

package risk

import "github.com/shopspring/decimal"

const simulatedLoanType = "simulated"

// ProfileOverrides is a partial ApplicantProfile used for what-if simulation.
// Nil fields leave the base profile untouched.
type ProfileOverrides struct {
	CreditScore            *int              `json:"creditScore,omitempty" yaml:"creditScore,omitempty"`
	MonthlyIncome          *decimal.Decimal  `json:"monthlyIncome,omitempty" yaml:"monthlyIncome,omitempty"`
	TotalEMI               *decimal.Decimal  `json:"totalEmi,omitempty" yaml:"totalEmi,omitempty"`
	ActiveLoans            []LoanObligation  `json:"activeLoans,omitempty" yaml:"activeLoans,omitempty"`
	OnTimePaymentRatio     *float64          `json:"onTimePaymentRatio,omitempty" yaml:"onTimePaymentRatio,omitempty"`
	CreditCards            []CreditCard      `json:"creditCards,omitempty" yaml:"creditCards,omitempty"`
	CreditUtilization      *float64          `json:"creditUtilization,omitempty" yaml:"creditUtilization,omitempty"`
	EmploymentType         *EmploymentType   `json:"employmentType,omitempty" yaml:"employmentType,omitempty"`
	InvestmentAssets       *InvestmentAssets `json:"investmentAssets,omitempty" yaml:"investmentAssets,omitempty"`
	CreditAccountAgeMonths *int              `json:"creditAccountAgeMonths,omitempty" yaml:"creditAccountAgeMonths,omitempty"`
	RecentCreditInquiries  *int              `json:"recentCreditInquiries,omitempty" yaml:"recentCreditInquiries,omitempty"`
}

func (o ProfileOverrides) IsEmpty() bool {
	return o.CreditScore == nil && o.MonthlyIncome == nil && o.TotalEMI == nil &&
		o.ActiveLoans == nil && o.OnTimePaymentRatio == nil && o.CreditCards == nil &&
		o.CreditUtilization == nil && o.EmploymentType == nil && o.InvestmentAssets == nil &&
		o.CreditAccountAgeMonths == nil && o.RecentCreditInquiries == nil
}

// Apply returns a modified copy of p. Explicit obligation and card lists are
// applied before the aggregate TotalEMI and CreditUtilization overrides.
func (o ProfileOverrides) Apply(p ApplicantProfile) ApplicantProfile {
	out := p.Clone()

	if o.CreditScore != nil {
		out.CreditScore = *o.CreditScore
	}
	if o.MonthlyIncome != nil {
		out.MonthlyIncome = *o.MonthlyIncome
	}
	if o.ActiveLoans != nil {
		out.ActiveLoans = append([]LoanObligation(nil), o.ActiveLoans...)
	}
	if o.TotalEMI != nil {
		out.ActiveLoans = rescaleObligations(out.ActiveLoans, *o.TotalEMI)
	}
	if o.OnTimePaymentRatio != nil {
		out.OnTimePaymentRatio = *o.OnTimePaymentRatio
	}
	if o.CreditCards != nil {
		out.CreditCards = append([]CreditCard(nil), o.CreditCards...)
	}
	if o.CreditUtilization != nil {
		out.CreditCards = setUtilization(out.CreditCards, *o.CreditUtilization)
	}
	if o.EmploymentType != nil {
		out.EmploymentType = *o.EmploymentType
	}
	if o.InvestmentAssets != nil {
		out.InvestmentAssets = *o.InvestmentAssets
	}
	if o.CreditAccountAgeMonths != nil {
		out.CreditAccountAgeMonths = *o.CreditAccountAgeMonths
	}
	if o.RecentCreditInquiries != nil {
		out.RecentCreditInquiries = *o.RecentCreditInquiries
	}
	return out
}

// rescaleObligations spreads target across the existing obligations in proportion
// to their current EMI. Negative amounts are zeroed. With no (or zero)
// obligations a single synthetic one is used.
func rescaleObligations(loans []LoanObligation, target decimal.Decimal) []LoanObligation {
	target = nonNegative(target)
	current := totalEMI(loans)
	if !current.IsPositive() {
		if target.IsZero() {
			return loans
		}
		return append(loans, LoanObligation{LoanType: simulatedLoanType, EMIAmount: target})
	}

	out := make([]LoanObligation, len(loans))
	for i, l := range loans {
		l.EMIAmount = nonNegative(l.EMIAmount).Mul(target).Div(current)
		out[i] = l
	}
	return out
}

// setUtilization applies ratio to every card. When no card has a positive
// limit a single synthetic card carries the ratio; only its share of the
// total limit matters, so it gets a unit limit.
func setUtilization(cards []CreditCard, ratio float64) []CreditCard {
	hasLimit := false
	for i := range cards {
		cards[i].UtilizationRatio = ratio
		if cards[i].Limit.IsPositive() {
			hasLimit = true
		}
	}
	if hasLimit {
		return cards
	}
	return append(cards, CreditCard{Limit: decimal.NewFromInt(1), UtilizationRatio: ratio})
}

func scaleObligations(loans []LoanObligation, factor decimal.Decimal) []LoanObligation {
	out := make([]LoanObligation, len(loans))
	for i, l := range loans {
		l.EMIAmount = l.EMIAmount.Mul(factor)
		out[i] = l
	}
	return out
}

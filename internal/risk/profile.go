package risk

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// EmploymentType is the applicant's employment category.
type EmploymentType string

const (
	EmploymentPermanent    EmploymentType = "Permanent"
	EmploymentContract     EmploymentType = "Contract"
	EmploymentSelfEmployed EmploymentType = "SelfEmployed"
	EmploymentUnknown      EmploymentType = "Unknown"
)

var employmentAliases = map[string]EmploymentType{
	"permanent":     EmploymentPermanent,
	"full-time":     EmploymentPermanent,
	"full_time":     EmploymentPermanent,
	"fulltime":      EmploymentPermanent,
	"salaried":      EmploymentPermanent,
	"contract":      EmploymentContract,
	"contractor":    EmploymentContract,
	"temporary":     EmploymentContract,
	"selfemployed":  EmploymentSelfEmployed,
	"self-employed": EmploymentSelfEmployed,
	"self_employed": EmploymentSelfEmployed,
	"self employed": EmploymentSelfEmployed,
	"business":      EmploymentSelfEmployed,
}

// ParseEmploymentType maps free-form labels onto the enum. Anything unrecognised is Unknown.
func ParseEmploymentType(s string) EmploymentType {
	if t, ok := employmentAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t
	}
	return EmploymentUnknown
}

// UnmarshalJSON never fails: null, numbers and unknown labels decode to Unknown.
func (e *EmploymentType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*e = EmploymentUnknown
		return nil
	}
	*e = ParseEmploymentType(s)
	return nil
}

func (e EmploymentType) normalized() EmploymentType {
	switch e {
	case EmploymentPermanent, EmploymentContract, EmploymentSelfEmployed:
		return e
	default:
		return EmploymentUnknown
	}
}

type LoanObligation struct {
	LoanType       string          `json:"loanType,omitempty" yaml:"loanType,omitempty"`
	EMIAmount      decimal.Decimal `json:"emiAmount" yaml:"emiAmount"`
	MissedPayments int             `json:"missedPayments" yaml:"missedPayments"`
	HasPrepayments bool            `json:"hasPrepayments" yaml:"hasPrepayments"`
}

type CreditCard struct {
	Limit            decimal.Decimal `json:"limit" yaml:"limit"`
	UtilizationRatio float64         `json:"utilizationRatio" yaml:"utilizationRatio"`
}

type InvestmentAssets struct {
	MutualFunds decimal.Decimal `json:"mutualFunds" yaml:"mutualFunds"`
	Deposits    decimal.Decimal `json:"deposits" yaml:"deposits"`
	Stocks      decimal.Decimal `json:"stocks" yaml:"stocks"`
	RealEstate  decimal.Decimal `json:"realEstate" yaml:"realEstate"`
}

func (a InvestmentAssets) Total() decimal.Decimal {
	return a.MutualFunds.Add(a.Deposits).Add(a.Stocks).Add(a.RealEstate)
}

// ApplicantProfile is the raw applicant record. Every field is optional; missing
// or malformed values decode to their zero value and are projected to neutral
// features.
type ApplicantProfile struct {
	ApplicantID            string           `json:"applicantId,omitempty" yaml:"applicantId,omitempty"`
	CreditScore            int              `json:"creditScore" yaml:"creditScore"`
	MonthlyIncome          decimal.Decimal  `json:"monthlyIncome" yaml:"monthlyIncome"`
	ActiveLoans            []LoanObligation `json:"activeLoans" yaml:"activeLoans"`
	OnTimePaymentRatio     float64          `json:"onTimePaymentRatio" yaml:"onTimePaymentRatio"`
	CreditCards            []CreditCard     `json:"creditCards" yaml:"creditCards"`
	EmploymentType         EmploymentType   `json:"employmentType" yaml:"employmentType"`
	InvestmentAssets       InvestmentAssets `json:"investmentAssets" yaml:"investmentAssets"`
	CreditAccountAgeMonths int              `json:"creditAccountAgeMonths" yaml:"creditAccountAgeMonths"`
	RecentCreditInquiries  int              `json:"recentCreditInquiries" yaml:"recentCreditInquiries"`
}

// TotalEMI sums the monthly instalments of every active obligation. Negative
// amounts count as zero, matching the dti feature.
func (p ApplicantProfile) TotalEMI() decimal.Decimal {
	return totalEMI(p.ActiveLoans)
}

func totalEMI(loans []LoanObligation) decimal.Decimal {
	total := decimal.Zero
	for _, l := range loans {
		total = total.Add(nonNegative(l.EMIAmount))
	}
	return total
}

func (p ApplicantProfile) TotalMissedPayments() int {
	n := 0
	for _, l := range p.ActiveLoans {
		if l.MissedPayments > 0 {
			n += l.MissedPayments
		}
	}
	return n
}

// Clone returns a deep copy so perturbations never alias the caller's slices.
func (p ApplicantProfile) Clone() ApplicantProfile {
	out := p
	if p.ActiveLoans != nil {
		out.ActiveLoans = make([]LoanObligation, len(p.ActiveLoans))
		copy(out.ActiveLoans, p.ActiveLoans)
	}
	if p.CreditCards != nil {
		out.CreditCards = make([]CreditCard, len(p.CreditCards))
		copy(out.CreditCards, p.CreditCards)
	}
	return out
}

package risk

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Applicant records come from forms, caches and older stores. A field that
// cannot be read as its type decodes to its zero value; numbers may arrive
// as JSON strings and counts as floats.

var (
	maxIntField = decimal.NewFromInt(math.MaxInt32)
	minIntField = decimal.NewFromInt(math.MinInt32)
)

// maxExponent bounds numbers such as "1e999999" before any arithmetic on them.
const maxExponent = 64

func lenientNumber(raw json.RawMessage) (decimal.Decimal, bool) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return decimal.Zero, false
	}
	if text[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, false
		}
		text = strings.TrimSpace(s)
	}
	d, err := decimal.NewFromString(text)
	if err != nil || d.Exponent() > maxExponent || d.Exponent() < -maxExponent {
		return decimal.Zero, false
	}
	return d, true
}

func lenientDecimal(raw json.RawMessage) decimal.Decimal {
	d, _ := lenientNumber(raw)
	return d
}

func lenientFloat(raw json.RawMessage) float64 {
	d, ok := lenientNumber(raw)
	if !ok {
		return 0
	}
	return finite(d.InexactFloat64())
}

// lenientInt truncates fractional values toward zero.
func lenientInt(raw json.RawMessage) int {
	d, ok := lenientNumber(raw)
	if !ok {
		return 0
	}
	d = d.Truncate(0)
	switch {
	case d.GreaterThan(maxIntField):
		return math.MaxInt32
	case d.LessThan(minIntField):
		return math.MinInt32
	}
	return int(d.IntPart())
}

func lenientBool(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		b, _ = strconv.ParseBool(strings.TrimSpace(s))
	}
	return b
}

func lenientString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// lenientList decodes an array; anything else yields nil.
func lenientList[T any](raw json.RawMessage) []T {
	if len(raw) == 0 {
		return nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

type loanObligationJSON struct {
	LoanType       json.RawMessage `json:"loanType"`
	EMIAmount      json.RawMessage `json:"emiAmount"`
	MissedPayments json.RawMessage `json:"missedPayments"`
	HasPrepayments json.RawMessage `json:"hasPrepayments"`
}

// UnmarshalJSON never fails; a non-object entry is an empty obligation.
func (l *LoanObligation) UnmarshalJSON(data []byte) error {
	var raw loanObligationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		*l = LoanObligation{}
		return nil
	}
	*l = LoanObligation{
		LoanType:       lenientString(raw.LoanType),
		EMIAmount:      lenientDecimal(raw.EMIAmount),
		MissedPayments: lenientInt(raw.MissedPayments),
		HasPrepayments: lenientBool(raw.HasPrepayments),
	}
	return nil
}

type creditCardJSON struct {
	Limit            json.RawMessage `json:"limit"`
	UtilizationRatio json.RawMessage `json:"utilizationRatio"`
}

// UnmarshalJSON never fails; a non-object entry is a card without a limit.
func (c *CreditCard) UnmarshalJSON(data []byte) error {
	var raw creditCardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		*c = CreditCard{}
		return nil
	}
	*c = CreditCard{
		Limit:            lenientDecimal(raw.Limit),
		UtilizationRatio: lenientFloat(raw.UtilizationRatio),
	}
	return nil
}

type investmentAssetsJSON struct {
	MutualFunds json.RawMessage `json:"mutualFunds"`
	Deposits    json.RawMessage `json:"deposits"`
	Stocks      json.RawMessage `json:"stocks"`
	RealEstate  json.RawMessage `json:"realEstate"`
}

func (a *InvestmentAssets) UnmarshalJSON(data []byte) error {
	var raw investmentAssetsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		*a = InvestmentAssets{}
		return nil
	}
	*a = InvestmentAssets{
		MutualFunds: lenientDecimal(raw.MutualFunds),
		Deposits:    lenientDecimal(raw.Deposits),
		Stocks:      lenientDecimal(raw.Stocks),
		RealEstate:  lenientDecimal(raw.RealEstate),
	}
	return nil
}

type applicantProfileJSON struct {
	ApplicantID            json.RawMessage `json:"applicantId"`
	CreditScore            json.RawMessage `json:"creditScore"`
	MonthlyIncome          json.RawMessage `json:"monthlyIncome"`
	ActiveLoans            json.RawMessage `json:"activeLoans"`
	OnTimePaymentRatio     json.RawMessage `json:"onTimePaymentRatio"`
	CreditCards            json.RawMessage `json:"creditCards"`
	EmploymentType         json.RawMessage `json:"employmentType"`
	InvestmentAssets       json.RawMessage `json:"investmentAssets"`
	CreditAccountAgeMonths json.RawMessage `json:"creditAccountAgeMonths"`
	RecentCreditInquiries  json.RawMessage `json:"recentCreditInquiries"`
}

// UnmarshalJSON reads every field leniently. Only a document that is not a
// JSON object is rejected.
func (p *ApplicantProfile) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	var raw applicantProfileJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := ApplicantProfile{
		ApplicantID:            lenientString(raw.ApplicantID),
		CreditScore:            lenientInt(raw.CreditScore),
		MonthlyIncome:          lenientDecimal(raw.MonthlyIncome),
		ActiveLoans:            lenientList[LoanObligation](raw.ActiveLoans),
		OnTimePaymentRatio:     lenientFloat(raw.OnTimePaymentRatio),
		CreditCards:            lenientList[CreditCard](raw.CreditCards),
		CreditAccountAgeMonths: lenientInt(raw.CreditAccountAgeMonths),
		RecentCreditInquiries:  lenientInt(raw.RecentCreditInquiries),
	}
	if len(raw.EmploymentType) > 0 {
		_ = json.Unmarshal(raw.EmploymentType, &out.EmploymentType)
	}
	if len(raw.InvestmentAssets) > 0 {
		_ = json.Unmarshal(raw.InvestmentAssets, &out.InvestmentAssets)
	}
	*p = out
	return nil
}

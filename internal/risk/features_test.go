package risk

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func createTestProfile(score int, income, emi, payment float64, employment EmploymentType) ApplicantProfile {
	p := ApplicantProfile{
		ApplicantID:        "applicant-123",
		CreditScore:        score,
		MonthlyIncome:      dec(income),
		OnTimePaymentRatio: payment,
		EmploymentType:     employment,
	}
	if emi > 0 {
		p.ActiveLoans = []LoanObligation{{LoanType: "personal", EMIAmount: dec(emi)}}
	}
	return p
}

// ==========================
// Extract
// ==========================

func TestExtract(t *testing.T) {
	tests := []struct {
		name           string
		profile        ApplicantProfile
		validateOutput func(t *testing.T, fv FeatureVector)
	}{
		{
			name:    "dti from summed obligations",
			profile: createTestProfile(700, 100000, 0, 0.9, EmploymentPermanent),
			validateOutput: func(t *testing.T, fv FeatureVector) {
				assert.Equal(t, 0.0, fv.DTIRatio)
				assert.Equal(t, 700, fv.CreditScore)
			},
		},
		{
			name: "multiple obligations",
			profile: ApplicantProfile{
				CreditScore:   700,
				MonthlyIncome: dec(100000),
				ActiveLoans: []LoanObligation{
					{EMIAmount: dec(10000)},
					{EMIAmount: dec(5000)},
					{EMIAmount: dec(-2000)},
				},
			},
			validateOutput: func(t *testing.T, fv FeatureVector) {
				assert.InDelta(t, 0.15, fv.DTIRatio, 1e-12)
				assert.InDelta(t, 15000, fv.TotalEMI, 1e-9)
			},
		},
		{
			name:    "zero income with debt yields zero dti",
			profile: createTestProfile(700, 0, 5000, 0.9, EmploymentPermanent),
			validateOutput: func(t *testing.T, fv FeatureVector) {
				assert.Equal(t, 0.0, fv.DTIRatio)
			},
		},
		{
			name:    "negative income yields zero dti",
			profile: createTestProfile(700, -1000, 5000, 0.9, EmploymentPermanent),
			validateOutput: func(t *testing.T, fv FeatureVector) {
				assert.Equal(t, 0.0, fv.DTIRatio)
				assert.Equal(t, 0.0, fv.MonthlyIncome)
			},
		},
		{
			name:    "dti above one is clamped",
			profile: createTestProfile(700, 1000, 5000, 0.9, EmploymentPermanent),
			validateOutput: func(t *testing.T, fv FeatureVector) {
				assert.Equal(t, 1.0, fv.DTIRatio)
			},
		},
		{
			name:    "missing credit score maps to scale minimum",
			profile: ApplicantProfile{},
			validateOutput: func(t *testing.T, fv FeatureVector) {
				assert.Equal(t, MinCreditScore, fv.CreditScore)
				assert.Equal(t, 0.0, fv.PaymentHistory)
				assert.Equal(t, 0.0, fv.CreditUtilization)
				assert.Equal(t, EmploymentUnknown, fv.EmploymentType)
			},
		},
		{
			name:    "credit score above scale is clamped",
			profile: createTestProfile(990, 50000, 0, 1.4, EmploymentContract),
			validateOutput: func(t *testing.T, fv FeatureVector) {
				assert.Equal(t, MaxCreditScore, fv.CreditScore)
				assert.Equal(t, 1.0, fv.PaymentHistory)
			},
		},
		{
			name: "weighted utilization",
			profile: ApplicantProfile{
				CreditCards: []CreditCard{
					{Limit: dec(100000), UtilizationRatio: 0.2},
					{Limit: dec(50000), UtilizationRatio: 0.8},
					{Limit: dec(0), UtilizationRatio: 0.9},
				},
			},
			validateOutput: func(t *testing.T, fv FeatureVector) {
				// (100000*0.2 + 50000*0.8) / 150000
				assert.InDelta(t, 0.4, fv.CreditUtilization, 1e-12)
			},
		},
		{
			name: "negative counters clamp to zero",
			profile: ApplicantProfile{
				CreditAccountAgeMonths: -4,
				RecentCreditInquiries:  -1,
				InvestmentAssets:       InvestmentAssets{Deposits: dec(-500), Stocks: dec(1000)},
			},
			validateOutput: func(t *testing.T, fv FeatureVector) {
				assert.Equal(t, 0, fv.CreditAgeMonths)
				assert.Equal(t, 0, fv.Inquiries)
				assert.Equal(t, 1000.0, fv.TotalAssets)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validateOutput(t, Extract(tt.profile))
		})
	}
}

func TestParseEmploymentType(t *testing.T) {
	tests := map[string]EmploymentType{
		"Permanent":     EmploymentPermanent,
		" full-time ":   EmploymentPermanent,
		"CONTRACT":      EmploymentContract,
		"Self Employed": EmploymentSelfEmployed,
		"self_employed": EmploymentSelfEmployed,
		"SelfEmployed":  EmploymentSelfEmployed,
		"retired":       EmploymentUnknown,
		"":              EmploymentUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseEmploymentType(in), in)
	}
}

func TestApplicantProfile_TolerantJSON(t *testing.T) {
	doc := `{
		"applicantId": "applicant-9",
		"creditScore": 710,
		"monthlyIncome": "85000.50",
		"employmentType": 3,
		"activeLoans": null,
		"investmentAssets": {"deposits": 12000}
	}`

	var p ApplicantProfile
	require.NoError(t, json.Unmarshal([]byte(doc), &p))

	assert.Equal(t, "applicant-9", p.ApplicantID)
	assert.Equal(t, EmploymentUnknown, p.EmploymentType)
	assert.True(t, p.MonthlyIncome.Equal(decimal.RequireFromString("85000.50")))
	assert.Nil(t, p.ActiveLoans)
	assert.True(t, p.InvestmentAssets.Total().Equal(decimal.NewFromInt(12000)))

	fv := Extract(p)
	assert.Equal(t, 0.0, fv.DTIRatio)
	assert.Equal(t, 12000.0, fv.TotalAssets)
}

func TestApplicantProfile_LenientFields(t *testing.T) {
	tests := []struct {
		name           string
		doc            string
		validateOutput func(t *testing.T, p ApplicantProfile)
	}{
		{
			name: "integral float score",
			doc:  `{"creditScore":720.0}`,
			validateOutput: func(t *testing.T, p ApplicantProfile) {
				assert.Equal(t, 720, p.CreditScore)
			},
		},
		{
			name: "numeric string score",
			doc:  `{"creditScore":"720"}`,
			validateOutput: func(t *testing.T, p ApplicantProfile) {
				assert.Equal(t, 720, p.CreditScore)
			},
		},
		{
			name: "non-numeric score",
			doc:  `{"creditScore":"high"}`,
			validateOutput: func(t *testing.T, p ApplicantProfile) {
				assert.Zero(t, p.CreditScore)
				assert.Equal(t, MinCreditScore, Extract(p).CreditScore)
			},
		},
		{
			name: "numeric string ratio",
			doc:  `{"onTimePaymentRatio":"0.9"}`,
			validateOutput: func(t *testing.T, p ApplicantProfile) {
				assert.Equal(t, 0.9, p.OnTimePaymentRatio)
			},
		},
		{
			name: "unparseable income",
			doc:  `{"monthlyIncome":"n/a","activeLoans":[{"emiAmount":5000}]}`,
			validateOutput: func(t *testing.T, p ApplicantProfile) {
				assert.True(t, p.MonthlyIncome.IsZero())
				assert.Equal(t, 0.0, Extract(p).DTIRatio)
			},
		},
		{
			name: "fractional month count truncates",
			doc:  `{"creditAccountAgeMonths":36.5,"recentCreditInquiries":"2"}`,
			validateOutput: func(t *testing.T, p ApplicantProfile) {
				assert.Equal(t, 36, p.CreditAccountAgeMonths)
				assert.Equal(t, 2, p.RecentCreditInquiries)
			},
		},
		{
			name: "huge exponent is unreadable",
			doc:  `{"creditScore":1e999999}`,
			validateOutput: func(t *testing.T, p ApplicantProfile) {
				assert.Zero(t, p.CreditScore)
			},
		},
		{
			name: "malformed loan entries",
			doc:  `{"activeLoans":[{"emiAmount":"12000.5","missedPayments":"2","hasPrepayments":"true"},42,{"emiAmount":true}]}`,
			validateOutput: func(t *testing.T, p ApplicantProfile) {
				require.Len(t, p.ActiveLoans, 3)
				assert.True(t, p.ActiveLoans[0].EMIAmount.Equal(decimal.RequireFromString("12000.5")))
				assert.Equal(t, 2, p.ActiveLoans[0].MissedPayments)
				assert.True(t, p.ActiveLoans[0].HasPrepayments)
				assert.Equal(t, LoanObligation{}, p.ActiveLoans[1])
				assert.True(t, p.ActiveLoans[2].EMIAmount.IsZero())
				assert.Equal(t, 12000.5, Extract(p).TotalEMI)
			},
		},
		{
			name: "loans that are not a list",
			doc:  `{"activeLoans":"none","creditCards":{"limit":1000}}`,
			validateOutput: func(t *testing.T, p ApplicantProfile) {
				assert.Nil(t, p.ActiveLoans)
				assert.Nil(t, p.CreditCards)
			},
		},
		{
			name: "card fields as strings",
			doc:  `{"creditCards":[{"limit":"1000","utilizationRatio":"0.4"},{"limit":"unknown","utilizationRatio":0.9}]}`,
			validateOutput: func(t *testing.T, p ApplicantProfile) {
				require.Len(t, p.CreditCards, 2)
				assert.Equal(t, 0.4, p.CreditCards[0].UtilizationRatio)
				assert.True(t, p.CreditCards[1].Limit.IsZero())
				assert.InDelta(t, 0.4, Extract(p).CreditUtilization, 1e-12)
			},
		},
		{
			name: "assets that are not an object",
			doc:  `{"investmentAssets":[1,2],"applicantId":1042}`,
			validateOutput: func(t *testing.T, p ApplicantProfile) {
				assert.True(t, p.InvestmentAssets.Total().IsZero())
				assert.Equal(t, "1042", p.ApplicantID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p ApplicantProfile
			require.NoError(t, json.Unmarshal([]byte(tt.doc), &p))
			tt.validateOutput(t, p)
		})
	}
}

func TestApplicantProfile_RejectsNonObject(t *testing.T) {
	for _, doc := range []string{`"high"`, `[1,2,3]`, `42`} {
		var p ApplicantProfile
		assert.Error(t, json.Unmarshal([]byte(doc), &p), doc)
	}
}

func TestApplicantProfile_RoundTrip(t *testing.T) {
	p := createTestProfile(700, 50000, 10000, 0.9, EmploymentPermanent)
	p.CreditCards = []CreditCard{{Limit: dec(1000), UtilizationRatio: 0.5}}
	p.InvestmentAssets.Deposits = dec(2500)

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var got ApplicantProfile
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, Extract(p), Extract(got))
	assert.Equal(t, p.ApplicantID, got.ApplicantID)
}

func TestApplicantProfile_CloneDoesNotAlias(t *testing.T) {
	p := createTestProfile(700, 50000, 10000, 0.9, EmploymentPermanent)
	p.CreditCards = []CreditCard{{Limit: dec(1000), UtilizationRatio: 0.5}}

	c := p.Clone()
	c.ActiveLoans[0].EMIAmount = dec(1)
	c.CreditCards[0].UtilizationRatio = 0.9

	assert.True(t, p.ActiveLoans[0].EMIAmount.Equal(dec(10000)))
	assert.Equal(t, 0.5, p.CreditCards[0].UtilizationRatio)
}

func TestProfileOverrides_Apply(t *testing.T) {
	base := ApplicantProfile{
		CreditScore:   640,
		MonthlyIncome: dec(50000),
		ActiveLoans: []LoanObligation{
			{EMIAmount: dec(6000)},
			{EMIAmount: dec(4000)},
		},
		CreditCards: []CreditCard{{Limit: dec(1000), UtilizationRatio: 0.9}},
	}

	score := 700
	emi := dec(5000)
	util := 0.2
	employment := EmploymentSelfEmployed
	out := ProfileOverrides{
		CreditScore:       &score,
		TotalEMI:          &emi,
		CreditUtilization: &util,
		EmploymentType:    &employment,
	}.Apply(base)

	assert.Equal(t, 700, out.CreditScore)
	assert.True(t, out.ActiveLoans[0].EMIAmount.Equal(dec(3000)))
	assert.True(t, out.ActiveLoans[1].EMIAmount.Equal(dec(2000)))
	assert.Equal(t, 0.2, out.CreditCards[0].UtilizationRatio)
	assert.Equal(t, EmploymentSelfEmployed, out.EmploymentType)

	// base untouched
	assert.Equal(t, 640, base.CreditScore)
	assert.True(t, base.ActiveLoans[0].EMIAmount.Equal(dec(6000)))
	assert.Equal(t, 0.9, base.CreditCards[0].UtilizationRatio)
}

func TestProfileOverrides_TotalEMIWithoutObligations(t *testing.T) {
	emi := dec(2500)
	out := ProfileOverrides{TotalEMI: &emi}.Apply(ApplicantProfile{MonthlyIncome: dec(10000)})

	require.Len(t, out.ActiveLoans, 1)
	assert.True(t, out.TotalEMI().Equal(dec(2500)))
	assert.InDelta(t, 0.25, Extract(out).DTIRatio, 1e-12)
}

func TestProfileOverrides_TotalEMIIgnoresNegativeObligations(t *testing.T) {
	base := ApplicantProfile{
		MonthlyIncome: dec(10000),
		ActiveLoans: []LoanObligation{
			{LoanType: "home", EMIAmount: dec(6000)},
			{LoanType: "refund", EMIAmount: dec(-2000)},
		},
	}
	require.True(t, base.TotalEMI().Equal(dec(6000)))

	emi := dec(3000)
	out := ProfileOverrides{TotalEMI: &emi}.Apply(base)

	assert.True(t, out.ActiveLoans[0].EMIAmount.Equal(dec(3000)))
	assert.True(t, out.ActiveLoans[1].EMIAmount.IsZero())
	assert.Equal(t, 3000.0, Extract(out).TotalEMI)
	assert.InDelta(t, 0.3, Extract(out).DTIRatio, 1e-12)
}

func TestProfileOverrides_UtilizationWithoutCards(t *testing.T) {
	util := 0.8
	tests := []struct {
		name  string
		cards []CreditCard
	}{
		{name: "no cards"},
		{name: "cards without limits", cards: []CreditCard{{UtilizationRatio: 0.1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := ApplicantProfile{CreditCards: tt.cards}
			out := ProfileOverrides{CreditUtilization: &util}.Apply(base)

			assert.Len(t, out.CreditCards, len(tt.cards)+1)
			assert.Equal(t, 0.8, Extract(out).CreditUtilization)
			assert.Len(t, base.CreditCards, len(tt.cards))
		})
	}
}

func TestProfileOverrides_IsEmpty(t *testing.T) {
	assert.True(t, ProfileOverrides{}.IsEmpty())
	ratio := 0.95
	assert.False(t, ProfileOverrides{OnTimePaymentRatio: &ratio}.IsEmpty())
}

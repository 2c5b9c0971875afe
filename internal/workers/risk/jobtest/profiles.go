package jobtest

import (
	"credit-risk-workers/internal/risk"

	"github.com/shopspring/decimal"
)

// Profile builds an applicant with a single personal loan carrying emi.
func Profile(id string, score int, income, emi, payment float64, employment risk.EmploymentType) risk.ApplicantProfile {
	p := risk.ApplicantProfile{
		ApplicantID:        id,
		CreditScore:        score,
		MonthlyIncome:      decimal.NewFromFloat(income),
		OnTimePaymentRatio: payment,
		EmploymentType:     employment,
	}
	if emi > 0 {
		p.ActiveLoans = []risk.LoanObligation{{LoanType: "personal", EMIAmount: decimal.NewFromFloat(emi)}}
	}
	return p
}

// StrongApplicant is approved with predicted risk 14.75 under the default configuration.
func StrongApplicant() risk.ApplicantProfile {
	return Profile("applicant-strong", 780, 100000, 15000, 0.98, risk.EmploymentPermanent)
}

// RejectedApplicant sits below the credit score floor with predicted risk 72.5.
func RejectedApplicant() risk.ApplicantProfile {
	return Profile("applicant-rejected", 520, 40000, 10000, 0.90, risk.EmploymentUnknown)
}

// NearPrimeApplicant is conditionally approved.
func NearPrimeApplicant() risk.ApplicantProfile {
	return Profile("applicant-near-prime", 620, 60000, 20000, 0.85, risk.EmploymentUnknown)
}

package risk

// Signal is an informational observation about the raw profile. Signals never affect the score.
type Signal string

const (
	SignalHighCreditUtilization  Signal = "HIGH_CREDIT_UTILIZATION"
	SignalRepeatedMissedPayments Signal = "REPEATED_MISSED_PAYMENTS"
	SignalContractEmployment     Signal = "CONTRACT_EMPLOYMENT"
	SignalPrepaymentHistory      Signal = "PREPAYMENT_HISTORY"
	SignalElevatedInquiries      Signal = "ELEVATED_INQUIRIES"
)

func (e *Engine) signals(p ApplicantProfile, fv FeatureVector) []Signal {
	cfg := e.cfg.Signals
	out := []Signal{}

	if fv.CreditUtilization > cfg.HighUtilization {
		out = append(out, SignalHighCreditUtilization)
	}
	if p.TotalMissedPayments() > cfg.MissedPayments {
		out = append(out, SignalRepeatedMissedPayments)
	}
	if fv.EmploymentType == EmploymentContract {
		out = append(out, SignalContractEmployment)
	}
	for _, l := range p.ActiveLoans {
		if l.HasPrepayments {
			out = append(out, SignalPrepaymentHistory)
			break
		}
	}
	if fv.Inquiries >= cfg.ElevatedInquiries {
		out = append(out, SignalElevatedInquiries)
	}
	return out
}

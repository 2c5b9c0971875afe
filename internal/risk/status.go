package risk

import (
	"errors"
	"fmt"
)

// FactorStatus grades a factor's raw value for display.
type FactorStatus string

const (
	StatusExcellent FactorStatus = "EXCELLENT"
	StatusGood      FactorStatus = "GOOD"
	StatusWarning   FactorStatus = "WARNING"
	StatusPoor      FactorStatus = "POOR"
)

func (s FactorStatus) Valid() bool {
	switch s {
	case StatusExcellent, StatusGood, StatusWarning, StatusPoor:
		return true
	}
	return false
}

const (
	StatusCreditScoreExcellent = 750.0
	StatusCreditScoreGood      = 650.0
	StatusCreditScoreWarning   = 550.0
	StatusDTIExcellent         = 0.30
	StatusDTIGood              = 0.40
	StatusDTIWarning           = 0.50
	StatusPaymentExcellent     = 0.95
	StatusPaymentGood          = 0.85
	StatusPaymentWarning       = 0.75
	StatusUtilizationExcellent = 0.30
	StatusUtilizationGood      = 0.50
	StatusUtilizationWarning   = 0.70
)

// StatusThresholds are the three cut points between the four grades. For
// features where higher is better a value at or above a cut point earns that
// grade; for the others a value at or below it does.
type StatusThresholds struct {
	Excellent float64 `mapstructure:"excellent" yaml:"excellent" json:"excellent"`
	Good      float64 `mapstructure:"good" yaml:"good" json:"good"`
	Warning   float64 `mapstructure:"warning" yaml:"warning" json:"warning"`
}

func (t StatusThresholds) grade(v float64, higherIsBetter bool) FactorStatus {
	if higherIsBetter {
		switch {
		case v >= t.Excellent:
			return StatusExcellent
		case v >= t.Good:
			return StatusGood
		case v >= t.Warning:
			return StatusWarning
		}
		return StatusPoor
	}
	switch {
	case v <= t.Excellent:
		return StatusExcellent
	case v <= t.Good:
		return StatusGood
	case v <= t.Warning:
		return StatusWarning
	}
	return StatusPoor
}

func (t StatusThresholds) validate(higherIsBetter bool, lo, hi float64) error {
	for _, v := range []float64{t.Excellent, t.Good, t.Warning} {
		if !isFinite(v) || v < lo || v > hi {
			return fmt.Errorf("threshold %g outside [%g,%g]", v, lo, hi)
		}
	}
	if higherIsBetter && !(t.Excellent > t.Good && t.Good > t.Warning) {
		return errors.New("thresholds must strictly decrease from excellent to warning")
	}
	if !higherIsBetter && !(t.Excellent < t.Good && t.Good < t.Warning) {
		return errors.New("thresholds must strictly increase from excellent to warning")
	}
	return nil
}

type EmploymentStatuses struct {
	Permanent    FactorStatus `mapstructure:"permanent" yaml:"permanent" json:"permanent"`
	Contract     FactorStatus `mapstructure:"contract" yaml:"contract" json:"contract"`
	SelfEmployed FactorStatus `mapstructure:"self_employed" yaml:"self_employed" json:"selfEmployed"`
	Unknown      FactorStatus `mapstructure:"unknown" yaml:"unknown" json:"unknown"`
}

func (e EmploymentStatuses) For(t EmploymentType) FactorStatus {
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

// StatusBands grades the weighted factors. Features without bands carry no status.
type StatusBands struct {
	CreditScore       StatusThresholds   `mapstructure:"credit_score" yaml:"credit_score" json:"creditScore"`
	DTIRatio          StatusThresholds   `mapstructure:"dti_ratio" yaml:"dti_ratio" json:"dtiRatio"`
	PaymentHistory    StatusThresholds   `mapstructure:"payment_history" yaml:"payment_history" json:"paymentHistory"`
	CreditUtilization StatusThresholds   `mapstructure:"credit_utilization" yaml:"credit_utilization" json:"creditUtilization"`
	Employment        EmploymentStatuses `mapstructure:"employment" yaml:"employment" json:"employment"`
}

func DefaultStatusBands() StatusBands {
	return StatusBands{
		CreditScore:       StatusThresholds{Excellent: StatusCreditScoreExcellent, Good: StatusCreditScoreGood, Warning: StatusCreditScoreWarning},
		DTIRatio:          StatusThresholds{Excellent: StatusDTIExcellent, Good: StatusDTIGood, Warning: StatusDTIWarning},
		PaymentHistory:    StatusThresholds{Excellent: StatusPaymentExcellent, Good: StatusPaymentGood, Warning: StatusPaymentWarning},
		CreditUtilization: StatusThresholds{Excellent: StatusUtilizationExcellent, Good: StatusUtilizationGood, Warning: StatusUtilizationWarning},
		Employment: EmploymentStatuses{
			Permanent:    StatusGood,
			Contract:     StatusWarning,
			SelfEmployed: StatusWarning,
			Unknown:      StatusWarning,
		},
	}
}

// Status grades a contribution's raw value.
func (b StatusBands) Status(c Contribution) FactorStatus {
	switch c.Feature {
	case FeatureCreditScore:
		return b.CreditScore.grade(c.RawValue, true)
	case FeatureDTIRatio:
		return b.DTIRatio.grade(c.RawValue, false)
	case FeaturePaymentHistory:
		return b.PaymentHistory.grade(c.RawValue, true)
	case FeatureCreditUtilization:
		return b.CreditUtilization.grade(c.RawValue, false)
	case FeatureEmploymentType:
		return b.Employment.For(EmploymentType(c.RawLabel))
	}
	return ""
}

func (b StatusBands) validate() error {
	var errs []error
	checks := []struct {
		name           string
		t              StatusThresholds
		higherIsBetter bool
		lo, hi         float64
	}{
		{"status_bands.credit_score", b.CreditScore, true, MinCreditScore, MaxCreditScore},
		{"status_bands.dti_ratio", b.DTIRatio, false, 0, 1},
		{"status_bands.payment_history", b.PaymentHistory, true, 0, 1},
		{"status_bands.credit_utilization", b.CreditUtilization, false, 0, 1},
	}
	for _, c := range checks {
		if err := c.t.validate(c.higherIsBetter, c.lo, c.hi); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	for _, s := range []FactorStatus{b.Employment.Permanent, b.Employment.Contract, b.Employment.SelfEmployed, b.Employment.Unknown} {
		if !s.Valid() {
			errs = append(errs, fmt.Errorf("status_bands.employment: unknown status %q", s))
			break
		}
	}
	return errors.Join(errs...)
}

// ThresholdBound says whether a policy threshold is a lower or an upper limit.
type ThresholdBound string

const (
	BoundMinimum ThresholdBound = "MINIMUM"
	BoundMaximum ThresholdBound = "MAXIMUM"
)

// FactorThreshold is the hard floor a factor is checked against.
type FactorThreshold struct {
	Bound ThresholdBound `json:"bound" yaml:"bound"`
	Value float64        `json:"value" yaml:"value"`
}

func (p PolicyConfig) threshold(f FeatureName) *FactorThreshold {
	switch f {
	case FeatureCreditScore:
		return &FactorThreshold{Bound: BoundMinimum, Value: float64(p.CreditScoreFloor)}
	case FeatureDTIRatio:
		return &FactorThreshold{Bound: BoundMaximum, Value: p.DTICeiling}
	case FeaturePaymentHistory:
		return &FactorThreshold{Bound: BoundMinimum, Value: p.PaymentHistoryFloor}
	}
	return nil
}

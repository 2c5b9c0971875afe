package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusBands_Status(t *testing.T) {
	b := DefaultStatusBands()

	tests := []struct {
		name     string
		c        Contribution
		expected FactorStatus
	}{
		{"score at excellent edge", Contribution{Feature: FeatureCreditScore, RawValue: 750}, StatusExcellent},
		{"score just below excellent", Contribution{Feature: FeatureCreditScore, RawValue: 749}, StatusGood},
		{"score at good edge", Contribution{Feature: FeatureCreditScore, RawValue: 650}, StatusGood},
		{"score at warning edge", Contribution{Feature: FeatureCreditScore, RawValue: 550}, StatusWarning},
		{"score below warning", Contribution{Feature: FeatureCreditScore, RawValue: 549}, StatusPoor},
		{"dti at excellent edge", Contribution{Feature: FeatureDTIRatio, RawValue: 0.30}, StatusExcellent},
		{"dti just above excellent", Contribution{Feature: FeatureDTIRatio, RawValue: 0.31}, StatusGood},
		{"dti at warning edge", Contribution{Feature: FeatureDTIRatio, RawValue: 0.50}, StatusWarning},
		{"dti above warning", Contribution{Feature: FeatureDTIRatio, RawValue: 0.51}, StatusPoor},
		{"payment at excellent edge", Contribution{Feature: FeaturePaymentHistory, RawValue: 0.95}, StatusExcellent},
		{"payment at good edge", Contribution{Feature: FeaturePaymentHistory, RawValue: 0.85}, StatusGood},
		{"payment at warning edge", Contribution{Feature: FeaturePaymentHistory, RawValue: 0.75}, StatusWarning},
		{"payment below warning", Contribution{Feature: FeaturePaymentHistory, RawValue: 0.74}, StatusPoor},
		{"utilization at good edge", Contribution{Feature: FeatureCreditUtilization, RawValue: 0.50}, StatusGood},
		{"utilization at warning edge", Contribution{Feature: FeatureCreditUtilization, RawValue: 0.70}, StatusWarning},
		{"utilization maxed", Contribution{Feature: FeatureCreditUtilization, RawValue: 0.95}, StatusPoor},
		{"permanent employment", Contribution{Feature: FeatureEmploymentType, RawLabel: "Permanent"}, StatusGood},
		{"contract employment", Contribution{Feature: FeatureEmploymentType, RawLabel: "Contract"}, StatusWarning},
		{"unknown employment", Contribution{Feature: FeatureEmploymentType, RawLabel: "Unknown"}, StatusWarning},
		{"assets are not graded", Contribution{Feature: FeatureTotalAssets, RawValue: 1e6}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, b.Status(tt.c))
		})
	}
}

func TestStatusBands_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(b *StatusBands)
		wantErr string
	}{
		{
			name:    "score thresholds out of order",
			mutate:  func(b *StatusBands) { b.CreditScore.Good = 760 },
			wantErr: "status_bands.credit_score: thresholds must strictly decrease",
		},
		{
			name:    "dti thresholds out of order",
			mutate:  func(b *StatusBands) { b.DTIRatio.Warning = 0.35 },
			wantErr: "status_bands.dti_ratio: thresholds must strictly increase",
		},
		{
			name:    "ratio threshold outside domain",
			mutate:  func(b *StatusBands) { b.PaymentHistory.Excellent = 1.2 },
			wantErr: "status_bands.payment_history",
		},
		{
			name:    "unknown employment status",
			mutate:  func(b *StatusBands) { b.Employment.Contract = "FAIR" },
			wantErr: "status_bands.employment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg.StatusBands)
			_, err := NewEngine(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEngine_Explain_StatusAndThreshold(t *testing.T) {
	e := createTestEngine(t)
	a := e.Assess(createTestProfile(620, 60000, 20000, 0.85, ""))

	byFeature := map[FeatureName]RankedFactor{}
	for _, f := range a.PrimaryFactors {
		byFeature[f.Feature] = f
	}

	assert.Equal(t, StatusWarning, byFeature[FeatureCreditScore].Status)
	assert.Equal(t, StatusGood, byFeature[FeatureDTIRatio].Status)
	assert.Equal(t, StatusGood, byFeature[FeaturePaymentHistory].Status)
	assert.Equal(t, StatusExcellent, byFeature[FeatureCreditUtilization].Status)
	assert.Equal(t, StatusWarning, byFeature[FeatureEmploymentType].Status)
	assert.Empty(t, byFeature[FeatureInquiries].Status)

	assert.Equal(t, &FactorThreshold{Bound: BoundMinimum, Value: DefaultCreditScoreFloor}, byFeature[FeatureCreditScore].Threshold)
	assert.Equal(t, &FactorThreshold{Bound: BoundMaximum, Value: DefaultDTICeiling}, byFeature[FeatureDTIRatio].Threshold)
	assert.Equal(t, &FactorThreshold{Bound: BoundMinimum, Value: DefaultPaymentHistoryFloor}, byFeature[FeaturePaymentHistory].Threshold)
	assert.Nil(t, byFeature[FeatureEmploymentType].Threshold)
}

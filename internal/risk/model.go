package risk

// Impact labels the direction of a contribution.
type Impact string

const (
	// ImpactPositive reduces risk (favourable). Zero contributions are labelled positive.
	ImpactPositive Impact = "POSITIVE"
	// ImpactNegative increases risk.
	ImpactNegative Impact = "NEGATIVE"
)

func impactOf(v float64) Impact {
	if v > 0 {
		return ImpactNegative
	}
	return ImpactPositive
}

// Contribution is one feature's signed effect on risk relative to its baseline.
type Contribution struct {
	Feature            FeatureName `json:"feature" yaml:"feature"`
	RawValue           float64     `json:"rawValue" yaml:"rawValue"`
	RawLabel           string      `json:"rawLabel,omitempty" yaml:"rawLabel,omitempty"`
	SignedContribution float64     `json:"signedContribution" yaml:"signedContribution"`
	Impact             Impact      `json:"impact" yaml:"impact"`
}

// Attribute computes every feature contribution in FeatureOrder.
// Contributions are never clamped.
func (e *Engine) Attribute(fv FeatureVector) []Contribution {
	out := make([]Contribution, 0, len(FeatureOrder))
	for _, f := range FeatureOrder {
		c := Contribution{Feature: f, RawValue: fv.Value(f)}
		if f == FeatureEmploymentType {
			c.RawLabel = string(fv.EmploymentType)
			c.SignedContribution = e.cfg.Employment.For(fv.EmploymentType)
		} else {
			c.SignedContribution = e.curves[f].Contribution(c.RawValue)
		}
		c.Impact = impactOf(c.SignedContribution)
		out = append(out, c)
	}
	return out
}

// RawRisk is the base value plus every contribution, before clamping.
func (e *Engine) RawRisk(contributions []Contribution) float64 {
	total := e.cfg.BaseValue
	for _, c := range contributions {
		total += c.SignedContribution
	}
	return total
}

// PredictedRisk is the clamped aggregate risk for a feature vector.
func (e *Engine) PredictedRisk(fv FeatureVector) float64 {
	return clampRisk(e.RawRisk(e.Attribute(fv)))
}

func clampRisk(v float64) float64 {
	return clamp(v, 0, 100)
}

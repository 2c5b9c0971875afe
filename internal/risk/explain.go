package risk

import (
	"math"
	"sort"
)

// RankedFactor is a contribution placed in the primary-factors list.
type RankedFactor struct {
	Contribution  `yaml:",inline"`
	Rank          int              `json:"rank" yaml:"rank"`
	WeightPercent float64          `json:"weightPercent" yaml:"weightPercent"`
	Status        FactorStatus     `json:"status,omitempty" yaml:"status,omitempty"`
	Threshold     *FactorThreshold `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// FactorSummary splits factors into mitigating (risk-reducing) and adverse (risk-increasing).
type FactorSummary struct {
	TopRiskReducing   []FeatureName `json:"topRiskReducing" yaml:"topRiskReducing"`
	TopRiskIncreasing []FeatureName `json:"topRiskIncreasing" yaml:"topRiskIncreasing"`
	MitigatingPoints  float64       `json:"mitigatingPoints" yaml:"mitigatingPoints"`
	AdversePoints     float64       `json:"adversePoints" yaml:"adversePoints"`
}

// Explain ranks contributions by absolute magnitude, largest first. Equal
// magnitudes keep their FeatureOrder position. Graded factors carry a status
// and, where a hard floor applies, its threshold.
func (e *Engine) Explain(contributions []Contribution) []RankedFactor {
	ranked := make([]RankedFactor, len(contributions))
	for i, c := range contributions {
		ranked[i] = RankedFactor{
			Contribution:  c,
			WeightPercent: e.cfg.Weights.For(c.Feature),
			Status:        e.cfg.StatusBands.Status(c),
			Threshold:     e.cfg.Policy.threshold(c.Feature),
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return math.Abs(ranked[i].SignedContribution) > math.Abs(ranked[j].SignedContribution)
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Summarize builds the mitigating/adverse split from an already ranked list.
func (e *Engine) Summarize(ranked []RankedFactor) FactorSummary {
	s := FactorSummary{
		TopRiskReducing:   []FeatureName{},
		TopRiskIncreasing: []FeatureName{},
	}
	for _, f := range ranked {
		switch {
		case f.SignedContribution < 0:
			s.MitigatingPoints += -f.SignedContribution
			if len(s.TopRiskReducing) < e.cfg.TopFactors {
				s.TopRiskReducing = append(s.TopRiskReducing, f.Feature)
			}
		case f.SignedContribution > 0:
			s.AdversePoints += f.SignedContribution
			if len(s.TopRiskIncreasing) < e.cfg.TopFactors {
				s.TopRiskIncreasing = append(s.TopRiskIncreasing, f.Feature)
			}
		}
	}
	return s
}

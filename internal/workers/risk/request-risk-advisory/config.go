// internal/workers/risk/request-risk-advisory/config.go
package requestriskadvisory

import (
	"time"

	"credit-risk-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// RequireAdvisor fails the job when the advisor cannot answer instead of
	// keeping the local decision.
	RequireAdvisor bool
}

func LoadConfig(wc config.WorkerConfig, ac config.AdvisorConfig) *Config {
	return &Config{
		Timeout:        config.GetDuration(wc.Timeout),
		RequireAdvisor: ac.Enabled && ac.Required,
	}
}

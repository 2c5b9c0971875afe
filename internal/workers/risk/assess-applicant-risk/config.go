// internal/workers/risk/assess-applicant-risk/config.go
package assessapplicantrisk

import (
	"time"

	"credit-risk-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(wc config.WorkerConfig) *Config {
	return &Config{
		Timeout: config.GetDuration(wc.Timeout),
	}
}

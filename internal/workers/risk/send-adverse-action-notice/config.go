// internal/workers/risk/send-adverse-action-notice/config.go
package sendadverseactionnotice

import (
	"time"

	"credit-risk-workers/internal/common/config"
)

const defaultSubject = "An update on your credit application"

type Config struct {
	Timeout time.Duration
	Subject string
}

func LoadConfig(wc config.WorkerConfig) *Config {
	return &Config{
		Timeout: config.GetDuration(wc.Timeout),
		Subject: defaultSubject,
	}
}

// internal/workers/risk/generate-counterfactuals/handler.go
package generatecounterfactuals

import (
	"context"

	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/common/metrics"
	"credit-risk-workers/internal/common/observability"
	"credit-risk-workers/internal/risk"
	"credit-risk-workers/internal/workers/risk/runner"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "generate-counterfactuals"
)

type Handler struct {
	config   *Config
	engine   *risk.Engine
	profiles runner.ProfileLoader
	runner   *runner.Runner
}

func NewHandler(config *Config, engine *risk.Engine, profiles runner.ProfileLoader, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		engine:   engine,
		profiles: profiles,
		runner:   runner.New(TaskType, config.Timeout, log, obs),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	var input Input
	return h.runner.Run(client, job, &input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx, &input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	profile, err := input.Resolve(ctx, h.profiles)
	if err != nil {
		return nil, err
	}

	baseline := h.engine.Assess(profile)
	scenarios := h.engine.CounterfactualsFrom(profile, baseline)

	flips := 0
	for _, s := range scenarios {
		metrics.RecordScenario(s.Description, s.DecisionChanged)
		if s.DecisionChanged {
			flips++
		}
	}

	h.runner.Logger().Debug("counterfactuals generated", map[string]interface{}{
		"applicantId":   profile.ApplicantID,
		"scenarios":     len(scenarios),
		"decisionFlips": flips,
	})

	return &Output{
		ApplicantID:      profile.ApplicantID,
		BaselineDecision: baseline.Decision,
		BaselineRisk:     baseline.PredictedRisk,
		Scenarios:        scenarios,
		DecisionFlips:    flips,
	}, nil
}

// internal/workers/risk/simulate-applicant-risk/handler.go
package simulateapplicantrisk

import (
	"context"

	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/common/observability"
	"credit-risk-workers/internal/risk"
	"credit-risk-workers/internal/workers/risk/runner"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "simulate-applicant-risk"
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

// Execute assesses the base profile and the overridden copy. The stored
// profile is never modified.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	profile, err := input.Resolve(ctx, h.profiles)
	if err != nil {
		return nil, err
	}

	baseline := h.engine.Assess(profile)
	simulated := h.engine.Simulate(profile, input.Overrides)

	return &Output{
		Assessment:       simulated,
		Decision:         simulated.Decision,
		PredictedRisk:    simulated.PredictedRisk,
		BaselineDecision: baseline.Decision,
		BaselineRisk:     baseline.PredictedRisk,
		RiskDelta:        simulated.PredictedRisk - baseline.PredictedRisk,
		DecisionChanged:  simulated.Decision != baseline.Decision,
	}, nil
}

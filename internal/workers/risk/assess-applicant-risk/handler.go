// internal/workers/risk/assess-applicant-risk/handler.go
package assessapplicantrisk

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
	TaskType = "assess-applicant-risk"
)

type Handler struct {
	config   *Config
	engine   *risk.Engine
	profiles runner.ProfileLoader
	runner   *runner.Runner
}

// NewHandler wires the worker. profiles may be nil, in which case every job
// must carry its profile inline.
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

	a := h.engine.Assess(profile)

	h.runner.Logger().Debug("applicant assessed", map[string]interface{}{
		"applicantId":   profile.ApplicantID,
		"decision":      string(a.Decision),
		"predictedRisk": a.PredictedRisk,
	})

	return &Output{
		Assessment:        a,
		Decision:          a.Decision,
		PredictedRisk:     a.PredictedRisk,
		DecisionReasons:   a.DecisionReasons,
		TopRiskIncreasing: a.Summary.TopRiskIncreasing,
	}, nil
}

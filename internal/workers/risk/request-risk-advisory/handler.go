// internal/workers/risk/request-risk-advisory/handler.go
package requestriskadvisory

import (
	"context"
	"fmt"

	"credit-risk-workers/internal/advisor"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/common/observability"
	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/workers/risk/runner"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "request-risk-advisory"
)

// Advisor is the remote advisory service.
type Advisor interface {
	Advise(ctx context.Context, req advisor.AdviceRequest) (*advisor.Advice, error)
}

type Handler struct {
	config  *Config
	advisor Advisor
	runner  *runner.Runner
}

// NewHandler wires the worker. A nil advisor keeps every local decision.
func NewHandler(config *Config, adv Advisor, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		advisor: adv,
		runner:  runner.New(TaskType, config.Timeout, log, obs),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	var input Input
	return h.runner.Run(client, job, &input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx, &input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	a := input.Assessment
	if !a.Decision.Valid() {
		return nil, fmt.Errorf("%w: assessment.decision %q", runner.ErrInvalidInput, a.Decision)
	}
	if a.ApplicantID == "" {
		a.ApplicantID = input.ApplicantID
	}

	local := &Output{
		FinalDecision:  a.Decision,
		DecisionSource: models.DecisionSourceLocal,
		LocalDecision:  a.Decision,
	}
	if h.advisor == nil {
		return local, nil
	}

	advice, err := h.advisor.Advise(ctx, advisor.NewAdviceRequest(a))
	if err != nil {
		if h.config.RequireAdvisor {
			return nil, err
		}
		code := runner.ToStandardError(err).Code
		h.runner.Logger().Warn("advisor failed, keeping local decision", map[string]interface{}{
			"applicantId": a.ApplicantID,
			"errorCode":   string(code),
			"error":       err.Error(),
		})
		local.AdvisorError = string(code)
		return local, nil
	}

	advisorRisk := advice.PredictedRisk
	if advice.Decision != a.Decision {
		h.runner.Logger().Info("advisor overrode local decision", map[string]interface{}{
			"applicantId":   a.ApplicantID,
			"localDecision": string(a.Decision),
			"finalDecision": string(advice.Decision),
		})
	}
	return &Output{
		FinalDecision:  advice.Decision,
		DecisionSource: models.DecisionSourceAdvisor,
		LocalDecision:  a.Decision,
		Narrative:      advice.Narrative,
		AdvisorModel:   advice.Model,
		AdvisorRisk:    &advisorRisk,
	}, nil
}

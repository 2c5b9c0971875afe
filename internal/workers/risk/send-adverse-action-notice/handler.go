// internal/workers/risk/send-adverse-action-notice/handler.go
package sendadverseactionnotice

import (
	"context"
	"fmt"
	"strings"

	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/common/observability"
	"credit-risk-workers/internal/common/validation"
	"credit-risk-workers/internal/workers/risk/runner"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "send-adverse-action-notice"
)

type Sender interface {
	SendText(ctx context.Context, to, subject, body string) (string, error)
}

type Handler struct {
	config *Config
	sender Sender
	runner *runner.Runner
}

// NewHandler wires the worker. A nil sender completes every job without sending.
func NewHandler(config *Config, sender Sender, obs *observability.Observability, log logger.Logger) *Handler {
	if config.Subject == "" {
		config.Subject = defaultSubject
	}
	return &Handler{
		config: config,
		sender: sender,
		runner: runner.New(TaskType, config.Timeout, log, obs),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	var input Input
	return h.runner.Run(client, job, &input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx, &input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	decision := input.FinalDecision
	if decision == "" {
		decision = input.Assessment.Decision
	}
	if !decision.Valid() {
		return nil, fmt.Errorf("%w: no valid decision to notify about", runner.ErrInvalidInput)
	}

	if !adverseDecision(decision) {
		return &Output{Decision: decision, SkippedReason: SkipNotAdverse}, nil
	}
	if h.sender == nil {
		h.runner.Logger().Warn("adverse action notice not sent, sender disabled", map[string]interface{}{
			"applicantId": input.ApplicantID,
		})
		return &Output{Decision: decision, SkippedReason: SkipDisabled}, nil
	}

	email := strings.TrimSpace(input.Email)
	if !validation.ValidateEmail(email) {
		return nil, fmt.Errorf("%w: invalid email %q", runner.ErrInvalidInput, input.Email)
	}

	applicantID := input.ApplicantID
	if applicantID == "" {
		applicantID = input.Assessment.ApplicantID
	}
	body, err := renderNotice(applicantID, decision, input.Assessment)
	if err != nil {
		return nil, fmt.Errorf("render notice: %w", err)
	}

	messageID, err := h.sender.SendText(ctx, email, h.config.Subject, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", runner.ErrNotificationFailed, err)
	}

	h.runner.Logger().Info("adverse action notice sent", map[string]interface{}{
		"applicantId": applicantID,
		"decision":    string(decision),
		"messageId":   messageID,
	})
	return &Output{NoticeSent: true, Decision: decision, MessageID: messageID}, nil
}

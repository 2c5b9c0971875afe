// internal/workers/risk/record-risk-decision/handler.go
package recordriskdecision

import (
	"context"
	"fmt"
	"time"

	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/common/metrics"
	"credit-risk-workers/internal/common/observability"
	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/workers/risk/runner"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "record-risk-decision"
)

type RecordStore interface {
	Insert(ctx context.Context, r models.AssessmentRecord) error
}

type AuditIndex interface {
	Index(ctx context.Context, r models.AssessmentRecord) error
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, eventType string, event interface{}) (string, error)
}

type Handler struct {
	config    *Config
	store     RecordStore
	index     AuditIndex
	publisher EventPublisher
	runner    *runner.Runner
	now       func() time.Time
}

// NewHandler wires the worker. index and publisher are optional; the store is not.
func NewHandler(config *Config, store RecordStore, index AuditIndex, publisher EventPublisher, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		store:     store,
		index:     index,
		publisher: publisher,
		runner:    runner.New(TaskType, config.Timeout, log, obs),
		now:       time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	var input Input
	return h.runner.Run(client, job, &input, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx, &input)
	})
}

// Execute persists the record, then indexes and publishes it. Only the
// insert can fail the job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	source := input.DecisionSource
	if source == "" {
		source = models.DecisionSourceLocal
	}
	record := models.NewAssessmentRecord(input.ApplicantID, input.Assessment, input.FinalDecision, source, h.now())
	if record.ApplicantID == "" {
		return nil, fmt.Errorf("%w: applicantId is required", runner.ErrInvalidInput)
	}

	if err := h.store.Insert(ctx, record); err != nil {
		return nil, err
	}
	metrics.RecordDecision(string(record.Decision), string(record.DecisionSource), record.PredictedRisk)

	log := h.runner.Logger().WithFields(map[string]interface{}{
		"assessmentRecordId": record.ID,
		"applicantId":        record.ApplicantID,
	})
	out := &Output{
		AssessmentRecordID: record.ID,
		FinalDecision:      record.Decision,
	}

	if h.index != nil {
		if err := h.index.Index(ctx, record); err != nil {
			log.Warn("failed to index assessment", map[string]interface{}{"error": err.Error()})
		} else {
			out.Indexed = true
		}
	}

	if h.publisher != nil {
		event := models.NewDecisionEvent(record, h.now())
		messageID, err := h.publisher.PublishJSON(ctx, event.EventType, event)
		if err != nil {
			log.Warn("failed to publish decision event", map[string]interface{}{"error": err.Error()})
		} else {
			out.Published = true
			out.EventID = event.EventID
			out.MessageID = messageID
		}
	}

	log.Info("decision recorded", map[string]interface{}{
		"decision":       string(record.Decision),
		"decisionSource": string(record.DecisionSource),
		"overridden":     record.Overridden(),
	})
	return out, nil
}

func validateInput(input *Input) error {
	if !input.Assessment.Decision.Valid() {
		return fmt.Errorf("%w: assessment.decision %q", runner.ErrInvalidInput, input.Assessment.Decision)
	}
	if input.FinalDecision != "" && !input.FinalDecision.Valid() {
		return fmt.Errorf("%w: finalDecision %q", runner.ErrInvalidInput, input.FinalDecision)
	}
	if input.DecisionSource != "" && !input.DecisionSource.Valid() {
		return fmt.Errorf("%w: decisionSource %q", runner.ErrInvalidInput, input.DecisionSource)
	}
	return nil
}

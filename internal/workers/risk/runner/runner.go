// Package runner holds the job lifecycle shared by the risk workers: decode
// variables, execute under a timeout and span, then complete or report.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/common/metrics"
	"credit-risk-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultTimeout applies when a worker is configured without one.
const DefaultTimeout = 30 * time.Second

type Runner struct {
	taskType string
	timeout  time.Duration
	logger   logger.Logger
	errors   *errors.ErrorHandler
	obs      *observability.Observability
}

// New builds a Runner. obs may be nil.
func New(taskType string, timeout time.Duration, log logger.Logger, obs *observability.Observability) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	log = log.WithFields(map[string]interface{}{"taskType": taskType})
	return &Runner{
		taskType: taskType,
		timeout:  timeout,
		logger:   log,
		errors:   errors.NewErrorHandler(log),
		obs:      obs,
	}
}

func (r *Runner) Logger() logger.Logger { return r.logger }

func (r *Runner) Timeout() time.Duration { return r.timeout }

// Run decodes the job variables into input, calls exec and reports the
// outcome to the broker. The returned error is only set when the completion
// command itself could not be sent; job failures are reported, not returned.
func (r *Runner) Run(client worker.JobClient, job entities.Job, input interface{}, exec func(ctx context.Context) (interface{}, error)) error {
	r.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})
	timer := metrics.StartJob(r.taskType)
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	ctx, span := r.obs.StartSpan(ctx, r.taskType,
		attribute.Int64("job.key", job.Key),
		attribute.Int64("workflow.key", job.ProcessInstanceKey),
	)

	if err := json.Unmarshal([]byte(job.Variables), input); err != nil {
		stdErr := errors.NewProfileParseFailedError(err)
		observability.EndSpan(span, stdErr)
		r.fail(ctx, client, job, timer, start, stdErr)
		return nil
	}

	output, err := exec(ctx)
	observability.EndSpan(span, err)
	if err != nil {
		r.fail(ctx, client, job, timer, start, ToStandardError(err))
		return nil
	}

	timer.Done("")
	r.obs.RecordJob(ctx, r.taskType, time.Since(start), "completed")
	return r.complete(client, job, output)
}

func (r *Runner) complete(client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		r.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return fmt.Errorf("create complete command: %w", err)
	}

	// a fresh context: the job timeout may already be spent
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := cmd.Send(ctx); err != nil {
		r.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return fmt.Errorf("send complete command: %w", err)
	}

	r.logger.Info("job completed", map[string]interface{}{"jobKey": job.Key})
	return nil
}

func (r *Runner) fail(ctx context.Context, client worker.JobClient, job entities.Job, timer *metrics.JobTimer, start time.Time, stdErr *errors.StandardError) {
	timer.Done(string(stdErr.Code))
	r.obs.RecordJob(ctx, r.taskType, time.Since(start), "failed")

	sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r.errors.HandleJobError(sendCtx, client, job, stdErr)
}

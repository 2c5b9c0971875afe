// internal/common/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	RiskDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_decisions_total",
			Help: "Assessments by final decision and where it came from",
		},
		[]string{"decision", "source"},
	)

	PredictedRisk = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "risk_predicted_risk",
			Help:    "Distribution of clamped predicted risk",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	CounterfactualScenarios = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_counterfactual_scenarios_total",
			Help: "Counterfactual scenarios kept, by perturbation and whether the decision changed",
		},
		[]string{"perturbation", "decision_changed"},
	)
)

// JobTimer tracks one job from activation to completion.
type JobTimer struct {
	taskType string
	start    time.Time
}

func StartJob(taskType string) *JobTimer {
	WorkerJobsActive.WithLabelValues(taskType).Inc()
	return &JobTimer{taskType: taskType, start: time.Now()}
}

// Done records the outcome. An empty errorCode counts as completed.
func (j *JobTimer) Done(errorCode string) {
	WorkerJobsActive.WithLabelValues(j.taskType).Dec()
	WorkerJobDuration.WithLabelValues(j.taskType).Observe(time.Since(j.start).Seconds())
	if errorCode == "" {
		WorkerJobsCompleted.WithLabelValues(j.taskType).Inc()
		return
	}
	WorkerJobsFailed.WithLabelValues(j.taskType, errorCode).Inc()
}

func RecordDecision(decision, source string, predictedRisk float64) {
	RiskDecisions.WithLabelValues(decision, source).Inc()
	PredictedRisk.Observe(predictedRisk)
}

func RecordScenario(perturbation string, decisionChanged bool) {
	changed := "false"
	if decisionChanged {
		changed = "true"
	}
	CounterfactualScenarios.WithLabelValues(perturbation, changed).Inc()
}

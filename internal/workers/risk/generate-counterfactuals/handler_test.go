package generatecounterfactuals

import (
	"context"
	"testing"
	"time"

	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/common/metrics"
	"credit-risk-workers/internal/risk"
	"credit-risk-workers/internal/workers/risk/jobtest"
	"credit-risk-workers/internal/workers/risk/runner"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestHandler(t *testing.T) *Handler {
	return NewHandler(&Config{Timeout: 5 * time.Second}, risk.MustNewEngine(risk.DefaultConfig()), nil, nil, logger.NewTestLogger(t))
}

func TestHandler_Execute_RejectedApplicant(t *testing.T) {
	h := createTestHandler(t)
	profile := jobtest.RejectedApplicant()
	before := testutil.ToFloat64(metrics.CounterfactualScenarios.WithLabelValues("raise_credit_score", "false"))

	out, err := h.Execute(context.Background(), &Input{ProfileInput: runner.ProfileInput{Profile: &profile}})
	require.NoError(t, err)

	assert.Equal(t, "applicant-rejected", out.ApplicantID)
	assert.Equal(t, risk.DecisionReject, out.BaselineDecision)
	assert.InDelta(t, 72.5, out.BaselineRisk, 1e-9)

	require.Len(t, out.Scenarios, 2)
	assert.Equal(t, "raise_credit_score", out.Scenarios[0].Description)
	assert.Equal(t, risk.DecisionReject, out.Scenarios[0].NewDecision)
	assert.Equal(t, "perfect_payment_history", out.Scenarios[1].Description)
	assert.Zero(t, out.DecisionFlips)

	after := testutil.ToFloat64(metrics.CounterfactualScenarios.WithLabelValues("raise_credit_score", "false"))
	assert.Equal(t, before+1, after)
}

func TestHandler_Execute_ScenariosShareBaseline(t *testing.T) {
	h := createTestHandler(t)
	profile := jobtest.NearPrimeApplicant()

	out, err := h.Execute(context.Background(), &Input{ProfileInput: runner.ProfileInput{Profile: &profile}})
	require.NoError(t, err)

	for _, s := range out.Scenarios {
		assert.Equal(t, out.BaselineRisk, s.OldRisk, s.Description)
		assert.Equal(t, out.BaselineDecision, s.OldDecision, s.Description)
		assert.Equal(t, s.NewDecision != s.OldDecision, s.DecisionChanged, s.Description)
	}
}

func TestHandler_Handle(t *testing.T) {
	client := jobtest.NewClient()
	h := createTestHandler(t)

	require.NoError(t, h.Handle(client, jobtest.NewJob(12345, TaskType, map[string]interface{}{"profile": jobtest.RejectedApplicant()})))

	var out Output
	client.CompletedVariables(t, &out)
	assert.Len(t, out.Scenarios, 2)
	assert.Zero(t, out.DecisionFlips)
}

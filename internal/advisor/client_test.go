package advisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"credit-risk-workers/internal/common/config"
	httpclient "credit-risk-workers/internal/common/http"
	"credit-risk-workers/internal/risk"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestAssessment() risk.RiskAssessment {
	return risk.MustNewEngine(risk.DefaultConfig()).Assess(risk.ApplicantProfile{
		ApplicantID:        "a-1",
		CreditScore:        620,
		MonthlyIncome:      decimal.NewFromInt(60000),
		ActiveLoans:        []risk.LoanObligation{{EMIAmount: decimal.NewFromInt(24000)}},
		OnTimePaymentRatio: 0.82,
		EmploymentType:     risk.EmploymentContract,
	})
}

func createTestClient(url string, timeout time.Duration) *Client {
	c := NewClient(config.AdvisorConfig{BaseURL: url + "/", APIKey: "secret", Timeout: int(timeout.Milliseconds()), MaxRetries: 2})
	return c.WithHTTPClient(httpclient.NewClient(timeout, 2).WithBaseDelay(time.Millisecond))
}

func TestClient_Advise(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   error
		wantCalls int32
		validate  func(t *testing.T, a *Advice)
	}{
		{
			name:      "valid advice",
			status:    http.StatusOK,
			body:      `{"decision":"MANUAL_REVIEW","predictedRisk":58.5,"narrative":"Contract income with elevated DTI.","model":"adv-2"}`,
			wantCalls: 1,
			validate: func(t *testing.T, a *Advice) {
				assert.Equal(t, risk.DecisionManualReview, a.Decision)
				assert.Equal(t, 58.5, a.PredictedRisk)
				assert.Equal(t, "adv-2", a.Model)
			},
		},
		{
			name:      "unknown decision",
			status:    http.StatusOK,
			body:      `{"decision":"MAYBE","predictedRisk":50}`,
			wantErr:   ErrAdvisorResponseInvalid,
			wantCalls: 1,
		},
		{
			name:      "risk out of range",
			status:    http.StatusOK,
			body:      `{"decision":"REJECT","predictedRisk":140}`,
			wantErr:   ErrAdvisorResponseInvalid,
			wantCalls: 1,
		},
		{
			name:      "unexpected field",
			status:    http.StatusOK,
			body:      `{"decision":"REJECT","predictedRisk":70,"override":true}`,
			wantErr:   ErrAdvisorResponseInvalid,
			wantCalls: 1,
		},
		{
			name:      "not json",
			status:    http.StatusOK,
			body:      `<html>`,
			wantErr:   ErrAdvisorResponseInvalid,
			wantCalls: 1,
		},
		{
			name:      "server errors exhaust retries",
			status:    http.StatusServiceUnavailable,
			body:      `{}`,
			wantErr:   ErrAdvisorUnavailable,
			wantCalls: 3,
		},
		{
			name:      "request rejected",
			status:    http.StatusUnprocessableEntity,
			body:      `{"error":"bad"}`,
			wantErr:   ErrAdvisorResponseInvalid,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				assert.Equal(t, "/v1/advice", r.URL.Path)
				assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

				var req AdviceRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "a-1", req.ApplicantID)
				assert.Len(t, req.Factors, len(risk.FeatureOrder))

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			advice, err := createTestClient(srv.URL, time.Second).Advise(context.Background(), NewAdviceRequest(createTestAssessment()))
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validate(t, advice)
		})
	}
}

func TestClient_Advise_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := createTestClient(srv.URL, 5*time.Second).Advise(ctx, NewAdviceRequest(createTestAssessment()))
	assert.ErrorIs(t, err, ErrAdvisorTimeout)
}

func TestNewAdviceRequest(t *testing.T) {
	a := createTestAssessment()
	req := NewAdviceRequest(a)
	assert.Equal(t, a.Decision, req.Decision)
	assert.Equal(t, a.DecisionReasons, req.Reasons)
	require.NotEmpty(t, req.Factors)
	assert.Equal(t, a.PrimaryFactors[0].Feature, req.Factors[0].Feature)
	assert.Equal(t, a.PrimaryFactors[0].Status, req.Factors[0].Status)
	assert.NotEmpty(t, req.Factors[0].Status)
}

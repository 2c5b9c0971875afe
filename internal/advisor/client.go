// Package advisor calls the remote risk advisory service. The service sees the
// structured assessment only, never free text from the applicant.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"credit-risk-workers/internal/common/config"
	httpclient "credit-risk-workers/internal/common/http"
	"credit-risk-workers/internal/risk"
)

var (
	ErrAdvisorTimeout         = errors.New("ADVISOR_TIMEOUT")
	ErrAdvisorUnavailable     = errors.New("ADVISOR_UNAVAILABLE")
	ErrAdvisorResponseInvalid = errors.New("ADVISOR_RESPONSE_INVALID")
)

const advicePath = "/v1/advice"

type Factor struct {
	Feature            risk.FeatureName  `json:"feature"`
	SignedContribution float64           `json:"signedContribution"`
	Impact             risk.Impact       `json:"impact"`
	Status             risk.FactorStatus `json:"status,omitempty"`
}

// AdviceRequest is the assessment as the advisor sees it.
type AdviceRequest struct {
	ApplicantID   string             `json:"applicantId"`
	Decision      risk.Decision      `json:"decision"`
	PredictedRisk float64            `json:"predictedRisk"`
	Reasons       []risk.ReasonCode  `json:"reasons"`
	Factors       []Factor           `json:"factors"`
	Signals       []risk.Signal      `json:"signals"`
	Features      risk.FeatureVector `json:"features"`
}

func NewAdviceRequest(a risk.RiskAssessment) AdviceRequest {
	factors := make([]Factor, 0, len(a.PrimaryFactors))
	for _, f := range a.PrimaryFactors {
		factors = append(factors, Factor{
			Feature:            f.Feature,
			SignedContribution: f.SignedContribution,
			Impact:             f.Impact,
			Status:             f.Status,
		})
	}
	return AdviceRequest{
		ApplicantID:   a.ApplicantID,
		Decision:      a.Decision,
		PredictedRisk: a.PredictedRisk,
		Reasons:       a.DecisionReasons,
		Factors:       factors,
		Signals:       a.Signals,
		Features:      a.Features,
	}
}

type Advice struct {
	Decision      risk.Decision `json:"decision"`
	PredictedRisk float64       `json:"predictedRisk"`
	Narrative     string        `json:"narrative"`
	Model         string        `json:"model,omitempty"`
}

func (a Advice) validate() error {
	switch a.Decision {
	case risk.DecisionApprove, risk.DecisionConditionalApprove, risk.DecisionReject, risk.DecisionManualReview:
	default:
		return fmt.Errorf("unknown decision %q", a.Decision)
	}
	if a.PredictedRisk < 0 || a.PredictedRisk > 100 {
		return fmt.Errorf("predictedRisk %g outside [0,100]", a.PredictedRisk)
	}
	return nil
}

type Client struct {
	baseURL string
	apiKey  string
	http    *httpclient.Client
}

func NewClient(cfg config.AdvisorConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    httpclient.NewClient(config.GetDuration(cfg.Timeout), cfg.MaxRetries),
	}
}

// WithHTTPClient swaps the transport; tests use it to shorten backoff.
func (c *Client) WithHTTPClient(h *httpclient.Client) *Client {
	c.http = h
	return c
}

func (c *Client) Advise(ctx context.Context, req AdviceRequest) (*Advice, error) {
	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	body, err := c.http.PostJSON(ctx, c.baseURL+advicePath, headers, req)
	if err != nil {
		var se *httpclient.StatusError
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return nil, fmt.Errorf("%w: %v", ErrAdvisorTimeout, err)
		case errors.As(err, &se) && !se.Retryable():
			return nil, fmt.Errorf("%w: %v", ErrAdvisorResponseInvalid, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrAdvisorUnavailable, err)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	var advice Advice
	if err := dec.Decode(&advice); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrAdvisorResponseInvalid, err)
	}
	if err := advice.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAdvisorResponseInvalid, err)
	}
	return &advice, nil
}

// internal/repository/index.go
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/risk"

	"github.com/elastic/go-elasticsearch/v8"
)

const assessmentMapping = `{
  "mappings": {
    "properties": {
      "id":                {"type": "keyword"},
      "applicantId":       {"type": "keyword"},
      "decision":          {"type": "keyword"},
      "localDecision":     {"type": "keyword"},
      "decisionSource":    {"type": "keyword"},
      "predictedRisk":     {"type": "float"},
      "rawRisk":           {"type": "float"},
      "reasons":           {"type": "keyword"},
      "signals":           {"type": "keyword"},
      "topRiskIncreasing": {"type": "keyword"},
      "topRiskReducing":   {"type": "keyword"},
      "creditScore":       {"type": "integer"},
      "dtiRatio":          {"type": "float"},
      "paymentHistory":    {"type": "float"},
      "employmentType":    {"type": "keyword"},
      "createdAt":         {"type": "date"}
    }
  }
}`

// auditDocument is the flattened, searchable view of a record.
type auditDocument struct {
	ID                string             `json:"id"`
	ApplicantID       string             `json:"applicantId"`
	Decision          risk.Decision      `json:"decision"`
	LocalDecision     risk.Decision      `json:"localDecision"`
	DecisionSource    string             `json:"decisionSource"`
	PredictedRisk     float64            `json:"predictedRisk"`
	RawRisk           float64            `json:"rawRisk"`
	Reasons           []risk.ReasonCode  `json:"reasons"`
	Signals           []risk.Signal      `json:"signals"`
	TopRiskIncreasing []risk.FeatureName `json:"topRiskIncreasing"`
	TopRiskReducing   []risk.FeatureName `json:"topRiskReducing"`
	CreditScore       int                `json:"creditScore"`
	DTIRatio          float64            `json:"dtiRatio"`
	PaymentHistory    float64            `json:"paymentHistory"`
	EmploymentType    string             `json:"employmentType"`
	CreatedAt         time.Time          `json:"createdAt"`
}

func newAuditDocument(r models.AssessmentRecord) auditDocument {
	a := r.Assessment
	return auditDocument{
		ID:                r.ID,
		ApplicantID:       r.ApplicantID,
		Decision:          r.Decision,
		LocalDecision:     r.LocalDecision,
		DecisionSource:    string(r.DecisionSource),
		PredictedRisk:     r.PredictedRisk,
		RawRisk:           a.RawRisk,
		Reasons:           r.Reasons,
		Signals:           a.Signals,
		TopRiskIncreasing: a.Summary.TopRiskIncreasing,
		TopRiskReducing:   a.Summary.TopRiskReducing,
		CreditScore:       a.Features.CreditScore,
		DTIRatio:          a.Features.DTIRatio,
		PaymentHistory:    a.Features.PaymentHistory,
		EmploymentType:    string(a.Features.EmploymentType),
		CreatedAt:         r.CreatedAt,
	}
}

// AssessmentIndex writes assessment records to the audit index.
type AssessmentIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewAssessmentIndex(client *elasticsearch.Client, index string) *AssessmentIndex {
	return &AssessmentIndex{client: client, index: index}
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (x *AssessmentIndex) EnsureIndex(ctx context.Context) error {
	res, err := x.client.Indices.Exists([]string{x.index}, x.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("%w: index check returned %s", ErrIndexFailed, res.Status())
	}

	res, err = x.client.Indices.Create(x.index,
		x.client.Indices.Create.WithContext(ctx),
		x.client.Indices.Create.WithBody(strings.NewReader(assessmentMapping)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		// a concurrent creator may have won
		if strings.Contains(string(body), "resource_already_exists_exception") {
			return nil
		}
		return fmt.Errorf("%w: create index returned %s", ErrIndexFailed, res.Status())
	}
	return nil
}

// Index stores r under its record id, so re-indexing a retried job overwrites.
func (x *AssessmentIndex) Index(ctx context.Context, r models.AssessmentRecord) error {
	body, err := json.Marshal(newAuditDocument(r))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}

	res, err := x.client.Index(x.index, bytes.NewReader(body),
		x.client.Index.WithContext(ctx),
		x.client.Index.WithDocumentID(r.ID),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: index returned %s", ErrIndexFailed, res.Status())
	}
	return nil
}

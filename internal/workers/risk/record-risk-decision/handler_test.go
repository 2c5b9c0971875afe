package recordriskdecision

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	awsclient "credit-risk-workers/internal/common/aws"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/repository"
	"credit-risk-workers/internal/risk"
	"credit-risk-workers/internal/workers/risk/jobtest"
	"credit-risk-workers/internal/workers/risk/runner"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

type fakeIndex struct {
	records []models.AssessmentRecord
	err     error
}

func (f *fakeIndex) Index(_ context.Context, r models.AssessmentRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, r)
	return nil
}

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &sns.PublishOutput{MessageId: aws.String("sns-msg-1")}, nil
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func createTestHandler(t *testing.T, db *sql.DB, index AuditIndex, publisher EventPublisher) *Handler {
	h := NewHandler(&Config{Timeout: 5 * time.Second}, repository.NewAssessmentStore(db), index, publisher, nil, logger.NewTestLogger(t))
	h.now = func() time.Time { return fixedNow }
	return h
}

func createTestInput() *Input {
	return &Input{
		ApplicantID:    "applicant-rejected",
		Assessment:     risk.MustNewEngine(risk.DefaultConfig()).Assess(jobtest.RejectedApplicant()),
		FinalDecision:  risk.DecisionManualReview,
		DecisionSource: models.DecisionSourceAdvisor,
	}
}

func expectInsert(mock sqlmock.Sqlmock, decision, local, source string) *sqlmock.ExpectedExec {
	return mock.ExpectExec(`INSERT INTO risk_assessments`).
		WithArgs(sqlmock.AnyArg(), "applicant-rejected", decision, local, source, sqlmock.AnyArg(), sqlmock.AnyArg(), fixedNow)
}

// ==========================
// Execute
// ==========================

func TestHandler_Execute_RecordsIndexesAndPublishes(t *testing.T) {
	db, mock := setupMockDB(t)
	expectInsert(mock, "MANUAL_REVIEW", "REJECT", "advisor").WillReturnResult(sqlmock.NewResult(0, 1))

	index := &fakeIndex{}
	api := &fakeSNS{}
	h := createTestHandler(t, db, index, awsclient.NewSNSClientWithAPI(api, "arn:aws:sns:eu-west-1:123:risk-decisions"))

	out, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.NotEmpty(t, out.AssessmentRecordID)
	assert.Equal(t, risk.DecisionManualReview, out.FinalDecision)
	assert.True(t, out.Indexed)
	assert.True(t, out.Published)
	assert.Equal(t, "sns-msg-1", out.MessageID)

	require.Len(t, index.records, 1)
	assert.Equal(t, out.AssessmentRecordID, index.records[0].ID)
	assert.True(t, index.records[0].Overridden())

	require.Len(t, api.inputs, 1)
	var event models.DecisionEvent
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(api.inputs[0].Message)), &event))
	assert.Equal(t, out.EventID, event.EventID)
	assert.Equal(t, out.AssessmentRecordID, event.AssessmentRecordID)
	assert.Equal(t, models.EventTypeDecisionRecorded, event.EventType)
	assert.Equal(t, risk.DecisionManualReview, event.Decision)
}

func TestHandler_Execute_DefaultsToLocalDecision(t *testing.T) {
	db, mock := setupMockDB(t)
	expectInsert(mock, "REJECT", "REJECT", "local").WillReturnResult(sqlmock.NewResult(0, 1))
	h := createTestHandler(t, db, nil, nil)

	in := createTestInput()
	in.FinalDecision = ""
	in.DecisionSource = ""

	out, err := h.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, risk.DecisionReject, out.FinalDecision)
	assert.False(t, out.Indexed)
	assert.False(t, out.Published)
	assert.Empty(t, out.EventID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_SideEffectsAreBestEffort(t *testing.T) {
	db, mock := setupMockDB(t)
	expectInsert(mock, "MANUAL_REVIEW", "REJECT", "advisor").WillReturnResult(sqlmock.NewResult(0, 1))
	h := createTestHandler(t, db,
		&fakeIndex{err: repository.ErrIndexFailed},
		awsclient.NewSNSClientWithAPI(&fakeSNS{err: errors.New("throttled")}, "arn"),
	)

	out, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.NotEmpty(t, out.AssessmentRecordID)
	assert.False(t, out.Indexed)
	assert.False(t, out.Published)
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *Input)
	}{
		{"missing assessment", func(in *Input) { in.Assessment = risk.RiskAssessment{} }},
		{"unknown final decision", func(in *Input) { in.FinalDecision = "MAYBE" }},
		{"unknown source", func(in *Input) { in.DecisionSource = "oracle" }},
		{"no applicant", func(in *Input) { in.ApplicantID = ""; in.Assessment.ApplicantID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			h := createTestHandler(t, db, nil, nil)
			in := createTestInput()
			tt.mutate(in)

			_, err := h.Execute(context.Background(), in)
			assert.ErrorIs(t, err, runner.ErrInvalidInput)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// ==========================
// Handle
// ==========================

func TestHandler_Handle_InsertFailureIsRetried(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec(`INSERT INTO risk_assessments`).WillReturnError(errors.New("connection refused"))
	index := &fakeIndex{}
	client := jobtest.NewClient()
	h := createTestHandler(t, db, index, nil)

	require.NoError(t, h.Handle(client, jobtest.NewJob(12345, TaskType, createTestInput())))

	require.Len(t, client.Failed(), 1)
	assert.Equal(t, int32(2), client.Failed()[0].Retries)
	assert.Contains(t, client.Failed()[0].Variables, "DATABASE_INSERT_FAILED")
	assert.Empty(t, index.records)
}

func TestHandler_Handle_Completes(t *testing.T) {
	db, mock := setupMockDB(t)
	expectInsert(mock, "MANUAL_REVIEW", "REJECT", "advisor").WillReturnResult(sqlmock.NewResult(0, 1))
	client := jobtest.NewClient()
	h := createTestHandler(t, db, &fakeIndex{}, nil)

	require.NoError(t, h.Handle(client, jobtest.NewJob(12345, TaskType, createTestInput())))

	var out Output
	client.CompletedVariables(t, &out)
	assert.NotEmpty(t, out.AssessmentRecordID)
	assert.True(t, out.Indexed)
}

package runner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"credit-risk-workers/internal/advisor"
	stderrors "credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/repository"
	"credit-risk-workers/internal/risk"
	"credit-risk-workers/internal/workers/risk/jobtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoInput struct {
	Name string `json:"name"`
}

type echoOutput struct {
	Greeting string `json:"greeting"`
}

func newTestRunner(t *testing.T) *Runner {
	return New("echo", time.Second, logger.NewTestLogger(t), nil)
}

// ==========================
// Run
// ==========================

func TestRunner_Run_Completes(t *testing.T) {
	r := newTestRunner(t)
	client := jobtest.NewClient()
	job := jobtest.NewJob(1, "echo", map[string]string{"name": "ada"})

	var in echoInput
	err := r.Run(client, job, &in, func(ctx context.Context) (interface{}, error) {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return echoOutput{Greeting: "hello " + in.Name}, nil
	})
	require.NoError(t, err)

	var out echoOutput
	client.CompletedVariables(t, &out)
	assert.Equal(t, "hello ada", out.Greeting)
	assert.Empty(t, client.Failed())
	assert.Empty(t, client.Thrown())
}

func TestRunner_Run_UnparseableVariables(t *testing.T) {
	r := newTestRunner(t)
	client := jobtest.NewClient()
	job := jobtest.NewJob(2, "echo", `{"name": `)

	called := false
	err := r.Run(client, job, &echoInput{}, func(context.Context) (interface{}, error) {
		called = true
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, "PROFILE_PARSE_FAILED", client.ThrownCode(t))
}

func TestRunner_Run_Errors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantThrown  string
		wantRetries int32
	}{
		{
			name:       "business error is thrown",
			err:        fmt.Errorf("%w: missing", ErrInvalidInput),
			wantThrown: "INVALID_INPUT",
		},
		{
			name:       "unknown error is thrown as internal",
			err:        errors.New("boom"),
			wantThrown: "INTERNAL_ERROR",
		},
		{
			name:        "retryable error fails with retries",
			err:         fmt.Errorf("%w: connection reset", repository.ErrApplicantLookupFailed),
			wantRetries: 2, // job has 3 retries left, one is spent
		},
		{
			name:        "advisor timeout keeps its smaller budget",
			err:         fmt.Errorf("%w: deadline", advisor.ErrAdvisorTimeout),
			wantRetries: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRunner(t)
			client := jobtest.NewClient()
			job := jobtest.NewJob(3, "echo", map[string]string{})

			err := r.Run(client, job, &echoInput{}, func(context.Context) (interface{}, error) {
				return nil, tt.err
			})
			require.NoError(t, err)
			assert.Empty(t, client.Completed())

			if tt.wantThrown != "" {
				assert.Equal(t, tt.wantThrown, client.ThrownCode(t))
				assert.Empty(t, client.Failed())
				return
			}
			failed := client.Failed()
			require.Len(t, failed, 1)
			assert.Equal(t, tt.wantRetries, failed[0].Retries)
			assert.Contains(t, failed[0].Variables, "errorCode")
		})
	}
}

func TestRunner_Run_CompleteSendFails(t *testing.T) {
	r := newTestRunner(t)
	client := jobtest.NewClient()
	client.FailSends(errors.New("gateway down"))

	err := r.Run(client, jobtest.NewJob(4, "echo", nil), &echoInput{}, func(context.Context) (interface{}, error) {
		return echoOutput{}, nil
	})
	assert.Error(t, err)
}

func TestNew_DefaultTimeout(t *testing.T) {
	r := New("echo", 0, logger.NewNoOpLogger(), nil)
	assert.Equal(t, DefaultTimeout, r.Timeout())
}

// ==========================
// ToStandardError
// ==========================

func TestToStandardError(t *testing.T) {
	tests := []struct {
		err  error
		want stderrors.ErrorCode
	}{
		{fmt.Errorf("%w: a-1", repository.ErrApplicantNotFound), stderrors.ErrCodeApplicantNotFound},
		{fmt.Errorf("%w: bad json", repository.ErrProfileParseFailed), stderrors.ErrCodeProfileParseFailed},
		{fmt.Errorf("%w: slow", repository.ErrQueryTimeout), stderrors.ErrCodeQueryTimeout},
		{fmt.Errorf("%w: reset", repository.ErrApplicantLookupFailed), stderrors.ErrCodeApplicantLookupFailed},
		{fmt.Errorf("%w: dup", repository.ErrDatabaseInsertFailed), stderrors.ErrCodeDatabaseInsertFailed},
		{fmt.Errorf("%w: 503", repository.ErrIndexFailed), stderrors.ErrCodeElasticsearchIndexFailed},
		{fmt.Errorf("%w: x", advisor.ErrAdvisorUnavailable), stderrors.ErrCodeAdvisorUnavailable},
		{fmt.Errorf("%w: x", advisor.ErrAdvisorResponseInvalid), stderrors.ErrCodeAdvisorResponseInvalid},
		{fmt.Errorf("%w: x", ErrNotificationFailed), stderrors.ErrCodeNotificationSendFailed},
		{fmt.Errorf("%w: x", ErrEventPublishFailed), stderrors.ErrCodeEventPublishFailed},
		{stderrors.NewInvalidRiskConfigError(errors.New("weights")), stderrors.ErrCodeInvalidRiskConfig},
		{errors.New("anything"), stderrors.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, ToStandardError(tt.err).Code)
		})
	}
}

func TestToStandardError_ApplicantID(t *testing.T) {
	stdErr := ToStandardError(fmt.Errorf("%w: %s", repository.ErrApplicantNotFound, "app-42"))
	assert.Equal(t, "app-42", stdErr.Metadata["applicantId"])
}

// ==========================
// ProfileInput
// ==========================

type stubLoader struct {
	profile *risk.ApplicantProfile
	err     error
	calls   int
}

func (s *stubLoader) Get(_ context.Context, _ string) (*risk.ApplicantProfile, error) {
	s.calls++
	return s.profile, s.err
}

func TestProfileInput_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("inline profile wins", func(t *testing.T) {
		loader := &stubLoader{}
		in := ProfileInput{ApplicantID: "a-1", Profile: &risk.ApplicantProfile{CreditScore: 700}}
		p, err := in.Resolve(ctx, loader)
		require.NoError(t, err)
		assert.Equal(t, 700, p.CreditScore)
		assert.Equal(t, "a-1", p.ApplicantID)
		assert.Zero(t, loader.calls)
	})

	t.Run("looked up by id", func(t *testing.T) {
		loader := &stubLoader{profile: &risk.ApplicantProfile{ApplicantID: "a-2", CreditScore: 640}}
		p, err := ProfileInput{ApplicantID: "a-2"}.Resolve(ctx, loader)
		require.NoError(t, err)
		assert.Equal(t, 640, p.CreditScore)
		assert.Equal(t, 1, loader.calls)
	})

	t.Run("lookup error passes through", func(t *testing.T) {
		loader := &stubLoader{err: fmt.Errorf("%w: a-3", repository.ErrApplicantNotFound)}
		_, err := ProfileInput{ApplicantID: "a-3"}.Resolve(ctx, loader)
		assert.ErrorIs(t, err, repository.ErrApplicantNotFound)
	})

	t.Run("nothing to resolve", func(t *testing.T) {
		_, err := ProfileInput{}.Resolve(ctx, &stubLoader{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("no store configured", func(t *testing.T) {
		_, err := ProfileInput{ApplicantID: "a-4"}.Resolve(ctx, nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

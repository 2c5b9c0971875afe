package runner

import (
	stderrors "errors"
	"strings"

	"credit-risk-workers/internal/advisor"
	"credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/repository"
)

var (
	ErrInvalidInput       = stderrors.New("INVALID_INPUT")
	ErrNotificationFailed = stderrors.New("NOTIFICATION_SEND_FAILED")
	ErrEventPublishFailed = stderrors.New("EVENT_PUBLISH_FAILED")
)

// ToStandardError maps the sentinel errors of the repository, advisor and
// worker packages onto the standard codes.
func ToStandardError(err error) *errors.StandardError {
	if stdErr, ok := errors.AsStandardError(err); ok {
		return stdErr
	}

	switch {
	case stderrors.Is(err, ErrInvalidInput):
		return errors.NewInvalidInputError(err.Error())
	case stderrors.Is(err, repository.ErrApplicantNotFound):
		id := strings.TrimPrefix(err.Error(), repository.ErrApplicantNotFound.Error()+": ")
		return errors.NewApplicantNotFoundError(id)
	case stderrors.Is(err, repository.ErrProfileParseFailed):
		return errors.NewProfileParseFailedError(err)
	case stderrors.Is(err, repository.ErrQueryTimeout):
		e := errors.NewQueryTimeoutError("database query")
		e.Details = err.Error()
		return e
	case stderrors.Is(err, repository.ErrApplicantLookupFailed):
		return errors.NewApplicantLookupFailedError(err)
	case stderrors.Is(err, repository.ErrDatabaseInsertFailed):
		return errors.NewDatabaseInsertFailedError(err)
	case stderrors.Is(err, repository.ErrIndexFailed):
		return errors.NewElasticsearchIndexFailedError(err)
	case stderrors.Is(err, advisor.ErrAdvisorTimeout):
		return errors.NewAdvisorTimeoutError(err)
	case stderrors.Is(err, advisor.ErrAdvisorUnavailable):
		return errors.NewAdvisorUnavailableError(err)
	case stderrors.Is(err, advisor.ErrAdvisorResponseInvalid):
		return errors.NewAdvisorResponseInvalidError(err)
	case stderrors.Is(err, ErrNotificationFailed):
		return errors.NewNotificationSendFailedError("email", err)
	case stderrors.Is(err, ErrEventPublishFailed):
		return errors.NewEventPublishFailedError(err)
	}
	return errors.Normalize(err)
}

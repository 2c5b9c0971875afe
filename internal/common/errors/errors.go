// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidRiskConfig  ErrorCode = "INVALID_RISK_CONFIG"
	ErrCodeProfileParseFailed ErrorCode = "PROFILE_PARSE_FAILED"
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"

	ErrCodeApplicantNotFound     ErrorCode = "APPLICANT_NOT_FOUND"
	ErrCodeApplicantLookupFailed ErrorCode = "APPLICANT_LOOKUP_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeElasticsearchIndexFailed ErrorCode = "ELASTICSEARCH_INDEX_FAILED"

	ErrCodeAdvisorTimeout         ErrorCode = "ADVISOR_TIMEOUT"
	ErrCodeAdvisorResponseInvalid ErrorCode = "ADVISOR_RESPONSE_INVALID"
	ErrCodeAdvisorUnavailable     ErrorCode = "ADVISOR_UNAVAILABLE"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeEventPublishFailed     ErrorCode = "EVENT_PUBLISH_FAILED"

	ErrCodeWorkflowEngineUnavailable ErrorCode = "WORKFLOW_ENGINE_UNAVAILABLE"
	ErrCodeWorkflowCommandRejected   ErrorCode = "WORKFLOW_COMMAND_REJECTED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause so callers can still match sentinels.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// New builds a StandardError for code. Retryability follows GetRetryCount.
func New(code ErrorCode, message string, cause error) *StandardError {
	e := &StandardError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableErrorCode(code),
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

func NewInvalidRiskConfigError(err error) *StandardError {
	return New(ErrCodeInvalidRiskConfig, "Risk configuration is invalid", err)
}

func NewProfileParseFailedError(err error) *StandardError {
	return New(ErrCodeProfileParseFailed, "Applicant profile could not be parsed", err)
}

func NewInvalidInputError(details string) *StandardError {
	e := New(ErrCodeInvalidInput, "Invalid job input", nil)
	e.Details = details
	return e
}

func NewApplicantNotFoundError(applicantID string) *StandardError {
	e := New(ErrCodeApplicantNotFound, "Applicant profile not found", nil)
	e.Details = fmt.Sprintf("applicant %s", applicantID)
	e.Metadata = map[string]interface{}{"applicantId": applicantID}
	return e
}

func NewApplicantLookupFailedError(err error) *StandardError {
	return New(ErrCodeApplicantLookupFailed, "Applicant profile lookup failed", err)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return New(ErrCodeDatabaseConnectionFailed, "Database connection failed", err)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return New(ErrCodeDatabaseInsertFailed, "Database insert failed", err)
}

func NewQueryTimeoutError(operation string) *StandardError {
	e := New(ErrCodeQueryTimeout, fmt.Sprintf("Query '%s' timed out", operation), nil)
	e.Metadata = map[string]interface{}{"operation": operation}
	return e
}

func NewElasticsearchIndexFailedError(err error) *StandardError {
	return New(ErrCodeElasticsearchIndexFailed, "Assessment indexing failed", err)
}

func NewAdvisorTimeoutError(err error) *StandardError {
	return New(ErrCodeAdvisorTimeout, "Risk advisor timed out", err)
}

func NewAdvisorResponseInvalidError(err error) *StandardError {
	return New(ErrCodeAdvisorResponseInvalid, "Risk advisor returned an invalid response", err)
}

func NewAdvisorUnavailableError(err error) *StandardError {
	return New(ErrCodeAdvisorUnavailable, "Risk advisor unavailable", err)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	e := New(ErrCodeNotificationSendFailed, fmt.Sprintf("Failed to send %s notification", channel), err)
	e.Metadata = map[string]interface{}{"channel": channel}
	return e
}

func NewEventPublishFailedError(err error) *StandardError {
	return New(ErrCodeEventPublishFailed, "Decision event publish failed", err)
}

func NewWorkflowEngineUnavailableError(operation string, err error) *StandardError {
	e := New(ErrCodeWorkflowEngineUnavailable, fmt.Sprintf("Zeebe operation '%s' failed", operation), err)
	e.Metadata = map[string]interface{}{"operation": operation}
	return e
}

func NewWorkflowCommandRejectedError(operation string, err error) *StandardError {
	e := New(ErrCodeWorkflowCommandRejected, fmt.Sprintf("Zeebe rejected operation '%s'", operation), err)
	e.Metadata = map[string]interface{}{"operation": operation}
	return e
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the codes modelled on BPMN boundary events.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidRiskConfig:        "INVALID_RISK_CONFIG",
	ErrCodeProfileParseFailed:       "PROFILE_PARSE_FAILED",
	ErrCodeInvalidInput:             "INVALID_INPUT",
	ErrCodeApplicantNotFound:        "APPLICANT_NOT_FOUND",
	ErrCodeApplicantLookupFailed:    "APPLICANT_LOOKUP_FAILED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeDatabaseInsertFailed:     "DATABASE_INSERT_FAILED",
	ErrCodeQueryTimeout:             "QUERY_TIMEOUT",
	ErrCodeElasticsearchIndexFailed: "ELASTICSEARCH_INDEX_FAILED",
	ErrCodeAdvisorTimeout:           "ADVISOR_TIMEOUT",
	ErrCodeAdvisorResponseInvalid:   "ADVISOR_RESPONSE_INVALID",
	ErrCodeAdvisorUnavailable:       "ADVISOR_UNAVAILABLE",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
	ErrCodeEventPublishFailed:       "EVENT_PUBLISH_FAILED",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeApplicantLookupFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeElasticsearchIndexFailed,
		ErrCodeAdvisorUnavailable,
		ErrCodeNotificationSendFailed,
		ErrCodeEventPublishFailed,
		ErrCodeWorkflowEngineUnavailable:
		return 3

	case ErrCodeQueryTimeout:
		return 2

	case ErrCodeAdvisorTimeout:
		return 1

	default:
		return 0 // business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// AsStandardError finds a StandardError anywhere in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "APPLICANT") || strings.Contains(codeStr, "PROFILE"):
		return "APPLICANT"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "ADVISOR"):
		return "ADVISOR"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "EVENT"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "WORKFLOW"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

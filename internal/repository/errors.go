package repository

import "errors"

var (
	ErrApplicantNotFound     = errors.New("APPLICANT_NOT_FOUND")
	ErrApplicantLookupFailed = errors.New("APPLICANT_LOOKUP_FAILED")
	ErrProfileParseFailed    = errors.New("PROFILE_PARSE_FAILED")
	ErrQueryTimeout          = errors.New("QUERY_TIMEOUT")
	ErrDatabaseInsertFailed  = errors.New("DATABASE_INSERT_FAILED")
	ErrAssessmentNotFound    = errors.New("ASSESSMENT_NOT_FOUND")
	ErrIndexFailed           = errors.New("ELASTICSEARCH_INDEX_FAILED")
)

// internal/repository/assessments.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"credit-risk-workers/internal/models"
)

const (
	insertAssessmentQuery = `INSERT INTO risk_assessments
(id, applicant_id, decision, local_decision, decision_source, predicted_risk, assessment, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	latestAssessmentQuery = `SELECT id, applicant_id, decision, local_decision, decision_source, predicted_risk, assessment, created_at
FROM risk_assessments WHERE applicant_id = $1 ORDER BY created_at DESC LIMIT 1`
)

// AssessmentStore keeps one row per recorded decision.
type AssessmentStore struct {
	db *sql.DB
}

func NewAssessmentStore(db *sql.DB) *AssessmentStore {
	return &AssessmentStore{db: db}
}

func (s *AssessmentStore) Insert(ctx context.Context, r models.AssessmentRecord) error {
	doc, err := json.Marshal(r.Assessment)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseInsertFailed, err)
	}

	_, err = s.db.ExecContext(ctx, insertAssessmentQuery,
		r.ID,
		r.ApplicantID,
		string(r.Decision),
		string(r.LocalDecision),
		string(r.DecisionSource),
		r.PredictedRisk,
		doc,
		r.CreatedAt,
	)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: %v", ErrQueryTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrDatabaseInsertFailed, err)
	}
	return nil
}

// Latest returns the most recent record for an applicant.
func (s *AssessmentStore) Latest(ctx context.Context, applicantID string) (*models.AssessmentRecord, error) {
	var (
		r   models.AssessmentRecord
		doc []byte
	)
	err := s.db.QueryRowContext(ctx, latestAssessmentQuery, applicantID).Scan(
		&r.ID,
		&r.ApplicantID,
		&r.Decision,
		&r.LocalDecision,
		&r.DecisionSource,
		&r.PredictedRisk,
		&doc,
		&r.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrAssessmentNotFound, applicantID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrApplicantLookupFailed, err)
	}

	if err := json.Unmarshal(doc, &r.Assessment); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileParseFailed, err)
	}
	r.Reasons = r.Assessment.DecisionReasons
	return &r, nil
}

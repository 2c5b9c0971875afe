// internal/repository/applicants.go
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/risk"

	"github.com/redis/go-redis/v9"
)

const applicantCachePrefix = "applicant:profile:"

const (
	selectProfileQuery = `SELECT profile FROM applicant_profiles WHERE applicant_id = $1`
	upsertProfileQuery = `INSERT INTO applicant_profiles (applicant_id, profile, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (applicant_id) DO UPDATE SET profile = EXCLUDED.profile, updated_at = NOW()`
)

// ApplicantStore reads applicant profiles from Postgres through a Redis cache.
// Cache failures are logged and fall back to the database.
type ApplicantStore struct {
	db     *sql.DB
	cache  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewApplicantStore(db *sql.DB, cache redis.Cmdable, ttl time.Duration, log logger.Logger) *ApplicantStore {
	return &ApplicantStore{
		db:     db,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"store": "applicants"}),
	}
}

func cacheKey(applicantID string) string {
	return applicantCachePrefix + applicantID
}

func (s *ApplicantStore) Get(ctx context.Context, applicantID string) (*risk.ApplicantProfile, error) {
	if p, ok := s.fromCache(ctx, applicantID); ok {
		return p, nil
	}

	var raw []byte
	err := s.db.QueryRowContext(ctx, selectProfileQuery, applicantID).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%w: %s", ErrApplicantNotFound, applicantID)
	case err != nil && ctx.Err() == context.DeadlineExceeded:
		return nil, fmt.Errorf("%w: %v", ErrQueryTimeout, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrApplicantLookupFailed, err)
	}

	p, err := decodeProfile(raw, applicantID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey(applicantID), string(raw), s.ttl).Err(); err != nil {
			s.logger.Warn("failed to cache applicant profile", map[string]interface{}{
				"applicantId": applicantID,
				"error":       err.Error(),
			})
		}
	}
	return p, nil
}

func (s *ApplicantStore) fromCache(ctx context.Context, applicantID string) (*risk.ApplicantProfile, bool) {
	if s.cache == nil {
		return nil, false
	}
	val, err := s.cache.Get(ctx, cacheKey(applicantID)).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("applicant cache unavailable", map[string]interface{}{
				"applicantId": applicantID,
				"error":       err.Error(),
			})
		}
		return nil, false
	}

	p, err := decodeProfile([]byte(val), applicantID)
	if err != nil {
		s.logger.Warn("discarding unreadable cached profile", map[string]interface{}{
			"applicantId": applicantID,
		})
		return nil, false
	}
	return p, true
}

func decodeProfile(raw []byte, applicantID string) (*risk.ApplicantProfile, error) {
	var p risk.ApplicantProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileParseFailed, err)
	}
	if p.ApplicantID == "" {
		p.ApplicantID = applicantID
	}
	return &p, nil
}

// Save upserts the profile and drops its cache entry.
func (s *ApplicantStore) Save(ctx context.Context, p risk.ApplicantProfile) error {
	if p.ApplicantID == "" {
		return fmt.Errorf("%w: applicantId is required", ErrDatabaseInsertFailed)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseInsertFailed, err)
	}

	if _, err := s.db.ExecContext(ctx, upsertProfileQuery, p.ApplicantID, raw); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseInsertFailed, err)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, cacheKey(p.ApplicantID)).Err(); err != nil {
			s.logger.Warn("failed to invalidate applicant cache", map[string]interface{}{
				"applicantId": p.ApplicantID,
				"error":       err.Error(),
			})
		}
	}
	return nil
}

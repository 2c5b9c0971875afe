package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/risk"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const profileJSON = `{"creditScore":690,"monthlyIncome":"60000","activeLoans":[{"emiAmount":"18000","missedPayments":1}],"onTimePaymentRatio":0.88,"employmentType":"Permanent"}`

const selectProfileRegexp = `SELECT profile FROM applicant_profiles WHERE applicant_id = \$1`

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()}), mr
}

func assertProfile(t *testing.T, p *risk.ApplicantProfile) {
	t.Helper()
	require.NotNil(t, p)
	assert.Equal(t, "a-1", p.ApplicantID)
	assert.Equal(t, 690, p.CreditScore)
	assert.True(t, p.MonthlyIncome.Equal(decimal.NewFromInt(60000)))
	assert.True(t, p.TotalEMI().Equal(decimal.NewFromInt(18000)))
	assert.Equal(t, risk.EmploymentPermanent, p.EmploymentType)
}

// ==========================
// Get
// ==========================

func TestApplicantStore_Get_CacheMissThenHit(t *testing.T) {
	db, mock := setupMockDB(t)
	rc, mr := setupRedis(t)
	store := NewApplicantStore(db, rc, 5*time.Minute, logger.NewTestLogger(t))

	mock.ExpectQuery(selectProfileRegexp).
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows([]string{"profile"}).AddRow([]byte(profileJSON)))

	p, err := store.Get(context.Background(), "a-1")
	require.NoError(t, err)
	assertProfile(t, p)

	cached, err := mr.Get("applicant:profile:a-1")
	require.NoError(t, err)
	assert.JSONEq(t, profileJSON, cached)
	assert.Equal(t, 5*time.Minute, mr.TTL("applicant:profile:a-1"))

	// second read is served from the cache; no further query is expected
	p, err = store.Get(context.Background(), "a-1")
	require.NoError(t, err)
	assertProfile(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicantStore_Get_ExactCacheCommands(t *testing.T) {
	db, mock := setupMockDB(t)
	rc, redisMock := redismock.NewClientMock()
	store := NewApplicantStore(db, rc, time.Minute, logger.NewTestLogger(t))

	redisMock.ExpectGet("applicant:profile:a-1").RedisNil()
	mock.ExpectQuery(selectProfileRegexp).
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows([]string{"profile"}).AddRow([]byte(profileJSON)))
	redisMock.ExpectSet("applicant:profile:a-1", profileJSON, time.Minute).SetVal("OK")

	p, err := store.Get(context.Background(), "a-1")
	require.NoError(t, err)
	assertProfile(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestApplicantStore_Get_CacheDownFallsBackToDatabase(t *testing.T) {
	db, mock := setupMockDB(t)
	rc, redisMock := redismock.NewClientMock()
	store := NewApplicantStore(db, rc, time.Minute, logger.NewTestLogger(t))

	redisMock.ExpectGet("applicant:profile:a-1").SetErr(errors.New("connection refused"))
	mock.ExpectQuery(selectProfileRegexp).
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows([]string{"profile"}).AddRow([]byte(profileJSON)))
	redisMock.ExpectSet("applicant:profile:a-1", profileJSON, time.Minute).SetErr(errors.New("connection refused"))

	p, err := store.Get(context.Background(), "a-1")
	require.NoError(t, err)
	assertProfile(t, p)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestApplicantStore_Get_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "unknown applicant",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(selectProfileRegexp).WithArgs("a-1").WillReturnError(sql.ErrNoRows)
			},
			wantErr: ErrApplicantNotFound,
		},
		{
			name: "database failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(selectProfileRegexp).WithArgs("a-1").WillReturnError(errors.New("too many connections"))
			},
			wantErr: ErrApplicantLookupFailed,
		},
		{
			name: "document is not an object",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(selectProfileRegexp).WithArgs("a-1").
					WillReturnRows(sqlmock.NewRows([]string{"profile"}).AddRow([]byte(`["high"]`)))
			},
			wantErr: ErrProfileParseFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			rc, _ := setupRedis(t)
			tt.setup(mock)

			_, err := NewApplicantStore(db, rc, time.Minute, logger.NewNoOpLogger()).Get(context.Background(), "a-1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestApplicantStore_Get_PartialDocument(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(selectProfileRegexp).WithArgs("a-9").
		WillReturnRows(sqlmock.NewRows([]string{"profile"}).AddRow([]byte(`{"creditScore":720}`)))

	p, err := NewApplicantStore(db, nil, time.Minute, logger.NewNoOpLogger()).Get(context.Background(), "a-9")
	require.NoError(t, err)
	assert.Equal(t, "a-9", p.ApplicantID)
	assert.Equal(t, 720, p.CreditScore)
	assert.True(t, p.MonthlyIncome.IsZero())
	assert.Empty(t, p.ActiveLoans)
}

func TestApplicantStore_Get_MalformedFieldsDegrade(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(selectProfileRegexp).WithArgs("a-7").
		WillReturnRows(sqlmock.NewRows([]string{"profile"}).
			AddRow([]byte(`{"creditScore":"710","monthlyIncome":"n/a","onTimePaymentRatio":0.9,"creditAccountAgeMonths":36.5}`)))

	p, err := NewApplicantStore(db, nil, time.Minute, logger.NewNoOpLogger()).Get(context.Background(), "a-7")
	require.NoError(t, err)
	assert.Equal(t, 710, p.CreditScore)
	assert.True(t, p.MonthlyIncome.IsZero())
	assert.Equal(t, 0.9, p.OnTimePaymentRatio)
	assert.Equal(t, 36, p.CreditAccountAgeMonths)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicantStore_Get_UnreadableCacheEntry(t *testing.T) {
	db, mock := setupMockDB(t)
	rc, mr := setupRedis(t)
	require.NoError(t, mr.Set("applicant:profile:a-1", "not json"))

	mock.ExpectQuery(selectProfileRegexp).WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows([]string{"profile"}).AddRow([]byte(profileJSON)))

	p, err := NewApplicantStore(db, rc, time.Minute, logger.NewNoOpLogger()).Get(context.Background(), "a-1")
	require.NoError(t, err)
	assertProfile(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Save
// ==========================

func TestApplicantStore_Save(t *testing.T) {
	db, mock := setupMockDB(t)
	rc, mr := setupRedis(t)
	require.NoError(t, mr.Set("applicant:profile:a-1", profileJSON))

	mock.ExpectExec(`INSERT INTO applicant_profiles`).
		WithArgs("a-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewApplicantStore(db, rc, time.Minute, logger.NewNoOpLogger()).Save(context.Background(), risk.ApplicantProfile{
		ApplicantID: "a-1",
		CreditScore: 700,
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("applicant:profile:a-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicantStore_Save_Errors(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewApplicantStore(db, nil, time.Minute, logger.NewNoOpLogger())

	err := store.Save(context.Background(), risk.ApplicantProfile{})
	assert.ErrorIs(t, err, ErrDatabaseInsertFailed)

	mock.ExpectExec(`INSERT INTO applicant_profiles`).WillReturnError(errors.New("disk full"))
	err = store.Save(context.Background(), risk.ApplicantProfile{ApplicantID: "a-1"})
	assert.ErrorIs(t, err, ErrDatabaseInsertFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

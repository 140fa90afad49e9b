package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/talent-pool-api/internal/dto"
	"github.com/noah-isme/talent-pool-api/internal/models"
	"github.com/noah-isme/talent-pool-api/internal/repository"
	"github.com/noah-isme/talent-pool-api/pkg/database"
	appErrors "github.com/noah-isme/talent-pool-api/pkg/errors"
)

var (
	txAssignmentColumns = []string{"id", "pool_id", "candidate_id", "priority", "featured", "notes", "added_by", "added_at"}
	txGrantColumns      = []string{"id", "pool_id", "company_id", "access_level", "granted_by", "granted_at", "updated_at", "expires_at", "notes"}
	txSelectionColumns  = []string{"id", "pool_id", "candidate_id", "company_id", "selection_type", "recorded_by", "created_at", "updated_at", "unpooled_at"}
)

// newSingleConnSelectionService backs the service with a pool of one connection, so any
// query issued outside the open transaction blocks until the context expires.
func newSingleConnSelectionService(t *testing.T) (*SelectionService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)
	sqlxDB := sqlx.NewDb(db, "postgres")

	grants := NewAccessGrantService(repository.NewAccessGrantRepository(sqlxDB), repository.NewPoolRepository(sqlxDB), nil, nil, nil, nil, nil)
	svc := NewSelectionService(
		repository.NewAssignmentRepository(sqlxDB),
		repository.NewSelectionRepository(sqlxDB),
		repository.NewPoolRepository(sqlxDB),
		grants,
		database.NewTxRunner(sqlxDB),
		nil, nil, nil, nil, nil,
	)
	return svc, mock
}

func TestSelectionServiceRecordChecksAccessOnTransaction(t *testing.T) {
	svc, mock := newSingleConnSelectionService(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM pool_assignments WHERE pool_id = $1 AND candidate_id = $2 FOR SHARE")).
		WithArgs("pool-1", "cand-1").
		WillReturnRows(sqlmock.NewRows(txAssignmentColumns).AddRow("a1", "pool-1", "cand-1", 0, false, nil, "admin-1", now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM pool_access_grants WHERE pool_id = $1 AND company_id = $2")).
		WithArgs("pool-1", "company-x").
		WillReturnRows(sqlmock.NewRows(txGrantColumns).AddRow("g1", "pool-1", "company-x", "contact", "admin-1", now, now, nil, nil))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO candidate_selections")).
		WillReturnRows(sqlmock.NewRows(txSelectionColumns).AddRow("s1", "pool-1", "cand-1", "company-x", "contacted", "user-x", now, now, nil))
	mock.ExpectCommit()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	selection, err := svc.Record(ctx, "pool-1", dto.RecordSelectionRequest{CandidateID: "cand-1", SelectionType: models.SelectionContacted}, companyX)
	require.NoError(t, err)
	assert.Equal(t, models.SelectionContacted, selection.SelectionType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionServiceRecordDeniedRollsBack(t *testing.T) {
	svc, mock := newSingleConnSelectionService(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR SHARE")).
		WillReturnRows(sqlmock.NewRows(txAssignmentColumns).AddRow("a1", "pool-1", "cand-1", 0, false, nil, "admin-1", now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM pool_access_grants")).
		WillReturnRows(sqlmock.NewRows(txGrantColumns).AddRow("g1", "pool-1", "company-x", "select", "admin-1", now, now, nil, nil))
	mock.ExpectRollback()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := svc.Record(ctx, "pool-1", dto.RecordSelectionRequest{CandidateID: "cand-1", SelectionType: models.SelectionContacted}, companyX)
	assert.ErrorIs(t, err, appErrors.ErrPermissionDenied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionServiceRecordMalformedPoolIDNotAssigned(t *testing.T) {
	svc, mock := newSingleConnSelectionService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR SHARE")).
		WithArgs("abc", "cand-1").
		WillReturnError(&pq.Error{Code: database.CodeInvalidTextRepresentation, Message: `invalid input syntax for type uuid: "abc"`})
	mock.ExpectRollback()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := svc.Record(ctx, "abc", dto.RecordSelectionRequest{CandidateID: "cand-1", SelectionType: models.SelectionInterested}, companyX)
	assert.ErrorIs(t, err, appErrors.ErrNotAssigned)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMalformedIDsMapToNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	sqlxDB := sqlx.NewDb(db, "postgres")
	badUUID := &pq.Error{Code: database.CodeInvalidTextRepresentation}

	pools := NewPoolService(repository.NewPoolRepository(sqlxDB), repository.NewAssignmentRepository(sqlxDB), database.NewTxRunner(sqlxDB), nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM pools WHERE id = $1")).WithArgs("abc").WillReturnError(badUUID)
	_, err = pools.Get(context.Background(), "abc")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	grants := NewAccessGrantService(repository.NewAccessGrantRepository(sqlxDB), repository.NewPoolRepository(sqlxDB), nil, nil, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM pool_access_grants WHERE pool_id = $1 AND company_id = $2")).WithArgs("abc", "company-x").WillReturnError(badUUID)
	ok, err := grants.IsAuthorized(context.Background(), "abc", "company-x", models.AccessLevelView)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

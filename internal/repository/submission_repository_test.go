package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifesaving-resources/instructor-api/internal/models"
)

func newSubmissionMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSubmissionRepositoryCreateAssignsIDAndStatus(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec("INSERT INTO unrecognized_submissions").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	submission := &models.UnrecognizedSubmission{FormID: 3, EntryID: 42, CourseType: models.DisciplineIce, Email: "unknown@example.com"}
	err := repo.Create(context.Background(), submission)
	require.NoError(t, err)
	assert.NotEmpty(t, submission.ID)
	assert.Equal(t, models.SubmissionPending, submission.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryListPendingOnly(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "form_id", "entry_id", "course_type", "email", "status", "received_at", "dismissed_at"}).
		AddRow("s1", 3, 42, "ice", "unknown@example.com", "pending", time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, form_id, entry_id, course_type, email, status, received_at, dismissed_at FROM unrecognized_submissions WHERE status = $1 ORDER BY received_at DESC")).
		WithArgs(models.SubmissionPending).
		WillReturnRows(rows)

	submissions, err := repo.List(context.Background(), models.SubmissionPending)
	require.NoError(t, err)
	require.Len(t, submissions, 1)
	assert.Equal(t, models.SubmissionPending, submissions[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryDismissAlreadyDismissed(t *testing.T) {
	db, mock, cleanup := newSubmissionMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec("UPDATE unrecognized_submissions SET status").
		WithArgs("s1", models.SubmissionDismissed, sqlmock.AnyArg(), models.SubmissionPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Dismiss(context.Background(), "s1", time.Now().UTC())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

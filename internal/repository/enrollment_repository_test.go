package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhlq/uni-registry-api/internal/models"
)

func newEnrollmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCreateRegisteredClaimsSeatAndInserts(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE classes").
		WithArgs("class-1", models.ClassStatusOpen).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO enrollments").
		WithArgs(sqlmock.AnyArg(), "student-1", "class-1", models.EnrollmentStatusRegistered, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{StudentID: "student-1", ClassID: "class-1"}
	require.NoError(t, repo.CreateRegistered(context.Background(), enrollment))
	assert.NotEmpty(t, enrollment.ID)
	assert.Equal(t, models.EnrollmentStatusRegistered, enrollment.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The guarded seat increment matching no row means the class filled up (or
// closed) concurrently; the transaction must roll back without inserting.
func TestCreateRegisteredSeatGuardRejects(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE classes").
		WithArgs("class-1", models.ClassStatusOpen).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.CreateRegistered(context.Background(), &models.Enrollment{StudentID: "student-1", ClassID: "class-1"})
	assert.ErrorIs(t, err, ErrSeatUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRegisteredDuplicateRejects(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE classes").
		WithArgs("class-1", models.ClassStatusOpen).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO enrollments").
		WithArgs(sqlmock.AnyArg(), "student-1", "class-1", models.EnrollmentStatusRegistered, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.CreateRegistered(context.Background(), &models.Enrollment{StudentID: "student-1", ClassID: "class-1"})
	assert.ErrorIs(t, err, ErrEnrollmentExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReactivateFlipsCancelledRow(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	at := time.Date(2026, time.October, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE classes").
		WithArgs("class-1", models.ClassStatusOpen).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE enrollments").
		WithArgs("enroll-1", models.EnrollmentStatusRegistered, at, models.EnrollmentStatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Reactivate(context.Background(), "enroll-1", "class-1", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReactivateGuardRejectsChangedRow(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	at := time.Date(2026, time.October, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE classes").
		WithArgs("class-1", models.ClassStatusOpen).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE enrollments").
		WithArgs("enroll-1", models.EnrollmentStatusRegistered, at, models.EnrollmentStatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Reactivate(context.Background(), "enroll-1", "class-1", at)
	assert.ErrorIs(t, err, ErrNotCancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelReleasesSeat(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	at := time.Date(2026, time.October, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE enrollments").
		WithArgs("enroll-1", models.EnrollmentStatusCancelled, at, models.EnrollmentStatusRegistered).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE classes").
		WithArgs("class-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Cancel(context.Background(), "enroll-1", "class-1", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelGuardRejectsGradedRow(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)
	at := time.Date(2026, time.October, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE enrollments").
		WithArgs("enroll-1", models.EnrollmentStatusCancelled, at, models.EnrollmentStatusRegistered).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Cancel(context.Background(), "enroll-1", "class-1", at)
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeGuardedOnRegistered(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("UPDATE enrollments").
		WithArgs("enroll-1", 8.5, models.GradeA, models.EnrollmentStatusCompleted, models.EnrollmentStatusRegistered).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Finalize(context.Background(), "enroll-1", 8.5, models.GradeA, models.EnrollmentStatusCompleted))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeRejectsAlreadyFinalized(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("UPDATE enrollments").
		WithArgs("enroll-1", 8.5, models.GradeA, models.EnrollmentStatusCompleted, models.EnrollmentStatusRegistered).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Finalize(context.Background(), "enroll-1", 8.5, models.GradeA, models.EnrollmentStatusCompleted)
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByStudentAndClass(t *testing.T) {
	db, mock, cleanup := newEnrollmentMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "class_id", "status", "enrollment_date", "cancellation_date", "score", "grade"}).
		AddRow("enroll-1", "student-1", "class-1", "REGISTERED", time.Now(), nil, nil, nil)
	mock.ExpectQuery("SELECT id, student_id, class_id").
		WithArgs("student-1", "class-1").
		WillReturnRows(rows)

	enrollment, err := repo.FindByStudentAndClass(context.Background(), "student-1", "class-1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusRegistered, enrollment.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyeongseol/academy-api/internal/models"
)

func TestAttendanceRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	classID := "c1"
	mock.ExpectExec("INSERT INTO attendance").
		WithArgs(sqlmock.AnyArg(), "s1", "c1", sqlmock.AnyArg(), string(models.AttendanceStatusPresent), sqlmock.AnyArg(), string(models.AttendanceSourceQR), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.Attendance{
		StudentID: "s1",
		ClassID:   &classID,
		Date:      time.Date(2026, 3, 2, 14, 3, 0, 0, time.UTC),
		Status:    models.AttendanceStatusPresent,
		Source:    models.AttendanceSourceQR,
	}
	require.NoError(t, repo.Create(context.Background(), record))
	assert.NotEmpty(t, record.ID)
	// the timestamp collapses to a date
	assert.Equal(t, 0, record.Date.Hour())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryFindForDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	classID := "c1"
	rows := sqlmock.NewRows([]string{"id", "student_id", "class_id", "date", "status", "note", "source", "created_at"}).
		AddRow("a1", "s1", classID, time.Now(), "PRESENT", nil, "qr", time.Now())
	mock.ExpectQuery("SELECT id, student_id, class_id, date, status").
		WithArgs("s1", sqlmock.AnyArg(), classID).
		WillReturnRows(rows)

	records, err := repo.FindForDay(context.Background(), "s1", &classID, time.Now())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCreateBulkRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendance").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO attendance").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.CreateBulk(context.Background(), []models.Attendance{
		{StudentID: "s1", Status: models.AttendanceStatusPresent, Source: models.AttendanceSourceManual},
		{StudentID: "s2", Status: models.AttendanceStatusLate, Source: models.AttendanceSourceManual},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCountByStatusOn(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"status", "total"}).
		AddRow("PRESENT", 10).
		AddRow("LATE", 2)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS total FROM attendance WHERE date = $1 GROUP BY status")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	counts, err := repo.CountByStatusOn(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 10, counts[models.AttendanceStatusPresent])
	assert.Equal(t, 2, counts[models.AttendanceStatusLate])
	assert.NoError(t, mock.ExpectationsWereMet())
}

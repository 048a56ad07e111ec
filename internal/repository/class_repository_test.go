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

func classRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "teacher_id", "schedule", "room", "created_at", "updated_at", "teacher_name", "teacher_subject"}).
		AddRow("c1", "중3 수학A", "t1", "월 9:00-10:30, 수 9:00-10:30", "101호", time.Now(), time.Now(), "김민수", "수학")
}

func TestClassRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery("SELECT c.id, c.name, c.teacher_id, c.schedule, c.room").
		WillReturnRows(classRows())

	classes, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "김민수 (수학)", classes[0].TeacherLabel())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryListFilterByTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery("SELECT c.id, c.name, c.teacher_id").
		WithArgs("t1").
		WillReturnRows(classRows())
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	classes, total, err := repo.List(context.Background(), models.ClassFilter{TeacherID: "t1"})
	require.NoError(t, err)
	assert.Len(t, classes, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryCountByTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM classes WHERE teacher_id = $1")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountByTeacher(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryCreateUpdateDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec("INSERT INTO classes").
		WithArgs(sqlmock.AnyArg(), "중3 수학A", "t1", "월 9:00-10:30", "101호", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	class := &models.Class{Name: "중3 수학A", TeacherID: "t1", Schedule: "월 9:00-10:30", Room: "101호"}
	require.NoError(t, repo.Create(context.Background(), class))
	assert.NotEmpty(t, class.ID)

	mock.ExpectExec("UPDATE classes SET").
		WithArgs("중3 수학B", "t1", "월 9:00-10:30", "102호", sqlmock.AnyArg(), class.ID).
		WillReturnResult(sqlmock.NewResult(1, 1))

	class.Name = "중3 수학B"
	class.Room = "102호"
	require.NoError(t, repo.Update(context.Background(), class))

	mock.ExpectExec("DELETE FROM classes").
		WithArgs(class.ID).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Delete(context.Background(), class.ID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

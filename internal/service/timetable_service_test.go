package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyeongseol/academy-api/internal/models"
	appErrors "github.com/hyeongseol/academy-api/pkg/errors"
)

type mockTimetableClasses struct {
	classes []models.ClassDetail
}

func (m *mockTimetableClasses) ListAll(ctx context.Context) ([]models.ClassDetail, error) {
	return m.classes, nil
}

type mockEnrollmentCounter struct {
	counts map[string]int
}

func (m *mockEnrollmentCounter) CountPerClass(ctx context.Context) (map[string]int, error) {
	return m.counts, nil
}

func timetableFixture() *TimetableService {
	classes := &mockTimetableClasses{classes: []models.ClassDetail{
		{
			Class:          models.Class{ID: "c1", Name: "중등 수학 A", TeacherID: "t1", Schedule: "월 9:00-10:30, 수 9:00-10:30", Room: "201호"},
			TeacherName:    "김민수",
			TeacherSubject: "수학",
		},
		{
			Class:          models.Class{ID: "c2", Name: "중등 영어 B", TeacherID: "t2", Schedule: "월 9:00-11:00", Room: "202호"},
			TeacherName:    "박지훈",
			TeacherSubject: "영어",
		},
		{
			Class:          models.Class{ID: "c3", Name: "고등 수학", TeacherID: "t1", Schedule: "화 18:00-20:00", Room: "지하실"},
			TeacherName:    "김민수",
			TeacherSubject: "수학",
		},
	}}
	counts := &mockEnrollmentCounter{counts: map[string]int{"c1": 8, "c2": 12}}
	return NewTimetableService(classes, counts, nil, testPolicy(), []string{"201호", "202호"}, zap.NewNop())
}

func TestTimetableTeacherWeek(t *testing.T) {
	service := timetableFixture()

	timetable, err := service.TeacherWeek(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"월", "화", "수", "목", "금", "토", "일"}, timetable.Grid.Columns)
	// starts 9:00 and 18:00
	require.Len(t, timetable.Grid.Rows, 2)
	assert.Equal(t, "9:00", timetable.Grid.Rows[0].Start)
	assert.Equal(t, "11:00", timetable.Grid.Rows[0].MaxEnd)
	assert.Equal(t, "18:00", timetable.Grid.Rows[1].Start)

	monday := timetable.Grid.Rows[0].Cells[0]
	assert.Len(t, monday.Entries, 2)
	assert.Equal(t, 8, timetable.StudentCounts["c1"])
}

func TestTimetableTeacherWeekFilteredByID(t *testing.T) {
	service := timetableFixture()

	timetable, err := service.TeacherWeek(context.Background(), "t1", "")
	require.NoError(t, err)
	var total int
	for _, row := range timetable.Grid.Rows {
		for _, cell := range row.Cells {
			total += len(cell.Entries)
		}
	}
	assert.Equal(t, 3, total, "two Monday/Wednesday slots plus one Tuesday slot")
}

func TestTimetableTeacherWeekFilteredByName(t *testing.T) {
	service := timetableFixture()

	timetable, err := service.TeacherWeek(context.Background(), "", "박지훈")
	require.NoError(t, err)
	var names []string
	for _, row := range timetable.Grid.Rows {
		for _, cell := range row.Cells {
			for _, entry := range cell.Entries {
				names = append(names, entry.ClassName)
			}
		}
	}
	assert.Equal(t, []string{"중등 영어 B"}, names)
}

func TestTimetableRoomDay(t *testing.T) {
	service := timetableFixture()

	timetable, err := service.RoomDay(context.Background(), "월")
	require.NoError(t, err)
	assert.Equal(t, []string{"201호", "202호"}, timetable.Grid.Columns)
	require.Len(t, timetable.Grid.Rows, 1)
	assert.Len(t, timetable.Grid.Rows[0].Cells[0].Entries, 1)
	assert.Len(t, timetable.Grid.Rows[0].Cells[1].Entries, 1)
}

func TestTimetableRoomDayCatchAllColumn(t *testing.T) {
	service := timetableFixture()

	// the Tuesday class sits in an unconfigured room and lands in column 0
	timetable, err := service.RoomDay(context.Background(), "화")
	require.NoError(t, err)
	require.Len(t, timetable.Grid.Rows, 1)
	entries := timetable.Grid.Rows[0].Cells[0].Entries
	require.Len(t, entries, 1)
	assert.Equal(t, "고등 수학", entries[0].ClassName)
}

func TestTimetableRoomDayUnknownDay(t *testing.T) {
	service := timetableFixture()

	_, err := service.RoomDay(context.Background(), "funday")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyeongseol/academy-api/internal/models"
	appErrors "github.com/hyeongseol/academy-api/pkg/errors"
)

type mockSummaryStudents struct {
	student *models.Student
}

func (m *mockSummaryStudents) Get(ctx context.Context, id string) (*models.Student, error) {
	if m.student == nil || m.student.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	cp := *m.student
	return &cp, nil
}

type mockSummaryEnrollments struct {
	items []models.EnrollmentDetail
}

func (m *mockSummaryEnrollments) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	return m.items, nil
}

type mockSummaryAttendance struct {
	records []models.AttendanceDetail
}

func (m *mockSummaryAttendance) ListByStudentMonth(ctx context.Context, studentID string, year int, month time.Month) ([]models.AttendanceDetail, error) {
	return m.records, nil
}

func summaryRecord(day int, status models.AttendanceStatus, className string) models.AttendanceDetail {
	detail := models.AttendanceDetail{
		Attendance: models.Attendance{
			Date:   time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC),
			Status: status,
		},
	}
	if className != "" {
		detail.ClassName = &className
	}
	return detail
}

func TestSummaryStudentMonth(t *testing.T) {
	students := &mockSummaryStudents{student: &models.Student{ID: "s1", Name: "이서연", Grade: "중2"}}
	enrollments := &mockSummaryEnrollments{items: []models.EnrollmentDetail{
		{Enrollment: models.Enrollment{Subject: "수학"}, ClassName: "중등 수학 A"},
	}}
	attendance := &mockSummaryAttendance{records: []models.AttendanceDetail{
		summaryRecord(2, models.AttendanceStatusPresent, "중등 수학 A"),
		summaryRecord(4, models.AttendanceStatusLate, "중등 수학 A"),
		summaryRecord(9, models.AttendanceStatusPresent, "중등 수학 A"),
		summaryRecord(9, models.AttendanceStatusSelfStudy, ""),
		summaryRecord(11, models.AttendanceStatusMakeup, ""),
		summaryRecord(16, models.AttendanceStatusAbsent, "중등 수학 A"),
	}}
	service := NewSummaryService(students, enrollments, attendance, testPolicy(), zap.NewNop())

	summary, err := service.StudentMonth(context.Background(), "s1", 2026, time.March)
	require.NoError(t, err)
	assert.Equal(t, "이서연", summary.Student.Name)
	require.Len(t, summary.Enrollments, 1)

	calendar := summary.Calendar
	assert.Equal(t, 2026, calendar.Year)
	assert.Equal(t, 3, calendar.Month)
	assert.Len(t, calendar.Days[9], 2, "two badges share the ninth")
	assert.Len(t, calendar.Days[2], 1)

	assert.Equal(t, 2, calendar.Summary.Present)
	assert.Equal(t, 1, calendar.Summary.Late)
	assert.Equal(t, 1, calendar.Summary.Absent)
	assert.Equal(t, 2, calendar.Summary.Makeup, "self-study and makeup share a bucket")
	assert.Equal(t, 6, calendar.Summary.Total)
}

func TestSummaryStudentMonthBadRange(t *testing.T) {
	service := NewSummaryService(&mockSummaryStudents{}, &mockSummaryEnrollments{}, &mockSummaryAttendance{}, testPolicy(), zap.NewNop())

	_, err := service.StudentMonth(context.Background(), "s1", 1999, time.March)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSummaryStudentMonthUnknownStudent(t *testing.T) {
	service := NewSummaryService(&mockSummaryStudents{}, &mockSummaryEnrollments{}, &mockSummaryAttendance{}, testPolicy(), zap.NewNop())

	_, err := service.StudentMonth(context.Background(), "missing", 2026, time.March)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hyeongseol/academy-api/internal/models"
	appErrors "github.com/hyeongseol/academy-api/pkg/errors"
	"github.com/hyeongseol/academy-api/pkg/retry"
)

type summaryAttendanceSource interface {
	ListByStudentMonth(ctx context.Context, studentID string, year int, month time.Month) ([]models.AttendanceDetail, error)
}

type summaryEnrollmentSource interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
}

type summaryStudentSource interface {
	Get(ctx context.Context, id string) (*models.Student, error)
}

// SummaryService builds the per-student month view: profile, enrollments
// and an attendance calendar.
type SummaryService struct {
	students    summaryStudentSource
	enrollments summaryEnrollmentSource
	attendance  summaryAttendanceSource
	store       retry.Policy
	logger      *zap.Logger
}

// NewSummaryService constructs a SummaryService.
func NewSummaryService(students summaryStudentSource, enrollments summaryEnrollmentSource, attendance summaryAttendanceSource, store retry.Policy, logger *zap.Logger) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{students: students, enrollments: enrollments, attendance: attendance, store: store, logger: logger}
}

// StudentMonth assembles the summary for one student and calendar month.
func (s *SummaryService) StudentMonth(ctx context.Context, studentID string, year int, month time.Month) (*models.StudentSummary, error) {
	if year < 2000 || year > 2100 || month < time.January || month > time.December {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid year or month")
	}

	student, err := s.students.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}

	var enrollments []models.EnrollmentDetail
	if err := s.store.Do(ctx, func(ctx context.Context) error {
		var err error
		enrollments, err = s.enrollments.ListByStudent(ctx, studentID)
		return err
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	var records []models.AttendanceDetail
	if err := s.store.Do(ctx, func(ctx context.Context) error {
		var err error
		records, err = s.attendance.ListByStudentMonth(ctx, studentID, year, month)
		return err
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}

	return &models.StudentSummary{
		Student:     *student,
		Enrollments: enrollments,
		Calendar:    buildCalendar(year, month, records),
	}, nil
}

// buildCalendar folds attendance rows into per-day badges plus counters.
// Makeup and self-study share the makeup bucket in the summary strip.
func buildCalendar(year int, month time.Month, records []models.AttendanceDetail) models.AttendanceCalendar {
	calendar := models.AttendanceCalendar{
		Year:  year,
		Month: int(month),
		Days:  make(map[int][]models.CalendarBadge),
	}
	for _, record := range records {
		day := record.Date.Day()
		badge := models.CalendarBadge{Status: record.Status}
		if record.ClassName != nil {
			badge.ClassName = *record.ClassName
		}
		calendar.Days[day] = append(calendar.Days[day], badge)

		switch record.Status {
		case models.AttendanceStatusPresent:
			calendar.Summary.Present++
		case models.AttendanceStatusLate:
			calendar.Summary.Late++
		case models.AttendanceStatusAbsent:
			calendar.Summary.Absent++
		case models.AttendanceStatusMakeup, models.AttendanceStatusSelfStudy:
			calendar.Summary.Makeup++
		}
		calendar.Summary.Total++
	}
	return calendar
}

package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hyeongseol/academy-api/internal/models"
	"github.com/hyeongseol/academy-api/internal/schedule"
	appErrors "github.com/hyeongseol/academy-api/pkg/errors"
	"github.com/hyeongseol/academy-api/pkg/retry"
)

type dashboardTeacherSource interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
}

type dashboardStudentSource interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
}

type dashboardClassSource interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error)
}

type dashboardAttendanceSource interface {
	CountByStatusOn(ctx context.Context, date time.Time) (map[models.AttendanceStatus]int, error)
}

type dashboardTimetableSource interface {
	RoomDay(ctx context.Context, day string) (*Timetable, error)
}

// DashboardSummary is the landing page payload: headline counts, today's
// attendance strip and today's room grid.
type DashboardSummary struct {
	AcademyName     string                          `json:"academy_name"`
	TeacherCount    int                             `json:"teacher_count"`
	StudentCount    int                             `json:"student_count"`
	ClassCount      int                             `json:"class_count"`
	TodayAttendance map[models.AttendanceStatus]int `json:"today_attendance"`
	TodayGrid       *Timetable                      `json:"today_grid,omitempty"`
	GeneratedAt     time.Time                       `json:"generated_at"`
}

// DashboardService aggregates headline numbers from the registries.
type DashboardService struct {
	teachers    dashboardTeacherSource
	students    dashboardStudentSource
	classes     dashboardClassSource
	attendance  dashboardAttendanceSource
	timetable   dashboardTimetableSource
	store       retry.Policy
	academyName string
	logger      *zap.Logger
	now         func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(teachers dashboardTeacherSource, students dashboardStudentSource, classes dashboardClassSource, attendance dashboardAttendanceSource, timetable dashboardTimetableSource, store retry.Policy, academyName string, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		teachers:    teachers,
		students:    students,
		classes:     classes,
		attendance:  attendance,
		timetable:   timetable,
		store:       store,
		academyName: academyName,
		logger:      logger,
		now:         time.Now,
	}
}

// Summary builds the dashboard payload.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	now := s.now()
	summary := &DashboardSummary{AcademyName: s.academyName, GeneratedAt: now.UTC()}

	countPage := models.TeacherFilter{Page: 1, PageSize: 1}
	err := s.store.Do(ctx, func(ctx context.Context) error {
		_, total, err := s.teachers.List(ctx, countPage)
		summary.TeacherCount = total
		return err
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}

	err = s.store.Do(ctx, func(ctx context.Context) error {
		_, total, err := s.students.List(ctx, models.StudentFilter{Page: 1, PageSize: 1})
		summary.StudentCount = total
		return err
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}

	err = s.store.Do(ctx, func(ctx context.Context) error {
		_, total, err := s.classes.List(ctx, models.ClassFilter{Page: 1, PageSize: 1})
		summary.ClassCount = total
		return err
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count classes")
	}

	err = s.store.Do(ctx, func(ctx context.Context) error {
		counts, err := s.attendance.CountByStatusOn(ctx, now)
		summary.TodayAttendance = counts
		return err
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count today's attendance")
	}

	today := schedule.DayOf((int(now.Weekday()) + 6) % 7)
	grid, err := s.timetable.RoomDay(ctx, today)
	if err != nil {
		// the grid is decoration on the dashboard; log and move on
		s.logger.Warn("failed to build today's room grid", zap.Error(err))
	} else {
		summary.TodayGrid = grid
	}
	return summary, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hyeongseol/academy-api/internal/models"
	"github.com/hyeongseol/academy-api/internal/schedule"
	appErrors "github.com/hyeongseol/academy-api/pkg/errors"
	"github.com/hyeongseol/academy-api/pkg/retry"
)

type attendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error)
	FindForDay(ctx context.Context, studentID string, classID *string, date time.Time) ([]models.Attendance, error)
	Create(ctx context.Context, record *models.Attendance) error
	CreateBulk(ctx context.Context, records []models.Attendance) error
	Delete(ctx context.Context, id string) error
}

type attendanceStudentSource interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByNameAndPhoneSuffix(ctx context.Context, name, suffix string) (*models.Student, error)
}

type attendanceClassSource interface {
	FindByID(ctx context.Context, id string) (*models.ClassDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.ClassDetail, error)
}

// RollCallEntry is one student's row in a manual roll call batch.
type RollCallEntry struct {
	StudentID string                  `json:"student_id" validate:"required,uuid4"`
	Status    models.AttendanceStatus `json:"status" validate:"required"`
	Note      *string                 `json:"note" validate:"omitempty,max=200"`
}

// RollCallRequest logs attendance for one class and date in a single batch.
type RollCallRequest struct {
	ClassID string          `json:"class_id" validate:"required,uuid4"`
	Date    string          `json:"date" validate:"required,datetime=2006-01-02"`
	Entries []RollCallEntry `json:"entries" validate:"required,min=1,dive"`
}

// CheckInRequest is one QR kiosk scan. Confirm acknowledges a makeup session
// for a student with no class today.
type CheckInRequest struct {
	Payload string `json:"payload" validate:"required"`
	Confirm bool   `json:"confirm"`
}

// CheckInResponse tells the kiosk what happened.
type CheckInResponse struct {
	StudentID            string                  `json:"student_id"`
	StudentName          string                  `json:"student_name"`
	ClassID              *string                 `json:"class_id,omitempty"`
	ClassName            *string                 `json:"class_name,omitempty"`
	Status               models.AttendanceStatus `json:"status,omitempty"`
	RecordID             string                  `json:"record_id,omitempty"`
	AlreadyLogged        bool                    `json:"already_logged"`
	RequiresConfirmation bool                    `json:"requires_confirmation"`
}

// AttendanceService owns the append-only attendance log: manual roll call
// batches and QR kiosk check-ins.
type AttendanceService struct {
	repo       attendanceRepository
	students   attendanceStudentSource
	classes    attendanceClassSource
	classifier schedule.Classifier
	cache      *CacheService
	metrics    *MetricsService
	store      retry.Policy
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceRepository, students attendanceStudentSource, classes attendanceClassSource, classifier schedule.Classifier, cache *CacheService, metrics *MetricsService, store retry.Policy, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if classifier.LateAfter <= 0 && classifier.EarlyBefore <= 0 {
		classifier = schedule.DefaultClassifier()
	}
	return &AttendanceService{
		repo:       repo,
		students:   students,
		classes:    classes,
		classifier: classifier,
		cache:      cache,
		metrics:    metrics,
		store:      store,
		validator:  validate,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *AttendanceService) WithClock(now func() time.Time) *AttendanceService {
	if now != nil {
		s.now = now
	}
	return s
}

// List returns attendance rows matching the filter.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, *models.Pagination, error) {
	var records []models.AttendanceDetail
	var total int
	err := s.store.Do(ctx, func(ctx context.Context) error {
		var err error
		records, total, err = s.repo.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, paginationFor(filter.Page, filter.PageSize, total), nil
}

// RollCall logs a manual batch for one class and date. Students already
// logged for that class and date are skipped so re-submitting a roster is
// harmless.
func (s *AttendanceService) RollCall(ctx context.Context, req RollCallRequest) ([]models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid roll call payload")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	var records []models.Attendance
	for _, entry := range req.Entries {
		if !entry.Status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown attendance status")
		}
		existing, err := s.repo.FindForDay(ctx, entry.StudentID, &class.ID, date)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing attendance")
		}
		if len(existing) > 0 {
			continue
		}
		classID := class.ID
		records = append(records, models.Attendance{
			StudentID: entry.StudentID,
			ClassID:   &classID,
			Date:      date,
			Status:    entry.Status,
			Note:      entry.Note,
			Source:    models.AttendanceSourceManual,
		})
	}

	if len(records) > 0 {
		if err := s.store.Do(ctx, func(ctx context.Context) error {
			return s.repo.CreateBulk(ctx, records)
		}); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to log attendance")
		}
		s.cache.InvalidateRegistry(ctx)
	}
	return records, nil
}

// CheckIn handles one QR scan. The payload is "<name>/<last four phone
// digits>". Arrival time against the next class slot decides the status;
// a student without a class today needs an explicit makeup confirmation.
func (s *AttendanceService) CheckIn(ctx context.Context, req CheckInRequest) (*CheckInResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check-in payload")
	}
	name, suffix, ok := splitPayload(req.Payload)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "malformed QR payload")
	}

	var student *models.Student
	err := s.store.Do(ctx, func(ctx context.Context) error {
		var err error
		student, err = s.students.FindByNameAndPhoneSuffix(ctx, name, suffix)
		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no student matches this code")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student")
	}

	now := s.now()
	today := schedule.DayOf((int(now.Weekday()) + 6) % 7)

	classes, err := s.classes.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student classes")
	}

	class, start := s.pickTodaysClass(classes, today, now)
	resp := &CheckInResponse{StudentID: student.ID, StudentName: student.Name}

	if class == nil {
		// no scheduled class today: makeup, behind an explicit confirm
		if !req.Confirm {
			resp.RequiresConfirmation = true
			resp.Status = models.AttendanceStatusMakeup
			return resp, nil
		}
		return s.record(ctx, resp, student.ID, nil, now, models.AttendanceStatusMakeup)
	}

	resp.ClassID = &class.ID
	resp.ClassName = &class.Name

	existing, err := s.repo.FindForDay(ctx, student.ID, &class.ID, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing attendance")
	}
	if len(existing) > 0 {
		resp.AlreadyLogged = true
		resp.Status = existing[0].Status
		resp.RecordID = existing[0].ID
		return resp, nil
	}

	verdict := s.classifier.Classify(now, start)
	status := statusForVerdict(verdict)
	return s.record(ctx, resp, student.ID, &class.ID, now, status)
}

// Delete removes a wrongly logged row.
func (s *AttendanceService) Delete(ctx context.Context, id string) error {
	if err := s.store.Do(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance")
	}
	s.cache.InvalidateRegistry(ctx)
	return nil
}

func (s *AttendanceService) record(ctx context.Context, resp *CheckInResponse, studentID string, classID *string, now time.Time, status models.AttendanceStatus) (*CheckInResponse, error) {
	record := &models.Attendance{
		StudentID: studentID,
		ClassID:   classID,
		Date:      now,
		Status:    status,
		Source:    models.AttendanceSourceQR,
	}
	if err := s.store.Do(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, record)
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to log check-in")
	}
	s.cache.InvalidateRegistry(ctx)
	s.metrics.RecordCheckIn(string(status))

	resp.Status = status
	resp.RecordID = record.ID
	return resp, nil
}

// pickTodaysClass selects the class whose slot the scan should be judged
// against: the earliest slot still running or upcoming, else the day's last.
func (s *AttendanceService) pickTodaysClass(classes []models.ClassDetail, today string, now time.Time) (*models.ClassDetail, schedule.Clock) {
	nowMin := now.Hour()*60 + now.Minute()

	type candidate struct {
		class *models.ClassDetail
		start schedule.Clock
		end   schedule.Clock
	}
	var candidates []candidate
	for i := range classes {
		for _, slot := range schedule.DecodeSlots(classes[i].Schedule) {
			if slot.Day != today {
				continue
			}
			start, err := schedule.ParseClock(slot.Start)
			if err != nil {
				continue
			}
			end, err := schedule.ParseClock(slot.End)
			if err != nil {
				continue
			}
			candidates = append(candidates, candidate{class: &classes[i], start: start, end: end})
		}
	}
	if len(candidates) == 0 {
		return nil, 0
	}

	var best, last *candidate
	for i := range candidates {
		c := &candidates[i]
		if last == nil || c.start > last.start {
			last = c
		}
		if c.end.Minutes() < nowMin {
			continue
		}
		if best == nil || c.start < best.start {
			best = c
		}
	}
	if best == nil {
		best = last
	}
	return best.class, best.start
}

func statusForVerdict(v schedule.CheckInVerdict) models.AttendanceStatus {
	switch v {
	case schedule.VerdictLate:
		return models.AttendanceStatusLate
	case schedule.VerdictEarly:
		return models.AttendanceStatusSelfStudy
	default:
		return models.AttendanceStatusPresent
	}
}

func splitPayload(payload string) (name, suffix string, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(payload), "/", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	name = strings.TrimSpace(parts[0])
	suffix = strings.TrimSpace(parts[1])
	if name == "" || suffix == "" {
		return "", "", false
	}
	return name, suffix, true
}

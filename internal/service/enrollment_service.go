package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hyeongseol/academy-api/internal/models"
	appErrors "github.com/hyeongseol/academy-api/pkg/errors"
	"github.com/hyeongseol/academy-api/pkg/retry"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	Exists(ctx context.Context, studentID, classID string) (bool, error)
	CreateBulk(ctx context.Context, enrollments []models.Enrollment) error
	Delete(ctx context.Context, id string) error
}

type enrollmentStudentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type enrollmentClassFinder interface {
	FindByID(ctx context.Context, id string) (*models.ClassDetail, error)
}

// AssignRequest is the assignment cart: one student joining several classes
// in one submit.
type AssignRequest struct {
	StudentID string   `json:"student_id" validate:"required,uuid4"`
	ClassIDs  []string `json:"class_ids" validate:"required,min=1,dive,uuid4"`
}

// AssignResult reports what the cart submit actually did.
type AssignResult struct {
	Assigned []models.Enrollment `json:"assigned"`
	Skipped  []string            `json:"skipped"`
}

type cachedEnrollmentList struct {
	Items      []models.EnrollmentDetail `json:"items"`
	Pagination *models.Pagination        `json:"pagination"`
}

// EnrollmentService manages student-to-class assignments.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  enrollmentStudentFinder
	classes   enrollmentClassFinder
	cache     *CacheService
	store     retry.Policy
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, students enrollmentStudentFinder, classes enrollmentClassFinder, cache *CacheService, store retry.Policy, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, classes: classes, cache: cache, store: store, validator: validate, logger: logger}
}

// List returns enrollments with display fields.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	key := enrollmentListKey(filter)
	var cached cachedEnrollmentList
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Items, cached.Pagination, nil
	}

	var enrollments []models.EnrollmentDetail
	var total int
	err := s.store.Do(ctx, func(ctx context.Context) error {
		var err error
		enrollments, total, err = s.repo.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	pagination := paginationFor(filter.Page, filter.PageSize, total)
	_ = s.cache.Set(ctx, key, cachedEnrollmentList{Items: enrollments, Pagination: pagination})
	return enrollments, pagination, nil
}

// ListByStudent returns one student's enrollments.
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	var enrollments []models.EnrollmentDetail
	err := s.store.Do(ctx, func(ctx context.Context) error {
		var err error
		enrollments, err = s.repo.ListByStudent(ctx, studentID)
		return err
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// Assign submits the assignment cart. Classes the student already belongs to
// are skipped rather than failing the whole cart; the subject is taken from
// the class teacher.
func (s *EnrollmentService) Assign(ctx context.Context, req AssignRequest) (*AssignResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	result := &AssignResult{}
	var pending []models.Enrollment
	seen := make(map[string]struct{}, len(req.ClassIDs))
	for _, classID := range req.ClassIDs {
		if _, dup := seen[classID]; dup {
			continue
		}
		seen[classID] = struct{}{}

		class, err := s.classes.FindByID(ctx, classID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("class %s not found", classID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
		}

		exists, err := s.repo.Exists(ctx, req.StudentID, classID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
		}
		if exists {
			result.Skipped = append(result.Skipped, classID)
			continue
		}

		pending = append(pending, models.Enrollment{
			StudentID: req.StudentID,
			ClassID:   classID,
			Subject:   class.TeacherSubject,
		})
	}

	if len(pending) > 0 {
		if err := s.store.Do(ctx, func(ctx context.Context) error {
			return s.repo.CreateBulk(ctx, pending)
		}); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollments")
		}
		s.cache.InvalidateRegistry(ctx)
	}
	result.Assigned = pending
	return result, nil
}

// Unassign removes one enrollment.
func (s *EnrollmentService) Unassign(ctx context.Context, id string) error {
	err := s.store.Do(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	s.cache.InvalidateRegistry(ctx)
	return nil
}

func enrollmentListKey(f models.EnrollmentFilter) string {
	return fmt.Sprintf("registry:enrollments:%s:%s:%s:%d:%d:%s:%s", f.StudentID, f.ClassID, f.Subject, f.Page, f.PageSize, f.SortBy, f.SortOrder)
}

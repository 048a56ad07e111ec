package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hyeongseol/academy-api/internal/models"
	appErrors "github.com/hyeongseol/academy-api/pkg/errors"
	"github.com/hyeongseol/academy-api/pkg/retry"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByNamePhone(ctx context.Context, name, phone, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type studentEnrollmentCleaner interface {
	DeleteByStudent(ctx context.Context, studentID string) error
}

// CreateStudentRequest represents payload for registering students.
type CreateStudentRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Phone       string `json:"phone" validate:"required,max=50"`
	ParentPhone string `json:"parent_phone" validate:"omitempty,max=50"`
	Grade       string `json:"grade" validate:"required,max=20"`
	School      string `json:"school" validate:"omitempty,max=100"`
}

// UpdateStudentRequest represents payload for updating students.
type UpdateStudentRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Phone       string `json:"phone" validate:"required,max=50"`
	ParentPhone string `json:"parent_phone" validate:"omitempty,max=50"`
	Grade       string `json:"grade" validate:"required,max=20"`
	School      string `json:"school" validate:"omitempty,max=100"`
}

type cachedStudentList struct {
	Items      []models.Student   `json:"items"`
	Pagination *models.Pagination `json:"pagination"`
}

// StudentService orchestrates the student registry.
type StudentService struct {
	repo        studentRepository
	enrollments studentEnrollmentCleaner
	cache       *CacheService
	store       retry.Policy
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, enrollments studentEnrollmentCleaner, cache *CacheService, store retry.Policy, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, enrollments: enrollments, cache: cache, store: store, validator: validate, logger: logger}
}

// List returns students plus pagination data.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	key := studentListKey(filter)
	var cached cachedStudentList
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Items, cached.Pagination, nil
	}

	var students []models.Student
	var total int
	err := s.store.Do(ctx, func(ctx context.Context) error {
		var err error
		students, total, err = s.repo.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	pagination := paginationFor(filter.Page, filter.PageSize, total)
	_ = s.cache.Set(ctx, key, cachedStudentList{Items: students, Pagination: pagination})
	return students, pagination, nil
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	var student *models.Student
	err := s.store.Do(ctx, func(ctx context.Context) error {
		var err error
		student, err = s.repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student record.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	exists, err := s.repo.ExistsByNamePhone(ctx, name, phone, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already registered with this phone")
	}

	student := &models.Student{
		Name:        name,
		Phone:       phone,
		ParentPhone: strings.TrimSpace(req.ParentPhone),
		Grade:       strings.TrimSpace(req.Grade),
		School:      strings.TrimSpace(req.School),
	}
	if err := s.store.Do(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, student)
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.cache.InvalidateRegistry(ctx)
	return student, nil
}

// Update modifies an existing student.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	exists, err := s.repo.ExistsByNamePhone(ctx, name, phone, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already registered with this phone")
	}

	student.Name = name
	student.Phone = phone
	student.ParentPhone = strings.TrimSpace(req.ParentPhone)
	student.Grade = strings.TrimSpace(req.Grade)
	student.School = strings.TrimSpace(req.School)

	if err := s.store.Do(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, student)
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.cache.InvalidateRegistry(ctx)
	return student, nil
}

// Delete removes a student along with every class assignment. Attendance
// history stays untouched; the log is append-only.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.store.Do(ctx, func(ctx context.Context) error {
		return s.enrollments.DeleteByStudent(ctx, id)
	}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove student enrollments")
	}
	if err := s.store.Do(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.cache.InvalidateRegistry(ctx)
	return nil
}

func studentListKey(f models.StudentFilter) string {
	return fmt.Sprintf("registry:students:%s:%s:%s:%d:%d:%s:%s", f.Search, f.Grade, f.School, f.Page, f.PageSize, f.SortBy, f.SortOrder)
}

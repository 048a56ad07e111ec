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

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByNameSubject(ctx context.Context, name, subject, excludeID string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) error
}

type teacherClassCounter interface {
	CountByTeacher(ctx context.Context, teacherID string) (int, error)
}

// CreateTeacherRequest represents payload for registering teachers.
type CreateTeacherRequest struct {
	Name    string  `json:"name" validate:"required,max=100"`
	Subject string  `json:"subject" validate:"required,max=50"`
	Phone   *string `json:"phone" validate:"omitempty,max=50"`
}

// UpdateTeacherRequest represents payload for updating teachers.
type UpdateTeacherRequest struct {
	Name    string  `json:"name" validate:"required,max=100"`
	Subject string  `json:"subject" validate:"required,max=50"`
	Phone   *string `json:"phone" validate:"omitempty,max=50"`
	Active  *bool   `json:"active"`
}

type cachedTeacherList struct {
	Items      []models.Teacher   `json:"items"`
	Pagination *models.Pagination `json:"pagination"`
}

// TeacherService orchestrates the teacher registry.
type TeacherService struct {
	repo      teacherRepository
	classes   teacherClassCounter
	cache     *CacheService
	store     retry.Policy
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, classes teacherClassCounter, cache *CacheService, store retry.Policy, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, classes: classes, cache: cache, store: store, validator: validate, logger: logger}
}

// List returns teachers plus pagination data, served from the short-lived
// cache when possible.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	key := teacherListKey(filter)
	var cached cachedTeacherList
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Items, cached.Pagination, nil
	}

	var teachers []models.Teacher
	var total int
	err := s.store.Do(ctx, func(ctx context.Context) error {
		var err error
		teachers, total, err = s.repo.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}

	pagination := paginationFor(filter.Page, filter.PageSize, total)
	_ = s.cache.Set(ctx, key, cachedTeacherList{Items: teachers, Pagination: pagination})
	return teachers, pagination, nil
}

// Get returns a teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	var teacher *models.Teacher
	err := s.store.Do(ctx, func(ctx context.Context) error {
		var err error
		teacher, err = s.repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a new teacher record.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	name := strings.TrimSpace(req.Name)
	subject := strings.TrimSpace(req.Subject)
	exists, err := s.repo.ExistsByNameSubject(ctx, name, subject, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already registered for this subject")
	}

	teacher := &models.Teacher{
		Name:    name,
		Subject: subject,
		Phone:   normalizeOptional(req.Phone),
		Active:  true,
	}
	if err := s.store.Do(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, teacher)
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	s.cache.InvalidateRegistry(ctx)
	return teacher, nil
}

// Update modifies an existing teacher.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	subject := strings.TrimSpace(req.Subject)
	exists, err := s.repo.ExistsByNameSubject(ctx, name, subject, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already registered for this subject")
	}

	teacher.Name = name
	teacher.Subject = subject
	teacher.Phone = normalizeOptional(req.Phone)
	if req.Active != nil {
		teacher.Active = *req.Active
	}

	if err := s.store.Do(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, teacher)
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	s.cache.InvalidateRegistry(ctx)
	return teacher, nil
}

// Delete removes a teacher. Teachers still owning classes cannot be removed;
// the caller has to reassign or delete those classes first.
func (s *TeacherService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.classes.CountByTeacher(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teacher classes")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("teacher still owns %d classes", count))
	}

	if err := s.store.Do(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	s.cache.InvalidateRegistry(ctx)
	return nil
}

func teacherListKey(f models.TeacherFilter) string {
	active := ""
	if f.Active != nil {
		active = fmt.Sprintf("%t", *f.Active)
	}
	return fmt.Sprintf("registry:teachers:%s:%s:%s:%d:%d:%s:%s", f.Search, f.Subject, active, f.Page, f.PageSize, f.SortBy, f.SortOrder)
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

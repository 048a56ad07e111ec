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
	"github.com/hyeongseol/academy-api/internal/schedule"
	appErrors "github.com/hyeongseol/academy-api/pkg/errors"
	"github.com/hyeongseol/academy-api/pkg/retry"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassDetail, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
}

type classTeacherFinder interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type classEnrollmentCleaner interface {
	DeleteByClass(ctx context.Context, classID string) error
}

// CreateClassRequest represents payload for opening a class.
type CreateClassRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	TeacherID string `json:"teacher_id" validate:"required,uuid4"`
	Schedule  string `json:"schedule" validate:"required"`
	Room      string `json:"room" validate:"omitempty,max=50"`
}

// UpdateClassRequest represents payload for updating a class.
type UpdateClassRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	TeacherID string `json:"teacher_id" validate:"required,uuid4"`
	Schedule  string `json:"schedule" validate:"required"`
	Room      string `json:"room" validate:"omitempty,max=50"`
}

type cachedClassList struct {
	Items      []models.ClassDetail `json:"items"`
	Pagination *models.Pagination   `json:"pagination"`
}

// ClassService orchestrates the class registry. Schedule strings are parsed
// strictly on the way in so the projector never sees a token it has to drop.
type ClassService struct {
	repo        classRepository
	teachers    classTeacherFinder
	enrollments classEnrollmentCleaner
	cache       *CacheService
	store       retry.Policy
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(repo classRepository, teachers classTeacherFinder, enrollments classEnrollmentCleaner, cache *CacheService, store retry.Policy, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, teachers: teachers, enrollments: enrollments, cache: cache, store: store, validator: validate, logger: logger}
}

// List returns classes with teacher display data.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, *models.Pagination, error) {
	key := classListKey(filter)
	var cached cachedClassList
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Items, cached.Pagination, nil
	}

	var classes []models.ClassDetail
	var total int
	err := s.store.Do(ctx, func(ctx context.Context) error {
		var err error
		classes, total, err = s.repo.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}

	pagination := paginationFor(filter.Page, filter.PageSize, total)
	_ = s.cache.Set(ctx, key, cachedClassList{Items: classes, Pagination: pagination})
	return classes, pagination, nil
}

// Get returns a class by id.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ClassDetail, error) {
	var class *models.ClassDetail
	err := s.store.Do(ctx, func(ctx context.Context) error {
		var err error
		class, err = s.repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Slots returns the decoded weekly slots of a class.
func (s *ClassService) Slots(ctx context.Context, id string) ([]schedule.Slot, error) {
	class, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return schedule.DecodeSlots(class.Schedule), nil
}

// Create opens a new class.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.ClassDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	slots, err := schedule.ParseSchedule(req.Schedule)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadSchedule.Code, appErrors.ErrBadSchedule.Status, err.Error())
	}

	teacher, err := s.teachers.FindByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	name := strings.TrimSpace(req.Name)
	exists, err := s.repo.ExistsByName(ctx, name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "class name already used")
	}

	class := &models.Class{
		Name:      name,
		TeacherID: teacher.ID,
		Schedule:  schedule.EncodeSlots(slots),
		Room:      strings.TrimSpace(req.Room),
	}
	if err := s.store.Do(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, class)
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	s.cache.InvalidateRegistry(ctx)

	return &models.ClassDetail{Class: *class, TeacherName: teacher.Name, TeacherSubject: teacher.Subject}, nil
}

// Update modifies an existing class.
func (s *ClassService) Update(ctx context.Context, id string, req UpdateClassRequest) (*models.ClassDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	slots, err := schedule.ParseSchedule(req.Schedule)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadSchedule.Code, appErrors.ErrBadSchedule.Status, err.Error())
	}

	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	teacher, err := s.teachers.FindByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	name := strings.TrimSpace(req.Name)
	exists, err := s.repo.ExistsByName(ctx, name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "class name already used")
	}

	class := detail.Class
	class.Name = name
	class.TeacherID = teacher.ID
	class.Schedule = schedule.EncodeSlots(slots)
	class.Room = strings.TrimSpace(req.Room)

	if err := s.store.Do(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, &class)
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	s.cache.InvalidateRegistry(ctx)

	return &models.ClassDetail{Class: class, TeacherName: teacher.Name, TeacherSubject: teacher.Subject}, nil
}

// Delete removes a class and its enrollments.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.store.Do(ctx, func(ctx context.Context) error {
		return s.enrollments.DeleteByClass(ctx, id)
	}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove class enrollments")
	}
	if err := s.store.Do(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	s.cache.InvalidateRegistry(ctx)
	return nil
}

func classListKey(f models.ClassFilter) string {
	return fmt.Sprintf("registry:classes:%s:%s:%s:%d:%d:%s:%s", f.Search, f.TeacherID, f.Room, f.Page, f.PageSize, f.SortBy, f.SortOrder)
}

package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyeongseol/academy-api/internal/models"
	"github.com/hyeongseol/academy-api/internal/schedule"
	appErrors "github.com/hyeongseol/academy-api/pkg/errors"
	"github.com/hyeongseol/academy-api/pkg/retry"
)

type timetableClassSource interface {
	ListAll(ctx context.Context) ([]models.ClassDetail, error)
}

type timetableEnrollmentSource interface {
	CountPerClass(ctx context.Context) (map[string]int, error)
}

// Timetable bundles a projected grid with per-class student counts.
type Timetable struct {
	Grid          schedule.Grid  `json:"grid"`
	StudentCounts map[string]int `json:"student_counts"`
}

// TimetableService projects the class registry into weekly teacher grids and
// daily room grids.
type TimetableService struct {
	classes     timetableClassSource
	enrollments timetableEnrollmentSource
	cache       *CacheService
	store       retry.Policy
	rooms       []string
	logger      *zap.Logger
}

// NewTimetableService constructs a TimetableService. rooms is the configured
// room list; its first entry doubles as the catch-all column.
func NewTimetableService(classes timetableClassSource, enrollments timetableEnrollmentSource, cache *CacheService, store retry.Policy, rooms []string, logger *zap.Logger) *TimetableService {
	if len(rooms) == 0 {
		rooms = []string{"기타"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{classes: classes, enrollments: enrollments, cache: cache, store: store, rooms: rooms, logger: logger}
}

// Rooms exposes the configured room columns.
func (s *TimetableService) Rooms() []string {
	return s.rooms
}

// TeacherWeek builds the weekly grid. With a teacherID the projection is
// scoped to that teacher's classes; otherwise teacherName narrows by label
// substring, and both empty yields the whole academy.
func (s *TimetableService) TeacherWeek(ctx context.Context, teacherID, teacherName string) (*Timetable, error) {
	key := fmt.Sprintf("registry:timetable:week:%s:%s", teacherID, teacherName)
	var cached Timetable
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	classes, counts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var input []schedule.ClassSlots
	if teacherID != "" {
		for _, c := range classes {
			if c.TeacherID == teacherID {
				input = append(input, toClassSlots(c))
			}
		}
		teacherName = ""
	} else {
		input = toClassSlotsAll(classes)
	}

	timetable := &Timetable{
		Grid:          schedule.ProjectWeek(input, teacherName),
		StudentCounts: counts,
	}
	_ = s.cache.Set(ctx, key, timetable)
	return timetable, nil
}

// RoomDay builds the per-room grid for one weekday.
func (s *TimetableService) RoomDay(ctx context.Context, day string) (*Timetable, error) {
	if !schedule.ValidDay(day) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown weekday")
	}

	key := fmt.Sprintf("registry:timetable:day:%s", day)
	var cached Timetable
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	classes, counts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	timetable := &Timetable{
		Grid:          schedule.ProjectDay(toClassSlotsAll(classes), day, s.rooms),
		StudentCounts: counts,
	}
	_ = s.cache.Set(ctx, key, timetable)
	return timetable, nil
}

func (s *TimetableService) load(ctx context.Context) ([]models.ClassDetail, map[string]int, error) {
	var classes []models.ClassDetail
	err := s.store.Do(ctx, func(ctx context.Context) error {
		var err error
		classes, err = s.classes.ListAll(ctx)
		return err
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}

	var counts map[string]int
	err = s.store.Do(ctx, func(ctx context.Context) error {
		var err error
		counts, err = s.enrollments.CountPerClass(ctx)
		return err
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment counts")
	}
	return classes, counts, nil
}

func toClassSlots(c models.ClassDetail) schedule.ClassSlots {
	return schedule.ClassSlots{
		ClassID:      c.ID,
		ClassName:    c.Name,
		TeacherLabel: c.TeacherLabel(),
		Subject:      c.TeacherSubject,
		Room:         c.Room,
		Slots:        schedule.DecodeSlots(c.Schedule),
	}
}

func toClassSlotsAll(classes []models.ClassDetail) []schedule.ClassSlots {
	out := make([]schedule.ClassSlots, 0, len(classes))
	for _, c := range classes {
		out = append(out, toClassSlots(c))
	}
	return out
}

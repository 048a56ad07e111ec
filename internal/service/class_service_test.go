package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyeongseol/academy-api/internal/models"
	appErrors "github.com/hyeongseol/academy-api/pkg/errors"
)

type mockClassRepo struct {
	items        map[string]*models.ClassDetail
	nameIndex    map[string]string
	deleted      []string
	lastInserted *models.Class
	listCalls    int
}

func (m *mockClassRepo) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	m.listCalls++
	var out []models.ClassDetail
	for _, c := range m.items {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	if class, ok := m.items[id]; ok {
		cp := *class
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	if owner, ok := m.nameIndex[name]; ok {
		if excludeID == "" || owner != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	if m.items == nil {
		m.items = make(map[string]*models.ClassDetail)
	}
	if class.ID == "" {
		class.ID = "generated"
	}
	m.lastInserted = class
	m.items[class.ID] = &models.ClassDetail{Class: *class}
	return nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *models.Class) error {
	m.items[class.ID] = &models.ClassDetail{Class: *class}
	return nil
}

func (m *mockClassRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.items, id)
	return nil
}

type mockTeacherFinder struct {
	items map[string]*models.Teacher
}

func (m *mockTeacherFinder) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if teacher, ok := m.items[id]; ok {
		cp := *teacher
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type mockEnrollmentCleaner struct {
	cleanedClasses  []string
	cleanedStudents []string
}

func (m *mockEnrollmentCleaner) DeleteByClass(ctx context.Context, classID string) error {
	m.cleanedClasses = append(m.cleanedClasses, classID)
	return nil
}

func (m *mockEnrollmentCleaner) DeleteByStudent(ctx context.Context, studentID string) error {
	m.cleanedStudents = append(m.cleanedStudents, studentID)
	return nil
}

func newClassServiceForTest(repo *mockClassRepo, teachers *mockTeacherFinder, cleaner *mockEnrollmentCleaner) *ClassService {
	if cleaner == nil {
		cleaner = &mockEnrollmentCleaner{}
	}
	return NewClassService(repo, teachers, cleaner, nil, testPolicy(), nil, zap.NewNop())
}

func TestClassServiceCreate(t *testing.T) {
	teacherID := uuid.NewString()
	repo := &mockClassRepo{}
	teachers := &mockTeacherFinder{items: map[string]*models.Teacher{
		teacherID: {ID: teacherID, Name: "김민수", Subject: "수학", Active: true},
	}}
	service := newClassServiceForTest(repo, teachers, nil)

	class, err := service.Create(context.Background(), CreateClassRequest{
		Name:      "중등 수학 A",
		TeacherID: teacherID,
		Schedule:  "월 9:00-10:30, 수 9:00-10:30",
		Room:      "201호",
	})
	require.NoError(t, err)
	assert.Equal(t, "월 9:00-10:30, 수 9:00-10:30", class.Schedule)
	assert.Equal(t, "김민수 (수학)", class.TeacherLabel())
	require.NotNil(t, repo.lastInserted)
	assert.Equal(t, teacherID, repo.lastInserted.TeacherID)
}

func TestClassServiceCreateBadSchedule(t *testing.T) {
	teacherID := uuid.NewString()
	teachers := &mockTeacherFinder{items: map[string]*models.Teacher{
		teacherID: {ID: teacherID, Name: "김민수", Subject: "수학"},
	}}
	service := newClassServiceForTest(&mockClassRepo{}, teachers, nil)

	cases := []string{
		"달 9:00-10:30",      // unknown weekday
		"월 9:00",            // no time range
		"월 25:00-26:00",     // hour out of range
		"월 10:30-9:00",      // inverted range
		"월 9:00-10:30, 월 11:00-12:00", // duplicate day
	}
	for _, input := range cases {
		_, err := service.Create(context.Background(), CreateClassRequest{
			Name:      "중등 수학 A",
			TeacherID: teacherID,
			Schedule:  input,
		})
		require.Error(t, err, "schedule %q", input)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrBadSchedule.Code, appErr.Code, "schedule %q", input)
	}
}

func TestClassServiceCreateUnknownTeacher(t *testing.T) {
	service := newClassServiceForTest(&mockClassRepo{}, &mockTeacherFinder{}, nil)

	_, err := service.Create(context.Background(), CreateClassRequest{
		Name:      "중등 수학 A",
		TeacherID: uuid.NewString(),
		Schedule:  "월 9:00-10:30",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestClassServiceCreateDuplicateName(t *testing.T) {
	teacherID := uuid.NewString()
	repo := &mockClassRepo{nameIndex: map[string]string{"중등 수학 A": "other"}}
	teachers := &mockTeacherFinder{items: map[string]*models.Teacher{
		teacherID: {ID: teacherID, Name: "김민수", Subject: "수학"},
	}}
	service := newClassServiceForTest(repo, teachers, nil)

	_, err := service.Create(context.Background(), CreateClassRequest{
		Name:      "중등 수학 A",
		TeacherID: teacherID,
		Schedule:  "월 9:00-10:30",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestClassServiceDeleteCascadesEnrollments(t *testing.T) {
	repo := &mockClassRepo{items: map[string]*models.ClassDetail{
		"c1": {Class: models.Class{ID: "c1", Name: "중등 수학 A"}},
	}}
	cleaner := &mockEnrollmentCleaner{}
	service := newClassServiceForTest(repo, &mockTeacherFinder{}, cleaner)

	require.NoError(t, service.Delete(context.Background(), "c1"))
	assert.Equal(t, []string{"c1"}, cleaner.cleanedClasses)
	assert.Equal(t, []string{"c1"}, repo.deleted)
}

// fakeCacheRepo is an in-memory stand-in for the Redis-backed cache
// repository, with the same miss sentinel and pattern-delete contract.
type fakeCacheRepo struct {
	entries        map[string][]byte
	patternDeletes []string
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{entries: map[string][]byte{}}
}

func (f *fakeCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	f.patternDeletes = append(f.patternDeletes, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range f.entries {
		if strings.HasPrefix(key, prefix) {
			delete(f.entries, key)
		}
	}
	return nil
}

func TestClassServiceMutationInvalidatesCache(t *testing.T) {
	teacherID := uuid.NewString()
	repo := &mockClassRepo{}
	teachers := &mockTeacherFinder{items: map[string]*models.Teacher{
		teacherID: {ID: teacherID, Name: "김민수", Subject: "수학", Active: true},
	}}
	cacheRepo := newFakeCacheRepo()
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	service := NewClassService(repo, teachers, &mockEnrollmentCleaner{}, cacheSvc, testPolicy(), nil, zap.NewNop())

	filter := models.ClassFilter{Page: 1, PageSize: 20}

	first, _, err := service.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Empty(t, first)
	assert.Equal(t, 1, repo.listCalls)

	// second read within the TTL is served from the cache
	_, _, err = service.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)

	_, err = service.Create(context.Background(), CreateClassRequest{
		Name:      "중등 수학 A",
		TeacherID: teacherID,
		Schedule:  "월 9:00-10:30",
		Room:      "201호",
	})
	require.NoError(t, err)
	assert.Contains(t, cacheRepo.patternDeletes, "registry:*")

	// the write is visible immediately, not after TTL expiry
	after, _, err := service.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
	require.Len(t, after, 1)
	assert.Equal(t, "중등 수학 A", after[0].Name)
}

func TestClassServiceSlots(t *testing.T) {
	repo := &mockClassRepo{items: map[string]*models.ClassDetail{
		"c1": {Class: models.Class{ID: "c1", Name: "중등 수학 A", Schedule: "월 9:00-10:30, 수 14:00-15:30"}},
	}}
	service := newClassServiceForTest(repo, &mockTeacherFinder{}, nil)

	slots, err := service.Slots(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "월", slots[0].Day)
	assert.Equal(t, "9:00", slots[0].Start)
	assert.Equal(t, "수", slots[1].Day)
	assert.Equal(t, "15:30", slots[1].End)
}

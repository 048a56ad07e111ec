package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyeongseol/academy-api/internal/models"
	appErrors "github.com/hyeongseol/academy-api/pkg/errors"
)

type mockStudentRepo struct {
	items     map[string]*models.Student
	phoneIdx  map[string]string // name|phone -> owning id
	deleted   []string
	listCalls int
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{items: map[string]*models.Student{}, phoneIdx: map[string]string{}}
}

func (m *mockStudentRepo) add(s *models.Student) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	m.items[s.ID] = s
	m.phoneIdx[s.Name+"|"+s.Phone] = s.ID
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	m.listCalls++
	out := make([]models.Student, 0, len(m.items))
	for _, s := range m.items {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	s, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (m *mockStudentRepo) ExistsByNamePhone(ctx context.Context, name, phone, excludeID string) (bool, error) {
	owner, ok := m.phoneIdx[name+"|"+phone]
	if !ok {
		return false, nil
	}
	return owner != excludeID, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	student.ID = uuid.NewString()
	m.add(student)
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	existing, ok := m.items[student.ID]
	if !ok {
		return sql.ErrNoRows
	}
	delete(m.phoneIdx, existing.Name+"|"+existing.Phone)
	copied := *student
	m.items[student.ID] = &copied
	m.phoneIdx[student.Name+"|"+student.Phone] = student.ID
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func newStudentServiceForTest(repo *mockStudentRepo, cleaner *mockEnrollmentCleaner) *StudentService {
	if cleaner == nil {
		cleaner = &mockEnrollmentCleaner{}
	}
	return NewStudentService(repo, cleaner, nil, testPolicy(), nil, zap.NewNop())
}

func TestStudentServiceCreate(t *testing.T) {
	repo := newMockStudentRepo()
	service := newStudentServiceForTest(repo, nil)

	student, err := service.Create(context.Background(), CreateStudentRequest{
		Name:        " 이서연 ",
		Phone:       "010-1234-5678",
		ParentPhone: "010-8765-4321",
		Grade:       "중2",
		School:      "한빛중학교",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.Equal(t, "이서연", student.Name)
	assert.Equal(t, "이서연 (중2)", student.Label())
	assert.Equal(t, "5678", student.PhoneSuffix())
}

func TestStudentServiceCreateDuplicatePhone(t *testing.T) {
	repo := newMockStudentRepo()
	repo.add(&models.Student{Name: "이서연", Phone: "010-1234-5678", Grade: "중2"})
	service := newStudentServiceForTest(repo, nil)

	_, err := service.Create(context.Background(), CreateStudentRequest{
		Name:  "이서연",
		Phone: "010-1234-5678",
		Grade: "중3",
	})
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, apiErr.Code)
}

func TestStudentServiceCreateRejectsMissingFields(t *testing.T) {
	service := newStudentServiceForTest(newMockStudentRepo(), nil)

	_, err := service.Create(context.Background(), CreateStudentRequest{Name: "이서연"})
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, apiErr.Code)
}

func TestStudentServiceUpdate(t *testing.T) {
	repo := newMockStudentRepo()
	existing := &models.Student{Name: "이서연", Phone: "010-1234-5678", Grade: "중2"}
	repo.add(existing)
	service := newStudentServiceForTest(repo, nil)

	updated, err := service.Update(context.Background(), existing.ID, UpdateStudentRequest{
		Name:  "이서연",
		Phone: "010-1234-5678",
		Grade: "중3",
	})
	require.NoError(t, err)
	assert.Equal(t, "중3", updated.Grade)
	assert.Equal(t, "중3", repo.items[existing.ID].Grade)
}

func TestStudentServiceUpdateKeepsOwnPhone(t *testing.T) {
	repo := newMockStudentRepo()
	existing := &models.Student{Name: "이서연", Phone: "010-1234-5678", Grade: "중2"}
	repo.add(existing)
	service := newStudentServiceForTest(repo, nil)

	// re-submitting the same name/phone pair is not a conflict with itself
	_, err := service.Update(context.Background(), existing.ID, UpdateStudentRequest{
		Name:  "이서연",
		Phone: "010-1234-5678",
		Grade: "중2",
	})
	require.NoError(t, err)
}

func TestStudentServiceDeleteCascadesEnrollments(t *testing.T) {
	repo := newMockStudentRepo()
	existing := &models.Student{Name: "이서연", Phone: "010-1234-5678", Grade: "중2"}
	repo.add(existing)
	cleaner := &mockEnrollmentCleaner{}
	service := newStudentServiceForTest(repo, cleaner)

	require.NoError(t, service.Delete(context.Background(), existing.ID))
	assert.Equal(t, []string{existing.ID}, cleaner.cleanedStudents)
	assert.Equal(t, []string{existing.ID}, repo.deleted)
}

func TestStudentServiceGetNotFound(t *testing.T) {
	service := newStudentServiceForTest(newMockStudentRepo(), nil)

	_, err := service.Get(context.Background(), uuid.NewString())
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, apiErr.Code)
}

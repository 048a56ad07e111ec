package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyeongseol/academy-api/internal/models"
	appErrors "github.com/hyeongseol/academy-api/pkg/errors"
	"github.com/hyeongseol/academy-api/pkg/jobs"
)

type mockReportStore struct {
	items      map[string]*models.ReportJob
	processing []string
	finished   []string
	failed     []string
}

func (m *mockReportStore) Create(ctx context.Context, job *models.ReportJob) error {
	if m.items == nil {
		m.items = make(map[string]*models.ReportJob)
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	cp := *job
	m.items[job.ID] = &cp
	return nil
}

func (m *mockReportStore) FindByID(ctx context.Context, id string) (*models.ReportJob, error) {
	if job, ok := m.items[id]; ok {
		cp := *job
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReportStore) ListRecent(ctx context.Context, limit int) ([]models.ReportJob, error) {
	var out []models.ReportJob
	for _, job := range m.items {
		out = append(out, *job)
	}
	return out, nil
}

func (m *mockReportStore) MarkProcessing(ctx context.Context, id string) error {
	m.processing = append(m.processing, id)
	m.items[id].Status = models.ReportStatusProcessing
	return nil
}

func (m *mockReportStore) MarkFinished(ctx context.Context, id, resultURL string, finishedAt time.Time) error {
	m.finished = append(m.finished, id)
	m.items[id].Status = models.ReportStatusFinished
	m.items[id].ResultURL = &resultURL
	return nil
}

func (m *mockReportStore) MarkFailed(ctx context.Context, id, message string, finishedAt time.Time) error {
	m.failed = append(m.failed, id)
	m.items[id].Status = models.ReportStatusFailed
	m.items[id].ErrorMessage = &message
	return nil
}

type mockDispatcher struct {
	enqueued []jobs.Job
	err      error
}

func (m *mockDispatcher) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

type mockExporter struct {
	result      *ExportResult
	generateErr error
	generated   []string
}

func (m *mockExporter) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	m.generated = append(m.generated, job.ID)
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	return m.result, nil
}

func (m *mockExporter) ParseToken(token string, allowExpired bool) (string, string, time.Time, error) {
	return "", "", time.Time{}, errors.New("not signed")
}

func (m *mockExporter) Open(relPath string) (*os.File, error) { return nil, errors.New("no file") }
func (m *mockExporter) Delete(relPath string) error           { return nil }
func (m *mockExporter) Cleanup(ttl time.Duration) ([]string, error) {
	return nil, nil
}

func TestReportCreateJob(t *testing.T) {
	store := &mockReportStore{}
	queue := &mockDispatcher{}
	service := NewReportService(store, queue, &mockExporter{}, nil, zap.NewNop(), ReportServiceConfig{})

	job, err := service.CreateJob(context.Background(), ReportRequest{
		Type:     models.ReportTypeRegistry,
		Format:   models.ReportFormatCSV,
		Registry: "teachers",
	}, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, job.Status)
	assert.Equal(t, "u1", job.CreatedBy)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, job.ID, queue.enqueued[0].ID)
}

func TestReportCreateJobMissingRegistry(t *testing.T) {
	service := NewReportService(&mockReportStore{}, &mockDispatcher{}, &mockExporter{}, nil, zap.NewNop(), ReportServiceConfig{})

	_, err := service.CreateJob(context.Background(), ReportRequest{
		Type:   models.ReportTypeRegistry,
		Format: models.ReportFormatCSV,
	}, "u1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestReportCreateJobMissingStudent(t *testing.T) {
	service := NewReportService(&mockReportStore{}, &mockDispatcher{}, &mockExporter{}, nil, zap.NewNop(), ReportServiceConfig{})

	_, err := service.CreateJob(context.Background(), ReportRequest{
		Type:   models.ReportTypeStudentRecord,
		Format: models.ReportFormatPDF,
	}, "u1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestReportCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	store := &mockReportStore{}
	queue := &mockDispatcher{err: errors.New("queue full")}
	service := NewReportService(store, queue, &mockExporter{}, nil, zap.NewNop(), ReportServiceConfig{})

	_, err := service.CreateJob(context.Background(), ReportRequest{
		Type:     models.ReportTypeRegistry,
		Format:   models.ReportFormatCSV,
		Registry: "students",
	}, "u1")
	require.Error(t, err)
	assert.Len(t, store.failed, 1)
}

func TestReportWorkerHandle(t *testing.T) {
	store := &mockReportStore{}
	job := &models.ReportJob{Type: models.ReportTypeRegistry, Params: models.ReportJobParams{Registry: "teachers", Format: models.ReportFormatCSV}, Status: models.ReportStatusQueued}
	require.NoError(t, store.Create(context.Background(), job))

	exporter := &mockExporter{result: &ExportResult{URL: "/api/v1/reports/download/tok", RelPath: "2026/03/x.csv", Filename: "x.csv"}}
	worker := NewReportWorker(store, exporter, 3, zap.NewNop())

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: job.ID, Attempt: 1}))
	assert.Equal(t, []string{job.ID}, store.processing)
	assert.Equal(t, []string{job.ID}, store.finished)
	require.NotNil(t, store.items[job.ID].ResultURL)
	assert.Equal(t, "/api/v1/reports/download/tok", *store.items[job.ID].ResultURL)
}

func TestReportWorkerHandleFailsOnlyAfterRetryBudget(t *testing.T) {
	store := &mockReportStore{}
	job := &models.ReportJob{Type: models.ReportTypeRegistry, Params: models.ReportJobParams{Registry: "teachers", Format: models.ReportFormatCSV}}
	require.NoError(t, store.Create(context.Background(), job))

	exporter := &mockExporter{generateErr: errors.New("boom")}
	worker := NewReportWorker(store, exporter, 3, zap.NewNop())

	// attempts below the budget keep the job retryable
	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: job.ID, Attempt: 1}))
	assert.Empty(t, store.failed)

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: job.ID, Attempt: 3}))
	assert.Equal(t, []string{job.ID}, store.failed)
}

func TestReportResolveDownloadInvalidToken(t *testing.T) {
	service := NewReportService(&mockReportStore{}, &mockDispatcher{}, &mockExporter{}, nil, zap.NewNop(), ReportServiceConfig{})

	_, err := service.ResolveDownload(context.Background(), "garbage")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/hyeongseol/academy-api/internal/models"
	appErrors "github.com/hyeongseol/academy-api/pkg/errors"
	"github.com/hyeongseol/academy-api/pkg/export"
	"github.com/hyeongseol/academy-api/pkg/storage"
)

type exportTeacherSource interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
}

type exportStudentSource interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type exportClassSource interface {
	ListAll(ctx context.Context) ([]models.ClassDetail, error)
}

type exportEnrollmentSource interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
}

type exportAttendanceSource interface {
	ListByStudentMonth(ctx context.Context, studentID string, year int, month time.Month) ([]models.AttendanceDetail, error)
}

// ExportResult references a generated report file.
type ExportResult struct {
	URL      string
	RelPath  string
	Filename string
}

// ExportService renders registry exports and student record books to files,
// returning signed download URLs.
type ExportService struct {
	teachers    exportTeacherSource
	students    exportStudentSource
	classes     exportClassSource
	enrollments exportEnrollmentSource
	attendance  exportAttendanceSource

	storage *storage.LocalStorage
	signer  *storage.SignedURLSigner
	csv     *export.CSVExporter
	pdf     *export.PDFExporter

	academyName  string
	downloadPath string
	logger       *zap.Logger
}

// NewExportService constructs an ExportService. downloadPath is the URL
// prefix the signed token is appended to.
func NewExportService(teachers exportTeacherSource, students exportStudentSource, classes exportClassSource, enrollments exportEnrollmentSource, attendance exportAttendanceSource, store *storage.LocalStorage, signer *storage.SignedURLSigner, academyName, downloadPath string, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if downloadPath == "" {
		downloadPath = "/api/v1/reports/download"
	}
	return &ExportService{
		teachers:     teachers,
		students:     students,
		classes:      classes,
		enrollments:  enrollments,
		attendance:   attendance,
		storage:      store,
		signer:       signer,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
		academyName:  academyName,
		downloadPath: downloadPath,
		logger:       logger,
	}
}

// Generate renders the file for a report job and returns its signed URL.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	var (
		sections []export.Section
		info     []string
		title    string
		baseName string
		err      error
	)

	switch job.Type {
	case models.ReportTypeRegistry:
		var sheet export.Sheet
		sheet, err = s.registrySheet(ctx, job.Params.Registry)
		if err != nil {
			return nil, err
		}
		title = fmt.Sprintf("%s - %s", s.academyName, sheet.Name)
		sections = []export.Section{{Title: sheet.Name, Sheet: sheet}}
		baseName = fmt.Sprintf("registry_%s_%s", job.Params.Registry, job.ID[:8])
	case models.ReportTypeStudentRecord:
		title, info, sections, err = s.studentRecord(ctx, job.Params)
		if err != nil {
			return nil, err
		}
		baseName = fmt.Sprintf("student_record_%s", job.ID[:8])
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report type")
	}

	var data []byte
	var filename string
	switch job.Params.Format {
	case models.ReportFormatPDF:
		data, err = s.pdf.Render(title, info, sections)
		filename = baseName + ".pdf"
	default:
		// CSV carries a single sheet; extra sections are appended below it.
		data, err = s.renderCSV(sections)
		filename = baseName + ".csv"
	}
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	relPath, err := s.storage.Save(filename, data)
	if err != nil {
		return nil, err
	}
	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, fmt.Errorf("sign report url: %w", err)
	}
	return &ExportResult{
		URL:      fmt.Sprintf("%s/%s", s.downloadPath, token),
		RelPath:  relPath,
		Filename: filename,
	}, nil
}

// RegistryCSV renders a registry straight to CSV bytes, the synchronous
// export path used by the list screens.
func (s *ExportService) RegistryCSV(ctx context.Context, registry string) ([]byte, string, error) {
	sheet, err := s.registrySheet(ctx, registry)
	if err != nil {
		return nil, "", err
	}
	data, err := s.csv.Render(sheet)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, fmt.Sprintf("%s.csv", registry), nil
}

// ParseToken validates a signed download token.
func (s *ExportService) ParseToken(token string, allowExpired bool) (string, string, time.Time, error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle for a stored report file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored report file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup purges report files older than the TTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) renderCSV(sections []export.Section) ([]byte, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("nothing to export")
	}
	var out []byte
	for i, section := range sections {
		data, err := s.csv.Render(section.Sheet)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			out = append(out, '\n')
		}
		out = append(out, data...)
	}
	return out, nil
}

func (s *ExportService) registrySheet(ctx context.Context, registry string) (export.Sheet, error) {
	const page = 1
	const size = 100

	switch registry {
	case "teachers":
		sheet := export.Sheet{Name: "강사 명단", Headers: []string{"이름", "과목", "연락처"}}
		teachers, _, err := s.teachers.List(ctx, models.TeacherFilter{Page: page, PageSize: size})
		if err != nil {
			return export.Sheet{}, fmt.Errorf("load teachers: %w", err)
		}
		for _, t := range teachers {
			phone := ""
			if t.Phone != nil {
				phone = *t.Phone
			}
			sheet.Append(map[string]string{"이름": t.Name, "과목": t.Subject, "연락처": phone})
		}
		return sheet, nil
	case "students":
		sheet := export.Sheet{Name: "학생 명단", Headers: []string{"이름", "학년", "학교", "연락처", "학부모 연락처"}}
		students, _, err := s.students.List(ctx, models.StudentFilter{Page: page, PageSize: size})
		if err != nil {
			return export.Sheet{}, fmt.Errorf("load students: %w", err)
		}
		for _, st := range students {
			sheet.Append(map[string]string{"이름": st.Name, "학년": st.Grade, "학교": st.School, "연락처": st.Phone, "학부모 연락처": st.ParentPhone})
		}
		return sheet, nil
	case "classes":
		sheet := export.Sheet{Name: "수업 목록", Headers: []string{"수업명", "담당 강사", "시간표", "강의실"}}
		classes, err := s.classes.ListAll(ctx)
		if err != nil {
			return export.Sheet{}, fmt.Errorf("load classes: %w", err)
		}
		for _, c := range classes {
			sheet.Append(map[string]string{"수업명": c.Name, "담당 강사": c.TeacherLabel(), "시간표": c.Schedule, "강의실": c.Room})
		}
		return sheet, nil
	case "enrollments":
		sheet := export.Sheet{Name: "배정 목록", Headers: []string{"학생", "수업", "과목", "담당 강사"}}
		enrollments, _, err := s.enrollments.List(ctx, models.EnrollmentFilter{Page: page, PageSize: size})
		if err != nil {
			return export.Sheet{}, fmt.Errorf("load enrollments: %w", err)
		}
		for _, e := range enrollments {
			sheet.Append(map[string]string{"학생": e.StudentName, "수업": e.ClassName, "과목": e.Subject, "담당 강사": e.TeacherName})
		}
		return sheet, nil
	default:
		return export.Sheet{}, appErrors.Clone(appErrors.ErrValidation, "unknown registry")
	}
}

func (s *ExportService) studentRecord(ctx context.Context, params models.ReportJobParams) (string, []string, []export.Section, error) {
	if params.StudentID == "" {
		return "", nil, nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	year, month := params.Year, time.Month(params.Month)
	if year == 0 {
		now := time.Now()
		year, month = now.Year(), now.Month()
	}

	student, err := s.students.FindByID(ctx, params.StudentID)
	if err != nil {
		return "", nil, nil, fmt.Errorf("load student: %w", err)
	}
	enrollments, err := s.enrollments.ListByStudent(ctx, params.StudentID)
	if err != nil {
		return "", nil, nil, fmt.Errorf("load enrollments: %w", err)
	}
	records, err := s.attendance.ListByStudentMonth(ctx, params.StudentID, year, month)
	if err != nil {
		return "", nil, nil, fmt.Errorf("load attendance: %w", err)
	}

	title := fmt.Sprintf("%s - 학생 기록부", s.academyName)
	info := []string{
		fmt.Sprintf("학생: %s", student.Label()),
		fmt.Sprintf("학교: %s", student.School),
		fmt.Sprintf("기간: %d년 %d월", year, int(month)),
	}

	classSheet := export.Sheet{Name: "수강 내역", Headers: []string{"수업", "과목", "담당 강사"}}
	for _, e := range enrollments {
		classSheet.Append(map[string]string{"수업": e.ClassName, "과목": e.Subject, "담당 강사": e.TeacherName})
	}

	attendanceSheet := export.Sheet{Name: "출결 내역", Headers: []string{"날짜", "수업", "상태"}}
	for _, r := range records {
		className := ""
		if r.ClassName != nil {
			className = *r.ClassName
		}
		attendanceSheet.Append(map[string]string{
			"날짜": r.Date.Format("2006-01-02"),
			"수업": className,
			"상태": string(r.Status),
		})
	}

	sections := []export.Section{
		{Title: classSheet.Name, Sheet: classSheet},
		{Title: attendanceSheet.Name, Sheet: attendanceSheet},
	}
	return title, info, sections, nil
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hyeongseol/academy-api/internal/models"
)

// AttendanceRepository manages the append-only attendance log.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceDetailColumns = `a.id, a.student_id, a.class_id, a.date, a.status, a.note, a.source, a.created_at,
        s.name AS student_name, c.name AS class_name`

const attendanceDetailBase = `FROM attendance a
        JOIN students s ON s.id = a.student_id
        LEFT JOIN classes c ON c.id = a.class_id`

// List returns attendance rows matching the filter with display fields.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error) {
	base := attendanceDetailBase
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("a.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("a.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("a.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"date":         "a.date",
		"student_name": "s.name",
		"created_at":   "a.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "a.date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, a.created_at DESC LIMIT %d OFFSET %d", attendanceDetailColumns, base, column, order, size, offset)

	var records []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", storeError(err))
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", storeError(err))
	}
	return records, total, nil
}

// ListByStudentMonth returns one student's rows within a calendar month.
func (r *AttendanceRepository) ListByStudentMonth(ctx context.Context, studentID string, year int, month time.Month) ([]models.AttendanceDetail, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	query := fmt.Sprintf(`SELECT %s %s WHERE a.student_id = $1 AND a.date >= $2 AND a.date < $3 ORDER BY a.date ASC`, attendanceDetailColumns, attendanceDetailBase)
	var records []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &records, query, studentID, from, to); err != nil {
		return nil, fmt.Errorf("list attendance month: %w", storeError(err))
	}
	return records, nil
}

// FindForDay returns rows already logged for the student on a given date,
// optionally narrowed to one class. Used for repeat-scan detection.
func (r *AttendanceRepository) FindForDay(ctx context.Context, studentID string, classID *string, date time.Time) ([]models.Attendance, error) {
	day := date.Truncate(24 * time.Hour)
	query := `SELECT id, student_id, class_id, date, status, note, source, created_at
        FROM attendance WHERE student_id = $1 AND date = $2`
	args := []interface{}{studentID, day}
	if classID != nil {
		query += " AND class_id = $3"
		args = append(args, *classID)
	}
	var records []models.Attendance
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("find attendance for day: %w", storeError(err))
	}
	return records, nil
}

// Create appends one attendance row.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.Attendance) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	record.Date = record.Date.Truncate(24 * time.Hour)
	const query = `INSERT INTO attendance (id, student_id, class_id, date, status, note, source, created_at)
        VALUES (:id, :student_id, :class_id, :date, :status, :note, :source, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create attendance: %w", storeError(err))
	}
	return nil
}

// CreateBulk appends a roll-call batch inside one transaction.
func (r *AttendanceRepository) CreateBulk(ctx context.Context, records []models.Attendance) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance tx: %w", storeError(err))
	}
	defer tx.Rollback()

	const query = `INSERT INTO attendance (id, student_id, class_id, date, status, note, source, created_at)
        VALUES (:id, :student_id, :class_id, :date, :status, :note, :source, :created_at)`
	now := time.Now().UTC()
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		if records[i].CreatedAt.IsZero() {
			records[i].CreatedAt = now
		}
		records[i].Date = records[i].Date.Truncate(24 * time.Hour)
		if _, err := tx.NamedExecContext(ctx, query, records[i]); err != nil {
			return fmt.Errorf("bulk create attendance: %w", storeError(err))
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance tx: %w", storeError(err))
	}
	return nil
}

// Delete removes one attendance row, the correction path for wrong entries.
func (r *AttendanceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM attendance WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete attendance: %w", storeError(err))
	}
	return nil
}

// CountByStatusOn tallies rows per status for one date, the dashboard strip.
func (r *AttendanceRepository) CountByStatusOn(ctx context.Context, date time.Time) (map[models.AttendanceStatus]int, error) {
	day := date.Truncate(24 * time.Hour)
	const query = `SELECT status, COUNT(*) AS total FROM attendance WHERE date = $1 GROUP BY status`
	rows := []struct {
		Status models.AttendanceStatus `db:"status"`
		Total  int                     `db:"total"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, day); err != nil {
		return nil, fmt.Errorf("count attendance by status: %w", storeError(err))
	}
	counts := make(map[models.AttendanceStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

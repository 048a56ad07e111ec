package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hyeongseol/academy-api/internal/models"
)

// EnrollmentRepository manages the student-to-class assignment table.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentDetailColumns = `e.id, e.student_id, e.class_id, e.subject, e.assigned_at,
        s.name AS student_name, c.name AS class_name, t.name AS teacher_name`

const enrollmentDetailBase = `FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN classes c ON c.id = e.class_id
        JOIN teachers t ON t.id = c.teacher_id`

// List returns enrollments with display fields.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := enrollmentDetailBase
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("e.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("e.subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"student_name": "s.name",
		"class_name":   "c.name",
		"assigned_at":  "e.assigned_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "e.assigned_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", enrollmentDetailColumns, base, column, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", storeError(err))
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", storeError(err))
	}
	return enrollments, total, nil
}

// ListByStudent returns every enrollment for one student.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE e.student_id = $1 ORDER BY c.name ASC", enrollmentDetailColumns, enrollmentDetailBase)
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrollments by student: %w", storeError(err))
	}
	return enrollments, nil
}

// Exists reports whether the student is already assigned to the class.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, classID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND class_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, classID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", storeError(err))
	}
	return true, nil
}

// Create inserts one enrollment row.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.AssignedAt.IsZero() {
		enrollment.AssignedAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (id, student_id, class_id, subject, assigned_at)
        VALUES (:id, :student_id, :class_id, :subject, :assigned_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", storeError(err))
	}
	return nil
}

// CreateBulk inserts the whole assignment cart inside one transaction so a
// partial failure leaves nothing behind.
func (r *EnrollmentRepository) CreateBulk(ctx context.Context, enrollments []models.Enrollment) error {
	if len(enrollments) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrollment tx: %w", storeError(err))
	}
	defer tx.Rollback()

	const query = `INSERT INTO enrollments (id, student_id, class_id, subject, assigned_at)
        VALUES (:id, :student_id, :class_id, :subject, :assigned_at)`
	now := time.Now().UTC()
	for i := range enrollments {
		if enrollments[i].ID == "" {
			enrollments[i].ID = uuid.NewString()
		}
		if enrollments[i].AssignedAt.IsZero() {
			enrollments[i].AssignedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, query, enrollments[i]); err != nil {
			return fmt.Errorf("bulk create enrollment: %w", storeError(err))
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollment tx: %w", storeError(err))
	}
	return nil
}

// Delete removes one enrollment by ID.
func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM enrollments WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", storeError(err))
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByStudent removes every enrollment of a student, the cascade step of
// student deletion.
func (r *EnrollmentRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	const query = `DELETE FROM enrollments WHERE student_id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID); err != nil {
		return fmt.Errorf("delete enrollments by student: %w", storeError(err))
	}
	return nil
}

// DeleteByClass removes every enrollment of a class, the cascade step of
// class deletion.
func (r *EnrollmentRepository) DeleteByClass(ctx context.Context, classID string) error {
	const query = `DELETE FROM enrollments WHERE class_id = $1`
	if _, err := r.db.ExecContext(ctx, query, classID); err != nil {
		return fmt.Errorf("delete enrollments by class: %w", storeError(err))
	}
	return nil
}

// CountPerClass returns enrolled student counts keyed by class ID.
func (r *EnrollmentRepository) CountPerClass(ctx context.Context) (map[string]int, error) {
	const query = `SELECT class_id, COUNT(*) AS student_count FROM enrollments GROUP BY class_id`
	rows := []struct {
		ClassID      string `db:"class_id"`
		StudentCount int    `db:"student_count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count enrollments per class: %w", storeError(err))
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.ClassID] = row.StudentCount
	}
	return counts, nil
}

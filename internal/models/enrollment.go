package models

import "time"

// Enrollment links a student to a class for one subject.
type Enrollment struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	Subject    string    `db:"subject" json:"subject"`
	AssignedAt time.Time `db:"assigned_at" json:"assigned_at"`
}

// EnrollmentDetail enriches Enrollment with student, class and teacher info.
type EnrollmentDetail struct {
	Enrollment
	StudentName string `db:"student_name" json:"student_name"`
	ClassName   string `db:"class_name" json:"class_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID string
	ClassID   string
	Subject   string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

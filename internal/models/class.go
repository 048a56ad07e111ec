package models

import "time"

// Class represents a recurring weekly class owned by one teacher.
// Schedule holds the flat slot encoding, e.g. "월 9:00-10:30, 수 9:00-10:30".
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Schedule  string    `db:"schedule" json:"schedule"`
	Room      string    `db:"room" json:"room"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail enriches Class with teacher display fields.
type ClassDetail struct {
	Class
	TeacherName    string `db:"teacher_name" json:"teacher_name"`
	TeacherSubject string `db:"teacher_subject" json:"teacher_subject"`
}

// TeacherLabel renders the composite shown in timetables, e.g. "김선생 (수학)".
func (c ClassDetail) TeacherLabel() string {
	if c.TeacherSubject == "" {
		return c.TeacherName
	}
	return c.TeacherName + " (" + c.TeacherSubject + ")"
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Search    string
	TeacherID string
	Room      string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

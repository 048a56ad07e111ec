package models

import "time"

// Student represents a learner registered at the academy.
type Student struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Phone       string    `db:"phone" json:"phone"`
	ParentPhone string    `db:"parent_phone" json:"parent_phone"`
	Grade       string    `db:"grade" json:"grade"`
	School      string    `db:"school" json:"school"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Label renders the display composite used in pickers, e.g. "홍길동 (중2)".
// Grade disambiguates students sharing a name.
func (s Student) Label() string {
	if s.Grade == "" {
		return s.Name
	}
	return s.Name + " (" + s.Grade + ")"
}

// PhoneSuffix returns the last four digits of the student phone, the
// verification fragment embedded in QR payloads.
func (s Student) PhoneSuffix() string {
	digits := make([]rune, 0, len(s.Phone))
	for _, r := range s.Phone {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) < 4 {
		return string(digits)
	}
	return string(digits[len(digits)-4:])
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Grade     string
	School    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentSummary aggregates the per-student view: profile, enrollments and
// one month of attendance.
type StudentSummary struct {
	Student     Student            `json:"student"`
	Enrollments []EnrollmentDetail `json:"enrollments"`
	Calendar    AttendanceCalendar `json:"calendar"`
}

package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent   AttendanceStatus = "PRESENT"
	AttendanceStatusLate      AttendanceStatus = "LATE"
	AttendanceStatusAbsent    AttendanceStatus = "ABSENT"
	AttendanceStatusMakeup    AttendanceStatus = "MAKEUP"
	AttendanceStatusSelfStudy AttendanceStatus = "SELF_STUDY"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusLate, AttendanceStatusAbsent,
		AttendanceStatusMakeup, AttendanceStatusSelfStudy:
		return true
	default:
		return false
	}
}

// AttendanceSource distinguishes manual roll call from QR kiosk check-ins.
type AttendanceSource string

const (
	AttendanceSourceManual AttendanceSource = "manual"
	AttendanceSourceQR     AttendanceSource = "qr"
)

// Attendance is one append-only attendance row. ClassID is nil for makeup or
// self-study rows logged outside a scheduled class.
type Attendance struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	ClassID   *string          `db:"class_id" json:"class_id,omitempty"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Note      *string          `db:"note" json:"note,omitempty"`
	Source    AttendanceSource `db:"source" json:"source"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// AttendanceDetail extends the row with display metadata.
type AttendanceDetail struct {
	Attendance
	StudentName string  `db:"student_name" json:"student_name"`
	ClassName   *string `db:"class_name" json:"class_name,omitempty"`
}

// AttendanceFilter scopes listing queries.
type AttendanceFilter struct {
	StudentID string
	ClassID   string
	Status    *AttendanceStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// AttendanceCalendar is the month view for one student: per-day status
// badges plus counters.
type AttendanceCalendar struct {
	Year    int                      `json:"year"`
	Month   int                      `json:"month"`
	Days    map[int][]CalendarBadge  `json:"days"`
	Summary AttendanceMonthlySummary `json:"summary"`
}

// CalendarBadge is one status marker inside a calendar day cell.
type CalendarBadge struct {
	Status    AttendanceStatus `json:"status"`
	ClassName string           `json:"class_name"`
}

// AttendanceMonthlySummary counts statuses for one student-month.
type AttendanceMonthlySummary struct {
	Present int `json:"present"`
	Late    int `json:"late"`
	Absent  int `json:"absent"`
	Makeup  int `json:"makeup"`
	Total   int `json:"total"`
}

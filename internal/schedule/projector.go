package schedule

import "strings"

// ClassSlots is the projector's input: one class with its decoded weekly
// slots and display metadata.
type ClassSlots struct {
	ClassID      string
	ClassName    string
	TeacherLabel string
	Subject      string
	Room         string
	Slots        []Slot
}

// Entry is one class occurrence placed in a grid cell.
type Entry struct {
	ClassID      string `json:"class_id"`
	ClassName    string `json:"class_name"`
	TeacherLabel string `json:"teacher_label"`
	Subject      string `json:"subject"`
	Room         string `json:"room"`
	Start        string `json:"start"`
	End          string `json:"end"`
	DurationMin  int    `json:"duration_min"`
}

// Cell is one grid cell. Empty cells stay present in the row so the grid is
// always rectangular.
type Cell struct {
	Entries []Entry `json:"entries"`
}

// Row is one start-time band of the grid. MaxEnd is the latest end time of
// any entry in the row, across all columns.
type Row struct {
	Start  string `json:"start"`
	MaxEnd string `json:"max_end"`
	Cells  []Cell `json:"cells"`
}

// Grid is a rectangular timetable: one column per weekday (teacher view) or
// per room (daily room view), one row per distinct start time.
type Grid struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// ProjectWeek builds the weekly timetable grid with one column per weekday.
// When teacherLabel is non-empty only classes whose teacher label contains
// it as a substring are projected; this mirrors the legacy name-based
// lookup and callers that resolved the teacher by ID pass "".
func ProjectWeek(classes []ClassSlots, teacherLabel string) Grid {
	cells := make(map[string]map[string][]Entry) // start -> day -> entries
	for _, c := range classes {
		if teacherLabel != "" && !contains(c.TeacherLabel, teacherLabel) {
			continue
		}
		for _, s := range c.Slots {
			if !ValidDay(s.Day) {
				continue
			}
			place(cells, s.Start, s.Day, entryFor(c, s))
		}
	}
	return assemble(Days, cells)
}

// ProjectDay builds the room-by-room grid for a single weekday. Rooms not in
// the configured list collapse into the first configured room, which is the
// catch-all slot for unassigned classes.
func ProjectDay(classes []ClassSlots, day string, rooms []string) Grid {
	known := make(map[string]struct{}, len(rooms))
	for _, r := range rooms {
		known[r] = struct{}{}
	}

	cells := make(map[string]map[string][]Entry) // start -> room -> entries
	for _, c := range classes {
		for _, s := range c.Slots {
			if s.Day != day {
				continue
			}
			room := c.Room
			if _, ok := known[room]; !ok && len(rooms) > 0 {
				room = rooms[0]
			}
			place(cells, s.Start, room, entryFor(c, s))
		}
	}
	return assemble(rooms, cells)
}

func entryFor(c ClassSlots, s Slot) Entry {
	return Entry{
		ClassID:      c.ClassID,
		ClassName:    c.ClassName,
		TeacherLabel: c.TeacherLabel,
		Subject:      c.Subject,
		Room:         c.Room,
		Start:        s.Start,
		End:          s.End,
		DurationMin:  DurationMinutes(s.Start, s.End),
	}
}

func place(cells map[string]map[string][]Entry, start, column string, e Entry) {
	row, ok := cells[start]
	if !ok {
		row = make(map[string][]Entry)
		cells[start] = row
	}
	row[column] = append(row[column], e)
}

func assemble(columns []string, cells map[string]map[string][]Entry) Grid {
	starts := make([]string, 0, len(cells))
	for start := range cells {
		starts = append(starts, start)
	}
	starts = SortDistinctTimes(starts)

	rows := make([]Row, 0, len(starts))
	for _, start := range starts {
		row := Row{Start: start, Cells: make([]Cell, len(columns))}
		for i, col := range columns {
			entries := cells[start][col]
			row.Cells[i] = Cell{Entries: entries}
			for _, e := range entries {
				if row.MaxEnd == "" || laterClock(e.End, row.MaxEnd) {
					row.MaxEnd = e.End
				}
			}
		}
		rows = append(rows, row)
	}
	return Grid{Columns: columns, Rows: rows}
}

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}

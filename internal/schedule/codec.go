package schedule

import (
	"fmt"
	"strings"
)

// Days lists the weekday tokens in canonical order, Monday first.
var Days = []string{"월", "화", "수", "목", "금", "토", "일"}

var dayIndex = func() map[string]int {
	m := make(map[string]int, len(Days))
	for i, d := range Days {
		m[d] = i
	}
	return m
}()

// ValidDay reports whether the token is a known weekday.
func ValidDay(day string) bool {
	_, ok := dayIndex[day]
	return ok
}

// DayOf maps time.Weekday-style indexes (Monday=0) to the day token.
func DayOf(mondayIndexed int) string {
	if mondayIndexed < 0 || mondayIndexed >= len(Days) {
		return ""
	}
	return Days[mondayIndexed]
}

// Slot is one weekly recurring interval owned by a class. Start and End keep
// their "H:MM" string form; parsing happens where comparison is needed.
type Slot struct {
	Day   string `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// EncodeSlots serializes slots to the flat schedule string, preserving the
// order slots were provided: "월 9:00-10:30, 수 9:00-10:30".
func EncodeSlots(slots []Slot) string {
	parts := make([]string, 0, len(slots))
	for _, s := range slots {
		parts = append(parts, fmt.Sprintf("%s %s-%s", s.Day, s.Start, s.End))
	}
	return strings.Join(parts, ", ")
}

// DecodeSlots parses a schedule string leniently: malformed tokens are
// dropped and a duplicated day keeps only its last occurrence. The codec
// does not support multiple slots on one day; that limitation is part of the
// storage format. Output follows canonical weekday order.
func DecodeSlots(s string) []Slot {
	byDay := make(map[string]Slot, len(Days))
	for _, token := range strings.Split(s, ",") {
		slot, ok := parseToken(token)
		if !ok {
			continue
		}
		byDay[slot.Day] = slot
	}

	slots := make([]Slot, 0, len(byDay))
	for _, day := range Days {
		if slot, ok := byDay[day]; ok {
			slots = append(slots, slot)
		}
	}
	return slots
}

// ParseSchedule is the strict variant used for validating operator input:
// every token must be well formed, days must be known and unique, and both
// clock values must parse with start before end.
func ParseSchedule(s string) ([]Slot, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, fmt.Errorf("schedule is empty")
	}

	seen := make(map[string]struct{})
	var slots []Slot
	for _, token := range strings.Split(trimmed, ",") {
		slot, ok := parseToken(token)
		if !ok {
			return nil, fmt.Errorf("malformed schedule token %q", strings.TrimSpace(token))
		}
		if !ValidDay(slot.Day) {
			return nil, fmt.Errorf("unknown day %q", slot.Day)
		}
		if _, dup := seen[slot.Day]; dup {
			return nil, fmt.Errorf("duplicate day %q", slot.Day)
		}
		seen[slot.Day] = struct{}{}

		start, err := ParseClock(slot.Start)
		if err != nil {
			return nil, err
		}
		end, err := ParseClock(slot.End)
		if err != nil {
			return nil, err
		}
		if end <= start {
			return nil, fmt.Errorf("slot %s: end %s not after start %s", slot.Day, slot.End, slot.Start)
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func parseToken(token string) (Slot, bool) {
	fields := strings.Fields(strings.TrimSpace(token))
	if len(fields) != 2 {
		return Slot{}, false
	}
	day, timeRange := fields[0], fields[1]

	bounds := strings.SplitN(timeRange, "-", 2)
	if len(bounds) != 2 || bounds[0] == "" || bounds[1] == "" {
		return Slot{}, false
	}
	return Slot{Day: day, Start: bounds[0], End: bounds[1]}, true
}

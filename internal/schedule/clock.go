package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Clock is a time of day in minutes since midnight.
type Clock int

// ParseClock parses "H:MM" or "HH:MM" clock strings.
func ParseClock(s string) (Clock, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("parse clock %q: missing colon", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("parse clock %q: bad hour", s)
	}
	if len(parts[1]) != 2 {
		return 0, fmt.Errorf("parse clock %q: minutes must be two digits", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("parse clock %q: bad minute", s)
	}
	return Clock(hour*60 + minute), nil
}

// String renders the clock as "H:MM" without a zero-padded hour, matching
// the stored schedule format.
func (c Clock) String() string {
	return fmt.Sprintf("%d:%02d", int(c)/60, int(c)%60)
}

// Minutes returns the raw minutes-since-midnight value.
func (c Clock) Minutes() int { return int(c) }

// DurationMinutes computes end minus start in minutes. Malformed inputs and
// overnight ranges (end before start) both yield 0; callers that need to
// distinguish parse ParseClock directly.
func DurationMinutes(start, end string) int {
	s, err := ParseClock(start)
	if err != nil {
		return 0
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0
	}
	if e < s {
		return 0
	}
	return int(e - s)
}

// SortDistinctTimes deduplicates clock strings and sorts them
// chronologically. When any element fails to parse the whole list falls back
// to a plain lexical sort, preserving the legacy ordering behaviour for
// partially-entered data.
func SortDistinctTimes(times []string) []string {
	seen := make(map[string]struct{}, len(times))
	distinct := make([]string, 0, len(times))
	for _, t := range times {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		distinct = append(distinct, t)
	}

	parsed := make(map[string]Clock, len(distinct))
	for _, t := range distinct {
		c, err := ParseClock(t)
		if err != nil {
			sort.Strings(distinct)
			return distinct
		}
		parsed[t] = c
	}

	sort.Slice(distinct, func(i, j int) bool {
		return parsed[distinct[i]] < parsed[distinct[j]]
	})
	return distinct
}

// laterClock compares two clock strings, falling back to lexical comparison
// when either side is unparseable.
func laterClock(a, b string) bool {
	ca, errA := ParseClock(a)
	cb, errB := ParseClock(b)
	if errA != nil || errB != nil {
		return a > b
	}
	return ca > cb
}

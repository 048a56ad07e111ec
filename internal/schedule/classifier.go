package schedule

import "time"

// CheckInVerdict is the classifier's decision for one kiosk check-in.
type CheckInVerdict string

const (
	// VerdictPresent: checked in inside the normal window.
	VerdictPresent CheckInVerdict = "PRESENT"
	// VerdictLate: checked in after the late threshold.
	VerdictLate CheckInVerdict = "LATE"
	// VerdictEarly: checked in well before class; counts as self study.
	VerdictEarly CheckInVerdict = "EARLY"
	// VerdictUnscheduled: no class for the student today; a makeup session
	// that needs explicit confirmation before it is recorded.
	VerdictUnscheduled CheckInVerdict = "UNSCHEDULED"
)

// Classifier turns a check-in instant into an attendance verdict relative to
// the class start time.
type Classifier struct {
	// LateAfter is the grace period after class start. Arriving later than
	// start+LateAfter is late; arriving exactly at the boundary is not.
	LateAfter time.Duration
	// EarlyBefore is how far before class start a check-in stops counting
	// as attendance and becomes self study. Exactly at the boundary still
	// counts as present.
	EarlyBefore time.Duration
}

// DefaultClassifier matches the house rules: 10 minutes grace, one hour
// early cutoff.
func DefaultClassifier() Classifier {
	return Classifier{LateAfter: 10 * time.Minute, EarlyBefore: time.Hour}
}

// Classify compares the check-in instant against the class start on the same
// day. Only the clock portion of now is considered.
func (c Classifier) Classify(now time.Time, classStart Clock) CheckInVerdict {
	nowMin := now.Hour()*60 + now.Minute()
	startMin := classStart.Minutes()

	lateAfter := int(c.LateAfter / time.Minute)
	earlyBefore := int(c.EarlyBefore / time.Minute)

	switch {
	case nowMin > startMin+lateAfter:
		return VerdictLate
	case nowMin < startMin-earlyBefore:
		return VerdictEarly
	default:
		return VerdictPresent
	}
}

// NextSlotStart picks the slot whose start the check-in should be judged
// against: the earliest slot of the day that has not ended more than the
// grace period ago, falling back to the last slot when all are over. Returns
// false when the list is empty or nothing parses.
func (c Classifier) NextSlotStart(now time.Time, slots []Slot) (Clock, bool) {
	nowMin := now.Hour()*60 + now.Minute()

	var best Clock
	found := false
	var last Clock
	haveLast := false
	for _, s := range slots {
		start, err := ParseClock(s.Start)
		if err != nil {
			continue
		}
		end, err := ParseClock(s.End)
		if err != nil {
			continue
		}
		if !haveLast || start > last {
			last = start
			haveLast = true
		}
		if end.Minutes() < nowMin {
			continue
		}
		if !found || start < best {
			best = start
			found = true
		}
	}
	if found {
		return best, true
	}
	if haveLast {
		return last, true
	}
	return 0, false
}

// Package attendance defines the persisted attendance entities and the Store
// contract the aggregation engine is built on. Entities are plain typed
// records; no string-keyed row maps cross package boundaries.
package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/roster"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/section"
)

// Period is one of the fixed daily period labels ("1".."6").
type Period string

// DefaultPeriods is the timetable's fixed period enumeration, in display
// order. Pivot reports emit one column per entry, including zero columns.
var DefaultPeriods = []Period{"1", "2", "3", "4", "5", "6"}

// IsValid reports whether p is a known period label.
func (p Period) IsValid() bool {
	for _, known := range DefaultPeriods {
		if p == known {
			return true
		}
	}
	return false
}

// DateFormat is the wire/date-column format for attendance dates.
const DateFormat = "2006-01-02"

// Session is one attendance-taking event ("meta" row). Sessions are created
// exactly once per submit and never mutated. IDs are assigned by the store,
// unique and monotonically increasing.
type Session struct {
	ID          int64
	Section     section.ID
	Date        time.Time
	Period      Period
	SubmittedBy string
	CreatedAt   time.Time
}

// DateString returns the session date in YYYY-MM-DD form.
func (s Session) DateString() string {
	return s.Date.Format(DateFormat)
}

// Row is one per-student attendance record. Guardian fields are snapshots
// taken at submission time, deliberately not a live link to the roster: a
// report must reflect identity as it was when attendance was taken.
type Row struct {
	ID            int64
	SessionID     int64
	RegdNo        string
	Name          string
	Present       bool
	GuardianName  string
	GuardianPhone string
}

// RowFromRoster builds a submission row from a roster entry and a present
// flag, copying the guardian snapshot.
func RowFromRoster(e roster.Entry, present bool) Row {
	return Row{
		RegdNo:        e.RegdNo,
		Name:          e.Name,
		Present:       present,
		GuardianName:  e.GuardianName,
		GuardianPhone: e.GuardianPhone,
	}
}

// Submission is the validated input for one submit action: a session plus the
// full roster snapshot of rows. The store persists it atomically.
type Submission struct {
	Section     section.ID
	Date        time.Time
	Period      Period
	SubmittedBy string
	Rows        []Row
}

// Validate enforces the submit invariants: all identifying fields non-empty,
// a valid period, a full (non-empty) row set, and at most one row per
// registration number.
func (s Submission) Validate() error {
	if strings.TrimSpace(string(s.Section)) == "" {
		return fmt.Errorf("%w: section is required", ErrInvalidSubmission)
	}
	if s.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidSubmission)
	}
	if !s.Period.IsValid() {
		return fmt.Errorf("%w: unknown period %q", ErrInvalidSubmission, s.Period)
	}
	if strings.TrimSpace(s.SubmittedBy) == "" {
		return fmt.Errorf("%w: submitter is required", ErrInvalidSubmission)
	}
	if len(s.Rows) == 0 {
		return fmt.Errorf("%w: a session without rows is not a valid report source", ErrInvalidSubmission)
	}
	seen := make(map[string]bool, len(s.Rows))
	for _, r := range s.Rows {
		if strings.TrimSpace(r.RegdNo) == "" {
			return fmt.Errorf("%w: row with empty registration number", ErrInvalidSubmission)
		}
		if seen[r.RegdNo] {
			return fmt.Errorf("%w: duplicate row for %s", ErrInvalidSubmission, r.RegdNo)
		}
		seen[r.RegdNo] = true
	}
	return nil
}

// PresentCount returns how many rows are marked present.
func (s Submission) PresentCount() int {
	n := 0
	for _, r := range s.Rows {
		if r.Present {
			n++
		}
	}
	return n
}

// DateWindow is an inclusive start/end date range used to select qualifying
// sessions. Times are compared at date granularity.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// NewDateWindow builds a window and rejects start-after-end before any store
// query runs.
func NewDateWindow(start, end time.Time) (DateWindow, error) {
	if start.After(end) {
		return DateWindow{}, fmt.Errorf("%w: start %s is after end %s",
			ErrInvalidWindow, start.Format(DateFormat), end.Format(DateFormat))
	}
	return DateWindow{Start: start, End: end}, nil
}

// SingleDay returns the one-day window for the given date.
func SingleDay(day time.Time) DateWindow {
	return DateWindow{Start: day, End: day}
}

// Contains reports whether the given date falls inside the window.
func (w DateWindow) Contains(day time.Time) bool {
	d := day.Format(DateFormat)
	return d >= w.Start.Format(DateFormat) && d <= w.End.Format(DateFormat)
}

// String renders the window as "start → end".
func (w DateWindow) String() string {
	return w.Start.Format(DateFormat) + " → " + w.End.Format(DateFormat)
}

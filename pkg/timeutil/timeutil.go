// Package timeutil provides timezone utilities for the Asia/Kolkata timezone
// (IST, UTC+5:30) and the date-window arithmetic used by attendance reports.
// India does not observe DST, so the offset is constant year-round.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// KolkataTZ is the Indian Standard Time zone (UTC+5:30, no DST).
var KolkataTZ = time.FixedZone("Asia/Kolkata", 5*60*60+30*60)

// Now returns the current time in IST.
func Now() time.Time {
	return time.Now().In(KolkataTZ)
}

// ToIST converts a time to IST.
func ToIST(t time.Time) time.Time {
	return t.In(KolkataTZ)
}

// Date creates a midnight time in IST with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, KolkataTZ)
}

// StartOfDay returns the start of the day (00:00:00) in IST.
func StartOfDay(t time.Time) time.Time {
	ist := ToIST(t)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, KolkataTZ)
}

// Today returns today's date at midnight IST.
func Today() time.Time {
	return StartOfDay(Now())
}

// ParseDate parses a YYYY-MM-DD string into a midnight IST time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, KolkataTZ)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// FormatDate renders a time as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// WeekWindow returns the 7-calendar-day report window ending at the anchor
// date: anchor minus 6 days through anchor, inclusive.
func WeekWindow(anchor time.Time) (start, end time.Time) {
	end = StartOfDay(anchor)
	start = end.AddDate(0, 0, -6)
	return start, end
}

// MonthWindow returns the calendar-month report window containing the anchor
// date: the first day of the month through the last. The end is computed as
// next month's first day minus one day, so December rolls into January of the
// following year and February lengths come out right in leap years.
func MonthWindow(anchor time.Time) (start, end time.Time) {
	ist := ToIST(anchor)
	start = time.Date(ist.Year(), ist.Month(), 1, 0, 0, 0, 0, KolkataTZ)
	nextMonthStart := start.AddDate(0, 1, 0)
	end = nextMonthStart.AddDate(0, 0, -1)
	return start, end
}

// SameDate reports whether two times fall on the same IST calendar date.
func SameDate(a, b time.Time) bool {
	a, b = ToIST(a), ToIST(b)
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// Package report implements the aggregation engine: it turns flat per-session
// attendance rows into absentee roll-ups, period pivots, percentage reports
// and per-student detail over a requested date window. Every report is a pure
// function of store query results plus the roster snapshot supplied by the
// caller; the engine holds no state between invocations and caches nothing.
package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/attendance"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/roster"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/section"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/pkg/timeutil"
)

// Student is the grouping identity for roll-ups: the registration number plus
// the name/guardian snapshot taken at submission time.
type Student struct {
	RegdNo        string
	Name          string
	GuardianName  string
	GuardianPhone string
}

// LabelStyle selects how a session is rendered inside a roll-up's
// period/date labels. The dashboard uses different styles per report mode.
type LabelStyle int

const (
	// LabelPeriodWithDate renders "P2 (2024-01-01)". Used for single-date
	// and date-range aggregation.
	LabelPeriodWithDate LabelStyle = iota

	// LabelPeriodOnly renders "P2". Used for the daily report, where the
	// date is implied.
	LabelPeriodOnly

	// LabelDatePeriod renders "2024-01-01 P2". Used for weekly and monthly
	// reports.
	LabelDatePeriod
)

// Format renders one session reference in the given style.
func (s LabelStyle) Format(sess attendance.Session) string {
	switch s {
	case LabelPeriodOnly:
		return "P" + string(sess.Period)
	case LabelDatePeriod:
		return sess.DateString() + " P" + string(sess.Period)
	default:
		return "P" + string(sess.Period) + " (" + sess.DateString() + ")"
	}
}

// Engine computes attendance reports. It is safe for concurrent use.
type Engine struct {
	store   attendance.Store
	periods []attendance.Period
}

// NewEngine creates an Engine over the given store. periods is the fixed
// period enumeration for pivot columns; nil means attendance.DefaultPeriods.
func NewEngine(store attendance.Store, periods []attendance.Period) *Engine {
	if len(periods) == 0 {
		periods = attendance.DefaultPeriods
	}
	ps := make([]attendance.Period, len(periods))
	copy(ps, periods)
	return &Engine{store: store, periods: ps}
}

// Periods returns the engine's period enumeration.
func (e *Engine) Periods() []attendance.Period {
	ps := make([]attendance.Period, len(e.periods))
	copy(ps, e.periods)
	return ps
}

// Sections lists the sections that have at least one recorded session. The
// section pickers on the aggregate dashboards use this rather than the full
// catalog.
func (e *Engine) Sections(ctx context.Context) ([]section.ID, error) {
	return e.store.Sections(ctx)
}

// ─────────────────────────────────────────────────────────────────────────────
// (a) Single-session absentee list
// ─────────────────────────────────────────────────────────────────────────────

// SessionReport is the absentee list for one saved session. An empty
// Absentees slice means everyone was present, which is a reportable outcome
// distinct from the session not existing (attendance.ErrSessionNotFound).
type SessionReport struct {
	Session   attendance.Session
	Absentees []Student
}

// AllPresent reports whether the session had no absentees.
func (r *SessionReport) AllPresent() bool {
	return len(r.Absentees) == 0
}

// SessionAbsentees returns the absentee list for one session id.
func (e *Engine) SessionAbsentees(ctx context.Context, sessionID int64) (*SessionReport, error) {
	sess, err := e.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	rows, err := e.store.AbsentRows(ctx, []int64{sessionID}, "")
	if err != nil {
		return nil, err
	}

	rep := &SessionReport{Session: sess}
	for _, r := range rows {
		rep.Absentees = append(rep.Absentees, studentOf(r))
	}
	return rep, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// (b) Multi-session roll-up
// ─────────────────────────────────────────────────────────────────────────────

// RollupRow is one student's absence aggregate over a window.
type RollupRow struct {
	Student

	// PeriodDates is the sorted, de-duplicated set of session labels at
	// which the student was absent, formatted per the report's LabelStyle.
	PeriodDates []string

	// AbsenceCount is the number of sessions the student was absent from.
	AbsenceCount int
}

// RollupReport is a grouped multi-session absence aggregation.
type RollupReport struct {
	Section  section.ID
	Window   attendance.DateWindow
	Sessions int
	Rows     []RollupRow
}

// HasSessions reports whether any sessions qualified for the window.
// A report with sessions but no rows means nobody was absent.
func (r *RollupReport) HasSessions() bool {
	return r.Sessions > 0
}

// Rollup aggregates absences for a section over an inclusive window, grouped
// by student. Rows are ordered by absence count descending, registration
// number ascending on ties, so repeated runs over unchanged data yield
// identical output.
func (e *Engine) Rollup(ctx context.Context, sec section.ID, window attendance.DateWindow, style LabelStyle) (*RollupReport, error) {
	sessions, err := e.store.SessionsForSection(ctx, sec, &window)
	if err != nil {
		return nil, err
	}

	rep := &RollupReport{Section: sec, Window: window, Sessions: len(sessions)}
	if len(sessions) == 0 {
		return rep, nil
	}

	ids, byID := indexSessions(sessions)
	rows, err := e.store.AbsentRows(ctx, ids, "")
	if err != nil {
		return nil, err
	}

	type group struct {
		labels map[string]bool
		count  int
	}
	groups := make(map[Student]*group)
	for _, r := range rows {
		sess, ok := byID[r.SessionID]
		if !ok {
			return nil, fmt.Errorf("%w: row %d references session %d outside the window",
				attendance.ErrStorageUnavailable, r.ID, r.SessionID)
		}
		key := studentOf(r)
		g := groups[key]
		if g == nil {
			g = &group{labels: make(map[string]bool)}
			groups[key] = g
		}
		g.labels[style.Format(sess)] = true
		g.count++
	}

	for key, g := range groups {
		rep.Rows = append(rep.Rows, RollupRow{
			Student:      key,
			PeriodDates:  sortedKeys(g.labels),
			AbsenceCount: g.count,
		})
	}
	sort.Slice(rep.Rows, func(i, j int) bool {
		if rep.Rows[i].AbsenceCount != rep.Rows[j].AbsenceCount {
			return rep.Rows[i].AbsenceCount > rep.Rows[j].AbsenceCount
		}
		return rep.Rows[i].RegdNo < rep.Rows[j].RegdNo
	})
	return rep, nil
}

// DateRollup aggregates all periods of a single date.
func (e *Engine) DateRollup(ctx context.Context, sec section.ID, day time.Time) (*RollupReport, error) {
	return e.Rollup(ctx, sec, attendance.SingleDay(day), LabelPeriodWithDate)
}

// DailyRollup is the daily report: one date, labels without the redundant
// date part.
func (e *Engine) DailyRollup(ctx context.Context, sec section.ID, day time.Time) (*RollupReport, error) {
	return e.Rollup(ctx, sec, attendance.SingleDay(day), LabelPeriodOnly)
}

// WeeklyRollup aggregates the 7 calendar days ending at anchor.
func (e *Engine) WeeklyRollup(ctx context.Context, sec section.ID, anchor time.Time) (*RollupReport, error) {
	start, end := timeutil.WeekWindow(anchor)
	window, err := attendance.NewDateWindow(start, end)
	if err != nil {
		return nil, err
	}
	return e.Rollup(ctx, sec, window, LabelDatePeriod)
}

// MonthlyRollup aggregates the calendar month containing anchor.
func (e *Engine) MonthlyRollup(ctx context.Context, sec section.ID, anchor time.Time) (*RollupReport, error) {
	start, end := timeutil.MonthWindow(anchor)
	window, err := attendance.NewDateWindow(start, end)
	if err != nil {
		return nil, err
	}
	return e.Rollup(ctx, sec, window, LabelDatePeriod)
}

// ─────────────────────────────────────────────────────────────────────────────
// (c) Period-pivoted roll-up
// ─────────────────────────────────────────────────────────────────────────────

// PivotRow is one student's absence aggregate with per-period columns.
type PivotRow struct {
	Student

	// PeriodCounts holds one count per engine period, aligned with
	// PivotReport.Periods. Periods with no absences stay explicit zeros.
	PeriodCounts []int

	// AbsenceCount is the total across all periods.
	AbsenceCount int

	// PeriodsAbsent concatenates the distinct "date (Pn)" occurrences,
	// comma-joined and sorted (set semantics).
	PeriodsAbsent string
}

// PivotReport is a roll-up with one column per period label.
type PivotReport struct {
	Section  section.ID
	Window   attendance.DateWindow
	Periods  []attendance.Period
	Sessions int
	Rows     []PivotRow
}

// HasSessions reports whether any sessions qualified for the window.
func (r *PivotReport) HasSessions() bool {
	return r.Sessions > 0
}

// PeriodPivot aggregates absences with an explicit column per period.
func (e *Engine) PeriodPivot(ctx context.Context, sec section.ID, window attendance.DateWindow) (*PivotReport, error) {
	sessions, err := e.store.SessionsForSection(ctx, sec, &window)
	if err != nil {
		return nil, err
	}

	rep := &PivotReport{Section: sec, Window: window, Periods: e.Periods(), Sessions: len(sessions)}
	if len(sessions) == 0 {
		return rep, nil
	}

	ids, byID := indexSessions(sessions)
	rows, err := e.store.AbsentRows(ctx, ids, "")
	if err != nil {
		return nil, err
	}

	periodIdx := make(map[attendance.Period]int, len(e.periods))
	for i, p := range e.periods {
		periodIdx[p] = i
	}

	type group struct {
		counts []int
		labels map[string]bool
		total  int
	}
	groups := make(map[Student]*group)
	for _, r := range rows {
		sess, ok := byID[r.SessionID]
		if !ok {
			return nil, fmt.Errorf("%w: row %d references session %d outside the window",
				attendance.ErrStorageUnavailable, r.ID, r.SessionID)
		}
		key := studentOf(r)
		g := groups[key]
		if g == nil {
			g = &group{counts: make([]int, len(e.periods)), labels: make(map[string]bool)}
			groups[key] = g
		}
		if i, known := periodIdx[sess.Period]; known {
			g.counts[i]++
		}
		g.total++
		g.labels[sess.DateString()+" (P"+string(sess.Period)+")"] = true
	}

	for key, g := range groups {
		rep.Rows = append(rep.Rows, PivotRow{
			Student:       key,
			PeriodCounts:  g.counts,
			AbsenceCount:  g.total,
			PeriodsAbsent: joinSorted(g.labels),
		})
	}
	sort.Slice(rep.Rows, func(i, j int) bool {
		if rep.Rows[i].AbsenceCount != rep.Rows[j].AbsenceCount {
			return rep.Rows[i].AbsenceCount > rep.Rows[j].AbsenceCount
		}
		return rep.Rows[i].RegdNo < rep.Rows[j].RegdNo
	})
	return rep, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// (d) Attendance-percentage report
// ─────────────────────────────────────────────────────────────────────────────

// PercentageRow is one roster entry's attendance over a window.
type PercentageRow struct {
	RegdNo       string
	Name         string
	Presents     int
	TotalClasses int
	Absences     int
	Percentage   float64
}

// PercentageReport is the per-student attendance percentage table.
type PercentageReport struct {
	Section      section.ID
	Window       attendance.DateWindow
	TotalClasses int
	Rows         []PercentageRow
}

// Percentages computes per-student attendance over the window. Total classes
// is the number of sessions held for the section, the same denominator for
// every student. The roster is left-outer-joined against the computed stats:
// a student with no rows at all still appears with zero presences, full
// absences and 0.00%. With zero sessions in the window every student reports
// 0% and no division occurs.
func (e *Engine) Percentages(ctx context.Context, sec section.ID, window attendance.DateWindow, ros *roster.Roster) (*PercentageReport, error) {
	if ros == nil {
		return nil, roster.ErrUnavailable
	}
	if err := ros.Validate(); err != nil {
		return nil, err
	}

	sessions, err := e.store.SessionsForSection(ctx, sec, &window)
	if err != nil {
		return nil, err
	}
	total := len(sessions)

	presents := make(map[string]int)
	if total > 0 {
		ids, _ := indexSessions(sessions)
		counts, err := e.store.PresenceCounts(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, c := range counts {
			// Keyed by registration number alone: the name column is a
			// snapshot and may drift between sessions.
			presents[c.RegdNo] += c.Presents
		}
	}

	rep := &PercentageReport{Section: sec, Window: window, TotalClasses: total}
	for _, entry := range ros.Entries {
		p := presents[entry.RegdNo]
		row := PercentageRow{
			RegdNo:       entry.RegdNo,
			Name:         entry.Name,
			Presents:     p,
			TotalClasses: total,
			Absences:     total - p,
		}
		if total > 0 {
			row.Percentage = round2(float64(p) / float64(total) * 100)
		}
		rep.Rows = append(rep.Rows, row)
	}

	// Lowest attendance first, the order the department reads this table in.
	sort.Slice(rep.Rows, func(i, j int) bool {
		if rep.Rows[i].Percentage != rep.Rows[j].Percentage {
			return rep.Rows[i].Percentage < rep.Rows[j].Percentage
		}
		return rep.Rows[i].RegdNo < rep.Rows[j].RegdNo
	})
	return rep, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// (e) Single-student detail report
// ─────────────────────────────────────────────────────────────────────────────

// AbsenceDetail is one missed session of a student.
type AbsenceDetail struct {
	SessionID int64
	Date      time.Time
	Period    attendance.Period
}

// StudentReport itemizes one student's absences over a window. Sessions == 0
// means no data for the window; Sessions > 0 with no absences means perfect
// attendance.
type StudentReport struct {
	Student
	Section  section.ID
	Window   attendance.DateWindow
	Sessions int
	Absences []AbsenceDetail
}

// HasSessions reports whether any sessions qualified for the window.
func (r *StudentReport) HasSessions() bool {
	return r.Sessions > 0
}

// PerfectAttendance reports sessions exist and the student missed none.
func (r *StudentReport) PerfectAttendance() bool {
	return r.Sessions > 0 && len(r.Absences) == 0
}

// StudentDetail reports one registration number's absences over a window,
// sorted by date then period ascending. ros supplies the student's identity
// when there are no absence rows to take the snapshot from; it may be nil.
func (e *Engine) StudentDetail(ctx context.Context, sec section.ID, regdNo string, window attendance.DateWindow, ros *roster.Roster) (*StudentReport, error) {
	sessions, err := e.store.SessionsForSection(ctx, sec, &window)
	if err != nil {
		return nil, err
	}

	rep := &StudentReport{Section: sec, Window: window, Sessions: len(sessions)}
	rep.RegdNo = regdNo
	if ros != nil {
		if entry, ok := ros.Find(regdNo); ok {
			rep.Name = entry.Name
			rep.GuardianName = entry.GuardianName
			rep.GuardianPhone = entry.GuardianPhone
		}
	}
	if len(sessions) == 0 {
		return rep, nil
	}

	ids, byID := indexSessions(sessions)
	rows, err := e.store.AbsentRows(ctx, ids, regdNo)
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		sess, ok := byID[r.SessionID]
		if !ok {
			continue
		}
		// Prefer the submission-time snapshot for identity fields.
		rep.Name = r.Name
		rep.GuardianName = r.GuardianName
		rep.GuardianPhone = r.GuardianPhone
		rep.Absences = append(rep.Absences, AbsenceDetail{
			SessionID: r.SessionID,
			Date:      sess.Date,
			Period:    sess.Period,
		})
	}
	sort.Slice(rep.Absences, func(i, j int) bool {
		di, dj := timeutil.FormatDate(rep.Absences[i].Date), timeutil.FormatDate(rep.Absences[j].Date)
		if di != dj {
			return di < dj
		}
		return rep.Absences[i].Period < rep.Absences[j].Period
	})
	return rep, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

func studentOf(r attendance.Row) Student {
	return Student{
		RegdNo:        r.RegdNo,
		Name:          r.Name,
		GuardianName:  r.GuardianName,
		GuardianPhone: r.GuardianPhone,
	}
}

// indexSessions returns the ordered id list and an id lookup map.
func indexSessions(sessions []attendance.Session) ([]int64, map[int64]attendance.Session) {
	ids := make([]int64, 0, len(sessions))
	byID := make(map[int64]attendance.Session, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
		byID[s.ID] = s
	}
	return ids, byID
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func joinSorted(set map[string]bool) string {
	return strings.Join(sortedKeys(set), ", ")
}

// round2 rounds half-up to two decimal places. Percentages are computed once
// from integer counts, never accumulated in floating point.
func round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}

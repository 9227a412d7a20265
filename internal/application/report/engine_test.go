package report

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/attendance"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/roster"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/section"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/pkg/timeutil"
)

// memStore is an in-memory attendance.Store for engine tests.
type memStore struct {
	nextID   int64
	sessions []attendance.Session
	rows     []attendance.Row
	fail     error
}

func newMemStore() *memStore {
	return &memStore{nextID: 1}
}

func (m *memStore) SaveSubmission(ctx context.Context, sub attendance.Submission) (int64, error) {
	if m.fail != nil {
		return 0, m.fail
	}
	if err := sub.Validate(); err != nil {
		return 0, err
	}
	id := m.nextID
	m.nextID++
	m.sessions = append(m.sessions, attendance.Session{
		ID:          id,
		Section:     sub.Section,
		Date:        sub.Date,
		Period:      sub.Period,
		SubmittedBy: sub.SubmittedBy,
		CreatedAt:   timeutil.Now(),
	})
	for _, r := range sub.Rows {
		r.SessionID = id
		m.rows = append(m.rows, r)
	}
	return id, nil
}

func (m *memStore) SessionByID(ctx context.Context, id int64) (attendance.Session, error) {
	if m.fail != nil {
		return attendance.Session{}, m.fail
	}
	for _, s := range m.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return attendance.Session{}, attendance.ErrSessionNotFound
}

func (m *memStore) SessionsForSection(ctx context.Context, sec section.ID, window *attendance.DateWindow) ([]attendance.Session, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	var out []attendance.Session
	for _, s := range m.sessions {
		if s.Section != sec {
			continue
		}
		if window != nil && !window.Contains(s.Date) {
			continue
		}
		out = append(out, s)
	}
	if window != nil {
		sort.Slice(out, func(i, j int) bool {
			if !out[i].Date.Equal(out[j].Date) {
				return out[i].Date.Before(out[j].Date)
			}
			return out[i].Period < out[j].Period
		})
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	}
	return out, nil
}

func (m *memStore) AbsentRows(ctx context.Context, sessionIDs []int64, regdNo string) ([]attendance.Row, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	want := make(map[int64]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		want[id] = true
	}
	var out []attendance.Row
	for _, r := range m.rows {
		if r.Present || !want[r.SessionID] {
			continue
		}
		if regdNo != "" && r.RegdNo != regdNo {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) PresenceCounts(ctx context.Context, sessionIDs []int64) ([]attendance.PresenceCount, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	want := make(map[int64]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		want[id] = true
	}
	counts := make(map[[2]string]int)
	for _, r := range m.rows {
		if !want[r.SessionID] || !r.Present {
			continue
		}
		counts[[2]string{r.RegdNo, r.Name}]++
	}
	var out []attendance.PresenceCount
	for k, n := range counts {
		out = append(out, attendance.PresenceCount{RegdNo: k[0], Name: k[1], Presents: n})
	}
	return out, nil
}

func (m *memStore) Sections(ctx context.Context) ([]section.ID, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	seen := make(map[section.ID]bool)
	var out []section.ID
	for _, s := range m.sessions {
		if !seen[s.Section] {
			seen[s.Section] = true
			out = append(out, s.Section)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// seedScenario loads the two-session fixture: 2024-01-01 periods 1 and 2 of
// section II-CSE_A, R1 present in P1 / absent in P2, R2 absent in both.
func seedScenario(t *testing.T, store *memStore) {
	t.Helper()
	rows := func(r1Present, r2Present bool) []attendance.Row {
		return []attendance.Row{
			{RegdNo: "R1", Name: "Anil Kumar", Present: r1Present, GuardianName: "Ravi Kumar", GuardianPhone: "9000000001"},
			{RegdNo: "R2", Name: "Bhavana Rao", Present: r2Present, GuardianName: "Suresh Rao", GuardianPhone: "9000000002"},
		}
	}
	_, err := store.SaveSubmission(context.Background(), attendance.Submission{
		Section: "II-CSE_A", Date: timeutil.Date(2024, 1, 1), Period: "1",
		SubmittedBy: "fac1", Rows: rows(true, false),
	})
	require.NoError(t, err)
	_, err = store.SaveSubmission(context.Background(), attendance.Submission{
		Section: "II-CSE_A", Date: timeutil.Date(2024, 1, 1), Period: "2",
		SubmittedBy: "fac1", Rows: rows(false, false),
	})
	require.NoError(t, err)
}

func testRoster() *roster.Roster {
	return &roster.Roster{
		Section: "II-CSE_A",
		Entries: []roster.Entry{
			{RegdNo: "R1", Name: "Anil Kumar", GuardianName: "Ravi Kumar", GuardianPhone: "9000000001"},
			{RegdNo: "R2", Name: "Bhavana Rao", GuardianName: "Suresh Rao", GuardianPhone: "9000000002"},
			{RegdNo: "R3", Name: "Charan Teja"},
		},
	}
}

func window(t *testing.T, start, end [3]int) attendance.DateWindow {
	t.Helper()
	w, err := attendance.NewDateWindow(
		timeutil.Date(start[0], start[1], start[2]),
		timeutil.Date(end[0], end[1], end[2]),
	)
	require.NoError(t, err)
	return w
}

func TestSessionAbsentees(t *testing.T) {
	store := newMemStore()
	seedScenario(t, store)
	e := NewEngine(store, nil)

	rep, err := e.SessionAbsentees(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, rep.AllPresent())
	require.Len(t, rep.Absentees, 1)
	assert.Equal(t, "R2", rep.Absentees[0].RegdNo)
	assert.Equal(t, "Suresh Rao", rep.Absentees[0].GuardianName)
}

func TestSessionAbsentees_AllPresentVsNotFound(t *testing.T) {
	store := newMemStore()
	_, err := store.SaveSubmission(context.Background(), attendance.Submission{
		Section: "III-CSE", Date: timeutil.Date(2024, 3, 4), Period: "5", SubmittedBy: "fac2",
		Rows: []attendance.Row{{RegdNo: "R9", Name: "Divya", Present: true}},
	})
	require.NoError(t, err)
	e := NewEngine(store, nil)

	rep, err := e.SessionAbsentees(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, rep.AllPresent(), "zero absentees is a reportable outcome")

	_, err = e.SessionAbsentees(context.Background(), 42)
	assert.ErrorIs(t, err, attendance.ErrSessionNotFound)
}

func TestDateRollup_Scenario(t *testing.T) {
	store := newMemStore()
	seedScenario(t, store)
	e := NewEngine(store, nil)

	rep, err := e.DateRollup(context.Background(), "II-CSE_A", timeutil.Date(2024, 1, 1))
	require.NoError(t, err)
	assert.True(t, rep.HasSessions())
	assert.Equal(t, 2, rep.Sessions)
	require.Len(t, rep.Rows, 2)

	// R2 (2 absences) sorts before R1 (1 absence).
	r2, r1 := rep.Rows[0], rep.Rows[1]
	assert.Equal(t, "R2", r2.RegdNo)
	assert.Equal(t, 2, r2.AbsenceCount)
	assert.Equal(t, []string{"P1 (2024-01-01)", "P2 (2024-01-01)"}, r2.PeriodDates)

	assert.Equal(t, "R1", r1.RegdNo)
	assert.Equal(t, 1, r1.AbsenceCount)
	assert.Equal(t, []string{"P2 (2024-01-01)"}, r1.PeriodDates)
}

func TestRollup_Idempotent(t *testing.T) {
	store := newMemStore()
	seedScenario(t, store)
	e := NewEngine(store, nil)

	first, err := e.Rollup(context.Background(), "II-CSE_A", window(t, [3]int{2024, 1, 1}, [3]int{2024, 1, 7}), LabelPeriodWithDate)
	require.NoError(t, err)
	second, err := e.Rollup(context.Background(), "II-CSE_A", window(t, [3]int{2024, 1, 1}, [3]int{2024, 1, 7}), LabelPeriodWithDate)
	require.NoError(t, err)
	assert.Equal(t, first, second, "unchanged store data must yield identical output, order included")
}

func TestRollup_NoSessionsVsNoAbsentees(t *testing.T) {
	store := newMemStore()
	seedScenario(t, store)
	e := NewEngine(store, nil)

	empty, err := e.Rollup(context.Background(), "II-CSE_A", window(t, [3]int{2023, 1, 1}, [3]int{2023, 1, 7}), LabelPeriodWithDate)
	require.NoError(t, err)
	assert.False(t, empty.HasSessions())
	assert.Empty(t, empty.Rows)

	// A session where everyone attended: sessions exist, rows do not.
	_, err = store.SaveSubmission(context.Background(), attendance.Submission{
		Section: "II-CSD", Date: timeutil.Date(2024, 1, 1), Period: "1", SubmittedBy: "fac3",
		Rows: []attendance.Row{{RegdNo: "D1", Name: "Esha", Present: true}},
	})
	require.NoError(t, err)
	allPresent, err := e.DateRollup(context.Background(), "II-CSD", timeutil.Date(2024, 1, 1))
	require.NoError(t, err)
	assert.True(t, allPresent.HasSessions())
	assert.Empty(t, allPresent.Rows)
}

func TestDailyRollup_LabelStyle(t *testing.T) {
	store := newMemStore()
	seedScenario(t, store)
	e := NewEngine(store, nil)

	rep, err := e.DailyRollup(context.Background(), "II-CSE_A", timeutil.Date(2024, 1, 1))
	require.NoError(t, err)
	require.Len(t, rep.Rows, 2)
	assert.Equal(t, []string{"P1", "P2"}, rep.Rows[0].PeriodDates)
}

func TestWeeklyRollup_WindowAndLabels(t *testing.T) {
	store := newMemStore()
	seedScenario(t, store)
	e := NewEngine(store, nil)

	// Anchored at Jan 7: window is Jan 1 through Jan 7 inclusive, so the
	// Jan 1 sessions qualify.
	rep, err := e.WeeklyRollup(context.Background(), "II-CSE_A", timeutil.Date(2024, 1, 7))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 → 2024-01-07", rep.Window.String())
	assert.Equal(t, 2, rep.Sessions)
	require.Len(t, rep.Rows, 2)
	assert.Equal(t, []string{"2024-01-01 P1", "2024-01-01 P2"}, rep.Rows[0].PeriodDates)

	// One day later the anchor window starts Jan 2 and excludes them.
	rep, err = e.WeeklyRollup(context.Background(), "II-CSE_A", timeutil.Date(2024, 1, 8))
	require.NoError(t, err)
	assert.False(t, rep.HasSessions())
}

func TestMonthlyRollup_LeapFebruary(t *testing.T) {
	store := newMemStore()
	_, err := store.SaveSubmission(context.Background(), attendance.Submission{
		Section: "II-CSE_A", Date: timeutil.Date(2024, 2, 29), Period: "3", SubmittedBy: "fac1",
		Rows: []attendance.Row{{RegdNo: "R1", Name: "Anil Kumar", Present: false}},
	})
	require.NoError(t, err)
	e := NewEngine(store, nil)

	rep, err := e.MonthlyRollup(context.Background(), "II-CSE_A", timeutil.Date(2024, 2, 15))
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01 → 2024-02-29", rep.Window.String())
	assert.Equal(t, 1, rep.Sessions)
}

func TestPeriodPivot(t *testing.T) {
	store := newMemStore()
	seedScenario(t, store)
	e := NewEngine(store, nil)

	rep, err := e.PeriodPivot(context.Background(), "II-CSE_A", window(t, [3]int{2024, 1, 1}, [3]int{2024, 1, 7}))
	require.NoError(t, err)
	require.Len(t, rep.Rows, 2)
	assert.Equal(t, attendance.DefaultPeriods, rep.Periods)

	r2 := rep.Rows[0]
	assert.Equal(t, "R2", r2.RegdNo)
	// Explicit zero columns for P3..P6, no sparse omission.
	assert.Equal(t, []int{1, 1, 0, 0, 0, 0}, r2.PeriodCounts)
	assert.Equal(t, 2, r2.AbsenceCount)
	assert.Equal(t, "2024-01-01 (P1), 2024-01-01 (P2)", r2.PeriodsAbsent)

	r1 := rep.Rows[1]
	assert.Equal(t, []int{0, 1, 0, 0, 0, 0}, r1.PeriodCounts)
	assert.Equal(t, "2024-01-01 (P2)", r1.PeriodsAbsent)
}

func TestPercentages_Scenario(t *testing.T) {
	store := newMemStore()
	seedScenario(t, store)
	e := NewEngine(store, nil)

	rep, err := e.Percentages(context.Background(), "II-CSE_A", window(t, [3]int{2024, 1, 1}, [3]int{2024, 1, 7}), testRoster())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.TotalClasses)
	require.Len(t, rep.Rows, 3)

	byRegd := make(map[string]PercentageRow)
	for _, r := range rep.Rows {
		byRegd[r.RegdNo] = r
	}

	// R1: present in one of two sessions.
	assert.Equal(t, 1, byRegd["R1"].Presents)
	assert.Equal(t, 2, byRegd["R1"].TotalClasses)
	assert.Equal(t, 1, byRegd["R1"].Absences)
	assert.Equal(t, 50.00, byRegd["R1"].Percentage)

	// R3 has a roster entry but no rows at all: left join keeps the student
	// with zeros, not omitted.
	assert.Equal(t, 0, byRegd["R3"].Presents)
	assert.Equal(t, 2, byRegd["R3"].Absences)
	assert.Equal(t, 0.00, byRegd["R3"].Percentage)

	// Lowest percentage first.
	assert.Equal(t, "R2", rep.Rows[0].RegdNo)
	assert.Equal(t, "R3", rep.Rows[1].RegdNo)
	assert.Equal(t, "R1", rep.Rows[2].RegdNo)
}

func TestPercentages_EmptyWindow(t *testing.T) {
	store := newMemStore()
	seedScenario(t, store)
	e := NewEngine(store, nil)

	rep, err := e.Percentages(context.Background(), "II-CSE_A", window(t, [3]int{2025, 1, 1}, [3]int{2025, 1, 31}), testRoster())
	require.NoError(t, err)
	assert.Equal(t, 0, rep.TotalClasses)
	require.Len(t, rep.Rows, 3)
	for _, row := range rep.Rows {
		assert.Equal(t, 0, row.Presents)
		assert.Equal(t, 0, row.Absences)
		assert.Equal(t, 0.00, row.Percentage)
	}
}

func TestPercentages_Rounding(t *testing.T) {
	store := newMemStore()
	row := func(present bool) []attendance.Row {
		return []attendance.Row{{RegdNo: "R1", Name: "Anil Kumar", Present: present}}
	}
	// 3 sessions, 1 present: 33.333...% rounds half-up to 33.33.
	for i, present := range []bool{true, false, false} {
		_, err := store.SaveSubmission(context.Background(), attendance.Submission{
			Section: "II-CSE_A", Date: timeutil.Date(2024, 1, 1+i), Period: "1",
			SubmittedBy: "fac1", Rows: row(present),
		})
		require.NoError(t, err)
	}
	e := NewEngine(store, nil)

	ros := &roster.Roster{Section: "II-CSE_A", Entries: []roster.Entry{{RegdNo: "R1", Name: "Anil Kumar"}}}
	rep, err := e.Percentages(context.Background(), "II-CSE_A", window(t, [3]int{2024, 1, 1}, [3]int{2024, 1, 7}), ros)
	require.NoError(t, err)
	assert.Equal(t, 33.33, rep.Rows[0].Percentage)
}

func TestPercentages_MissingRoster(t *testing.T) {
	e := NewEngine(newMemStore(), nil)

	_, err := e.Percentages(context.Background(), "II-CSE_A", window(t, [3]int{2024, 1, 1}, [3]int{2024, 1, 7}), nil)
	assert.ErrorIs(t, err, roster.ErrUnavailable)

	bad := &roster.Roster{Section: "II-CSE_A"}
	_, err = e.Percentages(context.Background(), "II-CSE_A", window(t, [3]int{2024, 1, 1}, [3]int{2024, 1, 7}), bad)
	assert.ErrorIs(t, err, roster.ErrMalformed)
}

func TestStudentDetail(t *testing.T) {
	store := newMemStore()
	seedScenario(t, store)
	e := NewEngine(store, nil)
	w := window(t, [3]int{2024, 1, 1}, [3]int{2024, 1, 7})

	// Itemized absences, date then period ascending.
	rep, err := e.StudentDetail(context.Background(), "II-CSE_A", "R2", w, testRoster())
	require.NoError(t, err)
	assert.True(t, rep.HasSessions())
	assert.False(t, rep.PerfectAttendance())
	require.Len(t, rep.Absences, 2)
	assert.Equal(t, attendance.Period("1"), rep.Absences[0].Period)
	assert.Equal(t, attendance.Period("2"), rep.Absences[1].Period)
	assert.Equal(t, "Bhavana Rao", rep.Name)

	// Sessions exist, student missed none.
	rep, err = e.StudentDetail(context.Background(), "II-CSE_A", "R3", w, testRoster())
	require.NoError(t, err)
	assert.True(t, rep.HasSessions())
	// R3 has no rows in the seeded sessions, hence no absence rows either;
	// with zero absent rows this reads as perfect attendance.
	assert.True(t, rep.PerfectAttendance())
	assert.Equal(t, "Charan Teja", rep.Name, "identity from roster when no rows exist")

	// Zero sessions in window: no data, not perfect attendance.
	rep, err = e.StudentDetail(context.Background(), "II-CSE_A", "R2", window(t, [3]int{2023, 5, 1}, [3]int{2023, 5, 7}), testRoster())
	require.NoError(t, err)
	assert.False(t, rep.HasSessions())
	assert.False(t, rep.PerfectAttendance())
}

func TestEngine_PropagatesStorageFailure(t *testing.T) {
	store := newMemStore()
	seedScenario(t, store)
	store.fail = attendance.ErrStorageUnavailable
	e := NewEngine(store, nil)

	_, err := e.DateRollup(context.Background(), "II-CSE_A", timeutil.Date(2024, 1, 1))
	assert.ErrorIs(t, err, attendance.ErrStorageUnavailable,
		"a storage fault must surface, never an empty report")
}

func TestInvalidWindowRejected(t *testing.T) {
	_, err := attendance.NewDateWindow(timeutil.Date(2024, 1, 7), timeutil.Date(2024, 1, 1))
	assert.ErrorIs(t, err, attendance.ErrInvalidWindow)
}

func TestTableProjection(t *testing.T) {
	store := newMemStore()
	seedScenario(t, store)
	e := NewEngine(store, nil)

	rep, err := e.DateRollup(context.Background(), "II-CSE_A", timeutil.Date(2024, 1, 1))
	require.NoError(t, err)

	tbl := rep.Table()
	assert.Equal(t, []string{ColRegdNo, ColName, ColParentName, ColParentPhone, ColPeriodDate, ColAbsenceCount}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "P1 (2024-01-01), P2 (2024-01-01)", tbl.Rows[0][4])
	assert.Equal(t, "2", tbl.Rows[0][5])

	pct, err := e.Percentages(context.Background(), "II-CSE_A", window(t, [3]int{2024, 1, 1}, [3]int{2024, 1, 7}), testRoster())
	require.NoError(t, err)
	ptbl := pct.Table()
	assert.Equal(t, "50.00", ptbl.Rows[2][5], "two-decimal rendering")

	piv, err := e.PeriodPivot(context.Background(), "II-CSE_A", window(t, [3]int{2024, 1, 1}, [3]int{2024, 1, 7}))
	require.NoError(t, err)
	assert.Equal(t, []string{ColRegdNo, ColName, ColParentName, ColParentPhone,
		"P1", "P2", "P3", "P4", "P5", "P6", ColAbsenceCount, ColPeriodsAbsent},
		piv.Table().Columns)
}

func TestEngineSections(t *testing.T) {
	store := newMemStore()
	seedScenario(t, store)
	e := NewEngine(store, nil)

	secs, err := e.Sections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []section.ID{"II-CSE_A"}, secs)
}

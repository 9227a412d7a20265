package report

import (
	"strconv"
	"strings"

	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/attendance"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/pkg/timeutil"
)

// Stable column names shared across report types, matching the department's
// existing spreadsheets.
const (
	ColRegdNo        = "Regd. No."
	ColName          = "Name"
	ColParentName    = "Parent Name"
	ColParentPhone   = "Parent Phone"
	ColPeriodDate    = "Period_Date"
	ColAbsenceCount  = "Absence Count"
	ColPeriodsAbsent = "Periods Absent"
	ColPresents      = "Presents"
	ColTotalClasses  = "Total Classes"
	ColAbsences      = "Absences"
	ColPercentage    = "% Attendance"
	ColDate          = "Date"
	ColPeriod        = "Period"
)

// Table is the caller-facing tabular report object: named columns plus rows
// of cells in column order, ready for rendering or export. Header carries the
// report's context lines (section, window, submitter) the way the dashboard's
// downloads prepend them.
type Table struct {
	Title   string
	Header  [][2]string
	Columns []string
	Rows    [][]string
}

// Table projects the single-session absentee list.
func (r *SessionReport) Table() *Table {
	t := &Table{
		Title:   "Absentees (Single Record)",
		Columns: []string{ColRegdNo, ColName, ColParentName, ColParentPhone},
		Header: [][2]string{
			{"Section", r.Session.Section.String()},
			{"Date", r.Session.DateString()},
			{"Period", string(r.Session.Period)},
			{"Submitted By", r.Session.SubmittedBy},
		},
	}
	for _, a := range r.Absentees {
		t.Rows = append(t.Rows, []string{a.RegdNo, a.Name, a.GuardianName, a.GuardianPhone})
	}
	return t
}

// Table projects the grouped roll-up.
func (r *RollupReport) Table() *Table {
	t := &Table{
		Title:   "Aggregated Absentees",
		Columns: []string{ColRegdNo, ColName, ColParentName, ColParentPhone, ColPeriodDate, ColAbsenceCount},
		Header: [][2]string{
			{"Section", r.Section.String()},
			{"Window", r.Window.String()},
		},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []string{
			row.RegdNo,
			row.Name,
			row.GuardianName,
			row.GuardianPhone,
			strings.Join(row.PeriodDates, ", "),
			strconv.Itoa(row.AbsenceCount),
		})
	}
	return t
}

// Table projects the period pivot with one column per period.
func (r *PivotReport) Table() *Table {
	cols := []string{ColRegdNo, ColName, ColParentName, ColParentPhone}
	cols = append(cols, PeriodColumns(r.Periods)...)
	cols = append(cols, ColAbsenceCount, ColPeriodsAbsent)

	t := &Table{
		Title:   "Absent Periods Pivot",
		Columns: cols,
		Header: [][2]string{
			{"Section", r.Section.String()},
			{"Window", r.Window.String()},
		},
	}
	for _, row := range r.Rows {
		cells := []string{row.RegdNo, row.Name, row.GuardianName, row.GuardianPhone}
		for _, c := range row.PeriodCounts {
			cells = append(cells, strconv.Itoa(c))
		}
		cells = append(cells, strconv.Itoa(row.AbsenceCount), row.PeriodsAbsent)
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// Table projects the percentage report. Percentages always render with two
// decimals.
func (r *PercentageReport) Table() *Table {
	t := &Table{
		Title:   "Attendance Percentage",
		Columns: []string{ColRegdNo, ColName, ColPresents, ColTotalClasses, ColAbsences, ColPercentage},
		Header: [][2]string{
			{"Section", r.Section.String()},
			{"Window", r.Window.String()},
			{"Total Classes", strconv.Itoa(r.TotalClasses)},
		},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []string{
			row.RegdNo,
			row.Name,
			strconv.Itoa(row.Presents),
			strconv.Itoa(row.TotalClasses),
			strconv.Itoa(row.Absences),
			strconv.FormatFloat(row.Percentage, 'f', 2, 64),
		})
	}
	return t
}

// Table projects the per-student detail report.
func (r *StudentReport) Table() *Table {
	t := &Table{
		Title:   "Student Absence Detail",
		Columns: []string{ColRegdNo, ColName, ColDate, ColPeriod, ColParentName, ColParentPhone},
		Header: [][2]string{
			{"Section", r.Section.String()},
			{"Student", r.RegdNo},
			{"Window", r.Window.String()},
			{"Total Absences", strconv.Itoa(len(r.Absences))},
		},
	}
	for _, a := range r.Absences {
		t.Rows = append(t.Rows, []string{
			r.RegdNo,
			r.Name,
			timeutil.FormatDate(a.Date),
			string(a.Period),
			r.GuardianName,
			r.GuardianPhone,
		})
	}
	return t
}

// PeriodColumns renders "P1".."Pn" headers for a period enumeration.
func PeriodColumns(periods []attendance.Period) []string {
	cols := make([]string, len(periods))
	for i, p := range periods {
		cols[i] = "P" + string(p)
	}
	return cols
}

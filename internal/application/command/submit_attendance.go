// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/attendance"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/roster"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/section"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/pkg/logger"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT ATTENDANCE COMMAND
// Records one classroom session: the section, the date, the period and the
// full per-student present/absent vector taken from the roster.
// ══════════════════════════════════════════════════════════════════════════════

// MarkedStudent is one student's mark inside a submission.
type MarkedStudent struct {
	RegdNo  string
	Present bool
}

// SubmitAttendanceCommand contains the data to record a session.
type SubmitAttendanceCommand struct {
	// SectionLabel is the section as the caller wrote it. Any known alias
	// resolves to its canonical identifier before the session is stored.
	SectionLabel string

	// Date is the class date in YYYY-MM-DD form.
	Date string

	// Period is the period label, "1" through "6".
	Period string

	// SubmittedBy is the username of the submitting faculty member.
	SubmittedBy string

	// Students carries the per-student marks. Roster entries without a mark
	// are stored as absent; registration numbers not on the roster are
	// rejected.
	Students []MarkedStudent

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate checks the command before any I/O happens.
func (c SubmitAttendanceCommand) Validate() error {
	if c.SectionLabel == "" {
		return errors.New("submit_attendance: section is required")
	}
	if c.SubmittedBy == "" {
		return errors.New("submit_attendance: submitted_by is required")
	}
	if _, err := timeutil.ParseDate(c.Date); err != nil {
		return fmt.Errorf("submit_attendance: bad date %q: %w", c.Date, err)
	}
	if !attendance.Period(c.Period).IsValid() {
		return fmt.Errorf("submit_attendance: unknown period %q", c.Period)
	}
	if len(c.Students) == 0 {
		return errors.New("submit_attendance: at least one student mark is required")
	}
	seen := make(map[string]bool, len(c.Students))
	for _, s := range c.Students {
		if s.RegdNo == "" {
			return errors.New("submit_attendance: empty registration number")
		}
		if seen[s.RegdNo] {
			return fmt.Errorf("submit_attendance: duplicate registration number %s", s.RegdNo)
		}
		seen[s.RegdNo] = true
	}
	return nil
}

// SubmitAttendanceResult contains the outcome of a submission.
type SubmitAttendanceResult struct {
	// SessionID is the stored session's identifier.
	SessionID int64

	// Receipt is an opaque confirmation token for the caller.
	Receipt string

	// Section is the canonical section the session was stored under.
	Section section.ID

	// Date and Period echo the stored session coordinates.
	Date   time.Time
	Period attendance.Period

	// PresentCount and AbsentCount summarize the vector.
	PresentCount int
	AbsentCount  int
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SubmitAttendanceHandler handles the SubmitAttendanceCommand.
type SubmitAttendanceHandler struct {
	catalog *section.Catalog
	store   attendance.Store
	rosters roster.Source
	log     *logger.Logger
}

// NewSubmitAttendanceHandler creates a new SubmitAttendanceHandler.
func NewSubmitAttendanceHandler(
	catalog *section.Catalog,
	store attendance.Store,
	rosters roster.Source,
	log *logger.Logger,
) *SubmitAttendanceHandler {
	return &SubmitAttendanceHandler{
		catalog: catalog,
		store:   store,
		rosters: rosters,
		log:     log,
	}
}

// Handle resolves the section, joins the roster against the marks to snapshot
// guardian contact details, and stores the session. Every roster entry gets a
// row; entries the caller left unmarked are recorded as absent, so a session
// always covers the full roster in force at submission time. A submission for
// a section/date/period that already has a session stores a second session;
// corrections are kept, reports aggregate over all of them.
func (h *SubmitAttendanceHandler) Handle(ctx context.Context, cmd SubmitAttendanceCommand) (*SubmitAttendanceResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", attendance.ErrInvalidSubmission, err)
	}

	sec := h.catalog.Resolve(cmd.SectionLabel)
	date, err := timeutil.ParseDate(cmd.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", attendance.ErrInvalidSubmission, err)
	}

	ros, err := h.rosters.Load(ctx, sec)
	if err != nil {
		return nil, fmt.Errorf("submit_attendance: roster for %s: %w", sec, err)
	}

	sub := attendance.Submission{
		Section:     sec,
		Date:        date,
		Period:      attendance.Period(cmd.Period),
		SubmittedBy: cmd.SubmittedBy,
		Rows:        make([]attendance.Row, 0, ros.Len()),
	}
	marks := make(map[string]bool, len(cmd.Students))
	for _, mark := range cmd.Students {
		if _, ok := ros.Find(mark.RegdNo); !ok {
			return nil, fmt.Errorf("%w: %s is not on the %s roster",
				attendance.ErrInvalidSubmission, mark.RegdNo, sec)
		}
		marks[mark.RegdNo] = mark.Present
	}
	for _, entry := range ros.Entries {
		sub.Rows = append(sub.Rows, attendance.RowFromRoster(entry, marks[entry.RegdNo]))
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	id, err := h.store.SaveSubmission(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("submit_attendance: save: %w", err)
	}

	if !timeutil.SameDate(date, timeutil.Now()) {
		h.log.Warn("attendance submitted for another date",
			logger.Section(string(sec)),
			logger.String("date", cmd.Date),
			logger.Username(cmd.SubmittedBy),
		)
	}

	present := sub.PresentCount()
	h.log.Info("attendance session stored",
		logger.SessionID(id),
		logger.Section(string(sec)),
		logger.Period(cmd.Period),
		logger.Username(cmd.SubmittedBy),
		logger.Int("present", present),
		logger.Int("absent", len(sub.Rows)-present),
	)

	return &SubmitAttendanceResult{
		SessionID:    id,
		Receipt:      uuid.NewString(),
		Section:      sec,
		Date:         date,
		Period:       sub.Period,
		PresentCount: present,
		AbsentCount:  len(sub.Rows) - present,
	}, nil
}

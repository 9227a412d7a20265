package attendance

import (
	"context"

	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/section"
)

// PresenceCount is the per-student present=true tally over a set of sessions,
// used by percentage reports.
type PresenceCount struct {
	RegdNo   string
	Name     string
	Presents int
}

// Store is the persistence contract for sessions and attendance rows. It
// carries no business logic beyond simple filters; all aggregation semantics
// live in the report engine. Implementations wrap any storage fault in
// ErrStorageUnavailable.
type Store interface {
	// SaveSubmission persists the session and its full row set as one atomic
	// unit and returns the new session id. A partially written submission
	// must never be observable to concurrent readers. Duplicate
	// (section, date, period) sessions are allowed; resubmission is a
	// correction mechanism and both sessions remain reportable.
	SaveSubmission(ctx context.Context, sub Submission) (int64, error)

	// SessionByID returns one session, or ErrSessionNotFound.
	SessionByID(ctx context.Context, id int64) (Session, error)

	// SessionsForSection returns the section's sessions. With a window the
	// result is ordered by date then period ascending; with window == nil it
	// is all time, most recent first.
	SessionsForSection(ctx context.Context, sec section.ID, window *DateWindow) ([]Session, error)

	// AbsentRows returns the present=false rows of the given sessions,
	// optionally filtered to one registration number (regdNo == "" means no
	// filter). An empty result is a valid outcome, not an error.
	AbsentRows(ctx context.Context, sessionIDs []int64, regdNo string) ([]Row, error)

	// PresenceCounts returns, per (regd_no, name), the count of present=true
	// rows across the given sessions.
	PresenceCounts(ctx context.Context, sessionIDs []int64) ([]PresenceCount, error)

	// Sections returns the distinct sections that have recorded data, in
	// lexical order.
	Sections(ctx context.Context) ([]section.ID, error)
}

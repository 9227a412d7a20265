package attendance

import "errors"

// Error taxonomy for the attendance core. Legitimately empty result sets are
// values, never errors; a storage fault is never masked as an empty report.
var (
	// ErrStorageUnavailable wraps any storage-layer fault (connection or
	// query failure). The engine aborts and surfaces it; it never
	// substitutes default data for a failed query.
	ErrStorageUnavailable = errors.New("attendance: storage unavailable")

	// ErrSessionNotFound is returned when a session id does not exist. This
	// is distinct from a session that exists with zero absentees.
	ErrSessionNotFound = errors.New("attendance: session not found")

	// ErrInvalidSubmission is returned for submissions with missing fields,
	// zero rows, or duplicate registration numbers.
	ErrInvalidSubmission = errors.New("attendance: invalid submission")

	// ErrInvalidWindow is returned for a date window whose start is after
	// its end, before the store is queried.
	ErrInvalidWindow = errors.New("attendance: invalid date window")
)

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/attendance"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/section"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE REPOSITORY
// Sessions live in attendance_meta, the per-student vectors in
// attendance_rows. All aggregation happens in the engine; this layer only
// runs flat parameterized queries and maps rows to domain records.
// ══════════════════════════════════════════════════════════════════════════════

// AttendanceRepository implements attendance.Store on PostgreSQL.
type AttendanceRepository struct {
	conn *Connection
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(conn *Connection) *AttendanceRepository {
	return &AttendanceRepository{conn: conn}
}

// storageErr wraps a database fault so callers can distinguish it from an
// empty result.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", attendance.ErrStorageUnavailable, op, err)
}

// SaveSubmission stores the session header and its row vector in one
// transaction. Partial sessions never become visible.
func (r *AttendanceRepository) SaveSubmission(ctx context.Context, sub attendance.Submission) (int64, error) {
	if err := sub.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO attendance_meta (section, attendance_date, period, submitted_by)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, string(sub.Section), sub.Date, string(sub.Period), sub.SubmittedBy).Scan(&id)
		if err != nil {
			return err
		}

		rows := make([][]interface{}, 0, len(sub.Rows))
		for _, row := range sub.Rows {
			rows = append(rows, []interface{}{
				id, row.RegdNo, row.Name, row.Present, row.GuardianName, row.GuardianPhone,
			})
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"attendance_rows"},
			[]string{"meta_id", "regd_no", "name", "present", "parent_name", "parent_phone"},
			pgx.CopyFromRows(rows),
		)
		return err
	})
	if err != nil {
		return 0, storageErr("save submission", err)
	}
	return id, nil
}

// SessionByID returns one session header.
func (r *AttendanceRepository) SessionByID(ctx context.Context, id int64) (attendance.Session, error) {
	var s attendance.Session
	var sec string
	var period string
	err := r.conn.QueryRow(ctx, `
		SELECT id, section, attendance_date, period, submitted_by, created_at
		FROM attendance_meta
		WHERE id = $1
	`, id).Scan(&s.ID, &sec, &s.Date, &period, &s.SubmittedBy, &s.CreatedAt)
	if IsNoRows(err) {
		return attendance.Session{}, attendance.ErrSessionNotFound
	}
	if err != nil {
		return attendance.Session{}, storageErr("session by id", err)
	}
	s.Section = section.ID(sec)
	s.Period = attendance.Period(period)
	return s, nil
}

// SessionsForSection returns session headers for a section. A nil window
// means all time, most recent first; with a window the order is date then
// period ascending, the order reports consume.
func (r *AttendanceRepository) SessionsForSection(ctx context.Context, sec section.ID, window *attendance.DateWindow) ([]attendance.Session, error) {
	query := `
		SELECT id, section, attendance_date, period, submitted_by, created_at
		FROM attendance_meta
		WHERE section = $1
		ORDER BY attendance_date DESC, period DESC, id DESC
	`
	args := []interface{}{string(sec)}
	if window != nil {
		query = `
			SELECT id, section, attendance_date, period, submitted_by, created_at
			FROM attendance_meta
			WHERE section = $1 AND attendance_date BETWEEN $2 AND $3
			ORDER BY attendance_date ASC, period ASC, id ASC
		`
		args = append(args, window.Start, window.End)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("sessions for section", err)
	}
	defer rows.Close()

	var out []attendance.Session
	for rows.Next() {
		var s attendance.Session
		var secStr, period string
		if err := rows.Scan(&s.ID, &secStr, &s.Date, &period, &s.SubmittedBy, &s.CreatedAt); err != nil {
			return nil, storageErr("scan session", err)
		}
		s.Section = section.ID(secStr)
		s.Period = attendance.Period(period)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("sessions for section", err)
	}
	return out, nil
}

// AbsentRows returns the absent rows of the given sessions, optionally
// narrowed to one registration number. The id list binds as a single array
// parameter regardless of length.
func (r *AttendanceRepository) AbsentRows(ctx context.Context, sessionIDs []int64, regdNo string) ([]attendance.Row, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, meta_id, regd_no, name, present, parent_name, parent_phone
		FROM attendance_rows
		WHERE meta_id = ANY($1) AND present = FALSE
	`
	args := []interface{}{sessionIDs}
	if regdNo != "" {
		query += ` AND regd_no = $2`
		args = append(args, regdNo)
	}
	query += ` ORDER BY meta_id ASC, id ASC`

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("absent rows", err)
	}
	defer rows.Close()

	var out []attendance.Row
	for rows.Next() {
		var row attendance.Row
		if err := rows.Scan(&row.ID, &row.SessionID, &row.RegdNo, &row.Name,
			&row.Present, &row.GuardianName, &row.GuardianPhone); err != nil {
			return nil, storageErr("scan row", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("absent rows", err)
	}
	return out, nil
}

// PresenceCounts returns per-student present totals across the sessions.
func (r *AttendanceRepository) PresenceCounts(ctx context.Context, sessionIDs []int64) ([]attendance.PresenceCount, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}

	rows, err := r.conn.Query(ctx, `
		SELECT regd_no, MIN(name), COUNT(*) FILTER (WHERE present)
		FROM attendance_rows
		WHERE meta_id = ANY($1)
		GROUP BY regd_no
		ORDER BY regd_no ASC
	`, sessionIDs)
	if err != nil {
		return nil, storageErr("presence counts", err)
	}
	defer rows.Close()

	var out []attendance.PresenceCount
	for rows.Next() {
		var c attendance.PresenceCount
		if err := rows.Scan(&c.RegdNo, &c.Name, &c.Presents); err != nil {
			return nil, storageErr("scan presence count", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("presence counts", err)
	}
	return out, nil
}

// Sections returns the distinct sections with at least one stored session.
func (r *AttendanceRepository) Sections(ctx context.Context) ([]section.ID, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT DISTINCT section FROM attendance_meta ORDER BY section ASC
	`)
	if err != nil {
		return nil, storageErr("sections", err)
	}
	defer rows.Close()

	var out []section.ID
	for rows.Next() {
		var sec string
		if err := rows.Scan(&sec); err != nil {
			return nil, storageErr("scan section", err)
		}
		out = append(out, section.ID(sec))
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("sections", err)
	}
	return out, nil
}

// Package roster defines the read-only student roster model consumed by the
// aggregation engine. The authoritative data lives in per-section CSV files
// owned by an external collaborator; this package only defines the shape and
// the validation rules for it.
package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/section"
)

// Column names as they appear in the department's roster files. RegdNo and
// Name are mandatory; the guardian columns are optional and default to "".
const (
	ColRegdNo        = "Regd. No."
	ColName          = "Name"
	ColGuardianName  = "Father Name"
	ColGuardianPhone = "Parent Ph.-1"
)

var (
	// ErrUnavailable indicates no roster file exists for the section.
	ErrUnavailable = errors.New("roster: no roster available for section")

	// ErrMalformed indicates the roster is missing mandatory columns or is
	// otherwise unusable. Reported before any aggregation is attempted.
	ErrMalformed = errors.New("roster: malformed roster")
)

// Source supplies roster snapshots for canonical sections. Implementations
// must return ErrUnavailable when no roster file exists and ErrMalformed when
// the file cannot be used.
type Source interface {
	// Load returns the current roster snapshot for a section.
	Load(ctx context.Context, id section.ID) (*Roster, error)

	// Save persists an uploaded roster under the section's canonical
	// filename and returns the filename used.
	Save(ctx context.Context, id section.ID, csvData []byte) (string, error)
}

// Entry is one student row of a section roster.
type Entry struct {
	RegdNo        string
	Name          string
	GuardianName  string
	GuardianPhone string
}

// Roster is the ordered roster snapshot for one section.
type Roster struct {
	Section section.ID
	Entries []Entry
}

// Len returns the number of students on the roster.
func (r *Roster) Len() int {
	return len(r.Entries)
}

// Find returns the entry with the given registration number.
func (r *Roster) Find(regdNo string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.RegdNo == regdNo {
			return e, true
		}
	}
	return Entry{}, false
}

// Search returns entries whose name or registration number contains the
// query, case-insensitively. An empty query matches nothing.
func (r *Roster) Search(query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []Entry
	for _, e := range r.Entries {
		if strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.RegdNo), q) {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks roster-level invariants: at least one entry, and no entry
// with an empty registration number or name.
func (r *Roster) Validate() error {
	if len(r.Entries) == 0 {
		return fmt.Errorf("%w: section %s has no students", ErrMalformed, r.Section)
	}
	for i, e := range r.Entries {
		if strings.TrimSpace(e.RegdNo) == "" {
			return fmt.Errorf("%w: row %d has empty %s", ErrMalformed, i+1, ColRegdNo)
		}
		if strings.TrimSpace(e.Name) == "" {
			return fmt.Errorf("%w: row %d has empty %s", ErrMalformed, i+1, ColName)
		}
	}
	return nil
}

// ValidateColumns checks that a roster file header carries the mandatory
// columns. Header comparison trims surrounding whitespace, matching how the
// files are actually edited by hand.
func ValidateColumns(header []string) error {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[strings.TrimSpace(h)] = true
	}
	var missing []string
	for _, required := range []string{ColRegdNo, ColName} {
		if !have[required] {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing columns %s", ErrMalformed, strings.Join(missing, ", "))
	}
	return nil
}

// Package rosterdir implements the filesystem roster source. Rosters are
// per-section CSV files in one flat directory, maintained partly by hand, so
// loading probes every filename a section has historically been saved under.
package rosterdir

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/roster"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/section"
)

// Dir is a roster.Source over one directory of CSV files.
type Dir struct {
	path    string
	catalog *section.Catalog
}

// New creates a Dir over the given directory path.
func New(path string, catalog *section.Catalog) *Dir {
	return &Dir{path: path, catalog: catalog}
}

// Load probes the section's candidate filenames in order and parses the first
// file that exists. For an unknown section the literal "{label}.csv" is the
// only probe. No file at all means roster.ErrUnavailable.
func (d *Dir) Load(ctx context.Context, id section.ID) (*roster.Roster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, name := range d.catalog.Filenames(id) {
		f, err := os.Open(filepath.Join(d.path, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", roster.ErrUnavailable, name, err)
		}
		defer f.Close()
		return parse(f, id)
	}
	return nil, fmt.Errorf("%w: %s", roster.ErrUnavailable, id)
}

// Save validates the upload and writes it under the section's canonical
// filename. The write goes through a temp file and rename so a failed upload
// never truncates the roster in place.
func (d *Dir) Save(ctx context.Context, id section.ID, csvData []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ros, err := parse(strings.NewReader(string(csvData)), id)
	if err != nil {
		return "", err
	}
	if err := ros.Validate(); err != nil {
		return "", err
	}

	name := d.catalog.SaveFilename(id)
	target := filepath.Join(d.path, name)

	tmp, err := os.CreateTemp(d.path, name+".tmp*")
	if err != nil {
		return "", fmt.Errorf("rosterdir: save %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(csvData); err != nil {
		tmp.Close()
		return "", fmt.Errorf("rosterdir: save %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("rosterdir: save %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("rosterdir: save %s: %w", name, err)
	}
	return name, nil
}

// parse reads a roster CSV: a header row carrying at least the mandatory
// columns, then one row per student. Columns are located by header name, not
// position. Short rows fill missing optional cells with "".
func parse(r io.Reader, id section.ID) (*roster.Roster, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", roster.ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", roster.ErrMalformed, err)
	}
	if err := roster.ValidateColumns(header); err != nil {
		return nil, err
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	cell := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	ros := &roster.Roster{Section: id}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", roster.ErrMalformed, err)
		}
		entry := roster.Entry{
			RegdNo:        cell(record, roster.ColRegdNo),
			Name:          cell(record, roster.ColName),
			GuardianName:  cell(record, roster.ColGuardianName),
			GuardianPhone: cell(record, roster.ColGuardianPhone),
		}
		if entry.RegdNo == "" && entry.Name == "" {
			continue
		}
		ros.Entries = append(ros.Entries, entry)
	}
	return ros, nil
}

// Package export renders report tables as downloadable CSV and Excel files.
// Every report shape projects to a report.Table first, so both writers work
// off the same stable column layout.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/application/report"
)

// CSV renders a table as CSV bytes: the context lines (section, window and
// session count) as "key,value" rows, a blank line, then the column header
// and data rows.
func CSV(t report.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	for _, kv := range t.Header {
		if err := w.Write([]string{kv[0], kv[1]}); err != nil {
			return nil, fmt.Errorf("export: csv header: %w", err)
		}
	}
	if len(t.Header) > 0 {
		if err := w.Write([]string{""}); err != nil {
			return nil, fmt.Errorf("export: csv header: %w", err)
		}
	}

	if err := w.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("export: csv columns: %w", err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("export: csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("export: csv flush: %w", err)
	}
	return buf.Bytes(), nil
}

package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/application/report"
)

const sheetName = "Report"

// Excel renders a table as an .xlsx workbook with one sheet: the context
// lines on top, a blank row, then a bold column header and the data rows.
func Excel(t report.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	rowIdx := 1
	for _, kv := range t.Header {
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
		if err := f.SetSheetRow(sheetName, cell, &[]interface{}{kv[0], kv[1]}); err != nil {
			return nil, fmt.Errorf("export: xlsx header: %w", err)
		}
		rowIdx++
	}
	if len(t.Header) > 0 {
		rowIdx++
	}

	headerRow := rowIdx
	cell, _ := excelize.CoordinatesToCellName(1, headerRow)
	cols := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c
	}
	if err := f.SetSheetRow(sheetName, cell, &cols); err != nil {
		return nil, fmt.Errorf("export: xlsx columns: %w", err)
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(t.Columns), headerRow)
		_ = f.SetCellStyle(sheetName, cell, endCell, boldStyle)
	}
	rowIdx++

	for _, row := range t.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
		vals := make([]interface{}, len(row))
		for i, v := range row {
			vals[i] = v
		}
		if err := f.SetSheetRow(sheetName, cell, &vals); err != nil {
			return nil, fmt.Errorf("export: xlsx row: %w", err)
		}
		rowIdx++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export: xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/application/report"
)

func sampleTable() report.Table {
	return report.Table{
		Title: "Absentees",
		Header: [][2]string{
			{"Section", "II-CSE_A"},
			{"Window", "2024-01-01 → 2024-01-07"},
		},
		Columns: []string{"Regd. No.", "Name", "Absence Count"},
		Rows: [][]string{
			{"R2", "Bhavana Rao", "2"},
			{"R1", "Anil Kumar", "1"},
		},
	}
}

func TestCSV(t *testing.T) {
	data, err := CSV(sampleTable())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Equal(t, "Section,II-CSE_A", lines[0])
	assert.Contains(t, lines[1], "Window,")
	assert.Equal(t, "Regd. No.,Name,Absence Count", lines[3])
	assert.Equal(t, "R2,Bhavana Rao,2", lines[4])
	assert.Equal(t, "R1,Anil Kumar,1", lines[5])
}

func TestCSV_NoContextHeader(t *testing.T) {
	tbl := sampleTable()
	tbl.Header = nil

	data, err := CSV(tbl)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Equal(t, "Regd. No.,Name,Absence Count", lines[0])
}

func TestExcel(t *testing.T) {
	data, err := Excel(sampleTable())
	require.NoError(t, err)

	f, err := excelize.OpenReader(strings.NewReader(string(data)))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 6)
	assert.Equal(t, []string{"Section", "II-CSE_A"}, rows[0][:2])
	assert.Equal(t, []string{"Regd. No.", "Name", "Absence Count"}, rows[3][:3])
	assert.Equal(t, "R2", rows[4][0])
}

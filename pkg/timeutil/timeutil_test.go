package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekWindow(t *testing.T) {
	start, end := WeekWindow(Date(2024, 1, 7))

	assert.Equal(t, "2024-01-01", FormatDate(start))
	assert.Equal(t, "2024-01-07", FormatDate(end))
	// 7 calendar days inclusive.
	assert.Equal(t, 6, int(end.Sub(start).Hours()/24))
}

func TestWeekWindow_CrossesMonthBoundary(t *testing.T) {
	start, end := WeekWindow(Date(2024, 3, 2))

	assert.Equal(t, "2024-02-25", FormatDate(start))
	assert.Equal(t, "2024-03-02", FormatDate(end))
}

func TestMonthWindow(t *testing.T) {
	tests := []struct {
		name   string
		anchor time.Time
		start  string
		end    string
	}{
		{
			name:   "leap year february",
			anchor: Date(2024, 2, 15),
			start:  "2024-02-01",
			end:    "2024-02-29",
		},
		{
			name:   "non-leap february",
			anchor: Date(2023, 2, 15),
			start:  "2023-02-01",
			end:    "2023-02-28",
		},
		{
			name:   "december rolls into next year",
			anchor: Date(2024, 12, 25),
			start:  "2024-12-01",
			end:    "2024-12-31",
		},
		{
			name:   "thirty day month",
			anchor: Date(2024, 4, 1),
			start:  "2024-04-01",
			end:    "2024-04-30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := MonthWindow(tt.anchor)
			assert.Equal(t, tt.start, FormatDate(start))
			assert.Equal(t, tt.end, FormatDate(end))
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-07")
	assert.NoError(t, err)
	assert.Equal(t, "2024-01-07", FormatDate(d))
	assert.Equal(t, KolkataTZ.String(), d.Location().String())
	assert.Equal(t, 0, d.Hour())

	_, err = ParseDate("07/01/2024")
	assert.Error(t, err)
}

func TestStartOfDay(t *testing.T) {
	// 2024-01-01T20:00Z is already Jan 2nd in IST.
	utcEvening := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-02", FormatDate(StartOfDay(utcEvening)))
}

func TestSameDate(t *testing.T) {
	a := Date(2024, 5, 1)
	b := a.Add(23*time.Hour + 59*time.Minute)
	assert.True(t, SameDate(a, b))
	assert.False(t, SameDate(a, b.Add(time.Minute)))
}

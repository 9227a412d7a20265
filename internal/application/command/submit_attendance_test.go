package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/attendance"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/roster"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/section"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/pkg/logger"
)

type fakeStore struct {
	attendance.Store

	saved  []attendance.Submission
	nextID int64
	err    error
}

func (f *fakeStore) SaveSubmission(ctx context.Context, sub attendance.Submission) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.saved = append(f.saved, sub)
	f.nextID++
	return f.nextID, nil
}

type fakeRosters struct {
	rosters map[section.ID]*roster.Roster
	saves   map[section.ID][]byte
}

func (f *fakeRosters) Load(ctx context.Context, id section.ID) (*roster.Roster, error) {
	r, ok := f.rosters[id]
	if !ok {
		return nil, roster.ErrUnavailable
	}
	return r, nil
}

func (f *fakeRosters) Save(ctx context.Context, id section.ID, csvData []byte) (string, error) {
	if f.saves == nil {
		f.saves = make(map[section.ID][]byte)
	}
	f.saves[id] = csvData
	f.rosters[id] = &roster.Roster{
		Section: id,
		Entries: []roster.Entry{{RegdNo: "R1", Name: "Anil Kumar"}},
	}
	return string(id) + ".csv", nil
}

func newFixtures() (*fakeStore, *fakeRosters, *SubmitAttendanceHandler) {
	store := &fakeStore{}
	rosters := &fakeRosters{rosters: map[section.ID]*roster.Roster{
		"II-CSE_A": {
			Section: "II-CSE_A",
			Entries: []roster.Entry{
				{RegdNo: "R1", Name: "Anil Kumar", GuardianName: "Ravi Kumar", GuardianPhone: "9000000001"},
				{RegdNo: "R2", Name: "Bhavana Rao", GuardianName: "Suresh Rao", GuardianPhone: "9000000002"},
			},
		},
	}}
	h := NewSubmitAttendanceHandler(section.Default(), store, rosters, logger.Discard())
	return store, rosters, h
}

func TestSubmitAttendance_ResolvesAliasAndSnapshotsGuardians(t *testing.T) {
	store, _, h := newFixtures()

	res, err := h.Handle(context.Background(), SubmitAttendanceCommand{
		SectionLabel: "ii cse.a",
		Date:         "2024-01-01",
		Period:       "2",
		SubmittedBy:  "fac1",
		Students: []MarkedStudent{
			{RegdNo: "R1", Present: true},
			{RegdNo: "R2", Present: false},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, section.ID("II-CSE_A"), res.Section)
	assert.Equal(t, int64(1), res.SessionID)
	assert.NotEmpty(t, res.Receipt)
	assert.Equal(t, 1, res.PresentCount)
	assert.Equal(t, 1, res.AbsentCount)

	require.Len(t, store.saved, 1)
	sub := store.saved[0]
	assert.Equal(t, section.ID("II-CSE_A"), sub.Section)
	assert.Equal(t, attendance.Period("2"), sub.Period)
	require.Len(t, sub.Rows, 2)
	assert.Equal(t, "Suresh Rao", sub.Rows[1].GuardianName)
	assert.Equal(t, "9000000002", sub.Rows[1].GuardianPhone)
}

func TestSubmitAttendance_UnmarkedStudentsStoredAbsent(t *testing.T) {
	store, _, h := newFixtures()

	// Only R1 is marked; the roster has R1 and R2.
	res, err := h.Handle(context.Background(), SubmitAttendanceCommand{
		SectionLabel: "II-CSE_A",
		Date:         "2024-01-01",
		Period:       "1",
		SubmittedBy:  "fac1",
		Students:     []MarkedStudent{{RegdNo: "R1", Present: true}},
	})
	require.NoError(t, err)

	// The session still covers every roster entry; R2 defaults to absent.
	require.Len(t, store.saved, 1)
	sub := store.saved[0]
	require.Len(t, sub.Rows, 2)
	assert.Equal(t, "R1", sub.Rows[0].RegdNo)
	assert.True(t, sub.Rows[0].Present)
	assert.Equal(t, "R2", sub.Rows[1].RegdNo)
	assert.False(t, sub.Rows[1].Present)
	assert.Equal(t, "Suresh Rao", sub.Rows[1].GuardianName)

	assert.Equal(t, 1, res.PresentCount)
	assert.Equal(t, 1, res.AbsentCount)
}

func TestSubmitAttendance_Rejections(t *testing.T) {
	_, _, h := newFixtures()

	base := SubmitAttendanceCommand{
		SectionLabel: "II-CSE_A",
		Date:         "2024-01-01",
		Period:       "1",
		SubmittedBy:  "fac1",
		Students:     []MarkedStudent{{RegdNo: "R1", Present: true}},
	}

	bad := base
	bad.Date = "01-01-2024"
	_, err := h.Handle(context.Background(), bad)
	assert.ErrorIs(t, err, attendance.ErrInvalidSubmission)

	bad = base
	bad.Period = "7"
	_, err = h.Handle(context.Background(), bad)
	assert.ErrorIs(t, err, attendance.ErrInvalidSubmission)

	bad = base
	bad.Students = nil
	_, err = h.Handle(context.Background(), bad)
	assert.ErrorIs(t, err, attendance.ErrInvalidSubmission)

	bad = base
	bad.Students = []MarkedStudent{{RegdNo: "R1"}, {RegdNo: "R1"}}
	_, err = h.Handle(context.Background(), bad)
	assert.ErrorIs(t, err, attendance.ErrInvalidSubmission)

	bad = base
	bad.Students = []MarkedStudent{{RegdNo: "NOPE"}}
	_, err = h.Handle(context.Background(), bad)
	assert.ErrorIs(t, err, attendance.ErrInvalidSubmission)
}

func TestSubmitAttendance_DuplicateSessionAllowed(t *testing.T) {
	store, _, h := newFixtures()

	cmd := SubmitAttendanceCommand{
		SectionLabel: "II-CSE_A",
		Date:         "2024-01-01",
		Period:       "1",
		SubmittedBy:  "fac1",
		Students:     []MarkedStudent{{RegdNo: "R1", Present: true}},
	}
	first, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	second, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)

	// Resubmitting the same coordinates stores a second session.
	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Len(t, store.saved, 2)
}

func TestSubmitAttendance_StoreFailure(t *testing.T) {
	store, _, h := newFixtures()
	store.err = attendance.ErrStorageUnavailable

	_, err := h.Handle(context.Background(), SubmitAttendanceCommand{
		SectionLabel: "II-CSE_A",
		Date:         "2024-01-01",
		Period:       "1",
		SubmittedBy:  "fac1",
		Students:     []MarkedStudent{{RegdNo: "R1", Present: true}},
	})
	assert.ErrorIs(t, err, attendance.ErrStorageUnavailable)
}

func TestUploadRoster(t *testing.T) {
	_, rosters, _ := newFixtures()
	h := NewUploadRosterHandler(section.Default(), rosters, logger.Discard())

	res, err := h.Handle(context.Background(), UploadRosterCommand{
		SectionLabel: "II CSE A",
		CSVData:      []byte("Regd. No.,Name\nR1,Anil Kumar\n"),
		UploadedBy:   "hod",
	})
	require.NoError(t, err)
	assert.Equal(t, section.ID("II-CSE_A"), res.Section)
	assert.Equal(t, "II-CSE_A.csv", res.Filename)
	assert.Equal(t, 1, res.Students)
	assert.NotEmpty(t, rosters.saves["II-CSE_A"])

	_, err = h.Handle(context.Background(), UploadRosterCommand{
		SectionLabel: "II-CSE_A",
		UploadedBy:   "hod",
	})
	assert.Error(t, err)
}

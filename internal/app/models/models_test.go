package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAttendanceStatus(t *testing.T) {
	st, ok := ParseAttendanceStatus(" late ")
	assert.True(t, ok)
	assert.Equal(t, StatusLate, st)

	_, ok = ParseAttendanceStatus("NOT_MARKED")
	assert.False(t, ok)

	_, ok = ParseAttendanceStatus("sick")
	assert.False(t, ok)
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, BandGood, BandFor(100))
	assert.Equal(t, BandGood, BandFor(75))
	assert.Equal(t, BandFair, BandFor(74))
	assert.Equal(t, BandFair, BandFor(50))
	assert.Equal(t, BandPoor, BandFor(49))
	assert.Equal(t, BandPoor, BandFor(0))
}

func TestAttendanceStats_AddKeepsTotalsConsistent(t *testing.T) {
	var s AttendanceStats
	for _, st := range []AttendanceStatus{StatusPresent, StatusAbsent, StatusLate, StatusExcused, StatusPresent, StatusExcused} {
		s.Add(st)
	}

	assert.Equal(t, s.PresentCount+s.AbsentCount+s.LateCount, s.TotalClasses)
	assert.Equal(t, 4, s.TotalClasses)
	assert.Equal(t, 2, s.ExcusedCount)
	assert.Equal(t, 50, s.Percentage())
}

func TestAttendanceStats_Percentage(t *testing.T) {
	assert.Equal(t, 0, AttendanceStats{}.Percentage())
	assert.Equal(t, 67, AttendanceStats{TotalClasses: 3, PresentCount: 2}.Percentage())
	assert.Equal(t, 33, AttendanceStats{TotalClasses: 3, PresentCount: 1}.Percentage())
	// 1/8 = 12.5 rounds up
	assert.Equal(t, 13, AttendanceStats{TotalClasses: 8, PresentCount: 1}.Percentage())
}

func TestSortRoster(t *testing.T) {
	students := []*Student{
		{ID: "c", RollNo: "02"},
		{ID: "b", RollNo: "01"},
		{ID: "a", RollNo: "01"},
	}
	SortRoster(students)

	assert.Equal(t, []string{"a", "b", "c"}, []string{students[0].ID, students[1].ID, students[2].ID})
}

func TestClassOwnedBy(t *testing.T) {
	c := &Class{TeacherID: "t1"}
	assert.True(t, c.OwnedBy("t1"))
	assert.False(t, c.OwnedBy("t2"))
	assert.False(t, c.OwnedBy(""))

	var nilClass *Class
	assert.False(t, nilClass.OwnedBy("t1"))
}

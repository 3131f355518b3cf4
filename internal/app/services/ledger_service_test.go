package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swipeattend/backend/internal/app/models"
	"github.com/swipeattend/backend/internal/pkg/apperrors"
)

func TestMarkOne_SecondMarkUpdatesInPlace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, created, err := f.ledger.MarkOne(ctx, MarkInput{
		StudentID: "s1", ClassID: "c1", TeacherID: "t1", Status: "present", Date: day(9), Notes: strPtr("  on time "),
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.StatusPresent, first.Status)
	assert.Equal(t, "on time", *first.Notes)
	assert.Equal(t, models.MarkedBySwipe, first.MarkedBy)
	assert.Equal(t, fixedNow, first.MarkedAt)
	assert.Nil(t, first.EditedBy)

	second, created, err := f.ledger.MarkOne(ctx, MarkInput{
		StudentID: "s1", ClassID: "c1", TeacherID: "t1", Status: "ABSENT", Date: day(9).Add(20 * time.Hour),
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.StatusAbsent, second.Status)
	assert.Nil(t, second.Notes, "re-marking without notes clears them")
	require.NotNil(t, second.EditedBy)
	assert.Equal(t, "t1", *second.EditedBy)
	assert.Equal(t, 1, f.store.MarkCount())

	stats := f.student(t, "s1").AttendanceStats
	assert.Equal(t, models.AttendanceStats{TotalClasses: 1, AbsentCount: 1}, stats)
}

func TestMarkOne_NormalizesToCalendarDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	loc := time.FixedZone("UTC+5", 5*60*60)
	late := time.Date(2024, 3, 9, 23, 30, 0, 0, loc)

	m, _, err := f.ledger.MarkOne(ctx, MarkInput{StudentID: "s2", ClassID: "c1", TeacherID: "t1", Status: "LATE", Date: late})
	require.NoError(t, err)
	assert.Equal(t, day(9), m.Date)

	again, created, err := f.ledger.MarkOne(ctx, MarkInput{StudentID: "s2", ClassID: "c1", TeacherID: "t1", Status: "PRESENT", Date: day(9)})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m.ID, again.ID)
}

func TestMarkOne_FutureDateLeavesNoRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.ledger.MarkOne(ctx, MarkInput{
		StudentID: "s1", ClassID: "c1", TeacherID: "t1", Status: "PRESENT", Date: fixedNow.Add(24 * time.Hour),
	})
	assert.ErrorIs(t, err, apperrors.ErrFutureDate)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.Equal(t, 0, f.store.MarkCount())

	// later today is still today
	_, _, err = f.ledger.MarkOne(ctx, MarkInput{
		StudentID: "s1", ClassID: "c1", TeacherID: "t1", Status: "PRESENT", Date: fixedNow.Add(5 * time.Hour),
	})
	assert.NoError(t, err)
}

func TestMarkOne_PastInstantInEasternOffset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 14:30Z on the 10th, written as the 11th in +10:30
	date := time.Date(2024, 3, 11, 1, 0, 0, 0, time.FixedZone("ACDT", 10*3600+30*60))
	m, created, err := f.ledger.MarkOne(ctx, MarkInput{
		StudentID: "s1", ClassID: "c1", TeacherID: "t1", Status: "PRESENT", Date: date,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, day(11), m.Date)

	// same wall clock, but the instant is ahead of now
	ahead := time.Date(2024, 3, 11, 2, 0, 0, 0, time.FixedZone("UTC+1", 3600))
	_, _, err = f.ledger.MarkOne(ctx, MarkInput{
		StudentID: "s2", ClassID: "c1", TeacherID: "t1", Status: "PRESENT", Date: ahead,
	})
	assert.ErrorIs(t, err, apperrors.ErrFutureDate)
}

func TestMarkOne_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   MarkInput
		want error
	}{
		{"unknown status", MarkInput{StudentID: "s1", ClassID: "c1", TeacherID: "t1", Status: "NOT_MARKED", Date: day(8)}, apperrors.ErrInvalidStatus},
		{"notes too long", MarkInput{StudentID: "s1", ClassID: "c1", TeacherID: "t1", Status: "PRESENT", Date: day(8), Notes: strPtr(strings.Repeat("n", 501))}, apperrors.ErrNotesTooLong},
		{"zero date", MarkInput{StudentID: "s1", ClassID: "c1", TeacherID: "t1", Status: "PRESENT"}, apperrors.ErrInvalidDate},
		{"foreign class", MarkInput{StudentID: "s1", ClassID: "c1", TeacherID: "t2", Status: "PRESENT", Date: day(8)}, apperrors.ErrNotClassOwner},
		{"missing class", MarkInput{StudentID: "s1", ClassID: "nope", TeacherID: "t1", Status: "PRESENT", Date: day(8)}, apperrors.ErrNotClassOwner},
		{"unknown student", MarkInput{StudentID: "ghost", ClassID: "c1", TeacherID: "t1", Status: "PRESENT", Date: day(8)}, apperrors.ErrStudentNotFound},
		{"student of another class", MarkInput{StudentID: "s4", ClassID: "c1", TeacherID: "t1", Status: "PRESENT", Date: day(8)}, apperrors.ErrStudentNotEnrolled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.ledger.MarkOne(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 0, f.store.MarkCount())
}

func TestMarkOne_ForeignClassIsPermissionDenied(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.ledger.MarkOne(context.Background(), MarkInput{
		StudentID: "s4", ClassID: "c2", TeacherID: "t1", Status: "PRESENT", Date: day(8),
	})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestMarkOne_ConcurrentSameKeyKeepsOneRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = f.ledger.MarkOne(ctx, MarkInput{
				StudentID: "s1", ClassID: "c1", TeacherID: "t1", Status: "PRESENT", Date: day(7),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrDuplicateMark)
	}
	assert.GreaterOrEqual(t, succeeded, 1)
	assert.Equal(t, 1, f.store.MarkCount())
	assert.Equal(t, 1, f.student(t, "s1").AttendanceStats.TotalClasses)
}

func TestMarkBatch_IsolatesFailingEntries(t *testing.T) {
	f := newFixture(t)

	res, err := f.ledger.MarkBatch(context.Background(), "c1", "t1", day(9), []BatchEntry{
		{StudentID: "s1", Status: "PRESENT"},
		{StudentID: "ghost", Status: "ABSENT"},
		{StudentID: "s2", Status: "bogus"},
		{StudentID: "s3", Status: "late"},
		{StudentID: "", Status: "PRESENT"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.MarkedCount)
	require.Len(t, res.Failures, 3)
	assert.Equal(t, 1, res.Failures[0].Index)
	assert.ErrorIs(t, res.Failures[0].Err, apperrors.ErrStudentNotFound)
	assert.Equal(t, 2, res.Failures[1].Index)
	assert.ErrorIs(t, res.Failures[1].Err, apperrors.ErrInvalidStatus)
	assert.Equal(t, 4, res.Failures[2].Index)
	assert.ErrorIs(t, res.Failures[2].Err, apperrors.ErrValidationFailed)

	assert.Equal(t, 2, f.store.MarkCount())
	assert.NotNil(t, res.Marks[0])
	assert.Nil(t, res.Marks[1])

	class := f.class(t, "c1")
	assert.Equal(t, 1, class.TotalSessions)
	require.NotNil(t, class.LastAttendanceDate)
	assert.True(t, day(9).Equal(*class.LastAttendanceDate))

	assert.Equal(t, 1, f.student(t, "s3").AttendanceStats.LateCount)
}

func TestMarkBatch_RepeatedStudentAppliesInOrder(t *testing.T) {
	f := newFixture(t)

	res, err := f.ledger.MarkBatch(context.Background(), "c1", "t1", day(9), []BatchEntry{
		{StudentID: "s1", Status: "PRESENT"},
		{StudentID: "s2", Status: "PRESENT"},
		{StudentID: "s1", Status: "ABSENT", Notes: strPtr("left early")},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.MarkedCount)
	assert.Empty(t, res.Failures)
	assert.Equal(t, res.Marks[0].ID, res.Marks[2].ID)

	stored, err := f.repos.Attendance.GetByKey(context.Background(), models.MarkKey{StudentID: "s1", ClassID: "c1", Date: day(9)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAbsent, stored.Status)
	assert.Equal(t, "left early", *stored.Notes)
	assert.Equal(t, 2, f.store.MarkCount())
}

func TestMarkBatch_RejectsWholeBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	entries := []BatchEntry{{StudentID: "s1", Status: "PRESENT"}}

	_, err := f.ledger.MarkBatch(ctx, "c1", "t2", day(9), entries)
	assert.ErrorIs(t, err, apperrors.ErrNotClassOwner)

	_, err = f.ledger.MarkBatch(ctx, "c1", "t1", fixedNow.AddDate(0, 0, 2), entries)
	assert.ErrorIs(t, err, apperrors.ErrFutureDate)

	assert.Equal(t, 0, f.store.MarkCount())
}

func TestUpdateOne_EditsStatusAndNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.mark(t, "s1", "PRESENT", day(9))

	updated, err := f.ledger.UpdateOne(ctx, m.ID, "t1", "excused", strPtr("doctor's note"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusExcused, updated.Status)
	assert.Equal(t, "doctor's note", *updated.Notes)
	require.NotNil(t, updated.EditedAt)
	assert.Equal(t, fixedNow, *updated.EditedAt)
	assert.Equal(t, "t1", *updated.EditedBy)

	stats := f.student(t, "s1").AttendanceStats
	assert.Equal(t, 0, stats.TotalClasses)
	assert.Equal(t, 1, stats.ExcusedCount)
}

func TestUpdateOne_DeniedLeavesMarkUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.mark(t, "s1", "PRESENT", day(9))

	_, err := f.ledger.UpdateOne(ctx, m.ID, "t2", "ABSENT", nil)
	assert.ErrorIs(t, err, apperrors.ErrNotClassOwner)

	stored, err := f.repos.Attendance.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPresent, stored.Status)
	assert.Nil(t, stored.EditedBy)

	_, err = f.ledger.UpdateOne(ctx, "missing", "t1", "ABSENT", nil)
	assert.ErrorIs(t, err, apperrors.ErrMarkNotFound)

	_, err = f.ledger.UpdateOne(ctx, m.ID, "t1", "sometimes", nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
}

func TestStudentHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.ledger.StudentHistory(ctx, "t1", "s1", 0)
	assert.ErrorIs(t, err, apperrors.ErrNoMarksForUser)

	for d := 1; d <= 7; d++ {
		f.mark(t, "s1", "PRESENT", day(d))
	}

	student, marks, err := f.ledger.StudentHistory(ctx, "t1", "s1", 2)
	require.NoError(t, err)
	assert.Equal(t, "s1", student.ID)
	require.Len(t, marks, 2)
	assert.Equal(t, day(7), marks[0].Date)
	assert.Equal(t, day(6), marks[1].Date)

	_, marks, err = f.ledger.StudentHistory(ctx, "t1", "s1", 0)
	require.NoError(t, err)
	assert.Len(t, marks, 5, "capped by the configured history limit")

	_, _, err = f.ledger.StudentHistory(ctx, "t2", "s1", 10)
	assert.ErrorIs(t, err, apperrors.ErrNoMarksForUser)

	_, _, err = f.ledger.StudentHistory(ctx, "t1", "ghost", 10)
	assert.ErrorIs(t, err, apperrors.ErrNoMarksForUser)
}

func TestClassReport_ForeignClassIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.ledger.ClassReport(context.Background(), "t2", "c1", day(9))
	assert.ErrorIs(t, err, apperrors.ErrClassNotFound)
	assert.False(t, errors.Is(err, apperrors.ErrPermissionDenied))
}

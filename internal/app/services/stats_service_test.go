package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swipeattend/backend/internal/app/models"
	"github.com/swipeattend/backend/internal/app/repositories"
	"github.com/swipeattend/backend/internal/app/repositories/memstore"
)

func TestStats_ExcusedDoesNotCountTowardTotal(t *testing.T) {
	f := newFixture(t)

	f.mark(t, "s1", "PRESENT", day(1))
	f.mark(t, "s1", "ABSENT", day(2))
	f.mark(t, "s1", "LATE", day(3))
	f.mark(t, "s1", "EXCUSED", day(4))

	stats := f.student(t, "s1").AttendanceStats
	assert.Equal(t, models.AttendanceStats{
		TotalClasses: 3, PresentCount: 1, AbsentCount: 1, LateCount: 1, ExcusedCount: 1,
	}, stats)
	assert.Equal(t, stats.PresentCount+stats.AbsentCount+stats.LateCount, stats.TotalClasses)
	assert.Equal(t, 33, stats.Percentage())

	class := f.class(t, "c1")
	assert.Equal(t, 4, class.TotalSessions)
	assert.True(t, day(4).Equal(*class.LastAttendanceDate))
}

func TestClassReport_RosterOrderAndUnmarked(t *testing.T) {
	f := newFixture(t)
	marked := f.mark(t, "s1", "PRESENT", day(9))
	f.mark(t, "s3", "ABSENT", day(8))

	class, entries, err := f.ledger.ClassReport(context.Background(), "t1", "c1", day(9).Add(13*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "c1", class.ID)
	require.Len(t, entries, 3)

	assert.Equal(t, "s2", entries[0].Student.ID)
	assert.Equal(t, models.StatusNotMarked, entries[0].Status)
	assert.Nil(t, entries[0].Mark)

	assert.Equal(t, "s1", entries[1].Student.ID)
	assert.Equal(t, models.StatusPresent, entries[1].Status)
	require.NotNil(t, entries[1].Mark)
	assert.Equal(t, marked.ID, entries[1].Mark.ID)

	assert.Equal(t, "s3", entries[2].Student.ID)
	assert.Equal(t, models.StatusNotMarked, entries[2].Status, "a mark on another day does not show up")
}

func TestClassAnalytics_SortedByPercentageStable(t *testing.T) {
	f := newFixture(t)

	f.mark(t, "s1", "ABSENT", day(1))
	f.mark(t, "s2", "PRESENT", day(1))
	f.mark(t, "s3", "PRESENT", day(1))
	f.mark(t, "s3", "ABSENT", day(2))

	_, rows, err := f.ledger.ClassAnalytics(context.Background(), "t1", "c1")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "s2", rows[0].Student.ID)
	assert.Equal(t, 100, rows[0].Percentage)
	assert.Equal(t, models.BandGood, rows[0].Band)

	assert.Equal(t, "s3", rows[1].Student.ID)
	assert.Equal(t, 50, rows[1].Percentage)
	assert.Equal(t, models.BandFair, rows[1].Band)

	assert.Equal(t, "s1", rows[2].Student.ID)
	assert.Equal(t, 0, rows[2].Percentage)
	assert.Equal(t, models.BandPoor, rows[2].Band)
}

func TestClassAnalytics_TiesKeepRosterOrder(t *testing.T) {
	f := newFixture(t)

	_, rows, err := f.ledger.ClassAnalytics(context.Background(), "t1", "c1")
	require.NoError(t, err)
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.Student.ID)
		assert.Equal(t, 0, r.Stats.TotalClasses)
	}
	assert.Equal(t, []string{"s2", "s1", "s3"}, ids)
}

func TestReconcileAll_RepairsDriftedCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mark(t, "s1", "PRESENT", day(1))
	f.mark(t, "s1", "LATE", day(2))

	require.NoError(t, f.repos.Students.UpdateStats(ctx, "s1", models.AttendanceStats{TotalClasses: 40, PresentCount: 40}))
	require.NoError(t, f.repos.Classes.UpdateSessions(ctx, "c1", 99, nil))

	res, err := f.stats.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{Students: 4, Classes: 2}, res)

	assert.Equal(t, models.AttendanceStats{TotalClasses: 2, PresentCount: 1, LateCount: 1}, f.student(t, "s1").AttendanceStats)
	class := f.class(t, "c1")
	assert.Equal(t, 2, class.TotalSessions)
	assert.True(t, day(2).Equal(*class.LastAttendanceDate))
}

// flakyStudents fails every stats write
type flakyStudents struct {
	repositories.StudentRepository
}

func (flakyStudents) UpdateStats(context.Context, string, models.AttendanceStats) error {
	return errors.New("write timed out")
}

func TestMarkOne_StatsFailureDoesNotFailTheMark(t *testing.T) {
	base, store := memstore.NewRepositories()
	repos := *base
	repos.Students = flakyStudents{StudentRepository: base.Students}
	f := newFixtureWith(t, &repos, store)

	m, created, err := f.ledger.MarkOne(context.Background(), MarkInput{
		StudentID: "s1", ClassID: "c1", TeacherID: "t1", Status: "PRESENT", Date: day(9),
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, 1, store.MarkCount())

	expected := `
# HELP attendance_stats_recompute_failures_total Best-effort statistics recomputations that failed after a mark was stored.
# TYPE attendance_stats_recompute_failures_total counter
attendance_stats_recompute_failures_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected),
		"attendance_stats_recompute_failures_total"))

	// the class summary still refreshed
	assert.Equal(t, 1, f.class(t, "c1").TotalSessions)
}

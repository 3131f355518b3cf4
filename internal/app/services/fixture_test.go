package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/swipeattend/backend/internal/app/auth"
	"github.com/swipeattend/backend/internal/app/models"
	"github.com/swipeattend/backend/internal/app/repositories"
	"github.com/swipeattend/backend/internal/app/repositories/memstore"
	"github.com/swipeattend/backend/internal/pkg/metrics"
)

// fixedNow is mid-afternoon UTC on 2024-03-10
var fixedNow = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	repos   *repositories.Repositories
	store   *memstore.Store
	metrics *metrics.Metrics
	guard   *auth.AccessGuard
	stats   *StatsAggregator
	ledger  *Ledger
}

func sequentialIDs(prefix string) IDGenerator {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}

// newFixture builds a ledger over an in-memory store holding:
//
//	teacher t1 owning class c1 with students s1 (roll 002), s2 (001), s3 (003)
//	teacher t2 owning class c2 with student s4
func newFixture(t *testing.T) *fixture {
	t.Helper()

	repos, store := memstore.NewRepositories()
	return newFixtureWith(t, repos, store)
}

func newFixtureWith(t *testing.T, repos *repositories.Repositories, store *memstore.Store) *fixture {
	t.Helper()
	ctx := context.Background()

	for _, id := range []string{"t1", "t2"} {
		require.NoError(t, store.Repositories().Teachers.Create(ctx, &models.Teacher{
			ID: id, Name: "Teacher " + id, Email: id + "@school.test", IsActive: true, CreatedAt: fixedNow,
		}))
	}
	for _, c := range []struct{ id, teacher string }{{"c1", "t1"}, {"c2", "t2"}} {
		require.NoError(t, store.Repositories().Classes.Create(ctx, &models.Class{
			ID: c.id, Name: "Class " + c.id, Subject: "Math", Section: "A", TeacherID: c.teacher, IsActive: true, CreatedAt: fixedNow,
		}))
	}
	for _, s := range []struct{ id, roll, class string }{
		{"s1", "002", "c1"}, {"s2", "001", "c1"}, {"s3", "003", "c1"}, {"s4", "001", "c2"},
	} {
		require.NoError(t, store.Repositories().Students.Create(ctx, &models.Student{
			ID: s.id, Name: "Student " + s.id, RollNo: s.roll, ClassID: s.class, IsActive: true, CreatedAt: fixedNow,
		}))
	}

	m := metrics.New()
	guard := auth.NewAccessGuard(repos.Classes)
	stats := NewStatsAggregator(repos, m, zerolog.Nop())
	ledger := NewLedger(repos, guard, stats, m, LedgerConfig{BatchConcurrency: 4, HistoryLimit: 5}, zerolog.Nop(),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(sequentialIDs("mark")),
	)

	return &fixture{
		repos:   repos,
		store:   store,
		metrics: m,
		guard:   guard,
		stats:   stats,
		ledger:  ledger,
	}
}

func (f *fixture) student(t *testing.T, id string) *models.Student {
	t.Helper()
	s, err := f.repos.Students.GetByID(context.Background(), id)
	require.NoError(t, err)
	return s
}

func (f *fixture) class(t *testing.T, id string) *models.Class {
	t.Helper()
	c, err := f.repos.Classes.GetByID(context.Background(), id)
	require.NoError(t, err)
	return c
}

func (f *fixture) mark(t *testing.T, studentID, status string, d time.Time) *models.AttendanceMark {
	t.Helper()
	m, _, err := f.ledger.MarkOne(context.Background(), MarkInput{
		StudentID: studentID, ClassID: "c1", TeacherID: "t1", Status: status, Date: d,
	})
	require.NoError(t, err)
	return m
}

func strPtr(s string) *string { return &s }

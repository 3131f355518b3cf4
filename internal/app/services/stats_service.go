package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/swipeattend/backend/internal/app/models"
	"github.com/swipeattend/backend/internal/app/repositories"
	"github.com/swipeattend/backend/internal/pkg/metrics"
)

// StudentAnalytics is one row of the class analytics table
type StudentAnalytics struct {
	Student    *models.Student
	Stats      models.AttendanceStats
	Percentage int
	Band       models.Band
}

// ReportEntry is one roster line of a class report for a single day
type ReportEntry struct {
	Student *models.Student
	Status  models.AttendanceStatus
	// Mark is nil when the student has not been marked that day
	Mark *models.AttendanceMark
}

// ReconcileResult summarizes a full recomputation pass
type ReconcileResult struct {
	Students int
	Classes  int
	Failed   int
}

// StatsAggregator derives per-student tallies and per-class session counters
// from the stored marks
type StatsAggregator struct {
	classRepo      repositories.ClassRepository
	studentRepo    repositories.StudentRepository
	attendanceRepo repositories.AttendanceRepository
	metrics        *metrics.Metrics
	logger         zerolog.Logger
}

// NewStatsAggregator creates a new StatsAggregator
func NewStatsAggregator(repos *repositories.Repositories, m *metrics.Metrics, logger zerolog.Logger) *StatsAggregator {
	return &StatsAggregator{
		classRepo:      repos.Classes,
		studentRepo:    repos.Students,
		attendanceRepo: repos.Attendance,
		metrics:        m,
		logger:         logger,
	}
}

// tally counts the statuses of marks
func tally(marks []*models.AttendanceMark) models.AttendanceStats {
	var stats models.AttendanceStats
	for _, m := range marks {
		stats.Add(m.Status)
	}
	return stats
}

// RecomputeStudentStats recounts every mark of the student, scoped to classID
// when it is non-empty, and stores the result on the student.
func (a *StatsAggregator) RecomputeStudentStats(ctx context.Context, studentID, classID string) (models.AttendanceStats, error) {
	marks, err := a.attendanceRepo.ListByStudent(ctx, studentID, classID)
	if err != nil {
		return models.AttendanceStats{}, err
	}

	stats := tally(marks)
	if err := a.studentRepo.UpdateStats(ctx, studentID, stats); err != nil {
		return models.AttendanceStats{}, err
	}
	return stats, nil
}

// RecomputeClassSessions stores the number of distinct marked days of the
// class and the latest of them.
func (a *StatsAggregator) RecomputeClassSessions(ctx context.Context, classID string) error {
	total, last, err := a.attendanceRepo.SessionSummary(ctx, classID)
	if err != nil {
		return err
	}
	return a.classRepo.UpdateSessions(ctx, classID, total, last)
}

// refreshStudent recomputes after a stored mark. Failures are logged and
// counted, never returned: the mark is already durable.
func (a *StatsAggregator) refreshStudent(ctx context.Context, studentID, classID string) {
	if _, err := a.RecomputeStudentStats(ctx, studentID, classID); err != nil {
		a.metrics.StatsRecomputeFailed()
		a.logger.Warn().Err(err).
			Str("studentID", studentID).
			Str("classID", classID).
			Msg("Student stats recomputation failed, reconcile will repair it")
	}
}

func (a *StatsAggregator) refreshClass(ctx context.Context, classID string) {
	if err := a.RecomputeClassSessions(ctx, classID); err != nil {
		a.metrics.StatsRecomputeFailed()
		a.logger.Warn().Err(err).
			Str("classID", classID).
			Msg("Class session recomputation failed, reconcile will repair it")
	}
}

// ClassAnalytics computes attendance figures for every roster student of the
// class, sorted by percentage descending. Ties keep roster order.
func (a *StatsAggregator) ClassAnalytics(ctx context.Context, classID string) ([]StudentAnalytics, error) {
	roster, err := a.studentRepo.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	out := make([]StudentAnalytics, 0, len(roster))
	for _, s := range roster {
		marks, err := a.attendanceRepo.ListByStudent(ctx, s.ID, classID)
		if err != nil {
			return nil, err
		}
		stats := tally(marks)
		pct := stats.Percentage()
		out = append(out, StudentAnalytics{
			Student:    s,
			Stats:      stats,
			Percentage: pct,
			Band:       models.BandFor(pct),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Percentage > out[j].Percentage
	})
	return out, nil
}

// ClassReport returns one entry per roster student for the given day, in
// roster order. Students without a mark are reported as NOT_MARKED.
func (a *StatsAggregator) ClassReport(ctx context.Context, classID string, day time.Time) ([]ReportEntry, error) {
	roster, err := a.studentRepo.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	marks, err := a.attendanceRepo.ListByClassDate(ctx, classID, day)
	if err != nil {
		return nil, err
	}
	byStudent := make(map[string]*models.AttendanceMark, len(marks))
	for _, m := range marks {
		byStudent[m.StudentID] = m
	}

	entries := make([]ReportEntry, 0, len(roster))
	for _, s := range roster {
		entry := ReportEntry{Student: s, Status: models.StatusNotMarked}
		if m, ok := byStudent[s.ID]; ok {
			entry.Status = m.Status
			entry.Mark = m
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ReconcileAll recomputes stats for every student and sessions for every
// class. It keeps going past individual failures and reports how many failed.
func (a *StatsAggregator) ReconcileAll(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult

	students, err := a.studentRepo.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list students: %w", err)
	}
	for _, s := range students {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if _, err := a.RecomputeStudentStats(ctx, s.ID, s.ClassID); err != nil {
			res.Failed++
			a.logger.Warn().Err(err).Str("studentID", s.ID).Msg("Reconcile failed for student")
			continue
		}
		res.Students++
	}

	classes, err := a.classRepo.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list classes: %w", err)
	}
	for _, c := range classes {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := a.RecomputeClassSessions(ctx, c.ID); err != nil {
			res.Failed++
			a.logger.Warn().Err(err).Str("classID", c.ID).Msg("Reconcile failed for class")
			continue
		}
		res.Classes++
	}

	a.logger.Info().
		Int("students", res.Students).
		Int("classes", res.Classes).
		Int("failed", res.Failed).
		Msg("Statistics reconciled")
	return res, nil
}

package services

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/swipeattend/backend/internal/app/auth"
	"github.com/swipeattend/backend/internal/app/models"
	"github.com/swipeattend/backend/internal/app/repositories"
	"github.com/swipeattend/backend/internal/pkg/apperrors"
	"github.com/swipeattend/backend/internal/pkg/helpers"
	"github.com/swipeattend/backend/internal/pkg/metrics"
	"github.com/swipeattend/backend/internal/pkg/validation"
)

// MarkInput is one attendance mark request
type MarkInput struct {
	StudentID string
	ClassID   string
	TeacherID string
	Status    string
	Date      time.Time
	Notes     *string
}

// BatchEntry is one line of a batch mark request
type BatchEntry struct {
	StudentID string
	Status    string
	Notes     *string
}

// BatchFailure describes an entry that could not be marked
type BatchFailure struct {
	Index     int
	StudentID string
	Err       error
}

// BatchResult reports per-entry outcomes in input order
type BatchResult struct {
	MarkedCount int
	// Marks has one slot per entry, nil where the entry failed
	Marks    []*models.AttendanceMark
	Failures []BatchFailure
}

// Ledger owns the one-mark-per-student-class-day invariant
type Ledger struct {
	studentRepo    repositories.StudentRepository
	attendanceRepo repositories.AttendanceRepository
	guard          *auth.AccessGuard
	stats          *StatsAggregator
	metrics        *metrics.Metrics
	concurrency    int
	historyLimit   int
	now            Clock
	newID          IDGenerator
	logger         zerolog.Logger
}

// LedgerConfig carries the tunables of the ledger
type LedgerConfig struct {
	BatchConcurrency int
	HistoryLimit     int
}

// NewLedger creates a new Ledger
func NewLedger(
	repos *repositories.Repositories,
	guard *auth.AccessGuard,
	stats *StatsAggregator,
	m *metrics.Metrics,
	cfg LedgerConfig,
	logger zerolog.Logger,
	opts ...Option,
) *Ledger {
	o := buildOptions(opts)
	if cfg.BatchConcurrency < 1 {
		cfg.BatchConcurrency = 1
	}
	if cfg.HistoryLimit < 1 {
		cfg.HistoryLimit = 50
	}
	return &Ledger{
		studentRepo:    repos.Students,
		attendanceRepo: repos.Attendance,
		guard:          guard,
		stats:          stats,
		metrics:        m,
		concurrency:    cfg.BatchConcurrency,
		historyLimit:   cfg.HistoryLimit,
		now:            o.now,
		newID:          o.newID,
		logger:         logger,
	}
}

// parseStatus validates a status string
func parseStatus(s string) (models.AttendanceStatus, error) {
	status, ok := models.ParseAttendanceStatus(s)
	if !ok {
		return "", apperrors.ErrInvalidStatus
	}
	return status, nil
}

// normalizeNotes trims notes and enforces the length limit
func normalizeNotes(notes *string) (*string, error) {
	n := helpers.OptionalString(notes)
	if n != nil && utf8.RuneCountInString(*n) > validation.NotesMaxLength {
		return nil, apperrors.ErrNotesTooLong
	}
	return n, nil
}

// checkDay reduces date to its calendar day and rejects future dates. A date is
// in the future only when both its calendar day and its instant are after now,
// so a past timestamp written in an eastern offset is still accepted.
func (l *Ledger) checkDay(date time.Time) (time.Time, error) {
	if date.IsZero() {
		return time.Time{}, apperrors.ErrInvalidDate
	}
	now := l.now()
	day := helpers.CalendarDay(date)
	if helpers.IsAfterDay(day, now) && date.After(now) {
		return time.Time{}, apperrors.ErrFutureDate
	}
	return day, nil
}

// MarkOne records the attendance of one student for one day. A second call
// for the same student, class and day updates the existing mark in place.
// The returned bool reports whether a new mark was created.
func (l *Ledger) MarkOne(ctx context.Context, in MarkInput) (*models.AttendanceMark, bool, error) {
	status, err := parseStatus(in.Status)
	if err != nil {
		return nil, false, err
	}
	notes, err := normalizeNotes(in.Notes)
	if err != nil {
		return nil, false, err
	}
	day, err := l.checkDay(in.Date)
	if err != nil {
		return nil, false, err
	}

	if _, err := l.guard.Authorize(ctx, in.TeacherID, in.ClassID); err != nil {
		return nil, false, err
	}

	mark, created, err := l.upsert(ctx, in.StudentID, in.ClassID, in.TeacherID, status, day, notes)
	if err != nil {
		return nil, false, err
	}

	l.stats.refreshStudent(ctx, in.StudentID, in.ClassID)
	l.stats.refreshClass(ctx, in.ClassID)
	return mark, created, nil
}

// upsert creates or updates the mark of an authorized, validated request
func (l *Ledger) upsert(
	ctx context.Context,
	studentID, classID, teacherID string,
	status models.AttendanceStatus,
	day time.Time,
	notes *string,
) (*models.AttendanceMark, bool, error) {
	student, err := l.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		l.metrics.MarkRecorded(metrics.ResultFailed)
		return nil, false, err
	}
	if student.ClassID != classID {
		l.metrics.MarkRecorded(metrics.ResultFailed)
		return nil, false, apperrors.ErrStudentNotEnrolled
	}

	key := models.MarkKey{StudentID: studentID, ClassID: classID, Date: day}
	existing, err := l.attendanceRepo.GetByKey(ctx, key)
	switch {
	case err == nil:
		now := l.now()
		existing.Status = status
		existing.Notes = notes
		existing.EditedAt = &now
		existing.EditedBy = &teacherID
		if err := l.attendanceRepo.Update(ctx, existing); err != nil {
			l.metrics.MarkRecorded(metrics.ResultFailed)
			return nil, false, err
		}
		l.metrics.MarkRecorded(metrics.ResultUpdated)
		return existing, false, nil

	case errors.Is(err, apperrors.ErrResourceNotFound):
		mark := &models.AttendanceMark{
			ID:        l.newID(),
			StudentID: studentID,
			ClassID:   classID,
			TeacherID: teacherID,
			Date:      day,
			Status:    status,
			Notes:     notes,
			MarkedBy:  models.MarkedBySwipe,
			MarkedAt:  l.now(),
		}
		if err := l.attendanceRepo.Create(ctx, mark); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				l.metrics.MarkRecorded(metrics.ResultConflict)
				l.logger.Info().
					Str("studentID", studentID).
					Str("classID", classID).
					Str("date", helpers.FormatDay(day)).
					Msg("Concurrent mark lost the uniqueness race")
			} else {
				l.metrics.MarkRecorded(metrics.ResultFailed)
			}
			return nil, false, err
		}
		l.metrics.MarkRecorded(metrics.ResultCreated)
		return mark, true, nil

	default:
		l.metrics.MarkRecorded(metrics.ResultFailed)
		return nil, false, err
	}
}

// MarkBatch marks several students of one class for the same day. A failing
// entry is reported and skipped. Entries for different students run
// concurrently; repeated entries for one student apply in input order.
func (l *Ledger) MarkBatch(ctx context.Context, classID, teacherID string, date time.Time, entries []BatchEntry) (*BatchResult, error) {
	day, err := l.checkDay(date)
	if err != nil {
		return nil, err
	}
	if _, err := l.guard.Authorize(ctx, teacherID, classID); err != nil {
		return nil, err
	}

	marks := make([]*models.AttendanceMark, len(entries))
	errs := make([]error, len(entries))

	// group by student so one key is never written by two goroutines
	order := make([]string, 0, len(entries))
	byStudent := make(map[string][]int, len(entries))
	for i, e := range entries {
		if _, seen := byStudent[e.StudentID]; !seen {
			order = append(order, e.StudentID)
		}
		byStudent[e.StudentID] = append(byStudent[e.StudentID], i)
	}

	var g errgroup.Group
	g.SetLimit(l.concurrency)
	for _, studentID := range order {
		studentID := studentID
		indices := byStudent[studentID]
		g.Go(func() error {
			marked := false
			for _, i := range indices {
				marks[i], errs[i] = l.markEntry(ctx, classID, teacherID, day, entries[i])
				marked = marked || errs[i] == nil
			}
			if marked {
				l.stats.refreshStudent(ctx, studentID, classID)
			}
			return nil
		})
	}
	_ = g.Wait()

	res := &BatchResult{Marks: marks}
	for i, err := range errs {
		if err != nil {
			res.Failures = append(res.Failures, BatchFailure{Index: i, StudentID: entries[i].StudentID, Err: err})
			continue
		}
		res.MarkedCount++
	}

	if res.MarkedCount > 0 {
		l.stats.refreshClass(ctx, classID)
	}

	l.logger.Info().
		Str("classID", classID).
		Str("date", helpers.FormatDay(day)).
		Int("entries", len(entries)).
		Int("marked", res.MarkedCount).
		Int("failed", len(res.Failures)).
		Msg("Batch attendance processed")
	return res, nil
}

func (l *Ledger) markEntry(ctx context.Context, classID, teacherID string, day time.Time, e BatchEntry) (*models.AttendanceMark, error) {
	if e.StudentID == "" {
		return nil, apperrors.NewValidationError("studentId", "studentId is required")
	}
	status, err := parseStatus(e.Status)
	if err != nil {
		return nil, err
	}
	notes, err := normalizeNotes(e.Notes)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mark, _, err := l.upsert(ctx, e.StudentID, classID, teacherID, status, day, notes)
	return mark, err
}

// UpdateOne edits the status and notes of an existing mark. Only the owner
// of the mark's class may edit it.
func (l *Ledger) UpdateOne(ctx context.Context, markID, teacherID, status string, notes *string) (*models.AttendanceMark, error) {
	st, err := parseStatus(status)
	if err != nil {
		return nil, err
	}
	n, err := normalizeNotes(notes)
	if err != nil {
		return nil, err
	}

	mark, err := l.attendanceRepo.GetByID(ctx, markID)
	if err != nil {
		return nil, err
	}
	if _, err := l.guard.Authorize(ctx, teacherID, mark.ClassID); err != nil {
		return nil, err
	}

	now := l.now()
	mark.Status = st
	mark.Notes = n
	mark.EditedAt = &now
	mark.EditedBy = &teacherID
	if err := l.attendanceRepo.Update(ctx, mark); err != nil {
		return nil, err
	}
	l.metrics.MarkRecorded(metrics.ResultUpdated)

	l.stats.refreshStudent(ctx, mark.StudentID, mark.ClassID)
	return mark, nil
}

// ClassReport returns the roster report of a class the teacher owns
func (l *Ledger) ClassReport(ctx context.Context, teacherID, classID string, day time.Time) (*models.Class, []ReportEntry, error) {
	class, err := l.guard.Visible(ctx, teacherID, classID)
	if err != nil {
		return nil, nil, err
	}
	entries, err := l.stats.ClassReport(ctx, class.ID, helpers.CalendarDay(day))
	if err != nil {
		return nil, nil, err
	}
	return class, entries, nil
}

// ClassAnalytics returns the analytics of a class the teacher owns
func (l *Ledger) ClassAnalytics(ctx context.Context, teacherID, classID string) (*models.Class, []StudentAnalytics, error) {
	class, err := l.guard.Visible(ctx, teacherID, classID)
	if err != nil {
		return nil, nil, err
	}
	rows, err := l.stats.ClassAnalytics(ctx, class.ID)
	if err != nil {
		return nil, nil, err
	}
	return class, rows, nil
}

// StudentHistory returns the newest marks of a student enrolled in a class
// the teacher owns. A student outside the teacher's classes and a student
// without marks are both reported as not found.
func (l *Ledger) StudentHistory(ctx context.Context, teacherID, studentID string, limit int) (*models.Student, []*models.AttendanceMark, error) {
	student, err := l.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, nil, apperrors.ErrNoMarksForUser
		}
		return nil, nil, err
	}
	if _, err := l.guard.Visible(ctx, teacherID, student.ClassID); err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, nil, apperrors.ErrNoMarksForUser
		}
		return nil, nil, err
	}

	limit = helpers.ClampLimit(limit, l.historyLimit)
	marks, err := l.attendanceRepo.RecentByStudent(ctx, studentID, limit)
	if err != nil {
		return nil, nil, err
	}
	if len(marks) == 0 {
		return nil, nil, apperrors.ErrNoMarksForUser
	}
	return student, marks, nil
}

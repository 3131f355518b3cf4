// Package storetest is the behavioural contract every record store backend
// must satisfy. Backends run it from their own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swipeattend/backend/internal/app/models"
	"github.com/swipeattend/backend/internal/app/repositories"
	"github.com/swipeattend/backend/internal/pkg/apperrors"
)

// Run executes the contract against the repositories returned by open.
// Every case uses fresh random ids, so open may hand back a shared database.
func Run(t *testing.T, open func(t *testing.T) *repositories.Repositories) {
	t.Run("Teachers", func(t *testing.T) { testTeachers(t, open(t)) })
	t.Run("Classes", func(t *testing.T) { testClasses(t, open(t)) })
	t.Run("Students", func(t *testing.T) { testStudents(t, open(t)) })
	t.Run("Attendance", func(t *testing.T) { testAttendance(t, open(t)) })
	t.Run("AttendanceUniqueUnderRace", func(t *testing.T) { testAttendanceRace(t, open(t)) })
	t.Run("Tokens", func(t *testing.T) { testTokens(t, open(t)) })
	t.Run("RemapTeacher", func(t *testing.T) { testRemap(t, open(t)) })
	t.Run("Ping", func(t *testing.T) {
		require.NoError(t, open(t).Ping(context.Background()))
	})
}

func id() string { return uuid.NewString() }

// base is truncated to the second so every backend round-trips it exactly
var base = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func day(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

func newTeacher(t *testing.T, repos *repositories.Repositories) *models.Teacher {
	t.Helper()
	tc := &models.Teacher{
		ID:           id(),
		Name:         "Contract Teacher",
		Email:        id() + "@school.test",
		PasswordHash: "hash",
		IsActive:     true,
		CreatedAt:    base,
		UpdatedAt:    base,
	}
	require.NoError(t, repos.Teachers.Create(context.Background(), tc))
	return tc
}

func newClass(t *testing.T, repos *repositories.Repositories, teacherID string) *models.Class {
	t.Helper()
	code := "C" + id()[:8]
	c := &models.Class{
		ID:        id(),
		Name:      "Contract Class",
		Subject:   "Testing",
		Code:      &code,
		Section:   models.DefaultSection,
		TeacherID: teacherID,
		IsActive:  true,
		CreatedAt: base,
		UpdatedAt: base,
	}
	require.NoError(t, repos.Classes.Create(context.Background(), c))
	return c
}

func newStudent(t *testing.T, repos *repositories.Repositories, classID, rollNo string) *models.Student {
	t.Helper()
	s := &models.Student{
		ID:        id(),
		Name:      "Student " + rollNo,
		RollNo:    rollNo,
		ClassID:   classID,
		IsActive:  true,
		CreatedAt: base,
		UpdatedAt: base,
	}
	require.NoError(t, repos.Students.Create(context.Background(), s))
	return s
}

func newMark(studentID, classID, teacherID string, date time.Time, status models.AttendanceStatus) *models.AttendanceMark {
	return &models.AttendanceMark{
		ID:        id(),
		StudentID: studentID,
		ClassID:   classID,
		TeacherID: teacherID,
		Date:      date,
		Status:    status,
		MarkedBy:  models.MarkedBySwipe,
		MarkedAt:  base,
	}
}

func testTeachers(t *testing.T, repos *repositories.Repositories) {
	ctx := context.Background()
	tc := newTeacher(t, repos)

	got, err := repos.Teachers.GetByID(ctx, tc.ID)
	require.NoError(t, err)
	assert.Equal(t, tc.Email, got.Email)

	got, err = repos.Teachers.GetByEmail(ctx, tc.Email)
	require.NoError(t, err)
	assert.Equal(t, tc.ID, got.ID)

	dup := *tc
	dup.ID = id()
	assert.ErrorIs(t, repos.Teachers.Create(ctx, &dup), apperrors.ErrEmailAlreadyExists)

	require.NoError(t, repos.Teachers.UpdateLastLogin(ctx, tc.ID, base.Add(time.Hour)))
	got, err = repos.Teachers.GetByID(ctx, tc.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, got.LastLoginAt.Equal(base.Add(time.Hour)))

	_, err = repos.Teachers.GetByID(ctx, id())
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	_, err = repos.Teachers.GetByEmail(ctx, "missing-"+id()+"@school.test")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func testClasses(t *testing.T, repos *repositories.Repositories) {
	ctx := context.Background()
	tc := newTeacher(t, repos)
	c1 := newClass(t, repos, tc.ID)
	c2 := newClass(t, repos, tc.ID)

	owned, err := repos.Classes.ListByTeacher(ctx, tc.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	dup := *c2
	dup.ID = id()
	assert.ErrorIs(t, repos.Classes.Create(ctx, &dup), apperrors.ErrClassCodeExists)

	last := day(8)
	require.NoError(t, repos.Classes.UpdateSessions(ctx, c1.ID, 4, &last))
	got, err := repos.Classes.GetByID(ctx, c1.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.TotalSessions)
	require.NotNil(t, got.LastAttendanceDate)
	assert.True(t, got.LastAttendanceDate.Equal(last))

	require.NoError(t, repos.Classes.Delete(ctx, c2.ID))
	_, err = repos.Classes.GetByID(ctx, c2.ID)
	assert.ErrorIs(t, err, apperrors.ErrClassNotFound)
	assert.ErrorIs(t, repos.Classes.Delete(ctx, c2.ID), apperrors.ErrResourceNotFound)
}

func testStudents(t *testing.T, repos *repositories.Repositories) {
	ctx := context.Background()
	tc := newTeacher(t, repos)
	c := newClass(t, repos, tc.ID)
	s3 := newStudent(t, repos, c.ID, "003")
	s1 := newStudent(t, repos, c.ID, "001")
	s2 := newStudent(t, repos, c.ID, "002")

	roster, err := repos.Students.ListByClass(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, roster, 3)
	assert.Equal(t, []string{s1.ID, s2.ID, s3.ID}, []string{roster[0].ID, roster[1].ID, roster[2].ID})

	n, err := repos.Students.CountByClass(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	dup := &models.Student{ID: id(), Name: "Twin", RollNo: "001", ClassID: c.ID, CreatedAt: base, UpdatedAt: base}
	assert.ErrorIs(t, repos.Students.Create(ctx, dup), apperrors.ErrRollNumberExists)

	stats := models.AttendanceStats{TotalClasses: 3, PresentCount: 2, LateCount: 1, ExcusedCount: 1}
	require.NoError(t, repos.Students.UpdateStats(ctx, s1.ID, stats))
	got, err := repos.Students.GetByID(ctx, s1.ID)
	require.NoError(t, err)
	assert.Equal(t, stats, got.AttendanceStats)

	require.NoError(t, repos.Students.Delete(ctx, s3.ID))
	_, err = repos.Students.GetByID(ctx, s3.ID)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
}

func testAttendance(t *testing.T, repos *repositories.Repositories) {
	ctx := context.Background()
	tc := newTeacher(t, repos)
	c := newClass(t, repos, tc.ID)
	s := newStudent(t, repos, c.ID, "001")

	m1 := newMark(s.ID, c.ID, tc.ID, day(1), models.StatusPresent)
	m2 := newMark(s.ID, c.ID, tc.ID, day(3), models.StatusAbsent)
	m3 := newMark(s.ID, c.ID, tc.ID, day(2), models.StatusLate)
	for _, m := range []*models.AttendanceMark{m1, m2, m3} {
		require.NoError(t, repos.Attendance.Create(ctx, m))
	}

	again := newMark(s.ID, c.ID, tc.ID, day(1), models.StatusAbsent)
	assert.ErrorIs(t, repos.Attendance.Create(ctx, again), apperrors.ErrDuplicateMark)

	got, err := repos.Attendance.GetByKey(ctx, models.MarkKey{StudentID: s.ID, ClassID: c.ID, Date: day(1)})
	require.NoError(t, err)
	assert.Equal(t, m1.ID, got.ID)
	_, err = repos.Attendance.GetByKey(ctx, models.MarkKey{StudentID: s.ID, ClassID: c.ID, Date: day(9)})
	assert.ErrorIs(t, err, apperrors.ErrMarkNotFound)

	notes := "left early"
	edited := base.Add(2 * time.Hour)
	m1.Status = models.StatusExcused
	m1.Notes = &notes
	m1.EditedAt = &edited
	m1.EditedBy = &tc.ID
	require.NoError(t, repos.Attendance.Update(ctx, m1))
	got, err = repos.Attendance.GetByID(ctx, m1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExcused, got.Status)
	assert.Equal(t, notes, *got.Notes)
	assert.Equal(t, tc.ID, *got.EditedBy)
	assert.True(t, got.Date.Equal(day(1)))

	recent, err := repos.Attendance.RecentByStudent(ctx, s.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, m2.ID, recent[0].ID)
	assert.Equal(t, m3.ID, recent[1].ID)

	all, err := repos.Attendance.ListByStudent(ctx, s.ID, c.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	none, err := repos.Attendance.ListByStudent(ctx, s.ID, id())
	require.NoError(t, err)
	assert.Empty(t, none)

	onDay, err := repos.Attendance.ListByClassDate(ctx, c.ID, day(2))
	require.NoError(t, err)
	require.Len(t, onDay, 1)
	assert.Equal(t, m3.ID, onDay[0].ID)

	sessions, last, err := repos.Attendance.SessionSummary(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, sessions)
	require.NotNil(t, last)
	assert.True(t, last.Equal(day(3)))
}

func testAttendanceRace(t *testing.T, repos *repositories.Repositories) {
	ctx := context.Background()
	tc := newTeacher(t, repos)
	c := newClass(t, repos, tc.ID)
	s := newStudent(t, repos, c.ID, "001")

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repos.Attendance.Create(ctx, newMark(s.ID, c.ID, tc.ID, day(5), models.StatusPresent))
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, apperrors.ErrDuplicateMark):
		default:
			t.Errorf("unexpected create error: %v", err)
		}
	}
	assert.Equal(t, 1, won)

	marks, err := repos.Attendance.ListByStudent(ctx, s.ID, c.ID)
	require.NoError(t, err)
	assert.Len(t, marks, 1)
}

func testTokens(t *testing.T, repos *repositories.Repositories) {
	ctx := context.Background()
	teacherID := id()
	now := time.Now().UTC().Truncate(time.Second)

	live := &models.RefreshToken{Token: id(), TeacherID: teacherID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	other := &models.RefreshToken{Token: id(), TeacherID: teacherID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	expired := &models.RefreshToken{Token: id(), TeacherID: teacherID, ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-time.Hour)}
	for _, tok := range []*models.RefreshToken{live, other, expired} {
		require.NoError(t, repos.Tokens.Create(ctx, tok))
	}

	got, err := repos.Tokens.Get(ctx, live.Token)
	require.NoError(t, err)
	assert.True(t, got.Usable(now))

	first := now.Add(time.Minute)
	require.NoError(t, repos.Tokens.Revoke(ctx, live.Token, first))
	require.NoError(t, repos.Tokens.Revoke(ctx, live.Token, first.Add(time.Minute)))
	got, err = repos.Tokens.Get(ctx, live.Token)
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)
	assert.True(t, got.RevokedAt.Equal(first), "first revocation time is kept")
	assert.ErrorIs(t, repos.Tokens.Revoke(ctx, id(), now), apperrors.ErrTokenNotFound)

	require.NoError(t, repos.Tokens.RevokeAllForTeacher(ctx, teacherID, now))
	got, err = repos.Tokens.Get(ctx, other.Token)
	require.NoError(t, err)
	assert.False(t, got.Usable(now))

	removed, err := repos.Tokens.CleanupExpired(ctx, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))
	_, err = repos.Tokens.Get(ctx, expired.Token)
	assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)
	_, err = repos.Tokens.Get(ctx, live.Token)
	assert.NoError(t, err, "recently revoked tokens are retained")
}

func testRemap(t *testing.T, repos *repositories.Repositories) {
	ctx := context.Background()
	from := newTeacher(t, repos)
	to := newTeacher(t, repos)
	c := newClass(t, repos, from.ID)
	s := newStudent(t, repos, c.ID, "001")

	m := newMark(s.ID, c.ID, from.ID, day(1), models.StatusPresent)
	m.EditedBy = &from.ID
	require.NoError(t, repos.Attendance.Create(ctx, m))

	dry, err := repos.Remapper.RemapTeacher(ctx, from.ID, to.ID, true)
	require.NoError(t, err)
	assert.Equal(t, repositories.RemapCounts{Classes: 1, MarksTaught: 1, MarksEdited: 1}, dry)

	got, err := repos.Classes.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, from.ID, got.TeacherID)

	counts, err := repos.Remapper.RemapTeacher(ctx, from.ID, to.ID, false)
	require.NoError(t, err)
	assert.Equal(t, dry, counts)

	got, err = repos.Classes.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, to.ID, got.TeacherID)
	mark, err := repos.Attendance.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, to.ID, mark.TeacherID)
	assert.Equal(t, to.ID, *mark.EditedBy)

	again, err := repos.Remapper.RemapTeacher(ctx, from.ID, to.ID, false)
	require.NoError(t, err)
	assert.Zero(t, again.Total())
}

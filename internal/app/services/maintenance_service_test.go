package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swipeattend/backend/internal/app/models"
	"github.com/swipeattend/backend/internal/app/repositories"
	"github.com/swipeattend/backend/internal/pkg/apperrors"
)

func TestRepairOrphans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewMaintenanceService(f.repos, zerolog.Nop())

	require.NoError(t, f.repos.Classes.Create(ctx, &models.Class{ID: "c9", Name: "Ghost class", Subject: "History", Section: "A", TeacherID: "gone"}))
	require.NoError(t, f.repos.Students.Create(ctx, &models.Student{ID: "s9", Name: "Ghost pupil", RollNo: "001", ClassID: "c9"}))
	require.NoError(t, f.repos.Students.Create(ctx, &models.Student{ID: "s10", Name: "Lost pupil", RollNo: "001", ClassID: "nowhere"}))

	dry, err := svc.RepairOrphans(ctx, true)
	require.NoError(t, err)
	assert.True(t, dry.DryRun)
	assert.Equal(t, []string{"c9"}, dry.Classes)
	assert.ElementsMatch(t, []string{"s9", "s10"}, dry.Students)

	_, err = f.repos.Classes.GetByID(ctx, "c9")
	require.NoError(t, err, "dry run deletes nothing")

	report, err := svc.RepairOrphans(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"c9"}, report.Classes)
	assert.ElementsMatch(t, []string{"s9", "s10"}, report.Students)

	_, err = f.repos.Classes.GetByID(ctx, "c9")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	_, err = f.repos.Students.GetByID(ctx, "s10")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	again, err := svc.RepairOrphans(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, again.Classes)
	assert.Empty(t, again.Students)
}

func TestRemapTeacher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewMaintenanceService(f.repos, zerolog.Nop())

	m := f.mark(t, "s1", "PRESENT", day(1))
	f.mark(t, "s2", "PRESENT", day(1))
	_, err := f.ledger.UpdateOne(ctx, m.ID, "t1", "LATE", nil)
	require.NoError(t, err)

	dry, err := svc.RemapTeacher(ctx, "t1", "t2", true)
	require.NoError(t, err)
	assert.Equal(t, repositories.RemapCounts{Classes: 1, MarksTaught: 2, MarksEdited: 1}, dry)
	assert.Equal(t, "t1", f.class(t, "c1").TeacherID)

	counts, err := svc.RemapTeacher(ctx, "t1", "t2", false)
	require.NoError(t, err)
	assert.Equal(t, dry, counts)
	assert.Equal(t, int64(4), counts.Total())
	assert.Equal(t, "t2", f.class(t, "c1").TeacherID)

	stored, err := f.repos.Attendance.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "t2", stored.TeacherID)
	assert.Equal(t, "t2", *stored.EditedBy)

	second, err := svc.RemapTeacher(ctx, "t1", "t2", false)
	require.NoError(t, err)
	assert.Zero(t, second.Total())

	_, err = svc.RemapTeacher(ctx, "t2", "t2", false)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	_, err = svc.RemapTeacher(ctx, "t2", "", false)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	_, err = svc.RemapTeacher(ctx, "t2", "missing", false)
	assert.ErrorIs(t, err, apperrors.ErrTeacherNotFound)
}

package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/swipeattend/backend/internal/app/repositories"
	"github.com/swipeattend/backend/internal/pkg/apperrors"
)

// OrphanReport lists the records whose parent no longer exists
type OrphanReport struct {
	Classes  []string
	Students []string
	DryRun   bool
}

// MaintenanceService runs data repair batch jobs. Every job is idempotent:
// running it twice leaves the store as running it once.
type MaintenanceService struct {
	repos  *repositories.Repositories
	logger zerolog.Logger
}

// NewMaintenanceService creates a new MaintenanceService
func NewMaintenanceService(repos *repositories.Repositories, logger zerolog.Logger) *MaintenanceService {
	return &MaintenanceService{repos: repos, logger: logger}
}

// RepairOrphans removes classes whose teacher is gone, then students whose
// class is gone. Marks are left untouched. With dryRun it only reports.
func (s *MaintenanceService) RepairOrphans(ctx context.Context, dryRun bool) (*OrphanReport, error) {
	report := &OrphanReport{DryRun: dryRun}

	teachers, err := s.repos.Teachers.List(ctx)
	if err != nil {
		return nil, err
	}
	teacherIDs := make(map[string]struct{}, len(teachers))
	for _, t := range teachers {
		teacherIDs[t.ID] = struct{}{}
	}

	classes, err := s.repos.Classes.List(ctx)
	if err != nil {
		return nil, err
	}
	classIDs := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		if _, ok := teacherIDs[c.TeacherID]; ok {
			classIDs[c.ID] = struct{}{}
			continue
		}
		report.Classes = append(report.Classes, c.ID)
		s.logger.Info().Str("classID", c.ID).Str("teacherID", c.TeacherID).Bool("dryRun", dryRun).Msg("Orphaned class")
		if dryRun {
			continue
		}
		if err := s.repos.Classes.Delete(ctx, c.ID); err != nil && !errors.Is(err, apperrors.ErrResourceNotFound) {
			return report, err
		}
	}

	students, err := s.repos.Students.List(ctx)
	if err != nil {
		return report, err
	}
	for _, st := range students {
		if _, ok := classIDs[st.ClassID]; ok {
			continue
		}
		report.Students = append(report.Students, st.ID)
		s.logger.Info().Str("studentID", st.ID).Str("classID", st.ClassID).Bool("dryRun", dryRun).Msg("Orphaned student")
		if dryRun {
			continue
		}
		if err := s.repos.Students.Delete(ctx, st.ID); err != nil && !errors.Is(err, apperrors.ErrResourceNotFound) {
			return report, err
		}
	}

	s.logger.Info().
		Int("classes", len(report.Classes)).
		Int("students", len(report.Students)).
		Bool("dryRun", dryRun).
		Msg("Orphan repair finished")
	return report, nil
}

// RemapTeacher moves class ownership and mark authorship from fromID to toID
// atomically. The target teacher must exist. A second run finds nothing to move.
func (s *MaintenanceService) RemapTeacher(ctx context.Context, fromID, toID string, dryRun bool) (repositories.RemapCounts, error) {
	fromID = strings.TrimSpace(fromID)
	toID = strings.TrimSpace(toID)
	if fromID == "" || toID == "" {
		return repositories.RemapCounts{}, apperrors.NewValidationError("from/to", "both --from and --to are required")
	}
	if fromID == toID {
		return repositories.RemapCounts{}, apperrors.NewValidationError("to", "--to must differ from --from")
	}

	if _, err := s.repos.Teachers.GetByID(ctx, toID); err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return repositories.RemapCounts{}, apperrors.ErrTeacherNotFound
		}
		return repositories.RemapCounts{}, err
	}

	counts, err := s.repos.Remapper.RemapTeacher(ctx, fromID, toID, dryRun)
	if err != nil {
		return repositories.RemapCounts{}, err
	}

	s.logger.Info().
		Str("from", fromID).
		Str("to", toID).
		Bool("dryRun", dryRun).
		Int64("classes", counts.Classes).
		Int64("marksTaught", counts.MarksTaught).
		Int64("marksEdited", counts.MarksEdited).
		Msg("Teacher remap finished")
	return counts, nil
}

package auth

import (
	"context"
	"errors"

	"github.com/swipeattend/backend/internal/app/models"
	"github.com/swipeattend/backend/internal/app/repositories"
	"github.com/swipeattend/backend/internal/pkg/apperrors"
	"github.com/swipeattend/backend/internal/pkg/logger"
)

// AccessGuard checks that the acting teacher owns the class a request targets
type AccessGuard struct {
	classRepo repositories.ClassRepository
}

// NewAccessGuard creates a new AccessGuard
func NewAccessGuard(classRepo repositories.ClassRepository) *AccessGuard {
	return &AccessGuard{classRepo: classRepo}
}

// Inspect loads the class and tells a missing class (ErrClassNotFound) apart
// from one owned by another teacher (ErrNotClassOwner).
func (g *AccessGuard) Inspect(ctx context.Context, teacherID, classID string) (*models.Class, error) {
	if classID == "" {
		return nil, apperrors.ErrClassNotFound
	}

	class, err := g.classRepo.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrClassNotFound
		}
		return nil, err
	}

	if !class.OwnedBy(teacherID) {
		logger.Warn().
			Str("teacherID", teacherID).
			Str("classID", classID).
			Msg("Teacher attempted access to a class they do not own")
		return nil, apperrors.ErrNotClassOwner
	}
	return class, nil
}

// Authorize guards writes. A missing class and a class owned by someone else
// both yield ErrNotClassOwner. Store failures pass through unchanged.
func (g *AccessGuard) Authorize(ctx context.Context, teacherID, classID string) (*models.Class, error) {
	class, err := g.Inspect(ctx, teacherID, classID)
	if errors.Is(err, apperrors.ErrResourceNotFound) {
		return nil, apperrors.ErrNotClassOwner
	}
	return class, err
}

// Visible guards reads: a class the teacher cannot see is reported as not found.
func (g *AccessGuard) Visible(ctx context.Context, teacherID, classID string) (*models.Class, error) {
	class, err := g.Inspect(ctx, teacherID, classID)
	if errors.Is(err, apperrors.ErrPermissionDenied) {
		return nil, apperrors.ErrClassNotFound
	}
	return class, err
}

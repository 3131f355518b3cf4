package pgstore

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/swipeattend/backend/internal/app/models"
	"github.com/swipeattend/backend/internal/pkg/apperrors"
	"github.com/swipeattend/backend/internal/pkg/dberrors"
	"github.com/swipeattend/backend/internal/pkg/logger"
)

// TokenRepository handles refresh token database operations
type TokenRepository struct {
	*base
}

// Create stores a new refresh token
func (r *TokenRepository) Create(ctx context.Context, t *models.RefreshToken) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := r.sb.Insert("refresh_tokens").
		Columns("token", "teacher_id", "expires_at", "revoked_at", "created_at").
		Values(t.Token, t.TeacherID, t.ExpiresAt, t.RevokedAt, t.CreatedAt).
		ToSql()
	if err != nil {
		return r.fail(err, "build create token")
	}

	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, constraintRefreshTokenPK) {
			// uuid collision, the caller cannot use this token
			logger.Warn().Str("teacherID", t.TeacherID).Msg("Attempted to create duplicate refresh token")
			return apperrors.ErrTokenInvalid
		}
		return r.fail(err, "create token")
	}
	return nil
}

// Get retrieves a refresh token by value
func (r *TokenRepository) Get(ctx context.Context, token string) (*models.RefreshToken, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := r.sb.Select("token", "teacher_id", "expires_at", "revoked_at", "created_at").
		From("refresh_tokens").
		Where(squirrel.Eq{"token": token}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, r.fail(err, "build get token")
	}

	var t models.RefreshToken
	err = r.pool.QueryRow(ctx, sql, args...).Scan(&t.Token, &t.TeacherID, &t.ExpiresAt, &t.RevokedAt, &t.CreatedAt)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrTokenNotFound
		}
		return nil, r.fail(err, "get token")
	}
	return &t, nil
}

// Revoke marks one token as revoked. Revoking twice keeps the first timestamp.
func (r *TokenRepository) Revoke(ctx context.Context, token string, at time.Time) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := r.sb.Update("refresh_tokens").
		Set("revoked_at", squirrel.Expr("COALESCE(revoked_at, ?)", at)).
		Where(squirrel.Eq{"token": token}).
		ToSql()
	if err != nil {
		return r.fail(err, "build revoke token")
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return r.fail(err, "revoke token")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTokenNotFound
	}
	return nil
}

// RevokeAllForTeacher revokes every active token of a teacher
func (r *TokenRepository) RevokeAllForTeacher(ctx context.Context, teacherID string, at time.Time) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := r.sb.Update("refresh_tokens").
		Set("revoked_at", at).
		Where(squirrel.Eq{"teacher_id": teacherID, "revoked_at": nil}).
		ToSql()
	if err != nil {
		return r.fail(err, "build revoke teacher tokens")
	}

	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		return r.fail(err, "revoke teacher tokens")
	}
	return nil
}

// CleanupExpired removes expired tokens and revoked tokens past retention
func (r *TokenRepository) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := r.sb.Delete("refresh_tokens").
		Where(squirrel.Or{
			squirrel.Lt{"expires_at": now},
			squirrel.And{
				squirrel.NotEq{"revoked_at": nil},
				squirrel.Lt{"created_at": now.Add(-models.RevokedTokenRetention)},
			},
		}).
		ToSql()
	if err != nil {
		return 0, r.fail(err, "build cleanup tokens")
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, r.fail(err, "cleanup tokens")
	}
	return tag.RowsAffected(), nil
}

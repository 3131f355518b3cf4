package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/swipeattend/backend/internal/app/models"
	"github.com/swipeattend/backend/internal/pkg/apperrors"
	"github.com/swipeattend/backend/internal/pkg/dberrors"
)

// TokenRepository handles refresh token documents
type TokenRepository struct {
	*base
	col *mongo.Collection
}

// Create stores a new refresh token
func (r *TokenRepository) Create(ctx context.Context, t *models.RefreshToken) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, t); err != nil {
		if dberrors.IsMongoDuplicateKey(err) {
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

	var t models.RefreshToken
	if err := r.col.FindOne(ctx, bson.M{"_id": token}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrTokenNotFound
		}
		return nil, r.fail(err, "get token")
	}
	return &t, nil
}

// Revoke marks one token as revoked, keeping the first revocation time
func (r *TokenRepository) Revoke(ctx context.Context, token string, at time.Time) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": token})
	if err != nil {
		return r.fail(err, "revoke token")
	}
	if n == 0 {
		return apperrors.ErrTokenNotFound
	}

	_, err = r.col.UpdateOne(ctx,
		bson.M{"_id": token, "revoked_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"revoked_at": at}})
	if err != nil {
		return r.fail(err, "revoke token")
	}
	return nil
}

// RevokeAllForTeacher revokes every active token of a teacher
func (r *TokenRepository) RevokeAllForTeacher(ctx context.Context, teacherID string, at time.Time) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.col.UpdateMany(ctx,
		bson.M{"teacher_id": teacherID, "revoked_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"revoked_at": at}})
	if err != nil {
		return r.fail(err, "revoke teacher tokens")
	}
	return nil
}

// CleanupExpired removes expired tokens and revoked tokens past retention
func (r *TokenRepository) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"expires_at": bson.M{"$lt": now}},
		bson.M{"revoked_at": bson.M{"$exists": true}, "created_at": bson.M{"$lt": now.Add(-models.RevokedTokenRetention)}},
	}})
	if err != nil {
		return 0, r.fail(err, "cleanup tokens")
	}
	return res.DeletedCount, nil
}

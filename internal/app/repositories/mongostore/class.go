package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/swipeattend/backend/internal/app/models"
	"github.com/swipeattend/backend/internal/pkg/apperrors"
	"github.com/swipeattend/backend/internal/pkg/dberrors"
)

// ClassRepository handles class documents
type ClassRepository struct {
	*base
	col *mongo.Collection
}

// Create inserts a class document
func (r *ClassRepository) Create(ctx context.Context, c *models.Class) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, c); err != nil {
		if dberrors.IsMongoDuplicateKey(err) {
			return apperrors.ErrClassCodeExists
		}
		return r.fail(err, "create class")
	}
	return nil
}

// GetByID retrieves a class by id
func (r *ClassRepository) GetByID(ctx context.Context, id string) (*models.Class, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var c models.Class
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrClassNotFound
		}
		return nil, r.fail(err, "get class")
	}
	return &c, nil
}

// ListByTeacher returns the classes owned by a teacher, oldest first
func (r *ClassRepository) ListByTeacher(ctx context.Context, teacherID string) ([]*models.Class, error) {
	return r.find(ctx, bson.M{"teacher_id": teacherID}, "list classes by teacher")
}

// List returns every class, oldest first
func (r *ClassRepository) List(ctx context.Context) ([]*models.Class, error) {
	return r.find(ctx, bson.M{}, "list classes")
}

func (r *ClassRepository) find(ctx context.Context, filter bson.M, op string) ([]*models.Class, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, r.fail(err, op)
	}
	defer cursor.Close(ctx)

	out := make([]*models.Class, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, r.fail(err, op)
	}
	return out, nil
}

// UpdateSessions writes the denormalized session counters
func (r *ClassRepository) UpdateSessions(ctx context.Context, classID string, total int, last *time.Time) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	set := bson.M{"total_sessions": total, "updated_at": time.Now().UTC()}
	update := bson.M{"$set": set}
	if last != nil {
		set["last_attendance_date"] = *last
	} else {
		update["$unset"] = bson.M{"last_attendance_date": ""}
	}

	res, err := r.col.UpdateByID(ctx, classID, update)
	if err != nil {
		return r.fail(err, "update sessions")
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrClassNotFound
	}
	return nil
}

// Delete removes a class document
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return r.fail(err, "delete class")
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrClassNotFound
	}
	return nil
}

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

// StudentRepository handles student documents
type StudentRepository struct {
	*base
	col *mongo.Collection
}

// Create inserts a student document
func (r *StudentRepository) Create(ctx context.Context, s *models.Student) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, s); err != nil {
		if dberrors.IsMongoDuplicateKey(err) {
			return apperrors.ErrRollNumberExists
		}
		return r.fail(err, "create student")
	}
	return nil
}

// GetByID retrieves a student by id
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var s models.Student
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, r.fail(err, "get student")
	}
	return &s, nil
}

// ListByClass returns the roster of a class
func (r *StudentRepository) ListByClass(ctx context.Context, classID string) ([]*models.Student, error) {
	return r.find(ctx, bson.M{"class_id": classID}, "list students by class")
}

// List returns every student
func (r *StudentRepository) List(ctx context.Context) ([]*models.Student, error) {
	return r.find(ctx, bson.M{}, "list students")
}

func (r *StudentRepository) find(ctx context.Context, filter bson.M, op string) ([]*models.Student, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "roll_no", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, r.fail(err, op)
	}
	defer cursor.Close(ctx)

	out := make([]*models.Student, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, r.fail(err, op)
	}
	models.SortRoster(out)
	return out, nil
}

// CountByClass counts the students enrolled in a class
func (r *StudentRepository) CountByClass(ctx context.Context, classID string) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"class_id": classID})
	if err != nil {
		return 0, r.fail(err, "count students")
	}
	return int(n), nil
}

// UpdateStats writes the recomputed attendance tallies
func (r *StudentRepository) UpdateStats(ctx context.Context, id string, stats models.AttendanceStats) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"attendance_stats": stats,
		"updated_at":       time.Now().UTC(),
	}})
	if err != nil {
		return r.fail(err, "update stats")
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// Delete removes a student document
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return r.fail(err, "delete student")
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

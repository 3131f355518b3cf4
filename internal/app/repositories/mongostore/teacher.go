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

// TeacherRepository handles teacher documents
type TeacherRepository struct {
	*base
	col *mongo.Collection
}

// Create inserts a teacher document
func (r *TeacherRepository) Create(ctx context.Context, t *models.Teacher) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, t); err != nil {
		if dberrors.IsMongoDuplicateKey(err) {
			return apperrors.ErrEmailAlreadyExists
		}
		return r.fail(err, "create teacher")
	}
	return nil
}

func (r *TeacherRepository) findOne(ctx context.Context, filter bson.M, op string) (*models.Teacher, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var t models.Teacher
	if err := r.col.FindOne(ctx, filter).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrTeacherNotFound
		}
		return nil, r.fail(err, op)
	}
	return &t, nil
}

// GetByID retrieves a teacher by id
func (r *TeacherRepository) GetByID(ctx context.Context, id string) (*models.Teacher, error) {
	return r.findOne(ctx, bson.M{"_id": id}, "get teacher by id")
}

// GetByEmail retrieves a teacher by normalized email
func (r *TeacherRepository) GetByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	return r.findOne(ctx, bson.M{"email": email}, "get teacher by email")
}

// UpdateLastLogin stamps the last successful login
func (r *TeacherRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"last_login_at": at, "updated_at": at}})
	if err != nil {
		return r.fail(err, "update last login")
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrTeacherNotFound
	}
	return nil
}

// List returns every teacher ordered by id
func (r *TeacherRepository) List(ctx context.Context) ([]*models.Teacher, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, r.fail(err, "list teachers")
	}
	defer cursor.Close(ctx)

	out := make([]*models.Teacher, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, r.fail(err, "decode teachers")
	}
	return out, nil
}

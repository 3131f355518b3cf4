package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/swipeattend/backend/internal/config"
	"github.com/swipeattend/backend/internal/pkg/logger"
)

// MongoDB document database connection structure
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// NewMongoDB connects to MongoDB and verifies the primary is reachable
func NewMongoDB(cfg *config.Config) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.Database.MongoURI).
		SetMaxPoolSize(uint64(cfg.Database.MaxOpenConns)).
		SetMinPoolSize(uint64(cfg.Database.MaxIdleConns)).
		SetTimeout(cfg.StoreTimeout())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to establish mongo connection: %w", err)
	}

	return &MongoDB{
		Client:   client,
		Database: client.Database(cfg.Database.MongoDatabase),
	}, nil
}

// Close disconnects the client
func (m *MongoDB) Close(ctx context.Context) error {
	if m.Client == nil {
		return nil
	}
	return m.Client.Disconnect(ctx)
}

// EnsureIndexes creates the unique and lookup indexes the record store relies on.
// CreateMany is idempotent for identical specifications.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		"teachers": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("teachers_email_key")},
		},
		"classes": {
			{Keys: bson.D{{Key: "teacher_id", Value: 1}}, Options: options.Index().SetName("idx_classes_teacher_id")},
			{
				Keys: bson.D{{Key: "code", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("classes_code_key").
					SetPartialFilterExpression(bson.M{"code": bson.M{"$type": "string"}}),
			},
		},
		"students": {
			{Keys: bson.D{{Key: "class_id", Value: 1}, {Key: "roll_no", Value: 1}}, Options: options.Index().SetUnique(true).SetName("students_class_roll_key")},
		},
		"attendance": {
			{
				Keys:    bson.D{{Key: "student_id", Value: 1}, {Key: "class_id", Value: 1}, {Key: "date", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("attendance_student_class_date_key"),
			},
			{Keys: bson.D{{Key: "class_id", Value: 1}, {Key: "date", Value: 1}}, Options: options.Index().SetName("idx_attendance_class_date")},
			{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "date", Value: -1}}, Options: options.Index().SetName("idx_attendance_student_date")},
			{Keys: bson.D{{Key: "teacher_id", Value: 1}}, Options: options.Index().SetName("idx_attendance_teacher_id")},
		},
		"refresh_tokens": {
			{Keys: bson.D{{Key: "teacher_id", Value: 1}}, Options: options.Index().SetName("idx_refresh_tokens_teacher_id")},
		},
	}

	for coll, models := range specs {
		names, err := m.Database.Collection(coll).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("failed to ensure indexes on %s: %w", coll, err)
		}
		logger.Debug().Str("collection", coll).Strs("indexes", names).Msg("Mongo indexes ensured")
	}
	return nil
}

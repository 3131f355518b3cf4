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
	"github.com/swipeattend/backend/internal/pkg/helpers"
)

// AttendanceRepository handles attendance mark documents
type AttendanceRepository struct {
	*base
	col *mongo.Collection
}

// Create inserts a mark. The unique compound index on (student_id, class_id,
// date) turns a lost race into ErrDuplicateMark.
func (r *AttendanceRepository) Create(ctx context.Context, m *models.AttendanceMark) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, m); err != nil {
		if dberrors.IsMongoDuplicateKey(err) {
			return apperrors.ErrDuplicateMark
		}
		return r.fail(err, "create mark")
	}
	return nil
}

func (r *AttendanceRepository) findOne(ctx context.Context, filter bson.M, op string) (*models.AttendanceMark, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var m models.AttendanceMark
	if err := r.col.FindOne(ctx, filter).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrMarkNotFound
		}
		return nil, r.fail(err, op)
	}
	return &m, nil
}

// GetByID retrieves a mark by id
func (r *AttendanceRepository) GetByID(ctx context.Context, id string) (*models.AttendanceMark, error) {
	return r.findOne(ctx, bson.M{"_id": id}, "get mark")
}

// GetByKey retrieves the mark of a (student, class, day) slot
func (r *AttendanceRepository) GetByKey(ctx context.Context, key models.MarkKey) (*models.AttendanceMark, error) {
	return r.findOne(ctx, bson.M{
		"student_id": key.StudentID,
		"class_id":   key.ClassID,
		"date":       helpers.CalendarDay(key.Date),
	}, "get mark by key")
}

// Update writes the mutable fields of a mark
func (r *AttendanceRepository) Update(ctx context.Context, m *models.AttendanceMark) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	set := bson.M{"status": m.Status, "edited_at": m.EditedAt, "edited_by": m.EditedBy}
	update := bson.M{"$set": set}
	if m.Notes != nil {
		set["notes"] = *m.Notes
	} else {
		update["$unset"] = bson.M{"notes": ""}
	}

	res, err := r.col.UpdateByID(ctx, m.ID, update)
	if err != nil {
		return r.fail(err, "update mark")
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrMarkNotFound
	}
	return nil
}

// ListByStudent returns every mark of a student, optionally scoped to one class
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID, classID string) ([]*models.AttendanceMark, error) {
	filter := bson.M{"student_id": studentID}
	if classID != "" {
		filter["class_id"] = classID
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, filter, opts, "list marks by student")
}

// ListByClassDate returns the marks of a class on one day
func (r *AttendanceRepository) ListByClassDate(ctx context.Context, classID string, date time.Time) ([]*models.AttendanceMark, error) {
	filter := bson.M{"class_id": classID, "date": helpers.CalendarDay(date)}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}), "list marks by class date")
}

// RecentByStudent returns the newest marks of a student
func (r *AttendanceRepository) RecentByStudent(ctx context.Context, studentID string, limit int) ([]*models.AttendanceMark, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "marked_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, bson.M{"student_id": studentID}, opts, "recent marks by student")
}

func (r *AttendanceRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions, op string) ([]*models.AttendanceMark, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, r.fail(err, op)
	}
	defer cursor.Close(ctx)

	out := make([]*models.AttendanceMark, 0)
	for cursor.Next(ctx) {
		var m models.AttendanceMark
		if err := cursor.Decode(&m); err != nil {
			return nil, r.fail(err, "decode mark")
		}
		m.Date = helpers.CalendarDay(m.Date.UTC())
		out = append(out, &m)
	}
	if err := cursor.Err(); err != nil {
		return nil, r.fail(err, op)
	}
	return out, nil
}

// SessionSummary counts distinct marked dates of a class and finds the latest
func (r *AttendanceRepository) SessionSummary(ctx context.Context, classID string) (int, *time.Time, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"class_id": classID}}},
		{{Key: "$group", Value: bson.M{"_id": "$date"}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": 1},
			"last":  bson.M{"$max": "$_id"},
		}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, nil, r.fail(err, "session summary")
	}
	defer cursor.Close(ctx)

	var result struct {
		Total int       `bson:"total"`
		Last  time.Time `bson:"last"`
	}
	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return 0, nil, r.fail(err, "session summary")
		}
		return 0, nil, nil
	}
	if err := cursor.Decode(&result); err != nil {
		return 0, nil, r.fail(err, "decode session summary")
	}
	last := helpers.CalendarDay(result.Last.UTC())
	return result.Total, &last, nil
}

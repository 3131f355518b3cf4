package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/swipeattend/backend/internal/app/repositories"
)

// Remapper reassigns teacher references inside a multi-document transaction.
// Transactions need a replica set or a sharded cluster.
type Remapper struct {
	*base
	client *mongo.Client
}

// RemapTeacher moves classes.teacher_id, attendance.teacher_id and
// attendance.edited_by from fromID to toID. A dry run only counts.
func (r *Remapper) RemapTeacher(ctx context.Context, fromID, toID string, dryRun bool) (repositories.RemapCounts, error) {
	steps := []struct {
		collection string
		field      string
	}{
		{classesCollection, "teacher_id"},
		{attendanceCollection, "teacher_id"},
		{attendanceCollection, "edited_by"},
	}

	if dryRun {
		ctx, cancel := r.withTimeout(ctx)
		defer cancel()

		var out [3]int64
		for i, s := range steps {
			n, err := r.db.Collection(s.collection).CountDocuments(ctx, bson.M{s.field: fromID})
			if err != nil {
				return repositories.RemapCounts{}, r.fail(err, "count remap")
			}
			out[i] = n
		}
		return repositories.RemapCounts{Classes: out[0], MarksTaught: out[1], MarksEdited: out[2]}, nil
	}

	session, err := r.client.StartSession()
	if err != nil {
		return repositories.RemapCounts{}, r.fail(err, "start remap session")
	}
	defer session.EndSession(context.Background())

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var out [3]int64
		for i, s := range steps {
			res, err := r.db.Collection(s.collection).UpdateMany(sc,
				bson.M{s.field: fromID},
				bson.M{"$set": bson.M{s.field: toID}})
			if err != nil {
				return nil, err
			}
			out[i] = res.ModifiedCount
		}
		return out, nil
	})
	if err != nil {
		return repositories.RemapCounts{}, r.fail(err, "remap teacher")
	}

	out := result.([3]int64)
	return repositories.RemapCounts{Classes: out[0], MarksTaught: out[1], MarksEdited: out[2]}, nil
}

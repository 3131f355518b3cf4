// Package mongostore implements the record store on MongoDB.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/swipeattend/backend/internal/app/repositories"
	"github.com/swipeattend/backend/internal/db"
	"github.com/swipeattend/backend/internal/pkg/dberrors"
	"github.com/swipeattend/backend/internal/pkg/logger"
)

// Collection names
const (
	teachersCollection   = "teachers"
	classesCollection    = "classes"
	studentsCollection   = "students"
	attendanceCollection = "attendance"
	tokensCollection     = "refresh_tokens"
)

type base struct {
	db      *mongo.Database
	timeout time.Duration
}

func (b *base) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.timeout)
}

func (b *base) fail(err error, op string) error {
	classified := dberrors.Classify(err, op)
	if classified == err {
		logger.Error().Err(err).Str("op", op).Msg("Mongo operation failed")
		return fmt.Errorf("%s: %w", op, err)
	}
	logger.Warn().Err(err).Str("op", op).Msg("Mongo store unavailable or conflicting")
	return classified
}

// New wires every MongoDB repository around one database handle
func New(m *db.MongoDB, timeout time.Duration) *repositories.Repositories {
	b := &base{db: m.Database, timeout: timeout}
	return &repositories.Repositories{
		Teachers:   &TeacherRepository{base: b, col: m.Database.Collection(teachersCollection)},
		Classes:    &ClassRepository{base: b, col: m.Database.Collection(classesCollection)},
		Students:   &StudentRepository{base: b, col: m.Database.Collection(studentsCollection)},
		Attendance: &AttendanceRepository{base: b, col: m.Database.Collection(attendanceCollection)},
		Tokens:     &TokenRepository{base: b, col: m.Database.Collection(tokensCollection)},
		Remapper:   &Remapper{base: b, client: m.Client},
		Ping: func(ctx context.Context) error {
			ctx, cancel := b.withTimeout(ctx)
			defer cancel()
			return dberrors.Classify(m.Client.Ping(ctx, readpref.Primary()), "ping")
		},
		Close: m.Close,
	}
}

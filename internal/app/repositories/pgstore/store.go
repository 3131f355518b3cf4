// Package pgstore implements the record store on PostgreSQL with pgx and squirrel.
package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swipeattend/backend/internal/app/repositories"
	"github.com/swipeattend/backend/internal/db"
	"github.com/swipeattend/backend/internal/pkg/dberrors"
	"github.com/swipeattend/backend/internal/pkg/logger"
)

// Constraint names from the SQL migrations
const (
	constraintTeacherEmail   = "teachers_email_key"
	constraintClassCode      = "classes_code_key"
	constraintStudentRollNo  = "students_class_roll_key"
	constraintAttendanceKey  = "attendance_student_class_date_key"
	constraintRefreshTokenPK = "refresh_tokens_pkey"
)

// base is shared by every repository of the backend
type base struct {
	pool    *pgxpool.Pool
	sb      squirrel.StatementBuilderType
	timeout time.Duration
}

// withTimeout bounds a single store call by the configured deadline
func (b *base) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.timeout)
}

// fail logs a query failure and maps it onto the application error taxonomy
func (b *base) fail(err error, op string) error {
	classified := dberrors.Classify(err, op)
	if classified == err {
		logger.Error().Err(err).Str("op", op).Msg("Postgres query failed")
		return fmt.Errorf("%s: %w", op, err)
	}
	logger.Warn().Err(err).Str("op", op).Msg("Postgres store unavailable or conflicting")
	return classified
}

// New wires every PostgreSQL repository around one pool
func New(pg *db.PostgresDB, timeout time.Duration) *repositories.Repositories {
	b := &base{
		pool:    pg.Pool,
		sb:      squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		timeout: timeout,
	}
	return &repositories.Repositories{
		Teachers:   &TeacherRepository{b},
		Classes:    &ClassRepository{b},
		Students:   &StudentRepository{b},
		Attendance: &AttendanceRepository{b},
		Tokens:     &TokenRepository{b},
		Remapper:   &Remapper{base: b, pg: pg},
		Ping: func(ctx context.Context) error {
			ctx, cancel := b.withTimeout(ctx)
			defer cancel()
			return dberrors.Classify(pg.Pool.Ping(ctx), "ping")
		},
		Close: func(context.Context) error {
			pg.Close()
			return nil
		},
	}
}

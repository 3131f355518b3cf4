package pgstore

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/swipeattend/backend/internal/app/models"
	"github.com/swipeattend/backend/internal/pkg/apperrors"
	"github.com/swipeattend/backend/internal/pkg/dberrors"
)

var classColumns = []string{
	"id", "name", "subject", "code", "section", "room_number", "description", "teacher_id",
	"is_active", "total_sessions", "last_attendance_date", "created_at", "updated_at",
}

// ClassRepository handles class database operations
type ClassRepository struct {
	*base
}

func scanClass(row pgx.Row) (*models.Class, error) {
	var c models.Class
	err := row.Scan(&c.ID, &c.Name, &c.Subject, &c.Code, &c.Section, &c.RoomNumber, &c.Description,
		&c.TeacherID, &c.IsActive, &c.TotalSessions, &c.LastAttendanceDate, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a class
func (r *ClassRepository) Create(ctx context.Context, c *models.Class) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := r.sb.Insert("classes").
		Columns(classColumns...).
		Values(c.ID, c.Name, c.Subject, c.Code, c.Section, c.RoomNumber, c.Description, c.TeacherID,
			c.IsActive, c.TotalSessions, c.LastAttendanceDate, c.CreatedAt, c.UpdatedAt).
		ToSql()
	if err != nil {
		return r.fail(err, "build create class")
	}

	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, constraintClassCode) {
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

	sql, args, err := r.sb.Select(classColumns...).From("classes").Where(squirrel.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		return nil, r.fail(err, "build get class")
	}

	c, err := scanClass(r.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrClassNotFound
		}
		return nil, r.fail(err, "get class")
	}
	return c, nil
}

// ListByTeacher returns the classes owned by a teacher, oldest first
func (r *ClassRepository) ListByTeacher(ctx context.Context, teacherID string) ([]*models.Class, error) {
	return r.list(ctx, squirrel.Eq{"teacher_id": teacherID}, "list classes by teacher")
}

// List returns every class, oldest first
func (r *ClassRepository) List(ctx context.Context) ([]*models.Class, error) {
	return r.list(ctx, nil, "list classes")
}

func (r *ClassRepository) list(ctx context.Context, where squirrel.Sqlizer, op string) ([]*models.Class, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	q := r.sb.Select(classColumns...).From("classes").OrderBy("created_at", "id")
	if where != nil {
		q = q.Where(where)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, r.fail(err, "build "+op)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, r.fail(err, op)
	}
	defer rows.Close()

	out := make([]*models.Class, 0)
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, r.fail(err, "scan class")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, r.fail(err, op)
	}
	return out, nil
}

// UpdateSessions writes the denormalized session counters
func (r *ClassRepository) UpdateSessions(ctx context.Context, classID string, total int, last *time.Time) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := r.sb.Update("classes").
		Set("total_sessions", total).
		Set("last_attendance_date", last).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": classID}).
		ToSql()
	if err != nil {
		return r.fail(err, "build update sessions")
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return r.fail(err, "update sessions")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrClassNotFound
	}
	return nil
}

// Delete removes a class row
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := r.sb.Delete("classes").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return r.fail(err, "build delete class")
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return r.fail(err, "delete class")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrClassNotFound
	}
	return nil
}

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

var teacherColumns = []string{
	"id", "name", "email", "password_hash", "phone", "department",
	"is_active", "last_login_at", "created_at", "updated_at",
}

// TeacherRepository handles teacher database operations
type TeacherRepository struct {
	*base
}

func scanTeacher(row pgx.Row) (*models.Teacher, error) {
	var t models.Teacher
	err := row.Scan(&t.ID, &t.Name, &t.Email, &t.PasswordHash, &t.Phone, &t.Department,
		&t.IsActive, &t.LastLoginAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a teacher
func (r *TeacherRepository) Create(ctx context.Context, t *models.Teacher) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := r.sb.Insert("teachers").
		Columns(teacherColumns...).
		Values(t.ID, t.Name, t.Email, t.PasswordHash, t.Phone, t.Department,
			t.IsActive, t.LastLoginAt, t.CreatedAt, t.UpdatedAt).
		ToSql()
	if err != nil {
		return r.fail(err, "build create teacher")
	}

	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, constraintTeacherEmail) {
			return apperrors.ErrEmailAlreadyExists
		}
		return r.fail(err, "create teacher")
	}
	return nil
}

func (r *TeacherRepository) getOne(ctx context.Context, where squirrel.Sqlizer, op string) (*models.Teacher, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := r.sb.Select(teacherColumns...).From("teachers").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, r.fail(err, "build "+op)
	}

	t, err := scanTeacher(r.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrTeacherNotFound
		}
		return nil, r.fail(err, op)
	}
	return t, nil
}

// GetByID retrieves a teacher by id
func (r *TeacherRepository) GetByID(ctx context.Context, id string) (*models.Teacher, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, "get teacher by id")
}

// GetByEmail retrieves a teacher by normalized email
func (r *TeacherRepository) GetByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email}, "get teacher by email")
}

// UpdateLastLogin stamps the last successful login
func (r *TeacherRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := r.sb.Update("teachers").
		Set("last_login_at", at).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return r.fail(err, "build update last login")
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return r.fail(err, "update last login")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTeacherNotFound
	}
	return nil
}

// List returns every teacher ordered by id
func (r *TeacherRepository) List(ctx context.Context) ([]*models.Teacher, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := r.sb.Select(teacherColumns...).From("teachers").OrderBy("id").ToSql()
	if err != nil {
		return nil, r.fail(err, "build list teachers")
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, r.fail(err, "list teachers")
	}
	defer rows.Close()

	var out []*models.Teacher
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, r.fail(err, "scan teacher")
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, r.fail(err, "iterate teachers")
	}
	return out, nil
}

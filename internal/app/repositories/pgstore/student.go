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

var studentColumns = []string{
	"id", "name", "roll_no", "email", "phone", "class_id", "is_active",
	"total_classes", "present_count", "absent_count", "late_count", "excused_count",
	"created_at", "updated_at",
}

// rosterOrder is the stable ordering of a class roster
var rosterOrder = []string{"roll_no", "id"}

// StudentRepository handles student database operations
type StudentRepository struct {
	*base
}

func scanStudent(row pgx.Row) (*models.Student, error) {
	var s models.Student
	st := &s.AttendanceStats
	err := row.Scan(&s.ID, &s.Name, &s.RollNo, &s.Email, &s.Phone, &s.ClassID, &s.IsActive,
		&st.TotalClasses, &st.PresentCount, &st.AbsentCount, &st.LateCount, &st.ExcusedCount,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a student
func (r *StudentRepository) Create(ctx context.Context, s *models.Student) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	st := s.AttendanceStats
	sql, args, err := r.sb.Insert("students").
		Columns(studentColumns...).
		Values(s.ID, s.Name, s.RollNo, s.Email, s.Phone, s.ClassID, s.IsActive,
			st.TotalClasses, st.PresentCount, st.AbsentCount, st.LateCount, st.ExcusedCount,
			s.CreatedAt, s.UpdatedAt).
		ToSql()
	if err != nil {
		return r.fail(err, "build create student")
	}

	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, constraintStudentRollNo) {
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

	sql, args, err := r.sb.Select(studentColumns...).From("students").Where(squirrel.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		return nil, r.fail(err, "build get student")
	}

	s, err := scanStudent(r.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, r.fail(err, "get student")
	}
	return s, nil
}

// ListByClass returns the roster of a class
func (r *StudentRepository) ListByClass(ctx context.Context, classID string) ([]*models.Student, error) {
	return r.list(ctx, squirrel.Eq{"class_id": classID}, "list students by class")
}

// List returns every student
func (r *StudentRepository) List(ctx context.Context) ([]*models.Student, error) {
	return r.list(ctx, nil, "list students")
}

func (r *StudentRepository) list(ctx context.Context, where squirrel.Sqlizer, op string) ([]*models.Student, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	q := r.sb.Select(studentColumns...).From("students").OrderBy(rosterOrder...)
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

	out := make([]*models.Student, 0)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, r.fail(err, "scan student")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, r.fail(err, op)
	}
	// COLLATE differences between databases must not change roster order
	models.SortRoster(out)
	return out, nil
}

// CountByClass counts the students enrolled in a class
func (r *StudentRepository) CountByClass(ctx context.Context, classID string) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := r.sb.Select("COUNT(*)").From("students").Where(squirrel.Eq{"class_id": classID}).ToSql()
	if err != nil {
		return 0, r.fail(err, "build count students")
	}

	var n int
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, r.fail(err, "count students")
	}
	return n, nil
}

// UpdateStats writes the recomputed attendance tallies
func (r *StudentRepository) UpdateStats(ctx context.Context, id string, st models.AttendanceStats) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := r.sb.Update("students").
		SetMap(map[string]interface{}{
			"total_classes": st.TotalClasses,
			"present_count": st.PresentCount,
			"absent_count":  st.AbsentCount,
			"late_count":    st.LateCount,
			"excused_count": st.ExcusedCount,
			"updated_at":    time.Now().UTC(),
		}).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return r.fail(err, "build update stats")
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return r.fail(err, "update stats")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// Delete removes a student row
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := r.sb.Delete("students").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return r.fail(err, "build delete student")
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return r.fail(err, "delete student")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

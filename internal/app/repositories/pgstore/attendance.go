package pgstore

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/swipeattend/backend/internal/app/models"
	"github.com/swipeattend/backend/internal/pkg/apperrors"
	"github.com/swipeattend/backend/internal/pkg/dberrors"
	"github.com/swipeattend/backend/internal/pkg/helpers"
)

var attendanceColumns = []string{
	"id", "student_id", "class_id", "teacher_id", "date", "status", "notes",
	"marked_by", "marked_at", "edited_at", "edited_by",
}

// AttendanceRepository handles attendance mark database operations
type AttendanceRepository struct {
	*base
}

func scanMark(row pgx.Row) (*models.AttendanceMark, error) {
	var m models.AttendanceMark
	var status, markedBy string
	err := row.Scan(&m.ID, &m.StudentID, &m.ClassID, &m.TeacherID, &m.Date, &status, &m.Notes,
		&markedBy, &m.MarkedAt, &m.EditedAt, &m.EditedBy)
	if err != nil {
		return nil, err
	}
	m.Status = models.AttendanceStatus(status)
	m.MarkedBy = models.MarkedBy(markedBy)
	m.Date = helpers.CalendarDay(m.Date)
	return &m, nil
}

// Create inserts a mark. The unique key on (student_id, class_id, date) turns a
// lost race into ErrDuplicateMark.
func (r *AttendanceRepository) Create(ctx context.Context, m *models.AttendanceMark) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := r.sb.Insert("attendance").
		Columns(attendanceColumns...).
		Values(m.ID, m.StudentID, m.ClassID, m.TeacherID, m.Date, string(m.Status), m.Notes,
			string(m.MarkedBy), m.MarkedAt, m.EditedAt, m.EditedBy).
		ToSql()
	if err != nil {
		return r.fail(err, "build create mark")
	}

	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, constraintAttendanceKey) {
			return apperrors.ErrDuplicateMark
		}
		return r.fail(err, "create mark")
	}
	return nil
}

func (r *AttendanceRepository) getOne(ctx context.Context, where squirrel.Sqlizer, op string) (*models.AttendanceMark, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := r.sb.Select(attendanceColumns...).From("attendance").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, r.fail(err, "build "+op)
	}

	m, err := scanMark(r.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrMarkNotFound
		}
		return nil, r.fail(err, op)
	}
	return m, nil
}

// GetByID retrieves a mark by id
func (r *AttendanceRepository) GetByID(ctx context.Context, id string) (*models.AttendanceMark, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, "get mark")
}

// GetByKey retrieves the mark of a (student, class, day) slot
func (r *AttendanceRepository) GetByKey(ctx context.Context, key models.MarkKey) (*models.AttendanceMark, error) {
	return r.getOne(ctx, squirrel.Eq{
		"student_id": key.StudentID,
		"class_id":   key.ClassID,
		"date":       helpers.CalendarDay(key.Date),
	}, "get mark by key")
}

// Update writes the mutable fields of a mark
func (r *AttendanceRepository) Update(ctx context.Context, m *models.AttendanceMark) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := r.sb.Update("attendance").
		Set("status", string(m.Status)).
		Set("notes", m.Notes).
		Set("edited_at", m.EditedAt).
		Set("edited_by", m.EditedBy).
		Where(squirrel.Eq{"id": m.ID}).
		ToSql()
	if err != nil {
		return r.fail(err, "build update mark")
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return r.fail(err, "update mark")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMarkNotFound
	}
	return nil
}

// ListByStudent returns every mark of a student, optionally scoped to one class
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID, classID string) ([]*models.AttendanceMark, error) {
	where := squirrel.Eq{"student_id": studentID}
	if classID != "" {
		where["class_id"] = classID
	}
	return r.list(ctx, r.sb.Select(attendanceColumns...).From("attendance").Where(where).OrderBy("date", "id"), "list marks by student")
}

// ListByClassDate returns the marks of a class on one day
func (r *AttendanceRepository) ListByClassDate(ctx context.Context, classID string, date time.Time) ([]*models.AttendanceMark, error) {
	q := r.sb.Select(attendanceColumns...).From("attendance").
		Where(squirrel.Eq{"class_id": classID, "date": helpers.CalendarDay(date)}).
		OrderBy("id")
	return r.list(ctx, q, "list marks by class date")
}

// RecentByStudent returns the newest marks of a student
func (r *AttendanceRepository) RecentByStudent(ctx context.Context, studentID string, limit int) ([]*models.AttendanceMark, error) {
	q := r.sb.Select(attendanceColumns...).From("attendance").
		Where(squirrel.Eq{"student_id": studentID}).
		OrderBy("date DESC", "marked_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	return r.list(ctx, q, "recent marks by student")
}

func (r *AttendanceRepository) list(ctx context.Context, q squirrel.SelectBuilder, op string) ([]*models.AttendanceMark, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, r.fail(err, "build "+op)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, r.fail(err, op)
	}
	defer rows.Close()

	out := make([]*models.AttendanceMark, 0)
	for rows.Next() {
		m, err := scanMark(rows)
		if err != nil {
			return nil, r.fail(err, "scan mark")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, r.fail(err, op)
	}
	return out, nil
}

// SessionSummary counts distinct marked dates of a class and finds the latest
func (r *AttendanceRepository) SessionSummary(ctx context.Context, classID string) (int, *time.Time, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sql, args, err := r.sb.Select("COUNT(DISTINCT date)", "MAX(date)").
		From("attendance").
		Where(squirrel.Eq{"class_id": classID}).
		ToSql()
	if err != nil {
		return 0, nil, r.fail(err, "build session summary")
	}

	var total int
	var last *time.Time
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&total, &last); err != nil {
		return 0, nil, r.fail(err, "session summary")
	}
	if last != nil {
		d := helpers.CalendarDay(*last)
		last = &d
	}
	return total, last, nil
}

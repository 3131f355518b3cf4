package pgstore

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/swipeattend/backend/internal/app/repositories"
	"github.com/swipeattend/backend/internal/db"
)

// Remapper reassigns teacher references inside one transaction
type Remapper struct {
	*base
	pg *db.PostgresDB
}

// RemapTeacher moves classes.teacher_id, attendance.teacher_id and
// attendance.edited_by from fromID to toID. A dry run only counts.
func (r *Remapper) RemapTeacher(ctx context.Context, fromID, toID string, dryRun bool) (repositories.RemapCounts, error) {
	var counts repositories.RemapCounts

	err := r.pg.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		// lock the affected rows first so concurrent marks wait for the remap
		for _, table := range []string{"classes", "attendance"} {
			sql, args, err := r.sb.Select("id").From(table).
				Where(squirrel.Eq{"teacher_id": fromID}).
				Suffix("FOR UPDATE").
				ToSql()
			if err != nil {
				return err
			}
			rows, err := tx.Query(ctx, sql, args...)
			if err != nil {
				return err
			}
			rows.Close()
			if err := rows.Err(); err != nil {
				return err
			}
		}

		steps := []struct {
			table  string
			column string
			count  *int64
		}{
			{"classes", "teacher_id", &counts.Classes},
			{"attendance", "teacher_id", &counts.MarksTaught},
			{"attendance", "edited_by", &counts.MarksEdited},
		}
		for _, s := range steps {
			if dryRun {
				sql, args, err := r.sb.Select("COUNT(*)").From(s.table).Where(squirrel.Eq{s.column: fromID}).ToSql()
				if err != nil {
					return err
				}
				if err := tx.QueryRow(ctx, sql, args...).Scan(s.count); err != nil {
					return err
				}
				continue
			}

			sql, args, err := r.sb.Update(s.table).Set(s.column, toID).Where(squirrel.Eq{s.column: fromID}).ToSql()
			if err != nil {
				return err
			}
			tag, err := tx.Exec(ctx, sql, args...)
			if err != nil {
				return err
			}
			*s.count = tag.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return repositories.RemapCounts{}, r.fail(err, "remap teacher")
	}
	return counts, nil
}

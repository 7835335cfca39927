package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return execFile(ctx, db, "sql/0002_add_query_indexes.sql")
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `
DROP INDEX IF EXISTS quiz_submissions_completed_at_idx;
DROP INDEX IF EXISTS quiz_submissions_percentage_idx;
DROP INDEX IF EXISTS questions_active_idx;`)
			return err
		},
	)
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/zipstream"
)

func createJobsTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexFinished := pgx.Identifier{fmt.Sprintf("idx_%s_finished", tableName)}.Sanitize()
	indexArchive := pgx.Identifier{fmt.Sprintf("idx_%s_archive", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			archive_id TEXT NOT NULL,
			outcome TEXT NOT NULL,
			bytes_sent BIGINT NOT NULL,
			chunks INTEGER NOT NULL,
			exit_code INTEGER NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (finished_at DESC, id DESC);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (archive_id, finished_at DESC, id DESC);
	`,
		quotedTable,
		indexFinished, quotedTable,
		indexArchive, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create jobs table: %w", err)
	}
	return nil
}

// DropTables removes the history tables.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables zipstream.Tables) error {
	quotedTable := pgx.Identifier{tables.Jobs}.Sanitize()

	_, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable))
	if err != nil {
		return fmt.Errorf("drop jobs table: %w", err)
	}
	return nil
}

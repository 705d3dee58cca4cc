package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/zipstream"
)

// quoteIdentifier quotes a table or index name. Names are validated with
// zipstream.IsValidTableName before they get here, so they hold no quotes.
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

// jobsSchema returns the statements creating the job history table.
// Timestamps are fixed-width UTC text so that text order is time order.
func jobsSchema(table string) []string {
	t := quoteIdentifier(table)
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT NOT NULL PRIMARY KEY,
			archive_id TEXT NOT NULL,
			outcome TEXT NOT NULL,
			bytes_sent INTEGER NOT NULL,
			chunks INTEGER NOT NULL,
			exit_code INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)`, t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (finished_at, id)`,
			quoteIdentifier("idx_"+table+"_finished"), t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (archive_id, finished_at, id)`,
			quoteIdentifier("idx_"+table+"_archive"), t),
	}
}

// Migrate creates the job history table and its indexes in one transaction.
// It is safe to run repeatedly.
func Migrate(ctx context.Context, db *sql.DB, tables zipstream.Tables) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate %s: begin: %w", tables.Jobs, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range jobsSchema(tables.Jobs) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", tables.Jobs, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate %s: commit: %w", tables.Jobs, err)
	}
	return nil
}

// DropTables removes the job history table together with its indexes.
func DropTables(ctx context.Context, db *sql.DB, tables zipstream.Tables) error {
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdentifier(tables.Jobs)); err != nil {
		return fmt.Errorf("drop %s: %w", tables.Jobs, err)
	}
	return nil
}

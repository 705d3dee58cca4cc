package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/zipstream"
	"github.com/sagarc03/zipstream/database/internal"
)

var jobsColumnTypes = map[string]string{
	"id":          "uuid",
	"archive_id":  "text",
	"outcome":     "text",
	"bytes_sent":  "bigint",
	"chunks":      "integer",
	"exit_code":   "integer",
	"started_at":  "timestamp with time zone",
	"finished_at": "timestamp with time zone",
}

// ValidateSchema checks that the job history table exists in the public
// schema with the expected columns.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables zipstream.Tables) error {
	if !zipstream.IsValidTableName(tables.Jobs) {
		return fmt.Errorf("validate schema: invalid table name: %s", tables.Jobs)
	}

	columns, err := tableColumns(ctx, pool, tables.Jobs)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Jobs, err)
	}

	if len(columns) == 0 {
		return fmt.Errorf("validate schema %s: table %s does not exist", tables.Jobs, tables.Jobs)
	}

	if err := internal.CompareColumns(tables.Jobs, internal.ExpectedJobs(jobsColumnTypes), columns); err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Jobs, err)
	}

	return nil
}

// tableColumns returns the columns of tableName, or none when the table does
// not exist.
func tableColumns(ctx context.Context, pool *pgxpool.Pool, tableName string) ([]internal.Column, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position
	`, tableName)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}

	columns, err := pgx.CollectRows(rows, pgx.RowToStructByPos[internal.Column])
	if err != nil {
		return nil, fmt.Errorf("scan columns: %w", err)
	}

	return columns, nil
}

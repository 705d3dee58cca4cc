package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/zipstream"
	"github.com/sagarc03/zipstream/database/internal"
)

var jobsColumnTypes = map[string]string{
	"id":          "text",
	"archive_id":  "text",
	"outcome":     "text",
	"bytes_sent":  "integer",
	"chunks":      "integer",
	"exit_code":   "integer",
	"started_at":  "text",
	"finished_at": "text",
}

// ValidateSchema checks that the job history table exists with the expected
// columns.
func ValidateSchema(ctx context.Context, db *sql.DB, tables zipstream.Tables) error {
	if !zipstream.IsValidTableName(tables.Jobs) {
		return fmt.Errorf("validate schema: invalid table name: %s", tables.Jobs)
	}

	columns, err := tableColumns(ctx, db, tables.Jobs)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Jobs, err)
	}

	// PRAGMA table_info returns no rows for a missing table.
	if len(columns) == 0 {
		return fmt.Errorf("validate schema %s: table %s does not exist", tables.Jobs, tables.Jobs)
	}

	if err := internal.CompareColumns(tables.Jobs, internal.ExpectedJobs(jobsColumnTypes), columns); err != nil {
		return fmt.Errorf("validate schema %s: %w", tables.Jobs, err)
	}

	return nil
}

func tableColumns(ctx context.Context, db *sql.DB, tableName string) ([]internal.Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(tableName)))
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []internal.Column
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, dataType   string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, internal.Column{Name: name, Type: dataType, Nullable: notNull == 0})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	return columns, nil
}

// Package postgres implements the job history using PostgreSQL
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/zipstream"
	"github.com/sagarc03/zipstream/database/internal"
)

type repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func (r *repo) Record(ctx context.Context, record zipstream.JobRecord) error {
	if record.ID == uuid.Nil {
		return fmt.Errorf("record: missing id: %w", zipstream.ErrInvalidInput)
	}

	if record.ArchiveID == "" {
		return fmt.Errorf("record: missing archive id: %w", zipstream.ErrInvalidInput)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, archive_id, outcome, bytes_sent, chunks, exit_code, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, pgx.Identifier{r.tableName}.Sanitize())

	_, err := r.pool.Exec(ctx, query,
		record.ID, record.ArchiveID, string(record.Outcome), record.BytesSent,
		record.Chunks, record.ExitCode, record.StartedAt, record.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}

	return nil
}

func (r *repo) List(ctx context.Context, q zipstream.HistoryQuery) (zipstream.HistoryPage, error) {
	cursor, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return zipstream.HistoryPage{}, fmt.Errorf("list: %w", err)
	}

	limit := q.PageSize()

	conditions := "TRUE"
	var args []any

	if q.ArchiveID != "" {
		args = append(args, q.ArchiveID)
		conditions += fmt.Sprintf(" AND archive_id = $%d", len(args))
	}

	if q.Cursor != "" {
		cursorID, parseErr := uuid.Parse(cursor.ID)
		if parseErr != nil {
			return zipstream.HistoryPage{}, fmt.Errorf("list: cursor id: %w", zipstream.ErrInvalidInput)
		}
		args = append(args, cursor.FinishedAt, cursorID)
		conditions += fmt.Sprintf(" AND (finished_at, id) < ($%d, $%d)", len(args)-1, len(args))
	}

	args = append(args, limit+1)
	query := fmt.Sprintf(`
		SELECT id, archive_id, outcome, bytes_sent, chunks, exit_code, started_at, finished_at
		FROM %s
		WHERE %s
		ORDER BY finished_at DESC, id DESC
		LIMIT $%d
	`, pgx.Identifier{r.tableName}.Sanitize(), conditions, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return zipstream.HistoryPage{}, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	items := make([]zipstream.JobRecord, 0, limit)
	for rows.Next() {
		var rec zipstream.JobRecord
		var outcome string

		if scanErr := rows.Scan(&rec.ID, &rec.ArchiveID, &outcome, &rec.BytesSent, &rec.Chunks, &rec.ExitCode, &rec.StartedAt, &rec.FinishedAt); scanErr != nil {
			return zipstream.HistoryPage{}, fmt.Errorf("list: scan: %w", scanErr)
		}

		rec.Outcome = zipstream.Outcome(outcome)
		rec.StartedAt = rec.StartedAt.UTC()
		rec.FinishedAt = rec.FinishedAt.UTC()
		items = append(items, rec)
	}

	if err := rows.Err(); err != nil {
		return zipstream.HistoryPage{}, fmt.Errorf("list: rows: %w", err)
	}

	var nextCursor string
	if len(items) > limit {
		// Cursor points to the last item of the current page
		last := items[limit-1]
		nextCursor = internal.EncodeCursor(last.FinishedAt, last.ID.String())
		items = items[:limit]
	}

	return zipstream.HistoryPage{Items: items, NextCursor: nextCursor}, nil
}

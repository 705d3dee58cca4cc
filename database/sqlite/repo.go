// Package sqlite implements the job history using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/zipstream"
	"github.com/sagarc03/zipstream/database/internal"
)

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type repo struct {
	db        *sql.DB
	tableName string
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func (r *repo) Record(ctx context.Context, record zipstream.JobRecord) error {
	if record.ID == uuid.Nil {
		return fmt.Errorf("record: missing id: %w", zipstream.ErrInvalidInput)
	}

	if record.ArchiveID == "" {
		return fmt.Errorf("record: missing archive id: %w", zipstream.ErrInvalidInput)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, archive_id, outcome, bytes_sent, chunks, exit_code, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, r.tableName)

	_, err := r.db.ExecContext(ctx, query,
		record.ID.String(), record.ArchiveID, string(record.Outcome), record.BytesSent,
		record.Chunks, record.ExitCode, formatTime(record.StartedAt), formatTime(record.FinishedAt),
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

	conditions := "1 = 1"
	var args []any

	if q.ArchiveID != "" {
		conditions += " AND archive_id = ?"
		args = append(args, q.ArchiveID)
	}

	if q.Cursor != "" {
		cursorID, parseErr := uuid.Parse(cursor.ID)
		if parseErr != nil {
			return zipstream.HistoryPage{}, fmt.Errorf("list: cursor id: %w", zipstream.ErrInvalidInput)
		}
		conditions += " AND (finished_at, id) < (?, ?)"
		args = append(args, formatTime(cursor.FinishedAt), cursorID.String())
	}

	query := fmt.Sprintf(`
		SELECT id, archive_id, outcome, bytes_sent, chunks, exit_code, started_at, finished_at
		FROM %s
		WHERE %s
		ORDER BY finished_at DESC, id DESC
		LIMIT ?
	`, r.tableName, conditions)
	args = append(args, limit+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return zipstream.HistoryPage{}, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]zipstream.JobRecord, 0, limit)
	for rows.Next() {
		var rec zipstream.JobRecord
		var idStr, outcome, startedAt, finishedAt string

		if scanErr := rows.Scan(&idStr, &rec.ArchiveID, &outcome, &rec.BytesSent, &rec.Chunks, &rec.ExitCode, &startedAt, &finishedAt); scanErr != nil {
			return zipstream.HistoryPage{}, fmt.Errorf("list: scan: %w", scanErr)
		}

		var parseErr error
		rec.ID, parseErr = uuid.Parse(idStr)
		if parseErr != nil {
			return zipstream.HistoryPage{}, fmt.Errorf("list: parse uuid: %w", parseErr)
		}

		rec.StartedAt, parseErr = time.Parse(timeLayout, startedAt)
		if parseErr != nil {
			return zipstream.HistoryPage{}, fmt.Errorf("list: parse started_at: %w", parseErr)
		}

		rec.FinishedAt, parseErr = time.Parse(timeLayout, finishedAt)
		if parseErr != nil {
			return zipstream.HistoryPage{}, fmt.Errorf("list: parse finished_at: %w", parseErr)
		}

		rec.Outcome = zipstream.Outcome(outcome)
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

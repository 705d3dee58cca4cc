package zipstream

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultHistoryLimit is the page size used when a query sets none.
	DefaultHistoryLimit = 50
	// MaxHistoryLimit caps the page size of a history query.
	MaxHistoryLimit = 1000
)

// Tables holds configurable table names for job history storage.
type Tables struct {
	Jobs string `mapstructure:"jobs"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Jobs == "" {
		return errors.New("validate tables: jobs table name cannot be empty")
	}

	if !IsValidTableName(t.Jobs) {
		return fmt.Errorf("validate tables: invalid jobs table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Jobs)
	}

	return nil
}

// JobRecord is the stored summary of one finished archive job.
type JobRecord struct {
	ID         uuid.UUID `json:"id"`
	ArchiveID  string    `json:"archive_id"`
	Outcome    Outcome   `json:"outcome"`
	BytesSent  int64     `json:"bytes_sent"`
	Chunks     int       `json:"chunks"`
	ExitCode   int       `json:"exit_code"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns how long the job ran.
func (r JobRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// HistoryQuery selects a page of job records, newest first.
type HistoryQuery struct {
	// ArchiveID restricts the page to one archive when set.
	ArchiveID string
	Limit     int
	Cursor    string
}

// PageSize returns Limit bounded to [1, MaxHistoryLimit], with
// DefaultHistoryLimit for an unset limit.
func (q HistoryQuery) PageSize() int {
	switch {
	case q.Limit <= 0:
		return DefaultHistoryLimit
	case q.Limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return q.Limit
	}
}

type HistoryPage struct {
	Items      []JobRecord `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// JobHistory stores finished archive jobs.
//
// Implementations return an error wrapping ErrInvalidInput for a malformed
// cursor.
type JobHistory interface {
	Record(ctx context.Context, record JobRecord) error
	List(ctx context.Context, q HistoryQuery) (HistoryPage, error)
}

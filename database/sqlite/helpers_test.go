package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/zipstream"
	"github.com/sagarc03/zipstream/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	assert.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestRepo creates a repo with a unique table name for test isolation
func setupTestRepo(t *testing.T) zipstream.JobHistory {
	t.Helper()

	ctx := context.Background()

	tableName := fmt.Sprintf("jobs_%s", getRandomString(t))
	tables := zipstream.Tables{Jobs: tableName}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	err = db.Migrate(ctx)
	require.NoError(t, err, "failed to migrate")

	return db.GetRepo()
}

// newRecord builds a finished job that ended at finishedAt.
func newRecord(archiveID string, finishedAt time.Time) zipstream.JobRecord {
	return zipstream.JobRecord{
		ID:         uuid.New(),
		ArchiveID:  archiveID,
		Outcome:    zipstream.OutcomeCompleted,
		BytesSent:  1024,
		Chunks:     2,
		ExitCode:   0,
		StartedAt:  finishedAt.Add(-3 * time.Second),
		FinishedAt: finishedAt,
	}
}

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/zipstream"
	"github.com/sagarc03/zipstream/database/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepo_RecordAndList(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	finished := time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC)
	rec := zipstream.JobRecord{
		ID:         uuid.New(),
		ArchiveID:  "wedding1",
		Outcome:    zipstream.OutcomeFailed,
		BytesSent:  4096,
		Chunks:     7,
		ExitCode:   12,
		StartedAt:  finished.Add(-time.Minute),
		FinishedAt: finished,
	}

	require.NoError(t, repo.Record(ctx, rec))

	page, err := repo.List(ctx, zipstream.HistoryQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Empty(t, page.NextCursor)

	got := page.Items[0]
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.ArchiveID, got.ArchiveID)
	assert.Equal(t, rec.Outcome, got.Outcome)
	assert.Equal(t, rec.BytesSent, got.BytesSent)
	assert.Equal(t, rec.Chunks, got.Chunks)
	assert.Equal(t, rec.ExitCode, got.ExitCode)
	assert.True(t, rec.StartedAt.Equal(got.StartedAt), "started_at: %v != %v", rec.StartedAt, got.StartedAt)
	assert.True(t, rec.FinishedAt.Equal(got.FinishedAt), "finished_at: %v != %v", rec.FinishedAt, got.FinishedAt)
}

func TestRepo_Record_NonUTC(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	zone := time.FixedZone("EST", -5*60*60)
	early := newRecord("a", time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
	// 10:30 UTC, but its local wall clock reads 05:30.
	late := newRecord("b", time.Date(2025, 1, 1, 5, 30, 0, 0, zone))

	require.NoError(t, repo.Record(ctx, early))
	require.NoError(t, repo.Record(ctx, late))

	page, err := repo.List(ctx, zipstream.HistoryQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, late.ID, page.Items[0].ID)
	assert.Equal(t, early.ID, page.Items[1].ID)
}

func TestRepo_Record_Invalid(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		record zipstream.JobRecord
	}{
		{
			name:   "missing id",
			record: zipstream.JobRecord{ArchiveID: "party"},
		},
		{
			name:   "missing archive id",
			record: zipstream.JobRecord{ID: uuid.New()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Record(ctx, tt.record)
			assert.ErrorIs(t, err, zipstream.ErrInvalidInput)
		})
	}
}

func TestRepo_Record_DuplicateID(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	rec := newRecord("party", time.Now())
	require.NoError(t, repo.Record(ctx, rec))

	err := repo.Record(ctx, rec)
	assert.Error(t, err, "duplicate id should fail")
}

func TestRepo_List_Empty(t *testing.T) {
	repo := setupTestRepo(t)

	page, err := repo.List(context.Background(), zipstream.HistoryQuery{Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Empty(t, page.NextCursor)
}

func TestRepo_List_NewestFirst(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		require.NoError(t, repo.Record(ctx, newRecord("party", base.Add(time.Duration(i)*time.Minute))))
	}

	page, err := repo.List(ctx, zipstream.HistoryQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 5)

	for i := 1; i < len(page.Items); i++ {
		assert.True(t, page.Items[i-1].FinishedAt.After(page.Items[i].FinishedAt),
			"item %d should finish after item %d", i-1, i)
	}
}

func TestRepo_List_Pagination(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	// Two records share a finish time so the id breaks the tie.
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	want := map[uuid.UUID]bool{}
	for i := range 7 {
		finished := base.Add(time.Duration(i) * time.Second)
		if i == 4 {
			finished = base.Add(3 * time.Second)
		}
		rec := newRecord("wedding1", finished)
		want[rec.ID] = true
		require.NoError(t, repo.Record(ctx, rec))
	}

	seen := map[uuid.UUID]bool{}
	cursor := ""
	pages := 0
	for {
		page, err := repo.List(ctx, zipstream.HistoryQuery{Limit: 3, Cursor: cursor})
		require.NoError(t, err)
		pages++

		assert.LessOrEqual(t, len(page.Items), 3)
		for _, item := range page.Items {
			assert.False(t, seen[item.ID], "record %s returned twice", item.ID)
			seen[item.ID] = true
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
		require.Less(t, pages, 10, "pagination did not terminate")
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, want, seen)
}

func TestRepo_List_ExactPage(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		require.NoError(t, repo.Record(ctx, newRecord("party", base.Add(time.Duration(i)*time.Second))))
	}

	page, err := repo.List(ctx, zipstream.HistoryQuery{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.Empty(t, page.NextCursor, "no cursor when the page holds every record")
}

func TestRepo_List_ArchiveFilter(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Record(ctx, newRecord("party", base)))
	require.NoError(t, repo.Record(ctx, newRecord("wedding1", base.Add(time.Second))))
	require.NoError(t, repo.Record(ctx, newRecord("party", base.Add(2*time.Second))))

	page, err := repo.List(ctx, zipstream.HistoryQuery{ArchiveID: "party"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	for _, item := range page.Items {
		assert.Equal(t, "party", item.ArchiveID)
	}

	page, err = repo.List(ctx, zipstream.HistoryQuery{ArchiveID: "missing"})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestRepo_List_InvalidCursor(t *testing.T) {
	repo := setupTestRepo(t)

	tests := []struct {
		name   string
		cursor string
	}{
		{name: "bad encoding", cursor: "not-valid-base64!!!"},
		{name: "id is not a uuid", cursor: internal.EncodeCursor(time.Now(), "wedding1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.List(context.Background(), zipstream.HistoryQuery{Cursor: tt.cursor})
			assert.ErrorIs(t, err, zipstream.ErrInvalidInput)
		})
	}
}

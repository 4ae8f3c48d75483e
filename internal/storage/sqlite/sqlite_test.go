package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmetcalf21/data-integrity-validator/internal/records"
	"github.com/bmetcalf21/data-integrity-validator/internal/storage"
	"github.com/bmetcalf21/data-integrity-validator/internal/storage/sqldb"
)

func TestOpen_EmptyDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), " ")
	assert.Error(t, err)
}

func TestRoundTrip_InMemory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer repo.Close()

	cols := []string{"apn", "status", "violation reason"}
	require.NoError(t, EnsureTable(ctx, repo, "properties", cols))
	// Second call is a no-op.
	require.NoError(t, EnsureTable(ctx, repo, "properties", cols))

	n, err := repo.CopyFrom(ctx, "properties", cols, [][]any{
		{"123-456-78", "Active", ""},
		{"123-456-79", "Sold", "x"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	var status string
	require.NoError(t, repo.DB().QueryRowContext(ctx,
		`SELECT "status" FROM "properties" WHERE "apn" = ?`, "123-456-79").Scan(&status))
	assert.Equal(t, "Sold", status)
}

func TestPublish_ThroughRegistry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo, err := storage.New(ctx, storage.Config{Kind: Kind, DSN: ":memory:"})
	require.NoError(t, err)
	defer repo.Close()

	tbl := records.Table{
		Name:    "events",
		Columns: []string{"apn", "event_type"},
		Rows: []records.Record{
			{"apn": "123-456-78", "event_type": "Postponed"},
			{"apn": "123-456-78", "event_type": "Sold"},
			{"apn": "123-456-79", "event_type": "Scheduled"},
		},
	}
	written, err := storage.Publish(ctx, repo, storage.PublishOptions{
		Kind:        Kind,
		TablePrefix: "dq_",
		BatchSize:   2,
		AutoCreate:  true,
	}, tbl)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"dq_events": 3}, written)

	var count int
	sq, ok := repo.(*sqldb.Repository)
	require.True(t, ok, "sqlite kind should yield *sqldb.Repository, got %T", repo)
	require.NoError(t, sq.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM "dq_events"`).Scan(&count))
	assert.Equal(t, 3, count)
}

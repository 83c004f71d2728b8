package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nulzo/prism-local/internal/store"
	"github.com/nulzo/prism-local/internal/store/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) store.Repository {
	t.Helper()
	repo, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "prism.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRequestLogs(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	logs := []*model.RequestLog{
		{ID: "req-1", ModelID: "model1", Engine: "nitro", StatusCode: 200, LatencyMS: 120, BytesRelayed: 512, IsStreamed: true, CreatedAt: now.Add(-time.Minute)},
		{ID: "req-2", ModelID: "model2", Engine: "openai", StatusCode: 502, LatencyMS: 3, ErrorMessage: sql.NullString{String: "connection refused", Valid: true}, CreatedAt: now},
	}
	for _, l := range logs {
		require.NoError(t, repo.Requests().Log(ctx, l))
	}

	got, err := repo.Requests().GetByID(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "model1", got.ModelID)
	assert.True(t, got.IsStreamed)
	assert.Equal(t, int64(512), got.BytesRelayed)
	assert.True(t, got.CreatedAt.Equal(now.Add(-time.Minute)))

	recent, err := repo.Requests().GetRecent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "req-2", recent[0].ID)
	assert.Equal(t, "connection refused", recent[0].ErrorMessage.String)

	byModel, err := repo.Requests().GetRecent(ctx, "model1", 10)
	require.NoError(t, err)
	require.Len(t, byModel, 1)

	stats, err := repo.Requests().GetDailyStats(ctx, 7)
	require.NoError(t, err)
	require.NotEmpty(t, stats)

	var total, failed int
	for _, s := range stats {
		total += s.TotalRequests
		failed += s.FailedCount
	}
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, failed)
}

func TestGetByID_NotFound(t *testing.T) {
	repo := newRepo(t)

	_, err := repo.Requests().GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestWithTx_RollsBack(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.WithTx(ctx, func(tx store.Repository) error {
		require.NoError(t, tx.Audit().Log(ctx, &model.AuditEvent{
			ID: "evt-1", TargetResource: "model/model1", Action: "model.delete", DetailsJSON: "{}", CreatedAt: time.Now().UTC(),
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	events, err := repo.Audit().ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prism.db")

	first, err := NewSQLiteStorage(path, nil)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewSQLiteStorage(path, nil)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

//go:build integration

package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"clip_service/internal/trending/domain"
	"clip_service/pkg/database"
	"clip_service/pkg/logger"
	testtool "clip_service/pkg/test_tool"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pool *pgxpool.Pool

func TestMain(m *testing.M) {
	logger.SetNewNop()
	ctx := context.Background()

	// **啟動 PostgreSQL**
	container, dsn, err := testtool.StartPostgres(ctx)
	if err != nil {
		log.Fatalf("❌ Failed to start PostgreSQL container: %v", err)
	}
	fmt.Printf("✅ PostgreSQL running at %s\n", dsn)

	pool, err = database.NewDatabaseConnection(database.Connection{ConnectStr: dsn, RetryCount: 5, RetryInterval: 2})
	if err != nil {
		log.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
	}
	if err := testtool.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	code := m.Run()

	pool.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func resetTables(t *testing.T) {
	_, err := pool.Exec(context.Background(), "TRUNCATE items, trending_scores")
	require.NoError(t, err)
}

func insertItem(t *testing.T, id, status string, plays, shares int64, published *time.Time) {
	_, err := pool.Exec(context.Background(),
		"INSERT INTO items (id, status, play_count, share_count, published_at) VALUES ($1, $2, $3, $4, $5)",
		id, status, plays, shares, published)
	require.NoError(t, err)
}

func TestScoreRepo_ListLiveCandidates(t *testing.T) {
	resetTables(t)
	published := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	insertItem(t, "b", "live", 10, 1, &published)
	insertItem(t, "a", "live", 5, 0, nil)
	insertItem(t, "c", "failed", 99, 9, nil)

	got, err := NewScoreRepo(pool).ListLiveCandidates(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ItemID)
	assert.Nil(t, got[0].PublishedAt)
	assert.Equal(t, "b", got[1].ItemID)
	assert.Equal(t, int64(10), got[1].PlayCount)
	assert.True(t, published.Equal(*got[1].PublishedAt))
}

func TestScoreRepo_ReplaceScores(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewScoreRepo(pool)

	first := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.ReplaceScores(ctx, []domain.TrendingScore{
		{ItemID: "a", Score: 10, Rank: 1},
		{ItemID: "b", Score: 5, Rank: 2},
	}, first))

	second := first.Add(15 * time.Minute)
	require.NoError(t, repo.ReplaceScores(ctx, []domain.TrendingScore{
		{ItemID: "b", Score: 50, Rank: 1},
		{ItemID: "c", Score: 7.5, Rank: 2},
	}, second))

	got, err := repo.ListScores(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "b", got[0].ItemID)
	assert.Equal(t, 50.0, got[0].Score)
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, "c", got[1].ItemID)
	for _, s := range got {
		assert.True(t, second.Equal(s.ComputedAt))
	}
}

func TestScoreRepo_ReplaceWithEmptySetClearsTable(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewScoreRepo(pool)

	require.NoError(t, repo.ReplaceScores(ctx, []domain.TrendingScore{{ItemID: "a", Score: 1, Rank: 1}}, time.Now()))
	require.NoError(t, repo.ReplaceScores(ctx, nil, time.Now()))

	got, err := repo.ListScores(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

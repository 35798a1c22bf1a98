package repository_test

import (
	"context"
	"testing"
	"time"

	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/player"
	"ctchen222/tictactoe/internal/repository"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestScoreRepository(t *testing.T) {
	rdb := startRedis(t)
	ctx := context.Background()
	repo := repository.NewScoreRepository(rdb, time.Hour)

	scores, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, game.Scores{}, scores)

	_, err = repo.Increment(ctx, "s1", game.X)
	require.NoError(t, err)
	_, err = repo.Increment(ctx, "s1", game.O)
	require.NoError(t, err)
	scores, err = repo.Increment(ctx, "s1", game.X)
	require.NoError(t, err)
	assert.Equal(t, game.Scores{X: 2, O: 1}, scores)

	ttl, err := rdb.TTL(ctx, "scores:s1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	_, err = repo.Increment(ctx, "s1", game.Empty)
	assert.Error(t, err)

	scores, err = repo.Get(ctx, "unknown")
	require.NoError(t, err)
	assert.Equal(t, game.Scores{}, scores)
}

func TestPresenceRepository(t *testing.T) {
	rdb := startRedis(t)
	ctx := context.Background()
	repo := repository.NewPresenceRepository(rdb, time.Hour)

	sessionID, status, err := repo.FindSession(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, sessionID)
	assert.Empty(t, status)

	require.NoError(t, repo.SetOnline(ctx, "p1", "s1"))
	sessionID, status, err = repo.FindSession(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sessionID)
	assert.Equal(t, player.StatusConnected, status)

	require.NoError(t, repo.SetOffline(ctx, "p1"))
	sessionID, status, err = repo.FindSession(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sessionID)
	assert.Equal(t, player.StatusDisconnected, status)
}

package leaderboard

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLeaderboard(t *testing.T) (*redis.Client, *RedisLeaderboard) {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // 테스트용 DB
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available:", err)
	}

	// 테스트 전 DB 초기화
	client.FlushDB(ctx)

	return client, NewRedisLeaderboard(client, "battles")
}

func TestRedisLeaderboard_TopOrdering(t *testing.T) {
	client, lb := setupLeaderboard(t)
	defer client.Close()

	ctx := context.Background()

	require.NoError(t, lb.SetRating(ctx, "alice", 1450))
	require.NoError(t, lb.SetRating(ctx, "bob", 1200))
	require.NoError(t, lb.SetRating(ctx, "carol", 1800))

	entries, err := lb.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "carol", entries[0].UserID)
	assert.Equal(t, int64(1), entries[0].Rank)
	assert.Equal(t, "alice", entries[1].UserID)
	assert.Equal(t, "bob", entries[2].UserID)
	assert.Equal(t, int64(3), entries[2].Rank)
}

func TestRedisLeaderboard_SetRatingUpdates(t *testing.T) {
	client, lb := setupLeaderboard(t)
	defer client.Close()

	ctx := context.Background()

	require.NoError(t, lb.SetRating(ctx, "alice", 1200))
	require.NoError(t, lb.SetRating(ctx, "alice", 1232))

	rating, err := lb.Rating(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1232, rating)

	size, err := lb.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)
}

func TestRedisLeaderboard_Rank(t *testing.T) {
	client, lb := setupLeaderboard(t)
	defer client.Close()

	ctx := context.Background()

	require.NoError(t, lb.SetRating(ctx, "alice", 1500))
	require.NoError(t, lb.SetRating(ctx, "bob", 1600))

	rank, err := lb.Rank(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rank)

	_, err = lb.Rank(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotRanked)
}

func TestRedisLeaderboard_Rebuild(t *testing.T) {
	client, lb := setupLeaderboard(t)
	defer client.Close()

	ctx := context.Background()

	require.NoError(t, lb.SetRating(ctx, "stale", 999))

	require.NoError(t, lb.Rebuild(ctx, map[string]int{
		"alice": 1400,
		"bob":   1300,
	}))

	size, err := lb.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)

	_, err = lb.Rank(ctx, "stale")
	assert.ErrorIs(t, err, ErrNotRanked)
}

package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisLimiter(t *testing.T) (*redis.Client, *RedisRateLimiter) {
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

	limiter := NewRedisRateLimiter(client, "test:ratelimit:", 60, time.Minute)
	return client, limiter
}

func TestRedisRateLimiter_Allow(t *testing.T) {
	client, limiter := setupRedisLimiter(t)
	defer client.Close()

	ctx := context.Background()

	// 5회 요청 모두 허용
	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "user1", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, fmt.Sprintf("request %d should be allowed", i+1))
	}

	// 6번째 요청 거부
	allowed, err := limiter.Allow(ctx, "user1", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed, "6th request should be denied")
}

func TestRedisRateLimiter_AllowWithInfo(t *testing.T) {
	client, limiter := setupRedisLimiter(t)
	defer client.Close()

	ctx := context.Background()

	allowed, info, err := limiter.AllowWithInfo(ctx, "user2", 10, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 10, info.Limit)
	assert.Equal(t, 9, info.Remaining)
	assert.False(t, info.ResetTime.IsZero())
}

func TestRedisRateLimiter_SeparateKeys(t *testing.T) {
	client, limiter := setupRedisLimiter(t)
	defer client.Close()

	ctx := context.Background()

	// user1의 토큰 소진
	for i := 0; i < 3; i++ {
		_, err := limiter.Allow(ctx, "user1", 3, time.Minute)
		require.NoError(t, err)
	}

	allowed, err := limiter.Allow(ctx, "user1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// user2는 별도 버킷
	allowed, err = limiter.Allow(ctx, "user2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_Reset(t *testing.T) {
	client, limiter := setupRedisLimiter(t)
	defer client.Close()

	ctx := context.Background()

	_, err := limiter.Allow(ctx, "user3", 1, time.Minute)
	require.NoError(t, err)

	allowed, err := limiter.Allow(ctx, "user3", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	require.NoError(t, limiter.Reset(ctx, "user3"))

	allowed, err = limiter.Allow(ctx, "user3", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

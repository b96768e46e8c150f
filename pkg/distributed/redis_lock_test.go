package distributed

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLockManager(t *testing.T) (*redis.Client, *RedisLockManager) {
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

	return client, NewRedisLockManager(client)
}

func TestRedisLock_AcquireRelease(t *testing.T) {
	client, manager := setupLockManager(t)
	defer client.Close()

	ctx := context.Background()

	lock, err := manager.AcquireLock(ctx, "test:lock", "instance-a", 5*time.Second)
	require.NoError(t, err)

	held, err := lock.IsHeld(ctx)
	require.NoError(t, err)
	assert.True(t, held)

	// 다른 값으로는 획득 불가
	_, err = manager.AcquireLock(ctx, "test:lock", "instance-b", 5*time.Second)
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	require.NoError(t, lock.Release(ctx))

	// 해제 후 재획득 가능
	lock2, err := manager.AcquireLock(ctx, "test:lock", "instance-b", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, lock2.Release(ctx))
}

func TestRedisLock_ReleaseOnlyOwn(t *testing.T) {
	client, manager := setupLockManager(t)
	defer client.Close()

	ctx := context.Background()

	lock, err := manager.AcquireLock(ctx, "test:lock:own", "owner", 5*time.Second)
	require.NoError(t, err)

	// 소유자가 아닌 락 객체는 해제 실패
	impostor := &RedisLock{client: client, key: "test:lock:own", value: "impostor"}
	assert.ErrorIs(t, impostor.Release(ctx), ErrLockNotHeld)

	require.NoError(t, lock.Release(ctx))
}

func TestRedisLock_Extend(t *testing.T) {
	client, manager := setupLockManager(t)
	defer client.Close()

	ctx := context.Background()

	lock, err := manager.AcquireLock(ctx, "test:lock:extend", "owner", 1*time.Second)
	require.NoError(t, err)

	require.NoError(t, lock.Extend(ctx, 10*time.Second))

	ttl, err := client.TTL(ctx, "test:lock:extend").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 5*time.Second)

	require.NoError(t, lock.Release(ctx))
}

func TestRedisLock_BattleResolution(t *testing.T) {
	client, manager := setupLockManager(t)
	defer client.Close()

	ctx := context.Background()

	// 같은 배틀에 대해 첫 락만 성공
	lock, err := manager.LockBattleResolution(ctx, "battle-123", 5*time.Second)
	require.NoError(t, err)

	_, err = manager.LockBattleResolution(ctx, "battle-123", 5*time.Second)
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	// 다른 배틀은 독립적
	other, err := manager.LockBattleResolution(ctx, "battle-456", 5*time.Second)
	require.NoError(t, err)

	require.NoError(t, lock.Release(ctx))
	require.NoError(t, other.Release(ctx))
}

func TestRedisLock_TryLockWithRetry(t *testing.T) {
	client, manager := setupLockManager(t)
	defer client.Close()

	ctx := context.Background()

	// 짧은 TTL의 락을 선점
	_, err := manager.AcquireLock(ctx, "test:lock:retry", "holder", 500*time.Millisecond)
	require.NoError(t, err)

	// TTL 만료를 기다리며 재시도하면 성공한다
	lock, err := manager.TryLockWithRetry(ctx, "test:lock:retry", "waiter", 5*time.Second, 5, 300*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, lock.Release(ctx))
}

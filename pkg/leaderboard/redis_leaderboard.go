package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var ErrNotRanked = errors.New("user not ranked")

// Entry 리더보드 항목
type Entry struct {
	UserID string `json:"userId"`
	Rating int    `json:"rating"`
	Rank   int64  `json:"rank"` // 1부터 시작
}

// RedisLeaderboard Redis Sorted Set 기반 레이팅 리더보드
// 배틀 결과가 기록될 때마다 갱신되고, 조회는 DB를 거치지 않는다.
type RedisLeaderboard struct {
	client *redis.Client
	key    string
}

// NewRedisLeaderboard 리더보드 생성
func NewRedisLeaderboard(client *redis.Client, name string) *RedisLeaderboard {
	return &RedisLeaderboard{
		client: client,
		key:    fmt.Sprintf("leaderboard:%s", name),
	}
}

// SetRating 사용자 레이팅 기록 (있으면 갱신)
func (l *RedisLeaderboard) SetRating(ctx context.Context, userID string, rating int) error {
	err := l.client.ZAdd(ctx, l.key, redis.Z{
		Score:  float64(rating),
		Member: userID,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to set rating: %w", err)
	}
	return nil
}

// Top 상위 N명 조회 (레이팅 내림차순)
func (l *RedisLeaderboard) Top(ctx context.Context, limit int64) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	results, err := l.client.ZRevRangeWithScores(ctx, l.key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get top entries: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for i, z := range results {
		userID, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			UserID: userID,
			Rating: int(z.Score),
			Rank:   int64(i) + 1,
		})
	}

	return entries, nil
}

// Rank 사용자의 현재 순위 조회 (1부터 시작)
func (l *RedisLeaderboard) Rank(ctx context.Context, userID string) (int64, error) {
	rank, err := l.client.ZRevRank(ctx, l.key, userID).Result()
	if err == redis.Nil {
		return 0, ErrNotRanked
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get rank: %w", err)
	}

	return rank + 1, nil
}

// Rating 사용자의 캐시된 레이팅 조회
func (l *RedisLeaderboard) Rating(ctx context.Context, userID string) (int, error) {
	score, err := l.client.ZScore(ctx, l.key, userID).Result()
	if err == redis.Nil {
		return 0, ErrNotRanked
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get rating: %w", err)
	}

	return int(score), nil
}

// Remove 사용자 제거
func (l *RedisLeaderboard) Remove(ctx context.Context, userID string) error {
	return l.client.ZRem(ctx, l.key, userID).Err()
}

// Size 등록된 사용자 수
func (l *RedisLeaderboard) Size(ctx context.Context) (int64, error) {
	return l.client.ZCard(ctx, l.key).Result()
}

// Rebuild 리더보드 전체 재구축 (DB 기준으로 복구할 때 사용)
func (l *RedisLeaderboard) Rebuild(ctx context.Context, ratings map[string]int) error {
	pipe := l.client.Pipeline()
	pipe.Del(ctx, l.key)

	for userID, rating := range ratings {
		pipe.ZAdd(ctx, l.key, redis.Z{
			Score:  float64(rating),
			Member: userID,
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to rebuild leaderboard: %w", err)
	}

	return nil
}

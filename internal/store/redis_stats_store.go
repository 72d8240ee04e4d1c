package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"openlibrary-explorer/internal/analytics"
	"openlibrary-explorer/internal/models"
)

// DefaultPrefix namespaces the stats keys.
const DefaultPrefix = "explorer:stats:"

const memberSep = "\x1f"

type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	ZIncrBy(ctx context.Context, key string, increment float64, member string) *redis.FloatCmd
	HIncrBy(ctx context.Context, key, field string, incr int64) *redis.IntCmd
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisStatsStore keeps a sorted set of queries by popularity and a hash of outcome counts.
type RedisStatsStore struct {
	client    redisClient
	prefix    string
	tokenizer *analytics.Tokenizer
}

// NewRedisStatsStore initializes a Redis-backed StatsStore.
func NewRedisStatsStore(addr, prefix string) *RedisStatsStore {
	return NewRedisStatsStoreWithClient(redis.NewClient(&redis.Options{Addr: addr}), prefix)
}

// NewRedisStatsStoreWithClient builds a store around an existing client (tests).
func NewRedisStatsStoreWithClient(client redisClient, prefix string) *RedisStatsStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisStatsStore{client: client, prefix: prefix, tokenizer: analytics.NewTokenizer()}
}

// Ping checks connectivity.
func (s *RedisStatsStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *RedisStatsStore) Close() error {
	return s.client.Close()
}

func (s *RedisStatsStore) popularKey() string { return s.prefix + "popular" }
func (s *RedisStatsStore) outcomesKey() string { return s.prefix + "outcomes" }

// MarkSeen claims requestID for ttl.
func (s *RedisStatsStore) MarkSeen(ctx context.Context, requestID string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, s.prefix+"seen:"+requestID, "1", ttl).Result()
}

// Record counts one event. Only successful queries count towards popularity; every event counts
// towards its outcome.
func (s *RedisStatsStore) Record(ctx context.Context, event models.SearchEvent) error {
	if err := s.client.HIncrBy(ctx, s.outcomesKey(), event.Outcome, 1).Err(); err != nil {
		return err
	}
	if event.Outcome != "ok" {
		return nil
	}
	return s.client.ZIncrBy(ctx, s.popularKey(), 1, s.member(event)).Err()
}

// Stats returns the n most popular queries and the outcome counts.
func (s *RedisStatsStore) Stats(ctx context.Context, n int) (models.QueryStats, error) {
	stats := models.QueryStats{Popular: []models.QueryCount{}, Outcomes: map[string]int64{}}
	if n > 0 {
		zs, err := s.client.ZRevRangeWithScores(ctx, s.popularKey(), 0, int64(n-1)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return stats, err
		}
		for _, z := range zs {
			member, _ := z.Member.(string)
			facet, query, _ := strings.Cut(member, memberSep)
			stats.Popular = append(stats.Popular, models.QueryCount{
				Facet: models.Facet(facet),
				Query: query,
				Count: int64(z.Score),
			})
		}
	}

	outcomes, err := s.client.HGetAll(ctx, s.outcomesKey()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return stats, err
	}
	for outcome, raw := range outcomes {
		count, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		stats.Outcomes[outcome] = count
	}
	return stats, nil
}

// member folds case and surrounding space so "Dune" and " dune" count together.
func (s *RedisStatsStore) member(event models.SearchEvent) string {
	return string(event.Facet) + memberSep + s.tokenizer.Lower(strings.TrimSpace(event.Query))
}

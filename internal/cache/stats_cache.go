// Package cache holds read-model caches backed by Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/operalog/api/internal/domain"
)

// StatsKey is the Redis key holding the report statistics snapshot.
const StatsKey = "operalog:reports:stats"

// StatsCache stores the report statistics snapshot.
type StatsCache interface {
	Get(ctx context.Context) (*domain.ReportStats, bool, error)
	Set(ctx context.Context, stats *domain.ReportStats) error
	Invalidate(ctx context.Context) error
}

// RedisStatsCache keeps the snapshot as JSON with a TTL.
type RedisStatsCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisStatsCache builds a cache. A nil client or non-positive ttl
// disables caching.
func NewRedisStatsCache(client redis.Cmdable, ttl time.Duration) StatsCache {
	if client == nil || ttl <= 0 {
		return NopStatsCache{}
	}
	return &RedisStatsCache{client: client, ttl: ttl}
}

// Get returns the cached snapshot, or false on a miss.
func (c *RedisStatsCache) Get(ctx context.Context) (*domain.ReportStats, bool, error) {
	raw, err := c.client.Get(ctx, StatsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stats domain.ReportStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false, err
	}
	return &stats, true, nil
}

// Set stores the snapshot.
func (c *RedisStatsCache) Set(ctx context.Context, stats *domain.ReportStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, StatsKey, raw, c.ttl).Err()
}

// Invalidate drops the snapshot.
func (c *RedisStatsCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, StatsKey).Err()
}

// NopStatsCache never stores anything.
type NopStatsCache struct{}

func (NopStatsCache) Get(context.Context) (*domain.ReportStats, bool, error) { return nil, false, nil }
func (NopStatsCache) Set(context.Context, *domain.ReportStats) error       { return nil }
func (NopStatsCache) Invalidate(context.Context) error                     { return nil }

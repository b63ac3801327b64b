package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operalog/api/internal/domain"
)

func TestNewRedisStatsCacheDisabled(t *testing.T) {
	assert.IsType(t, NopStatsCache{}, NewRedisStatsCache(nil, time.Minute))

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })
	assert.IsType(t, NopStatsCache{}, NewRedisStatsCache(client, 0))
	assert.IsType(t, &RedisStatsCache{}, NewRedisStatsCache(client, time.Minute))
}

func TestNopStatsCache(t *testing.T) {
	ctx := context.Background()
	c := NopStatsCache{}

	require.NoError(t, c.Set(ctx, &domain.ReportStats{TotalReports: 3}))
	stats, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, stats)
	assert.NoError(t, c.Invalidate(ctx))
}

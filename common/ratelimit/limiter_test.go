package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lyzr/imagestore/common/config"
	"github.com/lyzr/imagestore/common/logger"
	rediscommon "github.com/lyzr/imagestore/common/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, cfg Config) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })

	return NewRateLimiter(rediscommon.NewClient(raw, logger.Nop()), cfg, logger.Nop()), mr
}

func TestCheckClientLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t, Config{ClientLimit: 2, GlobalLimit: 100, WindowSeconds: 60})
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		res, err := limiter.CheckClientLimit(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, int64(i), res.CurrentCount)
	}

	res, err := limiter.CheckClientLimit(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(2), res.Limit)
	assert.Positive(t, res.RetryAfterSeconds)

	// Other clients have their own counter
	res, err = limiter.CheckClientLimit(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	require.NoError(t, limiter.ResetClient(ctx, "10.0.0.1"))
	res, err = limiter.CheckClientLimit(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestWindowExpiry(t *testing.T) {
	limiter, mr := newTestLimiter(t, Config{ClientLimit: 1, GlobalLimit: 1, WindowSeconds: 60})
	ctx := context.Background()

	res, err := limiter.CheckGlobalLimit(ctx)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = limiter.CheckGlobalLimit(ctx)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	mr.FastForward(61 * time.Second)

	res, err = limiter.CheckGlobalLimit(ctx)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestCheck_RedisDown(t *testing.T) {
	limiter, mr := newTestLimiter(t, DefaultConfig)
	mr.Close()

	_, err := limiter.CheckGlobalLimit(context.Background())
	assert.Error(t, err)
}

func TestFromServiceConfig(t *testing.T) {
	cfg := FromServiceConfig(config.RateLimitConfig{Enabled: true, PerMinute: 5})
	assert.Equal(t, int64(5), cfg.ClientLimit)
	assert.Equal(t, DefaultConfig.GlobalLimit, cfg.GlobalLimit)
	assert.Equal(t, 60, cfg.WindowSeconds)
}

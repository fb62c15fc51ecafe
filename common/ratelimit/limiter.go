package ratelimit

import (
	"context"
	_ "embed"
	"fmt"

	rediscommon "github.com/lyzr/imagestore/common/redis"
	"github.com/redis/go-redis/v9"
)

//go:embed rate_limit.lua
var rateLimitScript string

// Logger interface for logging
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Debug(msg string, keysAndValues ...any)
}

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	Allowed           bool  // Whether the request is allowed
	CurrentCount      int64 // Current count in the window
	Limit             int64 // The limit that was checked
	RetryAfterSeconds int64 // Seconds until the limit resets (0 if allowed)
}

// RateLimiter counts requests per fixed window using Redis + Lua
type RateLimiter struct {
	client *rediscommon.Client
	script *redis.Script
	cfg    Config
	logger Logger
}

// NewRateLimiter creates a new rate limiter with embedded Lua script
func NewRateLimiter(client *rediscommon.Client, cfg Config, logger Logger) *RateLimiter {
	if cfg.WindowSeconds <= 0 {
		cfg.WindowSeconds = DefaultConfig.WindowSeconds
	}
	return &RateLimiter{
		client: client,
		script: redis.NewScript(rateLimitScript),
		cfg:    cfg,
		logger: logger,
	}
}

// Config returns the limits in effect
func (r *RateLimiter) Config() Config {
	return r.cfg
}

// CheckGlobalLimit checks the service-wide upload limit
func (r *RateLimiter) CheckGlobalLimit(ctx context.Context) (*RateLimitResult, error) {
	return r.checkLimit(ctx, "rate_limit:upload:global", r.cfg.GlobalLimit)
}

// CheckClientLimit checks the upload limit for one client address
func (r *RateLimiter) CheckClientLimit(ctx context.Context, clientIP string) (*RateLimitResult, error) {
	key := fmt.Sprintf("rate_limit:upload:client:%s", clientIP)
	return r.checkLimit(ctx, key, r.cfg.ClientLimit)
}

// checkLimit executes the rate limit Lua script
func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit int64) (*RateLimitResult, error) {
	result, err := r.client.RunScript(ctx, r.script, []string{key}, limit, r.cfg.WindowSeconds)
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	// {allowed, current_count, limit, retry_after}
	values, ok := result.([]any)
	if !ok || len(values) != 4 {
		return nil, fmt.Errorf("unexpected script result format")
	}

	fields := make([]int64, 4)
	for i, v := range values {
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("unexpected script result element %d: %T", i, v)
		}
		fields[i] = n
	}

	res := &RateLimitResult{
		Allowed:           fields[0] == 1,
		CurrentCount:      fields[1],
		Limit:             fields[2],
		RetryAfterSeconds: fields[3],
	}

	if !res.Allowed {
		r.logger.Warn("rate limit exceeded",
			"key", key,
			"current", res.CurrentCount,
			"limit", limit,
			"retry_after", res.RetryAfterSeconds)
	} else {
		r.logger.Debug("rate limit check passed",
			"key", key,
			"current", res.CurrentCount,
			"limit", limit)
	}

	return res, nil
}

// ResetClient clears the counter for one client address
func (r *RateLimiter) ResetClient(ctx context.Context, clientIP string) error {
	return r.client.Delete(ctx, fmt.Sprintf("rate_limit:upload:client:%s", clientIP))
}

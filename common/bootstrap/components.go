package bootstrap

import (
	"context"
	"fmt"

	"github.com/lyzr/imagestore/common/config"
	"github.com/lyzr/imagestore/common/db"
	"github.com/lyzr/imagestore/common/logger"
	"github.com/lyzr/imagestore/common/ratelimit"
	rediscommon "github.com/lyzr/imagestore/common/redis"
	"github.com/lyzr/imagestore/common/storage"
	"github.com/lyzr/imagestore/common/store"
	"github.com/lyzr/imagestore/common/telemetry"
)

// Components holds all initialized service dependencies
type Components struct {
	Config      *config.Config
	Logger      *logger.Logger
	Store       store.Store
	Provider    storage.Provider
	Redis       *rediscommon.Client // nil unless a component needs Redis
	DB          *db.DB              // nil unless STORE_BACKEND=postgres
	RateLimiter *ratelimit.RateLimiter
	Telemetry   *telemetry.Telemetry

	// Internal
	cleanupFuncs []func() error
}

// Shutdown performs graceful shutdown of all components
// Should be called with defer after Setup()
func (c *Components) Shutdown(ctx context.Context) error {
	c.Logger.Info("shutting down components")

	var errs []error

	// LIFO
	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](); err != nil {
			errs = append(errs, err)
			c.Logger.Error("cleanup error", "error", err)
		}
	}
	c.cleanupFuncs = nil

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	c.Logger.Info("shutdown complete")
	return nil
}

// Health checks the remote dependencies
func (c *Components) Health(ctx context.Context) error {
	if c.DB != nil {
		if err := c.DB.Ping(ctx); err != nil {
			return fmt.Errorf("database unhealthy: %w", err)
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Ping(ctx); err != nil {
			return fmt.Errorf("redis unhealthy: %w", err)
		}
	}

	return nil
}

// addCleanup registers a cleanup function
func (c *Components) addCleanup(fn func() error) {
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
}

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

// Setup initializes all service components
// This is the main entry point for the service
func Setup(ctx context.Context, serviceName string, opts ...Option) (*Components, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	components := &Components{
		cleanupFuncs: make([]func() error, 0),
	}

	// 1. Load configuration
	var err error
	if options.customConfig != nil {
		components.Config = options.customConfig
	} else {
		components.Config, err = config.Load(serviceName, options.envFiles...)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	cfg := components.Config

	// 2. Initialize logger
	if options.customLogger != nil {
		components.Logger = options.customLogger
	} else {
		components.Logger = logger.New(cfg.Service.LogLevel, cfg.Service.LogFormat)
	}
	log := components.Logger

	log.Info("initializing service",
		"service", serviceName,
		"environment", cfg.Service.Environment,
	)

	// fail is used after the first resource is acquired
	fail := func(err error) (*Components, error) {
		_ = components.Shutdown(ctx)
		return nil, err
	}

	// 3. Redis (document store and/or rate limiter)
	if cfg.NeedsRedis() {
		client, err := rediscommon.NewFromAddr(ctx, rediscommon.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
		switch {
		case err == nil:
			components.Redis = client
			components.addCleanup(func() error {
				log.Info("closing redis connection")
				return client.Close()
			})
		case cfg.Store.Backend == config.StoreRedis && options.customStore == nil:
			return fail(fmt.Errorf("failed to connect to redis: %w", err))
		default:
			log.Warn("redis unavailable, rate limiting disabled", "error", err)
		}
	}

	// 4. Record store
	if options.customStore != nil {
		components.Store = options.customStore
	} else {
		components.Store, err = newStore(ctx, components)
		if err != nil {
			return fail(fmt.Errorf("failed to initialize record store: %w", err))
		}
	}
	recordStore := components.Store
	components.addCleanup(func() error {
		return recordStore.Close()
	})

	// 5. Storage provider
	if options.customProvider != nil {
		components.Provider = options.customProvider
	} else {
		components.Provider, err = storage.New(ctx, cfg.Storage, log)
		if err != nil {
			return fail(fmt.Errorf("failed to initialize storage provider: %w", err))
		}
	}

	// 6. Rate limiter
	if cfg.RateLimit.Enabled && components.Redis != nil {
		components.RateLimiter = ratelimit.NewRateLimiter(
			components.Redis,
			ratelimit.FromServiceConfig(cfg.RateLimit),
			log,
		)
	}

	// 7. Telemetry (if not skipped)
	if !options.skipTelemetry && cfg.Telemetry.EnablePprof {
		log.Info("initializing telemetry")
		components.Telemetry = telemetry.New(cfg.Telemetry.PprofPort, log)

		if err := components.Telemetry.Start(ctx); err != nil {
			// Don't fail startup if telemetry fails
			log.Warn("failed to start telemetry", "error", err)
		}
		tel := components.Telemetry
		components.addCleanup(func() error {
			return tel.Stop(context.Background())
		})
	}

	log.Info("service initialization complete",
		"service", serviceName,
		"store", cfg.Store.Backend,
		"provider", components.Provider.Name(),
		"redis", components.Redis != nil,
		"rate_limit", components.RateLimiter != nil,
		"telemetry", components.Telemetry != nil,
	)

	return components, nil
}

// newStore builds the record store selected by STORE_BACKEND
func newStore(ctx context.Context, c *Components) (store.Store, error) {
	cfg := c.Config
	log := c.Logger

	switch cfg.Store.Backend {
	case config.StoreFile:
		log.Info("using file record store", "path", cfg.Store.DataFile)
		return store.NewFileStore(cfg.Store.DataFile, log)

	case config.StoreMemory:
		log.Warn("using in-memory record store, records are lost on restart")
		return store.NewMemoryStore(), nil

	case config.StoreRedis:
		log.Info("using redis record store", "key", cfg.Store.RedisKey)
		return store.NewRedisStore(c.Redis, cfg.Store.RedisKey, log), nil

	case config.StoreBadger:
		log.Info("using badger record store", "dir", cfg.Store.BadgerDir)
		return store.NewBadgerStore(cfg.Store.BadgerDir, log)

	case config.StorePostgres:
		log.Info("connecting to database")
		database, err := db.Open(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.DB = database
		c.addCleanup(func() error {
			database.Close()
			return nil
		})
		return store.NewPostgresStore(ctx, database, log)

	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
	}
}

// MustSetup is like Setup but panics on error
func MustSetup(ctx context.Context, serviceName string, opts ...Option) *Components {
	components, err := Setup(ctx, serviceName, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to setup service %s: %v", serviceName, err))
	}
	return components
}

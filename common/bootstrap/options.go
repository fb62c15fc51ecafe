package bootstrap

import (
	"github.com/lyzr/imagestore/common/config"
	"github.com/lyzr/imagestore/common/logger"
	"github.com/lyzr/imagestore/common/storage"
	"github.com/lyzr/imagestore/common/store"
)

// Option configures the bootstrap process
type Option func(*options)

type options struct {
	skipTelemetry  bool
	customLogger   *logger.Logger
	customConfig   *config.Config
	customStore    store.Store
	customProvider storage.Provider
	envFiles       []string
}

// WithoutTelemetry skips telemetry initialization
func WithoutTelemetry() Option {
	return func(o *options) {
		o.skipTelemetry = true
	}
}

// WithCustomLogger uses a custom logger instead of creating one
func WithCustomLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.customLogger = log
	}
}

// WithCustomConfig uses a custom config instead of loading from env
func WithCustomConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.customConfig = cfg
	}
}

// WithStore uses the given record store instead of building one from config
func WithStore(s store.Store) Option {
	return func(o *options) {
		o.customStore = s
	}
}

// WithProvider uses the given storage provider instead of building one
func WithProvider(p storage.Provider) Option {
	return func(o *options) {
		o.customProvider = p
	}
}

// WithEnvFiles loads these .env files before reading the environment
func WithEnvFiles(files ...string) Option {
	return func(o *options) {
		o.envFiles = files
	}
}

func defaultOptions() *options {
	return &options{}
}

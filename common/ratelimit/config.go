package ratelimit

import "github.com/lyzr/imagestore/common/config"

// Config holds the limits applied to upload endpoints
type Config struct {
	ClientLimit   int64 // Requests per window for one client address
	GlobalLimit   int64 // Requests per window across all clients
	WindowSeconds int
}

// DefaultConfig is used when nothing is configured
var DefaultConfig = Config{
	ClientLimit:   30,
	GlobalLimit:   300,
	WindowSeconds: 60,
}

// FromServiceConfig derives limits from the service configuration
func FromServiceConfig(cfg config.RateLimitConfig) Config {
	out := DefaultConfig
	if cfg.PerMinute > 0 {
		out.ClientLimit = cfg.PerMinute
	}
	if cfg.GlobalPerMin > 0 {
		out.GlobalLimit = cfg.GlobalPerMin
	}
	return out
}

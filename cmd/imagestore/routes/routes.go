package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/imagestore/cmd/imagestore/container"
	"github.com/lyzr/imagestore/cmd/imagestore/handlers"
	commonmw "github.com/lyzr/imagestore/common/middleware"
)

// Prefixes the API is mounted under. /api keeps clients of the legacy
// deployment working.
var Prefixes = []string{"", "/api"}

// RegisterAll builds the handlers once and mounts every route under each
// prefix
func RegisterAll(e *echo.Echo, c *container.Container) {
	images := handlers.NewImageHandler(c)
	batch := handlers.NewBatchHandler(c)
	health := handlers.NewHealthHandler(c)
	debug := handlers.NewDebugHandler(c)

	var upload []echo.MiddlewareFunc
	if c.Components.RateLimiter != nil {
		upload = append(upload, commonmw.UploadRateLimitMiddleware(c.Components.RateLimiter))
	}

	for _, prefix := range Prefixes {
		g := e.Group(prefix)
		RegisterHealthRoutes(g, health)
		RegisterImageRoutes(g, images, batch, upload...)
		RegisterDebugRoutes(g, debug)
	}

	c.Components.Logger.Info("routes registered",
		"prefixes", Prefixes,
		"upload_rate_limit", len(upload) > 0,
	)
}

package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/imagestore/cmd/imagestore/handlers"
)

// RegisterHealthRoutes registers liveness and diagnostics
func RegisterHealthRoutes(g *echo.Group, h *handlers.HealthHandler) {
	g.GET("/health", h.Health)                  // GET /health
	g.GET("/health/detailed", h.DetailedHealth) // GET /health/detailed
}

// RegisterDebugRoutes registers store diagnostics
func RegisterDebugRoutes(g *echo.Group, h *handlers.DebugHandler) {
	g.GET("/debug/store-status", h.StoreStatus)
	g.GET("/debug/db-status", h.StoreStatus) // legacy name
}

package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/imagestore/cmd/imagestore/container"
	"github.com/lyzr/imagestore/common/bootstrap"
	"github.com/lyzr/imagestore/common/metrics"
)

// HealthHandler serves liveness and diagnostics
type HealthHandler struct {
	components *bootstrap.Components
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(c *container.Container) *HealthHandler {
	return &HealthHandler{
		components: c.Components,
	}
}

// HealthResponse is the liveness body
type HealthResponse struct {
	OK        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	Version   string `json:"version"`
}

// DetailedHealthResponse adds process and host information
type DetailedHealthResponse struct {
	Status      string              `json:"status"`
	Timestamp   string              `json:"timestamp"`
	Uptime      float64             `json:"uptime"` // seconds
	Memory      metrics.MemoryStats `json:"memory"`
	Environment string              `json:"environment"`
	GoVersion   string              `json:"goVersion"`
	Platform    string              `json:"platform"`
	Store       string              `json:"store"`
	Provider    string              `json:"provider"`
	System      *metrics.SystemInfo `json:"system"`
	Error       string              `json:"error,omitempty"`
}

// Health reports liveness
// GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	cfg := h.components.Config
	return c.JSON(http.StatusOK, HealthResponse{
		OK:        true,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Service:   cfg.Service.Name,
		Version:   cfg.Service.Version,
	})
}

// DetailedHealth reports runtime details and checks remote dependencies.
// An unreachable dependency answers 503 with status "degraded".
// GET /health/detailed
func (h *HealthHandler) DetailedHealth(c echo.Context) error {
	cfg := h.components.Config

	resp := DetailedHealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		Uptime:      metrics.Uptime().Seconds(),
		Memory:      metrics.CaptureMemory(),
		Environment: cfg.Service.Environment,
		GoVersion:   runtime.Version(),
		Platform:    runtime.GOOS + "/" + runtime.GOARCH,
		Store:       cfg.Store.Backend,
		Provider:    h.components.Provider.Name(),
		System:      metrics.GetSystemInfo(),
	}

	status := http.StatusOK
	if err := h.components.Health(c.Request().Context()); err != nil {
		status = http.StatusServiceUnavailable
		resp.Status = "degraded"
		resp.Error = err.Error()
	}

	return c.JSON(status, resp)
}

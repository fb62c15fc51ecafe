package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/imagestore/cmd/imagestore/container"
	"github.com/lyzr/imagestore/common/bootstrap"
	"github.com/lyzr/imagestore/common/store"
)

// DebugHandler exposes store diagnostics
type DebugHandler struct {
	components *bootstrap.Components
}

// NewDebugHandler creates a new debug handler
func NewDebugHandler(c *container.Container) *DebugHandler {
	return &DebugHandler{
		components: c.Components,
	}
}

// StoreStatus describes the record store. Records are only included in
// development.
// GET /debug/store-status
func (h *DebugHandler) StoreStatus(c echo.Context) error {
	reporter, ok := h.components.Store.(store.StatusReporter)
	if !ok {
		return echo.NewHTTPError(http.StatusNotImplemented, "record store does not report status")
	}

	status, err := reporter.Status(c.Request().Context())
	if err != nil {
		return writeError(c, h.components.Logger, err)
	}

	if !h.components.Config.IsDevelopment() {
		status.Records = nil
	}
	return c.JSON(http.StatusOK, status)
}

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/imagestore/cmd/imagestore/container"
	"github.com/lyzr/imagestore/cmd/imagestore/service"
	"github.com/lyzr/imagestore/common/logger"
	"github.com/lyzr/imagestore/common/models"
)

// BatchHandler serves multi-record reads
type BatchHandler struct {
	images *service.ImageService
	log    *logger.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(c *container.Container) *BatchHandler {
	return &BatchHandler{
		images: c.ImageService,
		log:    c.Components.Logger,
	}
}

// BatchRequest carries the ids to fetch. IDs stays untyped so the service
// can drop non-string entries instead of rejecting the whole request.
type BatchRequest struct {
	IDs any `json:"ids"`
}

// GetBatch returns the records for up to 50 ids in request order
// POST /images/batch
func (h *BatchHandler) GetBatch(c echo.Context) error {
	var req BatchRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		if he := asHTTPError(err); he != nil {
			return he
		}
		return writeError(c, h.log, fmt.Errorf("%w: ids array is required and must not be empty", models.ErrInvalidRequest))
	}

	records, err := h.images.BatchGet(c.Request().Context(), req.IDs)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, records)
}

// GetStats aggregates the catalogue by format and tag
// GET /images/batch/stats
func (h *BatchHandler) GetStats(c echo.Context) error {
	stats, err := h.images.Stats(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, stats)
}

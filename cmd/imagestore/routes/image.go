package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/imagestore/cmd/imagestore/handlers"
)

// RegisterImageRoutes registers the catalogue routes. upload middleware
// (rate limiting) applies to the routes that accept files. Static
// segments are registered before /:id.
func RegisterImageRoutes(g *echo.Group, h *handlers.ImageHandler, b *handlers.BatchHandler, upload ...echo.MiddlewareFunc) {
	images := g.Group("/images")
	{
		images.POST("", h.CreateImage, upload...)               // POST /images
		images.POST("/bulk", h.BulkUpload, upload...)           // POST /images/bulk
		images.GET("", h.ListImages)                            // GET /images?search=&tag=&filter=&page=&limit=
		images.POST("/batch", b.GetBatch)                       // POST /images/batch
		images.GET("/batch/stats", b.GetStats)                  // GET /images/batch/stats
		images.GET("/:id", h.GetImage)                          // GET /images/{id}
		images.PATCH("/:id", h.UpdateImage)                     // PATCH /images/{id}
		images.POST("/:id/file", h.ReplaceImageFile, upload...) // POST /images/{id}/file
		images.DELETE("/:id", h.DeleteImage)                    // DELETE /images/{id}
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/imagestore/cmd/imagestore/container"
	"github.com/lyzr/imagestore/cmd/imagestore/service"
	"github.com/lyzr/imagestore/common/logger"
	"github.com/lyzr/imagestore/common/models"
)

// Multipart field names
const (
	imageField  = "image"
	imagesField = "images"
)

// MIMEApplicationJSONPatch selects RFC 6902 handling on PATCH
const MIMEApplicationJSONPatch = "application/json-patch+json"

// ImageHandler handles the image catalogue endpoints
type ImageHandler struct {
	images *service.ImageService
	log    *logger.Logger
}

// NewImageHandler creates a new image handler
func NewImageHandler(c *container.Container) *ImageHandler {
	return &ImageHandler{
		images: c.ImageService,
		log:    c.Components.Logger,
	}
}

// BulkResponse is the body of a bulk upload
type BulkResponse struct {
	Success int                  `json:"success"`
	Failed  int                  `json:"failed"`
	Results []models.ImageRecord `json:"results"`
	Errors  []service.BulkError  `json:"errors"`
}

// DeleteResponse confirms a delete
type DeleteResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

// CreateImage uploads one image with its metadata
// POST /images
func (h *ImageHandler) CreateImage(c echo.Context) error {
	ctx := c.Request().Context()

	file, err := readFormFile(c, imageField)
	if err != nil {
		return h.fail(c, err)
	}

	record, err := h.images.Create(ctx, file, service.Fields{
		Width:      formInt(c, "width"),
		Height:     formInt(c, "height"),
		Alt:        c.FormValue("alt"),
		Tags:       c.FormValue("tags"),
		CustomJSON: c.FormValue("custom"),
		Title:      c.FormValue("title"),
	})
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusCreated, record)
}

// BulkUpload uploads several images in one request
// POST /images/bulk
func (h *ImageHandler) BulkUpload(c echo.Context) error {
	ctx := c.Request().Context()

	form, err := c.MultipartForm()
	if err != nil {
		if he := asHTTPError(err); he != nil {
			return he
		}
		return h.fail(c, fmt.Errorf("%w: no files uploaded", models.ErrMissingFile))
	}

	headers := form.File[imagesField]
	files := make([]service.FileUpload, 0, len(headers))
	for _, fh := range headers {
		file, err := readFileHeader(fh)
		if err != nil {
			return h.fail(c, err)
		}
		files = append(files, file)
	}

	result, err := h.images.BulkCreate(ctx, files, c.FormValue("tags"))
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusCreated, BulkResponse{
		Success: len(result.Results),
		Failed:  len(result.Errors),
		Results: result.Results,
		Errors:  result.Errors,
	})
}

// ListImages searches, filters and pages the catalogue
// GET /images?search=&tag=&filter=&page=&limit=
func (h *ImageHandler) ListImages(c echo.Context) error {
	// unparsable numbers fall back to the defaults
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := h.images.List(c.Request().Context(), service.ListQuery{
		Search: c.QueryParam("search"),
		Tag:    c.QueryParam("tag"),
		Filter: c.QueryParam("filter"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// GetImage returns one record
// GET /images/:id
func (h *ImageHandler) GetImage(c echo.Context) error {
	record, err := h.images.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// UpdateImage updates title, alt, tags or custom. A JSON object body is a
// merge; an application/json-patch+json body is an RFC 6902 patch.
// PATCH /images/:id
func (h *ImageHandler) UpdateImage(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	mediaType, _, _ := mime.ParseMediaType(c.Request().Header.Get(echo.HeaderContentType))
	if mediaType == MIMEApplicationJSONPatch {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			if he := asHTTPError(err); he != nil {
				return he
			}
			return h.fail(c, fmt.Errorf("%w: failed to read body: %w", models.ErrInvalidRequest, err))
		}

		record, err := h.images.ApplyJSONPatch(ctx, id, body)
		if err != nil {
			return h.fail(c, err)
		}
		return c.JSON(http.StatusOK, record)
	}

	var body map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		if he := asHTTPError(err); he != nil {
			return he
		}
		return h.fail(c, fmt.Errorf("%w: request body must be a JSON object", models.ErrInvalidRequest))
	}

	patch, err := h.images.ParsePatch(body)
	if err != nil {
		return h.fail(c, err)
	}

	record, err := h.images.Update(ctx, id, patch)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// ReplaceImageFile swaps the binary behind an existing record
// POST /images/:id/file
func (h *ImageHandler) ReplaceImageFile(c echo.Context) error {
	file, err := readFormFile(c, imageField)
	if err != nil {
		return h.fail(c, err)
	}

	record, err := h.images.ReplaceFile(c.Request().Context(), c.Param("id"), file)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// DeleteImage removes a record and its binary
// DELETE /images/:id
func (h *ImageHandler) DeleteImage(c echo.Context) error {
	id, err := h.images.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, DeleteResponse{OK: true, ID: id})
}

func (h *ImageHandler) fail(c echo.Context, err error) error {
	if he := asHTTPError(err); he != nil {
		return he
	}
	return writeError(c, h.log, err)
}

// readFormFile reads a single multipart file. A missing field or a
// non-multipart body is MissingFile.
func readFormFile(c echo.Context, field string) (service.FileUpload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if he := asHTTPError(err); he != nil {
			return service.FileUpload{}, he
		}
		return service.FileUpload{}, fmt.Errorf("%w: no file uploaded", models.ErrMissingFile)
	}
	return readFileHeader(fh)
}

func readFileHeader(fh *multipart.FileHeader) (service.FileUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return service.FileUpload{}, fmt.Errorf("%w: failed to open upload: %w", models.ErrInvalidRequest, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return service.FileUpload{}, fmt.Errorf("%w: failed to read upload: %w", models.ErrInvalidRequest, err)
	}

	return service.FileUpload{
		Data:         data,
		MimeType:     fh.Header.Get(echo.HeaderContentType),
		OriginalName: fh.Filename,
	}, nil
}

// formInt parses an optional integer form field; bad input is 0 (unknown)
func formInt(c echo.Context, name string) int {
	n, err := strconv.Atoi(c.FormValue(name))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// asHTTPError extracts framework errors such as the body limit so they reach
// the echo error handler unchanged
func asHTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return nil
}

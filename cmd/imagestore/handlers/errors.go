package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/imagestore/common/logger"
	"github.com/lyzr/imagestore/common/models"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// statusFor maps the error taxonomy to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrMissingFile),
		errors.Is(err, models.ErrUnsupportedType),
		errors.Is(err, models.ErrUploadFailed),
		errors.Is(err, models.ErrTooManyIds),
		errors.Is(err, models.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {error, message}. Unnamed errors are reported
// as InternalError without leaking their text.
func writeError(c echo.Context, log *logger.Logger, err error) error {
	status := statusFor(err)
	name := models.ErrorName(err)

	resp := ErrorResponse{Error: name}
	switch {
	case name == "":
		resp.Error = "InternalError"
		resp.Message = "Internal server error"
	default:
		resp.Message = strings.TrimPrefix(err.Error(), name+": ")
	}

	reqLog := log.WithContext(c.Request().Context())
	if status >= http.StatusInternalServerError {
		reqLog.Error("request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
	} else {
		reqLog.Debug("request rejected", "path", c.Path(), "error", err)
	}

	return c.JSON(status, resp)
}

// ErrorHandler replaces echo's default error handler so framework errors
// (unknown routes, body limits, binding) and domain errors share one shape
func ErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(err, &he) {
			if werr := writeError(c, log, err); werr != nil {
				log.Error("failed to write error response", "error", werr)
			}
			return
		}

		status := he.Code
		resp := ErrorResponse{
			Error:   http.StatusText(he.Code),
			Message: fmt.Sprint(he.Message),
		}
		switch he.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			status = http.StatusNotFound
			resp = ErrorResponse{Error: "Endpoint not found"}
		case http.StatusRequestEntityTooLarge:
			resp.Error = models.ErrPayloadTooLarge.Error()
			resp.Message = "request body is too large"
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, resp)
		}
		if err != nil {
			log.Error("failed to write error response", "error", err)
		}
	}
}

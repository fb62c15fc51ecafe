package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// HeaderAPIKey carries the shared secret
const HeaderAPIKey = "x-api-key"

// APIKeyAuth requires the x-api-key header to match apiKey. An empty apiKey
// disables the check. Health endpoints stay open for liveness checks.
func APIKeyAuth(apiKey string) echo.MiddlewareFunc {
	expected := []byte(apiKey)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if apiKey == "" || isHealthPath(c.Request().URL.Path) {
				return next(c)
			}

			provided := []byte(c.Request().Header.Get(HeaderAPIKey))
			if subtle.ConstantTimeCompare(provided, expected) != 1 {
				return c.JSON(http.StatusUnauthorized, map[string]any{
					"error":   "Unauthorized",
					"message": "Valid API key required",
				})
			}

			return next(c)
		}
	}
}

func isHealthPath(path string) bool {
	path = strings.TrimPrefix(path, "/api")
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

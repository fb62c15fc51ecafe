package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// CORS allows the configured origins. Requests without an Origin header
// (curl, server to server) pass; a present but unlisted origin is rejected
// with 403 instead of being served without CORS headers. "*" allows any.
func CORS(origins []string) echo.MiddlewareFunc {
	allowAll := slices.Contains(origins, "*")

	cors := echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderContentType,
			echo.HeaderAuthorization,
			HeaderAPIKey,
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withCORS := cors(next)
		return func(c echo.Context) error {
			origin := c.Request().Header.Get(echo.HeaderOrigin)
			if origin != "" && !allowAll && !slices.Contains(origins, origin) {
				return c.JSON(http.StatusForbidden, map[string]any{
					"error":   "CORSBlocked",
					"message": "Origin not allowed by CORS policy",
				})
			}
			return withCORS(c)
		}
	}
}

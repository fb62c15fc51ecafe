package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/imagestore/common/ratelimit"
)

// UploadRateLimitMiddleware limits upload requests per client address and
// across the whole service. Redis errors let the request through.
func UploadRateLimitMiddleware(limiter *ratelimit.RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			result, err := limiter.CheckGlobalLimit(ctx)
			if err != nil {
				// fail open for availability
				return next(c)
			}
			if !result.Allowed {
				return tooManyRequests(c, "Service is receiving too many uploads. Please try again later.", result)
			}

			result, err = limiter.CheckClientLimit(ctx, c.RealIP())
			if err != nil {
				return next(c)
			}
			if !result.Allowed {
				return tooManyRequests(c, "You have exceeded your upload quota. Please wait before trying again.", result)
			}

			return next(c)
		}
	}
}

func tooManyRequests(c echo.Context, message string, result *ratelimit.RateLimitResult) error {
	c.Response().Header().Set("Retry-After", strconv.FormatInt(result.RetryAfterSeconds, 10))
	return c.JSON(http.StatusTooManyRequests, map[string]any{
		"error":   "RateLimitExceeded",
		"message": message,
		"details": map[string]any{
			"limit":               result.Limit,
			"current_count":       result.CurrentCount,
			"retry_after_seconds": result.RetryAfterSeconds,
		},
	})
}

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lyzr/imagestore/cmd/imagestore/container"
	"github.com/lyzr/imagestore/cmd/imagestore/handlers"
	imagemw "github.com/lyzr/imagestore/cmd/imagestore/middleware"
	"github.com/lyzr/imagestore/cmd/imagestore/routes"
	"github.com/lyzr/imagestore/common/bootstrap"
	"github.com/lyzr/imagestore/common/config"
	"github.com/lyzr/imagestore/common/logger"
	"github.com/lyzr/imagestore/common/server"
)

// formOverhead is room for the non-file multipart fields
const formOverhead = 1 << 20

func serve(ctx context.Context, envFiles []string) error {
	// Bootstrap common components (config, logger, store, provider, redis, telemetry)
	components, err := bootstrap.Setup(ctx, serviceName, bootstrap.WithEnvFiles(envFiles...))
	if err != nil {
		return fmt.Errorf("failed to bootstrap %s: %w", serviceName, err)
	}
	defer components.Shutdown(ctx)

	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		return fmt.Errorf("failed to initialize service container: %w", err)
	}

	e := setupEcho(components.Logger)
	setupMiddleware(e, components.Config, components.Logger)
	routes.RegisterAll(e, serviceContainer)

	cfg := components.Config
	components.Logger.Info("starting "+serviceName,
		"port", cfg.Service.Port,
		"environment", cfg.Service.Environment,
	)

	srv := server.New(serviceName, cfg.Service.Port, e, components.Logger)
	return srv.Start(ctx)
}

// setupEcho initializes the Echo server with the shared error shape
func setupEcho(log *logger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler(log)
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo, cfg *config.Config, log *logger.Logger) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.ContextWithRequestID(req.Context(), id)))
		},
	}))
	e.Use(requestLogger(log))
	e.Use(imagemw.CORS(cfg.Security.CORSOrigins))
	e.Use(imagemw.APIKeyAuth(cfg.Security.APIKey))

	bodyLimit := cfg.Upload.MaxFileSize*int64(cfg.Upload.MaxBulkFiles) + formOverhead
	e.Use(middleware.BodyLimit(strconv.FormatInt(bodyLimit, 10)))
}

// requestLogger feeds echo's request log into the service logger
func requestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			args := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				log.Warn("request", append(args, "error", v.Error)...)
				return nil
			}
			log.Info("request", args...)
			return nil
		},
	})
}

package container

import (
	"fmt"

	"github.com/lyzr/imagestore/cmd/imagestore/service"
	"github.com/lyzr/imagestore/common/bootstrap"
)

// Container holds the services built once at startup and shared by every
// handler
type Container struct {
	Components *bootstrap.Components

	// Services
	ImageService *service.ImageService
}

// NewContainer builds the services from the bootstrapped components
func NewContainer(components *bootstrap.Components) (*Container, error) {
	imageService, err := service.NewImageService(
		components.Store,
		components.Provider,
		components.Config.Upload,
		components.Telemetry,
		components.Logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create image service: %w", err)
	}

	return &Container{
		Components:   components,
		ImageService: imageService,
	}, nil
}

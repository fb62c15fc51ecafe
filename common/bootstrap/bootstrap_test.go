package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lyzr/imagestore/common/config"
	"github.com/lyzr/imagestore/common/logger"
	"github.com/lyzr/imagestore/common/models"
	"github.com/lyzr/imagestore/common/storage"
	"github.com/lyzr/imagestore/common/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopProvider struct{}

func (nopProvider) Name() string { return models.ProviderBlob }

func (nopProvider) Upload(ctx context.Context, in storage.UploadInput) (*storage.UploadResult, error) {
	return &storage.UploadResult{}, nil
}

func (nopProvider) Delete(ctx context.Context, ref models.StorageRef) error { return nil }

func TestSetup_FileStore(t *testing.T) {
	cfg := config.Defaults("imagestore-test")
	cfg.Store.DataFile = filepath.Join(t.TempDir(), "images.json")

	c, err := Setup(context.Background(), "imagestore-test",
		WithCustomConfig(cfg),
		WithCustomLogger(logger.Nop()),
		WithProvider(nopProvider{}),
		WithoutTelemetry(),
	)
	require.NoError(t, err)
	defer c.Shutdown(context.Background())

	assert.IsType(t, &store.FileStore{}, c.Store)
	assert.Nil(t, c.Redis)
	assert.Nil(t, c.RateLimiter)
	assert.NoError(t, c.Health(context.Background()))
}

func TestSetup_CustomStore(t *testing.T) {
	cfg := config.Defaults("imagestore-test")
	mem := store.NewMemoryStore()

	c, err := Setup(context.Background(), "imagestore-test",
		WithCustomConfig(cfg),
		WithCustomLogger(logger.Nop()),
		WithStore(mem),
		WithProvider(nopProvider{}),
	)
	require.NoError(t, err)

	assert.Same(t, mem, c.Store)
	assert.NoError(t, c.Shutdown(context.Background()))
}

func TestSetup_BadgerStore(t *testing.T) {
	cfg := config.Defaults("imagestore-test")
	cfg.Store.Backend = config.StoreBadger
	cfg.Store.BadgerDir = t.TempDir()

	c, err := Setup(context.Background(), "imagestore-test",
		WithCustomConfig(cfg),
		WithCustomLogger(logger.Nop()),
		WithProvider(nopProvider{}),
	)
	require.NoError(t, err)
	assert.IsType(t, &store.BadgerStore{}, c.Store)
	assert.NoError(t, c.Shutdown(context.Background()))
}

func TestSetup_CDNWithoutCredentialsFails(t *testing.T) {
	cfg := config.Defaults("imagestore-test")
	cfg.Store.Backend = config.StoreMemory
	cfg.Storage.Provider = config.ProviderCDN

	_, err := Setup(context.Background(), "imagestore-test",
		WithCustomConfig(cfg),
		WithCustomLogger(logger.Nop()),
	)
	assert.Error(t, err)
}

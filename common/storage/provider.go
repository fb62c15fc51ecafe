// Package storage uploads and deletes image binaries at an external
// provider. The service picks one provider at startup and records its name
// on every ImageRecord it creates.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/lyzr/imagestore/common/config"
	"github.com/lyzr/imagestore/common/logger"
	"github.com/lyzr/imagestore/common/models"
)

// ErrProviderMismatch is returned by Delete when the ref was written by a
// different provider than the active one
var ErrProviderMismatch = errors.New("storage provider mismatch")

// Provider stores image binaries
type Provider interface {
	Name() string
	Upload(ctx context.Context, in UploadInput) (*UploadResult, error)
	Delete(ctx context.Context, ref models.StorageRef) error
}

// UploadInput is one binary to store under Filename
type UploadInput struct {
	Data     []byte
	Filename string
	MimeType string
}

// UploadResult describes a stored binary. Width and Height are zero when
// the provider does not report them.
type UploadResult struct {
	URL     string
	Storage models.StorageRef
	Width   int
	Height  int
}

// New builds the provider selected in cfg
func New(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderBlob:
		return NewBlobProvider(ctx, cfg.S3, log)
	case config.ProviderCDN:
		return NewCDNProvider(cfg.Cloudinary, log)
	default:
		return nil, fmt.Errorf("unknown storage provider: %q", cfg.Provider)
	}
}

// BestEffort runs a cleanup step whose failure must not fail the caller.
// Errors are logged and swallowed.
func BestEffort(ctx context.Context, log *logger.Logger, op string, fn func(ctx context.Context) error) {
	if err := fn(ctx); err != nil {
		if errors.Is(err, ErrProviderMismatch) {
			log.Warn("skipped storage cleanup", "op", op, "reason", err)
			return
		}
		log.Warn("storage cleanup failed", "op", op, "error", err)
	}
}

// checkProvider rejects refs created by another provider
func checkProvider(p Provider, ref models.StorageRef) error {
	if ref.Provider != p.Name() {
		return fmt.Errorf("%w: record uses %q, active provider is %q", ErrProviderMismatch, ref.Provider, p.Name())
	}
	return nil
}

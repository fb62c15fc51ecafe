package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/lyzr/imagestore/common/config"
	"github.com/lyzr/imagestore/common/logger"
	"github.com/lyzr/imagestore/common/models"
)

var _ Provider = (*CDNProvider)(nil)

// cdnAPI is the subset of the Cloudinary upload API the provider calls
type cdnAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CDNProvider stores binaries on Cloudinary
type CDNProvider struct {
	client cdnAPI
	folder string
	log    *logger.Logger
}

// NewCDNProvider creates a Cloudinary client from cfg
func NewCDNProvider(cfg config.CloudinaryConfig, log *logger.Logger) (*CDNProvider, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("CLOUDINARY_NAME, CLOUDINARY_KEY and CLOUDINARY_SECRET are required for the cdn provider")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}

	log.Info("cdn storage configured", "cloud", cfg.CloudName, "folder", cfg.Folder)
	return newCDNProvider(&cld.Upload, cfg.Folder, log), nil
}

func newCDNProvider(client cdnAPI, folder string, log *logger.Logger) *CDNProvider {
	return &CDNProvider{client: client, folder: folder, log: log}
}

// Name returns "cdn"
func (p *CDNProvider) Name() string {
	return models.ProviderCDN
}

// Upload sends the binary into the configured folder. The public id is the
// filename without its extension; existing assets are never overwritten.
func (p *CDNProvider) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	publicID := strings.TrimSuffix(in.Filename, filepath.Ext(in.Filename))

	res, err := p.client.Upload(ctx, bytes.NewReader(in.Data), uploader.UploadParams{
		PublicID:       publicID,
		Folder:         p.folder,
		Overwrite:      api.Bool(false),
		UniqueFilename: api.Bool(true),
		ResourceType:   "auto",
	})
	if err != nil {
		p.log.Error("cdn upload failed", "public_id", publicID, "error", err)
		return nil, fmt.Errorf("failed to upload %s: %w", publicID, err)
	}
	if res == nil {
		return nil, fmt.Errorf("failed to upload %s: empty response", publicID)
	}
	if res.Error.Message != "" {
		p.log.Error("cdn upload rejected", "public_id", publicID, "error", res.Error.Message)
		return nil, fmt.Errorf("failed to upload %s: %s", publicID, res.Error.Message)
	}

	p.log.Info("cdn asset uploaded", "public_id", res.PublicID, "version", res.Version)

	return &UploadResult{
		URL: res.SecureURL,
		Storage: models.StorageRef{
			Provider:  models.ProviderCDN,
			PublicID:  res.PublicID,
			Version:   res.Version,
			Signature: res.Signature,
		},
		Width:  res.Width,
		Height: res.Height,
	}, nil
}

// Delete destroys the asset at ref.PublicID. "not found" counts as success.
func (p *CDNProvider) Delete(ctx context.Context, ref models.StorageRef) error {
	if err := checkProvider(p, ref); err != nil {
		return err
	}
	if ref.PublicID == "" {
		return fmt.Errorf("%w: cdn ref has no public id", models.ErrStorageProvider)
	}

	res, err := p.client.Destroy(ctx, uploader.DestroyParams{PublicID: ref.PublicID})
	if err != nil {
		return fmt.Errorf("%w: destroy %s: %w", models.ErrStorageProvider, ref.PublicID, err)
	}
	if res == nil {
		return fmt.Errorf("%w: destroy %s: empty response", models.ErrStorageProvider, ref.PublicID)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("%w: destroy %s: %s", models.ErrStorageProvider, ref.PublicID, res.Error.Message)
	}

	switch res.Result {
	case "ok", "not found":
		p.log.Info("cdn asset deleted", "public_id", ref.PublicID, "result", res.Result)
		return nil
	default:
		return fmt.Errorf("%w: destroy %s: result %q", models.ErrStorageProvider, ref.PublicID, res.Result)
	}
}

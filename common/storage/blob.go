package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lyzr/imagestore/common/config"
	"github.com/lyzr/imagestore/common/logger"
	"github.com/lyzr/imagestore/common/models"
)

var _ Provider = (*BlobProvider)(nil)

// s3API is the subset of *s3.Client the blob provider calls
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// BlobProvider stores binaries in an S3-compatible bucket
type BlobProvider struct {
	client s3API
	cfg    config.S3Config
	log    *logger.Logger
}

// NewBlobProvider creates an S3 client from cfg. Static credentials are used
// when both keys are set, otherwise the default AWS credential chain.
func NewBlobProvider(ctx context.Context, cfg config.S3Config, log *logger.Logger) (*BlobProvider, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	log.Info("blob storage configured",
		"bucket", cfg.Bucket,
		"region", cfg.Region,
		"endpoint", cfg.Endpoint,
	)

	return newBlobProvider(client, cfg, log), nil
}

func newBlobProvider(client s3API, cfg config.S3Config, log *logger.Logger) *BlobProvider {
	return &BlobProvider{client: client, cfg: cfg, log: log}
}

// Name returns "blob"
func (p *BlobProvider) Name() string {
	return models.ProviderBlob
}

// Upload puts the binary under <prefix>/<filename>
func (p *BlobProvider) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	key := p.objectKey(in.Filename)

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(in.Data),
		ContentType:   aws.String(in.MimeType),
		ContentLength: aws.Int64(int64(len(in.Data))),
	})
	if err != nil {
		p.log.Error("failed to upload object", "key", key, "error", err)
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	objectURL := p.objectURL(key)
	p.log.Info("object uploaded", "key", key, "size", len(in.Data))

	return &UploadResult{
		URL: objectURL,
		Storage: models.StorageRef{
			Provider: models.ProviderBlob,
			BlobURL:  objectURL,
			Pathname: key,
		},
	}, nil
}

// Delete removes the object at ref.Pathname
func (p *BlobProvider) Delete(ctx context.Context, ref models.StorageRef) error {
	if err := checkProvider(p, ref); err != nil {
		return err
	}
	if ref.Pathname == "" {
		return fmt.Errorf("%w: blob ref has no pathname", models.ErrStorageProvider)
	}

	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.cfg.Bucket),
		Key:    aws.String(ref.Pathname),
	})
	if err != nil {
		return fmt.Errorf("%w: delete %s: %w", models.ErrStorageProvider, ref.Pathname, err)
	}

	p.log.Info("object deleted", "key", ref.Pathname)
	return nil
}

func (p *BlobProvider) objectKey(filename string) string {
	prefix := strings.Trim(p.cfg.KeyPrefix, "/")
	if prefix == "" {
		return filename
	}
	return path.Join(prefix, filename)
}

func (p *BlobProvider) objectURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	switch {
	case p.cfg.PublicURL != "":
		return p.cfg.PublicURL + "/" + escaped
	case p.cfg.Endpoint != "":
		return strings.TrimRight(p.cfg.Endpoint, "/") + "/" + p.cfg.Bucket + "/" + escaped
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.cfg.Bucket, p.cfg.Region, escaped)
	}
}

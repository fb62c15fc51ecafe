package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/lyzr/imagestore/common/config"
	"github.com/lyzr/imagestore/common/logger"
	"github.com/lyzr/imagestore/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
	delErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.delErr != nil {
		return nil, f.delErr
	}
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

type fakeCDN struct {
	lastUpload uploader.UploadParams
	uploadRes  *uploader.UploadResult
	uploadErr  error
	destroyRes *uploader.DestroyResult
	destroyed  []string
}

func (f *fakeCDN) Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	f.lastUpload = params
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.uploadRes, nil
}

func (f *fakeCDN) Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.destroyed = append(f.destroyed, params.PublicID)
	return f.destroyRes, nil
}

func TestGenerateSafeFilename(t *testing.T) {
	name := GenerateSafeFilename("my photo (1).png")
	assert.Regexp(t, regexp.MustCompile(`^\d{13}_[0-9a-f]{8}_my_photo__1_.png$`), name)

	other := GenerateSafeFilename("my photo (1).png")
	assert.NotEqual(t, name, other)

	assert.Regexp(t, `_caf_\.jpg$`, GenerateSafeFilename("café.jpg"))
}

func TestBlobProvider_UploadAndDelete(t *testing.T) {
	fake := newFakeS3()
	p := newBlobProvider(fake, config.S3Config{
		Bucket:    "images",
		Region:    "us-east-1",
		KeyPrefix: "uploads/",
		PublicURL: "https://cdn.example.com",
	}, logger.Nop())

	res, err := p.Upload(context.Background(), UploadInput{
		Data:     []byte("png-bytes"),
		Filename: "1_abcd1234_cat.png",
		MimeType: "image/png",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/uploads/1_abcd1234_cat.png", res.URL)
	assert.Equal(t, models.ProviderBlob, res.Storage.Provider)
	assert.Equal(t, "uploads/1_abcd1234_cat.png", res.Storage.Pathname)
	assert.Equal(t, res.URL, res.Storage.BlobURL)
	assert.Equal(t, []byte("png-bytes"), fake.objects["uploads/1_abcd1234_cat.png"])
	assert.Equal(t, "image/png", fake.types["uploads/1_abcd1234_cat.png"])

	require.NoError(t, p.Delete(context.Background(), res.Storage))
	assert.Empty(t, fake.objects)
}

func TestBlobProvider_URLFallbacks(t *testing.T) {
	p := newBlobProvider(newFakeS3(), config.S3Config{Bucket: "b", Region: "eu-west-1", Endpoint: "http://minio:9000/"}, logger.Nop())
	assert.Equal(t, "http://minio:9000/b/k.png", p.objectURL("k.png"))

	p = newBlobProvider(newFakeS3(), config.S3Config{Bucket: "b", Region: "eu-west-1"}, logger.Nop())
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/k.png", p.objectURL("k.png"))
}

func TestBlobProvider_Errors(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("boom")
	p := newBlobProvider(fake, config.S3Config{Bucket: "b"}, logger.Nop())

	_, err := p.Upload(context.Background(), UploadInput{Data: []byte("x"), Filename: "f.png"})
	assert.Error(t, err)

	err = p.Delete(context.Background(), models.StorageRef{Provider: models.ProviderCDN, PublicID: "x"})
	assert.ErrorIs(t, err, ErrProviderMismatch)

	fake.delErr = errors.New("boom")
	err = p.Delete(context.Background(), models.StorageRef{Provider: models.ProviderBlob, Pathname: "f.png"})
	assert.ErrorIs(t, err, models.ErrStorageProvider)
}

func TestCDNProvider_Upload(t *testing.T) {
	fake := &fakeCDN{uploadRes: &uploader.UploadResult{
		SecureURL: "https://res.cloudinary.com/demo/image/upload/v3/pml-images/1_abcd1234_cat.png",
		PublicID:  "pml-images/1_abcd1234_cat",
		Version:   3,
		Signature: "sig",
		Width:     800,
		Height:    600,
	}}
	p := newCDNProvider(fake, "pml-images", logger.Nop())

	res, err := p.Upload(context.Background(), UploadInput{Data: []byte("x"), Filename: "1_abcd1234_cat.png", MimeType: "image/png"})
	require.NoError(t, err)

	assert.Equal(t, "1_abcd1234_cat", fake.lastUpload.PublicID)
	assert.Equal(t, "pml-images", fake.lastUpload.Folder)
	assert.Equal(t, api.Bool(false), fake.lastUpload.Overwrite)
	assert.Equal(t, "auto", fake.lastUpload.ResourceType)

	assert.Equal(t, models.StorageRef{
		Provider:  models.ProviderCDN,
		PublicID:  "pml-images/1_abcd1234_cat",
		Version:   3,
		Signature: "sig",
	}, res.Storage)
	assert.Equal(t, 800, res.Width)
	assert.Equal(t, 600, res.Height)
}

func TestCDNProvider_UploadRejected(t *testing.T) {
	fake := &fakeCDN{uploadRes: &uploader.UploadResult{Error: api.ErrorResp{Message: "Invalid image file"}}}
	p := newCDNProvider(fake, "pml-images", logger.Nop())

	_, err := p.Upload(context.Background(), UploadInput{Data: []byte("x"), Filename: "f.png"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid image file")
}

func TestCDNProvider_Delete(t *testing.T) {
	ref := models.StorageRef{Provider: models.ProviderCDN, PublicID: "pml-images/cat"}

	for _, result := range []string{"ok", "not found"} {
		fake := &fakeCDN{destroyRes: &uploader.DestroyResult{Result: result}}
		p := newCDNProvider(fake, "pml-images", logger.Nop())
		require.NoError(t, p.Delete(context.Background(), ref), result)
		assert.Equal(t, []string{"pml-images/cat"}, fake.destroyed)
	}

	fake := &fakeCDN{destroyRes: &uploader.DestroyResult{Result: "error"}}
	p := newCDNProvider(fake, "pml-images", logger.Nop())
	assert.ErrorIs(t, p.Delete(context.Background(), ref), models.ErrStorageProvider)

	err := p.Delete(context.Background(), models.StorageRef{Provider: models.ProviderBlob, Pathname: "x"})
	assert.ErrorIs(t, err, ErrProviderMismatch)
}

func TestBestEffort_Swallows(t *testing.T) {
	called := false
	BestEffort(context.Background(), logger.Nop(), "delete", func(ctx context.Context) error {
		called = true
		return errors.New("boom")
	})
	assert.True(t, called)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Provider: "ftp"}, logger.Nop())
	assert.Error(t, err)

	_, err = New(context.Background(), config.StorageConfig{Provider: config.ProviderCDN}, logger.Nop())
	assert.Error(t, err)
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/lyzr/imagestore/common/logger"
	"github.com/lyzr/imagestore/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []models.ImageRecord {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []models.ImageRecord{
		{
			ID:       "a1",
			Filename: "1714564800000_abcd1234_cat.png",
			URL:      "https://cdn.example.com/cat.png",
			Storage: models.StorageRef{
				Provider: models.ProviderBlob,
				BlobURL:  "https://cdn.example.com/cat.png",
				Pathname: "images/cat.png",
			},
			Title:      "cat",
			Alt:        "a cat",
			Tags:       []string{"pets", "animals"},
			Custom:     map[string]any{"source": "camera"},
			Size:       1024,
			Width:      640,
			Height:     480,
			MimeType:   "image/png",
			UploadedAt: now,
			UpdatedAt:  now,
		},
		{
			ID:       "b2",
			Filename: "1714564800001_ef567890_dog.jpg",
			URL:      "https://res.cloudinary.com/demo/dog.jpg",
			Storage: models.StorageRef{
				Provider:  models.ProviderCDN,
				PublicID:  "pml-images/dog",
				Version:   17,
				Signature: "sig",
			},
			Title:      "dog",
			Tags:       []string{},
			Custom:     map[string]any{},
			Size:       2048,
			MimeType:   "image/jpeg",
			UploadedAt: now,
			UpdatedAt:  now,
		},
	}
}

// storeContract runs the behavior every backend must share
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	records, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NotNil(t, records)

	want := sampleRecords()
	require.NoError(t, s.SaveAll(ctx, want))

	got, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Replacing with a shorter collection drops the rest
	require.NoError(t, s.SaveAll(ctx, want[:1]))
	got, err = s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].ID)

	require.NoError(t, s.SaveAll(ctx, nil))
	got, err = s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeDocument(t *testing.T) {
	log := logger.Nop()

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"whitespace", "  \n", 0},
		{"null", "null", 0},
		{"corrupt", "{not json", 0},
		{"object instead of array", `{"id":"x"}`, 0},
		{"empty array", "[]", 0},
		{"one record", `[{"id":"x","tags":null}]`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeDocument([]byte(tt.input), "test", log)
			require.NotNil(t, got)
			assert.Len(t, got, tt.want)
			for _, r := range got {
				assert.NotNil(t, r.Tags)
				assert.NotNil(t, r.Custom)
			}
		})
	}
}

func TestEncodeDocument_NilIsEmptyArray(t *testing.T) {
	data, err := encodeDocument(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

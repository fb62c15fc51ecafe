package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lyzr/imagestore/common/config"
	"github.com/lyzr/imagestore/common/logger"
	"github.com/lyzr/imagestore/common/models"
	"github.com/lyzr/imagestore/common/storage"
	"github.com/lyzr/imagestore/common/store"
	"github.com/lyzr/imagestore/common/telemetry"
	"github.com/lyzr/imagestore/common/validation"
	"golang.org/x/sync/errgroup"
)

// ImageService owns the image catalogue. Every mutation is a full
// load-modify-save of the store document under mu; uploads to the storage
// provider and provider deletes happen outside the lock.
type ImageService struct {
	store     store.Store
	provider  storage.Provider
	upload    config.UploadConfig
	filters   *FilterEvaluator
	patches   *validation.PatchValidator
	telemetry *telemetry.Telemetry
	log       *logger.Logger

	mu sync.Mutex

	now   func() time.Time
	newID func() string
}

// NewImageService creates the service. tel may be nil.
func NewImageService(
	st store.Store,
	provider storage.Provider,
	upload config.UploadConfig,
	tel *telemetry.Telemetry,
	log *logger.Logger,
) (*ImageService, error) {
	filters, err := NewFilterEvaluator()
	if err != nil {
		return nil, err
	}

	return &ImageService{
		store:     st,
		provider:  provider,
		upload:    upload,
		filters:   filters,
		patches:   validation.NewPatchValidator(),
		telemetry: tel,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}, nil
}

// Store returns the backing record store
func (s *ImageService) Store() store.Store {
	return s.store
}

// ProviderName returns the active storage provider
func (s *ImageService) ProviderName() string {
	return s.provider.Name()
}

// ParseCustom decodes a custom metadata JSON object, logging bad input
func (s *ImageService) ParseCustom(raw string) map[string]any {
	return ParseCustom(raw, s.log)
}

// Create validates and uploads one file, then appends its record
func (s *ImageService) Create(ctx context.Context, file FileUpload, fields Fields) (*models.ImageRecord, error) {
	defer s.telemetry.RecordDuration("image.create", time.Now())

	if err := s.validateFile(file); err != nil {
		return nil, err
	}

	record, err := s.create(ctx, file, fields, s.ParseCustom(fields.CustomJSON))
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).WithImageID(record.ID).Info("image created",
		"filename", record.Filename,
		"size", record.Size,
		"provider", record.Storage.Provider,
	)
	return record, nil
}

// BulkCreate creates one record per file. Files succeed or fail
// independently; results and errors keep input order. Uploads run
// concurrently up to the configured limit.
func (s *ImageService) BulkCreate(ctx context.Context, files []FileUpload, sharedTags any) (*BulkResult, error) {
	defer s.telemetry.RecordDuration("image.bulk_create", time.Now())

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files uploaded", models.ErrMissingFile)
	}
	if len(files) > s.upload.MaxBulkFiles {
		return nil, fmt.Errorf("%w: at most %d files per bulk upload", models.ErrInvalidRequest, s.upload.MaxBulkFiles)
	}

	tags := NormalizeTags(sharedTags)
	records := make([]*models.ImageRecord, len(files))
	failures := make([]error, len(files))

	var g errgroup.Group
	g.SetLimit(max(1, s.upload.BulkConcurrency))

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := s.validateFile(file); err != nil {
				failures[i] = err
				return nil
			}
			fields := Fields{
				Alt:  "Image: " + file.OriginalName,
				Tags: tags,
			}
			records[i], failures[i] = s.create(ctx, file, fields, map[string]any{})
			return nil
		})
	}
	_ = g.Wait() // workers never return an error

	result := &BulkResult{
		Results: make([]models.ImageRecord, 0, len(files)),
		Errors:  make([]BulkError, 0),
	}
	for i, file := range files {
		if failures[i] != nil {
			result.Errors = append(result.Errors, BulkError{
				Filename: file.OriginalName,
				Error:    failures[i].Error(),
			})
			continue
		}
		result.Results = append(result.Results, *records[i])
	}

	s.log.WithContext(ctx).Info("bulk upload finished",
		"files", len(files),
		"succeeded", len(result.Results),
		"failed", len(result.Errors),
	)
	return result, nil
}

// create uploads an already validated file and persists its record. If the
// save fails the uploaded binary is removed again.
func (s *ImageService) create(ctx context.Context, file FileUpload, fields Fields, custom map[string]any) (*models.ImageRecord, error) {
	filename := storage.GenerateSafeFilename(file.OriginalName)
	uploaded, err := s.provider.Upload(ctx, storage.UploadInput{
		Data:     file.Data,
		Filename: filename,
		MimeType: file.MimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrUploadFailed, err)
	}

	width, height := fields.Width, fields.Height
	if width <= 0 || height <= 0 {
		dw, dh := 0, 0
		if uploaded.Width <= 0 || uploaded.Height <= 0 {
			dw, dh = decodeDimensions(file.Data)
		}
		width = pickDimension(width, uploaded.Width, dw)
		height = pickDimension(height, uploaded.Height, dh)
	}

	title := fields.Title
	if title == "" {
		title, _, _ = strings.Cut(file.OriginalName, ".")
	}

	now := s.now()
	record := models.ImageRecord{
		ID:         s.newID(),
		Filename:   filename,
		URL:        uploaded.URL,
		Storage:    uploaded.Storage,
		Title:      title,
		Alt:        fields.Alt,
		Tags:       NormalizeTags(fields.Tags),
		Custom:     custom,
		Size:       int64(len(file.Data)),
		Width:      width,
		Height:     height,
		MimeType:   file.MimeType,
		UploadedAt: now,
		UpdatedAt:  now,
	}

	err = s.mutate(ctx, func(records []models.ImageRecord) ([]models.ImageRecord, error) {
		return append(records, record), nil
	})
	if err != nil {
		storage.BestEffort(ctx, s.log, "cleanup after failed save", func(ctx context.Context) error {
			return s.provider.Delete(ctx, uploaded.Storage)
		})
		return nil, err
	}

	return &record, nil
}

// List filters and pages the catalogue
func (s *ImageService) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	defer s.telemetry.RecordDuration("image.list", time.Now())

	page, limit := normalizePaging(q.Page, q.Limit)

	var match func(models.ImageRecord) bool
	if expr := strings.TrimSpace(q.Filter); expr != "" {
		prg, err := s.filters.Compile(expr)
		if err != nil {
			return nil, err
		}
		match = func(r models.ImageRecord) bool { return s.filters.Match(prg, r) }
	}

	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(q.Search)
	tag := strings.ToLower(q.Tag)

	items := make([]models.ImageRecord, 0, len(records))
	for _, r := range records {
		if search != "" && !matchesSearch(r, search) {
			continue
		}
		if tag != "" && !hasTagFold(r, tag) {
			continue
		}
		if match != nil && !match(r) {
			continue
		}
		items = append(items, r)
	}

	// page is unbounded; compare against the page count before multiplying
	total := len(items)
	start := total
	if pages := (total + limit - 1) / limit; page-1 < pages {
		start = (page - 1) * limit
	}
	end := start + min(limit, total-start)

	return &ListResult{
		Items: items[start:end],
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

// Get returns one record
func (s *ImageService) Get(ctx context.Context, id string) (*models.ImageRecord, error) {
	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexOf(records, id)
	if idx < 0 {
		return nil, notFound(id)
	}
	return &records[idx], nil
}

// Update merges the present fields of patch into the record
func (s *ImageService) Update(ctx context.Context, id string, patch Patch) (*models.ImageRecord, error) {
	defer s.telemetry.RecordDuration("image.update", time.Now())

	var updated models.ImageRecord
	err := s.mutate(ctx, func(records []models.ImageRecord) ([]models.ImageRecord, error) {
		idx := indexOf(records, id)
		if idx < 0 {
			return nil, notFound(id)
		}

		r := records[idx]
		if patch.Title != nil {
			r.Title = *patch.Title
		}
		if patch.Alt != nil {
			r.Alt = *patch.Alt
		}
		if patch.Tags != nil {
			r.Tags = NormalizeTags(patch.Tags)
		}
		if patch.Custom != nil {
			r.Custom = *patch.Custom
			if r.Custom == nil {
				r.Custom = map[string]any{}
			}
		}
		r.UpdatedAt = s.now()

		records[idx] = r
		updated = r
		return records, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).WithImageID(id).Info("image updated")
	return &updated, nil
}

// ReplaceFile uploads a new binary for an existing record and swaps it in.
// Identity and descriptive metadata are kept.
func (s *ImageService) ReplaceFile(ctx context.Context, id string, file FileUpload) (*models.ImageRecord, error) {
	defer s.telemetry.RecordDuration("image.replace_file", time.Now())

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.validateFile(file); err != nil {
		return nil, err
	}

	filename := storage.GenerateSafeFilename(file.OriginalName)
	uploaded, err := s.provider.Upload(ctx, storage.UploadInput{
		Data:     file.Data,
		Filename: filename,
		MimeType: file.MimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrUploadFailed, err)
	}

	width, height := uploaded.Width, uploaded.Height
	if width <= 0 || height <= 0 {
		width, height = decodeDimensions(file.Data)
	}

	var previous models.StorageRef
	var updated models.ImageRecord
	err = s.mutate(ctx, func(records []models.ImageRecord) ([]models.ImageRecord, error) {
		idx := indexOf(records, id)
		if idx < 0 {
			// deleted while the upload was in flight
			return nil, notFound(id)
		}

		r := records[idx]
		previous = r.Storage

		r.Filename = filename
		r.URL = uploaded.URL
		r.Storage = uploaded.Storage
		r.Size = int64(len(file.Data))
		r.MimeType = file.MimeType
		if width > 0 && height > 0 {
			r.Width, r.Height = width, height
		}
		r.UpdatedAt = s.now()

		records[idx] = r
		updated = r
		return records, nil
	})
	if err != nil {
		storage.BestEffort(ctx, s.log, "discard replacement upload", func(ctx context.Context) error {
			return s.provider.Delete(ctx, uploaded.Storage)
		})
		return nil, err
	}

	if !previous.IsZero() {
		storage.BestEffort(ctx, s.log, "delete replaced binary", func(ctx context.Context) error {
			return s.provider.Delete(ctx, previous)
		})
	}

	s.log.WithContext(ctx).WithImageID(id).Info("image file replaced",
		"filename", updated.Filename,
		"size", updated.Size,
	)
	return &updated, nil
}

// Delete removes the record, then its binary on a best-effort basis.
// It returns the removed id.
func (s *ImageService) Delete(ctx context.Context, id string) (string, error) {
	defer s.telemetry.RecordDuration("image.delete", time.Now())

	var removed models.ImageRecord
	err := s.mutate(ctx, func(records []models.ImageRecord) ([]models.ImageRecord, error) {
		idx := indexOf(records, id)
		if idx < 0 {
			return nil, notFound(id)
		}
		removed = records[idx]
		return slices.Delete(records, idx, idx+1), nil
	})
	if err != nil {
		return "", err
	}

	if !removed.Storage.IsZero() {
		storage.BestEffort(ctx, s.log, "delete binary", func(ctx context.Context) error {
			return s.provider.Delete(ctx, removed.Storage)
		})
	}

	s.log.WithContext(ctx).WithImageID(id).Info("image deleted")
	return removed.ID, nil
}

// BatchGet returns the records for the given ids in request order. ids is
// the raw decoded list; see validation.BatchIDs for the accepted shapes.
// Unknown ids are omitted.
func (s *ImageService) BatchGet(ctx context.Context, ids any) ([]models.ImageRecord, error) {
	wanted, err := validation.BatchIDs(ids, validation.MaxBatchIDs)
	if err != nil {
		return nil, err
	}

	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]int, len(records))
	for i, r := range records {
		if _, dup := byID[r.ID]; !dup {
			byID[r.ID] = i
		}
	}

	found := make([]models.ImageRecord, 0, len(wanted))
	for _, id := range wanted {
		if idx, ok := byID[id]; ok {
			found = append(found, records[idx])
		}
	}
	return found, nil
}

// Stats aggregates the catalogue by format and tag
func (s *ImageService) Stats(ctx context.Context) (*models.Stats, error) {
	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.Stats{
		Total:    len(records),
		ByFormat: map[string]int{},
		ByTag:    map[string]int{},
	}
	for _, r := range records {
		stats.ByFormat[formatOf(r.MimeType)]++
		for _, t := range r.Tags {
			stats.ByTag[t]++
		}
		stats.TotalSize += r.Size
	}
	return stats, nil
}

// mutate runs fn against a fresh snapshot and saves the result, all under
// the service mutex
func (s *ImageService) mutate(ctx context.Context, fn func([]models.ImageRecord) ([]models.ImageRecord, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return err
	}

	next, err := fn(records)
	if err != nil {
		return err
	}

	if err := s.store.SaveAll(ctx, next); err != nil {
		s.log.WithContext(ctx).Error("failed to save records", "error", err)
		if models.ErrorName(err) == "" {
			err = fmt.Errorf("%w: %w", models.ErrPersistence, err)
		}
		return err
	}
	return nil
}

func (s *ImageService) load(ctx context.Context) ([]models.ImageRecord, error) {
	records, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrPersistence, err)
	}
	return records, nil
}

func (s *ImageService) validateFile(file FileUpload) error {
	if len(file.Data) == 0 {
		return fmt.Errorf("%w: no file provided", models.ErrMissingFile)
	}
	if !slices.Contains(s.upload.AllowedTypes, file.MimeType) {
		return fmt.Errorf("%w: unsupported file type: %s", models.ErrUnsupportedType, file.MimeType)
	}
	if int64(len(file.Data)) > s.upload.MaxFileSize {
		return fmt.Errorf("%w: file size exceeds %dMB limit", models.ErrPayloadTooLarge, s.upload.MaxFileSize/(1024*1024))
	}
	return nil
}

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	switch {
	case limit == 0:
		limit = DefaultLimit
	case limit < 1:
		limit = 1
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return page, limit
}

func matchesSearch(r models.ImageRecord, q string) bool {
	if strings.Contains(strings.ToLower(r.Title), q) || strings.Contains(strings.ToLower(r.Alt), q) {
		return true
	}
	for _, t := range r.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

func hasTagFold(r models.ImageRecord, tag string) bool {
	for _, t := range r.Tags {
		if strings.ToLower(t) == tag {
			return true
		}
	}
	return false
}

func indexOf(records []models.ImageRecord, id string) int {
	return slices.IndexFunc(records, func(r models.ImageRecord) bool { return r.ID == id })
}

func notFound(id string) error {
	return fmt.Errorf("%w: image %s", models.ErrNotFound, id)
}

// formatOf returns the mimetype subtype, e.g. "png" for image/png
func formatOf(mimetype string) string {
	if _, sub, ok := strings.Cut(mimetype, "/"); ok && sub != "" {
		return sub
	}
	return "unknown"
}

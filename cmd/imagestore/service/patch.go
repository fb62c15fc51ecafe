package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/lyzr/imagestore/common/models"
)

// ParsePatch builds a Patch from a decoded JSON merge body. title and alt
// are stringified, tags go through NormalizeTags on apply, and custom must
// be an object, a JSON string holding an object, or null.
func (s *ImageService) ParsePatch(body map[string]any) (Patch, error) {
	var patch Patch

	if v, ok := body["title"]; ok {
		title := stringify(v)
		patch.Title = &title
	}
	if v, ok := body["alt"]; ok {
		alt := stringify(v)
		patch.Alt = &alt
	}
	if v, ok := body["tags"]; ok {
		if v == nil {
			v = []any{}
		}
		patch.Tags = v
	}
	if v, ok := body["custom"]; ok {
		var custom map[string]any
		switch c := v.(type) {
		case nil:
			custom = map[string]any{}
		case map[string]any:
			custom = c
		case string:
			custom = s.ParseCustom(c)
		default:
			return Patch{}, fmt.Errorf("%w: custom must be an object", models.ErrInvalidRequest)
		}
		patch.Custom = &custom
	}

	return patch, nil
}

// editableFields is the document JSON Patch operations run against
type editableFields struct {
	Title  string         `json:"title"`
	Alt    string         `json:"alt"`
	Tags   []string       `json:"tags"`
	Custom map[string]any `json:"custom"`
}

// ApplyJSONPatch applies an RFC 6902 patch to the editable fields of a
// record. Operations on any other path are rejected before the store is
// touched.
func (s *ImageService) ApplyJSONPatch(ctx context.Context, id string, patchJSON []byte) (*models.ImageRecord, error) {
	defer s.telemetry.RecordDuration("image.json_patch", time.Now())

	var ops []map[string]any
	if err := json.Unmarshal(patchJSON, &ops); err != nil {
		return nil, fmt.Errorf("%w: patch must be a JSON array of operations: %w", models.ErrInvalidRequest, err)
	}
	if err := s.patches.ValidateOperations(ops); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidRequest, err)
	}

	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode patch: %w", models.ErrInvalidRequest, err)
	}

	var updated models.ImageRecord
	err = s.mutate(ctx, func(records []models.ImageRecord) ([]models.ImageRecord, error) {
		idx := indexOf(records, id)
		if idx < 0 {
			return nil, notFound(id)
		}
		r := records[idx]

		doc, err := json.Marshal(editableFields{
			Title:  r.Title,
			Alt:    r.Alt,
			Tags:   nonNilTags(r.Tags),
			Custom: nonNilCustom(r.Custom),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode record fields: %w", err)
		}

		patched, err := patch.Apply(doc)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to apply patch operations: %w", models.ErrInvalidRequest, err)
		}

		var fields editableFields
		if err := json.Unmarshal(patched, &fields); err != nil {
			return nil, fmt.Errorf("%w: patched fields are invalid: %w", models.ErrInvalidRequest, err)
		}

		r.Title = fields.Title
		r.Alt = fields.Alt
		r.Tags = NormalizeTags(fields.Tags)
		r.Custom = nonNilCustom(fields.Custom)
		r.UpdatedAt = s.now()

		records[idx] = r
		updated = r
		return records, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).WithImageID(id).Info("image patched", "operations", len(ops))
	return &updated, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func nonNilCustom(custom map[string]any) map[string]any {
	if custom == nil {
		return map[string]any{}
	}
	return custom
}

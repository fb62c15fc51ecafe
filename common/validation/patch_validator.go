package validation

import (
	"fmt"
	"strconv"
	"strings"
)

// PatchValidator checks RFC 6902 operations against the editable fields of
// an image record: /title, /alt, /tags and /custom
type PatchValidator struct{}

// NewPatchValidator creates a new patch validator
func NewPatchValidator() *PatchValidator {
	return &PatchValidator{}
}

// ValidateOperations validates all patch operations
func (v *PatchValidator) ValidateOperations(operations []map[string]any) error {
	if len(operations) == 0 {
		return fmt.Errorf("patch must contain at least one operation")
	}

	for i, op := range operations {
		if err := v.validateOperation(op, i); err != nil {
			return err
		}
	}
	return nil
}

// validateOperation validates a single operation
func (v *PatchValidator) validateOperation(op map[string]any, index int) error {
	opType, ok := op["op"].(string)
	if !ok {
		return fmt.Errorf("operation %d: missing or invalid 'op' field", index)
	}

	path, ok := op["path"].(string)
	if !ok {
		return fmt.Errorf("operation %d: missing or invalid 'path' field", index)
	}

	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if !strings.HasPrefix(path, "/") || segments[0] == "" {
		return fmt.Errorf("operation %d: invalid path %q", index, path)
	}

	switch opType {
	case "add", "replace", "test":
		value, ok := op["value"]
		if !ok {
			return fmt.Errorf("operation %d: 'value' required for %s operation", index, opType)
		}
		return v.validateValue(segments, value, index)

	case "remove":
		// title and alt are always present strings; clear them with replace
		if len(segments) == 1 && segments[0] != "custom" && segments[0] != "tags" {
			return fmt.Errorf("operation %d: %s cannot be removed", index, path)
		}
		return v.validatePath(segments, index)

	default:
		return fmt.Errorf("operation %d: unsupported operation type: %s", index, opType)
	}
}

func (v *PatchValidator) validatePath(segments []string, index int) error {
	switch segments[0] {
	case "title", "alt":
		if len(segments) != 1 {
			return fmt.Errorf("operation %d: /%s has no children", index, segments[0])
		}
	case "tags":
		if len(segments) > 2 {
			return fmt.Errorf("operation %d: tags are a flat list", index)
		}
		if len(segments) == 2 && segments[1] != "-" {
			if _, err := strconv.Atoi(segments[1]); err != nil {
				return fmt.Errorf("operation %d: invalid tag index %q", index, segments[1])
			}
		}
	case "custom":
		// any depth below /custom is allowed
	default:
		return fmt.Errorf("operation %d: field /%s is not editable", index, segments[0])
	}
	return nil
}

func (v *PatchValidator) validateValue(segments []string, value any, index int) error {
	if err := v.validatePath(segments, index); err != nil {
		return err
	}

	switch segments[0] {
	case "title", "alt":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("operation %d: /%s must be a string, got %T", index, segments[0], value)
		}
	case "tags":
		if len(segments) == 2 {
			if _, ok := value.(string); !ok {
				return fmt.Errorf("operation %d: tag must be a string, got %T", index, value)
			}
			return nil
		}
		list, ok := value.([]any)
		if !ok {
			return fmt.Errorf("operation %d: /tags must be an array, got %T", index, value)
		}
		for j, tag := range list {
			if _, ok := tag.(string); !ok {
				return fmt.Errorf("operation %d: tag %d must be a string, got %T", index, j, tag)
			}
		}
	case "custom":
		if len(segments) == 1 {
			if _, ok := value.(map[string]any); !ok {
				return fmt.Errorf("operation %d: /custom must be an object, got %T (hint: use {\"key\": \"value\"})", index, value)
			}
		}
	}
	return nil
}

package validation

import (
	"fmt"
	"strings"

	"github.com/lyzr/imagestore/common/models"
)

// MaxBatchIDs is the largest id list a batch lookup accepts
const MaxBatchIDs = 50

// BatchIDs checks a raw id list and returns its usable ids. The list must
// be a non-empty array of at most max entries (counted before cleanup).
// Non-strings and blanks are dropped and duplicates keep their first
// position. The result may be empty.
func BatchIDs(raw any, max int) ([]string, error) {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []string:
		items = make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
	default:
		return nil, fmt.Errorf("%w: ids array is required and must not be empty", models.ErrInvalidRequest)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: ids array is required and must not be empty", models.ErrInvalidRequest)
	}
	if len(items) > max {
		return nil, fmt.Errorf("%w: maximum %d ids allowed per request", models.ErrTooManyIds, max)
	}

	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		id, ok := item.(string)
		if !ok || strings.TrimSpace(id) == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lyzr/imagestore/common/logger"
)

// NormalizeTags turns a comma separated string, []string or []any into an
// ordered list of trimmed, non-empty, distinct tags. Duplicates are exact
// (case-sensitive) and keep their first position. Anything else yields an
// empty list.
func NormalizeTags(raw any) []string {
	var parts []string
	switch v := raw.(type) {
	case string:
		parts = strings.Split(v, ",")
	case []string:
		parts = v
	case []any:
		parts = make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			} else {
				parts = append(parts, fmt.Sprint(item))
			}
		}
	}

	tags := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	return tags
}

// ParseCustom decodes a JSON object. Blank input, invalid JSON and
// non-object JSON all yield an empty map; the latter two are logged.
func ParseCustom(raw string, log *logger.Logger) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}
	}

	var custom map[string]any
	if err := json.Unmarshal([]byte(raw), &custom); err != nil || custom == nil {
		log.Warn("ignoring unparsable custom metadata", "error", err, "bytes", len(raw))
		return map[string]any{}
	}
	return custom
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageRecord_Clone(t *testing.T) {
	t.Run("nil and empty collections become empty", func(t *testing.T) {
		for _, r := range []ImageRecord{
			{ID: "nil"},
			{ID: "empty", Tags: []string{}, Custom: map[string]any{}},
		} {
			out := r.Clone()
			assert.NotNil(t, out.Tags, r.ID)
			assert.Empty(t, out.Tags, r.ID)
			assert.NotNil(t, out.Custom, r.ID)
			assert.Empty(t, out.Custom, r.ID)
		}
	})

	t.Run("copies are independent", func(t *testing.T) {
		r := ImageRecord{ID: "a", Tags: []string{"x"}, Custom: map[string]any{"k": "v"}}
		out := r.Clone()
		out.Tags[0] = "y"
		out.Custom["k"] = "w"

		assert.Equal(t, []string{"x"}, r.Tags)
		assert.Equal(t, "v", r.Custom["k"])
	})
}

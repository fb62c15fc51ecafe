package service

import (
	"testing"

	"github.com/lyzr/imagestore/common/logger"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"comma string", "a, b ,b,", []string{"a", "b"}},
		{"string slice", []string{" x", "y", "x", ""}, []string{"x", "y"}},
		{"any slice", []any{"a", 1, nil, true, "a"}, []string{"a", "1", "true"}},
		{"case sensitive", "Red,red", []string{"Red", "red"}},
		{"nil", nil, []string{}},
		{"number", 5, []string{}},
		{"blank", " , ,", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTags(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeTags(got), "idempotent")
		})
	}
}

func TestParseCustom(t *testing.T) {
	log := logger.Nop()

	assert.Equal(t, map[string]any{"a": "b"}, ParseCustom(`{"a":"b"}`, log))
	assert.Equal(t, map[string]any{}, ParseCustom("", log))
	assert.Equal(t, map[string]any{}, ParseCustom("null", log))
	assert.Equal(t, map[string]any{}, ParseCustom("{oops", log))
	assert.Equal(t, map[string]any{}, ParseCustom("[1,2]", log))
}

func TestDecodeDimensions(t *testing.T) {
	w, h := decodeDimensions(pngBytes(t, 7, 5))
	assert.Equal(t, 7, w)
	assert.Equal(t, 5, h)

	w, h = decodeDimensions([]byte("<svg/>"))
	assert.Zero(t, w)
	assert.Zero(t, h)
}

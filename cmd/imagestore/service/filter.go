package service

import (
	"fmt"

	"github.com/google/cel-go/cel"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lyzr/imagestore/common/models"
)

// MaxCachedFilters bounds the compiled program cache. Filters arrive in the
// query string, so the least recently used programs are evicted.
const MaxCachedFilters = 256

// FilterEvaluator compiles and caches CEL list filters. Expressions see the
// record as `image`, with the same field names as the JSON representation.
type FilterEvaluator struct {
	env   *cel.Env
	cache *lru.Cache[string, cel.Program]
}

// NewFilterEvaluator creates an evaluator with an empty cache
func NewFilterEvaluator() (*FilterEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("image", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}
	cache, err := lru.New[string, cel.Program](MaxCachedFilters)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter cache: %w", err)
	}
	return &FilterEvaluator{
		env:   env,
		cache: cache,
	}, nil
}

// Compile returns the cached program for expr, compiling it on first use.
// Errors wrap models.ErrInvalidRequest.
func (f *FilterEvaluator) Compile(expr string) (cel.Program, error) {
	if prg, ok := f.cache.Get(expr); ok {
		return prg, nil
	}

	ast, issues := f.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: filter does not compile: %w", models.ErrInvalidRequest, issues.Err())
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: filter must be a boolean expression, got %s", models.ErrInvalidRequest, t)
	}

	prg, err := f.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create CEL program: %w", models.ErrInvalidRequest, err)
	}

	f.cache.Add(expr, prg)
	return prg, nil
}

// Match reports whether the record satisfies prg. Evaluation errors, such
// as a missing custom key, count as no match.
func (f *FilterEvaluator) Match(prg cel.Program, r models.ImageRecord) bool {
	out, _, err := prg.Eval(map[string]any{"image": filterView(r)})
	if err != nil {
		return false
	}
	matched, ok := out.Value().(bool)
	return ok && matched
}

// CacheSize returns the number of cached expressions
func (f *FilterEvaluator) CacheSize() int {
	return f.cache.Len()
}

func filterView(r models.ImageRecord) map[string]any {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	custom := r.Custom
	if custom == nil {
		custom = map[string]any{}
	}
	return map[string]any{
		"id":       r.ID,
		"filename": r.Filename,
		"url":      r.URL,
		"title":    r.Title,
		"alt":      r.Alt,
		"tags":     tags,
		"custom":   custom,
		"size":     r.Size,
		"width":    int64(r.Width),
		"height":   int64(r.Height),
		"mimetype": r.MimeType,
		"provider": r.Storage.Provider,

		"uploadedAt": r.UploadedAt,
		"updatedAt":  r.UpdatedAt,
	}
}

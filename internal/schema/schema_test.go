package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestValidate_Navigation tests a well-formed navigation document.
func TestValidate_Navigation(t *testing.T) {
	cache, err := NewCache()
	require.NoError(t, err)

	valid, violations, err := cache.Validate("navigation", map[string]any{
		"layer": "navigation",
		"screen": map[string]any{
			"id":    "home",
			"entry": true,
			"kind":  "screen",
		},
		"transitions": []any{
			map[string]any{"id": "open_tasks", "target": "tasks"},
		},
	})
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Empty(t, violations)
}

// TestValidate_ShapeViolation tests that a mistyped field yields a
// violation with a pointer path.
func TestValidate_ShapeViolation(t *testing.T) {
	cache, err := NewCache()
	require.NoError(t, err)

	valid, violations, err := cache.Validate("navigation", map[string]any{
		"layer": "navigation",
		"screen": map[string]any{
			"id":   "home",
			"kind": "dialog", // not in the kind enum
		},
	})
	require.NoError(t, err)
	assert.False(t, valid)
	require.NotEmpty(t, violations)
	assert.Contains(t, violations[0].Path, "screen")
}

// TestValidate_WrongLayer tests that a document unified against the wrong
// layer schema fails on the layer literal.
func TestValidate_WrongLayer(t *testing.T) {
	cache, err := NewCache()
	require.NoError(t, err)

	valid, _, err := cache.Validate("navigation", map[string]any{
		"layer":  "ui",
		"screen": map[string]any{"id": "home"},
	})
	require.NoError(t, err)
	assert.False(t, valid)
}

// TestValidate_SchemaNotFound tests the distinct not-found error.
func TestValidate_SchemaNotFound(t *testing.T) {
	cache, err := NewCache()
	require.NoError(t, err)

	_, _, err = cache.Validate("backend", map[string]any{"layer": "backend"})
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "backend", notFound.Name)
}

// TestCache_CompilesOnce tests that repeated validation reuses the
// compiled schema.
func TestCache_CompilesOnce(t *testing.T) {
	cache, err := NewCache()
	require.NoError(t, err)
	assert.False(t, cache.Compiled("i18n"))

	doc := map[string]any{"layer": "i18n", "keys": map[string]any{"a": "b"}}

	valid, _, err := cache.Validate("i18n", doc)
	require.NoError(t, err)
	require.True(t, valid)
	assert.True(t, cache.Compiled("i18n"))

	// Second validation hits the cache; behavior stays identical.
	valid, _, err = cache.Validate("i18n", doc)
	require.NoError(t, err)
	assert.True(t, valid)
}

// TestCache_Register tests override of a named schema source.
func TestCache_Register(t *testing.T) {
	cache, err := NewCache()
	require.NoError(t, err)

	cache.Register("custom", `layer: "custom"`)
	valid, _, err := cache.Validate("custom", map[string]any{"layer": "custom"})
	require.NoError(t, err)
	assert.True(t, valid)

	valid, _, err = cache.Validate("custom", map[string]any{"layer": "other"})
	require.NoError(t, err)
	assert.False(t, valid)
}

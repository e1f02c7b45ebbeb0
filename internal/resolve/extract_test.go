package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vsd/internal/spectree"
)

func TestExtractInline_ReplacesValuesWithReference(t *testing.T) {
	tree, err := spectree.Parse(`{"data":{"values":[{"x":1}]},"mark":"bar"}`)
	require.NoError(t, err)

	out, rows, found := ExtractInline(tree, "extracted")
	require.True(t, found)
	assert.Equal(t, []any{map[string]any{"x": float64(1)}}, rows)
	assert.Equal(t, map[string]any{"name": "extracted"}, out["data"])
	assert.Equal(t, "bar", out["mark"])
}

func TestExtractInline_FirstNodeOnly(t *testing.T) {
	tree, err := spectree.Parse(`{
		"layer": [
			{"data": {"values": [{"a": 1}]}},
			{"data": {"values": [{"b": 2}]}}
		]
	}`)
	require.NoError(t, err)

	out, rows, found := ExtractInline(tree, "first")
	require.True(t, found)
	assert.Equal(t, []any{map[string]any{"a": float64(1)}}, rows)

	layers := out["layer"].([]any)
	assert.Equal(t, map[string]any{"name": "first"}, layers[0].(map[string]any)["data"])
	second := layers[1].(map[string]any)["data"].(map[string]any)
	assert.Contains(t, second, "values")
}

func TestExtractInline_NoInlineData(t *testing.T) {
	tree, err := spectree.Parse(`{"data":{"name":"sales"}}`)
	require.NoError(t, err)

	_, _, found := ExtractInline(tree, "x")
	assert.False(t, found)
}

func TestExtractInline_DoesNotMutateInput(t *testing.T) {
	tree, err := spectree.Parse(`{"data":{"values":[{"x":1}]}}`)
	require.NoError(t, err)

	_, _, found := ExtractInline(tree, "x")
	require.True(t, found)
	assert.Contains(t, tree["data"].(map[string]any), "values")
}

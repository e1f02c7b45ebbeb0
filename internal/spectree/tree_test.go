package spectree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, text string) map[string]any {
	t.Helper()
	tree, err := Parse(text)
	require.NoError(t, err)
	return tree
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("{not json")
	assert.Error(t, err)
}

func TestCollectNames_TopLevel(t *testing.T) {
	tree := mustParse(t, `{"data":{"name":"sales"},"mark":"bar"}`)
	assert.Equal(t, []string{"sales"}, CollectNames(tree))
}

func TestCollectNames_NestedComposites(t *testing.T) {
	tree := mustParse(t, `{
		"data": {"name": "top"},
		"layer": [
			{"data": {"name": "a"}},
			{"vconcat": [{"data": {"name": "b"}}]}
		],
		"spec": {"data": {"name": "c"}}
	}`)
	assert.Equal(t, []string{"top", "a", "b", "c"}, CollectNames(tree))
}

func TestCollectNames_Distinct(t *testing.T) {
	tree := mustParse(t, `{
		"layer": [
			{"data": {"name": "dup"}},
			{"data": {"name": "dup"}}
		]
	}`)
	assert.Equal(t, []string{"dup"}, CollectNames(tree))
}

func TestCollectNames_IgnoresInlineData(t *testing.T) {
	tree := mustParse(t, `{"data":{"values":[{"x":1}]}}`)
	assert.Empty(t, CollectNames(tree))
}

func TestTransform_RewritesEveryDepth(t *testing.T) {
	tree := mustParse(t, `{
		"data": {"name": "a"},
		"hconcat": [{"data": {"name": "b"}}]
	}`)

	out, err := Transform(tree, func(data map[string]any) (map[string]any, error) {
		if name, ok := RefName(data); ok {
			return map[string]any{"resolved": name}, nil
		}
		return data, nil
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"resolved": "a"}, out["data"])
	child := out["hconcat"].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{"resolved": "b"}, child["data"])
}

func TestTransform_DoesNotMutateInput(t *testing.T) {
	tree := mustParse(t, `{"data":{"name":"a"},"layer":[{"data":{"name":"b"}}]}`)

	_, err := Transform(tree, func(data map[string]any) (map[string]any, error) {
		data["injected"] = true
		return map[string]any{"values": []any{}}, nil
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"name": "a"}, tree["data"])
	inner := tree["layer"].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{"name": "b"}, inner["data"])
}

func TestTransform_ErrorAbortsWhole(t *testing.T) {
	tree := mustParse(t, `{
		"layer": [
			{"data": {"name": "ok"}},
			{"data": {"name": "bad"}}
		]
	}`)

	boom := errors.New("boom")
	out, err := Transform(tree, func(data map[string]any) (map[string]any, error) {
		if name, _ := RefName(data); name == "bad" {
			return nil, boom
		}
		return data, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, out)
}

func TestTransform_NonObjectListEntriesKept(t *testing.T) {
	tree := mustParse(t, `{"layer": [1, "x", {"data": {"name": "a"}}]}`)
	out, err := Transform(tree, func(data map[string]any) (map[string]any, error) {
		return data, nil
	})
	require.NoError(t, err)
	layer := out["layer"].([]any)
	assert.Equal(t, float64(1), layer[0])
	assert.Equal(t, "x", layer[1])
}

func TestRefName(t *testing.T) {
	name, ok := RefName(map[string]any{"name": "sales"})
	assert.True(t, ok)
	assert.Equal(t, "sales", name)

	_, ok = RefName(map[string]any{"values": []any{}})
	assert.False(t, ok)

	_, ok = RefName(map[string]any{"name": ""})
	assert.False(t, ok)
}

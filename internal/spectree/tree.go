// Package spectree walks nested specification trees. A node may carry a
// data object at its "data" key and child nodes under "layer", "concat",
// "hconcat", "vconcat" (ordered lists) or "spec" (a single facet sub-node).
// The traversal rule lives here once, shared by reference extraction and
// resolution.
package spectree

import (
	"fmt"

	json "github.com/goccy/go-json"
)

const (
	dataKey   = "data"
	nameKey   = "name"
	nestedKey = "spec"
)

// listKeys are the composite-node locations holding ordered sub-node lists.
var listKeys = [...]string{"layer", "concat", "hconcat", "vconcat"}

// Parse decodes specification text into a tree. The root must be an object.
func Parse(text string) (map[string]any, error) {
	var node map[string]any
	if err := json.Unmarshal([]byte(text), &node); err != nil {
		return nil, fmt.Errorf("parsing specification: %w", err)
	}
	return node, nil
}

// DataFunc rewrites one data object. It receives a copy it may mutate or
// replace; returning the input unchanged leaves the node as-is.
type DataFunc func(data map[string]any) (map[string]any, error)

// Transform returns a deep copy of node with fn applied to every data
// object at every depth. The input tree is never mutated; any fn error
// aborts the whole transform with no partial result.
func Transform(node map[string]any, fn DataFunc) (map[string]any, error) {
	out := make(map[string]any, len(node))
	for k, v := range node {
		out[k] = copyValue(v)
	}

	if data, ok := node[dataKey].(map[string]any); ok {
		replaced, err := fn(copyMap(data))
		if err != nil {
			return nil, err
		}
		out[dataKey] = replaced
	}

	for _, lk := range listKeys {
		children, ok := node[lk].([]any)
		if !ok {
			continue
		}
		transformed := make([]any, len(children))
		for i, child := range children {
			sub, ok := child.(map[string]any)
			if !ok {
				transformed[i] = copyValue(child)
				continue
			}
			t, err := Transform(sub, fn)
			if err != nil {
				return nil, err
			}
			transformed[i] = t
		}
		out[lk] = transformed
	}

	if sub, ok := node[nestedKey].(map[string]any); ok {
		t, err := Transform(sub, fn)
		if err != nil {
			return nil, err
		}
		out[nestedKey] = t
	}

	return out, nil
}

// CollectNames gathers every distinct dataset name referenced at a
// data.name path anywhere in the tree, in traversal order.
func CollectNames(node map[string]any) []string {
	var names []string
	seen := make(map[string]bool)
	collect(node, seen, &names)
	return names
}

func collect(node map[string]any, seen map[string]bool, names *[]string) {
	if data, ok := node[dataKey].(map[string]any); ok {
		if name, ok := data[nameKey].(string); ok && name != "" && !seen[name] {
			seen[name] = true
			*names = append(*names, name)
		}
	}
	for _, lk := range listKeys {
		children, ok := node[lk].([]any)
		if !ok {
			continue
		}
		for _, child := range children {
			if sub, ok := child.(map[string]any); ok {
				collect(sub, seen, names)
			}
		}
	}
	if sub, ok := node[nestedKey].(map[string]any); ok {
		collect(sub, seen, names)
	}
}

// RefName extracts the symbolic reference from a data object, if any.
func RefName(data map[string]any) (string, bool) {
	name, ok := data[nameKey].(string)
	return name, ok && name != ""
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

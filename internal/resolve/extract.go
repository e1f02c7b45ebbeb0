package resolve

import (
	"vsd/internal/spectree"
)

// ExtractInline pulls the first inline values payload out of a spec tree,
// replacing that data node with a symbolic reference to name. Returns the
// rewritten tree, the extracted rows and whether an inline payload was
// found. The input tree is never mutated.
func ExtractInline(tree map[string]any, name string) (map[string]any, []any, bool) {
	var rows []any
	found := false

	out, err := spectree.Transform(tree, func(data map[string]any) (map[string]any, error) {
		if found {
			return data, nil
		}
		values, ok := data["values"].([]any)
		if !ok {
			return data, nil
		}
		found = true
		rows = values
		return map[string]any{"name": name}, nil
	})
	if err != nil {
		// The callback never errors, so Transform cannot either.
		return tree, nil, false
	}
	return out, rows, found
}

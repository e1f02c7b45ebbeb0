package snippets

import "vsd/internal/spectree"

// ExtractRefs scans specification text for symbolic dataset references.
// The index is best-effort: text that doesn't parse (mid-edit drafts are
// often invalid JSON) yields no references rather than an error.
func ExtractRefs(specText string) []string {
	tree, err := spectree.Parse(specText)
	if err != nil {
		return []string{}
	}
	names := spectree.CollectNames(tree)
	if names == nil {
		return []string{}
	}
	return names
}

package models

// ArchiveVersion is the current on-disk snippet collection format.
const ArchiveVersion = 1

// SnippetArchive is the versioned envelope the snippet collection is
// persisted as. Version 0 files (a bare snippet array) are still accepted
// on load.
type SnippetArchive struct {
	Version  int        `json:"version"`
	Snippets []*Snippet `json:"snippets"`
}

// ExportEnvelope is the wire format for whole-store export and the native
// input format for import.
type ExportEnvelope struct {
	Version  int        `json:"version"`
	Snippets []*Snippet `json:"snippets,omitempty"`
	Datasets []*Dataset `json:"datasets,omitempty"`
}

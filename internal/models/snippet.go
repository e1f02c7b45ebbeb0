package models

import (
	"time"

	json "github.com/goccy/go-json"
)

// Snippet is a stored visualization specification with two-slot versioning:
// Spec holds the published text, DraftSpec the uncommitted working copy.
// DraftSpec == nil means the draft mirrors the published spec.
type Snippet struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Created     time.Time      `json:"created"`
	Modified    time.Time      `json:"modified"`
	Spec        string         `json:"spec"`
	DraftSpec   *string        `json:"draftSpec"`
	Comment     string         `json:"comment"`
	Tags        []string       `json:"tags"`
	DatasetRefs []string       `json:"datasetRefs"`
	Meta        map[string]any `json:"meta,omitempty"`
}

func (s *Snippet) Dirty() bool {
	return s.DraftSpec != nil
}

// CurrentSpec returns the draft when one is pending, otherwise the published spec.
func (s *Snippet) CurrentSpec() string {
	if s.DraftSpec != nil {
		return *s.DraftSpec
	}
	return s.Spec
}

func (s *Snippet) Clone() *Snippet {
	c := *s
	if s.DraftSpec != nil {
		draft := *s.DraftSpec
		c.DraftSpec = &draft
	}
	c.Tags = append([]string(nil), s.Tags...)
	c.DatasetRefs = append([]string(nil), s.DatasetRefs...)
	if s.Meta != nil {
		c.Meta = make(map[string]any, len(s.Meta))
		for k, v := range s.Meta {
			c.Meta[k] = v
		}
	}
	return &c
}

// SerializedSize is the byte length of the snippet as stored in the
// collection file. Used for quota accounting.
func (s *Snippet) SerializedSize() int64 {
	b, err := json.Marshal(s)
	if err != nil {
		return 0
	}
	return int64(len(b))
}

// HasTag reports whether tag is present (exact match, order preserved elsewhere).
func (s *Snippet) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

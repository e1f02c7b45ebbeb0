package models

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/atomic"
)

// StorageUsage describes the snippet collection's quota accounting.
type StorageUsage struct {
	UsedBytes  int64   `json:"usedBytes"`
	QuotaBytes int64   `json:"quotaBytes"`
	Percent    float64 `json:"percent"`
}

// SnippetCollection holds all snippets in memory behind one lock and tracks
// the total serialized byte size against a fixed quota. Writes that would
// exceed the quota fail whole; the collection never partially persists.
type SnippetCollection struct {
	mu    sync.RWMutex
	data  map[int64]*Snippet
	sizes map[int64]int64
	used  int64
	quota int64
	dirty atomic.Bool
}

func NewSnippetCollection(quota int64) *SnippetCollection {
	return &SnippetCollection{
		data:  make(map[int64]*Snippet),
		sizes: make(map[int64]int64),
		quota: quota,
	}
}

// Put inserts or replaces a snippet. The quota check runs against the
// post-write total before any state changes.
func (c *SnippetCollection) Put(s *Snippet) error {
	size := s.SerializedSize()

	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.used - c.sizes[s.ID] + size
	if c.quota > 0 && next > c.quota {
		return &QuotaExceededError{Used: c.used, Quota: c.quota, Attempted: size}
	}

	c.data[s.ID] = s.Clone()
	c.sizes[s.ID] = size
	c.used = next
	c.dirty.Store(true)
	return nil
}

func (c *SnippetCollection) Get(id int64) (*Snippet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.data[id]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

func (c *SnippetCollection) Delete(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[id]; !ok {
		return false
	}
	c.used -= c.sizes[id]
	delete(c.data, id)
	delete(c.sizes, id)
	c.dirty.Store(true)
	return true
}

func (c *SnippetCollection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// All returns clones of every snippet, unordered.
func (c *SnippetCollection) All() []*Snippet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Snippet, 0, len(c.data))
	for _, s := range c.data {
		out = append(out, s.Clone())
	}
	return out
}

// SnippetSortKey selects the List ordering.
type SnippetSortKey string

const (
	SnippetSortName     SnippetSortKey = "name"
	SnippetSortCreated  SnippetSortKey = "created"
	SnippetSortModified SnippetSortKey = "modified"
)

// List filters by a case-insensitive substring match over name and comment,
// then sorts by key with a stable id-ascending tie-break.
func (c *SnippetCollection) List(key SnippetSortKey, descending bool, search string) []*Snippet {
	all := c.All()
	if search != "" {
		term := strings.ToLower(search)
		filtered := all[:0]
		for _, s := range all {
			if strings.Contains(strings.ToLower(s.Name), term) ||
				strings.Contains(strings.ToLower(s.Comment), term) {
				filtered = append(filtered, s)
			}
		}
		all = filtered
	}

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		var less, equal bool
		switch key {
		case SnippetSortName:
			less, equal = a.Name < b.Name, a.Name == b.Name
		case SnippetSortCreated:
			less, equal = a.Created.Before(b.Created), a.Created.Equal(b.Created)
		default:
			less, equal = a.Modified.Before(b.Modified), a.Modified.Equal(b.Modified)
		}
		if equal {
			return a.ID < b.ID
		}
		if descending {
			return !less
		}
		return less
	})
	return all
}

// Load replaces the whole collection, recomputing quota accounting.
// Used when restoring from the persistence file; quota is not enforced so
// a shrunken quota never makes existing data unloadable.
func (c *SnippetCollection) Load(snippets []*Snippet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[int64]*Snippet, len(snippets))
	c.sizes = make(map[int64]int64, len(snippets))
	c.used = 0
	for _, s := range snippets {
		if s == nil {
			continue
		}
		size := s.SerializedSize()
		c.data[s.ID] = s.Clone()
		c.sizes[s.ID] = size
		c.used += size
	}
	c.dirty.Store(false)
}

func (c *SnippetCollection) Usage() StorageUsage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u := StorageUsage{UsedBytes: c.used, QuotaBytes: c.quota}
	if c.quota > 0 {
		u.Percent = float64(c.used) / float64(c.quota) * 100
	}
	return u
}

// DirtySincePersist reports whether the collection changed since the last
// MarkPersisted. The persistence scheduler uses it to skip idle saves.
func (c *SnippetCollection) DirtySincePersist() bool { return c.dirty.Load() }

func (c *SnippetCollection) MarkPersisted() { c.dirty.Store(false) }

package snippets

import (
	"time"

	"vsd/internal/models"
	"vsd/internal/providers"
	"vsd/internal/structures"
)

// FlushMode controls whether a draft edit is committed through the debounce
// window or synchronously.
type FlushMode int

const (
	FlushDebounced FlushMode = iota
	FlushNow
)

// Patch carries partial snippet updates. Nil fields are left untouched.
type Patch struct {
	Name    *string
	Spec    *string
	Comment *string
	Tags    *[]string
	Meta    map[string]any
}

type ListOptions struct {
	SortKey    models.SnippetSortKey
	Descending bool
	Search     string
}

type StoreInterface interface {
	Create() (*models.Snippet, error)
	Get(id int64) (*models.Snippet, error)
	Update(id int64, patch Patch) (*models.Snippet, error)
	Delete(id int64) error
	Duplicate(id int64) (*models.Snippet, error)
	List(opts ListOptions) []*models.Snippet
	UpdateDraft(id int64, text string, mode FlushMode) error
	Publish(id int64) (*models.Snippet, error)
	Revert(id int64) (*models.Snippet, error)
	ExtractDatasetRefs(id int64) ([]string, error)
	Import(s *models.Snippet) (renamed bool, err error)
	Usage() models.StorageUsage
	Len() int
	GetSnapshot() []*models.Snippet
	Load(snippets []*models.Snippet)
	DirtySincePersist() bool
	MarkPersisted()
	Flush() error
}

// Store is the in-memory snippet store. All writes go through the quota
// check in the collection; draft edits arrive via the debouncer.
type Store struct {
	collection *models.SnippetCollection
	debouncer  *Debouncer
	logger     providers.Logger
}

func NewStore(conf *structures.Config, logger providers.Logger) StoreInterface {
	s := &Store{
		collection: models.NewSnippetCollection(conf.Snippets.QuotaBytes),
		logger:     logger,
	}
	s.debouncer = NewDebouncer(conf.Settings.AutosaveDebounce, s.commitDraft, logger)
	return s
}

// save recomputes the dataset reference index from the effective spec text
// and writes through the quota check.
func (s *Store) save(sn *models.Snippet) error {
	sn.DatasetRefs = ExtractRefs(sn.CurrentSpec())
	return s.collection.Put(sn)
}

// Create inserts an empty snippet named after the creation timestamp.
func (s *Store) Create() (*models.Snippet, error) {
	now := time.Now().UTC()
	sn := &models.Snippet{
		ID:       models.NewRecordID(),
		Name:     models.DefaultSnippetName(now),
		Created:  now,
		Modified: now,
		Tags:     []string{},
	}
	if err := s.save(sn); err != nil {
		return nil, err
	}
	return sn, nil
}

func (s *Store) Get(id int64) (*models.Snippet, error) {
	sn, ok := s.collection.Get(id)
	if !ok {
		return nil, &models.NotFoundError{Resource: "snippet", ID: id}
	}
	return sn, nil
}

// Update applies a metadata patch. Direct spec writes are rejected while a
// draft is pending; publish or revert the draft first.
func (s *Store) Update(id int64, patch Patch) (*models.Snippet, error) {
	sn, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if patch.Spec != nil {
		if sn.Dirty() {
			return nil, models.ErrDraftPending
		}
		sn.Spec = *patch.Spec
	}
	if patch.Name != nil {
		sn.Name = *patch.Name
	}
	if patch.Comment != nil {
		sn.Comment = *patch.Comment
	}
	if patch.Tags != nil {
		sn.Tags = append([]string{}, (*patch.Tags)...)
	}
	if patch.Meta != nil {
		if sn.Meta == nil {
			sn.Meta = make(map[string]any, len(patch.Meta))
		}
		for k, v := range patch.Meta {
			sn.Meta[k] = v
		}
	}
	sn.Modified = time.Now().UTC()
	if err := s.save(sn); err != nil {
		return nil, err
	}
	return sn, nil
}

func (s *Store) Delete(id int64) error {
	s.debouncer.Cancel(id)
	if !s.collection.Delete(id) {
		return &models.NotFoundError{Resource: "snippet", ID: id}
	}
	return nil
}

// Duplicate copies a snippet, draft included, under a fresh id and a
// "_copy" suffixed name.
func (s *Store) Duplicate(id int64) (*models.Snippet, error) {
	if err := s.debouncer.FlushID(id); err != nil {
		return nil, err
	}
	sn, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	dup := sn.Clone()
	dup.ID = models.NewRecordID()
	dup.Name = sn.Name + "_copy"
	dup.Created = now
	dup.Modified = now
	if err := s.save(dup); err != nil {
		return nil, err
	}
	return dup, nil
}

func (s *Store) List(opts ListOptions) []*models.Snippet {
	return s.collection.List(opts.SortKey, opts.Descending, opts.Search)
}

// UpdateDraft records new draft text. Debounced edits coalesce within the
// autosave window; FlushNow commits synchronously.
func (s *Store) UpdateDraft(id int64, text string, mode FlushMode) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if mode == FlushNow {
		return s.commitDraft(id, text)
	}
	s.debouncer.Edit(id, text)
	return nil
}

// commitDraft stores text as the pending draft. Text identical to the
// published spec clears the draft instead, returning the snippet to a
// clean state.
func (s *Store) commitDraft(id int64, text string) error {
	sn, err := s.Get(id)
	if err != nil {
		return err
	}
	if text == sn.Spec {
		sn.DraftSpec = nil
	} else {
		sn.DraftSpec = &text
	}
	sn.Modified = time.Now().UTC()
	return s.save(sn)
}

// Publish promotes the pending draft to the published spec. Pending
// debounced edits are committed first so the freshest text is published.
func (s *Store) Publish(id int64) (*models.Snippet, error) {
	if err := s.debouncer.FlushID(id); err != nil {
		return nil, err
	}
	sn, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !sn.Dirty() {
		return sn, nil
	}
	sn.Spec = *sn.DraftSpec
	sn.DraftSpec = nil
	sn.Modified = time.Now().UTC()
	if err := s.save(sn); err != nil {
		return nil, err
	}
	return sn, nil
}

// Revert discards the pending draft, debounced edits included, restoring
// the published spec as the working copy.
func (s *Store) Revert(id int64) (*models.Snippet, error) {
	s.debouncer.Cancel(id)
	sn, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if sn.DraftSpec == nil {
		return sn, nil
	}
	sn.DraftSpec = nil
	sn.Modified = time.Now().UTC()
	if err := s.save(sn); err != nil {
		return nil, err
	}
	return sn, nil
}

// ExtractDatasetRefs rebuilds and returns the reference index for one
// snippet on demand.
func (s *Store) ExtractDatasetRefs(id int64) ([]string, error) {
	sn, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.save(sn); err != nil {
		return nil, err
	}
	return sn.DatasetRefs, nil
}

// Import inserts a foreign snippet. An id collision gets a fresh id rather
// than overwriting the existing record; renamed reports that.
func (s *Store) Import(sn *models.Snippet) (bool, error) {
	renamed := false
	if _, taken := s.collection.Get(sn.ID); taken {
		sn.ID = models.NewRecordID()
		renamed = true
	}
	if sn.Tags == nil {
		sn.Tags = []string{}
	}
	if err := s.save(sn); err != nil {
		return false, err
	}
	return renamed, nil
}

func (s *Store) Usage() models.StorageUsage { return s.collection.Usage() }

func (s *Store) Len() int { return s.collection.Len() }

func (s *Store) GetSnapshot() []*models.Snippet { return s.collection.All() }

func (s *Store) Load(snippets []*models.Snippet) { s.collection.Load(snippets) }

func (s *Store) DirtySincePersist() bool { return s.collection.DirtySincePersist() }

func (s *Store) MarkPersisted() { s.collection.MarkPersisted() }

// Flush commits every pending debounced draft edit.
func (s *Store) Flush() error { return s.debouncer.FlushAll() }

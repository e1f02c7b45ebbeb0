package snippets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vsd/internal/models"
	"vsd/internal/structures"
	"vsd/internal/testutil"
)

func testConfig(quota int64) *structures.Config {
	return &structures.Config{
		Snippets: structures.SnippetsConfig{QuotaBytes: quota},
		Settings: structures.SettingsConfig{AutosaveDebounce: 10 * time.Millisecond},
	}
}

func newTestStore(t *testing.T, quota int64) StoreInterface {
	t.Helper()
	return NewStore(testConfig(quota), &testutil.MockLogger{})
}

func strPtr(s string) *string { return &s }

func TestStore_CreateDefaults(t *testing.T) {
	s := newTestStore(t, 0)
	sn, err := s.Create()
	require.NoError(t, err)

	assert.NotZero(t, sn.ID)
	assert.NotEmpty(t, sn.Name)
	assert.Empty(t, sn.Spec)
	assert.False(t, sn.Dirty())
	assert.Empty(t, sn.DatasetRefs)
	assert.Equal(t, 1, s.Len())
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t, 0)
	_, err := s.Get(42)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStore_UpdateMetadata(t *testing.T) {
	s := newTestStore(t, 0)
	sn, err := s.Create()
	require.NoError(t, err)

	updated, err := s.Update(sn.ID, Patch{
		Name:    strPtr("renamed"),
		Comment: strPtr("a comment"),
		Tags:    &[]string{"viz", "demo"},
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, "a comment", updated.Comment)
	assert.Equal(t, []string{"viz", "demo"}, updated.Tags)
}

func TestStore_UpdateSpecRecomputesRefs(t *testing.T) {
	s := newTestStore(t, 0)
	sn, err := s.Create()
	require.NoError(t, err)

	updated, err := s.Update(sn.ID, Patch{Spec: strPtr(`{"data":{"name":"sales"},"mark":"bar"}`)})
	require.NoError(t, err)
	assert.Equal(t, []string{"sales"}, updated.DatasetRefs)
}

func TestStore_UpdateSpecRejectedWhileDirty(t *testing.T) {
	s := newTestStore(t, 0)
	sn, err := s.Create()
	require.NoError(t, err)
	require.NoError(t, s.UpdateDraft(sn.ID, `{"mark":"line"}`, FlushNow))

	_, err = s.Update(sn.ID, Patch{Spec: strPtr(`{"mark":"bar"}`)})
	assert.ErrorIs(t, err, models.ErrDraftPending)

	// Metadata updates still go through while a draft is pending.
	_, err = s.Update(sn.ID, Patch{Name: strPtr("still fine")})
	assert.NoError(t, err)
}

func TestStore_DraftPublishCycle(t *testing.T) {
	s := newTestStore(t, 0)
	sn, err := s.Create()
	require.NoError(t, err)

	draft := `{"data":{"name":"sales"},"mark":"bar"}`
	require.NoError(t, s.UpdateDraft(sn.ID, draft, FlushNow))

	got, err := s.Get(sn.ID)
	require.NoError(t, err)
	assert.True(t, got.Dirty())
	assert.Equal(t, draft, got.CurrentSpec())
	assert.Empty(t, got.Spec)
	// Refs track the working copy, draft included.
	assert.Equal(t, []string{"sales"}, got.DatasetRefs)

	published, err := s.Publish(sn.ID)
	require.NoError(t, err)
	assert.False(t, published.Dirty())
	assert.Equal(t, draft, published.Spec)
}

func TestStore_PublishCleanIsNoop(t *testing.T) {
	s := newTestStore(t, 0)
	sn, err := s.Create()
	require.NoError(t, err)

	published, err := s.Publish(sn.ID)
	require.NoError(t, err)
	assert.False(t, published.Dirty())
}

func TestStore_Revert(t *testing.T) {
	s := newTestStore(t, 0)
	sn, err := s.Create()
	require.NoError(t, err)

	spec := `{"mark":"bar"}`
	require.NoError(t, s.UpdateDraft(sn.ID, spec, FlushNow))
	_, err = s.Publish(sn.ID)
	require.NoError(t, err)

	require.NoError(t, s.UpdateDraft(sn.ID, `{"mark":"line"}`, FlushNow))

	reverted, err := s.Revert(sn.ID)
	require.NoError(t, err)
	assert.False(t, reverted.Dirty())
	assert.Equal(t, spec, reverted.Spec)
	assert.Equal(t, spec, reverted.CurrentSpec())
}

func TestStore_DraftEqualToPublishedClearsDirty(t *testing.T) {
	s := newTestStore(t, 0)
	sn, err := s.Create()
	require.NoError(t, err)

	spec := `{"mark":"bar"}`
	require.NoError(t, s.UpdateDraft(sn.ID, spec, FlushNow))
	_, err = s.Publish(sn.ID)
	require.NoError(t, err)

	// Editing back to the published text leaves the snippet clean.
	require.NoError(t, s.UpdateDraft(sn.ID, spec, FlushNow))
	got, err := s.Get(sn.ID)
	require.NoError(t, err)
	assert.False(t, got.Dirty())
}

func TestStore_DraftDebouncedCommits(t *testing.T) {
	s := newTestStore(t, 0)
	sn, err := s.Create()
	require.NoError(t, err)

	require.NoError(t, s.UpdateDraft(sn.ID, `{"mark":"area"}`, FlushDebounced))

	// Before the window elapses nothing is committed.
	got, err := s.Get(sn.ID)
	require.NoError(t, err)
	assert.False(t, got.Dirty())

	assert.Eventually(t, func() bool {
		got, err := s.Get(sn.ID)
		return err == nil && got.Dirty()
	}, time.Second, 5*time.Millisecond)
}

func TestStore_FlushCommitsPendingEdits(t *testing.T) {
	s := newTestStore(t, 0)
	sn, err := s.Create()
	require.NoError(t, err)

	require.NoError(t, s.UpdateDraft(sn.ID, `{"mark":"rule"}`, FlushDebounced))
	require.NoError(t, s.Flush())

	got, err := s.Get(sn.ID)
	require.NoError(t, err)
	assert.True(t, got.Dirty())
}

func TestStore_PublishFlushesPendingEdit(t *testing.T) {
	s := newTestStore(t, 0)
	sn, err := s.Create()
	require.NoError(t, err)

	// The debounced edit has not fired yet when publish arrives.
	require.NoError(t, s.UpdateDraft(sn.ID, `{"mark":"tick"}`, FlushDebounced))
	published, err := s.Publish(sn.ID)
	require.NoError(t, err)
	assert.Equal(t, `{"mark":"tick"}`, published.Spec)
}

func TestStore_RevertDiscardsPendingEdit(t *testing.T) {
	s := newTestStore(t, 0)
	sn, err := s.Create()
	require.NoError(t, err)

	require.NoError(t, s.UpdateDraft(sn.ID, `{"mark":"point"}`, FlushDebounced))
	reverted, err := s.Revert(sn.ID)
	require.NoError(t, err)
	assert.False(t, reverted.Dirty())

	// The pending edit never lands afterwards.
	time.Sleep(30 * time.Millisecond)
	got, err := s.Get(sn.ID)
	require.NoError(t, err)
	assert.False(t, got.Dirty())
}

func TestStore_Duplicate(t *testing.T) {
	s := newTestStore(t, 0)
	sn, err := s.Create()
	require.NoError(t, err)
	_, err = s.Update(sn.ID, Patch{Name: strPtr("original"), Spec: strPtr(`{"mark":"bar"}`)})
	require.NoError(t, err)

	dup, err := s.Duplicate(sn.ID)
	require.NoError(t, err)
	assert.NotEqual(t, sn.ID, dup.ID)
	assert.Equal(t, "original_copy", dup.Name)
	assert.Equal(t, `{"mark":"bar"}`, dup.Spec)
	assert.Equal(t, 2, s.Len())
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t, 0)
	sn, err := s.Create()
	require.NoError(t, err)

	require.NoError(t, s.Delete(sn.ID))
	assert.Zero(t, s.Len())
	assert.ErrorIs(t, s.Delete(sn.ID), models.ErrNotFound)
}

func TestStore_QuotaExceeded(t *testing.T) {
	s := newTestStore(t, 1024)
	sn, err := s.Create()
	require.NoError(t, err)

	big := make([]byte, 4096)
	for i := range big {
		big[i] = 'x'
	}
	_, err = s.Update(sn.ID, Patch{Comment: strPtr(string(big))})
	assert.ErrorIs(t, err, models.ErrQuotaExceeded)

	// Store still holds the previous version.
	got, err := s.Get(sn.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Comment)
}

func TestStore_ExtractDatasetRefs(t *testing.T) {
	s := newTestStore(t, 0)
	sn, err := s.Create()
	require.NoError(t, err)
	_, err = s.Update(sn.ID, Patch{Spec: strPtr(`{
		"layer": [
			{"data": {"name": "sales"}},
			{"data": {"name": "regions"}}
		]
	}`)})
	require.NoError(t, err)

	refs, err := s.ExtractDatasetRefs(sn.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"sales", "regions"}, refs)
}

func TestStore_ExtractDatasetRefs_InvalidSpec(t *testing.T) {
	s := newTestStore(t, 0)
	sn, err := s.Create()
	require.NoError(t, err)
	require.NoError(t, s.UpdateDraft(sn.ID, "{mid-edit garbage", FlushNow))

	refs, err := s.ExtractDatasetRefs(sn.ID)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestStore_ImportCollidingID(t *testing.T) {
	s := newTestStore(t, 0)
	sn, err := s.Create()
	require.NoError(t, err)

	foreign := &models.Snippet{
		ID:       sn.ID,
		Name:     "foreign",
		Created:  time.Now(),
		Modified: time.Now(),
		Spec:     `{"mark":"bar"}`,
	}
	renamed, err := s.Import(foreign)
	require.NoError(t, err)
	assert.True(t, renamed)
	assert.NotEqual(t, sn.ID, foreign.ID)
	assert.Equal(t, 2, s.Len())

	// The original record was not overwritten.
	got, err := s.Get(sn.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "foreign", got.Name)
}

func TestStore_List(t *testing.T) {
	s := newTestStore(t, 0)
	a, err := s.Create()
	require.NoError(t, err)
	_, err = s.Update(a.ID, Patch{Name: strPtr("bbb")})
	require.NoError(t, err)

	b, err := s.Create()
	require.NoError(t, err)
	_, err = s.Update(b.ID, Patch{Name: strPtr("aaa")})
	require.NoError(t, err)

	out := s.List(ListOptions{SortKey: models.SnippetSortName})
	require.Len(t, out, 2)
	assert.Equal(t, "aaa", out[0].Name)
}

func TestExtractRefs(t *testing.T) {
	assert.Equal(t, []string{"sales"}, ExtractRefs(`{"data":{"name":"sales"}}`))
	assert.Empty(t, ExtractRefs("not json"))
	assert.Empty(t, ExtractRefs(`{"data":{"values":[1,2]}}`))
}

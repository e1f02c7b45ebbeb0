package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnippet(id int64, name string) *Snippet {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &Snippet{
		ID:       id,
		Name:     name,
		Created:  now,
		Modified: now,
		Spec:     `{"mark":"bar"}`,
		Tags:     []string{},
	}
}

func TestSnippetCollection_PutGet(t *testing.T) {
	c := NewSnippetCollection(0)
	require.NoError(t, c.Put(testSnippet(1, "one")))

	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, "one", got.Name)

	_, ok = c.Get(2)
	assert.False(t, ok)
}

func TestSnippetCollection_GetReturnsClone(t *testing.T) {
	c := NewSnippetCollection(0)
	require.NoError(t, c.Put(testSnippet(1, "one")))

	got, _ := c.Get(1)
	got.Name = "mutated"

	again, _ := c.Get(1)
	assert.Equal(t, "one", again.Name)
}

func TestSnippetCollection_QuotaRejectsWrite(t *testing.T) {
	s := testSnippet(1, "big")
	c := NewSnippetCollection(s.SerializedSize() - 1)

	err := c.Put(s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	// Nothing was stored and accounting is untouched.
	_, ok := c.Get(1)
	assert.False(t, ok)
	assert.Zero(t, c.Usage().UsedBytes)
}

func TestSnippetCollection_QuotaCountsReplacementNotSum(t *testing.T) {
	s := testSnippet(1, "one")
	c := NewSnippetCollection(s.SerializedSize() + 16)
	require.NoError(t, c.Put(s))

	// Replacing the same id stays within quota even though put twice.
	require.NoError(t, c.Put(testSnippet(1, "two")))
	got, _ := c.Get(1)
	assert.Equal(t, "two", got.Name)
}

func TestSnippetCollection_DeleteFreesQuota(t *testing.T) {
	c := NewSnippetCollection(0)
	require.NoError(t, c.Put(testSnippet(1, "one")))
	used := c.Usage().UsedBytes
	assert.Positive(t, used)

	assert.True(t, c.Delete(1))
	assert.Zero(t, c.Usage().UsedBytes)
	assert.False(t, c.Delete(1))
}

func TestSnippetCollection_ListSortByName(t *testing.T) {
	c := NewSnippetCollection(0)
	require.NoError(t, c.Put(testSnippet(1, "banana")))
	require.NoError(t, c.Put(testSnippet(2, "apple")))
	require.NoError(t, c.Put(testSnippet(3, "cherry")))

	out := c.List(SnippetSortName, false, "")
	require.Len(t, out, 3)
	assert.Equal(t, "apple", out[0].Name)
	assert.Equal(t, "cherry", out[2].Name)

	desc := c.List(SnippetSortName, true, "")
	assert.Equal(t, "cherry", desc[0].Name)
}

func TestSnippetCollection_ListTieBreakByID(t *testing.T) {
	c := NewSnippetCollection(0)
	require.NoError(t, c.Put(testSnippet(5, "same")))
	require.NoError(t, c.Put(testSnippet(2, "same")))

	out := c.List(SnippetSortName, false, "")
	assert.Equal(t, int64(2), out[0].ID)
	assert.Equal(t, int64(5), out[1].ID)
}

func TestSnippetCollection_ListSearchNameAndComment(t *testing.T) {
	c := NewSnippetCollection(0)
	a := testSnippet(1, "Sales Chart")
	b := testSnippet(2, "other")
	b.Comment = "quarterly SALES numbers"
	d := testSnippet(3, "unrelated")
	require.NoError(t, c.Put(a))
	require.NoError(t, c.Put(b))
	require.NoError(t, c.Put(d))

	out := c.List(SnippetSortName, false, "sales")
	require.Len(t, out, 2)
}

func TestSnippetCollection_LoadReplacesAndIgnoresQuota(t *testing.T) {
	s := testSnippet(1, "existing")
	c := NewSnippetCollection(1) // quota smaller than any snippet

	c.Load([]*Snippet{s, nil, testSnippet(2, "second")})
	assert.Equal(t, 2, c.Len())
	assert.False(t, c.DirtySincePersist())

	// New writes still enforce the quota.
	err := c.Put(testSnippet(3, "third"))
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestSnippetCollection_DirtyTracking(t *testing.T) {
	c := NewSnippetCollection(0)
	assert.False(t, c.DirtySincePersist())

	require.NoError(t, c.Put(testSnippet(1, "one")))
	assert.True(t, c.DirtySincePersist())

	c.MarkPersisted()
	assert.False(t, c.DirtySincePersist())

	c.Delete(1)
	assert.True(t, c.DirtySincePersist())
}

func TestSnippetCollection_UsagePercent(t *testing.T) {
	s := testSnippet(1, "one")
	c := NewSnippetCollection(s.SerializedSize() * 2)
	require.NoError(t, c.Put(s))

	u := c.Usage()
	assert.InDelta(t, 50.0, u.Percent, 1.0)
}

package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTracker_BeginSupersedes(t *testing.T) {
	tr := NewRenderTracker()

	first := tr.Begin()
	assert.True(t, tr.Current(first))

	second := tr.Begin()
	assert.False(t, tr.Current(first))
	assert.True(t, tr.Current(second))
}

func TestRenderTracker_EmptyTokenNeverCurrent(t *testing.T) {
	tr := NewRenderTracker()
	assert.False(t, tr.Current(""))

	tr.Begin()
	assert.False(t, tr.Current(""))
}

func TestRenderTracker_TokensUnique(t *testing.T) {
	tr := NewRenderTracker()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok := tr.Begin()
		assert.False(t, seen[tok])
		seen[tok] = true
	}
}

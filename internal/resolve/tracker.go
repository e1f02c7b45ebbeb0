package resolve

import (
	"sync"

	"github.com/rs/xid"
)

// RenderTracker hands out a generation token per render cycle. A new Begin
// supersedes every earlier generation, letting callers drop results of
// resolutions that finished after a newer cycle already started.
type RenderTracker struct {
	mu      sync.Mutex
	current string
}

func NewRenderTracker() *RenderTracker {
	return &RenderTracker{}
}

// Begin starts a new render generation and returns its token.
func (t *RenderTracker) Begin() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = xid.New().String()
	return t.current
}

// Current reports whether token still identifies the latest generation.
func (t *RenderTracker) Current(token string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return token != "" && token == t.current
}

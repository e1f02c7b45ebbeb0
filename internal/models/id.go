package models

import (
	"math/rand"
	"time"
)

// NewRecordID derives a record id from creation time plus a random salt,
// so rapid consecutive creations don't collide. Collision probability is
// accepted as negligible, not excluded.
func NewRecordID() int64 {
	return time.Now().UnixMilli() + int64(rand.Intn(10000))
}

// DefaultSnippetName returns an ISO-like timestamp token used when a new
// snippet has no explicit name.
func DefaultSnippetName(t time.Time) string {
	return t.Format("2006-01-02T15-04-05")
}

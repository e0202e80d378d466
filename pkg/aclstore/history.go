package aclstore

import (
	"fmt"
	"time"

	"github.com/psaab/netacl/pkg/acl"
)

// Revision is a snapshot of an ACL displaced by a later Put, Remove, or
// Rollback. Timestamp records when the revision was displaced.
type Revision struct {
	ACL       *acl.ACL
	Timestamp time.Time
}

// History is a ring buffer of ACL revisions for rollback.
type History struct {
	entries []*Revision
	maxSize int
}

// NewHistory creates a new History with the given maximum size.
func NewHistory(maxSize int) *History {
	return &History{
		maxSize: maxSize,
	}
}

// Push adds a revision to the history.
func (h *History) Push(rev *Revision) {
	h.entries = append(h.entries, rev)
	if len(h.entries) > h.maxSize {
		h.entries = h.entries[1:]
	}
}

// Get returns the nth most recent revision (0 = most recent).
func (h *History) Get(n int) (*Revision, error) {
	if n < 0 || n >= len(h.entries) {
		return nil, fmt.Errorf("no revision %d (have %d)", n+1, len(h.entries))
	}
	// entries are stored oldest-first, so index from the end
	idx := len(h.entries) - 1 - n
	return h.entries[idx], nil
}

// Len returns the number of revisions held.
func (h *History) Len() int {
	return len(h.entries)
}

// MaxSize returns the maximum number of revisions held.
func (h *History) MaxSize() int {
	return h.maxSize
}

// List returns all revisions, most recent first.
func (h *History) List() []*Revision {
	result := make([]*Revision, len(h.entries))
	for i, rev := range h.entries {
		result[len(h.entries)-1-i] = rev
	}
	return result
}

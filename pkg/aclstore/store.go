// Package aclstore implements a directory-backed repository of access
// lists: one file per ACL, parsed on load, rendered back in its native
// dialect on store, with per-ACL revision history and rollback support.
package aclstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/psaab/netacl/pkg/acl"
)

// ErrNotFound reports a name with no ACL in the store.
var ErrNotFound = errors.New("ACL not found")

// maxRevisions bounds the per-ACL history ring.
const maxRevisions = 50

// Store manages a directory of ACL files, one per access list. Files
// are named acl.<name> by convention, but an ACL loaded from a file
// with a different name keeps that file; the parsed content, not the
// file name, decides identity.
type Store struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	dir     string
	acls    map[string]*entry
	history map[string]*History
}

type entry struct {
	acl  *acl.ACL
	path string
}

// New creates a store rooted at dir. Call Load to read existing files.
// A nil logger falls back to the process default.
func New(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger:  logger,
		dir:     dir,
		acls:    make(map[string]*entry),
		history: make(map[string]*History),
	}
}

// Load reads every acl.* file under the store directory; a missing
// directory loads as empty. Files that fail to parse or that collide on
// an already-loaded name are reported together, and the rest are kept.
// Reloading replaces the loaded set but keeps revision history.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths, err := filepath.Glob(filepath.Join(s.dir, "acl.*"))
	if err != nil {
		return err
	}

	var result *multierror.Error
	acls := make(map[string]*entry, len(paths))
	for _, path := range paths {
		base := filepath.Base(path)
		a, err := acl.ParseFile(path)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", base, err))
			continue
		}
		if a.Name == "" {
			result = multierror.Append(result, fmt.Errorf("%s: document has no ACL name", base))
			continue
		}
		if prev, ok := acls[a.Name]; ok {
			result = multierror.Append(result,
				fmt.Errorf("%s: ACL %q already loaded from %s", base, a.Name, filepath.Base(prev.path)))
			continue
		}
		acls[a.Name] = &entry{acl: a, path: path}
	}
	s.acls = acls
	s.logger.Debug("acls loaded", "dir", s.dir, "count", len(acls))
	return result.ErrorOrNil()
}

// Names returns the loaded ACL names, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.acls))
	for name := range s.acls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a copy of the named ACL. Callers may mutate the copy
// freely; the stored version changes only through Put.
func (s *Store) Get(name string) (*acl.ACL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.acls[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return e.acl.Copy(), nil
}

// Check reports whether the ACL would be accepted by Put: it must pass
// Validate and render in its native dialect. Nothing is written.
func (s *Store) Check(a *acl.ACL) error {
	if err := a.Validate(); err != nil {
		return err
	}
	_, err := render(a)
	return err
}

// Put validates the ACL, renders it in its native dialect, writes it
// under the store directory, and replaces any loaded version. The
// displaced version, if any, is pushed onto the ACL's revision history.
func (s *Store) Put(a *acl.ACL) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := a.Validate(); err != nil {
		return err
	}
	path := filepath.Join(s.dir, "acl."+a.Name)
	prev, ok := s.acls[a.Name]
	if ok {
		path = prev.path
	}
	if err := s.write(a, path); err != nil {
		return err
	}

	if ok {
		s.historyFor(a.Name).Push(&Revision{ACL: prev.acl, Timestamp: time.Now()})
	}
	s.acls[a.Name] = &entry{acl: a.Copy(), path: path}
	s.logger.Debug("acl stored", "name", a.Name, "file", filepath.Base(path))
	return nil
}

// Remove deletes the named ACL and its backing file. The removed
// version is pushed onto the revision history, so a later Rollback can
// restore it.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.acls[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	s.historyFor(name).Push(&Revision{ACL: e.acl, Timestamp: time.Now()})
	delete(s.acls, name)
	s.logger.Debug("acl removed", "name", name)
	return nil
}

// Rollback restores the nth previous revision of the named ACL: 1 is
// the revision displaced by the most recent Put or Remove. The current
// version, if any, is pushed onto the history first, and the restored
// version is written back to disk.
func (s *Store) Rollback(name string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 1 {
		return fmt.Errorf("rollback %q: revision must be 1 or greater", name)
	}
	h, ok := s.history[name]
	if !ok {
		return fmt.Errorf("rollback %q: no revisions", name)
	}
	rev, err := h.Get(n - 1)
	if err != nil {
		return fmt.Errorf("rollback %q: %w", name, err)
	}

	path := filepath.Join(s.dir, "acl."+name)
	if e, ok := s.acls[name]; ok {
		path = e.path
	}
	if err := s.write(rev.ACL, path); err != nil {
		return err
	}
	if e, ok := s.acls[name]; ok {
		h.Push(&Revision{ACL: e.acl, Timestamp: time.Now()})
	}
	s.acls[name] = &entry{acl: rev.ACL.Copy(), path: path}
	s.logger.Debug("acl rolled back", "name", name, "revision", n)
	return nil
}

// Revisions returns the named ACL's revision history, most recent
// first. The revisions are shared, not copies; callers must not mutate
// them.
func (s *Store) Revisions(name string) []*Revision {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.history[name]
	if !ok {
		return nil
	}
	return h.List()
}

// historyFor returns the named ACL's history ring, creating it on first
// use. Caller holds the write lock.
func (s *Store) historyFor(name string) *History {
	h, ok := s.history[name]
	if !ok {
		h = NewHistory(maxRevisions)
		s.history[name] = h
	}
	return h
}

// write renders the ACL and writes it to path, creating the store
// directory if needed. Caller holds the write lock.
func (s *Store) write(a *acl.ACL, path string) error {
	lines, err := render(a)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	data := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// render emits the ACL in its native dialect. An ACL built in memory
// with no format set is written as JunOS.
func render(a *acl.ACL) ([]string, error) {
	format := a.Format
	if format == "" {
		format = acl.FormatJunos
	}
	return a.Output(format, acl.OutputOptions{})
}

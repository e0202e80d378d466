package aclstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/psaab/netacl/pkg/acl"
)

const edgeV1 = `filter edge {
    term web {
        from {
            protocol tcp;
            destination-port 443;
        }
        then accept;
    }
}
`

const edgeV2 = `filter edge {
    term web {
        from {
            protocol tcp;
            destination-port [ 80 443 ];
        }
        then accept;
    }
}
`

const classic101 = `access-list 101 permit tcp any host 10.0.0.1 eq 443
access-list 101 deny ip any any
`

const countedFilter = `filter 199 {
    term web {
        from {
            protocol tcp;
        }
        then {
            count web;
            accept;
        }
    }
}
`

// newTestStore creates a Store backed by a temp directory for testing.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir(), nil)
}

func mustParse(t *testing.T, text string) *acl.ACL {
	t.Helper()
	a, err := acl.Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return a
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "acl.edge", edgeV1)
	writeFile(t, dir, "acl.101", classic101)

	s := New(dir, nil)
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	names := s.Names()
	if len(names) != 2 || names[0] != "101" || names[1] != "edge" {
		t.Fatalf("Names() = %v, want [101 edge]", names)
	}

	a, err := s.Get("edge")
	if err != nil {
		t.Fatalf("Get(edge): %v", err)
	}
	if a.Format != acl.FormatJunos {
		t.Errorf("edge format = %q, want junos", a.Format)
	}
	if len(a.Terms) != 1 {
		t.Errorf("edge terms = %d, want 1", len(a.Terms))
	}

	a, err = s.Get("101")
	if err != nil {
		t.Fatalf("Get(101): %v", err)
	}
	if a.Format != acl.FormatIOS {
		t.Errorf("101 format = %q, want ios", a.Format)
	}
	if len(a.Terms) != 2 {
		t.Errorf("101 terms = %d, want 2", len(a.Terms))
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing"), nil)
	if err := s.Load(); err != nil {
		t.Fatalf("Load should not error on a missing directory: %v", err)
	}
	if len(s.Names()) != 0 {
		t.Errorf("Names() = %v, want empty", s.Names())
	}
}

func TestLoadBadFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "acl.edge", edgeV1)
	writeFile(t, dir, "acl.bad", "bogus content\n")

	s := New(dir, nil)
	err := s.Load()
	if err == nil {
		t.Fatal("expected error for unparseable file")
	}
	if !strings.Contains(err.Error(), "acl.bad") {
		t.Errorf("error %q does not name the bad file", err)
	}

	// The good file still loads.
	if _, err := s.Get("edge"); err != nil {
		t.Errorf("Get(edge) after partial load: %v", err)
	}
}

func TestLoadDuplicateName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "acl.a", edgeV1)
	writeFile(t, dir, "acl.b", edgeV2)

	s := New(dir, nil)
	err := s.Load()
	if err == nil {
		t.Fatal("expected error for duplicate ACL name")
	}
	if !strings.Contains(err.Error(), "already loaded") {
		t.Errorf("error %q should mention the collision", err)
	}

	// First file wins; glob order is lexical.
	a, err := s.Get("edge")
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(mustParse(t, edgeV1)) {
		t.Error("surviving ACL should come from acl.a")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := newTestStore(t)
	if err := s.Put(mustParse(t, edgeV1)); err != nil {
		t.Fatal(err)
	}

	a, err := s.Get("edge")
	if err != nil {
		t.Fatal(err)
	}
	a.Comments = append(a.Comments, acl.Comment(" scribble "))

	again, err := s.Get("edge")
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Comments) != 0 {
		t.Error("mutating a Get result should not change the stored ACL")
	}
}

func TestPutWritesNativeDialect(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)

	if err := s.Put(mustParse(t, edgeV1)); err != nil {
		t.Fatalf("Put(edge): %v", err)
	}
	if err := s.Put(mustParse(t, classic101)); err != nil {
		t.Fatalf("Put(101): %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "acl.edge"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "filter edge {") {
		t.Errorf("acl.edge should hold junos output, got:\n%s", data)
	}

	data, err = os.ReadFile(filepath.Join(dir, "acl.101"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "access-list 101 ") {
		t.Errorf("acl.101 should hold classic output, got:\n%s", data)
	}
}

func TestPutAndReload(t *testing.T) {
	dir := t.TempDir()

	s1 := New(dir, nil)
	want := mustParse(t, edgeV1)
	if err := s1.Put(want); err != nil {
		t.Fatal(err)
	}

	// Load in a new store
	s2 := New(dir, nil)
	if err := s2.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := s2.Get("edge")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(want) {
		t.Error("reloaded ACL differs from the stored one")
	}
}

func TestPutValidates(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)

	a := mustParse(t, edgeV1)
	a.Terms = append(a.Terms, a.Terms[0].Copy())
	if err := s.Put(a); err == nil {
		t.Fatal("expected Put to reject a duplicate term name")
	}

	// Nothing written.
	if _, err := os.Stat(filepath.Join(dir, "acl.edge")); !os.IsNotExist(err) {
		t.Error("rejected Put should not leave a file behind")
	}
}

func TestPutDefaultsToJunos(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)

	a, err := acl.NewACL("scratch")
	if err != nil {
		t.Fatal(err)
	}
	term := acl.NewTerm()
	if err := term.SetName("catch"); err != nil {
		t.Fatal(err)
	}
	a.Terms = append(a.Terms, term)

	if err := s.Put(a); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "acl.scratch"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "filter scratch {") {
		t.Errorf("formatless ACL should render as junos, got:\n%s", data)
	}
}

func TestPutKeepsLoadedPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "acl.primary", edgeV1)

	s := New(dir, nil)
	if err := s.Load(); err != nil {
		t.Fatal(err)
	}

	a, err := s.Get("edge")
	if err != nil {
		t.Fatal(err)
	}
	a.Comments = append(a.Comments, acl.Comment(" updated "))
	if err := s.Put(a); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "acl.primary"))
	if err != nil {
		t.Fatalf("Put should rewrite the file the ACL was loaded from: %v", err)
	}
	if !strings.Contains(string(data), "updated") {
		t.Error("acl.primary should hold the new version")
	}
	if _, err := os.Stat(filepath.Join(dir, "acl.edge")); !os.IsNotExist(err) {
		t.Error("Put should not create a second file for a loaded ACL")
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)
	if err := s.Put(mustParse(t, edgeV1)); err != nil {
		t.Fatal(err)
	}

	if err := s.Remove("edge"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Get("edge"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Remove = %v, want ErrNotFound", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "acl.edge")); !os.IsNotExist(err) {
		t.Error("backing file should be gone after Remove")
	}

	// Remove of an unknown name fails.
	if err := s.Remove("edge"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove = %v, want ErrNotFound", err)
	}
}

func TestRollback(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)

	v1 := mustParse(t, edgeV1)
	v2 := mustParse(t, edgeV2)
	if err := s.Put(v1); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(v2); err != nil {
		t.Fatal(err)
	}

	// Restore the version displaced by the second Put.
	if err := s.Rollback("edge", 1); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	got, err := s.Get("edge")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(v1) {
		t.Error("rollback should restore the first version")
	}

	// The file is rewritten too.
	data, err := os.ReadFile(filepath.Join(dir, "acl.edge"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "destination-port 443;") {
		t.Errorf("file should hold the restored version, got:\n%s", data)
	}

	// The displaced v2 lands on the history, most recent first.
	revs := s.Revisions("edge")
	if len(revs) != 2 {
		t.Fatalf("Revisions = %d entries, want 2", len(revs))
	}
	if !revs[0].ACL.Equal(v2) {
		t.Error("most recent revision should be the displaced v2")
	}
}

func TestRollbackAfterRemove(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)

	v1 := mustParse(t, edgeV1)
	if err := s.Put(v1); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove("edge"); err != nil {
		t.Fatal(err)
	}

	if err := s.Rollback("edge", 1); err != nil {
		t.Fatalf("Rollback after Remove: %v", err)
	}
	got, err := s.Get("edge")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(v1) {
		t.Error("rollback should restore the removed ACL")
	}
	if _, err := os.Stat(filepath.Join(dir, "acl.edge")); err != nil {
		t.Errorf("backing file should be recreated: %v", err)
	}
}

func TestRollbackErrors(t *testing.T) {
	s := newTestStore(t)
	if err := s.Put(mustParse(t, edgeV1)); err != nil {
		t.Fatal(err)
	}

	if err := s.Rollback("edge", 0); err == nil {
		t.Error("expected error for revision 0")
	}
	if err := s.Rollback("edge", 1); err == nil {
		t.Error("expected error with no revisions yet")
	}
	if err := s.Rollback("ghost", 1); err == nil {
		t.Error("expected error for unknown ACL")
	}
}

func TestCheck(t *testing.T) {
	s := newTestStore(t)

	if err := s.Check(mustParse(t, edgeV1)); err != nil {
		t.Errorf("Check(clean) = %v", err)
	}

	dup := mustParse(t, edgeV1)
	dup.Terms = append(dup.Terms, dup.Terms[0].Copy())
	if err := s.Check(dup); err == nil {
		t.Error("expected Check to flag a duplicate term name")
	}

	// Valid model, but the native dialect cannot express it.
	counted := mustParse(t, countedFilter)
	counted.Format = acl.FormatIOS
	if err := s.Check(counted); !errors.Is(err, acl.ErrVendorSupportLacking) {
		t.Errorf("Check = %v, want ErrVendorSupportLacking", err)
	}
}

func TestHistoryRing(t *testing.T) {
	h := NewHistory(3) // small buffer

	if h.Len() != 0 {
		t.Errorf("empty history len: %d", h.Len())
	}
	if h.MaxSize() != 3 {
		t.Errorf("MaxSize = %d, want 3", h.MaxSize())
	}

	for i := 0; i < 5; i++ {
		h.Push(&Revision{Timestamp: time.Now()})
	}

	// Only the 3 most recent survive.
	if h.Len() != 3 {
		t.Errorf("expected len 3, got %d", h.Len())
	}
	if len(h.List()) != 3 {
		t.Errorf("List: expected 3 entries, got %d", len(h.List()))
	}

	if _, err := h.Get(0); err != nil {
		t.Errorf("Get(0): %v", err)
	}
	if _, err := h.Get(10); err == nil {
		t.Error("expected error for out-of-bounds Get")
	}
}

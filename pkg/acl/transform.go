package acl

import "strconv"

// The transforms here return modified copies. An ACL is immutable once
// parsed; presentation tweaks happen on a copy, never in place.

// StripComments returns a copy of the ACL with every ACL-level and
// term-level comment removed.
func StripComments(a *ACL) *ACL {
	out := a.Copy()
	out.Comments = nil
	for _, t := range out.Terms {
		t.Comments = nil
	}
	return out
}

// NameTerms returns a copy of the ACL in which every unnamed term is
// assigned a positional name T1, T2, ... so the copy can render in
// dialects that require term names.
func NameTerms(a *ACL) *ACL {
	out := a.Copy()
	for i, t := range out.Terms {
		if t.Name == "" {
			t.Name = "T" + strconv.Itoa(i+1)
		}
	}
	return out
}

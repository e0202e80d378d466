package acl

// Covers reports whether this term matches at least the traffic other
// matches: every constraint the term imposes, other imposes at equal or
// narrower scope. Keys are compared one to one, so a split port or address
// key is never weighed against its unsplit form. An empty match set covers
// everything.
func (t *Term) Covers(other *Term) bool {
	for _, key := range t.Match.Keys() {
		switch matchClassOf(key.Kind) {
		case classNumeric:
			theirs := other.Match.Spans(key)
			if len(theirs) == 0 {
				return false
			}
			mine := NewRangeList(t.Match.Spans(key)...)
			if !mine.ContainsAll(NewRangeList(theirs...)) {
				return false
			}
		case classAddress:
			theirs := other.Match.Addresses(key)
			if len(theirs) == 0 {
				return false
			}
			mine := t.Match.Addresses(key)
			for _, o := range theirs {
				contained := false
				for _, m := range mine {
					if m.Contains(o) {
						contained = true
						break
					}
				}
				if !contained {
					return false
				}
			}
		case className:
			theirs := other.Match.Names(key)
			if len(theirs) == 0 {
				return false
			}
			mine := make(map[string]bool, t.Match.Len())
			for _, n := range t.Match.Names(key) {
				mine[n] = true
			}
			for _, n := range theirs {
				if !mine[n] {
					return false
				}
			}
		case classFlag:
			if !other.Match.Has(key) {
				return false
			}
		}
	}
	return true
}

// CheckAccess finds the first active term whose match covers the traffic
// described by want. The caller compares that term's action against the
// intended one.
func CheckAccess(a *ACL, want *Term) (*Term, bool) {
	for _, t := range a.Terms {
		if t.Inactive {
			continue
		}
		if t.Covers(want) {
			return t, true
		}
	}
	return nil, false
}

// Permits reports whether the traffic described by want is accepted by the
// first term covering it.
func (a *ACL) Permits(want *Term) bool {
	t, ok := CheckAccess(a, want)
	return ok && t.Action.Kind == ActionAccept
}

// InsertTerm returns a copy of the ACL with the term inserted before the
// first existing term that covers it, so the insertion cannot be shadowed;
// the term is appended when nothing covers it.
func InsertTerm(a *ACL, t *Term) *ACL {
	out := a.Copy()
	inserted := t.Copy()
	for i, existing := range out.Terms {
		if existing.Covers(inserted) {
			out.Terms = append(out.Terms[:i], append([]*Term{inserted}, out.Terms[i:]...)...)
			return out
		}
	}
	out.Terms = append(out.Terms, inserted)
	return out
}

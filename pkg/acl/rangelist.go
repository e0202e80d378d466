package acl

import (
	"sort"
	"strconv"
	"strings"
)

// Span is an inclusive integer interval. A span whose endpoints coincide is a
// scalar; NewSpan normalizes reversed endpoints.
type Span struct {
	Lo, Hi int
}

// Scalar returns the span holding exactly v.
func Scalar(v int) Span { return Span{Lo: v, Hi: v} }

// NewSpan returns the inclusive span [lo, hi], swapping reversed endpoints.
func NewSpan(lo, hi int) Span {
	if hi < lo {
		lo, hi = hi, lo
	}
	return Span{Lo: lo, Hi: hi}
}

// IsScalar reports whether the span holds a single value.
func (s Span) IsScalar() bool { return s.Lo == s.Hi }

func (s Span) String() string {
	if s.Lo == s.Hi {
		return strconv.Itoa(s.Lo)
	}
	return strconv.Itoa(s.Lo) + "-" + strconv.Itoa(s.Hi)
}

// RangeList is a set of integers kept in canonical form: sorted spans with
// duplicates removed, overlapping or adjacent spans merged, and degenerate
// ranges collapsed to scalars. The canonical form is restored after every
// mutation and never materializes the members of a span, so a full port
// range (0-65535) costs one element.
type RangeList struct {
	spans []Span
}

// NewRangeList builds a collapsed RangeList from the given spans.
func NewRangeList(spans ...Span) *RangeList {
	r := &RangeList{}
	r.Append(spans...)
	return r
}

// Append adds spans to the set and restores canonical form.
func (r *RangeList) Append(spans ...Span) {
	for _, s := range spans {
		r.spans = append(r.spans, NewSpan(s.Lo, s.Hi))
	}
	r.collapse()
}

// collapse sorts the spans and merges every overlapping or adjacent pair.
// Collapsing an already-canonical list leaves it unchanged.
func (r *RangeList) collapse() {
	if len(r.spans) < 2 {
		return
	}
	sort.Slice(r.spans, func(i, j int) bool {
		if r.spans[i].Lo != r.spans[j].Lo {
			return r.spans[i].Lo < r.spans[j].Lo
		}
		return r.spans[i].Hi < r.spans[j].Hi
	})
	merged := make([]Span, 0, len(r.spans))
	merged = append(merged, r.spans[0])
	for _, s := range r.spans[1:] {
		last := &merged[len(merged)-1]
		if s.Lo <= last.Hi+1 {
			if s.Hi > last.Hi {
				last.Hi = s.Hi
			}
			continue
		}
		merged = append(merged, s)
	}
	r.spans = merged
}

// Len returns the number of canonical spans.
func (r *RangeList) Len() int {
	if r == nil {
		return 0
	}
	return len(r.spans)
}

// Spans returns a copy of the canonical spans.
func (r *RangeList) Spans() []Span {
	if r == nil || len(r.spans) == 0 {
		return nil
	}
	out := make([]Span, len(r.spans))
	copy(out, r.spans)
	return out
}

// Contains reports whether probe lies wholly inside a single stored span.
// A probe range that straddles two stored spans is not contained, even when
// every one of its members is.
func (r *RangeList) Contains(probe Span) bool {
	if r == nil {
		return false
	}
	probe = NewSpan(probe.Lo, probe.Hi)
	for _, s := range r.spans {
		if probe.Lo >= s.Lo && probe.Hi <= s.Hi {
			return true
		}
		if s.Lo > probe.Lo {
			break
		}
	}
	return false
}

// ContainsValue reports whether the single value v is in the set.
func (r *RangeList) ContainsValue(v int) bool {
	return r.Contains(Scalar(v))
}

// ContainsAll reports whether every span of other is contained in r.
func (r *RangeList) ContainsAll(other *RangeList) bool {
	if other.Len() == 0 {
		return true
	}
	if r.Len() == 0 {
		return false
	}
	for _, s := range other.spans {
		if !r.Contains(s) {
			return false
		}
	}
	return true
}

// Members expands the set to its individual values, up to limit. The second
// return is false when the expansion would exceed limit; callers use this on
// small domains only (ICMP types and codes).
func (r *RangeList) Members(limit int) ([]int, bool) {
	if r == nil {
		return nil, true
	}
	var out []int
	for _, s := range r.spans {
		for v := s.Lo; v <= s.Hi; v++ {
			if len(out) >= limit {
				return out, false
			}
			out = append(out, v)
		}
	}
	return out, true
}

// Equal reports whether two sets have identical canonical forms.
func (r *RangeList) Equal(other *RangeList) bool {
	if r.Len() != other.Len() {
		return false
	}
	if r == nil || other == nil {
		return r.Len() == other.Len()
	}
	for i, s := range r.spans {
		if other.spans[i] != s {
			return false
		}
	}
	return true
}

// Copy returns an independent RangeList with the same members.
func (r *RangeList) Copy() *RangeList {
	if r == nil {
		return nil
	}
	return &RangeList{spans: r.Spans()}
}

func (r *RangeList) String() string {
	if r.Len() == 0 {
		return ""
	}
	parts := make([]string, len(r.spans))
	for i, s := range r.spans {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}

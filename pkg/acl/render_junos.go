package acl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// lineWriter accumulates output lines with four-space indentation.
type lineWriter struct {
	lines []string
}

func (w *lineWriter) printf(indent int, format string, args ...any) {
	w.lines = append(w.lines, strings.Repeat("    ", indent)+fmt.Sprintf(format, args...))
}

// OutputJunos renders the ACL as a JunOS firewall block: the filter with
// its terms in order, match clauses in the fixed JunOS clause order, and
// any policers after the filter.
func (a *ACL) OutputJunos(opts OutputOptions) ([]string, error) {
	if a.Name == "" {
		return nil, ErrMissingACLName
	}
	if err := checkName(a.Name, maxACLNameLen); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadACLName, err)
	}
	family := a.Family
	if opts.Family != "" {
		family = opts.Family
	}

	var w lineWriter
	w.printf(0, "firewall {")
	indent := 1
	if family != "" {
		w.printf(indent, "family %s {", family)
		indent++
	}
	if opts.Replace {
		w.printf(indent, "replace:")
	}
	for _, c := range a.Comments {
		w.printf(indent, "/*%s*/", c)
	}
	w.printf(indent, "filter %s {", junosWord(a.Name))
	if a.InterfaceSpecific {
		w.printf(indent+1, "interface-specific;")
	}
	for _, t := range a.Terms {
		if err := renderJunosTerm(&w, t, indent+1); err != nil {
			return nil, err
		}
	}
	w.printf(indent, "}")
	if family != "" {
		indent--
		w.printf(indent, "}")
	}
	for _, p := range a.Policers {
		renderJunosPolicer(&w, p, indent)
	}
	w.printf(0, "}")
	return w.lines, nil
}

func renderJunosTerm(w *lineWriter, t *Term, indent int) error {
	if t.Name == "" {
		return ErrMissingTermName
	}
	if err := checkName(t.Name, maxTermNameLen); err != nil {
		return fmt.Errorf("%w: %v", ErrBadTermName, err)
	}
	for _, c := range t.Comments {
		w.printf(indent, "/*%s*/", c)
	}
	head := "term " + junosWord(t.Name) + " {"
	if t.Inactive {
		head = "inactive: " + head
	}
	w.printf(indent, "%s", head)
	if t.Match.Len() > 0 {
		if err := renderJunosFrom(w, t.Match, indent+1); err != nil {
			return err
		}
	}
	renderJunosThen(w, t, indent+1)
	w.printf(indent, "}")
	return nil
}

// junosSortKeys orders match keys by the fixed JunOS clause ordering; each
// key's except twin sorts immediately after it.
func junosSortKeys(keys []MatchKey) {
	sort.Slice(keys, func(i, j int) bool {
		oi, iok := junosMatchOrder[keys[i]]
		oj, jok := junosMatchOrder[keys[j]]
		if iok != jok {
			return iok
		}
		if oi != oj {
			return oi < oj
		}
		return keys[i].String() < keys[j].String()
	})
}

func renderJunosFrom(w *lineWriter, m *Matches, indent int) error {
	keys := m.Keys()
	junosSortKeys(keys)
	w.printf(indent, "from {")
	for _, key := range keys {
		// Braced-list kinds render the except twin merged into the base
		// key's block.
		if key.Except && m.Has(MatchKey{Kind: key.Kind}) && usesBracedBlock(key.Kind) {
			continue
		}
		if err := renderJunosMatch(w, m, key, indent+1); err != nil {
			return err
		}
	}
	w.printf(indent, "}")
	return nil
}

func renderJunosMatch(w *lineWriter, m *Matches, key MatchKey, indent int) error {
	switch matchClassOf(key.Kind) {
	case classFlag:
		w.printf(indent, "%s;", key)
	case classNumeric:
		w.printf(indent, "%s %s;", key, junosSpanList(key.Kind, m.Spans(key)))
	case classAddress:
		renderJunosAddressBlock(w, m, key, indent)
	case className:
		switch key.Kind {
		case MatchPrefixList, MatchSourcePrefixList, MatchDestinationPrefixList:
			renderJunosPrefixListBlock(w, m, key, indent)
		default:
			w.printf(indent, "%s %s;", key, junosNameList(m.Names(key)))
		}
	default:
		return fmt.Errorf("%w: %s in junos output", ErrVendorSupportLacking, key)
	}
	return nil
}

// usesBracedBlock reports whether the kind renders as a braced list in
// JunOS output.
func usesBracedBlock(kind MatchKind) bool {
	switch kind {
	case MatchAddress, MatchSourceAddress, MatchDestinationAddress,
		MatchPrefixList, MatchSourcePrefixList, MatchDestinationPrefixList:
		return true
	}
	return false
}

// renderJunosAddressBlock renders an address key and its except twin as one
// braced block. A plain default-route entry is suppressed unless a sibling
// entry is negated.
func renderJunosAddressBlock(w *lineWriter, m *Matches, key MatchKey, indent int) {
	entries := m.Addresses(MatchKey{Kind: key.Kind})
	for _, e := range m.Addresses(MatchKey{Kind: key.Kind, Except: true}) {
		e.Negated = true
		entries = append(entries, e)
	}
	anyNegated := false
	for _, e := range entries {
		if e.Negated {
			anyNegated = true
		}
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.IsAny() && !e.Negated && !anyNegated {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		return
	}
	w.printf(indent, "%s {", key.Kind)
	for _, e := range kept {
		w.printf(indent+1, "%s;", e)
	}
	w.printf(indent, "}")
}

// renderJunosPrefixListBlock renders a prefix-list key and its except twin
// as one braced block with per-entry except markers.
func renderJunosPrefixListBlock(w *lineWriter, m *Matches, key MatchKey, indent int) {
	names := m.Names(MatchKey{Kind: key.Kind})
	excepted := m.Names(MatchKey{Kind: key.Kind, Except: true})
	w.printf(indent, "%s {", key.Kind)
	for _, name := range names {
		w.printf(indent+1, "%s;", junosWord(name))
	}
	for _, name := range excepted {
		w.printf(indent+1, "%s except;", junosWord(name))
	}
	w.printf(indent, "}")
}

// renderJunosThen renders the modifiers and the action, collapsing to the
// inline form when only the action remains.
func renderJunosThen(w *lineWriter, t *Term, indent int) {
	var stmts []string
	for _, kind := range sortedModifierKinds(t.Modifiers) {
		if arg := t.Modifiers.Arg(kind); arg != "" {
			stmts = append(stmts, fmt.Sprintf("%s %s", kind, junosWord(arg)))
		} else {
			stmts = append(stmts, string(kind))
		}
	}
	stmts = append(stmts, t.Action.String())
	if len(stmts) == 1 {
		w.printf(indent, "then %s;", stmts[0])
		return
	}
	w.printf(indent, "then {")
	for _, s := range stmts {
		w.printf(indent+1, "%s;", s)
	}
	w.printf(indent, "}")
}

func sortedModifierKinds(m *Modifiers) []ModifierKind {
	kinds := m.Kinds()
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func renderJunosPolicer(w *lineWriter, p Policer, indent int) {
	w.printf(indent, "policer %s {", junosWord(p.Name))
	if p.BandwidthLimit > 0 || p.BurstSizeLimit > 0 {
		w.printf(indent+1, "if-exceeding {")
		if p.BandwidthLimit > 0 {
			w.printf(indent+2, "bandwidth-limit %s;", FormatRateLimit(p.BandwidthLimit))
		}
		if p.BurstSizeLimit > 0 {
			w.printf(indent+2, "burst-size-limit %s;", FormatRateLimit(p.BurstSizeLimit))
		}
		w.printf(indent+1, "}")
	}
	switch len(p.Actions) {
	case 0:
	case 1:
		w.printf(indent+1, "then %s;", p.Actions[0])
	default:
		w.printf(indent+1, "then {")
		for _, act := range p.Actions {
			w.printf(indent+2, "%s;", act)
		}
		w.printf(indent+1, "}")
	}
	w.printf(indent, "}")
}

// junosSpanList renders numeric values, bracketing multiples.
func junosSpanList(kind MatchKind, spans []Span) string {
	parts := make([]string, len(spans))
	for i, s := range spans {
		if kind == MatchProtocol && s.IsScalar() {
			parts[i] = Protocol(s.Lo).String()
			continue
		}
		parts[i] = s.String()
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "[ " + strings.Join(parts, " ") + " ]"
}

// junosNameList renders name values, quoting where needed and bracketing
// multiples.
func junosNameList(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = junosWord(n)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "[ " + strings.Join(parts, " ") + " ]"
}

// junosWord quotes a word when it would not survive the lexer bare.
func junosWord(s string) string {
	for i := 0; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return strconv.Quote(s)
		}
	}
	return s
}

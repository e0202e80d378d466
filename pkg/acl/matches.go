package acl

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// MatchKind enumerates the match clauses the model understands. The set is
// closed: anything else fails with ErrUnknownMatchType at the parse sites.
type MatchKind string

const (
	MatchProtocol              MatchKind = "protocol"
	MatchAddress               MatchKind = "address"
	MatchSourceAddress         MatchKind = "source-address"
	MatchDestinationAddress    MatchKind = "destination-address"
	MatchPrefixList            MatchKind = "prefix-list"
	MatchSourcePrefixList      MatchKind = "source-prefix-list"
	MatchDestinationPrefixList MatchKind = "destination-prefix-list"
	MatchPort                  MatchKind = "port"
	MatchSourcePort            MatchKind = "source-port"
	MatchDestinationPort       MatchKind = "destination-port"
	MatchICMPType              MatchKind = "icmp-type"
	MatchICMPCode              MatchKind = "icmp-code"
	MatchTCPFlags              MatchKind = "tcp-flags"
	MatchFragmentOffset        MatchKind = "fragment-offset"
	MatchFirstFragment         MatchKind = "first-fragment"
	MatchIsFragment            MatchKind = "is-fragment"
	MatchPacketLength          MatchKind = "packet-length"
	MatchIPOptions             MatchKind = "ip-options"
	MatchDSCP                  MatchKind = "dscp"
	MatchPrecedence            MatchKind = "precedence"
)

// MatchKey is a match kind plus its negated ("-except") variant.
type MatchKey struct {
	Kind   MatchKind
	Except bool
}

func (k MatchKey) String() string {
	if k.Except {
		return string(k.Kind) + "-except"
	}
	return string(k.Kind)
}

// ParseMatchKey resolves a clause name, accepting the "-except" suffix on
// any kind.
func ParseMatchKey(s string) (MatchKey, error) {
	key := MatchKey{Kind: MatchKind(s)}
	if base, ok := strings.CutSuffix(s, "-except"); ok {
		if matchClassOf(MatchKind(base)) != classInvalid {
			key = MatchKey{Kind: MatchKind(base), Except: true}
		}
	}
	if matchClassOf(key.Kind) == classInvalid {
		return MatchKey{}, fmt.Errorf("%w: %q", ErrUnknownMatchType, s)
	}
	return key, nil
}

type matchClass int

const (
	classInvalid matchClass = iota
	classNumeric            // RangeList of looked-up integers
	classAddress            // sorted TIPs
	className               // sorted strings, never collapsed
	classFlag               // present or absent, no value
)

func matchClassOf(kind MatchKind) matchClass {
	switch kind {
	case MatchProtocol, MatchPort, MatchSourcePort, MatchDestinationPort,
		MatchICMPType, MatchICMPCode, MatchFragmentOffset, MatchPacketLength,
		MatchIPOptions, MatchDSCP:
		return classNumeric
	case MatchAddress, MatchSourceAddress, MatchDestinationAddress:
		return classAddress
	case MatchPrefixList, MatchSourcePrefixList, MatchDestinationPrefixList,
		MatchPrecedence, MatchTCPFlags:
		return className
	case MatchFirstFragment, MatchIsFragment:
		return classFlag
	}
	return classInvalid
}

// matchFamily groups the kinds whose split and unsplit forms are mutually
// exclusive. Setting the unsplit kind clears both splits and vice versa.
func matchFamily(kind MatchKind) (unsplit, source, destination MatchKind, ok bool) {
	switch kind {
	case MatchPort, MatchSourcePort, MatchDestinationPort:
		return MatchPort, MatchSourcePort, MatchDestinationPort, true
	case MatchAddress, MatchSourceAddress, MatchDestinationAddress:
		return MatchAddress, MatchSourceAddress, MatchDestinationAddress, true
	case MatchPrefixList, MatchSourcePrefixList, MatchDestinationPrefixList:
		return MatchPrefixList, MatchSourcePrefixList, MatchDestinationPrefixList, true
	}
	return "", "", "", false
}

// matchValueBounds returns the permitted numeric range for a kind.
func matchValueBounds(kind MatchKind) (lo, hi int) {
	switch kind {
	case MatchProtocol, MatchICMPType, MatchICMPCode, MatchIPOptions:
		return 0, 255
	case MatchDSCP:
		return 0, 63
	default:
		return 0, 65535
	}
}

// lookupMatchValue resolves one numeric match argument: symbolic names go
// through the kind's table, anything else must be a literal integer, and the
// result is bounds-checked.
func lookupMatchValue(kind MatchKind, arg string) (int, error) {
	var n int
	var found bool
	switch kind {
	case MatchProtocol:
		if v, ok := protocolNumbers[arg]; ok {
			n, found = int(v), true
		}
	case MatchPort, MatchSourcePort, MatchDestinationPort:
		if v, ok := portNumbers[arg]; ok {
			n, found = v, true
		}
	case MatchICMPType:
		if v, ok := icmpTypeNames[arg]; ok {
			n, found = v, true
		}
	case MatchICMPCode:
		if v, ok := icmpCodeNames[arg]; ok {
			n, found = v, true
		}
	case MatchIPOptions:
		if v, ok := ipOptionNames[arg]; ok {
			n, found = v, true
		}
	case MatchDSCP:
		if v, ok := dscpNames[arg]; ok {
			n, found = v, true
		}
	}
	if !found {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return 0, fmt.Errorf("%w: %s %q", ErrUnknownMatchArg, kind, arg)
		}
		n = v
	}
	lo, hi := matchValueBounds(kind)
	if n < lo || n > hi {
		return 0, fmt.Errorf("%w: %s %d not in %d-%d", ErrBadMatchArgRange, kind, n, lo, hi)
	}
	return n, nil
}

var numericRange = regexp.MustCompile(`^(\d+)-(\d+)$`)

type matchValue struct {
	spans *RangeList
	addrs []TIP
	names []string
}

func (v *matchValue) copy() *matchValue {
	out := &matchValue{spans: v.spans.Copy()}
	out.addrs = append(out.addrs, v.addrs...)
	out.names = append(out.names, v.names...)
	return out
}

// Matches is the validated, ordered set of match clauses on a term. Every
// assignment is checked at assignment time: unknown keys, unknown symbolic
// arguments, and out-of-range numbers fail immediately rather than at
// render time. Iteration order is insertion order; renderers impose their
// own ordering.
type Matches struct {
	keys   []MatchKey
	values map[MatchKey]*matchValue
}

func NewMatches() *Matches { return &Matches{} }

func (m *Matches) put(key MatchKey, v *matchValue) {
	if m.values == nil {
		m.values = make(map[MatchKey]*matchValue)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
	m.clearFamily(key)
}

// clearFamily enforces at most one representation per port/address/
// prefix-list family: the unsplit key displaces both splits, and either
// split displaces the unsplit key. Both except variants of a displaced
// kind go with it.
func (m *Matches) clearFamily(key MatchKey) {
	unsplit, source, destination, ok := matchFamily(key.Kind)
	if !ok {
		return
	}
	var displaced []MatchKind
	if key.Kind == unsplit {
		displaced = []MatchKind{source, destination}
	} else {
		displaced = []MatchKind{unsplit}
	}
	for _, kind := range displaced {
		m.Delete(MatchKey{Kind: kind})
		m.Delete(MatchKey{Kind: kind, Except: true})
	}
}

// SetValues assigns a numeric match key from raw arguments: symbolic names,
// literal integers, or "lo-hi" digit ranges. Existing values under the key
// are replaced.
func (m *Matches) SetValues(key MatchKey, args ...string) error {
	switch matchClassOf(key.Kind) {
	case classInvalid:
		return fmt.Errorf("%w: %q", ErrUnknownMatchType, key.Kind)
	case classNumeric:
	case className:
		return m.SetNames(key, args...)
	default:
		return fmt.Errorf("%w: %s does not take numeric values", ErrMatch, key)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: %s requires a value", ErrMatch, key)
	}
	var spans []Span
	for _, arg := range args {
		if pair := numericRange.FindStringSubmatch(arg); pair != nil {
			lo, err := lookupMatchValue(key.Kind, pair[1])
			if err != nil {
				return err
			}
			hi, err := lookupMatchValue(key.Kind, pair[2])
			if err != nil {
				return err
			}
			spans = append(spans, NewSpan(lo, hi))
			continue
		}
		n, err := lookupMatchValue(key.Kind, arg)
		if err != nil {
			return err
		}
		spans = append(spans, Scalar(n))
	}
	m.put(key, &matchValue{spans: NewRangeList(spans...)})
	return nil
}

// SetSpans assigns a numeric match key from already-resolved spans.
func (m *Matches) SetSpans(key MatchKey, spans ...Span) error {
	if matchClassOf(key.Kind) != classNumeric {
		return fmt.Errorf("%w: %s does not take numeric values", ErrMatch, key)
	}
	if len(spans) == 0 {
		return fmt.Errorf("%w: %s requires a value", ErrMatch, key)
	}
	lo, hi := matchValueBounds(key.Kind)
	for _, s := range spans {
		s = NewSpan(s.Lo, s.Hi)
		if s.Lo < lo || s.Hi > hi {
			return fmt.Errorf("%w: %s %s not in %d-%d", ErrBadMatchArgRange, key.Kind, s, lo, hi)
		}
	}
	m.put(key, &matchValue{spans: NewRangeList(spans...)})
	return nil
}

// SetAddresses assigns an address match key. Entries are deduplicated and
// kept in TIP order.
func (m *Matches) SetAddresses(key MatchKey, addrs ...TIP) error {
	if matchClassOf(key.Kind) != classAddress {
		return fmt.Errorf("%w: %s does not take addresses", ErrMatch, key)
	}
	if len(addrs) == 0 {
		return fmt.Errorf("%w: %s requires a value", ErrMatch, key)
	}
	for _, a := range addrs {
		if !a.Prefix.IsValid() {
			return fmt.Errorf("%w: %s invalid address", ErrMatch, key)
		}
	}
	held := make([]TIP, len(addrs))
	copy(held, addrs)
	m.put(key, &matchValue{addrs: dedupeTIPs(held)})
	return nil
}

// SetNames assigns a name-valued match key (prefix lists, precedence,
// tcp-flags). The tcp-flags shorthands tcp-established and tcp-initial
// expand to their flag expression; values are validated per kind,
// deduplicated, and sorted.
func (m *Matches) SetNames(key MatchKey, names ...string) error {
	switch matchClassOf(key.Kind) {
	case className:
	case classNumeric:
		return m.SetValues(key, names...)
	default:
		return fmt.Errorf("%w: %s does not take names", ErrMatch, key)
	}
	if len(names) == 0 {
		return fmt.Errorf("%w: %s requires a value", ErrMatch, key)
	}
	held := make([]string, len(names))
	copy(held, names)
	if key.Kind == MatchTCPFlags {
		for i, name := range held {
			if expr, ok := tcpFlagSpecials[name]; ok {
				held[i] = expr
			}
		}
	}
	for _, name := range held {
		if err := checkMatchName(key.Kind, name); err != nil {
			return err
		}
	}
	sort.Strings(held)
	out := held[:0]
	for i, name := range held {
		if i > 0 && name == held[i-1] {
			continue
		}
		out = append(out, name)
	}
	m.put(key, &matchValue{names: out})
	return nil
}

// SetFlag assigns a value-less match key (first-fragment, is-fragment).
func (m *Matches) SetFlag(key MatchKey) error {
	if matchClassOf(key.Kind) != classFlag {
		return fmt.Errorf("%w: %s requires a value", ErrMatch, key)
	}
	m.put(key, &matchValue{})
	return nil
}

func checkMatchName(kind MatchKind, name string) error {
	switch kind {
	case MatchPrecedence:
		if _, ok := precedenceNames[name]; ok {
			return nil
		}
		if n, err := strconv.Atoi(name); err == nil {
			if n < 0 || n > 7 {
				return fmt.Errorf("%w: precedence %d not in 0-7", ErrBadMatchArgRange, n)
			}
			return nil
		}
		return fmt.Errorf("%w: precedence %q", ErrUnknownMatchArg, name)
	case MatchTCPFlags:
		fields := strings.FieldsFunc(name, func(r rune) bool {
			return r == '(' || r == ')' || r == '|' || r == '&' || r == '!' || r == ' '
		})
		if len(fields) == 0 {
			return fmt.Errorf("%w: tcp-flags requires a value", ErrMatch)
		}
		for _, f := range fields {
			if !tcpFlagNames[f] {
				return fmt.Errorf("%w: tcp-flags %q", ErrUnknownMatchArg, f)
			}
		}
		return nil
	default:
		if err := checkName(name, 255); err != nil {
			return fmt.Errorf("%w: %s %q", ErrUnknownMatchArg, kind, name)
		}
		return nil
	}
}

// Delete removes a key; deleting an absent key is a no-op.
func (m *Matches) Delete(key MatchKey) {
	if m.values == nil {
		return
	}
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of set keys.
func (m *Matches) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Has reports whether the key is set.
func (m *Matches) Has(key MatchKey) bool {
	if m == nil {
		return false
	}
	_, ok := m.values[key]
	return ok
}

// Keys returns the set keys in insertion order.
func (m *Matches) Keys() []MatchKey {
	if m == nil || len(m.keys) == 0 {
		return nil
	}
	out := make([]MatchKey, len(m.keys))
	copy(out, m.keys)
	return out
}

// Spans returns the canonical spans under a numeric key, nil if unset.
func (m *Matches) Spans(key MatchKey) []Span {
	if m == nil || m.values[key] == nil {
		return nil
	}
	return m.values[key].spans.Spans()
}

// Addresses returns the entries under an address key, nil if unset.
func (m *Matches) Addresses(key MatchKey) []TIP {
	if m == nil || m.values[key] == nil {
		return nil
	}
	v := m.values[key]
	out := make([]TIP, len(v.addrs))
	copy(out, v.addrs)
	return out
}

// Names returns the values under a name key, nil if unset.
func (m *Matches) Names(key MatchKey) []string {
	if m == nil || m.values[key] == nil {
		return nil
	}
	v := m.values[key]
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Copy returns an independent deep copy.
func (m *Matches) Copy() *Matches {
	out := NewMatches()
	if m == nil {
		return out
	}
	for _, key := range m.keys {
		out.keys = append(out.keys, key)
		if out.values == nil {
			out.values = make(map[MatchKey]*matchValue)
		}
		out.values[key] = m.values[key].copy()
	}
	return out
}

// Equal compares two match sets without regard to insertion order.
func (m *Matches) Equal(other *Matches) bool {
	if m.Len() != other.Len() {
		return false
	}
	if m.Len() == 0 {
		return true
	}
	for key, v := range m.values {
		ov, ok := other.values[key]
		if !ok {
			return false
		}
		if !v.spans.Equal(ov.spans) {
			return false
		}
		if len(v.addrs) != len(ov.addrs) || len(v.names) != len(ov.names) {
			return false
		}
		for i, a := range v.addrs {
			if a != ov.addrs[i] {
				return false
			}
		}
		for i, n := range v.names {
			if n != ov.names[i] {
				return false
			}
		}
	}
	return true
}

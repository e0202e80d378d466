package acl

import "fmt"

// ModifierKind enumerates the action modifiers a term can carry. Only JunOS
// renders most of these; the IOS renderers accept syslog and reject the
// rest as vendor gaps.
type ModifierKind string

const (
	ModCount           ModifierKind = "count"
	ModForwardingClass ModifierKind = "forwarding-class"
	ModIPSecSA         ModifierKind = "ipsec-sa"
	ModLog             ModifierKind = "log"
	ModLossPriority    ModifierKind = "loss-priority"
	ModPolicer         ModifierKind = "policer"
	ModPortMirror      ModifierKind = "port-mirror"
	ModSample          ModifierKind = "sample"
	ModSyslog          ModifierKind = "syslog"
)

// modifierTakesArg reports whether the kind requires an argument; the
// second return is false for unknown kinds.
func modifierTakesArg(kind ModifierKind) (takesArg, known bool) {
	switch kind {
	case ModCount, ModForwardingClass, ModIPSecSA, ModLossPriority, ModPolicer:
		return true, true
	case ModLog, ModPortMirror, ModSample, ModSyslog:
		return false, true
	}
	return false, false
}

// Modifiers is the validated set of modifiers on a term. Argument-less
// kinds must be set with an empty argument, argument-requiring kinds with a
// non-empty one; both directions fail otherwise.
type Modifiers struct {
	kinds  []ModifierKind
	values map[ModifierKind]string
}

func NewModifiers() *Modifiers { return &Modifiers{} }

// Set assigns a modifier, replacing any previous value of the same kind.
func (m *Modifiers) Set(kind ModifierKind, arg string) error {
	takesArg, known := modifierTakesArg(kind)
	if !known {
		return fmt.Errorf("%w: unknown modifier %q", ErrMatch, kind)
	}
	if takesArg && arg == "" {
		return fmt.Errorf("%w: modifier %s requires an argument", ErrMatch, kind)
	}
	if !takesArg && arg != "" {
		return fmt.Errorf("%w: modifier %s takes no argument", ErrMatch, kind)
	}
	switch kind {
	case ModLossPriority:
		if arg != "low" && arg != "high" {
			return fmt.Errorf("%w: loss-priority %q not low or high", ErrMatch, arg)
		}
	case ModCount, ModForwardingClass, ModIPSecSA, ModPolicer:
		if err := checkName(arg, 255); err != nil {
			return fmt.Errorf("%w: modifier %s %q", ErrMatch, kind, arg)
		}
	}
	if m.values == nil {
		m.values = make(map[ModifierKind]string)
	}
	if _, ok := m.values[kind]; !ok {
		m.kinds = append(m.kinds, kind)
	}
	m.values[kind] = arg
	return nil
}

// Delete removes a modifier; deleting an absent kind is a no-op.
func (m *Modifiers) Delete(kind ModifierKind) {
	if m.values == nil {
		return
	}
	if _, ok := m.values[kind]; !ok {
		return
	}
	delete(m.values, kind)
	for i, k := range m.kinds {
		if k == kind {
			m.kinds = append(m.kinds[:i], m.kinds[i+1:]...)
			break
		}
	}
}

// Len returns the number of set modifiers.
func (m *Modifiers) Len() int {
	if m == nil {
		return 0
	}
	return len(m.kinds)
}

// Has reports whether the kind is set.
func (m *Modifiers) Has(kind ModifierKind) bool {
	if m == nil {
		return false
	}
	_, ok := m.values[kind]
	return ok
}

// Arg returns the argument stored under kind, empty for argument-less
// modifiers and unset kinds.
func (m *Modifiers) Arg(kind ModifierKind) string {
	if m == nil {
		return ""
	}
	return m.values[kind]
}

// Kinds returns the set kinds in insertion order.
func (m *Modifiers) Kinds() []ModifierKind {
	if m == nil || len(m.kinds) == 0 {
		return nil
	}
	out := make([]ModifierKind, len(m.kinds))
	copy(out, m.kinds)
	return out
}

// Copy returns an independent copy.
func (m *Modifiers) Copy() *Modifiers {
	out := NewModifiers()
	if m == nil {
		return out
	}
	for _, kind := range m.kinds {
		out.kinds = append(out.kinds, kind)
		if out.values == nil {
			out.values = make(map[ModifierKind]string)
		}
		out.values[kind] = m.values[kind]
	}
	return out
}

// Equal compares two modifier sets without regard to insertion order.
func (m *Modifiers) Equal(other *Modifiers) bool {
	if m.Len() != other.Len() {
		return false
	}
	if m.Len() == 0 {
		return true
	}
	for kind, arg := range m.values {
		otherArg, ok := other.values[kind]
		if !ok || otherArg != arg {
			return false
		}
	}
	return true
}

package acl

import (
	"fmt"
	"net/netip"
	"sort"
	"strings"
)

// TIP is an address or CIDR block augmented with the two per-entry flags the
// dialects attach to addresses: negated ("except") and inactive. The prefix
// is always stored masked, so 1.2.3.5/24 normalizes to 1.2.3.0/24.
type TIP struct {
	Prefix   netip.Prefix
	Negated  bool
	Inactive bool
}

// ParseTIP parses an address or prefix, with an optional "inactive:" marker
// before it and an optional "except" marker after it. A bare address becomes
// a host prefix (/32 or /128).
func ParseTIP(s string) (TIP, error) {
	var t TIP
	var addr string
	for _, field := range strings.Fields(s) {
		switch field {
		case "inactive:":
			t.Inactive = true
		case "except":
			t.Negated = true
		default:
			if addr != "" {
				return TIP{}, fmt.Errorf("%w: invalid address %q", ErrUnknownMatchArg, s)
			}
			addr = field
		}
	}
	if addr == "" {
		return TIP{}, fmt.Errorf("%w: invalid address %q", ErrUnknownMatchArg, s)
	}
	if strings.Contains(addr, "/") {
		p, err := netip.ParsePrefix(addr)
		if err != nil {
			return TIP{}, fmt.Errorf("%w: invalid address %q", ErrUnknownMatchArg, addr)
		}
		t.Prefix = p.Masked()
		return t, nil
	}
	a, err := netip.ParseAddr(addr)
	if err != nil {
		return TIP{}, fmt.Errorf("%w: invalid address %q", ErrUnknownMatchArg, addr)
	}
	t.Prefix = netip.PrefixFrom(a, a.BitLen())
	return t, nil
}

// MustParseTIP is ParseTIP for known-good literals; it panics on error.
func MustParseTIP(s string) TIP {
	t, err := ParseTIP(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TIP) String() string {
	s := t.Prefix.String()
	if t.Negated {
		s += " except"
	}
	if t.Inactive {
		s = "inactive: " + s
	}
	return s
}

// IsAny reports whether the value is a zero-length prefix (0.0.0.0/0 or ::/0).
func (t TIP) IsAny() bool {
	return t.Prefix.IsValid() && t.Prefix.Bits() == 0
}

// IsHost reports whether the value covers exactly one address.
func (t TIP) IsHost() bool {
	return t.Prefix.IsValid() && t.Prefix.Bits() == t.Prefix.Addr().BitLen()
}

// Contains implements the augmented containment rule: the test is false
// whenever exactly one side is negated; otherwise it is plain CIDR
// containment, inverted when the receiver is negated.
func (t TIP) Contains(other TIP) bool {
	if t.Negated != other.Negated {
		return false
	}
	in := t.Prefix.Bits() <= other.Prefix.Bits() && t.Prefix.Contains(other.Prefix.Addr())
	if t.Negated {
		return !in
	}
	return in
}

// Compare orders by network address, then prefix length, then negated
// entries before non-negated ones.
func (t TIP) Compare(other TIP) int {
	if c := t.Prefix.Addr().Compare(other.Prefix.Addr()); c != 0 {
		return c
	}
	if t.Prefix.Bits() != other.Prefix.Bits() {
		if t.Prefix.Bits() < other.Prefix.Bits() {
			return -1
		}
		return 1
	}
	if t.Negated != other.Negated {
		if t.Negated {
			return -1
		}
		return 1
	}
	if t.Inactive != other.Inactive {
		if other.Inactive {
			return -1
		}
		return 1
	}
	return 0
}

func sortTIPs(tips []TIP) {
	sort.Slice(tips, func(i, j int) bool {
		return tips[i].Compare(tips[j]) < 0
	})
}

// dedupeTIPs sorts and removes exact duplicates in place.
func dedupeTIPs(tips []TIP) []TIP {
	sortTIPs(tips)
	out := tips[:0]
	for i, t := range tips {
		if i > 0 && t == tips[i-1] {
			continue
		}
		out = append(out, t)
	}
	return out
}

package acl

import (
	"fmt"
	"strconv"
)

// OutputIOS renders classic numbered output. A term whose match set holds
// multiple values expands to the cartesian product of its clauses, because
// a classic line carries exactly one atomic value per position.
func (a *ACL) OutputIOS(opts OutputOptions) ([]string, error) {
	if err := a.checkIOSRenderable(); err != nil {
		return nil, err
	}
	num, err := strconv.Atoi(a.Name)
	if err != nil || !classicListNumber(num) {
		return nil, fmt.Errorf("%w: %q is not a classic list number", ErrBadACLName, a.Name)
	}
	var lines []string
	for _, c := range a.Comments {
		lines = append(lines, "!"+string(c))
	}
	if opts.Replace {
		lines = append(lines, "no access-list "+a.Name)
	}
	for _, t := range a.Terms {
		clauses, err := iosTermClauses(t, "ip")
		if err != nil {
			return nil, err
		}
		for _, c := range t.Comments {
			lines = append(lines, "!"+string(c))
		}
		for _, clause := range clauses {
			lines = append(lines, "access-list "+a.Name+" "+clause)
		}
	}
	return lines, nil
}

// classicListNumber reports whether n is in the extended access-list
// number space.
func classicListNumber(n int) bool {
	return (n >= 100 && n <= 199) || (n >= 2000 && n <= 2699)
}

// OutputIOSNamed renders named extended output: the header line followed
// by one-space-indented rule lines.
func (a *ACL) OutputIOSNamed(opts OutputOptions) ([]string, error) {
	return a.outputNamed(opts, true)
}

// OutputBrocade renders the Brocade variant: named output with comments
// stripped and the rebind line appended.
func (a *ACL) OutputBrocade(opts OutputOptions) ([]string, error) {
	lines, err := a.outputNamed(opts, false)
	if err != nil {
		return nil, err
	}
	rebind := "ip rebind-acl "
	if a.ReceiveACL {
		rebind = "ip rebind-receive-acl "
	}
	return append(lines, rebind+a.Name), nil
}

func (a *ACL) outputNamed(opts OutputOptions, comments bool) ([]string, error) {
	if err := a.checkIOSRenderable(); err != nil {
		return nil, err
	}
	if err := checkName(a.Name, maxACLNameLen); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadACLName, err)
	}
	var lines []string
	if comments {
		for _, c := range a.Comments {
			lines = append(lines, "!"+string(c))
		}
	}
	if opts.Replace {
		lines = append(lines, "no ip access-list extended "+a.Name)
	}
	lines = append(lines, "ip access-list extended "+a.Name)
	for _, t := range a.Terms {
		clauses, err := iosTermClauses(t, "ip")
		if err != nil {
			return nil, err
		}
		if comments {
			for _, c := range t.Comments {
				lines = append(lines, "!"+string(c))
			}
		}
		for _, clause := range clauses {
			lines = append(lines, " "+clause)
		}
	}
	return lines, nil
}

// OutputIOSXR renders IOS XR output: numbered rule lines under an ipv4
// access-list header. Unnamed terms are numbered by tens; named terms must
// carry integer names and must render to exactly one line.
func (a *ACL) OutputIOSXR(opts OutputOptions) ([]string, error) {
	if err := a.checkIOSRenderable(); err != nil {
		return nil, err
	}
	if err := checkName(a.Name, maxACLNameLen); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadACLName, err)
	}
	var lines []string
	for _, c := range a.Comments {
		lines = append(lines, "!"+string(c))
	}
	if opts.Replace {
		lines = append(lines, "no ipv4 access-list "+a.Name)
	}
	lines = append(lines, "ipv4 access-list "+a.Name)
	next := 10
	for _, t := range a.Terms {
		seq := next
		if t.Name != "" {
			n, err := strconv.Atoi(t.Name)
			if err != nil || n < 1 || n > 2147483646 {
				return nil, fmt.Errorf("%w: %q is not an iosxr sequence number", ErrBadTermName, t.Name)
			}
			seq = n
		}
		next = seq - seq%10 + 10
		clauses, err := iosTermClauses(t, "ipv4")
		if err != nil {
			return nil, err
		}
		if len(clauses) != 1 {
			return nil, fmt.Errorf("%w: term %q needs %d lines in iosxr output",
				ErrVendorSupportLacking, t.Name, len(clauses))
		}
		for _, c := range t.Comments {
			lines = append(lines, "!"+string(c))
		}
		lines = append(lines, " "+strconv.Itoa(seq)+" "+clauses[0])
	}
	return lines, nil
}

func (a *ACL) checkIOSRenderable() error {
	if a.Name == "" {
		return ErrMissingACLName
	}
	if a.Family == FamilyInet6 || a.Family == FamilyEthernetSwitching {
		return fmt.Errorf("%w: family %s in ios output", ErrVendorSupportLacking, a.Family)
	}
	if len(a.Policers) > 0 {
		return fmt.Errorf("%w: policers in ios output", ErrVendorSupportLacking)
	}
	return nil
}

// iosTermClauses expands one term into rule clauses: action, protocol,
// endpoints with port operators, and the trailing keywords. Multi-valued
// matches multiply out; anything the dialect cannot express aborts the
// render.
func iosTermClauses(t *Term, anyProto string) ([]string, error) {
	if t.Inactive {
		return nil, fmt.Errorf("%w: inactive term in ios output", ErrVendorSupportLacking)
	}
	action, err := iosAction(t.Action)
	if err != nil {
		return nil, err
	}

	protos := []string{anyProto}
	srcs := []string{"any"}
	sports := []string{""}
	dsts := []string{"any"}
	dports := []string{""}
	extras := []string{""}
	precedences := []string{""}
	dscps := []string{""}
	var icmpTypes, icmpCodes []int
	established := ""
	fragments := ""
	logSuffix := ""

	for _, key := range t.Match.Keys() {
		if key.Except {
			return nil, fmt.Errorf("%w: %s in ios output", ErrVendorSupportLacking, key)
		}
		switch key.Kind {
		case MatchProtocol:
			if protos, err = iosProtocolStrings(t.Match.Spans(key)); err != nil {
				return nil, err
			}
		case MatchSourceAddress:
			if srcs, err = iosAddrStrings(t.Match.Addresses(key)); err != nil {
				return nil, err
			}
		case MatchDestinationAddress:
			if dsts, err = iosAddrStrings(t.Match.Addresses(key)); err != nil {
				return nil, err
			}
		case MatchSourcePort:
			sports = iosPortStrings(t.Match.Spans(key))
		case MatchDestinationPort:
			dports = iosPortStrings(t.Match.Spans(key))
		case MatchICMPType:
			if icmpTypes, err = expandMembers(key, t.Match.Spans(key)); err != nil {
				return nil, err
			}
		case MatchICMPCode:
			if icmpCodes, err = expandMembers(key, t.Match.Spans(key)); err != nil {
				return nil, err
			}
		case MatchTCPFlags:
			names := t.Match.Names(key)
			if len(names) != 1 || names[0] != tcpFlagsEstablished {
				return nil, fmt.Errorf("%w: tcp-flags in ios output", ErrVendorSupportLacking)
			}
			established = " established"
		case MatchIsFragment:
			fragments = " fragments"
		case MatchPrecedence:
			precedences = prefixEach(" precedence ", t.Match.Names(key))
		case MatchDSCP:
			members, err := expandMembers(key, t.Match.Spans(key))
			if err != nil {
				return nil, err
			}
			dscps = dscps[:0]
			for _, m := range members {
				dscps = append(dscps, " dscp "+strconv.Itoa(m))
			}
		default:
			return nil, fmt.Errorf("%w: %s in ios output", ErrVendorSupportLacking, key)
		}
	}

	for _, kind := range t.Modifiers.Kinds() {
		if kind != ModSyslog {
			return nil, fmt.Errorf("%w: %s in ios output", ErrVendorSupportLacking, kind)
		}
		logSuffix = " log"
	}

	if len(icmpCodes) > 0 && len(icmpTypes) == 0 {
		return nil, fmt.Errorf("%w: icmp-code without icmp-type in ios output", ErrVendorSupportLacking)
	}
	if len(icmpTypes) > 0 {
		extras = extras[:0]
		for _, typ := range icmpTypes {
			if len(icmpCodes) == 0 {
				extras = append(extras, " "+strconv.Itoa(typ))
				continue
			}
			for _, code := range icmpCodes {
				extras = append(extras, " "+strconv.Itoa(typ)+" "+strconv.Itoa(code))
			}
		}
	}

	var clauses []string
	for _, proto := range protos {
		for _, src := range srcs {
			for _, sport := range sports {
				for _, dst := range dsts {
					for _, dport := range dports {
						for _, extra := range extras {
							for _, prec := range precedences {
								for _, dscp := range dscps {
									clauses = append(clauses, action+" "+proto+" "+src+sport+" "+dst+
										dport+extra+established+prec+dscp+fragments+logSuffix)
								}
							}
						}
					}
				}
			}
		}
	}
	return clauses, nil
}

func iosAction(a Action) (string, error) {
	switch a.Kind {
	case ActionAccept:
		return "permit", nil
	case ActionReject:
		if a.Arg != "" {
			return "", fmt.Errorf("%w: reject %s in ios output", ErrVendorSupportLacking, a.Arg)
		}
		return "deny", nil
	case ActionDiscard:
		return "deny", nil
	}
	return "", fmt.Errorf("%w: %s in ios output", ErrVendorSupportLacking, a)
}

func iosProtocolStrings(spans []Span) ([]string, error) {
	members, err := expandMembers(MatchKey{Kind: MatchProtocol}, spans)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = Protocol(m).String()
	}
	return out, nil
}

// iosAddrStrings renders address entries: any, host, or address plus
// wildcard mask.
func iosAddrStrings(addrs []TIP) ([]string, error) {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		switch {
		case a.Negated || a.Inactive:
			return nil, fmt.Errorf("%w: negated or inactive address in ios output", ErrVendorSupportLacking)
		case !a.Prefix.Addr().Is4():
			return nil, fmt.Errorf("%w: %s in ios output", ErrVendorSupportLacking, a)
		case a.IsAny():
			out = append(out, "any")
		case a.IsHost():
			out = append(out, "host "+a.Prefix.Addr().String())
		default:
			out = append(out, a.Prefix.Addr().String()+" "+inverseMaskFor(a.Prefix.Bits()).String())
		}
	}
	return out, nil
}

// iosPortStrings renders port spans: eq for scalars, range otherwise. A
// full-domain span matches any port and drops the clause.
func iosPortStrings(spans []Span) []string {
	out := make([]string, 0, len(spans))
	for _, s := range spans {
		switch {
		case s.Lo == 0 && s.Hi == 65535:
			out = append(out, "")
		case s.IsScalar():
			out = append(out, " eq "+strconv.Itoa(s.Lo))
		default:
			out = append(out, " range "+strconv.Itoa(s.Lo)+" "+strconv.Itoa(s.Hi))
		}
	}
	return out
}

// expandMembers expands small-domain spans to their members.
func expandMembers(key MatchKey, spans []Span) ([]int, error) {
	r := NewRangeList(spans...)
	members, ok := r.Members(256)
	if !ok {
		return nil, fmt.Errorf("%w: %s too wide for ios output", ErrVendorSupportLacking, key)
	}
	return members, nil
}

func prefixEach(prefix string, names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = prefix + n
	}
	return out
}

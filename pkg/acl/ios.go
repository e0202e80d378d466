package acl

import (
	"fmt"
	"net/netip"
	"strings"
)

// iosParser accumulates an ACL over the lines of an IOS-family document.
// The pending buffer threads comments and remarks to the next term; it is
// owned by this parser instance, so concurrent parses cannot cross-talk.
// standard is set while the current list was opened with a standard header,
// whose rules carry only a source endpoint.
type iosParser struct {
	acl      *ACL
	pending  []Comment
	standard bool
	lineNo   int
	line     string
}

// parseIOS parses classic numbered, named extended, IOS XR, and Brocade
// rebind access lists.
func parseIOS(text string, opts ParseOptions) (*ACL, error) {
	p := &iosParser{}
	for i, raw := range strings.Split(text, "\n") {
		p.lineNo = i + 1
		p.line = strings.TrimRight(raw, "\r")
		if err := p.parseLine(p.line); err != nil {
			return nil, err
		}
	}
	if p.acl == nil {
		return nil, parseErrorf(p.lineNo, 1, "no access list in document")
	}
	return p.acl, nil
}

func (p *iosParser) errf(token, format string, args ...any) error {
	col := 1
	if token != "" {
		if idx := strings.Index(p.line, token); idx >= 0 {
			col = idx + 1
		}
	}
	return parseErrorf(p.lineNo, col, format, args...)
}

func (p *iosParser) parseLine(line string) error {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, "!") {
		p.pending = append(p.pending, Comment(strings.TrimPrefix(trimmed, "!")))
		return nil
	}
	words := strings.Fields(trimmed)
	switch words[0] {
	case "no":
		return p.parseNo(words[1:])
	case "access-list":
		return p.parseClassicLine(words[1:])
	case "ip":
		return p.parseIPLine(words[1:])
	case "ipv4":
		return p.parseXRHeader(words[1:])
	case "permit", "deny", "remark":
		return p.parseBodyLine("", words)
	}
	if isDigits(words[0]) && len(words) > 1 {
		return p.parseBodyLine(words[0], words[1:])
	}
	return p.errf(words[0], "unexpected keyword %q", words[0])
}

// parseNo handles the reset lines: "no access-list N", "no ip access-list
// extended|standard NAME", and "no ipv4 access-list NAME". A reset discards
// the accumulated ACL of the same name.
func (p *iosParser) parseNo(words []string) error {
	var name string
	switch {
	case len(words) == 2 && words[0] == "access-list":
		name = words[1]
	case len(words) == 4 && words[0] == "ip" && words[1] == "access-list" &&
		(words[2] == "extended" || words[2] == "standard"):
		name = words[3]
	case len(words) == 3 && words[0] == "ipv4" && words[1] == "access-list":
		name = words[2]
	default:
		return p.errf("no", "malformed no statement")
	}
	if p.acl != nil && p.acl.Name == name {
		p.acl = nil
	}
	return nil
}

// parseClassicLine handles "access-list N ..." lines. Every line carries
// the list number; a differing number is an error rather than a second ACL.
func (p *iosParser) parseClassicLine(words []string) error {
	if len(words) < 2 {
		return p.errf("access-list", "malformed access-list line")
	}
	num := words[0]
	if !isDigits(num) {
		return p.errf(num, "access list number expected, got %q", num)
	}
	if p.acl == nil {
		acl, err := NewACL(num)
		if err != nil {
			return err
		}
		acl.Format = FormatIOS
		acl.Comments = p.pending
		p.pending = nil
		p.acl = acl
		p.standard = false
	} else if p.acl.Name != num {
		return p.errf(num, "access list %s while parsing %s", num, p.acl.Name)
	}
	if words[1] == "remark" {
		p.pending = append(p.pending, Comment(strings.Join(words[2:], " ")))
		return nil
	}
	// Comments before the first term stay with the ACL itself.
	if len(p.acl.Terms) == 0 {
		p.acl.Comments = append(p.acl.Comments, p.pending...)
		p.pending = nil
	}
	return p.appendTerm("", words[1:])
}

// parseIPLine handles the "ip ..." family: the named extended and standard
// headers and the Brocade rebind suffix lines.
func (p *iosParser) parseIPLine(words []string) error {
	switch {
	case len(words) == 3 && words[0] == "access-list" && words[1] == "extended":
		return p.startNamed(words[2], FormatIOSNamed, false)
	case len(words) == 3 && words[0] == "access-list" && words[1] == "standard":
		return p.startNamed(words[2], FormatIOSNamed, true)
	case len(words) == 2 && words[0] == "rebind-acl":
		return p.applyRebind(words[1], false)
	case len(words) == 2 && words[0] == "rebind-receive-acl":
		return p.applyRebind(words[1], true)
	}
	return p.errf("ip", "malformed ip statement")
}

func (p *iosParser) parseXRHeader(words []string) error {
	if len(words) != 2 || words[0] != "access-list" {
		return p.errf("ipv4", "malformed ipv4 statement")
	}
	return p.startNamed(words[1], FormatIOSXR, false)
}

// startNamed opens a named list. Re-entering the list being built appends
// to it; a header for a different list is an error, mirroring the
// one-filter-per-document rule on the JunOS side.
func (p *iosParser) startNamed(name string, format Format, standard bool) error {
	if p.acl != nil {
		if p.acl.Name == name && p.acl.Format == format && p.standard == standard {
			return nil
		}
		if p.acl.Name == name {
			return p.errf(name, "access list %s reopened as a different kind", name)
		}
		return p.errf(name, "access list %s while parsing %s", name, p.acl.Name)
	}
	acl, err := NewACL(name)
	if err != nil {
		return err
	}
	acl.Format = format
	acl.Comments = p.pending
	p.pending = nil
	p.acl = acl
	p.standard = standard
	return nil
}

func (p *iosParser) applyRebind(name string, receive bool) error {
	if p.acl == nil || p.acl.Name != name {
		return p.errf(name, "rebind of unknown access list %q", name)
	}
	p.acl.Format = FormatIOSBrocade
	p.acl.ReceiveACL = receive
	return nil
}

// parseBodyLine handles a rule or remark inside a named or XR list. The
// name argument carries the XR sequence number when the line has one.
func (p *iosParser) parseBodyLine(name string, words []string) error {
	if p.acl == nil {
		return p.errf(words[0], "%q outside an access list", words[0])
	}
	switch p.acl.Format {
	case FormatIOSNamed, FormatIOSXR, FormatIOSBrocade:
	default:
		return p.errf(words[0], "%q outside a named access list", words[0])
	}
	if words[0] == "remark" {
		p.pending = append(p.pending, Comment(strings.Join(words[1:], " ")))
		return nil
	}
	return p.appendTerm(name, words)
}

func (p *iosParser) appendTerm(name string, words []string) error {
	term, err := p.parseRule(words)
	if err != nil {
		return err
	}
	if err := term.SetName(name); err != nil {
		return err
	}
	term.Comments = p.pending
	p.pending = nil
	p.acl.Terms = append(p.acl.Terms, term)
	return nil
}

// parseRule parses one permit/deny rule: action, protocol, source and
// destination endpoints with optional port operators, then the trailing
// keywords.
func (p *iosParser) parseRule(words []string) (*Term, error) {
	if len(words) < 2 {
		return nil, p.errf(words[0], "truncated rule")
	}
	term := NewTerm()
	act, err := ParseAction(words[0])
	if err != nil {
		return nil, err
	}
	term.Action = act

	if p.standard && !isProtocolWord(words[1]) {
		return p.parseStandardRule(term, words)
	}

	i := 1
	proto := words[i]
	i++
	var isTCP, isICMP bool
	switch proto {
	case "ip", "ipv4":
		// Any protocol: no match clause.
	default:
		value, err := ParseProtocol(proto)
		if err != nil {
			return nil, err
		}
		if err := term.match().SetSpans(MatchKey{Kind: MatchProtocol}, Scalar(value.Value())); err != nil {
			return nil, err
		}
		isTCP = value == 6
		isICMP = value == 1
	}

	src, err := p.parseAddrSpec(words, &i)
	if err != nil {
		return nil, err
	}
	if src != nil {
		if err := term.match().SetAddresses(MatchKey{Kind: MatchSourceAddress}, *src); err != nil {
			return nil, err
		}
	}
	if err := p.parsePortOp(term, MatchSourcePort, words, &i); err != nil {
		return nil, err
	}

	dst, err := p.parseAddrSpec(words, &i)
	if err != nil {
		return nil, err
	}
	if dst != nil {
		if err := term.match().SetAddresses(MatchKey{Kind: MatchDestinationAddress}, *dst); err != nil {
			return nil, err
		}
	}
	if err := p.parsePortOp(term, MatchDestinationPort, words, &i); err != nil {
		return nil, err
	}

	return term, p.parseTrailers(term, words[i:], isTCP, isICMP)
}

// parseStandardRule parses a standard-list rule: no protocol position, one
// source endpoint, then trailing keywords. A protocol-led rule under a
// standard header takes the extended path instead.
func (p *iosParser) parseStandardRule(term *Term, words []string) (*Term, error) {
	i := 1
	src, err := p.parseAddrSpec(words, &i)
	if err != nil {
		return nil, err
	}
	if src != nil {
		if err := term.match().SetAddresses(MatchKey{Kind: MatchSourceAddress}, *src); err != nil {
			return nil, err
		}
	}
	return term, p.parseTrailers(term, words[i:], false, false)
}

// isProtocolWord reports whether w can fill the protocol position of an
// extended rule.
func isProtocolWord(w string) bool {
	if w == "ip" || w == "ipv4" {
		return true
	}
	_, err := ParseProtocol(w)
	return err == nil
}

// parseTrailers consumes the keywords after the endpoints. Anything not a
// recognized keyword is an ICMP type or code when the rule is an ICMP one;
// more than two such tokens is unrecoverable.
func (p *iosParser) parseTrailers(term *Term, words []string, isTCP, isICMP bool) error {
	var icmpExtra int
	for i := 0; i < len(words); i++ {
		w := words[i]
		switch w {
		case "log", "log-input":
			// Both collapse to syslog; the distinction is not kept.
			if err := term.modifiers().Set(ModSyslog, ""); err != nil {
				return err
			}
		case "established":
			if !isTCP {
				return p.errf(w, "established requires tcp")
			}
			if err := term.match().SetNames(MatchKey{Kind: MatchTCPFlags}, tcpFlagsEstablished); err != nil {
				return err
			}
		case "fragments":
			if err := term.match().SetFlag(MatchKey{Kind: MatchIsFragment}); err != nil {
				return err
			}
		case "precedence":
			if i+1 >= len(words) {
				return p.errf(w, "precedence requires a value")
			}
			i++
			if err := term.match().SetNames(MatchKey{Kind: MatchPrecedence}, words[i]); err != nil {
				return err
			}
		case "dscp":
			if i+1 >= len(words) {
				return p.errf(w, "dscp requires a value")
			}
			i++
			if err := term.match().SetValues(MatchKey{Kind: MatchDSCP}, words[i]); err != nil {
				return err
			}
		default:
			if !isICMP {
				return p.errf(w, "unexpected keyword %q", w)
			}
			icmpExtra++
			if icmpExtra > 2 {
				return p.errf(w, "too many icmp arguments")
			}
			if err := p.applyICMPExtra(term, w, icmpExtra); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyICMPExtra resolves a positional ICMP argument: the first is the
// type, by number or by IOS message name (which can carry a code as well);
// the second is the code.
func (p *iosParser) applyICMPExtra(term *Term, w string, position int) error {
	if position == 2 {
		return term.match().SetValues(MatchKey{Kind: MatchICMPCode}, w)
	}
	if msg, ok := iosICMPMessages[w]; ok {
		if err := term.match().SetSpans(MatchKey{Kind: MatchICMPType}, Scalar(msg.Type)); err != nil {
			return err
		}
		if msg.HasCode {
			return term.match().SetSpans(MatchKey{Kind: MatchICMPCode}, Scalar(msg.Code))
		}
		return nil
	}
	return term.match().SetValues(MatchKey{Kind: MatchICMPType}, w)
}

// parseAddrSpec consumes an endpoint: any, host A, a CIDR prefix, or an
// address with a Cisco wildcard mask resolved through the inverse-mask
// table.
func (p *iosParser) parseAddrSpec(words []string, i *int) (*TIP, error) {
	if *i >= len(words) {
		return nil, p.errf("", "truncated rule: endpoint expected")
	}
	w := words[*i]
	*i++
	switch {
	case w == "any":
		return nil, nil
	case w == "host":
		if *i >= len(words) {
			return nil, p.errf(w, "host requires an address")
		}
		addr, err := netip.ParseAddr(words[*i])
		if err != nil {
			return nil, p.errf(words[*i], "invalid address %q", words[*i])
		}
		*i++
		tip := TIP{Prefix: netip.PrefixFrom(addr, addr.BitLen())}
		return &tip, nil
	case strings.Contains(w, "/"):
		prefix, err := netip.ParsePrefix(w)
		if err != nil {
			return nil, p.errf(w, "invalid prefix %q", w)
		}
		tip := TIP{Prefix: prefix.Masked()}
		return &tip, nil
	}
	addr, err := netip.ParseAddr(w)
	if err != nil {
		return nil, p.errf(w, "invalid address %q", w)
	}
	// A following address token is the wildcard mask; without one the
	// endpoint is a plain host.
	if *i < len(words) {
		if mask, err := netip.ParseAddr(words[*i]); err == nil {
			bits, ok := inverseMasks[mask]
			if !ok {
				return nil, p.errf(words[*i], "bad wildcard mask %q", words[*i])
			}
			*i++
			tip := TIP{Prefix: netip.PrefixFrom(addr, bits).Masked()}
			return &tip, nil
		}
	}
	tip := TIP{Prefix: netip.PrefixFrom(addr, addr.BitLen())}
	return &tip, nil
}

// parsePortOp consumes a unary port operator or a range, expanding it to
// its span form.
func (p *iosParser) parsePortOp(term *Term, kind MatchKind, words []string, i *int) error {
	if *i >= len(words) {
		return nil
	}
	op := words[*i]
	switch op {
	case "eq", "neq", "lt", "gt", "le", "ge":
		if *i+1 >= len(words) {
			return p.errf(op, "%s requires a port", op)
		}
		port, err := lookupMatchValue(kind, words[*i+1])
		if err != nil {
			return err
		}
		spans, err := portOpSpans(op, port)
		if err != nil {
			return err
		}
		*i += 2
		return term.match().SetSpans(MatchKey{Kind: kind}, spans...)
	case "range":
		if *i+2 >= len(words) {
			return p.errf(op, "range requires two ports")
		}
		lo, err := lookupMatchValue(kind, words[*i+1])
		if err != nil {
			return err
		}
		hi, err := lookupMatchValue(kind, words[*i+2])
		if err != nil {
			return err
		}
		*i += 3
		return term.match().SetSpans(MatchKey{Kind: kind}, NewSpan(lo, hi))
	}
	return nil
}

// portOpSpans expands a unary port operator. The degenerate edges (lt 0,
// gt 65535) have no members and fail the range check.
func portOpSpans(op string, port int) ([]Span, error) {
	switch op {
	case "eq":
		return []Span{Scalar(port)}, nil
	case "le":
		return []Span{NewSpan(0, port)}, nil
	case "lt":
		if port == 0 {
			return nil, fmt.Errorf("%w: lt 0 matches nothing", ErrBadMatchArgRange)
		}
		return []Span{NewSpan(0, port - 1)}, nil
	case "ge":
		return []Span{NewSpan(port, 65535)}, nil
	case "gt":
		if port == 65535 {
			return nil, fmt.Errorf("%w: gt 65535 matches nothing", ErrBadMatchArgRange)
		}
		return []Span{NewSpan(port + 1, 65535)}, nil
	case "neq":
		switch port {
		case 0:
			return []Span{NewSpan(1, 65535)}, nil
		case 65535:
			return []Span{NewSpan(0, 65534)}, nil
		default:
			return []Span{NewSpan(0, port - 1), NewSpan(port + 1, 65535)}, nil
		}
	}
	return nil, fmt.Errorf("%w: port operator %q", ErrUnknownMatchArg, op)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

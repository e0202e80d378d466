package acl

import (
	"fmt"
	"strings"
)

// node is one statement of a brace-structured document: the statement
// words, a leaf terminator or a child block, and any block comments that
// preceded the statement.
type node struct {
	keys     []string
	children []*node
	leaf     bool
	inactive bool
	replace  bool
	comments []string
	line     int
	column   int
}

func (n *node) findChild(name string) *node {
	for _, child := range n.children {
		if len(child.keys) > 0 && child.keys[0] == name {
			return child
		}
	}
	return nil
}

// parseStatements reads statements until EOF (depth 0) or a closing brace.
// Comments between statements attach to the following statement; trailing
// comments with no following statement are dropped.
func parseStatements(lex *Lexer, depth int) ([]*node, error) {
	var nodes []*node
	var comments []string
	for {
		tok := lex.Next()
		switch tok.Type {
		case TokenEOF:
			if depth > 0 {
				return nil, parseErrorf(tok.Line, tok.Column, "unexpected end of input")
			}
			return nodes, nil
		case TokenRBrace:
			if depth == 0 {
				return nil, parseErrorf(tok.Line, tok.Column, "unexpected '}'")
			}
			return nodes, nil
		case TokenComment:
			comments = append(comments, tok.Value)
		case TokenError:
			return nil, parseErrorf(tok.Line, tok.Column, "%s", tok.Value)
		case TokenIdentifier, TokenString:
			n := &node{comments: comments, line: tok.Line, column: tok.Column}
			comments = nil
			words := []string{tok.Value}
		statement:
			for {
				tok = lex.Next()
				switch tok.Type {
				case TokenIdentifier, TokenString:
					words = append(words, tok.Value)
				case TokenComment:
					n.comments = append(n.comments, tok.Value)
				case TokenSemicolon:
					n.leaf = true
					break statement
				case TokenLBrace:
					children, err := parseStatements(lex, depth+1)
					if err != nil {
						return nil, err
					}
					n.children = children
					break statement
				case TokenError:
					return nil, parseErrorf(tok.Line, tok.Column, "%s", tok.Value)
				default:
					return nil, parseErrorf(tok.Line, tok.Column, "expected ';' or '{', got %s", tok)
				}
			}
			for len(words) > 0 && (words[0] == "inactive:" || words[0] == "replace:") {
				if words[0] == "inactive:" {
					n.inactive = true
				} else {
					n.replace = true
				}
				words = words[1:]
			}
			if len(words) == 0 {
				return nil, parseErrorf(n.line, n.column, "statement has no keywords")
			}
			n.keys = words
			nodes = append(nodes, n)
		default:
			return nil, parseErrorf(tok.Line, tok.Column, "unexpected %s", tok)
		}
	}
}

// junosDoc is the result of compiling a JunOS document: at most one filter,
// plus any policers defined beside it.
type junosDoc struct {
	acl      *ACL
	policers []Policer
}

// parseJunos parses JunOS firewall configuration: a firewall block with
// optional family nesting, a bare filter block, policer definitions, and
// policy-options blocks (accepted and skipped).
func parseJunos(text string, opts ParseOptions) (*ACL, error) {
	doc, err := compileJunos(text, opts)
	if err != nil {
		return nil, err
	}
	if doc.acl == nil {
		if len(doc.policers) == 0 {
			return nil, parseErrorf(1, 1, "no filter in document")
		}
		// Bare policer document: an unnamed ACL carrying only policers.
		doc.acl = &ACL{Format: FormatJunos}
	}
	doc.acl.Policers = doc.policers
	return doc.acl, nil
}

// ParsePolicers parses a standalone JunOS policer document.
func ParsePolicers(text string) (*PolicerGroup, error) {
	doc, err := compileJunos(text, ParseOptions{})
	if err != nil {
		return nil, err
	}
	if doc.acl != nil {
		return nil, fmt.Errorf("document contains a filter, not only policers")
	}
	if len(doc.policers) == 0 {
		return nil, parseErrorf(1, 1, "no policer in document")
	}
	return &PolicerGroup{Policers: doc.policers}, nil
}

func compileJunos(text string, opts ParseOptions) (*junosDoc, error) {
	lex := NewLexer(text)
	lex.AllowMultilineComments = opts.AllowMultilineComments
	nodes, err := parseStatements(lex, 0)
	if err != nil {
		return nil, err
	}
	doc := &junosDoc{}
	for _, n := range nodes {
		switch n.keys[0] {
		case "firewall":
			if err := doc.compileFirewall(n); err != nil {
				return nil, err
			}
		case "family":
			if err := doc.compileFamily(n, nil); err != nil {
				return nil, err
			}
		case "filter":
			if err := doc.compileFilter(n, ""); err != nil {
				return nil, err
			}
		case "policer":
			p, err := compilePolicer(n)
			if err != nil {
				return nil, err
			}
			doc.policers = append(doc.policers, p)
		case "policy-options":
			// Prefix-list definitions live outside the ACL model.
		default:
			return nil, parseErrorf(n.line, n.column, "unexpected keyword %q", n.keys[0])
		}
	}
	return doc, nil
}

func (doc *junosDoc) compileFirewall(n *node) error {
	if len(n.keys) != 1 || n.leaf {
		return parseErrorf(n.line, n.column, "malformed firewall block")
	}
	for _, child := range n.children {
		switch child.keys[0] {
		case "family":
			if err := doc.compileFamily(child, n.comments); err != nil {
				return err
			}
		case "filter":
			child.comments = append(n.comments, child.comments...)
			if err := doc.compileFilter(child, ""); err != nil {
				return err
			}
		case "policer":
			p, err := compilePolicer(child)
			if err != nil {
				return err
			}
			doc.policers = append(doc.policers, p)
		default:
			return parseErrorf(child.line, child.column, "unexpected keyword %q in firewall", child.keys[0])
		}
	}
	return nil
}

func (doc *junosDoc) compileFamily(n *node, comments []string) error {
	if len(n.keys) != 2 || n.leaf {
		return parseErrorf(n.line, n.column, "malformed family block")
	}
	family := Family(n.keys[1])
	switch family {
	case FamilyInet, FamilyInet6, FamilyEthernetSwitching:
	default:
		return parseErrorf(n.line, n.column, "unknown family %q", n.keys[1])
	}
	for _, child := range n.children {
		if child.keys[0] != "filter" {
			return parseErrorf(child.line, child.column, "unexpected keyword %q in family", child.keys[0])
		}
		child.comments = append(append([]string{}, comments...), child.comments...)
		if err := doc.compileFilter(child, family); err != nil {
			return err
		}
	}
	return nil
}

func (doc *junosDoc) compileFilter(n *node, family Family) error {
	if doc.acl != nil {
		return parseErrorf(n.line, n.column, "only one filter per document")
	}
	if n.leaf {
		return parseErrorf(n.line, n.column, "malformed filter block")
	}
	if len(n.keys) == 1 {
		return ErrMissingACLName
	}
	if len(n.keys) > 2 {
		return parseErrorf(n.line, n.column, "malformed filter block")
	}
	acl := &ACL{Format: FormatJunos, Family: family}
	if err := acl.SetName(n.keys[1]); err != nil {
		return err
	}
	for _, c := range n.comments {
		acl.Comments = append(acl.Comments, Comment(c))
	}
	var pending []string
	for _, child := range n.children {
		switch child.keys[0] {
		case "interface-specific":
			acl.InterfaceSpecific = true
			pending = append(pending, child.comments...)
		case "term":
			term, err := compileTerm(child, pending)
			if err != nil {
				return err
			}
			pending = nil
			acl.Terms = append(acl.Terms, term)
		default:
			return parseErrorf(child.line, child.column, "unexpected keyword %q in filter", child.keys[0])
		}
	}
	doc.acl = acl
	return nil
}

func compileTerm(n *node, pending []string) (*Term, error) {
	if n.leaf {
		return nil, parseErrorf(n.line, n.column, "malformed term block")
	}
	if len(n.keys) != 2 {
		return nil, ErrMissingTermName
	}
	term := NewTerm()
	if err := term.SetName(n.keys[1]); err != nil {
		return nil, err
	}
	term.Inactive = n.inactive
	comments := append(pending, n.comments...)
	for _, child := range n.children {
		comments = append(comments, collectComments(child)...)
		switch child.keys[0] {
		case "from":
			if err := compileFrom(term, child); err != nil {
				return nil, err
			}
		case "then":
			if err := compileThen(term, child); err != nil {
				return nil, err
			}
		default:
			return nil, parseErrorf(child.line, child.column, "unexpected keyword %q in term", child.keys[0])
		}
	}
	for _, c := range comments {
		term.Comments = append(term.Comments, Comment(c))
	}
	return term, nil
}

// collectComments gathers the comments of a statement and its descendants
// in document order.
func collectComments(n *node) []string {
	out := append([]string{}, n.comments...)
	for _, child := range n.children {
		out = append(out, collectComments(child)...)
	}
	return out
}

func compileFrom(term *Term, n *node) error {
	if n.leaf {
		return parseErrorf(n.line, n.column, "malformed from block")
	}
	for _, child := range n.children {
		// The tcp-flags shorthands are standalone keywords, not kinds.
		if expr, ok := tcpFlagSpecials[child.keys[0]]; ok {
			if !child.leaf || len(child.keys) > 1 {
				return fmt.Errorf("%w: %s takes no argument", ErrMatch, child.keys[0])
			}
			if err := mergeNames(term, MatchKey{Kind: MatchTCPFlags}, []string{expr}); err != nil {
				return err
			}
			continue
		}
		key, err := ParseMatchKey(child.keys[0])
		if err != nil {
			return err
		}
		switch matchClassOf(key.Kind) {
		case classFlag:
			if !child.leaf || len(child.keys) > 1 {
				return fmt.Errorf("%w: %s takes no argument", ErrMatch, key)
			}
			if err := term.match().SetFlag(key); err != nil {
				return err
			}
		case classAddress:
			if child.leaf {
				return parseErrorf(child.line, child.column, "%s requires a block", key)
			}
			if err := compileAddressBlock(term, key, child); err != nil {
				return err
			}
		case className:
			if !child.leaf {
				if err := compilePrefixListBlock(term, key, child); err != nil {
					return err
				}
				continue
			}
			if err := mergeNames(term, key, child.keys[1:]); err != nil {
				return err
			}
		default:
			if !child.leaf {
				return parseErrorf(child.line, child.column, "%s takes values, not a block", key)
			}
			if err := mergeValues(term, key, child.keys[1:]); err != nil {
				return err
			}
		}
	}
	return nil
}

// compileAddressBlock reads a braced address list. Negation and inactive
// markers are per entry and travel on the TIP itself.
func compileAddressBlock(term *Term, key MatchKey, n *node) error {
	var addrs []TIP
	for _, entry := range n.children {
		if !entry.leaf {
			return parseErrorf(entry.line, entry.column, "malformed address entry")
		}
		tip, err := ParseTIP(strings.Join(entry.keys, " "))
		if err != nil {
			return err
		}
		tip.Inactive = entry.inactive
		addrs = append(addrs, tip)
	}
	return mergeAddresses(term, key, addrs)
}

// compilePrefixListBlock reads a braced prefix-list name list. A per-entry
// "except" moves the name under the key's negated twin.
func compilePrefixListBlock(term *Term, key MatchKey, n *node) error {
	var plain, excepted []string
	for _, entry := range n.children {
		if !entry.leaf {
			return parseErrorf(entry.line, entry.column, "malformed prefix-list entry")
		}
		switch {
		case len(entry.keys) == 1:
			plain = append(plain, entry.keys[0])
		case len(entry.keys) == 2 && entry.keys[1] == "except":
			excepted = append(excepted, entry.keys[0])
		default:
			return parseErrorf(entry.line, entry.column, "malformed prefix-list entry")
		}
	}
	if len(plain) > 0 {
		if err := mergeNames(term, key, plain); err != nil {
			return err
		}
	}
	if len(excepted) > 0 {
		twin := MatchKey{Kind: key.Kind, Except: !key.Except}
		if err := mergeNames(term, twin, excepted); err != nil {
			return err
		}
	}
	return nil
}

func compileThen(term *Term, n *node) error {
	if n.leaf {
		// Inline form: then accept;
		return compileThenStatement(term, n.keys[1:], n)
	}
	for _, child := range n.children {
		if !child.leaf {
			return parseErrorf(child.line, child.column, "malformed then statement")
		}
		if err := compileThenStatement(term, child.keys, child); err != nil {
			return err
		}
	}
	return nil
}

func compileThenStatement(term *Term, words []string, n *node) error {
	if len(words) == 0 {
		return parseErrorf(n.line, n.column, "empty then statement")
	}
	if _, known := modifierTakesArg(ModifierKind(words[0])); known {
		if len(words) > 2 {
			return fmt.Errorf("%w: modifier %s takes one argument", ErrMatch, words[0])
		}
		arg := ""
		if len(words) == 2 {
			arg = words[1]
		}
		return term.modifiers().Set(ModifierKind(words[0]), arg)
	}
	act, err := ParseAction(words...)
	if err != nil {
		return err
	}
	term.Action = act
	return nil
}

func compilePolicer(n *node) (Policer, error) {
	if n.leaf {
		return Policer{}, parseErrorf(n.line, n.column, "malformed policer block")
	}
	if len(n.keys) != 2 {
		return Policer{}, ErrMissingTermName
	}
	if err := checkName(n.keys[1], maxTermNameLen); err != nil {
		return Policer{}, fmt.Errorf("%w: %v", ErrBadTermName, err)
	}
	p := Policer{Name: n.keys[1]}
	for _, child := range n.children {
		switch child.keys[0] {
		case "if-exceeding":
			if child.leaf {
				return Policer{}, parseErrorf(child.line, child.column, "malformed if-exceeding block")
			}
			for _, limit := range child.children {
				if !limit.leaf || len(limit.keys) != 2 {
					return Policer{}, parseErrorf(limit.line, limit.column, "malformed limit statement")
				}
				rate, err := ParseRateLimit(limit.keys[1])
				if err != nil {
					return Policer{}, err
				}
				switch limit.keys[0] {
				case "bandwidth-limit":
					p.BandwidthLimit = rate
				case "burst-size-limit":
					p.BurstSizeLimit = rate
				default:
					return Policer{}, parseErrorf(limit.line, limit.column, "unknown limit %q", limit.keys[0])
				}
			}
		case "then":
			if child.leaf {
				act, err := parsePolicerAction(child.keys[1:]...)
				if err != nil {
					return Policer{}, err
				}
				p.Actions = append(p.Actions, act)
				continue
			}
			for _, stmt := range child.children {
				if !stmt.leaf {
					return Policer{}, parseErrorf(stmt.line, stmt.column, "malformed policer action")
				}
				act, err := parsePolicerAction(stmt.keys...)
				if err != nil {
					return Policer{}, err
				}
				p.Actions = append(p.Actions, act)
			}
		default:
			return Policer{}, parseErrorf(child.line, child.column, "unexpected keyword %q in policer", child.keys[0])
		}
	}
	return p, nil
}

// mergeValues folds new raw arguments into a numeric key, keeping anything
// already set under it.
func mergeValues(term *Term, key MatchKey, args []string) error {
	prev := term.match().Spans(key)
	if err := term.match().SetValues(key, args...); err != nil {
		return err
	}
	if len(prev) > 0 {
		return term.match().SetSpans(key, append(prev, term.match().Spans(key)...)...)
	}
	return nil
}

// mergeNames folds new values into a name key.
func mergeNames(term *Term, key MatchKey, names []string) error {
	prev := term.match().Names(key)
	return term.match().SetNames(key, append(prev, names...)...)
}

// mergeAddresses folds new entries into an address key.
func mergeAddresses(term *Term, key MatchKey, addrs []TIP) error {
	prev := term.match().Addresses(key)
	return term.match().SetAddresses(key, append(prev, addrs...)...)
}

// Package acl parses vendor access-list configurations into a neutral
// in-memory model and renders the model back out in any supported dialect.
//
// Parse consumes JunOS firewall filters and policers, classic numbered IOS
// access lists, named extended IOS access lists, IOS XR ipv4 access lists,
// and the Brocade rebind variants. The resulting ACL value is vendor
// neutral: terms hold validated match clauses, modifiers, and a normalized
// action, so an ACL parsed from one dialect can be rendered in another as
// long as the target dialect can express it.
package acl

import (
	"fmt"
	"regexp"
	"strings"
)

// Format tags the dialect an ACL was parsed from or should render to.
type Format string

const (
	FormatJunos      Format = "junos"
	FormatIOS        Format = "ios"
	FormatIOSNamed   Format = "ios_named"
	FormatIOSXR      Format = "iosxr"
	FormatIOSBrocade Format = "ios_brocade"
)

// Family is the JunOS address family a filter is nested under.
type Family string

const (
	FamilyInet              Family = "inet"
	FamilyInet6             Family = "inet6"
	FamilyEthernetSwitching Family = "ethernet-switching"
)

// Comment is a free-text comment or remark attached to an ACL or a term.
type Comment string

func (c Comment) String() string { return string(c) }

// Name rules: the JunOS ceiling is enforced uniformly at construction, so
// an ACL name valid here is valid for every dialect that takes a word name.
const (
	maxACLNameLen  = 24
	maxTermNameLen = 255
)

var validName = regexp.MustCompile(`^[A-Za-z0-9 _.-]+$`)

func checkName(name string, maxLen int) error {
	if name == "" {
		return fmt.Errorf("empty name")
	}
	if len(name) > maxLen {
		return fmt.Errorf("name %q longer than %d", name, maxLen)
	}
	if !validName.MatchString(name) {
		return fmt.Errorf("name %q has invalid characters", name)
	}
	return nil
}

// ACL is the vendor-neutral model of one access list: ordered terms,
// ACL-level comments, and any policers defined alongside the filter.
// Parsers build it; renderers read it without mutating it.
type ACL struct {
	Name              string
	Format            Format
	Family            Family
	InterfaceSpecific bool
	ReceiveACL        bool
	Comments          []Comment
	Terms             []*Term
	Policers          []Policer
}

// NewACL returns an ACL with a validated name.
func NewACL(name string) (*ACL, error) {
	a := &ACL{}
	if err := a.SetName(name); err != nil {
		return nil, err
	}
	return a, nil
}

// SetName validates and assigns the ACL name: charset [A-Za-z0-9 _.-],
// length at most 24.
func (a *ACL) SetName(name string) error {
	if name == "" {
		return ErrMissingACLName
	}
	if err := checkName(name, maxACLNameLen); err != nil {
		return fmt.Errorf("%w: %v", ErrBadACLName, err)
	}
	a.Name = name
	return nil
}

// Equal reports semantic equality: same name, format, family, flags,
// comments, terms, and policers, with match and modifier sets compared as
// sets rather than by insertion order.
func (a *ACL) Equal(other *ACL) bool {
	if a == nil || other == nil {
		return a == other
	}
	if a.Name != other.Name || a.Format != other.Format || a.Family != other.Family {
		return false
	}
	if a.InterfaceSpecific != other.InterfaceSpecific || a.ReceiveACL != other.ReceiveACL {
		return false
	}
	if !commentsEqual(a.Comments, other.Comments) {
		return false
	}
	if len(a.Terms) != len(other.Terms) || len(a.Policers) != len(other.Policers) {
		return false
	}
	for i, t := range a.Terms {
		if !t.Equal(other.Terms[i]) {
			return false
		}
	}
	for i, p := range a.Policers {
		if !p.Equal(other.Policers[i]) {
			return false
		}
	}
	return true
}

// Copy returns an independent deep copy of the ACL.
func (a *ACL) Copy() *ACL {
	out := &ACL{
		Name:              a.Name,
		Format:            a.Format,
		Family:            a.Family,
		InterfaceSpecific: a.InterfaceSpecific,
		ReceiveACL:        a.ReceiveACL,
	}
	out.Comments = append(out.Comments, a.Comments...)
	for _, t := range a.Terms {
		out.Terms = append(out.Terms, t.Copy())
	}
	for _, p := range a.Policers {
		p.Actions = append([]PolicerAction{}, p.Actions...)
		out.Policers = append(out.Policers, p)
	}
	return out
}

func commentsEqual(a, b []Comment) bool {
	if len(a) != len(b) {
		return false
	}
	for i, c := range a {
		if b[i] != c {
			return false
		}
	}
	return true
}

// Term is one rule of an ACL. The zero value is usable: it matches
// everything and accepts.
type Term struct {
	Name      string
	Action    Action
	Match     *Matches
	Modifiers *Modifiers
	Inactive  bool
	Comments  []Comment
}

// NewTerm returns an empty accept-everything term.
func NewTerm() *Term {
	return &Term{Match: NewMatches(), Modifiers: NewModifiers()}
}

// SetName validates and assigns the term name; an empty name clears it.
func (t *Term) SetName(name string) error {
	if name == "" {
		t.Name = ""
		return nil
	}
	if err := checkName(name, maxTermNameLen); err != nil {
		return fmt.Errorf("%w: %v", ErrBadTermName, err)
	}
	t.Name = name
	return nil
}

// match returns the term's match set, creating it on first use.
func (t *Term) match() *Matches {
	if t.Match == nil {
		t.Match = NewMatches()
	}
	return t.Match
}

// modifiers returns the term's modifier set, creating it on first use.
func (t *Term) modifiers() *Modifiers {
	if t.Modifiers == nil {
		t.Modifiers = NewModifiers()
	}
	return t.Modifiers
}

// Equal reports semantic equality of two terms.
func (t *Term) Equal(other *Term) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Name != other.Name || t.Action != other.Action || t.Inactive != other.Inactive {
		return false
	}
	if !commentsEqual(t.Comments, other.Comments) {
		return false
	}
	return t.Match.Equal(other.Match) && t.Modifiers.Equal(other.Modifiers)
}

// Copy returns an independent deep copy of the term.
func (t *Term) Copy() *Term {
	out := &Term{
		Name:      t.Name,
		Action:    t.Action,
		Inactive:  t.Inactive,
		Match:     t.Match.Copy(),
		Modifiers: t.Modifiers.Copy(),
	}
	out.Comments = append(out.Comments, t.Comments...)
	return out
}

// ActionKind enumerates term actions. The zero value is ActionAccept, so
// an untouched term accepts.
type ActionKind int

const (
	ActionAccept ActionKind = iota
	ActionDiscard
	ActionReject
	ActionNextTerm
	ActionRoutingInstance
)

// Action is a term's disposition: a kind plus the optional argument reject
// and routing-instance carry.
type Action struct {
	Kind ActionKind
	Arg  string
}

// ParseAction normalizes an action phrase into its canonical form: permit
// becomes accept and deny becomes reject, reject takes an optional reason,
// and routing-instance takes a validated instance name.
func ParseAction(words ...string) (Action, error) {
	if len(words) == 0 {
		return Action{}, fmt.Errorf("%w: empty action", ErrUnknownActionName)
	}
	name := words[0]
	args := words[1:]
	switch name {
	case "accept", "permit":
		if len(args) > 0 {
			return Action{}, fmt.Errorf("%w: %q takes no argument", ErrUnknownActionName, name)
		}
		return Action{Kind: ActionAccept}, nil
	case "discard":
		if len(args) > 0 {
			return Action{}, fmt.Errorf("%w: %q takes no argument", ErrUnknownActionName, name)
		}
		return Action{Kind: ActionDiscard}, nil
	case "reject", "deny":
		if len(args) > 1 {
			return Action{}, fmt.Errorf("%w: reject takes one reason", ErrBadRejectCode)
		}
		if len(args) == 1 {
			if !junosRejectReasons[args[0]] {
				return Action{}, fmt.Errorf("%w: %q", ErrBadRejectCode, args[0])
			}
			return Action{Kind: ActionReject, Arg: args[0]}, nil
		}
		return Action{Kind: ActionReject}, nil
	case "next":
		if len(args) == 1 && args[0] == "term" {
			return Action{Kind: ActionNextTerm}, nil
		}
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownActionName, strings.Join(words, " "))
	case "routing-instance":
		if len(args) != 1 {
			return Action{}, fmt.Errorf("%w: instance name required", ErrBadRoutingInstanceName)
		}
		if err := checkName(args[0], maxTermNameLen); err != nil {
			return Action{}, fmt.Errorf("%w: %v", ErrBadRoutingInstanceName, err)
		}
		return Action{Kind: ActionRoutingInstance, Arg: args[0]}, nil
	}
	return Action{}, fmt.Errorf("%w: %q", ErrUnknownActionName, name)
}

// String renders the action in its canonical (JunOS) spelling.
func (a Action) String() string {
	switch a.Kind {
	case ActionAccept:
		return "accept"
	case ActionDiscard:
		return "discard"
	case ActionReject:
		if a.Arg != "" {
			return "reject " + a.Arg
		}
		return "reject"
	case ActionNextTerm:
		return "next term"
	case ActionRoutingInstance:
		return "routing-instance " + a.Arg
	}
	return "accept"
}

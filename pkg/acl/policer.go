package acl

import (
	"fmt"
	"strconv"
	"strings"
)

// Policer is a JunOS rate-limit definition. Limits are stored as plain
// numbers; the k/m/g unit suffixes are expanded at parse time and restored
// on output.
type Policer struct {
	Name           string
	BandwidthLimit int64
	BurstSizeLimit int64
	Actions        []PolicerAction
}

// PolicerAction is one statement of a policer's then clause.
type PolicerAction struct {
	Name string
	Arg  string
}

func (a PolicerAction) String() string {
	if a.Arg != "" {
		return a.Name + " " + a.Arg
	}
	return a.Name
}

// parsePolicerAction validates a policer then statement.
func parsePolicerAction(words ...string) (PolicerAction, error) {
	if len(words) == 0 {
		return PolicerAction{}, fmt.Errorf("%w: empty policer action", ErrUnknownActionName)
	}
	name := words[0]
	args := words[1:]
	switch name {
	case "discard", "out-of-profile":
		if len(args) > 0 {
			return PolicerAction{}, fmt.Errorf("%w: %q takes no argument", ErrUnknownActionName, name)
		}
		return PolicerAction{Name: name}, nil
	case "loss-priority":
		if len(args) != 1 || (args[0] != "low" && args[0] != "high") {
			return PolicerAction{}, fmt.Errorf("%w: loss-priority takes low or high", ErrUnknownActionName)
		}
		return PolicerAction{Name: name, Arg: args[0]}, nil
	case "forwarding-class":
		if len(args) != 1 {
			return PolicerAction{}, fmt.Errorf("%w: forwarding-class takes a name", ErrUnknownActionName)
		}
		if err := checkName(args[0], maxTermNameLen); err != nil {
			return PolicerAction{}, fmt.Errorf("%w: %v", ErrUnknownActionName, err)
		}
		return PolicerAction{Name: name, Arg: args[0]}, nil
	}
	return PolicerAction{}, fmt.Errorf("%w: policer action %q", ErrUnknownActionName, name)
}

// Equal reports whether two policers are identical.
func (p Policer) Equal(other Policer) bool {
	if p.Name != other.Name || p.BandwidthLimit != other.BandwidthLimit ||
		p.BurstSizeLimit != other.BurstSizeLimit {
		return false
	}
	if len(p.Actions) != len(other.Actions) {
		return false
	}
	for i, a := range p.Actions {
		if other.Actions[i] != a {
			return false
		}
	}
	return true
}

// PolicerGroup holds the policers of a standalone policer document, one
// that defines policers without a filter around them.
type PolicerGroup struct {
	Policers []Policer
}

// Equal reports whether two groups hold identical policers in the same
// order.
func (g *PolicerGroup) Equal(other *PolicerGroup) bool {
	if g == nil || other == nil {
		return g == other
	}
	if len(g.Policers) != len(other.Policers) {
		return false
	}
	for i, p := range g.Policers {
		if !p.Equal(other.Policers[i]) {
			return false
		}
	}
	return true
}

// Output renders the group as JunOS policer blocks, one line per element.
func (g *PolicerGroup) Output() []string {
	var w lineWriter
	for _, p := range g.Policers {
		renderJunosPolicer(&w, p, 0)
	}
	return w.lines
}

// ParseRateLimit expands a policer rate value with an optional k, m, or g
// decimal suffix.
func ParseRateLimit(s string) (int64, error) {
	mult := int64(1)
	digits := s
	switch {
	case strings.HasSuffix(s, "k"):
		mult, digits = 1e3, strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult, digits = 1e6, strings.TrimSuffix(s, "m")
	case strings.HasSuffix(s, "g"):
		mult, digits = 1e9, strings.TrimSuffix(s, "g")
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: rate %q", ErrBadMatchArgRange, s)
	}
	return n * mult, nil
}

// FormatRateLimit renders a rate with the largest exact unit suffix, so a
// value parsed from "25m" round-trips as "25m" and 1500000 comes out as
// "1500k".
func FormatRateLimit(v int64) string {
	switch {
	case v != 0 && v%1e9 == 0:
		return strconv.FormatInt(v/1e9, 10) + "g"
	case v != 0 && v%1e6 == 0:
		return strconv.FormatInt(v/1e6, 10) + "m"
	case v != 0 && v%1e3 == 0:
		return strconv.FormatInt(v/1e3, 10) + "k"
	}
	return strconv.FormatInt(v, 10)
}

package acl

import (
	"os"
	"strings"
)

// ParseOptions adjusts parser behavior shared by the dialects.
type ParseOptions struct {
	// AllowMultilineComments permits JunOS /* */ comments that span
	// lines. They are rejected by default.
	AllowMultilineComments bool
}

// Parse parses ACL text in any supported dialect. The dialect is chosen by
// the first significant token; the dialects' leading keywords are disjoint,
// so no backtracking happens. Callers that know the dialect can use
// ParseJunos or ParseIOS directly.
func Parse(text string) (*ACL, error) {
	return ParseWithOptions(text, ParseOptions{})
}

// ParseWithOptions is Parse with explicit options.
func ParseWithOptions(text string, opts ParseOptions) (*ACL, error) {
	switch d, line, col, word := sniffDialect(text); d {
	case dialectIOS:
		return parseIOS(text, opts)
	case dialectJunos:
		return parseJunos(text, opts)
	default:
		if word == "" {
			return nil, parseErrorf(line, col, "empty document")
		}
		return nil, parseErrorf(line, col, "unrecognized input %q", word)
	}
}

// ParseJunos parses a JunOS firewall document.
func ParseJunos(text string) (*ACL, error) {
	return parseJunos(text, ParseOptions{})
}

// ParseIOS parses an IOS-family document: classic numbered, named
// extended, IOS XR, or Brocade rebind.
func ParseIOS(text string) (*ACL, error) {
	return parseIOS(text, ParseOptions{})
}

// ParseFile reads and parses the ACL file at path.
func ParseFile(path string) (*ACL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

type dialect int

const (
	dialectUnknown dialect = iota
	dialectIOS
	dialectJunos
)

var iosLeadWords = map[string]bool{
	"access-list": true,
	"deny":        true,
	"ip":          true,
	"ipv4":        true,
	"no":          true,
	"permit":      true,
	"remark":      true,
}

var junosLeadWords = map[string]bool{
	"family":         true,
	"filter":         true,
	"firewall":       true,
	"inactive:":      true,
	"policer":        true,
	"policy-options": true,
	"replace:":       true,
}

// sniffDialect finds the first significant token and classifies it. On an
// unrecognized token it reports the token's 1-based line and column.
func sniffDialect(text string) (d dialect, line, col int, word string) {
	for i, raw := range strings.Split(text, "\n") {
		l := strings.TrimRight(raw, "\r")
		idx := strings.IndexFunc(l, func(r rune) bool { return r != ' ' && r != '\t' })
		if idx < 0 {
			continue
		}
		line, col = i+1, idx+1
		trimmed := l[idx:]
		switch {
		case strings.HasPrefix(trimmed, "!"):
			return dialectIOS, line, col, "!"
		case strings.HasPrefix(trimmed, "#"):
			return dialectJunos, line, col, "#"
		case strings.HasPrefix(trimmed, "/*"):
			return dialectJunos, line, col, "/*"
		}
		word = strings.Fields(trimmed)[0]
		switch {
		case iosLeadWords[word]:
			return dialectIOS, line, col, word
		case junosLeadWords[word]:
			return dialectJunos, line, col, word
		}
		return dialectUnknown, line, col, word
	}
	return dialectUnknown, 1, 1, ""
}

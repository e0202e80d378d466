package acl

import (
	"errors"
	"fmt"
)

// Error families. Every validation error wraps one of these, and most wrap a
// more specific sentinel below it, so callers can test either level with
// errors.Is.
var (
	ErrACLName              = errors.New("ACL name error")
	ErrTermName             = errors.New("term name error")
	ErrAction               = errors.New("action error")
	ErrMatch                = errors.New("match error")
	ErrVendorSupportLacking = errors.New("vendor support lacking")
)

// Specific error kinds, pre-wrapped into their family.
var (
	ErrBadACLName             = fmt.Errorf("%w: bad name", ErrACLName)
	ErrMissingACLName         = fmt.Errorf("%w: name required", ErrACLName)
	ErrBadTermName            = fmt.Errorf("%w: bad name", ErrTermName)
	ErrMissingTermName        = fmt.Errorf("%w: name required", ErrTermName)
	ErrUnknownActionName      = fmt.Errorf("%w: unknown action", ErrAction)
	ErrBadRejectCode          = fmt.Errorf("%w: bad reject code", ErrAction)
	ErrBadRoutingInstanceName = fmt.Errorf("%w: bad routing-instance name", ErrAction)
	ErrUnknownMatchType       = fmt.Errorf("%w: unknown match type", ErrMatch)
	ErrUnknownMatchArg        = fmt.Errorf("%w: unknown match argument", ErrMatch)
	ErrBadMatchArgRange       = fmt.Errorf("%w: argument out of range", ErrMatch)
)

// ParseError reports the first point in the input that no dialect grammar
// could match. Line and Column are 1-based.
type ParseError struct {
	Reason string
	Line   int
	Column int
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Column, e.Reason)
	}
	return "parse error: " + e.Reason
}

func parseErrorf(line, column int, format string, args ...any) *ParseError {
	return &ParseError{
		Reason: fmt.Sprintf(format, args...),
		Line:   line,
		Column: column,
	}
}

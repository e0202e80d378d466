package acl

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Validate runs the cross-term checks a single assignment cannot see:
// name rules, duplicate term names, policer references without a matching
// definition, and terms shadowed by an earlier broader term. All findings
// are reported together.
func (a *ACL) Validate() error {
	var result *multierror.Error

	if a.Name == "" {
		result = multierror.Append(result, ErrMissingACLName)
	} else if err := checkName(a.Name, maxACLNameLen); err != nil {
		result = multierror.Append(result, fmt.Errorf("%w: %v", ErrBadACLName, err))
	}

	policers := make(map[string]bool, len(a.Policers))
	for _, p := range a.Policers {
		if err := checkName(p.Name, maxTermNameLen); err != nil {
			result = multierror.Append(result, fmt.Errorf("%w: %v", ErrBadTermName, err))
			continue
		}
		if policers[p.Name] {
			result = multierror.Append(result,
				fmt.Errorf("%w: duplicate policer %q", ErrBadTermName, p.Name))
		}
		policers[p.Name] = true
	}

	seen := make(map[string]bool, len(a.Terms))
	for i, t := range a.Terms {
		if t.Name != "" {
			if err := checkName(t.Name, maxTermNameLen); err != nil {
				result = multierror.Append(result, fmt.Errorf("%w: %v", ErrBadTermName, err))
			} else if seen[t.Name] {
				result = multierror.Append(result,
					fmt.Errorf("%w: duplicate term %q", ErrBadTermName, t.Name))
			}
			seen[t.Name] = true
		}
		if ref := t.Modifiers.Arg(ModPolicer); ref != "" && !policers[ref] {
			result = multierror.Append(result,
				fmt.Errorf("%w: term %s references undefined policer %q", ErrMatch, termLabel(t, i), ref))
		}
		if t.Inactive {
			continue
		}
		for j, earlier := range a.Terms[:i] {
			if earlier.Inactive {
				continue
			}
			if earlier.Covers(t) {
				result = multierror.Append(result,
					fmt.Errorf("term %s shadowed by term %s", termLabel(t, i), termLabel(earlier, j)))
				break
			}
		}
	}
	return result.ErrorOrNil()
}

func termLabel(t *Term, index int) string {
	if t.Name != "" {
		return fmt.Sprintf("%q", t.Name)
	}
	return fmt.Sprintf("#%d", index+1)
}

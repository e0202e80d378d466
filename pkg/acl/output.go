package acl

import "fmt"

// OutputOptions adjusts rendering across the dialects.
type OutputOptions struct {
	// Replace prepends the dialect's replace preamble: a replace: marker
	// for JunOS, a "no ..." declaration for the IOS family.
	Replace bool

	// Family overrides the ACL's address family in JunOS output.
	Family Family
}

// Output renders the ACL in the given dialect. Lines carry no trailing
// newline; callers join with "\n". A match or modifier the dialect cannot
// express fails the whole render.
func (a *ACL) Output(format Format, opts OutputOptions) ([]string, error) {
	switch format {
	case FormatJunos:
		return a.OutputJunos(opts)
	case FormatIOS:
		return a.OutputIOS(opts)
	case FormatIOSNamed:
		return a.OutputIOSNamed(opts)
	case FormatIOSXR:
		return a.OutputIOSXR(opts)
	case FormatIOSBrocade:
		return a.OutputBrocade(opts)
	}
	return nil, fmt.Errorf("%w: format %q", ErrVendorSupportLacking, format)
}

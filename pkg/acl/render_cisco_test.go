package acl

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOutputIOSNamedRoundTrip(t *testing.T) {
	input := `ip access-list extended foo
 permit tcp any host 10.0.0.1 eq 443
 deny ip any any`
	acl, err := ParseIOS(input)
	if err != nil {
		t.Fatal(err)
	}
	lines, err := acl.OutputIOSNamed(OutputOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(strings.Split(input, "\n"), lines); diff != "" {
		t.Errorf("render not byte-stable (-want +got):\n%s", diff)
	}
}

func TestOutputIOSClassic(t *testing.T) {
	acl, err := ParseIOS("! web\naccess-list 120 permit tcp any any eq 80")
	if err != nil {
		t.Fatal(err)
	}
	lines, err := acl.OutputIOS(OutputOptions{Replace: true})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"! web",
		"no access-list 120",
		"access-list 120 permit tcp any any eq 80",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestOutputIOSClassicNumberValidation(t *testing.T) {
	for name, ok := range map[string]bool{
		"100": true, "199": true, "2000": true, "2699": true,
		"99": false, "200": false, "1999": false, "2700": false, "edge": false,
	} {
		acl := &ACL{Name: name, Terms: []*Term{NewTerm()}}
		_, err := acl.OutputIOS(OutputOptions{})
		if ok && err != nil {
			t.Errorf("%s: unexpected error %v", name, err)
		}
		if !ok && !errors.Is(err, ErrBadACLName) {
			t.Errorf("%s: got %v, want %v", name, err, ErrBadACLName)
		}
	}
}

func TestOutputIOSCartesianExpansion(t *testing.T) {
	term := NewTerm()
	if err := term.Match.SetValues(MatchKey{Kind: MatchProtocol}, "tcp", "udp"); err != nil {
		t.Fatal(err)
	}
	if err := term.Match.SetAddresses(MatchKey{Kind: MatchSourceAddress},
		MustParseTIP("10.0.0.0/8"), MustParseTIP("192.168.0.0/16")); err != nil {
		t.Fatal(err)
	}
	if err := term.Match.SetValues(MatchKey{Kind: MatchDestinationPort}, "80", "443"); err != nil {
		t.Fatal(err)
	}
	acl := &ACL{Name: "130", Terms: []*Term{term}}

	lines, err := acl.OutputIOS(OutputOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 8 {
		t.Fatalf("expected 8 clauses, got %d:\n%s", len(lines), strings.Join(lines, "\n"))
	}
	if lines[0] != "access-list 130 permit tcp 10.0.0.0 0.255.255.255 any eq 80" {
		t.Errorf("first clause = %q", lines[0])
	}
	if lines[7] != "access-list 130 permit udp 192.168.0.0 0.0.255.255 any eq 443" {
		t.Errorf("last clause = %q", lines[7])
	}
}

func TestOutputIOSTrailerOrder(t *testing.T) {
	term := NewTerm()
	if err := term.Match.SetValues(MatchKey{Kind: MatchProtocol}, "tcp"); err != nil {
		t.Fatal(err)
	}
	if err := term.Match.SetNames(MatchKey{Kind: MatchTCPFlags}, tcpFlagsEstablished); err != nil {
		t.Fatal(err)
	}
	if err := term.Match.SetNames(MatchKey{Kind: MatchPrecedence}, "critical"); err != nil {
		t.Fatal(err)
	}
	if err := term.Match.SetValues(MatchKey{Kind: MatchDSCP}, "ef"); err != nil {
		t.Fatal(err)
	}
	if err := term.Modifiers.Set(ModSyslog, ""); err != nil {
		t.Fatal(err)
	}
	acl := &ACL{Name: "f", Terms: []*Term{term}}

	lines, err := acl.OutputIOSNamed(OutputOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if lines[1] != " permit tcp any any established precedence critical dscp 46 log" {
		t.Errorf("clause = %q", lines[1])
	}
}

func TestOutputIOSICMP(t *testing.T) {
	term := NewTerm()
	if err := term.Match.SetValues(MatchKey{Kind: MatchProtocol}, "icmp"); err != nil {
		t.Fatal(err)
	}
	if err := term.Match.SetSpans(MatchKey{Kind: MatchICMPType}, Scalar(3)); err != nil {
		t.Fatal(err)
	}
	if err := term.Match.SetSpans(MatchKey{Kind: MatchICMPCode}, Scalar(1), Scalar(3)); err != nil {
		t.Fatal(err)
	}
	acl := &ACL{Name: "f", Terms: []*Term{term}}

	lines, err := acl.OutputIOSNamed(OutputOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"ip access-list extended f",
		" permit icmp any any 3 1",
		" permit icmp any any 3 3",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestOutputIOSXR(t *testing.T) {
	accept := NewTerm()
	discard := NewTerm()
	discard.Action = Action{Kind: ActionDiscard}
	acl := &ACL{Name: "xr-demo", Terms: []*Term{accept, discard}}

	lines, err := acl.OutputIOSXR(OutputOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"ipv4 access-list xr-demo",
		" 10 permit ipv4 any any",
		" 20 deny ipv4 any any",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestOutputIOSXRSequenceNumbers(t *testing.T) {
	named := func(name string) *Term {
		term := NewTerm()
		if err := term.SetName(name); err != nil {
			t.Fatal(err)
		}
		return term
	}
	acl := &ACL{Name: "seq", Terms: []*Term{named("100"), NewTerm(), named("5")}}

	lines, err := acl.OutputIOSXR(OutputOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"ipv4 access-list seq",
		" 100 permit ipv4 any any",
		" 110 permit ipv4 any any",
		" 5 permit ipv4 any any",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestOutputIOSXRRejectsNonNumericTerms(t *testing.T) {
	acl := &ACL{Name: "seq", Terms: []*Term{{Name: "t1", Match: NewMatches(), Modifiers: NewModifiers()}}}
	if _, err := acl.OutputIOSXR(OutputOptions{}); !errors.Is(err, ErrBadTermName) {
		t.Errorf("got %v, want %v", err, ErrBadTermName)
	}
}

func TestOutputIOSXRRejectsMultiClauseTerms(t *testing.T) {
	term := NewTerm()
	if err := term.Match.SetValues(MatchKey{Kind: MatchProtocol}, "tcp", "udp"); err != nil {
		t.Fatal(err)
	}
	acl := &ACL{Name: "seq", Terms: []*Term{term}}
	if _, err := acl.OutputIOSXR(OutputOptions{}); !errors.Is(err, ErrVendorSupportLacking) {
		t.Errorf("got %v, want %v", err, ErrVendorSupportLacking)
	}
}

func TestOutputBrocade(t *testing.T) {
	acl, err := ParseIOS("ip access-list extended rack\n remark noisy\n permit udp any any eq 161\nip rebind-acl rack")
	if err != nil {
		t.Fatal(err)
	}
	lines, err := acl.OutputBrocade(OutputOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"ip access-list extended rack",
		" permit udp any any eq 161",
		"ip rebind-acl rack",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	acl.ReceiveACL = true
	lines, err = acl.OutputBrocade(OutputOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if lines[len(lines)-1] != "ip rebind-receive-acl rack" {
		t.Errorf("rebind line = %q", lines[len(lines)-1])
	}
}

func TestOutputIOSVendorGaps(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T) *Term
	}{
		{"inactive term", func(t *testing.T) *Term {
			term := NewTerm()
			term.Inactive = true
			return term
		}},
		{"negated address", func(t *testing.T) *Term {
			term := NewTerm()
			if err := term.Match.SetAddresses(MatchKey{Kind: MatchSourceAddress, Except: true},
				MustParseTIP("10.0.0.0/8")); err != nil {
				t.Fatal(err)
			}
			return term
		}},
		{"unsplit address", func(t *testing.T) *Term {
			term := NewTerm()
			if err := term.Match.SetAddresses(MatchKey{Kind: MatchAddress}, MustParseTIP("10.0.0.0/8")); err != nil {
				t.Fatal(err)
			}
			return term
		}},
		{"unsplit port", func(t *testing.T) *Term {
			term := NewTerm()
			if err := term.Match.SetSpans(MatchKey{Kind: MatchPort}, Scalar(80)); err != nil {
				t.Fatal(err)
			}
			return term
		}},
		{"prefix list", func(t *testing.T) *Term {
			term := NewTerm()
			if err := term.Match.SetNames(MatchKey{Kind: MatchSourcePrefixList}, "peers"); err != nil {
				t.Fatal(err)
			}
			return term
		}},
		{"arbitrary tcp flags", func(t *testing.T) *Term {
			term := NewTerm()
			if err := term.Match.SetNames(MatchKey{Kind: MatchTCPFlags}, "syn"); err != nil {
				t.Fatal(err)
			}
			return term
		}},
		{"count modifier", func(t *testing.T) *Term {
			term := NewTerm()
			if err := term.Modifiers.Set(ModCount, "c"); err != nil {
				t.Fatal(err)
			}
			return term
		}},
		{"icmp code without type", func(t *testing.T) *Term {
			term := NewTerm()
			if err := term.Match.SetSpans(MatchKey{Kind: MatchICMPCode}, Scalar(1)); err != nil {
				t.Fatal(err)
			}
			return term
		}},
		{"reject with reason", func(t *testing.T) *Term {
			term := NewTerm()
			term.Action = Action{Kind: ActionReject, Arg: "tcp-reset"}
			return term
		}},
		{"next term", func(t *testing.T) *Term {
			term := NewTerm()
			term.Action = Action{Kind: ActionNextTerm}
			return term
		}},
		{"routing instance", func(t *testing.T) *Term {
			term := NewTerm()
			term.Action = Action{Kind: ActionRoutingInstance, Arg: "dirty"}
			return term
		}},
	}
	for _, tt := range tests {
		acl := &ACL{Name: "f", Terms: []*Term{tt.build(t)}}
		_, err := acl.OutputIOSNamed(OutputOptions{})
		if !errors.Is(err, ErrVendorSupportLacking) {
			t.Errorf("%s: got %v, want %v", tt.name, err, ErrVendorSupportLacking)
		}
	}
}

func TestOutputIOSRejectsACLLevelFeatures(t *testing.T) {
	acl := &ACL{Name: "f", Family: FamilyInet6, Terms: []*Term{NewTerm()}}
	if _, err := acl.OutputIOSNamed(OutputOptions{}); !errors.Is(err, ErrVendorSupportLacking) {
		t.Errorf("inet6: got %v", err)
	}

	acl = &ACL{Name: "f", Terms: []*Term{NewTerm()}, Policers: []Policer{{Name: "p"}}}
	if _, err := acl.OutputIOSNamed(OutputOptions{}); !errors.Is(err, ErrVendorSupportLacking) {
		t.Errorf("policers: got %v", err)
	}

	acl = &ACL{Terms: []*Term{NewTerm()}}
	if _, err := acl.OutputIOSNamed(OutputOptions{}); !errors.Is(err, ErrMissingACLName) {
		t.Errorf("unnamed: got %v", err)
	}
}

func TestOutputDispatch(t *testing.T) {
	acl, err := ParseIOS("ip access-list extended foo\n permit ip any any")
	if err != nil {
		t.Fatal(err)
	}
	direct, err := acl.OutputIOSNamed(OutputOptions{})
	if err != nil {
		t.Fatal(err)
	}
	dispatched, err := acl.Output(acl.Format, OutputOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(direct, dispatched); diff != "" {
		t.Errorf("dispatch mismatch (-direct +dispatched):\n%s", diff)
	}

	if _, err := acl.Output(Format("netscreen"), OutputOptions{}); !errors.Is(err, ErrVendorSupportLacking) {
		t.Errorf("unknown format: got %v", err)
	}
}

package acl

import (
	"strings"
	"testing"
)

func TestParseRateLimit(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"32000", 32000},
		{"32k", 32000},
		{"25m", 25000000},
		{"2g", 2000000000},
		{"0", 0},
	}
	for _, tt := range tests {
		got, err := ParseRateLimit(tt.in)
		if err != nil {
			t.Errorf("ParseRateLimit(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRateLimit(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}

	for _, in := range []string{"", "k", "fast", "-5k"} {
		if _, err := ParseRateLimit(in); err == nil {
			t.Errorf("ParseRateLimit(%q) should fail", in)
		}
	}
}

func TestFormatRateLimit(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{32000, "32k"},
		{25000000, "25m"},
		{2000000000, "2g"},
		{1500000, "1500k"},
		{1234, "1234"},
		{0, "0"},
	}
	for _, tt := range tests {
		if got := FormatRateLimit(tt.in); got != tt.want {
			t.Errorf("FormatRateLimit(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRateLimitRoundTrip(t *testing.T) {
	for _, in := range []string{"32k", "25m", "2g", "1500k", "999"} {
		n, err := ParseRateLimit(in)
		if err != nil {
			t.Fatalf("ParseRateLimit(%q): %v", in, err)
		}
		if got := FormatRateLimit(n); got != in {
			t.Errorf("round trip %q -> %d -> %q", in, n, got)
		}
	}
}

func TestParsePolicers(t *testing.T) {
	input := `policer rate-limit-icmp {
    if-exceeding {
        bandwidth-limit 32k;
        burst-size-limit 32k;
    }
    then discard;
}
policer shape-smtp {
    if-exceeding {
        bandwidth-limit 25m;
        burst-size-limit 1500k;
    }
    then {
        loss-priority high;
        out-of-profile;
    }
}`
	group, err := ParsePolicers(input)
	if err != nil {
		t.Fatal(err)
	}
	if len(group.Policers) != 2 {
		t.Fatalf("expected 2 policers, got %d", len(group.Policers))
	}

	p := group.Policers[0]
	if p.Name != "rate-limit-icmp" {
		t.Errorf("name = %q", p.Name)
	}
	if p.BandwidthLimit != 32000 || p.BurstSizeLimit != 32000 {
		t.Errorf("limits = %d/%d", p.BandwidthLimit, p.BurstSizeLimit)
	}
	if len(p.Actions) != 1 || p.Actions[0].Name != "discard" {
		t.Errorf("actions = %v", p.Actions)
	}

	p = group.Policers[1]
	if p.BandwidthLimit != 25000000 || p.BurstSizeLimit != 1500000 {
		t.Errorf("limits = %d/%d", p.BandwidthLimit, p.BurstSizeLimit)
	}
	if len(p.Actions) != 2 {
		t.Fatalf("actions = %v", p.Actions)
	}
	if p.Actions[0] != (PolicerAction{Name: "loss-priority", Arg: "high"}) {
		t.Errorf("actions[0] = %v", p.Actions[0])
	}
	if p.Actions[1] != (PolicerAction{Name: "out-of-profile"}) {
		t.Errorf("actions[1] = %v", p.Actions[1])
	}
}

func TestParsePolicersRejectsFilters(t *testing.T) {
	input := `firewall {
    filter f {
        term t {
            then accept;
        }
    }
}`
	if _, err := ParsePolicers(input); err == nil {
		t.Error("filter document should not parse as policers")
	}
	if _, err := ParsePolicers(""); err == nil {
		t.Error("empty document should not parse as policers")
	}
}

func TestPolicerGroupOutput(t *testing.T) {
	group := &PolicerGroup{Policers: []Policer{{
		Name:           "rate-limit-icmp",
		BandwidthLimit: 32000,
		BurstSizeLimit: 32000,
		Actions:        []PolicerAction{{Name: "discard"}},
	}}}

	want := `policer rate-limit-icmp {
    if-exceeding {
        bandwidth-limit 32k;
        burst-size-limit 32k;
    }
    then discard;
}`
	got := strings.Join(group.Output(), "\n")
	if got != want {
		t.Errorf("Output:\n%s\nwant:\n%s", got, want)
	}
}

func TestPolicerActionValidation(t *testing.T) {
	input := `policer p {
    then {
        loss-priority medium;
    }
}`
	if _, err := ParsePolicers(input); err == nil {
		t.Error("loss-priority medium should fail")
	}

	input = `policer p {
    then {
        shutdown;
    }
}`
	if _, err := ParsePolicers(input); err == nil {
		t.Error("unknown policer action should fail")
	}
}

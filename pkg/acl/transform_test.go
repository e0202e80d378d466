package acl

import "testing"

func TestStripComments(t *testing.T) {
	input := `! list note
access-list 110 permit tcp any any eq 80
access-list 110 remark the rest
access-list 110 deny ip any any`
	acl, err := ParseIOS(input)
	if err != nil {
		t.Fatal(err)
	}

	stripped := StripComments(acl)
	if len(stripped.Comments) != 0 {
		t.Errorf("acl comments = %q", stripped.Comments)
	}
	for i, term := range stripped.Terms {
		if len(term.Comments) != 0 {
			t.Errorf("term %d comments = %q", i, term.Comments)
		}
	}

	// The source ACL keeps its comments.
	if len(acl.Comments) != 1 {
		t.Errorf("original acl comments = %q", acl.Comments)
	}
	if len(acl.Terms[1].Comments) != 1 {
		t.Errorf("original term comments = %q", acl.Terms[1].Comments)
	}
}

func TestNameTerms(t *testing.T) {
	named := NewTerm()
	if err := named.SetName("keep"); err != nil {
		t.Fatal(err)
	}
	acl := &ACL{Name: "f", Terms: []*Term{named, NewTerm(), NewTerm()}}

	out := NameTerms(acl)
	want := []string{"keep", "T2", "T3"}
	for i, term := range out.Terms {
		if term.Name != want[i] {
			t.Errorf("term %d name = %q, want %q", i, term.Name, want[i])
		}
	}
	if acl.Terms[1].Name != "" {
		t.Errorf("original term renamed to %q", acl.Terms[1].Name)
	}
}

package acl

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
)

func TestValidateClean(t *testing.T) {
	assert := assert.New(t)

	input := `firewall {
    filter clean {
        term ssh {
            from {
                protocol tcp;
                destination-port 22;
            }
            then {
                policer slow;
                accept;
            }
        }
        term rest {
            then reject;
        }
    }
    policer slow {
        if-exceeding {
            bandwidth-limit 1m;
        }
        then discard;
    }
}`
	acl, err := ParseJunos(input)
	assert.NoError(err)
	assert.NoError(acl.Validate())
}

func TestValidateAggregatesFindings(t *testing.T) {
	assert := assert.New(t)

	dup1 := buildTerm(t, withSpans(MatchKey{Kind: MatchDestinationPort}, Scalar(22)))
	assert.NoError(dup1.SetName("a"))
	dup2 := buildTerm(t, withSpans(MatchKey{Kind: MatchDestinationPort}, Scalar(22)))
	assert.NoError(dup2.SetName("a"))
	dangling := NewTerm()
	assert.NoError(dangling.SetName("b"))
	assert.NoError(dangling.Modifiers.Set(ModPolicer, "ghost"))
	assert.NoError(dangling.Match.SetSpans(MatchKey{Kind: MatchProtocol}, Scalar(17)))

	acl := &ACL{
		Name:     "f",
		Terms:    []*Term{dup1, dup2, dangling},
		Policers: []Policer{{Name: "p1"}, {Name: "p1"}},
	}

	err := acl.Validate()
	assert.Error(err)
	assert.ErrorIs(err, ErrBadTermName) // duplicate term and policer names
	assert.ErrorIs(err, ErrMatch)       // dangling policer reference

	var merr *multierror.Error
	assert.ErrorAs(err, &merr)
	// Duplicate policer, duplicate term, shadowed duplicate, dangling ref.
	assert.Len(merr.Errors, 4)
}

func TestValidateShadowing(t *testing.T) {
	assert := assert.New(t)

	broad := buildTerm(t, withSpans(MatchKey{Kind: MatchProtocol}, Scalar(6)))
	narrow := buildTerm(t,
		withSpans(MatchKey{Kind: MatchProtocol}, Scalar(6)),
		withSpans(MatchKey{Kind: MatchDestinationPort}, Scalar(443)),
	)

	acl := &ACL{Name: "f", Terms: []*Term{broad, narrow}}
	err := acl.Validate()
	assert.Error(err)
	assert.Contains(err.Error(), "shadowed")

	// Inactive terms neither shadow nor get flagged.
	broad.Inactive = true
	assert.NoError(acl.Validate())

	broad.Inactive = false
	narrow.Inactive = true
	assert.NoError(acl.Validate())
}

func TestValidateMissingName(t *testing.T) {
	assert := assert.New(t)
	err := (&ACL{}).Validate()
	assert.ErrorIs(err, ErrMissingACLName)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package authormatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	lenient := NewPolicy([]string{"gurjao"}, false)
	exact := NewPolicy([]string{"Carino Gurjao"}, true)

	tests := []struct {
		name    string
		policy  Policy
		authors []string
		want    bool
	}{
		{"unrelated authors rejected", lenient, []string{"John Smith", "Jane Doe"}, false},
		{"full name contains variant", lenient, []string{"Carino Gurjao"}, true},
		{"diacritics folded", lenient, []string{"Jane Doe", "Cariño Gurjão"}, true},
		{"initials contain variant", lenient, []string{"C Gurjao"}, true},
		{"exact match", exact, []string{"Carino Gurjao"}, true},
		{"exact rejects partial", exact, []string{"C Gurjao"}, false},
		{"empty list", lenient, nil, false},
		{"empty policy accepts all", NewPolicy(nil, false), []string{"John Smith"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Matches(tt.authors))
		})
	}
}

func TestNewPolicyDropsBlankVariants(t *testing.T) {
	p := NewPolicy([]string{" ", "..", "Gurjão"}, false)
	assert.Equal(t, []string{"gurjao"}, p.Variants)
	assert.True(t, p.Enabled())
	assert.False(t, NewPolicy([]string{""}, false).Enabled())
}

func TestMatchesString(t *testing.T) {
	p := NewPolicy([]string{"gurjao"}, false)
	assert.True(t, p.MatchesString("J Smith; C Gurjao"))
	assert.True(t, p.MatchesString("J Smith and C Gurjao"))
	assert.False(t, p.MatchesString("J Smith, J Doe"))
}

func TestSplitAuthors(t *testing.T) {
	assert.Equal(t, []string{"A One", "B Two", "C Three", "Dandy Four"},
		SplitAuthors("A One, B Two; C Three and Dandy Four"))
	assert.Empty(t, SplitAuthors("  "))
}

func TestDecide(t *testing.T) {
	p := NewPolicy([]string{"gurjao"}, false)
	tests := []struct {
		name      string
		candidate []string
		original  []string
		want      Decision
	}{
		{"candidate passes", []string{"C Gurjao"}, []string{"J Smith"}, Accept},
		{"candidate fails original passes", []string{"J Smith"}, []string{"C Gurjao"}, KeepOriginal},
		{"both fail", []string{"J Smith"}, []string{"J Doe"}, Reject},
		{"empty candidate judged by original", nil, []string{"C Gurjao"}, Accept},
		{"empty candidate and failing original", nil, []string{"J Doe"}, Reject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Decide(tt.candidate, tt.original))
		})
	}

	assert.Equal(t, Accept, NewPolicy(nil, false).Decide([]string{"anyone"}, nil))
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "accept", Accept.String())
	assert.Equal(t, "keep_original", KeepOriginal.String())
	assert.Equal(t, "reject", Reject.String())
}

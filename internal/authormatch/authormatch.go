// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package authormatch decides whether an author list belongs to the person
// whose publication list is being synced. It guards enrichment against
// candidate works that share a title but not an author.
package authormatch

import (
	"regexp"
	"strings"

	"github.com/pdiddy/scholar-sync/internal/normalize"
)

// Decision is the outcome of comparing an enrichment candidate and the
// original record against a Policy.
type Decision int

const (
	// Accept means the candidate passes; use the enrichment.
	Accept Decision = iota
	// KeepOriginal means the candidate fails but the original record passes.
	KeepOriginal
	// Reject means neither passes.
	Reject
)

func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case KeepOriginal:
		return "keep_original"
	case Reject:
		return "reject"
	default:
		return "unknown"
	}
}

// Policy holds the normalized name variants of the target author.
type Policy struct {
	Variants []string
	Exact    bool
}

// NewPolicy normalizes each variant once. Variants that normalize to the
// empty string are dropped.
func NewPolicy(variants []string, exact bool) Policy {
	p := Policy{Exact: exact}
	for _, v := range variants {
		if tok := normalize.NameToken(v); tok != "" {
			p.Variants = append(p.Variants, tok)
		}
	}
	return p
}

// Enabled reports whether the policy has any variant to check.
func (p Policy) Enabled() bool { return len(p.Variants) > 0 }

// Matches reports whether some author matches some variant. With Exact the
// normalized author must equal the variant; otherwise it must contain it.
// A policy without variants accepts everything.
func (p Policy) Matches(authors []string) bool {
	if !p.Enabled() {
		return true
	}
	for _, a := range authors {
		tok := normalize.NameToken(a)
		if tok == "" {
			continue
		}
		for _, v := range p.Variants {
			if p.Exact && tok == v {
				return true
			}
			if !p.Exact && strings.Contains(tok, v) {
				return true
			}
		}
	}
	return false
}

var authorSep = regexp.MustCompile(`(?i)\s*(?:,|;|\band\b)\s*`)

// MatchesString splits a formatted author line and applies Matches.
func (p Policy) MatchesString(raw string) bool {
	return p.Matches(SplitAuthors(raw))
}

// SplitAuthors splits an author line on commas, semicolons, and the word "and".
func SplitAuthors(raw string) []string {
	var out []string
	for _, part := range authorSep.Split(raw, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Decide compares the candidate authors from an enrichment lookup with the
// original record's authors. A candidate without authors is judged by the
// original list, since enrichment will not replace it.
func (p Policy) Decide(candidate, original []string) Decision {
	if !p.Enabled() {
		return Accept
	}
	if len(candidate) == 0 {
		candidate = original
	}
	if p.Matches(candidate) {
		return Accept
	}
	if p.Matches(original) {
		return KeepOriginal
	}
	return Reject
}

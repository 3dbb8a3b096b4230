// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize folds titles, names, and DOIs into the canonical forms
// used for identity keys and author matching.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// KeyOptions controls identity-key normalization.
type KeyOptions struct {
	// StripPunctuation drops every rune that is not a letter, digit, or space.
	StripPunctuation bool
}

// Fold decomposes s, removes combining marks, and case-folds the result, so
// "Gurjão" and "GURJAO" both become "gurjao".
func Fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return cases.Fold().String(folded)
}

// Key returns the identity key for a title. An empty key means the title
// cannot identify a record.
func Key(title string, opts KeyOptions) string {
	s := Fold(title)
	if opts.StripPunctuation {
		s = strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
				return ' '
			}
			return -1
		}, s)
	}
	return strings.Join(strings.Fields(s), " ")
}

// NameToken folds a person name and strips every non-alphanumeric rune:
// "Cariño Gurjão" becomes "carinogurjao".
func NameToken(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, Fold(name))
}

// doiPattern finds a DOI inside free text.
var doiPattern = regexp.MustCompile(`(?i)(10\.\d{4,9}/[-._;()/:A-Z0-9]+)`)

// doiPrefixes are resolver and label prefixes stripped from stored DOIs.
var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi.org/",
	"doi:",
}

// DOI returns the canonical form of a DOI: trimmed, lower-cased, and without
// a resolver URL or "doi:" label. Strings that carry no DOI return "".
func DOI(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range doiPrefixes {
		s = strings.TrimPrefix(s, p)
	}
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "10.") {
		return ""
	}
	return strings.TrimRight(s, ".,;")
}

// ExtractDOI finds the first DOI in text and returns it in canonical form.
func ExtractDOI(text string) string {
	m := doiPattern.FindString(text)
	if m == "" {
		return ""
	}
	return DOI(m)
}

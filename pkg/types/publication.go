// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures for scholar-sync: the
// publication record persisted in the curated YAML file and the run
// configuration passed from the CLI into every stage.
package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Publication is one scholarly work as stored in the curated publications file.
// Title is the only required field. Selected, Image, Description, and
// Highlights are curated by hand and survive every re-fetch; the remaining
// bibliographic fields are filled from Scholar and Crossref.
type Publication struct {
	// Title is the work's title as free text. Its normalized form is the identity key.
	Title string `json:"title" yaml:"title"`

	// Authors lists display names, either as a YAML sequence or a comma-joined string.
	Authors Authors `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Journal is the venue: journal, conference, or preprint server.
	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`

	// Venue is the legacy venue key some site templates read instead of journal.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	Volume string `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue  string `json:"issue,omitempty" yaml:"issue,omitempty"`
	Pages  string `json:"pages,omitempty" yaml:"pages,omitempty"`

	// Year is the publication year; zero means unknown.
	Year Year `json:"year,omitempty" yaml:"year,omitempty"`

	// DOI is the bare, lower-cased DOI without a resolver prefix.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// URL is a resolvable link to the work, preferably not a Scholar redirect.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Selected marks the work for the "selected publications" list.
	Selected Flag `json:"selected_publication" yaml:"selected_publication"`

	// Image is a thumbnail path or URL chosen by the curator.
	Image string `json:"image,omitempty" yaml:"image,omitempty"`

	// Description is free curator text shown alongside the entry.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Highlights are curator bullet points.
	Highlights []string `json:"highlights,omitempty" yaml:"highlights,omitempty"`

	// Extra holds every other key found in the file so hand-added fields
	// round-trip untouched.
	Extra map[string]any `json:"-" yaml:",inline"`
}

// legacySelectedKey is the dash-separated spelling older sync scripts wrote.
const legacySelectedKey = "selected-publication"

// UnmarshalYAML decodes a record and folds the legacy selected-publication key
// into Selected.
func (p *Publication) UnmarshalYAML(node *yaml.Node) error {
	type plain Publication
	var raw plain
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*p = Publication(raw)

	if v, ok := p.Extra[legacySelectedKey]; ok {
		if !p.Selected {
			if b, ok := flagValue(v); ok {
				p.Selected = Flag(b)
			}
		}
		delete(p.Extra, legacySelectedKey)
	}
	if len(p.Extra) == 0 {
		p.Extra = nil
	}
	return nil
}

// Authors is an ordered list of author display names. List records whether
// the names were read as a YAML sequence so they are written back the same way.
type Authors struct {
	Names []string
	List  bool
}

// truncationMarkers are the ellipsis tokens Scholar appends to long author lists.
var truncationMarkers = []string{"...", "…"}

// ParseAuthors splits a comma- or semicolon-separated author string, dropping
// empty parts and Scholar's truncation marker.
func ParseAuthors(s string) Authors {
	s = strings.ReplaceAll(s, ";", ",")
	var names []string
	for _, part := range strings.Split(s, ",") {
		name := cleanName(part)
		if name != "" {
			names = append(names, name)
		}
	}
	return Authors{Names: names}
}

// NewAuthorList returns Authors that serialize as a YAML sequence.
func NewAuthorList(names ...string) Authors {
	var cleaned []string
	for _, n := range names {
		if n = cleanName(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	return Authors{Names: cleaned, List: true}
}

func cleanName(s string) string {
	s = strings.TrimSpace(s)
	for _, m := range truncationMarkers {
		s = strings.TrimSpace(strings.ReplaceAll(s, m, ""))
	}
	return strings.Join(strings.Fields(s), " ")
}

// IsZero reports whether no author names are present. yaml omitempty uses it.
func (a Authors) IsZero() bool { return len(a.Names) == 0 }

// String joins the names with ", ".
func (a Authors) String() string { return strings.Join(a.Names, ", ") }

// MarshalYAML writes a sequence or a single string depending on List.
func (a Authors) MarshalYAML() (any, error) {
	if a.List {
		return a.Names, nil
	}
	return a.String(), nil
}

// UnmarshalYAML accepts either a sequence of names or one formatted string.
func (a *Authors) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			*a = Authors{}
			return nil
		}
		*a = ParseAuthors(node.Value)
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return fmt.Errorf("decoding author list: %w", err)
		}
		*a = NewAuthorList(names...)
		return nil
	default:
		return fmt.Errorf("line %d: authors must be a string or a list", node.Line)
	}
}

// MarshalJSON writes the names as a JSON array.
func (a Authors) MarshalJSON() ([]byte, error) {
	if a.Names == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.Names)
}

// Year is a publication year. It decodes from integers and numeric strings;
// anything else reads as unknown (zero).
type Year int

// UnmarshalYAML tolerates quoted years and non-numeric placeholders.
func (y *Year) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: year must be a scalar", node.Line)
	}
	*y = ParseYear(node.Value)
	return nil
}

// ParseYear extracts a year from s, returning zero when s is not a number.
func ParseYear(s string) Year {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0
	}
	return Year(n)
}

// Flag is a boolean that also accepts the yes/no strings used by older files.
type Flag bool

// UnmarshalYAML decodes true/false, yes/no, y/n, on/off, and 1/0.
func (f *Flag) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: flag must be a scalar", node.Line)
	}
	if node.ShortTag() == "!!null" {
		*f = false
		return nil
	}
	b, ok := parseFlag(node.Value)
	if !ok {
		return fmt.Errorf("line %d: invalid flag value %q", node.Line, node.Value)
	}
	*f = Flag(b)
	return nil
}

func parseFlag(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "on", "1":
		return true, true
	case "false", "no", "n", "off", "0", "":
		return false, true
	default:
		return false, false
	}
}

func flagValue(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		return parseFlag(x)
	case int:
		return x != 0, true
	default:
		return false, false
	}
}

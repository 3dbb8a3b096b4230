// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export renders the curated publication list as CSL (Citation
// Style Language) items for Pandoc and reference managers.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scholar-sync/internal/normalize"
	"github.com/pdiddy/scholar-sync/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL format. The field names and
// structure follow the CSL-JSON/CSL-YAML schema.
type CSLItem struct {
	ID             string    `json:"id" yaml:"id"`
	Type           string    `json:"type" yaml:"type"`
	Title          string    `json:"title" yaml:"title"`
	Author         []CSLName `json:"author,omitempty" yaml:"author,omitempty"`
	ContainerTitle string    `json:"container-title,omitempty" yaml:"container-title,omitempty"`
	Volume         string    `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue          string    `json:"issue,omitempty" yaml:"issue,omitempty"`
	Page           string    `json:"page,omitempty" yaml:"page,omitempty"`
	Issued         *CSLDate  `json:"issued,omitempty" yaml:"issued,omitempty"`
	DOI            string    `json:"DOI,omitempty" yaml:"DOI,omitempty"`
	URL            string    `json:"URL,omitempty" yaml:"URL,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `json:"family,omitempty" yaml:"family,omitempty"`
	Given   string `json:"given,omitempty" yaml:"given,omitempty"`
	Literal string `json:"literal,omitempty" yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `json:"date-parts" yaml:"date-parts"`
}

// Items converts publications to CSL items with unique ids.
func Items(pubs []types.Publication) []CSLItem {
	items := make([]CSLItem, len(pubs))
	used := map[string]int{}
	for i, p := range pubs {
		item := toCSLItem(p)
		if n := used[item.ID]; n > 0 {
			used[item.ID]++
			item.ID = item.ID + string(rune('a'+n-1))
		} else {
			used[item.ID] = 1
		}
		items[i] = item
	}
	return items
}

// FormatCSL writes pubs as a CSL-YAML list to w.
func FormatCSL(pubs []types.Publication, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Items(pubs)); err != nil {
		return fmt.Errorf("encoding CSL-YAML: %w", err)
	}
	return enc.Close()
}

// FormatJSON writes pubs as a CSL-JSON array to w.
func FormatJSON(pubs []types.Publication, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Items(pubs)); err != nil {
		return fmt.Errorf("encoding CSL-JSON: %w", err)
	}
	return nil
}

func toCSLItem(p types.Publication) CSLItem {
	item := CSLItem{
		ID:             citationKey(p),
		Type:           "article-journal",
		Title:          p.Title,
		ContainerTitle: p.Journal,
		Volume:         p.Volume,
		Issue:          p.Issue,
		Page:           p.Pages,
		DOI:            normalize.DOI(p.DOI),
		URL:            p.URL,
	}
	if item.ContainerTitle == "" {
		item.ContainerTitle = p.Venue
	}
	if item.ContainerTitle == "" {
		item.Type = "article"
	}
	for _, a := range p.Authors.Names {
		if strings.EqualFold(a, "et al.") {
			continue
		}
		if n := parseAuthorName(a); n != (CSLName{}) {
			item.Author = append(item.Author, n)
		}
	}
	if p.Year > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{int(p.Year)}}}
	}
	return item
}

// citationKey builds a Pandoc-style key: first author's family name, year,
// and first title word, e.g. "gurjao2020pan".
func citationKey(p types.Publication) string {
	var b strings.Builder
	for _, a := range p.Authors.Names {
		n := parseAuthorName(a)
		family := n.Family
		if family == "" {
			family = n.Literal
		}
		if tok := normalize.NameToken(family); tok != "" {
			b.WriteString(tok)
			break
		}
	}
	if p.Year > 0 {
		b.WriteString(strconv.Itoa(int(p.Year)))
	}
	words := strings.Fields(normalize.Key(p.Title, normalize.KeyOptions{StripPunctuation: true}))
	if len(words) > 0 {
		b.WriteString(words[0])
	}
	if b.Len() == 0 {
		return "untitled"
	}
	return b.String()
}

// parseAuthorName splits a full name string into CSL family/given parts.
// It splits on the last space: everything before is given, the last token
// is family. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}

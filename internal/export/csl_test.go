// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pdiddy/scholar-sync/pkg/types"
)

func TestToCSLItemJournalArticle(t *testing.T) {
	p := types.Publication{
		Title:   "Pan-cancer analysis of whole genomes",
		Authors: types.ParseAuthors("Carino Gurjao, Jane Doe, et al."),
		Journal: "Nature",
		Volume:  "578",
		Issue:   "7793",
		Pages:   "82-93",
		Year:    2020,
		DOI:     "10.1038/S41586-020-1943-3",
	}

	item := toCSLItem(p)

	if item.Type != "article-journal" {
		t.Errorf("Type = %q, want %q", item.Type, "article-journal")
	}
	if item.ID != "gurjao2020pan" {
		t.Errorf("ID = %q, want %q", item.ID, "gurjao2020pan")
	}
	if item.DOI != "10.1038/s41586-020-1943-3" {
		t.Errorf("DOI = %q", item.DOI)
	}
	if len(item.Author) != 2 {
		t.Fatalf("len(Author) = %d, want 2", len(item.Author))
	}
	if item.Author[0].Family != "Gurjao" || item.Author[0].Given != "Carino" {
		t.Errorf("Author[0] = %+v", item.Author[0])
	}
	if item.Issued == nil || item.Issued.DateParts[0][0] != 2020 {
		t.Errorf("Issued year should be 2020")
	}
	if item.Page != "82-93" || item.ContainerTitle != "Nature" {
		t.Errorf("container/page = %q/%q", item.ContainerTitle, item.Page)
	}
}

func TestToCSLItemWithoutVenue(t *testing.T) {
	item := toCSLItem(types.Publication{Title: "Notes"})
	if item.Type != "article" {
		t.Errorf("Type = %q, want article", item.Type)
	}
	if item.Issued != nil {
		t.Errorf("Issued should be nil without a year")
	}
	if item.ID != "notes" {
		t.Errorf("ID = %q, want notes", item.ID)
	}
}

func TestItemsUniqueIDs(t *testing.T) {
	pubs := []types.Publication{
		{Title: "Signatures one", Authors: types.ParseAuthors("A Smith"), Year: 2020},
		{Title: "Signatures two", Authors: types.ParseAuthors("B Smith"), Year: 2020},
		{Title: "Signatures three", Authors: types.ParseAuthors("C Smith"), Year: 2020},
	}
	items := Items(pubs)
	want := []string{"smith2020signatures", "smith2020signaturesa", "smith2020signaturesb"}
	for i, w := range want {
		if items[i].ID != w {
			t.Errorf("items[%d].ID = %q, want %q", i, items[i].ID, w)
		}
	}
}

func TestParseAuthorName(t *testing.T) {
	tests := []struct {
		in   string
		want CSLName
	}{
		{"Carino Gurjao", CSLName{Given: "Carino", Family: "Gurjao"}},
		{"Jean Paul Sartre", CSLName{Given: "Jean Paul", Family: "Sartre"}},
		{"Consortium", CSLName{Literal: "Consortium"}},
		{"  ", CSLName{}},
	}
	for _, tt := range tests {
		if got := parseAuthorName(tt.in); got != tt.want {
			t.Errorf("parseAuthorName(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestFormatCSL(t *testing.T) {
	var buf bytes.Buffer
	pubs := []types.Publication{{Title: "Paper A", Journal: "Cell", Year: 2021, DOI: "10.1/a"}}
	if err := FormatCSL(pubs, &buf); err != nil {
		t.Fatalf("FormatCSL: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"id: 2021paper", "type: article-journal", "container-title: Cell", "DOI: 10.1/a", "date-parts:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	pubs := []types.Publication{{Title: "Paper A", Year: 2021, URL: "https://example.org/a"}}
	if err := FormatJSON(pubs, &buf); err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}
	var items []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &items); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(items) != 1 || items[0]["URL"] != "https://example.org/a" {
		t.Errorf("unexpected items: %v", items)
	}
	if _, ok := items[0]["issued"]; !ok {
		t.Errorf("issued missing")
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crossref

import (
	"strings"

	"github.com/agext/levenshtein"

	"github.com/pdiddy/scholar-sync/internal/normalize"
)

// Work is the subset of a Crossref work record used for enrichment.
type Work struct {
	DOI     string   `json:"doi,omitempty"`
	URL     string   `json:"url,omitempty"`
	Title   string   `json:"title,omitempty"`
	Journal string   `json:"journal,omitempty"`
	Volume  string   `json:"volume,omitempty"`
	Issue   string   `json:"issue,omitempty"`
	Pages   string   `json:"pages,omitempty"`
	Year    int      `json:"year,omitempty"`
	Authors []string `json:"authors,omitempty"`
	Type    string   `json:"type,omitempty"`
}

// BestMatch picks the work whose title is most similar to title. Similarity
// is the normalized Levenshtein ratio of the two identity keys; the best
// candidate is returned only if it reaches minSimilarity.
func BestMatch(title string, works []Work, minSimilarity float64) (Work, bool) {
	opts := normalize.KeyOptions{StripPunctuation: true}
	want := normalize.Key(title, opts)
	if want == "" {
		return Work{}, false
	}

	best, bestScore := -1, -1.0
	for i, w := range works {
		got := normalize.Key(w.Title, opts)
		if got == "" {
			continue
		}
		score := levenshtein.Similarity(want, got, nil)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore < minSimilarity {
		return Work{}, false
	}
	return works[best], true
}

// Crossref JSON structures.

type workResponse struct {
	Status  string   `json:"status"`
	Message *apiWork `json:"message"`
}

type searchResponse struct {
	Status  string `json:"status"`
	Message struct {
		TotalResults int       `json:"total-results"`
		Items        []apiWork `json:"items"`
	} `json:"message"`
}

type apiWork struct {
	DOI                 string      `json:"DOI"`
	URL                 string      `json:"URL"`
	Type                string      `json:"type"`
	Title               []string    `json:"title"`
	ContainerTitle      []string    `json:"container-title"`
	ShortContainerTitle []string    `json:"short-container-title"`
	Volume              string      `json:"volume"`
	Issue               string      `json:"issue"`
	Page                string      `json:"page"`
	Author              []apiAuthor `json:"author"`
	PublishedPrint      *apiDate    `json:"published-print"`
	PublishedOnline     *apiDate    `json:"published-online"`
	Issued              *apiDate    `json:"issued"`
}

type apiAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

type apiDate struct {
	DateParts [][]*int `json:"date-parts"`
}

func (d *apiDate) year() int {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 || d.DateParts[0][0] == nil {
		return 0
	}
	return *d.DateParts[0][0]
}

func (a apiAuthor) displayName() string {
	if a.Name != "" {
		return strings.TrimSpace(a.Name)
	}
	return strings.TrimSpace(strings.TrimSpace(a.Given) + " " + strings.TrimSpace(a.Family))
}

func (w apiWork) toWork() Work {
	out := Work{
		DOI:     normalize.DOI(w.DOI),
		URL:     strings.TrimSpace(w.URL),
		Title:   cleanText(first(w.Title)),
		Journal: cleanText(first(w.ContainerTitle)),
		Volume:  strings.TrimSpace(w.Volume),
		Issue:   strings.TrimSpace(w.Issue),
		Pages:   strings.TrimSpace(w.Page),
		Type:    w.Type,
	}
	if out.Journal == "" {
		out.Journal = cleanText(first(w.ShortContainerTitle))
	}
	for _, d := range []*apiDate{w.PublishedPrint, w.PublishedOnline, w.Issued} {
		if y := d.year(); y > 0 {
			out.Year = y
			break
		}
	}
	for _, a := range w.Author {
		if name := a.displayName(); name != "" {
			out.Authors = append(out.Authors, name)
		}
	}
	if out.URL == "" && out.DOI != "" {
		out.URL = "https://doi.org/" + out.DOI
	}
	return out
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scholar fetches an author's publication list from Google Scholar,
// either through SerpAPI or by reading the public profile page. Both
// backends page through results with a continuation token.
package scholar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pdiddy/scholar-sync/internal/normalize"
	"github.com/pdiddy/scholar-sync/pkg/types"
)

// DefaultMaxPages bounds pagination when no limit is configured.
const DefaultMaxPages = 10

// Entry is one raw row of a Scholar publication list.
type Entry struct {
	Title      string
	Authors    string // formatted author line, possibly truncated with "..."
	Venue      string // Scholar's publication string, e.g. "Nature 577 (7791), 1-10"
	Year       string
	Link       string // usually a Scholar citation page
	Resources  []string
	CitationID string
}

// Page is one page of results. An empty Next ends pagination.
type Page struct {
	Entries []Entry
	Next    string
}

// Source returns pages of an author's publications.
type Source interface {
	Name() string
	FetchPage(ctx context.Context, authorID, token string) (Page, error)
}

// NewSource builds the backend selected in cfg.
func NewSource(cfg types.Config, client *http.Client) (Source, error) {
	switch cfg.Scholar.Backend {
	case types.BackendSerpAPI, "":
		return &SerpAPISource{
			Client:    client,
			APIKey:    cfg.Scholar.APIKey,
			Sort:      cfg.Scholar.Sort,
			UserAgent: cfg.HTTP.UserAgent,
		}, nil
	case types.BackendProfile:
		return &ProfileSource{
			Client:    client,
			Sort:      cfg.Scholar.Sort,
			UserAgent: cfg.HTTP.UserAgent,
		}, nil
	default:
		return nil, fmt.Errorf("unknown scholar backend %q", cfg.Scholar.Backend)
	}
}

// FetchAll follows continuation tokens until a page has none or maxPages
// pages were read. If a page fails, the entries collected so far are
// returned together with the error.
func FetchAll(ctx context.Context, src Source, authorID string, maxPages int, logger *slog.Logger) ([]Entry, error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var all []Entry
	seen := map[string]bool{}
	token := ""
	for page := 1; page <= maxPages; page++ {
		p, err := src.FetchPage(ctx, authorID, token)
		if err != nil {
			return all, fmt.Errorf("%s page %d: %w", src.Name(), page, err)
		}
		all = append(all, p.Entries...)
		logger.Debug("fetched scholar page", "source", src.Name(), "page", page, "entries", len(p.Entries))

		if p.Next == "" || len(p.Entries) == 0 {
			return all, nil
		}
		if seen[p.Next] {
			logger.Warn("scholar pagination repeated a token, stopping", "source", src.Name(), "page", page)
			return all, nil
		}
		seen[p.Next] = true
		token = p.Next
	}
	logger.Warn("scholar pagination stopped at page limit", "source", src.Name(), "max_pages", maxPages)
	return all, nil
}

// Publications maps raw entries to publication records.
func Publications(entries []Entry) []types.Publication {
	out := make([]types.Publication, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Publication())
	}
	return out
}

// Publication maps a raw entry. A DOI found in the venue string or title
// becomes the URL; otherwise BestLink picks one.
func (e Entry) Publication() types.Publication {
	title := cleanText(e.Title)
	venue := cleanText(e.Venue)
	doi := normalize.ExtractDOI(venue + " " + title)

	url := BestLink(e)
	if doi != "" {
		url = "https://doi.org/" + doi
	}
	return types.Publication{
		Title:   title,
		Authors: types.ParseAuthors(cleanText(e.Authors)),
		Journal: venue,
		Year:    types.ParseYear(e.Year),
		DOI:     doi,
		URL:     url,
	}
}

// BestLink prefers the entry link unless it points back at Scholar, then the
// first resource that does not. It falls back to the Scholar link.
func BestLink(e Entry) string {
	if e.Link != "" && !isScholar(e.Link) {
		return e.Link
	}
	for _, r := range e.Resources {
		if r != "" && !isScholar(r) {
			return r
		}
	}
	return e.Link
}

func isScholar(u string) bool {
	return strings.Contains(strings.ToLower(u), "scholar.google")
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/scholar-sync/internal/httputil"
)

// profileBase is the public Scholar profile page. Declared as a var so tests
// can substitute an httptest server.
var profileBase = "https://scholar.google.com/citations"

// profilePageSize is the largest page the profile view serves.
const profilePageSize = 100

// ProfileSource reads the public profile page without an API key. The
// continuation token is the next cstart offset.
type ProfileSource struct {
	Client    *http.Client
	Sort      string // "pubdate" sorts by year; "" keeps citation order
	UserAgent string
}

// Name returns the backend identifier.
func (p *ProfileSource) Name() string { return "profile" }

// FetchPage requests one page of the profile's publication table.
func (p *ProfileSource) FetchPage(ctx context.Context, authorID, token string) (Page, error) {
	cstart := 0
	if token != "" {
		n, err := strconv.Atoi(token)
		if err != nil || n < 0 {
			return Page{}, fmt.Errorf("profile: bad continuation token %q", token)
		}
		cstart = n
	}

	params := url.Values{
		"user":     {authorID},
		"hl":       {"en"},
		"cstart":   {strconv.Itoa(cstart)},
		"pagesize": {strconv.Itoa(profilePageSize)},
	}
	if p.Sort != "" {
		params.Set("sortby", p.Sort)
	}

	var header http.Header
	if p.UserAgent != "" {
		header = http.Header{"User-Agent": {p.UserAgent}}
	}

	body, err := httputil.Get(ctx, p.Client, profileBase+"?"+params.Encode(), header)
	if err != nil {
		return Page{}, fmt.Errorf("profile request: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Page{}, fmt.Errorf("%w: parsing profile page: %v", httputil.ErrParse, err)
	}

	entries := parseProfileRows(doc)
	page := Page{Entries: entries}
	if len(entries) >= profilePageSize {
		page.Next = strconv.Itoa(cstart + len(entries))
	}
	return page, nil
}

// parseProfileRows extracts one Entry per row of the publication table.
func parseProfileRows(doc *goquery.Document) []Entry {
	var entries []Entry
	doc.Find("tr.gsc_a_tr").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("a.gsc_a_at").First()
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return
		}

		e := Entry{Title: title}
		if href, ok := link.Attr("href"); ok {
			e.Link = absoluteScholarURL(href)
			if u, err := url.Parse(href); err == nil {
				if c := u.Query().Get("citation_for_view"); c != "" {
					e.CitationID = c
				}
			}
		}

		gray := row.Find(".gsc_a_t .gs_gray")
		e.Authors = strings.TrimSpace(gray.Eq(0).Text())
		venue := gray.Eq(1).Clone()
		venue.Find(".gs_oph").Remove()
		e.Venue = strings.TrimSpace(venue.Text())

		e.Year = strings.TrimSpace(row.Find(".gsc_a_y span").First().Text())
		entries = append(entries, e)
	})
	return entries
}

// absoluteScholarURL resolves a relative profile link against scholar.google.com.
func absoluteScholarURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return "https://scholar.google.com" + href
}

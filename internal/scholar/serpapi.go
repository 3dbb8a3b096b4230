// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/scholar-sync/internal/httputil"
)

// serpAPIBase is the SerpAPI search endpoint. Declared as a var so tests can
// substitute an httptest server.
var serpAPIBase = "https://serpapi.com/search.json"

// SerpAPISource reads the Google Scholar author engine of SerpAPI.
type SerpAPISource struct {
	Client    *http.Client
	APIKey    string
	Sort      string // "pubdate" or "" for citation order
	UserAgent string
}

// Name returns the backend identifier.
func (s *SerpAPISource) Name() string { return "serpapi" }

// FetchPage requests one page. The token is the query string of the
// serpapi_pagination.next URL from the previous page; the API key is added
// again because SerpAPI omits it from that URL.
func (s *SerpAPISource) FetchPage(ctx context.Context, authorID, token string) (Page, error) {
	if s.APIKey == "" {
		return Page{}, fmt.Errorf("serpapi: missing API key")
	}

	var params url.Values
	if token == "" {
		params = url.Values{
			"engine":    {"google_scholar_author"},
			"author_id": {authorID},
			"hl":        {"en"},
			"num":       {"100"},
		}
		if s.Sort != "" {
			params.Set("sort", s.Sort)
		}
	} else {
		var err error
		params, err = url.ParseQuery(token)
		if err != nil {
			return Page{}, fmt.Errorf("serpapi: bad continuation token: %w", err)
		}
	}
	params.Set("api_key", s.APIKey)

	var header http.Header
	if s.UserAgent != "" {
		header = http.Header{"User-Agent": {s.UserAgent}}
	}

	body, err := httputil.Get(ctx, s.Client, serpAPIBase+"?"+params.Encode(), header)
	if err != nil {
		return Page{}, fmt.Errorf("serpapi request: %w", err)
	}

	var resp serpAPIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Page{}, fmt.Errorf("%w: parsing serpapi response: %v", httputil.ErrParse, err)
	}
	if resp.Error != "" {
		return Page{}, fmt.Errorf("%w: serpapi: %s", httputil.ErrStatus, resp.Error)
	}

	page := Page{Next: nextToken(resp.Pagination.Next)}
	for _, a := range resp.Articles {
		e := Entry{
			Title:      a.Title,
			Authors:    a.Authors,
			Venue:      a.Publication,
			Year:       string(a.Year),
			Link:       a.Link,
			CitationID: a.CitationID,
		}
		for _, r := range a.Resources {
			e.Resources = append(e.Resources, r.Link)
		}
		page.Entries = append(page.Entries, e)
	}
	return page, nil
}

// nextToken extracts the query string of a SerpAPI next-page URL.
func nextToken(next string) string {
	if next == "" {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil {
		if i := strings.Index(next, "?"); i >= 0 {
			return next[i+1:]
		}
		return ""
	}
	q := u.Query()
	q.Del("api_key")
	return q.Encode()
}

// SerpAPI JSON structures.

type serpAPIResponse struct {
	Error      string           `json:"error"`
	Articles   []serpAPIArticle `json:"articles"`
	Pagination struct {
		Next string `json:"next"`
	} `json:"serpapi_pagination"`
}

type serpAPIArticle struct {
	Title       string            `json:"title"`
	Link        string            `json:"link"`
	CitationID  string            `json:"citation_id"`
	Authors     string            `json:"authors"`
	Publication string            `json:"publication"`
	Year        flexString        `json:"year"`
	Resources   []serpAPIResource `json:"resources"`
}

type serpAPIResource struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// flexString decodes a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

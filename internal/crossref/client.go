// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crossref looks up bibliographic metadata in the Crossref REST API,
// either by DOI or by a bibliographic title query.
package crossref

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/scholar-sync/internal/httputil"
	"github.com/pdiddy/scholar-sync/internal/normalize"
)

// crossrefBase is the Crossref REST API root. Declared as a var so tests can
// substitute an httptest server; WithBaseURL overrides it per client.
var crossrefBase = "https://api.crossref.org"

const (
	// DefaultTimeout is the per-request timeout when no HTTP client is given.
	DefaultTimeout = 30 * time.Second

	// DefaultRows is the number of title-search candidates requested.
	DefaultRows = 5

	defaultUserAgent = "scholar-sync/0.1"
)

// Client queries Crossref. It makes exactly one request per call.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	mailto     string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom API root (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithMailto identifies the caller for Crossref's polite pool.
func WithMailto(email string) Option {
	return func(c *Client) { c.mailto = email }
}

// NewClient creates a Crossref client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    crossrefBase,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) header() http.Header {
	ua := c.userAgent
	if c.mailto != "" {
		ua += " (mailto:" + c.mailto + ")"
	}
	return http.Header{"User-Agent": {ua}}
}

func (c *Client) withMailto(params url.Values) url.Values {
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}
	return params
}

// LookupDOI fetches the work registered under doi. An unknown DOI returns an
// error wrapping httputil.ErrNotFound.
func (c *Client) LookupDOI(ctx context.Context, doi string) (Work, error) {
	d := normalize.DOI(doi)
	if d == "" {
		return Work{}, fmt.Errorf("invalid DOI %q", doi)
	}

	reqURL := c.baseURL + "/works/" + url.PathEscape(d)
	if q := c.withMailto(url.Values{}).Encode(); q != "" {
		reqURL += "?" + q
	}

	var resp workResponse
	if err := httputil.GetJSON(ctx, c.httpClient, reqURL, c.header(), &resp); err != nil {
		return Work{}, fmt.Errorf("crossref DOI lookup %s: %w", d, err)
	}
	if resp.Message == nil {
		return Work{}, fmt.Errorf("crossref DOI lookup %s: %w: empty message", d, httputil.ErrParse)
	}
	return resp.Message.toWork(), nil
}

// SearchTitle runs a bibliographic query for title and returns up to rows
// candidates in Crossref's relevance order. A positive year narrows the
// search to that publication year.
func (c *Client) SearchTitle(ctx context.Context, title string, year, rows int) ([]Work, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("empty title query")
	}
	if rows <= 0 {
		rows = DefaultRows
	}

	params := url.Values{
		"query.bibliographic": {title},
		"rows":                {strconv.Itoa(rows)},
	}
	if year > 0 {
		y := strconv.Itoa(year)
		params.Set("filter", "from-pub-date:"+y+",until-pub-date:"+y)
	}
	reqURL := c.baseURL + "/works?" + c.withMailto(params).Encode()

	var resp searchResponse
	if err := httputil.GetJSON(ctx, c.httpClient, reqURL, c.header(), &resp); err != nil {
		return nil, fmt.Errorf("crossref title search %q: %w", title, err)
	}

	works := make([]Work, 0, len(resp.Message.Items))
	for _, it := range resp.Message.Items {
		works = append(works, it.toWork())
	}
	return works, nil
}

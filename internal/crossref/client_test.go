// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crossref

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-sync/internal/httputil"
)

const workJSON = `{
  "DOI": "10.1038/S41586-020-1943-3",
  "URL": "http://dx.doi.org/10.1038/s41586-020-1943-3",
  "type": "journal-article",
  "title": ["Pan-cancer analysis of  whole genomes"],
  "container-title": ["Nature"],
  "volume": "578",
  "issue": "7793",
  "page": "82-93",
  "author": [
    {"given": "Carino", "family": "Gurjao"},
    {"name": "ICGC/TCGA Consortium"}
  ],
  "published-online": {"date-parts": [[2020, 2, 5]]},
  "issued": {"date-parts": [[2019]]}
}`

func TestLookupDOI(t *testing.T) {
	var gotPath, gotUA, gotMailto string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		gotMailto = r.URL.Query().Get("mailto")
		fmt.Fprintf(w, `{"status":"ok","message":%s}`, workJSON)
	}))
	defer ts.Close()

	c := NewClient(WithBaseURL(ts.URL), WithHTTPClient(ts.Client()),
		WithUserAgent("test/0.1"), WithMailto("lab@example.org"))
	w, err := c.LookupDOI(context.Background(), "https://doi.org/10.1038/S41586-020-1943-3")
	require.NoError(t, err)

	assert.Equal(t, "/works/10.1038/s41586-020-1943-3", gotPath)
	assert.Equal(t, "test/0.1 (mailto:lab@example.org)", gotUA)
	assert.Equal(t, "lab@example.org", gotMailto)

	assert.Equal(t, "10.1038/s41586-020-1943-3", w.DOI)
	assert.Equal(t, "Pan-cancer analysis of whole genomes", w.Title)
	assert.Equal(t, "Nature", w.Journal)
	assert.Equal(t, "578", w.Volume)
	assert.Equal(t, "7793", w.Issue)
	assert.Equal(t, "82-93", w.Pages)
	assert.Equal(t, 2020, w.Year)
	assert.Equal(t, []string{"Carino Gurjao", "ICGC/TCGA Consortium"}, w.Authors)
}

func TestLookupDOI_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Resource not found.", http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClient(WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))
	_, err := c.LookupDOI(context.Background(), "10.1/missing")
	require.Error(t, err)
	assert.True(t, httputil.IsNotFound(err))
}

func TestLookupDOI_Invalid(t *testing.T) {
	c := NewClient()
	_, err := c.LookupDOI(context.Background(), "not-a-doi")
	assert.Error(t, err)
}

func TestLookupDOI_BadJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"message": [}`)
	}))
	defer ts.Close()

	c := NewClient(WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))
	_, err := c.LookupDOI(context.Background(), "10.1/x")
	require.Error(t, err)
	assert.ErrorIs(t, err, httputil.ErrParse)
}

func TestSearchTitle(t *testing.T) {
	var gotQuery, gotRows, gotFilter string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/works", r.URL.Path)
		q := r.URL.Query()
		gotQuery = q.Get("query.bibliographic")
		gotRows = q.Get("rows")
		gotFilter = q.Get("filter")
		fmt.Fprintf(w, `{"status":"ok","message":{"total-results":2,"items":[%s,{"title":["Other"],"issued":{"date-parts":[[null]]}}]}}`, workJSON)
	}))
	defer ts.Close()

	c := NewClient(WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))
	works, err := c.SearchTitle(context.Background(), "Pan-cancer analysis of whole genomes", 2020, 3)
	require.NoError(t, err)

	assert.Equal(t, "Pan-cancer analysis of whole genomes", gotQuery)
	assert.Equal(t, "3", gotRows)
	assert.Equal(t, "from-pub-date:2020,until-pub-date:2020", gotFilter)
	require.Len(t, works, 2)
	assert.Equal(t, "Other", works[1].Title)
	assert.Equal(t, 0, works[1].Year)
}

func TestSearchTitle_NoYearNoFilter(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("filter"))
		assert.Equal(t, "5", r.URL.Query().Get("rows"))
		fmt.Fprint(w, `{"status":"ok","message":{"items":[]}}`)
	}))
	defer ts.Close()

	c := NewClient(WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))
	works, err := c.SearchTitle(context.Background(), "Anything", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, works)
}

func TestSearchTitle_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := NewClient(WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))
	_, err := c.SearchTitle(context.Background(), "Anything", 0, 5)
	require.Error(t, err)
	assert.Equal(t, "status", httputil.Kind(err))
}

func TestSearchTitle_Empty(t *testing.T) {
	_, err := NewClient().SearchTitle(context.Background(), "  ", 0, 5)
	assert.Error(t, err)
}

func TestDefaultBase(t *testing.T) {
	c := NewClient()
	assert.True(t, strings.HasPrefix(c.baseURL, "https://api.crossref.org"))
	assert.Equal(t, "http://x", NewClient(WithBaseURL("http://x/")).baseURL)
}

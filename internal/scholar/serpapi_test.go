// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-sync/internal/httputil"
)

func withSerpAPIBase(t *testing.T, u string) {
	t.Helper()
	orig := serpAPIBase
	serpAPIBase = u
	t.Cleanup(func() { serpAPIBase = orig })
}

func TestSerpAPIFetchAll(t *testing.T) {
	var queries []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		queries = append(queries, r.URL.RawQuery)
		assert.Equal(t, "secret", q.Get("api_key"))
		assert.Equal(t, "google_scholar_author", q.Get("engine"))
		assert.Equal(t, "m3rLfS4AAAAJ", q.Get("author_id"))

		if q.Get("cstart") == "" {
			assert.Equal(t, "pubdate", q.Get("sort"))
			fmt.Fprint(w, `{
  "articles": [
    {"title": "Paper A", "authors": "C Gurjao, J Doe", "publication": "Nature 1, 2020", "year": "2020",
     "link": "https://scholar.google.com/citations?view_op=view_citation&citation_for_view=x:1", "citation_id": "x:1"},
    {"title": "Paper B", "authors": "C Gurjao", "publication": "", "year": 2019,
     "link": "https://www.biorxiv.org/content/b"}
  ],
  "serpapi_pagination": {"next": "https://serpapi.com/search.json?author_id=m3rLfS4AAAAJ&cstart=100&engine=google_scholar_author&hl=en&num=100&sort=pubdate"}
}`)
			return
		}
		assert.Equal(t, "100", q.Get("cstart"))
		fmt.Fprint(w, `{"articles": [{"title": "Paper C", "year": ""}]}`)
	}))
	defer ts.Close()
	withSerpAPIBase(t, ts.URL)

	src := &SerpAPISource{Client: ts.Client(), APIKey: "secret", Sort: "pubdate"}
	got, err := FetchAll(context.Background(), src, "m3rLfS4AAAAJ", 10, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Len(t, queries, 2)

	assert.Equal(t, "Paper A", got[0].Title)
	assert.Equal(t, "x:1", got[0].CitationID)
	assert.Equal(t, "2019", got[1].Year)
	assert.Equal(t, "https://www.biorxiv.org/content/b", got[1].Publication().URL)
	assert.Equal(t, "Paper C", got[2].Title)
}

func TestSerpAPIErrorField(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"error": "Invalid API key. Your API key should be here: https://serpapi.com/manage-api-key"}`)
	}))
	defer ts.Close()
	withSerpAPIBase(t, ts.URL)

	src := &SerpAPISource{Client: ts.Client(), APIKey: "bad"}
	_, err := src.FetchPage(context.Background(), "x", "")
	require.Error(t, err)
	assert.Equal(t, "status", httputil.Kind(err))
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestSerpAPIHTTPErrorHidesKey(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()
	withSerpAPIBase(t, ts.URL)

	src := &SerpAPISource{Client: ts.Client(), APIKey: "topsecret"}
	_, err := src.FetchPage(context.Background(), "x", "")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "topsecret")
}

func TestSerpAPIMissingKey(t *testing.T) {
	_, err := (&SerpAPISource{}).FetchPage(context.Background(), "x", "")
	assert.Error(t, err)
}

func TestNextToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"https://serpapi.com/search.json?engine=google_scholar_author&cstart=20", "cstart=20&engine=google_scholar_author"},
		{"https://serpapi.com/search.json?api_key=k&cstart=20", "cstart=20"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, nextToken(tt.in))
		})
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-sync/internal/normalize"
	"github.com/pdiddy/scholar-sync/pkg/types"
)

func defaultOpts() Options {
	return Options{
		MatchDOI: true,
		Key:      normalize.KeyOptions{StripPunctuation: true},
	}
}

func keys(pubs []types.Publication, opts Options) []string {
	out := make([]string, len(pubs))
	for i, p := range pubs {
		out[i] = normalize.Key(p.Title, opts.Key)
	}
	return out
}

func findByTitle(t *testing.T, pubs []types.Publication, title string) types.Publication {
	t.Helper()
	for _, p := range pubs {
		if p.Title == title {
			return p
		}
	}
	t.Fatalf("publication %q not found", title)
	return types.Publication{}
}

func TestReconcile_CuratedFieldsSurvive(t *testing.T) {
	old := []types.Publication{{
		Title:    "Paper A",
		Selected: true,
		Image:    "a.png",
	}}
	fresh := []types.Publication{{
		Title:    "Paper A",
		Selected: false,
		Image:    "",
		DOI:      "10.1/x",
		Journal:  "Nature",
		Year:     2021,
	}}

	res := Reconcile(old, fresh, defaultOpts())
	require.Len(t, res.Publications, 1)
	got := res.Publications[0]
	assert.True(t, bool(got.Selected))
	assert.Equal(t, "a.png", got.Image)
	assert.Equal(t, "10.1/x", got.DOI)
	assert.Equal(t, "Nature", got.Journal)
	assert.Equal(t, types.Year(2021), got.Year)
	assert.Equal(t, 1, res.Stats.Updated)
	assert.Equal(t, 0, res.Stats.Added)
}

func TestReconcile_FillMissingFromStore(t *testing.T) {
	old := []types.Publication{{Title: "Paper B", DOI: "10.1/x"}}
	fresh := []types.Publication{{Title: "Paper B", Journal: "Cell"}}

	res := Reconcile(old, fresh, defaultOpts())
	require.Len(t, res.Publications, 1)
	assert.Equal(t, "10.1/x", res.Publications[0].DOI)
	assert.Equal(t, "Cell", res.Publications[0].Journal)
}

func TestReconcile_FreshValueWinsOverStored(t *testing.T) {
	old := []types.Publication{{Title: "Paper B", Journal: "bioRxiv", Year: 2019}}
	fresh := []types.Publication{{Title: "Paper B", Journal: "Cell", Year: 2020}}

	res := Reconcile(old, fresh, defaultOpts())
	require.Len(t, res.Publications, 1)
	assert.Equal(t, "Cell", res.Publications[0].Journal)
	assert.Equal(t, types.Year(2020), res.Publications[0].Year)
}

func TestReconcile_RetainsDisappeared(t *testing.T) {
	old := []types.Publication{
		{Title: "Paper C", Year: 2018},
		{Title: "Paper D", Year: 2020},
	}
	fresh := []types.Publication{{Title: "Paper D", Year: 2020}}

	res := Reconcile(old, fresh, defaultOpts())
	assert.Equal(t, []string{"paper d", "paper c"}, keys(res.Publications, defaultOpts()))
	assert.Equal(t, 1, res.Stats.Retained)
	assert.Equal(t, 0, res.Stats.Pruned)
}

func TestReconcile_Prune(t *testing.T) {
	old := []types.Publication{
		{Title: "Paper C", Year: 2018},
		{Title: "Paper D", Year: 2020},
	}
	fresh := []types.Publication{{Title: "Paper D", Year: 2020}}
	opts := defaultOpts()
	opts.Prune = true

	res := Reconcile(old, fresh, opts)
	assert.Equal(t, []string{"paper d"}, keys(res.Publications, opts))
	assert.Equal(t, 1, res.Stats.Pruned)
	assert.Equal(t, 0, res.Stats.Retained)
}

func TestReconcile_DuplicatesInFreshCollapse(t *testing.T) {
	fresh := []types.Publication{
		{Title: "ABC Study", Journal: "Science"},
		{Title: "abc   study", Year: 2022},
	}

	res := Reconcile(nil, fresh, defaultOpts())
	require.Len(t, res.Publications, 1)
	got := res.Publications[0]
	assert.Equal(t, "abc study", normalize.Key(got.Title, defaultOpts().Key))
	assert.Equal(t, "Science", got.Journal)
	assert.Equal(t, types.Year(2022), got.Year)
	assert.Equal(t, 1, res.Stats.Added)
}

func TestReconcile_DuplicatesInStoreLastWins(t *testing.T) {
	old := []types.Publication{
		{Title: "Paper E", Journal: "first"},
		{Title: "paper e", Journal: "second"},
	}

	res := Reconcile(old, nil, defaultOpts())
	require.Len(t, res.Publications, 1)
	assert.Equal(t, "second", res.Publications[0].Journal)
}

func TestReconcile_UntitledDropped(t *testing.T) {
	old := []types.Publication{{Title: "  ", Journal: "orphan"}}
	fresh := []types.Publication{{Title: "Paper F"}, {Title: ""}}

	res := Reconcile(old, fresh, defaultOpts())
	require.Len(t, res.Publications, 1)
	assert.Equal(t, 2, res.Stats.Untitled)
	assert.Len(t, res.Untitled, 2)
}

func TestReconcile_MatchByDOI(t *testing.T) {
	old := []types.Publication{{
		Title:    "A preprint title",
		DOI:      "10.1101/2020.01.01.123456",
		Selected: true,
		Image:    "p.png",
	}}
	fresh := []types.Publication{{
		Title: "The published title",
		DOI:   "https://doi.org/10.1101/2020.01.01.123456",
		Year:  2021,
	}}

	res := Reconcile(old, fresh, defaultOpts())
	require.Len(t, res.Publications, 1)
	got := res.Publications[0]
	assert.Equal(t, "The published title", got.Title)
	assert.True(t, bool(got.Selected))
	assert.Equal(t, "p.png", got.Image)
	assert.Equal(t, 1, res.Stats.Updated)
	assert.Equal(t, 0, res.Stats.Retained)
}

func TestReconcile_MatchByDOIDisabled(t *testing.T) {
	old := []types.Publication{{Title: "A preprint title", DOI: "10.1/x"}}
	fresh := []types.Publication{{Title: "The published title", DOI: "10.1/x"}}
	opts := defaultOpts()
	opts.MatchDOI = false

	res := Reconcile(old, fresh, opts)
	assert.Len(t, res.Publications, 2)
	assert.Equal(t, 1, res.Stats.Added)
	assert.Equal(t, 1, res.Stats.Retained)
}

func TestReconcile_PreservesExtraKeys(t *testing.T) {
	old := []types.Publication{{
		Title: "Paper G",
		Extra: map[string]any{"award": "Best Paper", "slides": ""},
	}}
	fresh := []types.Publication{{
		Title: "Paper G",
		Extra: map[string]any{"slides": "s.pdf"},
	}}

	res := Reconcile(old, fresh, defaultOpts())
	require.Len(t, res.Publications, 1)
	assert.Equal(t, map[string]any{"award": "Best Paper", "slides": "s.pdf"}, res.Publications[0].Extra)
}

func TestReconcile_SortsNewestFirst(t *testing.T) {
	fresh := []types.Publication{
		{Title: "Old", Year: 2015},
		{Title: "Undated"},
		{Title: "New", Year: 2023},
		{Title: "Mid one", Year: 2019},
		{Title: "Mid two", Year: 2019},
	}

	res := Reconcile(nil, fresh, defaultOpts())
	assert.Equal(t, []string{"new", "mid one", "mid two", "old", "undated"}, keys(res.Publications, defaultOpts()))
}

func TestReconcile_DoesNotMutateInputs(t *testing.T) {
	old := []types.Publication{{Title: "Paper H", Highlights: []string{"h1"}, Extra: map[string]any{"k": "v"}}}
	fresh := []types.Publication{{Title: "Paper H", Journal: "J"}}

	res := Reconcile(old, fresh, defaultOpts())
	res.Publications[0].Highlights[0] = "changed"
	res.Publications[0].Extra["k"] = "changed"

	assert.Equal(t, "h1", old[0].Highlights[0])
	assert.Equal(t, "v", old[0].Extra["k"])
	assert.Empty(t, fresh[0].Highlights)
}

func TestReconcile_Idempotent(t *testing.T) {
	old := []types.Publication{
		{Title: "Paper A", Selected: true, Image: "a.png", Year: 2020},
		{Title: "Paper C", Year: 2018, Description: "kept"},
	}
	fresh := []types.Publication{
		{Title: "Paper A", Journal: "Nature", Year: 2020, Authors: types.ParseAuthors("A One, B Two, C Three, D Four")},
		{Title: "Paper Z", Year: 2024},
	}
	opts := defaultOpts()
	opts.ShortenSelectedAuthors = 3

	first := Reconcile(old, fresh, opts)
	second := Reconcile(first.Publications, first.Publications, opts)
	assert.Equal(t, first.Publications, second.Publications)
	assert.Equal(t, 0, second.Stats.Added)
	assert.Equal(t, len(first.Publications), second.Stats.Updated)
}

func TestReconcile_Stats(t *testing.T) {
	old := []types.Publication{{Title: "Kept"}, {Title: "Matched"}}
	fresh := []types.Publication{{Title: "Matched"}, {Title: "New one"}, {Title: "New two"}}

	res := Reconcile(old, fresh, defaultOpts())
	assert.Equal(t, Stats{
		Existing: 2,
		Fetched:  3,
		Added:    2,
		Updated:  1,
		Retained: 1,
		Total:    4,
	}, res.Stats)
}

func TestShortenAuthors(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		max  int
		want []string
	}{
		{"short list untouched", []string{"A", "B"}, 3, []string{"A", "B"}},
		{"exact length untouched", []string{"A", "B", "C"}, 3, []string{"A", "B", "C"}},
		{"long list truncated", []string{"A", "B", "C", "D", "E"}, 3, []string{"A", "B", "C", "et al."}},
		{"already shortened", []string{"A", "B", "C", "et al."}, 3, []string{"A", "B", "C", "et al."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShortenAuthors(types.Authors{Names: tt.in}, tt.max)
			assert.Equal(t, tt.want, got.Names)
		})
	}
}

func TestReconcile_ShortensOnlySelected(t *testing.T) {
	authors := types.NewAuthorList("A", "B", "C", "D")
	fresh := []types.Publication{
		{Title: "Selected", Selected: true, Authors: authors},
		{Title: "Other", Authors: authors},
	}
	opts := defaultOpts()
	opts.ShortenSelectedAuthors = 2

	res := Reconcile(nil, fresh, opts)
	assert.Equal(t, []string{"A", "B", "et al."}, findByTitle(t, res.Publications, "Selected").Authors.Names)
	assert.Equal(t, []string{"A", "B", "C", "D"}, findByTitle(t, res.Publications, "Other").Authors.Names)
}

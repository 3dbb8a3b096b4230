// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile merges a freshly fetched publication list into the
// curated list from the previous run. Records are identified by the
// normalized title; curated fields on stored records always win, and
// bibliographic fields are only filled where the fresh record is empty.
package reconcile

import (
	"sort"

	"github.com/pdiddy/scholar-sync/internal/normalize"
	"github.com/pdiddy/scholar-sync/pkg/types"
)

// etAl terminates a shortened author list.
const etAl = "et al."

// Options controls a reconciliation run.
type Options struct {
	// Prune drops stored records whose key is absent from the fresh list.
	Prune bool

	// MatchDOI matches a fresh record to a stored one by DOI when the title
	// key finds nothing. The merged record is re-keyed by the fresh title.
	MatchDOI bool

	// Key configures identity-key normalization.
	Key normalize.KeyOptions

	// ShortenSelectedAuthors truncates the author list of selected records
	// to this many names followed by "et al."; 0 disables.
	ShortenSelectedAuthors int
}

// Stats counts what a reconciliation did.
type Stats struct {
	Existing int // stored records read
	Fetched  int // fresh records read
	Added    int // fresh keys not present in the store
	Updated  int // stored keys matched by a fresh record
	Retained int // stored keys absent from the fresh list and kept
	Pruned   int // stored keys absent from the fresh list and dropped
	Untitled int // records dropped because they have no title
	Total    int // records in the output
}

// Result is the reconciled collection plus bookkeeping.
type Result struct {
	Publications []types.Publication
	Stats        Stats

	// Untitled holds the records that could not be keyed, for the caller to log.
	Untitled []types.Publication
}

// Reconcile merges fresh into old. Neither input is modified.
func Reconcile(old, fresh []types.Publication, opts Options) Result {
	res := Result{Stats: Stats{Existing: len(old), Fetched: len(fresh)}}
	idx := newIndex()

	for _, o := range old {
		key := normalize.Key(o.Title, opts.Key)
		if key == "" {
			res.Untitled = append(res.Untitled, o)
			continue
		}
		idx.put(key, clonePublication(o), true)
	}

	for _, n := range fresh {
		key := normalize.Key(n.Title, opts.Key)
		if key == "" {
			res.Untitled = append(res.Untitled, n)
			continue
		}

		matchKey := key
		if !idx.has(key) && opts.MatchDOI {
			if k, ok := idx.keyForDOI(n.DOI); ok {
				matchKey = k
			}
		}

		e, ok := idx.entries[matchKey]
		if !ok {
			idx.put(key, clonePublication(n), false)
			res.Stats.Added++
			continue
		}

		e.pub = Merge(e.pub, n)
		if e.fromOld && !e.touched {
			res.Stats.Updated++
		}
		e.touched = true
		if matchKey != key {
			idx.rekey(matchKey, key)
		}
		idx.registerDOI(key, e.pub.DOI)
	}

	out := make([]types.Publication, 0, len(idx.order))
	for _, key := range idx.order {
		e := idx.entries[key]
		if e.fromOld && !e.touched {
			if opts.Prune {
				res.Stats.Pruned++
				continue
			}
			res.Stats.Retained++
		}
		p := e.pub
		if opts.ShortenSelectedAuthors > 0 && bool(p.Selected) {
			p.Authors = ShortenAuthors(p.Authors, opts.ShortenSelectedAuthors)
		}
		out = append(out, p)
	}

	SortByYear(out)
	res.Publications = out
	res.Stats.Untitled = len(res.Untitled)
	res.Stats.Total = len(out)
	return res
}

// Merge combines a stored record with a fresh one for the same work. The
// result starts from fresh; curated fields that are non-empty on stored
// overwrite it, and every other field is filled from stored only where
// fresh is empty.
func Merge(stored, fresh types.Publication) types.Publication {
	out := clonePublication(fresh)
	CopyCurated(&out, stored)
	FillMissing(&out, stored)
	return out
}

// CopyCurated copies each non-empty curated field of src onto dst,
// overwriting whatever dst holds.
func CopyCurated(dst *types.Publication, src types.Publication) {
	if src.Selected {
		dst.Selected = true
	}
	if src.Image != "" {
		dst.Image = src.Image
	}
	if src.Description != "" {
		dst.Description = src.Description
	}
	if len(src.Highlights) > 0 {
		dst.Highlights = append([]string(nil), src.Highlights...)
	}
}

// FillMissing copies each bibliographic field and extra key of src onto dst
// only where dst is empty. It never overwrites a present value.
func FillMissing(dst *types.Publication, src types.Publication) {
	if dst.Authors.IsZero() && !src.Authors.IsZero() {
		dst.Authors = types.Authors{
			Names: append([]string(nil), src.Authors.Names...),
			List:  src.Authors.List,
		}
	}
	fillString(&dst.Journal, src.Journal)
	fillString(&dst.Venue, src.Venue)
	fillString(&dst.Volume, src.Volume)
	fillString(&dst.Issue, src.Issue)
	fillString(&dst.Pages, src.Pages)
	fillString(&dst.DOI, src.DOI)
	fillString(&dst.URL, src.URL)
	if dst.Year == 0 {
		dst.Year = src.Year
	}
	for k, v := range src.Extra {
		if isEmptyValue(v) {
			continue
		}
		if cur, ok := dst.Extra[k]; ok && !isEmptyValue(cur) {
			continue
		}
		if dst.Extra == nil {
			dst.Extra = make(map[string]any)
		}
		dst.Extra[k] = v
	}
}

func fillString(dst *string, src string) {
	if *dst == "" && src != "" {
		*dst = src
	}
}

func isEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	default:
		return false
	}
}

// ShortenAuthors keeps the first max names and appends "et al." when the
// list is longer. Shortening an already shortened list is a no-op.
func ShortenAuthors(a types.Authors, max int) types.Authors {
	names := a.Names
	if n := len(names); n > 0 && names[n-1] == etAl {
		names = names[:n-1]
	}
	if len(names) <= max {
		return a
	}
	short := make([]string, 0, max+1)
	short = append(short, names[:max]...)
	short = append(short, etAl)
	return types.Authors{Names: short, List: a.List}
}

// SortByYear orders publications newest first. Records without a year sort
// last; ties keep their relative order.
func SortByYear(pubs []types.Publication) {
	sort.SliceStable(pubs, func(i, j int) bool {
		return pubs[i].Year > pubs[j].Year
	})
}

func clonePublication(p types.Publication) types.Publication {
	out := p
	if p.Authors.Names != nil {
		out.Authors.Names = append([]string(nil), p.Authors.Names...)
	}
	if p.Highlights != nil {
		out.Highlights = append([]string(nil), p.Highlights...)
	}
	if p.Extra != nil {
		out.Extra = make(map[string]any, len(p.Extra))
		for k, v := range p.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

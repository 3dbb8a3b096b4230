// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich fills missing bibliographic fields of fetched publications
// from Crossref. Each record is looked up by DOI first and by title second;
// a failed lookup leaves the record as it was and never aborts the batch.
package enrich

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/scholar-sync/internal/authormatch"
	"github.com/pdiddy/scholar-sync/internal/cache"
	"github.com/pdiddy/scholar-sync/internal/crossref"
	"github.com/pdiddy/scholar-sync/internal/httputil"
	"github.com/pdiddy/scholar-sync/internal/normalize"
	"github.com/pdiddy/scholar-sync/pkg/types"
)

// Lookup is the enrichment source. *crossref.Client implements it.
type Lookup interface {
	LookupDOI(ctx context.Context, doi string) (crossref.Work, error)
	SearchTitle(ctx context.Context, title string, year, rows int) ([]crossref.Work, error)
}

// Status classifies what Enrich did with one record.
type Status string

const (
	StatusEnriched     Status = "enriched"
	StatusNoMatch      Status = "no_match"
	StatusFailed       Status = "failed"
	StatusKeptOriginal Status = "kept_original"
	StatusRejected     Status = "rejected"
)

// Outcome is the result of enriching one record.
type Outcome struct {
	Publication types.Publication
	Status      Status

	// Keep is false only when a strict author policy rejected the record.
	Keep bool

	// Via is "doi" or "title" when a candidate work was found.
	Via string

	// Err is the lookup failure behind StatusFailed.
	Err error
}

// Stats counts outcomes across a batch.
type Stats struct {
	Processed    int
	Enriched     int
	NoMatch      int
	Failed       int
	KeptOriginal int
	Rejected     int
	Dropped      int
	CacheHits    int

	// FailuresByKind counts failed lookups by httputil.Kind.
	FailuresByKind map[string]int
}

// Options tunes the enricher.
type Options struct {
	// Delay is the minimum pause between two network calls.
	Delay         time.Duration
	Rows          int
	MinSimilarity float64
	Policy        authormatch.Policy
	Strictness    types.Strictness
	CacheMaxAge   time.Duration
}

// OptionsFromConfig builds Options from the enrichment configuration.
func OptionsFromConfig(cfg types.EnrichConfig) Options {
	return Options{
		Delay:         cfg.Delay,
		Rows:          cfg.Rows,
		MinSimilarity: cfg.MinSimilarity,
		Policy:        authormatch.NewPolicy(cfg.AuthorVariants, cfg.ExactNames),
		Strictness:    cfg.Strictness,
		CacheMaxAge:   cfg.CacheMaxAge,
	}
}

// Enricher applies Crossref metadata to publications.
type Enricher struct {
	src     Lookup
	opts    Options
	limiter *rate.Limiter
	cache   *cache.Cache
	logger  *slog.Logger
	stats   Stats
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithCache stores and reuses lookup results.
func WithCache(c *cache.Cache) Option {
	return func(e *Enricher) { e.cache = c }
}

// WithLogger sets the logger for per-record warnings.
func WithLogger(l *slog.Logger) Option {
	return func(e *Enricher) { e.logger = l }
}

// New creates an Enricher over src.
func New(src Lookup, opts Options, options ...Option) *Enricher {
	if opts.MinSimilarity <= 0 {
		opts.MinSimilarity = 0.85
	}
	if opts.Rows <= 0 {
		opts.Rows = crossref.DefaultRows
	}
	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}
	e := &Enricher{
		src:     src,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		logger:  slog.New(slog.DiscardHandler),
		stats:   Stats{FailuresByKind: map[string]int{}},
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// Stats returns the counts accumulated so far.
func (e *Enricher) Stats() Stats {
	s := e.stats
	s.FailuresByKind = make(map[string]int, len(e.stats.FailuresByKind))
	for k, v := range e.stats.FailuresByKind {
		s.FailuresByKind[k] = v
	}
	return s
}

// EnrichAll enriches every record in order. Records rejected under a strict
// author policy are omitted from the result. progress, if non-nil, is called
// once per record. A cancelled context stops the batch and returns the
// records processed so far followed by the untouched remainder.
func (e *Enricher) EnrichAll(ctx context.Context, pubs []types.Publication, progress func()) ([]types.Publication, Stats) {
	out := make([]types.Publication, 0, len(pubs))
	for i, p := range pubs {
		if ctx.Err() != nil {
			out = append(out, pubs[i:]...)
			break
		}
		o := e.Enrich(ctx, p)
		if o.Keep {
			out = append(out, o.Publication)
		}
		if progress != nil {
			progress()
		}
	}
	return out, e.Stats()
}

// Enrich looks up one record and fills its missing fields from the best
// candidate work.
func (e *Enricher) Enrich(ctx context.Context, pub types.Publication) Outcome {
	e.stats.Processed++
	log := e.logger.With("title", pub.Title)

	var (
		work  crossref.Work
		found bool
		via   string
	)

	if doi := normalize.DOI(pub.DOI); doi != "" {
		w, ok, err := e.lookupDOI(ctx, doi)
		switch {
		case err != nil:
			log.Debug("DOI lookup failed, falling back to title search", "doi", doi, "kind", httputil.Kind(err), "error", err)
		case ok:
			work, found, via = w, true, "doi"
		}
	}

	if !found {
		w, ok, err := e.searchTitle(ctx, pub.Title, int(pub.Year))
		if err != nil {
			kind := httputil.Kind(err)
			e.stats.Failed++
			e.stats.FailuresByKind[kind]++
			log.Warn("enrichment lookup failed", "kind", kind, "error", err)
			return Outcome{Publication: pub, Status: StatusFailed, Keep: true, Err: err}
		}
		if !ok {
			e.stats.NoMatch++
			return Outcome{Publication: pub, Status: StatusNoMatch, Keep: true}
		}
		work, via = w, "title"
	}

	switch e.opts.Policy.Decide(work.Authors, pub.Authors.Names) {
	case authormatch.KeepOriginal:
		e.stats.KeptOriginal++
		log.Info("enrichment candidate has no matching author, keeping original", "doi", work.DOI)
		return Outcome{Publication: pub, Status: StatusKeptOriginal, Keep: true, Via: via}
	case authormatch.Reject:
		e.stats.Rejected++
		if e.opts.Strictness == types.StrictnessStrict {
			e.stats.Dropped++
			log.Warn("no matching author in record or candidate, dropping", "doi", work.DOI)
			return Outcome{Publication: pub, Status: StatusRejected, Keep: false, Via: via}
		}
		log.Warn("no matching author in record or candidate, keeping original", "doi", work.DOI)
		return Outcome{Publication: pub, Status: StatusRejected, Keep: true, Via: via}
	}

	e.stats.Enriched++
	return Outcome{Publication: Apply(pub, work), Status: StatusEnriched, Keep: true, Via: via}
}

// Apply fills the empty fields of pub from work. Present values are never
// overwritten, except a Scholar redirect URL, which gives way to the work's
// canonical link.
func Apply(pub types.Publication, work crossref.Work) types.Publication {
	out := pub
	if out.Authors.IsZero() && len(work.Authors) > 0 {
		out.Authors = types.NewAuthorList(work.Authors...)
	}
	setIfEmpty(&out.Journal, work.Journal)
	setIfEmpty(&out.Venue, work.Journal)
	setIfEmpty(&out.Volume, work.Volume)
	setIfEmpty(&out.Issue, work.Issue)
	setIfEmpty(&out.Pages, work.Pages)
	if out.Year == 0 && work.Year > 0 {
		out.Year = types.Year(work.Year)
	}
	setIfEmpty(&out.DOI, work.DOI)
	if IsScholarLink(out.URL) && work.URL != "" {
		out.URL = work.URL
	}
	setIfEmpty(&out.URL, work.URL)
	return out
}

// IsScholarLink reports whether u points at Google Scholar rather than the work.
func IsScholarLink(u string) bool {
	return strings.Contains(strings.ToLower(u), "scholar.google")
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func (e *Enricher) lookupDOI(ctx context.Context, doi string) (crossref.Work, bool, error) {
	key := cache.DOIKey(doi)
	if w, found, ok := e.cached(ctx, key); ok {
		return w, found, nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return crossref.Work{}, false, err
	}
	w, err := e.src.LookupDOI(ctx, doi)
	if err != nil {
		if errors.Is(err, httputil.ErrNotFound) {
			e.store(ctx, key, false, nil)
			return crossref.Work{}, false, nil
		}
		return crossref.Work{}, false, err
	}
	e.store(ctx, key, true, w)
	return w, true, nil
}

func (e *Enricher) searchTitle(ctx context.Context, title string, year int) (crossref.Work, bool, error) {
	titleKey := normalize.Key(title, normalize.KeyOptions{StripPunctuation: true})
	if titleKey == "" {
		return crossref.Work{}, false, nil
	}
	key := cache.TitleKey(titleKey, year)
	if w, found, ok := e.cached(ctx, key); ok {
		return w, found, nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return crossref.Work{}, false, err
	}
	works, err := e.src.SearchTitle(ctx, title, year, e.opts.Rows)
	if err != nil {
		return crossref.Work{}, false, err
	}
	w, ok := crossref.BestMatch(title, works, e.opts.MinSimilarity)
	if ok {
		e.store(ctx, key, true, w)
	} else {
		e.store(ctx, key, false, nil)
	}
	return w, ok, nil
}

// cached reports ok when key was answered from the cache; found tells
// whether the cached answer is a work or a confirmed miss.
func (e *Enricher) cached(ctx context.Context, key string) (w crossref.Work, found, ok bool) {
	if e.cache == nil {
		return crossref.Work{}, false, false
	}
	entry, hit, err := e.cache.Get(ctx, key, e.opts.CacheMaxAge)
	if err != nil {
		e.logger.Warn("cache read failed", "key", key, "error", err)
		return crossref.Work{}, false, false
	}
	if !hit {
		return crossref.Work{}, false, false
	}
	if entry.Found {
		if err := entry.Decode(&w); err != nil {
			e.logger.Warn("cache entry unreadable", "key", key, "error", err)
			return crossref.Work{}, false, false
		}
	}
	e.stats.CacheHits++
	return w, entry.Found, true
}

func (e *Enricher) store(ctx context.Context, key string, found bool, w any) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Put(ctx, key, found, w); err != nil {
		e.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the fetch, enrich, reconcile, and write stages in
// order. Per-record problems are logged and counted; only configuration
// errors and failures to write the store abort a run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/pdiddy/scholar-sync/internal/enrich"
	"github.com/pdiddy/scholar-sync/internal/normalize"
	"github.com/pdiddy/scholar-sync/internal/reconcile"
	"github.com/pdiddy/scholar-sync/internal/scholar"
	"github.com/pdiddy/scholar-sync/internal/store"
	"github.com/pdiddy/scholar-sync/pkg/types"
)

// Progress reports enrichment progress.
type Progress interface {
	Start(total int)
	Increment()
	Finish()
}

// Deps are the collaborators of a run.
type Deps struct {
	Source   scholar.Source
	Enricher *enrich.Enricher // nil skips enrichment
	Logger   *slog.Logger
	Progress Progress // nil shows nothing
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}

// Options are the per-run settings.
type Options struct {
	AuthorID  string
	MaxPages  int
	StorePath string
	DryRun    bool
	Reconcile reconcile.Options
}

// OptionsFromConfig derives run options from the configuration.
func OptionsFromConfig(cfg types.Config) Options {
	return Options{
		AuthorID:  cfg.Scholar.AuthorID,
		MaxPages:  cfg.Scholar.MaxPages,
		StorePath: cfg.Store.Path,
		Reconcile: ReconcileOptions(cfg.Merge),
	}
}

// ReconcileOptions maps the merge configuration onto reconcile.Options.
func ReconcileOptions(m types.MergeConfig) reconcile.Options {
	return reconcile.Options{
		Prune:                  m.Prune,
		MatchDOI:               m.MatchDOI,
		Key:                    normalize.KeyOptions{StripPunctuation: m.StripPunctuation},
		ShortenSelectedAuthors: m.ShortenSelectedAuthors,
	}
}

// Summary describes a finished run.
type Summary struct {
	reconcile.Stats
	Enrich     enrich.Stats
	Enriched   bool
	FetchErr   error  // pagination stopped early; partial results were used
	Changed    bool   // the store file was rewritten
	BackupPath string // set when a malformed store was backed up
}

// Sync fetches the author's publications, enriches them, merges them into
// the store, and writes the store back unless nothing changed.
func Sync(ctx context.Context, deps Deps, opts Options, w io.Writer) (Summary, error) {
	log := deps.logger()
	var sum Summary

	entries, err := scholar.FetchAll(ctx, deps.Source, opts.AuthorID, opts.MaxPages, log)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return sum, ctxErr
		}
		sum.FetchErr = err
		log.Warn("scholar fetch incomplete, continuing with partial results", "entries", len(entries), "error", err)
	}
	fresh := scholar.Publications(entries)
	fmt.Fprintf(w, "fetched %s publications from %s\n", humanize.Comma(int64(len(fresh))), deps.Source.Name())

	if deps.Enricher != nil && len(fresh) > 0 {
		fresh, sum.Enrich = runEnrich(ctx, deps, fresh)
		sum.Enriched = true
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	old, bak, err := loadExisting(opts.StorePath, opts.DryRun, log)
	if err != nil {
		return sum, err
	}
	sum.BackupPath = bak

	recOpts := opts.Reconcile
	switch {
	case !recOpts.Prune:
	case sum.FetchErr != nil:
		log.Warn("fetch was incomplete, not pruning the store", "error", sum.FetchErr)
		recOpts.Prune = false
	case len(fresh) == 0:
		log.Warn("fetch returned no publications, not pruning the store")
		recOpts.Prune = false
	}

	res := reconcile.Reconcile(old, fresh, recOpts)
	logUntitled(log, res.Untitled)
	sum.Stats = res.Stats

	changed, err := write(opts, res.Publications, w)
	if err != nil {
		return sum, err
	}
	sum.Changed = changed

	if sum.Enriched {
		PrintEnrichSummary(w, sum.Enrich)
	}
	PrintSummary(w, sum.Stats)
	return sum, nil
}

// EnrichFile enriches the records already in the store. Curated fields and
// records rejected by the author policy are left as they were.
func EnrichFile(ctx context.Context, deps Deps, opts Options, w io.Writer) (Summary, error) {
	log := deps.logger()
	var sum Summary

	if deps.Enricher == nil {
		return sum, fmt.Errorf("enrichment is disabled")
	}

	old, err := store.Load(opts.StorePath)
	if err != nil {
		return sum, fmt.Errorf("loading %s: %w", opts.StorePath, err)
	}

	enriched, est := runEnrich(ctx, deps, old)
	sum.Enrich, sum.Enriched = est, true
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	recOpts := opts.Reconcile
	recOpts.Prune = false
	res := reconcile.Reconcile(old, enriched, recOpts)
	logUntitled(log, res.Untitled)
	sum.Stats = res.Stats

	changed, err := write(opts, res.Publications, w)
	if err != nil {
		return sum, err
	}
	sum.Changed = changed

	PrintEnrichSummary(w, sum.Enrich)
	return sum, nil
}

// MergeFiles reconciles the publication list in newPath into the one in
// oldPath and writes the result to opts.StorePath. No network access.
func MergeFiles(oldPath, newPath string, opts Options, w io.Writer, log *slog.Logger) (Summary, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	var sum Summary

	fresh, err := store.Load(newPath)
	if err != nil {
		return sum, fmt.Errorf("loading %s: %w", newPath, err)
	}
	old, bak, err := loadExisting(oldPath, opts.DryRun, log)
	if err != nil {
		return sum, err
	}
	sum.BackupPath = bak

	res := reconcile.Reconcile(old, fresh, opts.Reconcile)
	logUntitled(log, res.Untitled)
	sum.Stats = res.Stats

	changed, err := write(opts, res.Publications, w)
	if err != nil {
		return sum, err
	}
	sum.Changed = changed

	PrintSummary(w, sum.Stats)
	return sum, nil
}

// PrintSummary writes the one-line count summary.
func PrintSummary(w io.Writer, s reconcile.Stats) {
	fmt.Fprintf(w, "existing: %s, fetched: %s, added: %s, updated: %s, retained: %s, total: %s",
		humanize.Comma(int64(s.Existing)),
		humanize.Comma(int64(s.Fetched)),
		humanize.Comma(int64(s.Added)),
		humanize.Comma(int64(s.Updated)),
		humanize.Comma(int64(s.Retained)),
		humanize.Comma(int64(s.Total)))
	if s.Pruned > 0 {
		fmt.Fprintf(w, ", pruned: %s", humanize.Comma(int64(s.Pruned)))
	}
	if s.Untitled > 0 {
		fmt.Fprintf(w, ", untitled: %s", humanize.Comma(int64(s.Untitled)))
	}
	fmt.Fprintln(w)
}

// PrintEnrichSummary writes the enrichment counts.
func PrintEnrichSummary(w io.Writer, s enrich.Stats) {
	fmt.Fprintf(w, "enriched: %d, no match: %d, failed: %d, kept original: %d, rejected: %d, dropped: %d, cache hits: %d\n",
		s.Enriched, s.NoMatch, s.Failed, s.KeptOriginal, s.Rejected, s.Dropped, s.CacheHits)
}

func runEnrich(ctx context.Context, deps Deps, pubs []types.Publication) ([]types.Publication, enrich.Stats) {
	var step func()
	if deps.Progress != nil {
		deps.Progress.Start(len(pubs))
		defer deps.Progress.Finish()
		step = deps.Progress.Increment
	}
	return deps.Enricher.EnrichAll(ctx, pubs, step)
}

// loadExisting reads the store. A malformed file is backed up (except in a
// dry run) and treated as empty.
func loadExisting(path string, dryRun bool, log *slog.Logger) ([]types.Publication, string, error) {
	old, err := store.Load(path)
	if err == nil {
		return old, "", nil
	}
	if !errors.Is(err, store.ErrMalformed) {
		return nil, "", fmt.Errorf("loading %s: %w", path, err)
	}

	if dryRun {
		log.Warn("store is malformed, starting fresh", "path", path, "error", err)
		return nil, "", nil
	}
	bak, bakErr := store.Backup(path)
	if bakErr != nil {
		return nil, "", fmt.Errorf("store %s is malformed and could not be backed up: %w", path, bakErr)
	}
	log.Warn("store is malformed, backed up and starting fresh", "path", path, "backup", bak, "error", err)
	return nil, bak, nil
}

func logUntitled(log *slog.Logger, pubs []types.Publication) {
	for _, p := range pubs {
		log.Warn("dropping record without a title", "doi", p.DOI, "url", p.URL, "year", int(p.Year))
	}
}

// write saves pubs, or prints them to w in a dry run. It reports whether the
// store changed.
func write(opts Options, pubs []types.Publication, w io.Writer) (bool, error) {
	if opts.DryRun {
		data, err := store.Encode(pubs)
		if err != nil {
			return false, err
		}
		if _, err := w.Write(data); err != nil {
			return false, fmt.Errorf("writing dry-run output: %w", err)
		}
		return false, nil
	}

	changed, err := store.Save(opts.StorePath, pubs)
	if err != nil {
		return false, fmt.Errorf("saving %s: %w", opts.StorePath, err)
	}
	if changed {
		fmt.Fprintf(w, "wrote %s\n", opts.StorePath)
	} else {
		fmt.Fprintln(w, "no changes detected")
	}
	return changed, nil
}

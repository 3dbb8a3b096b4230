// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-sync/internal/logging"
	"github.com/pdiddy/scholar-sync/internal/pipeline"
	"github.com/pdiddy/scholar-sync/internal/scholar"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch from Google Scholar, enrich from Crossref, and merge into the store",
	Long: `Sync fetches the author's publication list from Google Scholar (SerpAPI or
the public profile page), fills missing fields from Crossref, and merges the
result into the curated store. Curated fields always survive. Records missing
from the fetch are kept unless --prune is given, and never pruned when the
fetch returned nothing.

The SerpAPI backend needs an API key: SERPAPI_API_KEY, .secrets/serpapi-api-key,
or scholar.api_key in the config file.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().String("author-id", "", "Google Scholar user id (e.g. m3rLfS4AAAAJ)")
	syncCmd.Flags().String("backend", "", "scholar backend: serpapi or profile")
	syncCmd.Flags().Int("max-pages", 0, "maximum result pages to fetch (default 10)")
	syncCmd.Flags().Bool("prune", false, "drop stored records missing from the fetch")
	syncCmd.Flags().Bool("no-enrich", false, "skip Crossref enrichment")
	syncCmd.Flags().Bool("strict", false, "drop records whose authors fail the author-match policy")
	syncCmd.Flags().String("cache", "", "SQLite lookup cache path")
	syncCmd.Flags().Bool("progress", false, "show a progress bar during enrichment")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(cfg.Log, cmd.ErrOrStderr())
	client := &http.Client{Timeout: cfg.HTTP.Timeout}

	src, err := scholar.NewSource(cfg, client)
	if err != nil {
		return err
	}
	deps := pipeline.Deps{Source: src, Logger: logger}

	if cfg.Enrich.Enabled {
		enricher, closeCache, err := newEnricher(cfg, client, logger)
		if err != nil {
			return err
		}
		defer closeCache()
		deps.Enricher = enricher
		if show, _ := cmd.Flags().GetBool("progress"); show {
			deps.Progress = newBarProgress(cmd.ErrOrStderr())
		}
	}

	opts := pipeline.OptionsFromConfig(cfg)
	opts.DryRun, _ = cmd.Flags().GetBool("dry-run")

	sum, err := pipeline.Sync(cmd.Context(), deps, opts, cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if sum.FetchErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: fetch stopped early (%v); stored records were kept\n", sum.FetchErr)
	}
	return nil
}

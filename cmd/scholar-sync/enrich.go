// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-sync/internal/logging"
	"github.com/pdiddy/scholar-sync/internal/pipeline"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fill missing fields of the stored publications from Crossref",
	Long: `Enrich looks up every record of the curated store on Crossref, by DOI first
and by title second, and fills fields that are empty. Nothing is fetched from
Google Scholar and no record is removed.`,
	Args: cobra.NoArgs,
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().String("cache", "", "SQLite lookup cache path")
	enrichCmd.Flags().Bool("progress", false, "show a progress bar")

	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateLocal(); err != nil {
		return err
	}

	logger := logging.New(cfg.Log, cmd.ErrOrStderr())
	client := &http.Client{Timeout: cfg.HTTP.Timeout}

	enricher, closeCache, err := newEnricher(cfg, client, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	deps := pipeline.Deps{Enricher: enricher, Logger: logger}
	if show, _ := cmd.Flags().GetBool("progress"); show {
		deps.Progress = newBarProgress(cmd.ErrOrStderr())
	}

	opts := pipeline.OptionsFromConfig(cfg)
	opts.DryRun, _ = cmd.Flags().GetBool("dry-run")

	if _, err := pipeline.EnrichFile(cmd.Context(), deps, opts, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("enrich: %w", err)
	}
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-sync/internal/cache"
	"github.com/pdiddy/scholar-sync/pkg/types"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or purge the Crossref lookup cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the number of cached lookups",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cached lookups older than --older-than",
	Long: `Purge deletes lookups fetched longer ago than --older-than, or
enrich.cache_max_age when the flag is not given.`,
	Args:  cobra.NoArgs,
	RunE:  runCachePurge,
}

func init() {
	cacheCmd.PersistentFlags().String("cache", "", "SQLite lookup cache path (default enrich.cache_path)")
	cachePurgeCmd.Flags().Duration("older-than", 0, "only purge entries fetched before this age")

	cacheCmd.AddCommand(cacheStatsCmd, cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

func openCache(cfg types.Config) (*cache.Cache, error) {
	if cfg.Enrich.CachePath == "" {
		return nil, fmt.Errorf("no cache configured: set enrich.cache_path or --cache")
	}
	return cache.Open(cfg.Enrich.CachePath)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	c, err := openCache(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	n, err := c.Len(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s cached lookups\n", cfg.Enrich.CachePath, humanize.Comma(int64(n)))
	return nil
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	age := cfg.Enrich.CacheMaxAge
	if cmd.Flags().Changed("older-than") {
		age, _ = cmd.Flags().GetDuration("older-than")
	}
	if age <= 0 {
		return fmt.Errorf("no age given: set --older-than or enrich.cache_max_age")
	}

	c, err := openCache(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	n, err := c.Purge(cmd.Context(), age)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: purged %s entries\n", cfg.Enrich.CachePath, humanize.Comma(n))
	return nil
}

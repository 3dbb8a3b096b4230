// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the scholar-sync CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-sync/internal/secrets"
	"github.com/pdiddy/scholar-sync/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ and .env at startup.
var loadedSecrets secrets.Set

// configErr records a config file that was named explicitly but could not be read.
var configErr error

// rootCmd is the base command for the scholar-sync CLI.
var rootCmd = &cobra.Command{
	Use:   "scholar-sync",
	Short: "Keep a curated publications file in sync with Google Scholar",
	Long: `scholar-sync fetches an author's publication list from Google Scholar,
fills missing bibliographic fields from Crossref, and merges the result into a
hand-curated YAML file. Curated fields (selected, image, description,
highlights) are never overwritten, and records that disappear from Scholar are
kept unless --prune is given.

Subcommands: sync (fetch, enrich, merge), enrich (enrich the stored file in
place), merge (reconcile two files offline), export (CSL-YAML or JSON), and
cache (inspect or purge the Crossref lookup cache).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}
		s, err := secrets.Open(".secrets/", ".env")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s.Files) > 0 {
			keys := make([]string, 0, len(s.Files))
			for k := range s.Files {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(cmd.ErrOrStderr(), "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./scholar-sync.yaml or ~/.config/scholar-sync/scholar-sync.yaml)")
	pf.String("store", "", "curated publications file (default _data/publications.yml)")
	pf.Bool("dry-run", false, "print the resulting YAML instead of writing the store")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text or json")

	v := viper.GetViper()
	registerDefaults(v, types.DefaultConfig())
	configureEnv(v)
	_ = v.BindPFlag("store.path", pf.Lookup("store"))
	_ = v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = v.BindPFlag("log.format", pf.Lookup("log-format"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("scholar-sync")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "scholar-sync"))
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		configErr = fmt.Errorf("reading config file %s: %w", cfgFile, err)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

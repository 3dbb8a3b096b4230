// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-sync/internal/cache"
	"github.com/pdiddy/scholar-sync/internal/crossref"
	"github.com/pdiddy/scholar-sync/internal/enrich"
	"github.com/pdiddy/scholar-sync/internal/secrets"
	"github.com/pdiddy/scholar-sync/pkg/types"
)

// envPrefix namespaces environment overrides, e.g. SCHOLAR_SYNC_SCHOLAR_AUTHOR_ID.
const envPrefix = "SCHOLAR_SYNC"

// registerDefaults makes every config key known to v so that environment
// variables are picked up by Unmarshal.
func registerDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)

	v.SetDefault("scholar.backend", string(d.Scholar.Backend))
	v.SetDefault("scholar.author_id", d.Scholar.AuthorID)
	v.SetDefault("scholar.api_key", d.Scholar.APIKey)
	v.SetDefault("scholar.max_pages", d.Scholar.MaxPages)
	v.SetDefault("scholar.sort", d.Scholar.Sort)

	v.SetDefault("enrich.enabled", d.Enrich.Enabled)
	v.SetDefault("enrich.mailto", d.Enrich.Mailto)
	v.SetDefault("enrich.delay", d.Enrich.Delay)
	v.SetDefault("enrich.rows", d.Enrich.Rows)
	v.SetDefault("enrich.min_similarity", d.Enrich.MinSimilarity)
	v.SetDefault("enrich.author_variants", d.Enrich.AuthorVariants)
	v.SetDefault("enrich.exact_names", d.Enrich.ExactNames)
	v.SetDefault("enrich.strictness", string(d.Enrich.Strictness))
	v.SetDefault("enrich.cache_path", d.Enrich.CachePath)
	v.SetDefault("enrich.cache_max_age", d.Enrich.CacheMaxAge)

	v.SetDefault("merge.prune", d.Merge.Prune)
	v.SetDefault("merge.match_doi", d.Merge.MatchDOI)
	v.SetDefault("merge.strip_punctuation", d.Merge.StripPunctuation)
	v.SetDefault("merge.shorten_selected_authors", d.Merge.ShortenSelectedAuthors)

	v.SetDefault("store.path", d.Store.Path)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// loadConfig builds the run configuration from v. Credentials missing from
// the config fall back to the environment, .env, and the secrets directory.
func loadConfig(v *viper.Viper, s secrets.Set) (types.Config, error) {
	cfg := types.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	if cfg.Scholar.APIKey == "" {
		cfg.Scholar.APIKey = s.SerpAPIKey()
	}
	if cfg.Enrich.Mailto == "" {
		cfg.Enrich.Mailto = s.CrossrefMailto()
	}
	return cfg, nil
}

// applyFlags copies explicitly set command flags over cfg. Flags a command
// does not define are ignored.
func applyFlags(cmd *cobra.Command, cfg *types.Config) {
	f := cmd.Flags()
	if f.Changed("author-id") {
		cfg.Scholar.AuthorID, _ = f.GetString("author-id")
	}
	if f.Changed("backend") {
		b, _ := f.GetString("backend")
		cfg.Scholar.Backend = types.ScholarBackend(strings.ToLower(b))
	}
	if f.Changed("max-pages") {
		cfg.Scholar.MaxPages, _ = f.GetInt("max-pages")
	}
	if f.Changed("prune") {
		cfg.Merge.Prune, _ = f.GetBool("prune")
	}
	if f.Changed("no-enrich") {
		if off, _ := f.GetBool("no-enrich"); off {
			cfg.Enrich.Enabled = false
		}
	}
	if f.Changed("strict") {
		if strict, _ := f.GetBool("strict"); strict {
			cfg.Enrich.Strictness = types.StrictnessStrict
		}
	}
	if f.Changed("cache") {
		cfg.Enrich.CachePath, _ = f.GetString("cache")
	}
}

// commandConfig is the configuration for cmd: viper settings, secrets, then
// the command's own flags.
func commandConfig(cmd *cobra.Command) (types.Config, error) {
	cfg, err := loadConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return cfg, err
	}
	applyFlags(cmd, &cfg)
	return cfg, nil
}

// newEnricher wires the Crossref client, the optional lookup cache, and the
// logger into an Enricher. The returned func closes the cache.
func newEnricher(cfg types.Config, client *http.Client, logger *slog.Logger) (*enrich.Enricher, func(), error) {
	cr := crossref.NewClient(
		crossref.WithHTTPClient(client),
		crossref.WithUserAgent(cfg.HTTP.UserAgent),
		crossref.WithMailto(cfg.Enrich.Mailto),
	)

	options := []enrich.Option{enrich.WithLogger(logger)}
	closeFn := func() {}
	if cfg.Enrich.CachePath != "" {
		c, err := cache.Open(cfg.Enrich.CachePath)
		if err != nil {
			return nil, nil, err
		}
		options = append(options, enrich.WithCache(c))
		closeFn = func() {
			if err := c.Close(); err != nil {
				logger.Warn("closing lookup cache", "path", cfg.Enrich.CachePath, "error", err)
			}
		}
	}
	return enrich.New(cr, enrich.OptionsFromConfig(cfg.Enrich), options...), closeFn, nil
}

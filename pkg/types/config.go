package types

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingCredential is returned by Config.Validate when the selected
// Scholar backend needs an API key and none was configured.
var ErrMissingCredential = errors.New("missing API credential")

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the single, fixed per-request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "scholar-sync/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ScholarBackend selects how the publication list is fetched from Google Scholar.
type ScholarBackend string

const (
	BackendSerpAPI ScholarBackend = "serpapi"
	BackendProfile ScholarBackend = "profile"
)

// ScholarConfig holds settings for the Scholar fetch stage.
type ScholarConfig struct {
	// Backend is serpapi (default, needs APIKey) or profile (public page scrape).
	Backend ScholarBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// AuthorID is the Google Scholar user identifier (e.g. "m3rLfS4AAAAJ").
	AuthorID string `json:"author_id" yaml:"author_id" mapstructure:"author_id"`

	// APIKey is the SerpAPI key.
	APIKey string `json:"-" yaml:"-" mapstructure:"api_key"`

	// MaxPages bounds pagination (default 10).
	MaxPages int `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages"`

	// Sort is passed to SerpAPI: "pubdate" or "" for citation order.
	Sort string `json:"sort,omitempty" yaml:"sort,omitempty" mapstructure:"sort"`
}

// Strictness controls what happens to a record whose enrichment candidate and
// original author list both fail the author-match policy.
type Strictness string

const (
	// StrictnessLenient keeps the original, unenriched record.
	StrictnessLenient Strictness = "lenient"
	// StrictnessStrict drops the record from the fetched set.
	StrictnessStrict Strictness = "strict"
)

// EnrichConfig holds settings for Crossref enrichment.
type EnrichConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Mailto is sent to Crossref for polite-pool access.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty" mapstructure:"mailto"`

	// Delay is the fixed pause between consecutive Crossref calls (default 400ms).
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`

	// Rows is the number of title-search candidates to rank (default 5).
	Rows int `json:"rows" yaml:"rows" mapstructure:"rows"`

	// MinSimilarity is the title similarity a candidate needs to be accepted (default 0.85).
	MinSimilarity float64 `json:"min_similarity" yaml:"min_similarity" mapstructure:"min_similarity"`

	// AuthorVariants are accepted spellings of the target author's name.
	// Empty disables the author-match guard.
	AuthorVariants []string `json:"author_variants,omitempty" yaml:"author_variants,omitempty" mapstructure:"author_variants"`

	// ExactNames requires a normalized author to equal a variant instead of containing it.
	ExactNames bool `json:"exact_names" yaml:"exact_names" mapstructure:"exact_names"`

	Strictness Strictness `json:"strictness" yaml:"strictness" mapstructure:"strictness"`

	// CachePath is the SQLite lookup cache; empty disables caching.
	CachePath string `json:"cache_path,omitempty" yaml:"cache_path,omitempty" mapstructure:"cache_path"`

	// CacheMaxAge expires cached lookups; zero keeps them forever.
	CacheMaxAge time.Duration `json:"cache_max_age" yaml:"cache_max_age" mapstructure:"cache_max_age"`
}

// MergeConfig holds reconciliation settings.
type MergeConfig struct {
	// Prune drops stored records that are missing from the fresh fetch.
	Prune bool `json:"prune" yaml:"prune" mapstructure:"prune"`

	// MatchDOI lets a DOI match a stored record when the title key misses.
	MatchDOI bool `json:"match_doi" yaml:"match_doi" mapstructure:"match_doi"`

	// StripPunctuation removes punctuation from identity keys.
	StripPunctuation bool `json:"strip_punctuation" yaml:"strip_punctuation" mapstructure:"strip_punctuation"`

	// ShortenSelectedAuthors truncates author lists of selected records; 0 disables.
	ShortenSelectedAuthors int `json:"shorten_selected_authors" yaml:"shorten_selected_authors" mapstructure:"shorten_selected_authors"`
}

// StoreConfig locates the curated publications file.
type StoreConfig struct {
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups every stage configuration. It is built once at process start
// and passed by value into each stage.
type Config struct {
	HTTP    HTTPConfig    `json:"http" yaml:"http" mapstructure:"http"`
	Scholar ScholarConfig `json:"scholar" yaml:"scholar" mapstructure:"scholar"`
	Enrich  EnrichConfig  `json:"enrich" yaml:"enrich" mapstructure:"enrich"`
	Merge   MergeConfig   `json:"merge" yaml:"merge" mapstructure:"merge"`
	Store   StoreConfig   `json:"store" yaml:"store" mapstructure:"store"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "scholar-sync/0.1",
		},
		Scholar: ScholarConfig{
			Backend:  BackendSerpAPI,
			MaxPages: 10,
			Sort:     "pubdate",
		},
		Enrich: EnrichConfig{
			Enabled:       true,
			Delay:         400 * time.Millisecond,
			Rows:          5,
			MinSimilarity: 0.85,
			Strictness:    StrictnessLenient,
		},
		Merge: MergeConfig{
			MatchDOI:         true,
			StripPunctuation: true,
		},
		Store: StoreConfig{
			Path: "_data/publications.yml",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the settings a sync run needs before any network call.
func (c Config) Validate() error {
	switch c.Scholar.Backend {
	case BackendSerpAPI:
		if c.Scholar.APIKey == "" {
			return fmt.Errorf("%w: set SERPAPI_API_KEY, .secrets/serpapi-api-key, or scholar.api_key", ErrMissingCredential)
		}
	case BackendProfile:
	default:
		return fmt.Errorf("unknown scholar backend %q: use serpapi or profile", c.Scholar.Backend)
	}
	if c.Scholar.AuthorID == "" {
		return fmt.Errorf("scholar author id is required: set scholar.author_id or --author-id")
	}
	return c.ValidateLocal()
}

// ValidateLocal checks the settings needed by commands that only touch the
// store and Crossref.
func (c Config) ValidateLocal() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}
	switch c.Enrich.Strictness {
	case StrictnessLenient, StrictnessStrict, "":
	default:
		return fmt.Errorf("unknown strictness %q: use lenient or strict", c.Enrich.Strictness)
	}
	if c.Enrich.MinSimilarity < 0 || c.Enrich.MinSimilarity > 1 {
		return fmt.Errorf("enrich.min_similarity must be between 0 and 1, got %v", c.Enrich.MinSimilarity)
	}
	return nil
}

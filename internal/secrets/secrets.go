// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves API credentials. A credential may come from the
// process environment, a .env file, or a directory of plain-text files where
// the filename is the key name and the trimmed contents are the value.
//
// Supported key files: serpapi-api-key, crossref-mailto.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Key file names and the environment variables that can stand in for them.
const (
	SerpAPIKeyFile     = "serpapi-api-key"
	CrossrefMailtoFile = "crossref-mailto"
)

var (
	SerpAPIEnvVars     = []string{"SERPAPI_API_KEY", "SERPAPI_KEY"}
	CrossrefMailtoVars = []string{"CROSSREF_MAILTO"}
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// LoadDotEnv parses a .env file without modifying the process environment.
// A missing file yields an empty map.
func LoadDotEnv(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return vars, nil
}

// Set combines the credential sources in precedence order: environment,
// then .env, then the secrets directory.
type Set struct {
	Getenv func(string) string
	DotEnv map[string]string
	Files  map[string]string
}

// Open loads the secrets directory and the .env file. Either may be absent.
func Open(secretsDir, dotEnvPath string) (Set, error) {
	files, err := Load(secretsDir)
	if err != nil {
		return Set{}, err
	}
	dotenv, err := LoadDotEnv(dotEnvPath)
	if err != nil {
		return Set{}, err
	}
	return Set{Getenv: os.Getenv, DotEnv: dotenv, Files: files}, nil
}

// Lookup returns the first non-empty value among the environment variables
// envVars, the same names in the .env file, and the secrets file named file.
func (s Set) Lookup(file string, envVars ...string) string {
	if s.Getenv != nil {
		for _, v := range envVars {
			if val := strings.TrimSpace(s.Getenv(v)); val != "" {
				return val
			}
		}
	}
	for _, v := range envVars {
		if val := strings.TrimSpace(s.DotEnv[v]); val != "" {
			return val
		}
	}
	return s.Files[file]
}

// SerpAPIKey resolves the SerpAPI credential.
func (s Set) SerpAPIKey() string {
	return s.Lookup(SerpAPIKeyFile, SerpAPIEnvVars...)
}

// CrossrefMailto resolves the contact address sent to Crossref.
func (s Set) CrossrefMailto() string {
	return s.Lookup(CrossrefMailtoFile, CrossrefMailtoVars...)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store reads and writes the curated publications file. Writes go
// through a temp file and a rename, so an interrupted run leaves the previous
// file intact, and are skipped entirely when the content did not change.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scholar-sync/pkg/types"
)

// ErrMalformed is returned by Load when the file exists but does not parse
// as a publication list.
var ErrMalformed = errors.New("malformed publications file")

// wrapperKey is the top-level key some site generators nest the list under.
const wrapperKey = "publications"

// Load reads the publication list at path. A missing or empty file yields an
// empty list. The file may hold a top-level sequence or a mapping with a
// publications key.
func Load(path string) ([]types.Publication, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Decode(data)
}

// Decode parses a publication list from YAML.
func Decode(data []byte) ([]types.Publication, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	node := &doc
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, nil
		}
		node = node.Content[0]
	}

	switch node.Kind {
	case yaml.SequenceNode:
	case yaml.MappingNode:
		list := lookup(node, wrapperKey)
		if list == nil {
			return nil, fmt.Errorf("%w: mapping without a %q key", ErrMalformed, wrapperKey)
		}
		node = list
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: line %d: expected a list of publications", ErrMalformed, node.Line)
	default:
		return nil, fmt.Errorf("%w: line %d: expected a list of publications", ErrMalformed, node.Line)
	}

	var pubs []types.Publication
	if err := node.Decode(&pubs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return pubs, nil
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// Encode renders pubs as YAML with two-space indentation. Field order follows
// the Publication struct, followed by any extra keys.
func Encode(pubs []types.Publication) ([]byte, error) {
	if pubs == nil {
		pubs = []types.Publication{}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(pubs); err != nil {
		return nil, fmt.Errorf("encoding publications: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding publications: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes pubs to path unless the file already holds the same bytes. It
// reports whether the file changed.
func Save(path string, pubs []types.Publication) (bool, error) {
	data, err := Encode(pubs)
	if err != nil {
		return false, err
	}
	if current, err := os.ReadFile(path); err == nil && bytes.Equal(current, data) {
		return false, nil
	}
	if err := writeAtomic(path, data); err != nil {
		return false, err
	}
	return true, nil
}

// Backup copies the file at path to path+".bak" and returns the backup path.
func Backup(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s for backup: %w", path, err)
	}
	bak := path + ".bak"
	if err := writeAtomic(bak, data); err != nil {
		return "", err
	}
	return bak, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".scholar-sync-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

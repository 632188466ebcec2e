// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package inventory lists the documents already present in the download
// directory, however they got there.
package inventory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/guideline-chunker/internal/fetch"
	"github.com/pdiddy/guideline-chunker/pkg/types"
)

// ErrNoDirectory is returned when the download directory does not exist.
var ErrNoDirectory = errors.New("download directory does not exist")

// List returns every entry in dir whose name ends in ext, sorted by name.
// Symlinks are followed; directories, dotfiles, and links that do not lead to
// a regular file are left out. Fetch sidecar metadata is attached when present.
func List(dir, ext string) ([]types.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoDirectory, dir)
		}
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	ext = strings.ToLower(ext)
	var docs []types.Document
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(name), ext) {
			continue
		}

		path := filepath.Join(dir, name)
		if !entry.Type().IsRegular() {
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		}

		doc := types.Document{
			Name: name,
			Path: path,
		}
		if rec, err := fetch.ReadRecord(dir, name); err == nil {
			doc.SourceURL = rec.SourceURL
			doc.FetchedAt = rec.FetchedAt
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

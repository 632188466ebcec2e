// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/guideline-chunker/pkg/types"
)

// EncodeAggregate writes agg as indented JSON. Non-ASCII text and HTML
// characters are written verbatim rather than escaped.
func EncodeAggregate(w io.Writer, agg types.Aggregate) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(agg); err != nil {
		return fmt.Errorf("encoding aggregate: %w", err)
	}
	return nil
}

// WriteAggregate writes agg to path through a temporary file in the same
// directory, renamed into place on success.
func WriteAggregate(path string, agg types.Aggregate) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".chunks-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if err := tmpFile.Chmod(0o644); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("setting output permissions: %w", err)
	}

	encErr := EncodeAggregate(tmpFile, agg)
	closeErr := tmpFile.Close()
	if encErr != nil {
		os.Remove(tmpPath)
		return encErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

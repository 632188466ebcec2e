// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Document is a PDF present in the download directory, whether the fetcher
// put it there or someone copied it in by hand.
type Document struct {
	// Name is the filename, derived from the locator's final path segment.
	Name string `json:"name" yaml:"name"`

	// Path is the local filesystem path to the file.
	Path string `json:"path" yaml:"path"`

	// SourceURL is the locator the file was downloaded from. Empty for files
	// placed manually.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	// FetchedAt is when the fetcher wrote the file. Zero for manual files.
	FetchedAt time.Time `json:"fetched_at,omitempty" yaml:"fetched_at,omitempty"`
}

// FetchRecord is the sidecar metadata the fetcher writes next to each
// downloaded file.
type FetchRecord struct {
	SourceURL string    `json:"source_url" yaml:"source_url"`
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
	Size      int64     `json:"size" yaml:"size"`
}

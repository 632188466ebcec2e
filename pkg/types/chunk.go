// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Chunk is one page worth of extracted text from a single document.
// ChunkID counts emitted chunks within the parent document only; it restarts
// at 0 for every document in an Aggregate.
type Chunk struct {
	// ChunkID is the 0-based sequence number of the chunk within its document.
	ChunkID int `json:"chunk_id" yaml:"chunk_id"`

	// CancerType is the category label derived from the document filename.
	CancerType string `json:"cancer_type" yaml:"cancer_type"`

	// Heading labels the chunk, e.g. "Page 3".
	Heading string `json:"heading" yaml:"heading"`

	// Text is the extracted page text, truncated to the configured cap.
	Text string `json:"text" yaml:"text"`

	// Source is the filename of the parent document.
	Source string `json:"source" yaml:"source"`

	// Page is the 1-based page number the text came from.
	Page int `json:"page" yaml:"page"`
}

// Aggregate is the single output artifact of a run: every chunk from every
// processed document, in document-processing order.
type Aggregate struct {
	TotalChunks int     `json:"total_chunks" yaml:"total_chunks"`
	Source      string  `json:"source" yaml:"source"`
	Chunks      []Chunk `json:"chunks" yaml:"chunks"`
}

// NewAggregate wraps chunks with their count and provenance label. A nil
// slice is normalised to an empty one so the JSON output always carries an
// array.
func NewAggregate(source string, chunks []Chunk) Aggregate {
	if chunks == nil {
		chunks = []Chunk{}
	}
	return Aggregate{
		TotalChunks: len(chunks),
		Source:      source,
		Chunks:      chunks,
	}
}

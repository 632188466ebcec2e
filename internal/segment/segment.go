// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package segment splits a document into one chunk per non-empty page.
package segment

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdiddy/guideline-chunker/internal/report"
	"github.com/pdiddy/guideline-chunker/pkg/types"
)

// Document is an opened, paged document.
type Document interface {
	// NumPages returns the page count.
	NumPages() int

	// PageText returns the plain text of page n (1-based).
	PageText(n int) (string, error)

	// Close releases the underlying handle.
	Close() error
}

// Opener opens the document at path.
type Opener interface {
	Open(path string) (Document, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(path string) (Document, error)

// Open implements Opener.
func (f OpenerFunc) Open(path string) (Document, error) { return f(path) }

// Segmenter turns documents into chunks. It holds no state between calls:
// segmenting the same file twice yields the same chunks.
type Segmenter struct {
	opener Opener
	cfg    types.SegmentConfig
	rep    report.Reporter
}

// New returns a Segmenter. A nil opener selects the PDF reader; zero caps
// fall back to the defaults.
func New(opener Opener, cfg types.SegmentConfig, rep report.Reporter) *Segmenter {
	if opener == nil {
		opener = OpenerFunc(OpenPDF)
	}
	if cfg.TextCap <= 0 {
		cfg.TextCap = types.DefaultTextCap
	}
	if cfg.CategoryCap <= 0 {
		cfg.CategoryCap = types.DefaultCategoryCap
	}
	return &Segmenter{opener: opener, cfg: cfg, rep: report.OrDiscard(rep)}
}

// Segment returns one chunk for every page of the document at path that
// yields non-empty text, in page order. Pages without text are skipped and
// do not consume a chunk id. If the document cannot be opened, or the
// parser fails partway through, Segment returns no chunks and an error.
// The document is closed before Segment returns in every case.
func (s *Segmenter) Segment(path string) (chunks []types.Chunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			chunks, err = nil, fmt.Errorf("parsing %s: %v", filepath.Base(path), r)
		}
	}()

	doc, err := s.opener.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer doc.Close()

	name := filepath.Base(path)
	category := Category(name, s.cfg.CategoryCap)

	for page := 1; page <= doc.NumPages(); page++ {
		text, err := doc.PageText(page)
		if err != nil {
			s.rep.Report(report.Event{
				Kind:    report.Warning,
				Subject: fmt.Sprintf("%s page %d", name, page),
				Err:     err,
			})
			continue
		}
		if text == "" {
			continue
		}
		chunks = append(chunks, types.Chunk{
			ChunkID:    len(chunks),
			CancerType: category,
			Heading:    fmt.Sprintf("Page %d", page),
			Text:       Truncate(text, s.cfg.TextCap),
			Source:     name,
			Page:       page,
		})
	}
	return chunks, nil
}

// Category derives the category label from a filename: extension removed,
// underscores turned into spaces, cut to max characters.
func Category(filename string, max int) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	return Truncate(strings.ReplaceAll(base, "_", " "), max)
}

// Truncate returns the first max characters of s. Characters are Unicode
// code points, so multi-byte text is never split mid-rune.
func Truncate(s string, max int) string {
	if max < 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
